package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pressroom/invitehub/internal/invitation"
	"pressroom/invitehub/internal/model"
	"pressroom/invitehub/internal/service"
	"pressroom/invitehub/pkg/response"
)

// InvitationHandler exposes the staff-side create flow: add, populate,
// invite, get.
type InvitationHandler struct {
	invitations service.InvitationService
}

func NewInvitationHandler(invitations service.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitations: invitations}
}

type CreateInvitationRequest struct {
	Type      string     `json:"type" binding:"required"`
	UserID    *uuid.UUID `json:"user_id,omitempty"`
	Email     *string    `json:"email,omitempty"`
	ContextID *uuid.UUID `json:"context_id,omitempty"`
}

type invitationView struct {
	ID         int64                  `json:"id"`
	Type       string                 `json:"type"`
	Status     model.InvitationStatus `json:"status"`
	UserID     *uuid.UUID             `json:"user_id,omitempty"`
	Email      *string                `json:"email,omitempty"`
	ContextID  *uuid.UUID             `json:"context_id,omitempty"`
	Payload    model.PayloadMap       `json:"payload,omitempty"`
	ExpiryDate *string                `json:"expiry_date,omitempty"`
}

func viewOf(inv *invitation.Invitation) invitationView {
	rec := inv.Record()
	v := invitationView{
		ID:        rec.ID,
		Type:      rec.Type,
		Status:    rec.Status,
		UserID:    rec.UserID,
		Email:     rec.Email,
		ContextID: rec.ContextID,
		Payload:   rec.Payload,
	}
	if rec.ExpiryDate != nil {
		s := rec.ExpiryDate.UTC().Format(time.RFC3339)
		v.ExpiryDate = &s
	}
	return v
}

// Add creates and initializes a new invitation of the requested type.
func (h *InvitationHandler) Add(c *gin.Context) {
	inviterID, err := getUserIDFromContext(c)
	if err != nil {
		response.Unauthorized(c, "invalid user context")
		return
	}

	var req CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	inv, err := h.invitations.Create(c.Request.Context(), req.Type, invitation.InitArgs{
		UserID:    req.UserID,
		Email:     req.Email,
		ContextID: req.ContextID,
		InviterID: &inviterID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, viewOf(inv))
}

type PopulateRequest struct {
	Fields map[string]any `json:"fields" binding:"required"`
}

// Populate fills permitted payload fields and persists them.
func (h *InvitationHandler) Populate(c *gin.Context) {
	id, ok := invitationIDParam(c)
	if !ok {
		return
	}

	var req PopulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	inv, updated, err := h.invitations.Populate(c.Request.Context(), id, req.Fields)
	if err != nil {
		respondError(c, err)
		return
	}
	if !updated {
		response.UnprocessableEntity(c, "invitation payload is not valid")
		return
	}
	response.Success(c, viewOf(inv))
}

// Invite dispatches the invitation. A validation failure is a 422; the
// caller is expected to re-prompt and populate again.
func (h *InvitationHandler) Invite(c *gin.Context) {
	id, ok := invitationIDParam(c)
	if !ok {
		return
	}

	inv, sent, err := h.invitations.Send(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !sent {
		response.UnprocessableEntity(c, "invitation is not valid to send")
		return
	}
	response.Success(c, viewOf(inv))
}

// Get returns one invitation.
func (h *InvitationHandler) Get(c *gin.Context) {
	id, ok := invitationIDParam(c)
	if !ok {
		return
	}

	inv, err := h.invitations.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, viewOf(inv))
}

// List returns all invitations, newest first.
func (h *InvitationHandler) List(c *gin.Context) {
	recs, err := h.invitations.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, recs)
}
