package handler

import (
	"github.com/gin-gonic/gin"

	"pressroom/invitehub/internal/service"
	"pressroom/invitehub/pkg/response"
)

// ReceiveHandler exposes the invitee-side flow. Every operation requires the
// one-time key; the service verifies it and the expiry before any mutating
// call reaches the engine.
type ReceiveHandler struct {
	invitations service.InvitationService
}

func NewReceiveHandler(invitations service.InvitationService) *ReceiveHandler {
	return &ReceiveHandler{invitations: invitations}
}

// Receive resolves a pending invitation by id and key.
func (h *ReceiveHandler) Receive(c *gin.Context) {
	id, ok := invitationIDParam(c)
	if !ok {
		return
	}
	key := c.Query("key")
	if key == "" {
		response.BadRequest(c, "missing invitation key")
		return
	}

	inv, err := h.invitations.Resolve(c.Request.Context(), id, key)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, viewOf(inv))
}

type RefineRequest struct {
	Key    string         `json:"key" binding:"required"`
	Fields map[string]any `json:"fields" binding:"required"`
}

// Refine lets the invitee fill the fields still open while PENDING.
func (h *ReceiveHandler) Refine(c *gin.Context) {
	id, ok := invitationIDParam(c)
	if !ok {
		return
	}

	var req RefineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	inv, updated, err := h.invitations.Refine(c.Request.Context(), id, req.Key, req.Fields)
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

type KeyedActionRequest struct {
	Key string `json:"key" binding:"required"`
}

// Finalize accepts the invitation.
func (h *ReceiveHandler) Finalize(c *gin.Context) {
	id, ok := invitationIDParam(c)
	if !ok {
		return
	}

	var req KeyedActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if err := h.invitations.Finalize(c.Request.Context(), id, req.Key); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "ACCEPTED"})
}

// Decline declines the invitation.
func (h *ReceiveHandler) Decline(c *gin.Context) {
	id, ok := invitationIDParam(c)
	if !ok {
		return
	}

	var req KeyedActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	if err := h.invitations.Decline(c.Request.Context(), id, req.Key); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"status": "DECLINED"})
}
