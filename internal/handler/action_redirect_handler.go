package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"pressroom/invitehub/internal/service"
)

// ActionRedirectHandler serves the accept/decline links embedded in
// invitation mail. The key and expiry are verified before any mutating call;
// the browser then lands on the frontend with the outcome in the query.
type ActionRedirectHandler struct {
	invitations service.InvitationService
	frontendURL string
}

func NewActionRedirectHandler(invitations service.InvitationService, frontendURL string) *ActionRedirectHandler {
	return &ActionRedirectHandler{invitations: invitations, frontendURL: frontendURL}
}

func (h *ActionRedirectHandler) AcceptHandle(c *gin.Context) {
	h.handle(c, func(id int64, key string) error {
		return h.invitations.Finalize(c.Request.Context(), id, key)
	}, "accepted")
}

func (h *ActionRedirectHandler) DeclineHandle(c *gin.Context) {
	h.handle(c, func(id int64, key string) error {
		return h.invitations.Decline(c.Request.Context(), id, key)
	}, "declined")
}

func (h *ActionRedirectHandler) handle(c *gin.Context, action func(int64, string) error, outcome string) {
	id, ok := invitationIDParam(c)
	if !ok {
		return
	}
	key := c.Param("key")
	if key == "" {
		c.Redirect(http.StatusFound, h.resultURL("error", "missing-key"))
		return
	}

	if err := action(id, key); err != nil {
		c.Redirect(http.StatusFound, h.resultURL("error", reasonOf(err)))
		return
	}
	c.Redirect(http.StatusFound, h.resultURL("invitation", outcome))
}

func (h *ActionRedirectHandler) resultURL(param, value string) string {
	return h.frontendURL + "/invitation/result?" + param + "=" + url.QueryEscape(value)
}

func reasonOf(err error) string {
	switch {
	case errors.Is(err, service.ErrInvitationNotFound):
		return "not-found"
	case errors.Is(err, service.ErrInvitationExpired):
		return "expired"
	case errors.Is(err, service.ErrInvitationNotPending):
		return "already-handled"
	case errors.Is(err, service.ErrInvalidKey):
		return "invalid-key"
	case errors.Is(err, service.ErrTooManyAttempts):
		return "too-many-attempts"
	default:
		return "internal"
	}
}
