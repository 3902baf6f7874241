package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"pressroom/invitehub/internal/handler/middleware"
	"pressroom/invitehub/internal/invitation"
	"pressroom/invitehub/internal/service"
	jwtpkg "pressroom/invitehub/pkg/jwt"
	"pressroom/invitehub/pkg/response"
)

var ErrNoClaims = errors.New("claims not found in context")

func getUserIDFromContext(c *gin.Context) (uuid.UUID, error) {
	claimsVal, exists := c.Get(middleware.ContextKeyUserClaims)
	if !exists {
		return uuid.Nil, ErrNoClaims
	}
	claims, ok := claimsVal.(*jwtpkg.Claims)
	if !ok {
		return uuid.Nil, ErrNoClaims
	}
	return uuid.Parse(claims.Subject)
}

func invitationIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid invitation id")
		return 0, false
	}
	return id, true
}

// respondError maps engine and service errors onto the HTTP boundary.
// Validation and state errors are the caller's fault; integrity violations
// and unknown types indicate a broken caller and surface as 5xx.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvitationNotFound):
		response.NotFound(c, "invitation not found")
	case errors.Is(err, service.ErrInvitationExpired):
		response.Gone(c, "invitation has expired")
	case errors.Is(err, service.ErrInvitationNotPending):
		response.Conflict(c, "invitation is not awaiting a response")
	case errors.Is(err, service.ErrInvalidKey):
		response.Unauthorized(c, "invitation key is invalid")
	case errors.Is(err, service.ErrTooManyAttempts):
		response.TooManyRequests(c, "too many failed attempts, try again later")
	case errors.Is(err, invitation.ErrValidation):
		response.UnprocessableEntity(c, err.Error())
	case errors.Is(err, invitation.ErrInvalidState):
		response.Conflict(c, err.Error())
	case errors.Is(err, invitation.ErrIntegrity),
		errors.Is(err, invitation.ErrUnknownType):
		response.InternalError(c, err.Error())
	default:
		response.InternalError(c, "internal server error")
	}
}
