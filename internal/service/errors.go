package service

import "errors"

var (
	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrInvitationNotPending = errors.New("invitation is not awaiting a response")
	ErrInvitationExpired    = errors.New("invitation has expired")
	ErrInvalidKey           = errors.New("invitation key is invalid")
	ErrTooManyAttempts      = errors.New("too many failed key attempts")
)
