package repository

import (
	"context"
	"errors"

	"pressroom/invitehub/internal/model"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = errors.New("record not found")

type InvitationRepository interface {
	// ReplaceInitialized atomically deletes any INITIALIZED invitation with
	// the same type, identity-key (user id if present, else email), and
	// context, then inserts rec. The two steps run in one transaction so
	// concurrent re-issues cannot leave two INITIALIZED rows behind.
	ReplaceInitialized(ctx context.Context, rec *model.Invitation) error

	GetByID(ctx context.Context, id int64) (*model.Invitation, error)
	Update(ctx context.Context, rec *model.Invitation) error

	// UpdatePayload persists only the payload column.
	UpdatePayload(ctx context.Context, id int64, payload model.PayloadMap) error

	// UpdateStatus performs a status-only transition, used for the terminal
	// accept/decline updates.
	UpdateStatus(ctx context.Context, id int64, status model.InvitationStatus) error

	List(ctx context.Context) ([]model.Invitation, error)
}
