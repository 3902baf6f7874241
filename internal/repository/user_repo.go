package repository

import (
	"context"

	"github.com/google/uuid"

	"pressroom/invitehub/internal/model"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type ContextRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Context, error)
}
