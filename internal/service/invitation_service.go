package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"pressroom/invitehub/internal/config"
	"pressroom/invitehub/internal/invitation"
	"pressroom/invitehub/internal/model"
	"pressroom/invitehub/internal/repository"
)

// InvitationService orchestrates the invitation engine for the HTTP layer:
// the staff-side create flow and the invitee-side keyed flow. All keyed
// operations pass through Resolve, which verifies the one-time key and the
// expiry before any mutating engine call.
type InvitationService interface {
	Create(ctx context.Context, typeName string, args invitation.InitArgs) (*invitation.Invitation, error)
	Get(ctx context.Context, id int64) (*invitation.Invitation, error)
	List(ctx context.Context) ([]model.Invitation, error)
	Populate(ctx context.Context, id int64, fields map[string]any) (*invitation.Invitation, bool, error)
	Send(ctx context.Context, id int64) (*invitation.Invitation, bool, error)

	Resolve(ctx context.Context, id int64, key string) (*invitation.Invitation, error)
	Refine(ctx context.Context, id int64, key string, fields map[string]any) (*invitation.Invitation, bool, error)
	Finalize(ctx context.Context, id int64, key string) error
	Decline(ctx context.Context, id int64, key string) error
}

type invitationService struct {
	factory     *invitation.Factory
	invitations repository.InvitationRepository
	stateStore  repository.StateStore
	hasher      invitation.KeyHasher
	cfg         config.InviteConfig
	clock       func() time.Time
	logger      *zap.Logger
}

func NewInvitationService(
	factory *invitation.Factory,
	invitations repository.InvitationRepository,
	stateStore repository.StateStore,
	hasher invitation.KeyHasher,
	cfg config.InviteConfig,
	clock func() time.Time,
	logger *zap.Logger,
) InvitationService {
	if clock == nil {
		clock = time.Now
	}
	if cfg.MaxKeyAttempts <= 0 {
		cfg.MaxKeyAttempts = 10
	}
	if cfg.AttemptWindow <= 0 {
		cfg.AttemptWindow = 15 * time.Minute
	}
	return &invitationService{
		factory:     factory,
		invitations: invitations,
		stateStore:  stateStore,
		hasher:      hasher,
		cfg:         cfg,
		clock:       clock,
		logger:      logger,
	}
}

func (s *invitationService) Create(ctx context.Context, typeName string, args invitation.InitArgs) (*invitation.Invitation, error) {
	inv, err := s.factory.CreateNew(typeName)
	if err != nil {
		return nil, err
	}
	if err := inv.Initialize(ctx, args); err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *invitationService) Get(ctx context.Context, id int64) (*invitation.Invitation, error) {
	rec, err := s.invitations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	return s.factory.GetExisting(rec.Type, rec)
}

func (s *invitationService) List(ctx context.Context) ([]model.Invitation, error) {
	return s.invitations.List(ctx)
}

func (s *invitationService) Populate(ctx context.Context, id int64, fields map[string]any) (*invitation.Invitation, bool, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if err := inv.Fill(fields); err != nil {
		return nil, false, err
	}
	ok, err := inv.UpdatePayload(ctx)
	return inv, ok, err
}

func (s *invitationService) Send(ctx context.Context, id int64) (*invitation.Invitation, bool, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, false, err
	}
	ok, err := inv.Invite(ctx)
	return inv, ok, err
}

// Resolve loads a PENDING invitation and verifies the presented key against
// the stored hash and the expiry date. Failed verifications are counted in
// the state store per invitation id; once the cap is reached further
// attempts are rejected without touching the hash at all.
func (s *invitationService) Resolve(ctx context.Context, id int64, key string) (*invitation.Invitation, error) {
	rec, err := s.invitations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, err
	}
	if rec.Status != model.InvitationStatusPending {
		return nil, ErrInvitationNotPending
	}
	if rec.KeyHash == nil || rec.ExpiryDate == nil {
		return nil, ErrInvitationNotPending
	}
	if s.clock().After(*rec.ExpiryDate) {
		return nil, ErrInvitationExpired
	}

	throttleKey := attemptKey(id)
	if n, err := s.attemptCount(ctx, throttleKey); err != nil {
		s.logger.Warn("reading key attempt counter failed", zap.Int64("id", id), zap.Error(err))
	} else if n >= int64(s.cfg.MaxKeyAttempts) {
		return nil, ErrTooManyAttempts
	}

	if !s.hasher.Verify(key, *rec.KeyHash) {
		if _, err := s.stateStore.Increment(ctx, throttleKey, s.cfg.AttemptWindow); err != nil {
			s.logger.Warn("recording failed key attempt failed", zap.Int64("id", id), zap.Error(err))
		}
		return nil, ErrInvalidKey
	}

	if err := s.stateStore.Delete(ctx, throttleKey); err != nil {
		s.logger.Warn("clearing key attempt counter failed", zap.Int64("id", id), zap.Error(err))
	}
	return s.factory.GetExisting(rec.Type, rec)
}

func (s *invitationService) Refine(ctx context.Context, id int64, key string, fields map[string]any) (*invitation.Invitation, bool, error) {
	inv, err := s.Resolve(ctx, id, key)
	if err != nil {
		return nil, false, err
	}
	if err := inv.Fill(fields); err != nil {
		return nil, false, err
	}
	ok, err := inv.UpdatePayload(ctx)
	return inv, ok, err
}

func (s *invitationService) Finalize(ctx context.Context, id int64, key string) error {
	inv, err := s.Resolve(ctx, id, key)
	if err != nil {
		return err
	}
	return inv.Accept(ctx)
}

func (s *invitationService) Decline(ctx context.Context, id int64, key string) error {
	inv, err := s.Resolve(ctx, id, key)
	if err != nil {
		return err
	}
	return inv.Decline(ctx)
}

func (s *invitationService) attemptCount(ctx context.Context, key string) (int64, error) {
	raw, err := s.stateStore.Get(ctx, key)
	if err != nil || len(raw) == 0 {
		return 0, err
	}
	n, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed attempt counter: %w", err)
	}
	return n, nil
}

func attemptKey(id int64) string {
	return fmt.Sprintf("invite:attempts:%d", id)
}

var _ InvitationService = (*invitationService)(nil)
