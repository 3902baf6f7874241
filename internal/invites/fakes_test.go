package invites

import (
	"context"
	"time"

	"github.com/google/uuid"

	"pressroom/invitehub/internal/invitation"
	"pressroom/invitehub/internal/model"
	"pressroom/invitehub/internal/repository"
)

type memInvitationStore struct {
	records map[int64]*model.Invitation
	nextID  int64
}

func newMemInvitationStore() *memInvitationStore {
	return &memInvitationStore{records: map[int64]*model.Invitation{}}
}

func (s *memInvitationStore) ReplaceInitialized(_ context.Context, rec *model.Invitation) error {
	for id, existing := range s.records {
		if existing.Type == rec.Type && existing.Status == model.InvitationStatusInitialized {
			delete(s.records, id)
		}
	}
	s.nextID++
	rec.ID = s.nextID
	clone := *rec
	s.records[rec.ID] = &clone
	return nil
}

func (s *memInvitationStore) GetByID(_ context.Context, id int64) (*model.Invitation, error) {
	rec, ok := s.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (s *memInvitationStore) Update(_ context.Context, rec *model.Invitation) error {
	clone := *rec
	s.records[rec.ID] = &clone
	return nil
}

func (s *memInvitationStore) UpdatePayload(_ context.Context, id int64, payload model.PayloadMap) error {
	s.records[id].Payload = payload
	return nil
}

func (s *memInvitationStore) UpdateStatus(_ context.Context, id int64, status model.InvitationStatus) error {
	s.records[id].Status = status
	return nil
}

func (s *memInvitationStore) List(_ context.Context) ([]model.Invitation, error) {
	out := make([]model.Invitation, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, *rec)
	}
	return out, nil
}

type memUserStore struct {
	users map[uuid.UUID]*model.User
}

func (s *memUserStore) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (s *memUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memContextStore struct {
	contexts map[uuid.UUID]*model.Context
}

func (s *memContextStore) GetByID(_ context.Context, id uuid.UUID) (*model.Context, error) {
	c, ok := s.contexts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

type recordingMailer struct {
	to      []string
	bodies  []string
	sendErr error
}

func (m *recordingMailer) Send(_ context.Context, to, _ string, body string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.to = append(m.to, to)
	m.bodies = append(m.bodies, body)
	return nil
}

type plainHasher struct{}

func (plainHasher) Hash(plaintext string) (string, error) { return "h:" + plaintext, nil }

func (plainHasher) Verify(plaintext, hash string) bool { return "h:"+plaintext == hash }

type harness struct {
	store   *memInvitationStore
	users   *memUserStore
	ctxs    *memContextStore
	mailer  *recordingMailer
	factory *invitation.Factory
}

func newHarness() *harness {
	h := &harness{
		store:  newMemInvitationStore(),
		users:  &memUserStore{users: map[uuid.UUID]*model.User{}},
		ctxs:   &memContextStore{contexts: map[uuid.UUID]*model.Context{}},
		mailer: &recordingMailer{},
	}
	h.factory = invitation.NewFactory(invitation.Deps{
		Invitations: h.store,
		Users:       h.users,
		Contexts:    h.ctxs,
		Hasher:      plainHasher{},
		GenerateKey: func() (string, error) { return "fixed-key", nil },
		Mailer:      h.mailer,
		Clock:       func() time.Time { return time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC) },
		ExpiryDays:  3,
		SiteLocale:  "en",
	})
	h.factory.Init(map[string]invitation.Constructor{
		TypeRoleAssignment: NewRoleAssignmentInvite("https://pub.example.org"),
		TypeEmailChange:    NewEmailChangeInvite("https://pub.example.org"),
	})
	return h
}

func strPtr(s string) *string { return &s }
