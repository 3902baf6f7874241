package invitation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"pressroom/invitehub/internal/model"
	"pressroom/invitehub/internal/repository"
)

type fakeInvitationStore struct {
	records   map[int64]*model.Invitation
	nextID    int64
	updateErr error
}

func newFakeInvitationStore() *fakeInvitationStore {
	return &fakeInvitationStore{records: map[int64]*model.Invitation{}}
}

func (s *fakeInvitationStore) ReplaceInitialized(_ context.Context, rec *model.Invitation) error {
	for id, existing := range s.records {
		if existing.Type != rec.Type || existing.Status != model.InvitationStatusInitialized {
			continue
		}
		if !sameIdentity(existing, rec) || !sameContext(existing, rec) {
			continue
		}
		delete(s.records, id)
	}
	s.nextID++
	rec.ID = s.nextID
	clone := *rec
	s.records[rec.ID] = &clone
	return nil
}

func sameIdentity(a, b *model.Invitation) bool {
	if a.UserID != nil && b.UserID != nil {
		return *a.UserID == *b.UserID
	}
	if a.Email != nil && b.Email != nil {
		return *a.Email == *b.Email
	}
	return false
}

func sameContext(a, b *model.Invitation) bool {
	if a.ContextID == nil && b.ContextID == nil {
		return true
	}
	if a.ContextID != nil && b.ContextID != nil {
		return *a.ContextID == *b.ContextID
	}
	return false
}

func (s *fakeInvitationStore) GetByID(_ context.Context, id int64) (*model.Invitation, error) {
	rec, ok := s.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (s *fakeInvitationStore) Update(_ context.Context, rec *model.Invitation) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.records[rec.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *rec
	s.records[rec.ID] = &clone
	return nil
}

func (s *fakeInvitationStore) UpdatePayload(_ context.Context, id int64, payload model.PayloadMap) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	rec, ok := s.records[id]
	if !ok {
		return repository.ErrNotFound
	}
	rec.Payload = payload
	return nil
}

func (s *fakeInvitationStore) UpdateStatus(_ context.Context, id int64, status model.InvitationStatus) error {
	rec, ok := s.records[id]
	if !ok {
		return repository.ErrNotFound
	}
	rec.Status = status
	return nil
}

func (s *fakeInvitationStore) List(_ context.Context) ([]model.Invitation, error) {
	out := make([]model.Invitation, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, *rec)
	}
	return out, nil
}

func (s *fakeInvitationStore) initializedCount() int {
	n := 0
	for _, rec := range s.records {
		if rec.Status == model.InvitationStatusInitialized {
			n++
		}
	}
	return n
}

type fakeUserStore struct {
	users map[uuid.UUID]*model.User
}

func (s *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (s *fakeUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeContextStore struct {
	contexts map[uuid.UUID]*model.Context
}

func (s *fakeContextStore) GetByID(_ context.Context, id uuid.UUID) (*model.Context, error) {
	c, ok := s.contexts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

type sentMail struct {
	to      string
	subject string
	body    string
}

type fakeMailer struct {
	sent    []sentMail
	sendErr error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(plaintext string) (string, error) { return "hashed:" + plaintext, nil }

func (fakeHasher) Verify(plaintext, hash string) bool { return "hashed:"+plaintext == hash }

// testInvite is a minimal invitation type. ownerOnly is recipient-owned and
// protected before invite; role is an offer term and protected after invite.
type testInvite struct {
	Role      *string
	Note      *string
	OwnerOnly *string

	validateErr error
	preInvite   func(ctx context.Context, inv *Invitation) error
}

func (t *testInvite) Name() string { return "testInvite" }

func (t *testInvite) PayloadSpec() *PayloadSpec {
	return &PayloadSpec{
		Fields: []Field{
			StringField("role", &t.Role),
			StringField("note", &t.Note),
			StringField("ownerOnly", &t.OwnerOnly),
		},
	}
}

func (t *testInvite) ProtectedBeforeInvite() []string { return []string{"ownerOnly"} }

func (t *testInvite) ProtectedAfterInvite() []string { return []string{"role"} }

func (t *testInvite) Validate() error { return t.validateErr }

func (t *testInvite) ComposeMail(_ context.Context, inv *Invitation) (Mail, error) {
	return Mail{
		Subject: "You are invited",
		Body:    fmt.Sprintf("key=%s", inv.Key()),
	}, nil
}

func (t *testInvite) PreInvite(ctx context.Context, inv *Invitation) error {
	if t.preInvite == nil {
		return nil
	}
	return t.preInvite(ctx, inv)
}

var errBoom = errors.New("boom")

type testEnv struct {
	store  *fakeInvitationStore
	users  *fakeUserStore
	ctxs   *fakeContextStore
	mailer *fakeMailer
	now    time.Time
}

func newTestEnv() *testEnv {
	return &testEnv{
		store:  newFakeInvitationStore(),
		users:  &fakeUserStore{users: map[uuid.UUID]*model.User{}},
		ctxs:   &fakeContextStore{contexts: map[uuid.UUID]*model.Context{}},
		mailer: &fakeMailer{},
		now:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (e *testEnv) deps() Deps {
	return Deps{
		Invitations: e.store,
		Users:       e.users,
		Contexts:    e.ctxs,
		Hasher:      fakeHasher{},
		GenerateKey: func() (string, error) { return "one-time-secret", nil },
		Mailer:      e.mailer,
		Clock:       func() time.Time { return e.now },
		ExpiryDays:  3,
		SiteLocale:  "en",
	}
}

func strPtr(s string) *string { return &s }
