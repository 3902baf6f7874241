package invites

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"pressroom/invitehub/internal/invitation"
	"pressroom/invitehub/internal/model"
)

func TestRoleAssignmentValidate(t *testing.T) {
	typ := &RoleAssignmentInvite{}
	if err := typ.Validate(); err == nil {
		t.Fatal("missing role must fail validation")
	}

	typ.Role = strPtr("editor")
	if err := typ.Validate(); err != nil {
		t.Fatalf("role alone must validate: %v", err)
	}

	typ.ORCID = strPtr("not-an-orcid")
	if err := typ.Validate(); err == nil {
		t.Fatal("malformed orcid must fail validation")
	}
	typ.ORCID = strPtr("0000-0002-1825-0097")
	if err := typ.Validate(); err != nil {
		t.Fatalf("well-formed orcid must validate: %v", err)
	}

	typ.Assignments = []RoleAssignment{{GroupID: 0}}
	if err := typ.Validate(); err == nil {
		t.Fatal("assignment without group id must fail validation")
	}
}

func TestRoleAssignmentPayloadRoundTrip(t *testing.T) {
	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	a := RoleAssignment{GroupID: 12, Masthead: true, DateStart: &start}

	m := a.ToMap()
	var b RoleAssignment
	if err := b.ApplyMap(m); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if b.GroupID != 12 || !b.Masthead {
		t.Fatalf("round trip mismatch: %+v", b)
	}
	if b.DateStart == nil || !b.DateStart.Equal(start) {
		t.Fatalf("date start mismatch: %v", b.DateStart)
	}

	if err := b.ApplyMap(map[string]any{"masthead": true}); err == nil {
		t.Fatal("missing group id must fail")
	}
}

// Full create flow for an existing user: create, initialize, fill, persist,
// invite. Mirrors how the staff controller drives the engine.
func TestRoleAssignmentEndToEndWithUser(t *testing.T) {
	h := newHarness()
	userID := uuid.New()
	contextID := uuid.New()
	h.users.users[userID] = &model.User{
		ID: userID, GivenName: "Ada", FamilyName: "Lovelace",
		Email: "ada@example.com", Status: model.UserStatusActive,
	}
	h.ctxs.contexts[contextID] = &model.Context{ID: contextID, Name: "Journal of Tests", PrimaryLocale: "fr"}

	inv, err := h.factory.CreateNew(TypeRoleAssignment)
	if err != nil {
		t.Fatalf("create new: %v", err)
	}
	err = inv.Initialize(context.Background(), invitation.InitArgs{UserID: &userID, ContextID: &contextID})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := inv.Fill(map[string]any{"role": "editor"}); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if ok, err := inv.UpdatePayload(context.Background()); err != nil || !ok {
		t.Fatalf("update payload: ok=%v err=%v", ok, err)
	}
	if ok, err := inv.Invite(context.Background()); err != nil || !ok {
		t.Fatalf("invite: ok=%v err=%v", ok, err)
	}

	rec, err := h.store.GetByID(context.Background(), inv.ID())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rec.Status != model.InvitationStatusPending {
		t.Fatalf("expected PENDING, got %s", rec.Status)
	}
	if rec.Payload["role"] != "editor" {
		t.Fatalf("expected payload role editor, got %v", rec.Payload)
	}
	if rec.KeyHash == nil {
		t.Fatal("expected key hash stored")
	}
	if len(h.mailer.to) != 1 || h.mailer.to[0] != "ada@example.com" {
		t.Fatalf("expected mail to ada@example.com, got %v", h.mailer.to)
	}
	if !strings.Contains(h.mailer.bodies[0], "/invitation/1/fixed-key/accept") {
		t.Fatalf("mail body must carry the accept link, got %q", h.mailer.bodies[0])
	}
	if !strings.Contains(h.mailer.bodies[0], "Journal of Tests") {
		t.Fatalf("mail body must name the journal, got %q", h.mailer.bodies[0])
	}
}

// Same flow with a bare email: no existing user, receiver built from the raw
// address.
func TestRoleAssignmentEndToEndWithEmail(t *testing.T) {
	h := newHarness()

	inv, err := h.factory.CreateNew(TypeRoleAssignment)
	if err != nil {
		t.Fatalf("create new: %v", err)
	}
	err = inv.Initialize(context.Background(), invitation.InitArgs{Email: strPtr("new@example.com")})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	user, err := inv.ExistingUser(context.Background())
	if err != nil || user != nil {
		t.Fatalf("expected no existing user, got %v err=%v", user, err)
	}
	receiver, err := inv.MailableReceiver(context.Background(), "")
	if err != nil {
		t.Fatalf("receiver: %v", err)
	}
	if receiver.Email != "new@example.com" || receiver.Name != "" {
		t.Fatalf("unexpected receiver %+v", receiver)
	}

	if err := inv.Fill(map[string]any{"role": "reviewer"}); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if ok, err := inv.UpdatePayload(context.Background()); err != nil || !ok {
		t.Fatalf("update payload: ok=%v err=%v", ok, err)
	}
	if ok, err := inv.Invite(context.Background()); err != nil || !ok {
		t.Fatalf("invite: ok=%v err=%v", ok, err)
	}
	if len(h.mailer.to) != 1 || h.mailer.to[0] != "new@example.com" {
		t.Fatalf("expected mail to the raw address, got %v", h.mailer.to)
	}
}

func TestRoleAssignmentPreInviteRefusesDisabledUser(t *testing.T) {
	h := newHarness()
	userID := uuid.New()
	h.users.users[userID] = &model.User{
		ID: userID, Email: "gone@example.com", Status: model.UserStatusDisabled,
	}

	inv, _ := h.factory.CreateNew(TypeRoleAssignment)
	if err := inv.Initialize(context.Background(), invitation.InitArgs{UserID: &userID}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := inv.Fill(map[string]any{"role": "editor"}); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if _, err := inv.UpdatePayload(context.Background()); err != nil {
		t.Fatalf("update payload: %v", err)
	}

	if _, err := inv.Invite(context.Background()); err == nil {
		t.Fatal("expected pre-invite to refuse a disabled account")
	}
	if inv.Status() != model.InvitationStatusInitialized {
		t.Fatalf("status must stay INITIALIZED, got %s", inv.Status())
	}
}

// The offered role is frozen after dispatch, but the invitee may still fill
// their profile fields while PENDING.
func TestRoleAssignmentStageProtection(t *testing.T) {
	h := newHarness()

	inv, _ := h.factory.CreateNew(TypeRoleAssignment)
	if err := inv.Initialize(context.Background(), invitation.InitArgs{Email: strPtr("a@b.com")}); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	// Issuer cannot pre-fill recipient-owned fields.
	if err := inv.Fill(map[string]any{"role": "editor", "orcid": "0000-0002-1825-0097"}); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if _, err := inv.UpdatePayload(context.Background()); err == nil {
		t.Fatal("expected integrity violation for recipient-owned field before invite")
	}

	// Start over without the protected field.
	inv, _ = h.factory.CreateNew(TypeRoleAssignment)
	if err := inv.Initialize(context.Background(), invitation.InitArgs{Email: strPtr("a@b.com")}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := inv.Fill(map[string]any{"role": "editor"}); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if ok, err := inv.UpdatePayload(context.Background()); err != nil || !ok {
		t.Fatalf("update payload: ok=%v err=%v", ok, err)
	}
	if ok, err := inv.Invite(context.Background()); err != nil || !ok {
		t.Fatalf("invite: ok=%v err=%v", ok, err)
	}

	// Resume as the invitee and fill profile fields.
	rec, _ := h.store.GetByID(context.Background(), inv.ID())
	resumed, err := h.factory.GetExisting(TypeRoleAssignment, rec)
	if err != nil {
		t.Fatalf("get existing: %v", err)
	}
	if err := resumed.Fill(map[string]any{"orcid": "0000-0002-1825-0097", "givenName": "Ada"}); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if ok, err := resumed.UpdatePayload(context.Background()); err != nil || !ok {
		t.Fatalf("update payload: ok=%v err=%v", ok, err)
	}

	// But the role may no longer change.
	if err := resumed.Fill(map[string]any{"role": "publisher"}); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if _, err := resumed.UpdatePayload(context.Background()); err == nil {
		t.Fatal("expected integrity violation for role change after invite")
	}
}
