package invites

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"pressroom/invitehub/internal/invitation"
	"pressroom/invitehub/internal/model"
)

func TestEmailChangeValidate(t *testing.T) {
	typ := &EmailChangeInvite{}
	if err := typ.Validate(); err == nil {
		t.Fatal("missing new email must fail validation")
	}
	typ.NewEmail = strPtr("not an address")
	if err := typ.Validate(); err == nil {
		t.Fatal("malformed address must fail validation")
	}
	typ.NewEmail = strPtr("next@example.com")
	if err := typ.Validate(); err != nil {
		t.Fatalf("valid address must pass: %v", err)
	}
}

func TestEmailChangeInviteNotSentWhenInvalid(t *testing.T) {
	h := newHarness()
	userID := uuid.New()
	h.users.users[userID] = &model.User{ID: userID, Email: "old@example.com", Status: model.UserStatusActive}

	inv, err := h.factory.CreateNew(TypeEmailChange)
	if err != nil {
		t.Fatalf("create new: %v", err)
	}
	if err := inv.Initialize(context.Background(), invitation.InitArgs{UserID: &userID}); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	// No new email filled: invite must refuse softly.
	sent, err := inv.Invite(context.Background())
	if err != nil {
		t.Fatalf("expected soft failure, got %v", err)
	}
	if sent {
		t.Fatal("invalid invitation must not send")
	}
	if inv.Status() != model.InvitationStatusInitialized {
		t.Fatalf("status must stay INITIALIZED, got %s", inv.Status())
	}
	if len(h.mailer.to) != 0 {
		t.Fatal("no mail may go out")
	}
}

func TestEmailChangeEndToEnd(t *testing.T) {
	h := newHarness()
	userID := uuid.New()
	h.users.users[userID] = &model.User{
		ID: userID, GivenName: "Ada", Email: "old@example.com", Status: model.UserStatusActive,
	}

	inv, _ := h.factory.CreateNew(TypeEmailChange)
	if err := inv.Initialize(context.Background(), invitation.InitArgs{UserID: &userID}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := inv.Fill(map[string]any{"newEmail": "next@example.com"}); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if ok, err := inv.UpdatePayload(context.Background()); err != nil || !ok {
		t.Fatalf("update payload: ok=%v err=%v", ok, err)
	}
	if ok, err := inv.Invite(context.Background()); err != nil || !ok {
		t.Fatalf("invite: ok=%v err=%v", ok, err)
	}

	if len(h.mailer.bodies) != 1 {
		t.Fatalf("expected one mail, got %d", len(h.mailer.bodies))
	}
	body := h.mailer.bodies[0]
	if !strings.Contains(body, "next@example.com") {
		t.Fatalf("mail must name the new address, got %q", body)
	}
	if !strings.Contains(body, "/accept") || !strings.Contains(body, "/decline") {
		t.Fatalf("mail must carry both action links, got %q", body)
	}

	// The confirmed address is frozen once the mail is out.
	rec, _ := h.store.GetByID(context.Background(), inv.ID())
	resumed, err := h.factory.GetExisting(TypeEmailChange, rec)
	if err != nil {
		t.Fatalf("get existing: %v", err)
	}
	if err := resumed.Fill(map[string]any{"newEmail": "hijack@example.com"}); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if _, err := resumed.UpdatePayload(context.Background()); err == nil {
		t.Fatal("expected integrity violation for frozen address")
	}
}
