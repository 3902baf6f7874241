package invites

import (
	"context"
	"errors"
	"fmt"
	"net/mail"

	"pressroom/invitehub/internal/invitation"
)

const TypeEmailChange = "emailChange"

// EmailChangeInvite asks an existing user to confirm a new email address
// before it replaces the one on their profile. The new address freezes once
// the confirmation mail is out.
type EmailChangeInvite struct {
	baseURL string

	NewEmail *string
}

func NewEmailChangeInvite(baseURL string) invitation.Constructor {
	return func() invitation.Type {
		return &EmailChangeInvite{baseURL: baseURL}
	}
}

func (t *EmailChangeInvite) Name() string { return TypeEmailChange }

func (t *EmailChangeInvite) PayloadSpec() *invitation.PayloadSpec {
	return &invitation.PayloadSpec{
		Fields: []invitation.Field{
			invitation.StringField("newEmail", &t.NewEmail),
		},
		Include: []string{"newEmail"},
	}
}

func (t *EmailChangeInvite) ProtectedBeforeInvite() []string { return nil }

func (t *EmailChangeInvite) ProtectedAfterInvite() []string {
	return []string{"newEmail"}
}

func (t *EmailChangeInvite) Validate() error {
	if t.NewEmail == nil || *t.NewEmail == "" {
		return errors.New("new email is required")
	}
	if _, err := mail.ParseAddress(*t.NewEmail); err != nil {
		return errors.New("new email is not a valid address")
	}
	return nil
}

func (t *EmailChangeInvite) ComposeMail(ctx context.Context, inv *invitation.Invitation) (invitation.Mail, error) {
	body := fmt.Sprintf(
		"Confirm your new email address %s:\n\n%s\n\nIf you did not request this change, use %s.\n\nThe link expires on %s.",
		*t.NewEmail,
		actionURL(t.baseURL, inv.ID(), inv.Key(), "accept"),
		actionURL(t.baseURL, inv.ID(), inv.Key(), "decline"),
		inv.ExpiryDate().Format("2006-01-02"),
	)
	return invitation.Mail{Subject: "Confirm your email address", Body: body}, nil
}

var (
	_ invitation.Type        = (*EmailChangeInvite)(nil)
	_ invitation.Validatable = (*EmailChangeInvite)(nil)
	_ invitation.Mailable    = (*EmailChangeInvite)(nil)
)
