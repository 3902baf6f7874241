// Package invites holds the concrete invitation types registered with the
// factory at startup.
package invites

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"pressroom/invitehub/internal/invitation"
	"pressroom/invitehub/internal/model"
)

const TypeRoleAssignment = "roleInvite"

var orcidPattern = regexp.MustCompile(`^\d{4}-\d{4}-\d{4}-\d{3}[\dX]$`)

// RoleAssignment is one editorial group membership offered by the
// invitation. It is serialized as a nested object inside the payload.
type RoleAssignment struct {
	GroupID   int64
	Masthead  bool
	DateStart *time.Time
}

func (a *RoleAssignment) ToMap() map[string]any {
	m := map[string]any{
		"groupId":  a.GroupID,
		"masthead": a.Masthead,
	}
	if a.DateStart != nil {
		m["dateStart"] = a.DateStart.Format(time.RFC3339)
	}
	return m
}

func (a *RoleAssignment) ApplyMap(m map[string]any) error {
	id, ok := invitation.AsInt64(m["groupId"])
	if !ok {
		return fmt.Errorf("role assignment: missing or invalid groupId")
	}
	a.GroupID = id
	if raw, present := m["masthead"]; present {
		b, ok := invitation.AsBool(raw)
		if !ok {
			return fmt.Errorf("role assignment: invalid masthead")
		}
		a.Masthead = b
	}
	if raw, present := m["dateStart"]; present {
		t, ok := invitation.AsTime(raw)
		if !ok {
			return fmt.Errorf("role assignment: invalid dateStart")
		}
		a.DateStart = &t
	}
	return nil
}

// RoleAssignmentInvite offers an identity one or more editorial roles within
// a context. The terms of the offer (role, assignments) freeze once the
// invitation is dispatched; the recipient-owned profile fields may only be
// filled in by the recipient afterwards.
type RoleAssignmentInvite struct {
	baseURL string

	Role         *string
	GivenName    *string
	FamilyName   *string
	Affiliation  *string
	ORCID        *string
	EmailSubject *string
	EmailBody    *string
	Assignments  []RoleAssignment
}

// NewRoleAssignmentInvite returns the constructor registered with the
// factory. baseURL is the public site root used in accept/decline links.
func NewRoleAssignmentInvite(baseURL string) invitation.Constructor {
	return func() invitation.Type {
		return &RoleAssignmentInvite{baseURL: baseURL}
	}
}

func (t *RoleAssignmentInvite) Name() string { return TypeRoleAssignment }

func (t *RoleAssignmentInvite) PayloadSpec() *invitation.PayloadSpec {
	return &invitation.PayloadSpec{
		Fields: []invitation.Field{
			invitation.StringField("role", &t.Role),
			invitation.StringField("givenName", &t.GivenName),
			invitation.StringField("familyName", &t.FamilyName),
			invitation.StringField("affiliation", &t.Affiliation),
			invitation.StringField("orcid", &t.ORCID),
			invitation.StringField("emailSubject", &t.EmailSubject),
			invitation.StringField("emailBody", &t.EmailBody),
			invitation.ObjectListField("assignments", &t.Assignments),
		},
	}
}

// Recipient-owned profile fields: the issuer may not pre-fill them.
func (t *RoleAssignmentInvite) ProtectedBeforeInvite() []string {
	return []string{"givenName", "familyName", "affiliation", "orcid"}
}

// The offer itself is frozen once sent; only profile fields stay open.
func (t *RoleAssignmentInvite) ProtectedAfterInvite() []string {
	return []string{"role", "assignments", "emailSubject", "emailBody"}
}

func (t *RoleAssignmentInvite) Validate() error {
	if t.Role == nil || *t.Role == "" {
		return errors.New("role is required")
	}
	if t.ORCID != nil && *t.ORCID != "" && !orcidPattern.MatchString(*t.ORCID) {
		return errors.New("orcid is not a valid identifier")
	}
	for i := range t.Assignments {
		if t.Assignments[i].GroupID <= 0 {
			return fmt.Errorf("assignment %d: group id is required", i)
		}
	}
	return nil
}

// PreInvite refuses to dispatch to a disabled account.
func (t *RoleAssignmentInvite) PreInvite(ctx context.Context, inv *invitation.Invitation) error {
	user, err := inv.ExistingUser(ctx)
	if err != nil {
		return err
	}
	if user != nil && user.Status != model.UserStatusActive {
		return &invitation.ValidationError{Reason: "invited user account is disabled"}
	}
	return nil
}

func (t *RoleAssignmentInvite) ComposeMail(ctx context.Context, inv *invitation.Invitation) (invitation.Mail, error) {
	subject := fmt.Sprintf("Invitation to join as %s", *t.Role)
	if t.EmailSubject != nil && *t.EmailSubject != "" {
		subject = *t.EmailSubject
	}

	body := fmt.Sprintf("You have been invited to take the %s role.", *t.Role)
	if t.EmailBody != nil && *t.EmailBody != "" {
		body = *t.EmailBody
	}
	if c, err := inv.Context(ctx); err == nil && c != nil {
		body += fmt.Sprintf("\n\nJournal: %s", c.Name)
	}
	body += fmt.Sprintf(
		"\n\nAccept: %s\nDecline: %s\n\nThis invitation expires on %s.",
		actionURL(t.baseURL, inv.ID(), inv.Key(), "accept"),
		actionURL(t.baseURL, inv.ID(), inv.Key(), "decline"),
		inv.ExpiryDate().Format("2006-01-02"),
	)
	return invitation.Mail{Subject: subject, Body: body}, nil
}

func actionURL(baseURL string, id int64, key, action string) string {
	return fmt.Sprintf("%s/invitation/%d/%s/%s", baseURL, id, key, action)
}

var (
	_ invitation.Type        = (*RoleAssignmentInvite)(nil)
	_ invitation.Validatable = (*RoleAssignmentInvite)(nil)
	_ invitation.Mailable    = (*RoleAssignmentInvite)(nil)
	_ invitation.PreInviter  = (*RoleAssignmentInvite)(nil)
)
