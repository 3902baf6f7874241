package invitation

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pressroom/invitehub/internal/model"
	"pressroom/invitehub/internal/repository"
)

// DefaultExpiryDays is the fallback invitation lifetime when the deployment
// does not configure one.
const DefaultExpiryDays = 3

// Type is implemented by each concrete invitation type. A type owns its
// payload fields and declares, per stage, which of them are protected from
// mutation. Optional behaviors are opted into via the capability interfaces
// below, never inferred.
type Type interface {
	Name() string
	PayloadSpec() *PayloadSpec

	// ProtectedBeforeInvite lists payload fields that may not change while
	// the invitation is INITIALIZED (typically recipient-owned fields).
	ProtectedBeforeInvite() []string
	// ProtectedAfterInvite lists payload fields that may not change once the
	// invitation is PENDING (typically the terms of the offer itself).
	ProtectedAfterInvite() []string
}

// Validatable is opted into by types whose payload must pass validation
// before sending. A non-nil error is a recoverable validation failure, not a
// fatal one: Invite reports it by returning false.
type Validatable interface {
	Validate() error
}

// Mail is an outbound invitation message.
type Mail struct {
	Subject string
	Body    string
}

// Mailable is opted into by types that notify the invitee when the
// invitation is dispatched.
type Mailable interface {
	ComposeMail(ctx context.Context, inv *Invitation) (Mail, error)
}

// PreInviter is opted into by types that need a hook before Invite runs; a
// returned error aborts the whole operation.
type PreInviter interface {
	PreInvite(ctx context.Context, inv *Invitation) error
}

// KeyHasher hashes the one-time invitation secret. Verify lives here too so
// callers resolving a presented key share the same algorithm.
type KeyHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// KeyGenerator mints a cryptographically secure one-time secret.
type KeyGenerator func() (string, error)

// Mailer dispatches a single message. Transport failures are the caller's
// problem only to the extent of logging; see Invite.
type Mailer interface {
	Send(ctx context.Context, to string, subject string, body string) error
}

// Deps carries the capabilities the engine consumes from the host
// application.
type Deps struct {
	Invitations repository.InvitationRepository
	Users       repository.UserRepository
	Contexts    repository.ContextRepository
	Hasher      KeyHasher
	GenerateKey KeyGenerator
	Mailer      Mailer
	Logger      *zap.Logger
	Clock       func() time.Time
	ExpiryDays  int
	SiteLocale  string
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	if d.ExpiryDays <= 0 {
		d.ExpiryDays = DefaultExpiryDays
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

// InitArgs are the identity parameters of Initialize. Exactly one of UserID
// and Email must be set.
type InitArgs struct {
	UserID    *uuid.UUID
	Email     *string
	ContextID *uuid.UUID
	InviterID *uuid.UUID
}

// Invitation drives one invitation record through its lifecycle:
// INITIALIZED -> PENDING -> ACCEPTED | DECLINED. It wraps the persisted
// record, gates payload mutation by stage, and holds the plaintext key in
// memory only for the process that minted it.
type Invitation struct {
	typ     Type
	deps    Deps
	record  *model.Invitation
	key     string
	touched map[string]struct{}
}

// New constructs a fresh, empty invitation of the given type. The record is
// not persisted until Initialize.
func New(typ Type, deps Deps) *Invitation {
	return &Invitation{
		typ:  typ,
		deps: deps.withDefaults(),
		record: &model.Invitation{
			Type:   typ.Name(),
			Status: model.InvitationStatusInitialized,
		},
		touched: make(map[string]struct{}),
	}
}

// Resume wraps an already-persisted record, rebuilding the type's payload
// fields from the stored mapping. Stored keys without a declared field are
// ignored.
func Resume(typ Type, deps Deps, record *model.Invitation) (*Invitation, error) {
	inv := &Invitation{
		typ:     typ,
		deps:    deps.withDefaults(),
		record:  record,
		touched: make(map[string]struct{}),
	}
	spec := typ.PayloadSpec()
	for name, value := range record.Payload {
		field, ok := spec.field(name)
		if !ok {
			continue
		}
		if err := field.Set(value); err != nil {
			return nil, &ValidationError{Reason: "stored payload: " + err.Error()}
		}
	}
	return inv, nil
}

// Initialize persists a brand-new record with status INITIALIZED. Any other
// INITIALIZED record sharing type, identity-key, and context is deleted
// first, so re-issuing an invitation supersedes the stale one.
func (inv *Invitation) Initialize(ctx context.Context, args InitArgs) error {
	if inv.record.ID != 0 {
		return &InvalidStateError{Op: "initialize", Status: inv.record.Status}
	}
	hasUser := args.UserID != nil
	hasEmail := args.Email != nil && *args.Email != ""
	if hasUser == hasEmail {
		return &ValidationError{Reason: "exactly one of user id and email must be provided"}
	}

	inv.record.UserID = args.UserID
	inv.record.Email = args.Email
	inv.record.ContextID = args.ContextID
	inv.record.InviterID = args.InviterID
	inv.record.Status = model.InvitationStatusInitialized

	return inv.deps.Invitations.ReplaceInitialized(ctx, inv.record)
}

// Fill sets declared payload fields from a loose key/value map. Undeclared
// keys are silently ignored. Values land in memory only; nothing persists
// until UpdatePayload, where stage protection is enforced.
func (inv *Invitation) Fill(fields map[string]any) error {
	switch inv.record.Status {
	case model.InvitationStatusInitialized, model.InvitationStatusPending:
	default:
		return &InvalidStateError{Op: "modify", Status: inv.record.Status}
	}

	spec := inv.typ.PayloadSpec()
	for name, value := range fields {
		field, ok := spec.field(name)
		if !ok {
			continue
		}
		if err := field.Set(value); err != nil {
			return &ValidationError{Reason: err.Error()}
		}
		inv.touched[name] = struct{}{}
	}
	return nil
}

// Touched reports the field names set via Fill since the invitation was
// constructed or last persisted, sorted for stable diagnostics.
func (inv *Invitation) Touched() []string {
	names := make([]string, 0, len(inv.touched))
	for name := range inv.touched {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UpdatePayload writes the current field values back into the record's
// generic payload mapping and persists it. A protected-field change raises
// an *IntegrityError and leaves storage untouched. A recoverable validation
// failure returns (false, nil) without persisting.
func (inv *Invitation) UpdatePayload(ctx context.Context) (bool, error) {
	switch inv.record.Status {
	case model.InvitationStatusInitialized, model.InvitationStatusPending:
	default:
		return false, &InvalidStateError{Op: "update payload of", Status: inv.record.Status}
	}

	next := inv.buildPayload()
	ok, err := inv.checkPayloadIntegrity(inv.record.Payload, next)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if err := inv.deps.Invitations.UpdatePayload(ctx, inv.record.ID, next); err != nil {
		return false, err
	}
	inv.record.Payload = next
	inv.touched = make(map[string]struct{})
	return true, nil
}

// buildPayload assembles the candidate payload mapping. With an explicit
// include list only those fields are considered; either way a field with
// neither a stored value nor a currently-set one is skipped, so defaults
// never reach storage.
func (inv *Invitation) buildPayload() model.PayloadMap {
	spec := inv.typ.PayloadSpec()
	next := model.PayloadMap{}
	for _, field := range spec.Fields {
		if !spec.included(field.Name) {
			continue
		}
		value, set := field.Get()
		if set {
			next[field.Name] = value
			continue
		}
		if prev, stored := inv.record.Payload[field.Name]; stored {
			next[field.Name] = prev
		}
	}
	return next
}

// checkPayloadIntegrity compares the candidate payload against the stored
// one. A new or changed key appearing in the current stage's protected list
// is a hard invariant violation. When the type opts into validation the
// boolean result is the validation outcome.
func (inv *Invitation) checkPayloadIntegrity(prev, next model.PayloadMap) (bool, error) {
	var protected []string
	switch inv.record.Status {
	case model.InvitationStatusInitialized:
		protected = inv.typ.ProtectedBeforeInvite()
	case model.InvitationStatusPending:
		protected = inv.typ.ProtectedAfterInvite()
	default:
		return false, &InvalidStateError{Op: "check payload of", Status: inv.record.Status}
	}

	for key, value := range next {
		old, existed := prev[key]
		if existed && payloadValueEqual(old, value) {
			continue
		}
		for _, name := range protected {
			if name == key {
				return false, &IntegrityError{Field: key, Status: inv.record.Status}
			}
		}
	}

	if v, ok := inv.typ.(Validatable); ok {
		if err := v.Validate(); err != nil {
			inv.deps.Logger.Debug("invitation payload validation failed",
				zap.String("type", inv.typ.Name()),
				zap.Int64("id", inv.record.ID),
				zap.Error(err))
			return false, nil
		}
	}
	return true, nil
}

// payloadValueEqual compares two payload values structurally. Values may be
// nested maps or lists and may differ in numeric Go type after a JSON column
// round trip, so both sides are normalized through JSON.
func payloadValueEqual(a, b any) bool {
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return string(ab) == string(bb)
}

// SetExpiryDate is permitted only while INITIALIZED; the expiry is immutable
// once the invitation is dispatched.
func (inv *Invitation) SetExpiryDate(t time.Time) error {
	if inv.record.Status != model.InvitationStatusInitialized {
		return &InvalidStateError{Op: "set expiry date of", Status: inv.record.Status}
	}
	inv.record.ExpiryDate = &t
	return nil
}

// Invite dispatches the invitation: pre-invite hook, validation gate, key
// minting, expiry, best-effort mail, then the INITIALIZED -> PENDING
// transition. A validation failure returns (false, nil) with no side
// effects. A mail failure is logged and does not block the transition.
func (inv *Invitation) Invite(ctx context.Context) (bool, error) {
	if inv.record.Status != model.InvitationStatusInitialized {
		return false, &InvalidStateError{Op: "invite", Status: inv.record.Status}
	}

	if p, ok := inv.typ.(PreInviter); ok {
		if err := p.PreInvite(ctx, inv); err != nil {
			return false, err
		}
	}

	if v, ok := inv.typ.(Validatable); ok {
		if err := v.Validate(); err != nil {
			inv.deps.Logger.Debug("invitation not sent, validation failed",
				zap.String("type", inv.typ.Name()),
				zap.Int64("id", inv.record.ID),
				zap.Error(err))
			return false, nil
		}
	}

	if inv.key == "" {
		key, err := inv.deps.GenerateKey()
		if err != nil {
			return false, err
		}
		hash, err := inv.deps.Hasher.Hash(key)
		if err != nil {
			return false, err
		}
		inv.key = key
		inv.record.KeyHash = &hash
	}

	if err := inv.SetExpiryDate(inv.deps.Clock().AddDate(0, 0, inv.deps.ExpiryDays)); err != nil {
		return false, err
	}

	inv.sendMail(ctx)

	inv.record.Status = model.InvitationStatusPending
	if err := inv.deps.Invitations.Update(ctx, inv.record); err != nil {
		inv.record.Status = model.InvitationStatusInitialized
		return false, err
	}
	return true, nil
}

// sendMail delivers the notification when the type opts in. Delivery is
// best-effort: compose or transport errors are logged and swallowed, the
// invitee may need a manually re-sent link.
func (inv *Invitation) sendMail(ctx context.Context) {
	m, ok := inv.typ.(Mailable)
	if !ok {
		return
	}
	if inv.deps.Mailer == nil {
		inv.deps.Logger.Warn("no mailer configured, invitation mail skipped",
			zap.String("type", inv.typ.Name()),
			zap.Int64("id", inv.record.ID))
		return
	}
	mail, err := m.ComposeMail(ctx, inv)
	if err != nil {
		inv.deps.Logger.Error("composing invitation mail failed",
			zap.String("type", inv.typ.Name()),
			zap.Int64("id", inv.record.ID),
			zap.Error(err))
		return
	}
	receiver, err := inv.MailableReceiver(ctx, "")
	if err != nil {
		inv.deps.Logger.Error("resolving invitation receiver failed",
			zap.String("type", inv.typ.Name()),
			zap.Int64("id", inv.record.ID),
			zap.Error(err))
		return
	}
	if err := inv.deps.Mailer.Send(ctx, receiver.Email, mail.Subject, mail.Body); err != nil {
		inv.deps.Logger.Error("sending invitation mail failed",
			zap.String("type", inv.typ.Name()),
			zap.Int64("id", inv.record.ID),
			zap.String("to", receiver.Email),
			zap.Error(err))
	}
}

// Accept transitions a PENDING invitation to ACCEPTED. Accepting an already
// accepted invitation is a no-op.
func (inv *Invitation) Accept(ctx context.Context) error {
	return inv.finalize(ctx, model.InvitationStatusAccepted, "accept")
}

// Decline transitions to DECLINED via a status-only update. Declining an
// already declined invitation is a no-op; crossing from the other terminal
// state is an error.
func (inv *Invitation) Decline(ctx context.Context) error {
	return inv.finalize(ctx, model.InvitationStatusDeclined, "decline")
}

func (inv *Invitation) finalize(ctx context.Context, target model.InvitationStatus, op string) error {
	switch inv.record.Status {
	case target:
		return nil
	case model.InvitationStatusPending:
	case model.InvitationStatusInitialized:
		// Declining an undelivered invitation withdraws it; accepting one is
		// impossible because no key was ever issued.
		if target == model.InvitationStatusAccepted {
			return &InvalidStateError{Op: op, Status: inv.record.Status}
		}
	default:
		return &InvalidStateError{Op: op, Status: inv.record.Status}
	}

	if err := inv.deps.Invitations.UpdateStatus(ctx, inv.record.ID, target); err != nil {
		return err
	}
	inv.record.Status = target
	return nil
}

func (inv *Invitation) ID() int64                       { return inv.record.ID }
func (inv *Invitation) TypeName() string                { return inv.typ.Name() }
func (inv *Invitation) Status() model.InvitationStatus  { return inv.record.Status }
func (inv *Invitation) UserID() *uuid.UUID              { return inv.record.UserID }
func (inv *Invitation) Email() *string                  { return inv.record.Email }
func (inv *Invitation) ContextID() *uuid.UUID           { return inv.record.ContextID }
func (inv *Invitation) ExpiryDate() *time.Time          { return inv.record.ExpiryDate }
func (inv *Invitation) Record() *model.Invitation       { return inv.record }

// Key returns the plaintext one-time secret. It is only available in the
// process instance that minted it; a resumed invitation returns "".
func (inv *Invitation) Key() string { return inv.key }

// ExistingUser resolves the invited account, or nil for email-only
// invitations.
func (inv *Invitation) ExistingUser(ctx context.Context) (*model.User, error) {
	if inv.record.UserID == nil {
		return nil, nil
	}
	return inv.deps.Users.GetByID(ctx, *inv.record.UserID)
}

// Inviter resolves the issuing actor, or nil when none was recorded.
func (inv *Invitation) Inviter(ctx context.Context) (*model.User, error) {
	if inv.record.InviterID == nil {
		return nil, nil
	}
	return inv.deps.Users.GetByID(ctx, *inv.record.InviterID)
}

// Context resolves the organizational scope, or nil for site-wide
// invitations.
func (inv *Invitation) Context(ctx context.Context) (*model.Context, error) {
	if inv.record.ContextID == nil {
		return nil, nil
	}
	return inv.deps.Contexts.GetByID(ctx, *inv.record.ContextID)
}

// Receiver is the minimal identity used to address outbound mail.
type Receiver struct {
	Name  string
	Email string
}

// MailableReceiver builds the outbound identity from the existing user when
// one is referenced, else from the raw invited email.
func (inv *Invitation) MailableReceiver(ctx context.Context, locale string) (Receiver, error) {
	user, err := inv.ExistingUser(ctx)
	if err != nil {
		return Receiver{}, err
	}
	if user != nil {
		return Receiver{Name: user.FullName(), Email: user.Email}, nil
	}
	if inv.record.Email != nil {
		return Receiver{Email: *inv.record.Email}, nil
	}
	return Receiver{}, &ValidationError{Reason: "invitation has neither user nor email"}
}

// UsedLocale picks the locale for outbound content: explicit override, else
// the context's primary locale, else the site's.
func (inv *Invitation) UsedLocale(ctx context.Context, override string) string {
	if override != "" {
		return override
	}
	if inv.record.ContextID != nil {
		if c, err := inv.Context(ctx); err == nil && c != nil && c.PrimaryLocale != "" {
			return c.PrimaryLocale
		}
	}
	return inv.deps.SiteLocale
}
