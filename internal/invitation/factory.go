package invitation

import (
	"pressroom/invitehub/internal/model"
)

// Constructor builds a fresh instance of one concrete invitation type.
type Constructor func() Type

// Factory resolves registered type names to invitation instances. It is an
// explicit instance constructed at startup and handed to whoever needs it;
// there is no process-wide registry.
type Factory struct {
	deps         Deps
	constructors map[string]Constructor
}

func NewFactory(deps Deps) *Factory {
	return &Factory{
		deps:         deps.withDefaults(),
		constructors: map[string]Constructor{},
	}
}

// Init installs the complete type registry, replacing any prior one. It is
// expected exactly once at startup; callers must pass the full map each
// time, registration is not additive.
func (f *Factory) Init(registry map[string]Constructor) {
	constructors := make(map[string]Constructor, len(registry))
	for name, ctor := range registry {
		constructors[name] = ctor
	}
	f.constructors = constructors
}

// Types returns the registered type names.
func (f *Factory) Types() []string {
	names := make([]string, 0, len(f.constructors))
	for name := range f.constructors {
		names = append(names, name)
	}
	return names
}

// CreateNew instantiates a fresh, empty invitation of the given type.
func (f *Factory) CreateNew(typeName string) (*Invitation, error) {
	ctor, ok := f.constructors[typeName]
	if !ok {
		return nil, &UnknownTypeError{Type: typeName}
	}
	return New(ctor(), f.deps), nil
}

// GetExisting wraps an already-persisted record, typically to resume a
// PENDING invitation found by key lookup.
func (f *Factory) GetExisting(typeName string, record *model.Invitation) (*Invitation, error) {
	ctor, ok := f.constructors[typeName]
	if !ok {
		return nil, &UnknownTypeError{Type: typeName}
	}
	if record.Type != typeName {
		return nil, &ValidationError{Reason: "record type does not match requested invitation type"}
	}
	return Resume(ctor(), f.deps, record)
}
