package entity

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/dshills/geosoft-mcp/internal/logger"
	"github.com/dshills/geosoft-mcp/internal/schema"
	"github.com/dshills/geosoft-mcp/pkg/types"
)

// Entry pairs an entity key with its container
type Entry struct {
	Key       types.EntityKey
	Container *Container
}

// Registry is the insertion-ordered set of entities in one document.
// Entries are only ever added.
type Registry struct {
	entries []Entry
	index   map[types.EntityKey]int
	current *Container
	logger  *zap.SugaredLogger
}

// NewRegistry creates an empty registry. A nil logger uses the global one.
func NewRegistry(log *zap.SugaredLogger) *Registry {
	if log == nil {
		log = logger.ComponentLogger("entity")
	}
	return &Registry{
		index:  make(map[types.EntityKey]int),
		logger: log,
	}
}

// Begin creates the container for (kind, name) and makes it current.
// Redeclaring an existing key fails with types.ErrDuplicateEntity.
func (r *Registry) Begin(kind types.EntityKind, name string) (*Container, error) {
	key := types.EntityKey{Kind: kind, Name: name}
	if _, exists := r.index[key]; exists {
		return nil, errors.Wrapf(types.ErrDuplicateEntity, "%s", key)
	}

	c := NewContainer(key, schema.ForKind(kind), r.logger)
	r.index[key] = len(r.entries)
	r.entries = append(r.entries, Entry{Key: key, Container: c})
	r.current = c
	return c, nil
}

// Current returns the most recently begun entity
func (r *Registry) Current() (*Container, error) {
	if r.current == nil {
		return nil, types.ErrNoEntity
	}
	return r.current, nil
}

// Get returns the container for key
func (r *Registry) Get(key types.EntityKey) (*Container, bool) {
	i, ok := r.index[key]
	if !ok {
		return nil, false
	}
	return r.entries[i].Container, true
}

// Lookup returns one attribute of one entity
func (r *Registry) Lookup(key types.EntityKey, attribute string) (Value, error) {
	c, ok := r.Get(key)
	if !ok {
		return Value{}, errors.Wrapf(types.ErrAttributeNotFound, "no entity %s", key)
	}
	return c.Get(attribute)
}

// OfKind returns the entries of one kind in insertion order.
// No match yields an empty slice.
func (r *Registry) OfKind(kind types.EntityKind) []Entry {
	out := make([]Entry, 0)
	for _, e := range r.entries {
		if e.Key.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Platforms returns all PLATFORM entities
func (r *Registry) Platforms() []Entry { return r.OfKind(types.KindPlatform) }

// Series returns all SERIES entities
func (r *Registry) Series() []Entry { return r.OfKind(types.KindSeries) }

// Samples returns all SAMPLE entities
func (r *Registry) Samples() []Entry { return r.OfKind(types.KindSample) }

// Entries returns every entry in insertion order
func (r *Registry) Entries() []Entry {
	return append([]Entry{}, r.entries...)
}

// Keys returns every key in insertion order
func (r *Registry) Keys() []types.EntityKey {
	keys := make([]types.EntityKey, len(r.entries))
	for i, e := range r.entries {
		keys[i] = e.Key
	}
	return keys
}

// Len returns the number of entities
func (r *Registry) Len() int { return len(r.entries) }

// ValidateAll validates every container in insertion order
func (r *Registry) ValidateAll() []types.Warning {
	var warnings []types.Warning
	for _, e := range r.entries {
		warnings = append(warnings, e.Container.Validate()...)
	}
	return warnings
}

// Warnings collects every warning recorded by every container
func (r *Registry) Warnings() []types.Warning {
	var warnings []types.Warning
	for _, e := range r.entries {
		warnings = append(warnings, e.Container.Warnings()...)
	}
	return warnings
}
