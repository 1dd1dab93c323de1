package logo

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
)

// Link represents a single pagination link.
type Link struct {
	Href string `json:"href" yaml:"href"`
}

// Meta carries server metadata attached to an envelope.
type Meta struct {
	Href      string `json:"href,omitempty"      yaml:"href,omitempty"`
	MediaType string `json:"mediaType,omitempty" yaml:"mediaType,omitempty"`
}

// Envelope represents a paginated list response.
type Envelope[T any] struct {
	Meta       *Meta `json:"Meta,omitempty"     yaml:"Meta,omitempty"`
	Items      []T   `json:"items"              yaml:"items"`
	Offset     int   `json:"offset"             yaml:"offset"`
	Count      int   `json:"count"              yaml:"count"`
	TotalCount int   `json:"totalCount"         yaml:"totalCount"`
	Limit      int   `json:"limit"              yaml:"limit"`
	First      *Link `json:"first,omitempty"    yaml:"first,omitempty"`
	Next       *Link `json:"next,omitempty"     yaml:"next,omitempty"`
	Previous   *Link `json:"previous,omitempty" yaml:"previous,omitempty"`
}

// HasNext reports whether the envelope links to a following page.
func (e *Envelope[T]) HasNext() bool {
	return e != nil && e.Next != nil && e.Next.Href != ""
}

// Consistent checks that count matches the number of items and that a next
// link is present exactly when more items remain.
func (e *Envelope[T]) Consistent() error {
	if e.Count != len(e.Items) {
		return fmt.Errorf("%w: count %d but %d items", ErrInconsistentPage, e.Count, len(e.Items))
	}

	remaining := e.Offset+e.Count < e.TotalCount
	if remaining != e.HasNext() {
		return fmt.Errorf("%w: offset %d + count %d vs totalCount %d with next=%t",
			ErrInconsistentPage, e.Offset, e.Count, e.TotalCount, e.HasNext())
	}

	return nil
}

// Entity is the metadata a generated client supplies to the core.
type Entity struct {
	Name   string
	Path   string
	Fields FieldMap
}

// FieldNameOf resolves a logical field name for this entity.
func (e Entity) FieldNameOf(key string) string {
	return e.Fields.FieldNameOf(key)
}

// ResourcePath returns the path of a single resource of this entity.
func (e Entity) ResourcePath(id string) string {
	return strings.TrimSuffix(e.Path, "/") + "/" + url.PathEscape(id)
}

// EntityRegistry maps entity names to their metadata. It is safe for
// concurrent use.
type EntityRegistry struct {
	mu       sync.RWMutex
	entities map[string]Entity
}

// NewEntityRegistry builds a registry from a static list of entities.
func NewEntityRegistry(entities ...Entity) (*EntityRegistry, error) {
	registry := &EntityRegistry{entities: make(map[string]Entity, len(entities))}

	for _, entity := range entities {
		err := registry.Register(entity)
		if err != nil {
			return nil, err
		}
	}

	return registry, nil
}

// Register adds an entity. Registering the same name twice is an error.
func (r *EntityRegistry) Register(entity Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entities == nil {
		r.entities = make(map[string]Entity)
	}

	if _, exists := r.entities[entity.Name]; exists {
		return fmt.Errorf("%w: %s", ErrEntityExists, entity.Name)
	}

	r.entities[entity.Name] = entity

	return nil
}

// Lookup returns the entity registered under name.
func (r *EntityRegistry) Lookup(name string) (Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entity, ok := r.entities[name]
	if !ok {
		return Entity{}, fmt.Errorf("%w: %s", ErrEntityNotFound, name)
	}

	return entity, nil
}

// Names returns the registered entity names in sorted order.
func (r *EntityRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
