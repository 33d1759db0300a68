package scheme

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// Catalog is the set of schemes offered by a scheme service. It is never
// modified after construction; reloading produces a new Catalog.
type Catalog struct {
	schemes []*Scheme
	byKey   map[string]*Scheme
}

// NewCatalog builds a catalog preserving the order of schemes. Keys must be unique.
func NewCatalog(schemes ...*Scheme) (*Catalog, error) {
	c := &Catalog{
		schemes: make([]*Scheme, 0, len(schemes)),
		byKey:   make(map[string]*Scheme, len(schemes)),
	}
	for _, s := range schemes {
		if s == nil {
			return nil, errors.New("nil scheme")
		}
		if _, dup := c.byKey[s.Key]; dup {
			return nil, fmt.Errorf("duplicate scheme key %q", s.Key)
		}
		c.byKey[s.Key] = s
		c.schemes = append(c.schemes, s)
	}
	return c, nil
}

// Get returns the scheme with the given key.
func (c *Catalog) Get(key string) (*Scheme, bool) {
	if c == nil {
		return nil, false
	}
	s, ok := c.byKey[key]
	return s, ok
}

// Keys returns scheme keys in catalog order.
func (c *Catalog) Keys() []string {
	if c == nil {
		return nil
	}
	keys := make([]string, len(c.schemes))
	for i, s := range c.schemes {
		keys[i] = s.Key
	}
	return keys
}

// Schemes returns the schemes in catalog order.
func (c *Catalog) Schemes() []*Scheme {
	if c == nil {
		return nil
	}
	out := make([]*Scheme, len(c.schemes))
	copy(out, c.schemes)
	return out
}

// Len returns the number of schemes.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.schemes)
}

// Validate validates every scheme in the catalog.
func (c *Catalog) Validate() error {
	if c == nil {
		return nil
	}
	var errs []error
	for _, s := range c.schemes {
		if err := s.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Holder owns the current catalog of a session. Replace swaps the whole
// catalog at once, so readers see either the old or the new catalog.
type Holder struct {
	current atomic.Pointer[Catalog]
}

// Load returns the current catalog, or nil before the first Replace.
func (h *Holder) Load() *Catalog {
	return h.current.Load()
}

// Replace installs c as the current catalog.
func (h *Holder) Replace(c *Catalog) {
	h.current.Store(c)
}
