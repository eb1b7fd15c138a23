// Package templates holds vendor-specific extraction profiles and the
// classifier that picks one for a document.
package templates

import (
	"fmt"
	"strings"

	"github.com/joseph-ayodele/invoice-extractor/internal/invoice"
)

// Template is a specialized extraction strategy for one known invoice layout.
type Template interface {
	ID() string
	// Matches must be pure: the same text always gives the same answer.
	Matches(raw invoice.RawText) bool
	Extract(raw invoice.RawText) invoice.Invoice
}

// Registry is an ordered set of templates. Register everything before the
// registry is shared; lookups are not synchronized.
type Registry struct {
	order []Template
	byID  map[string]Template
}

func NewRegistry(ts ...Template) (*Registry, error) {
	r := &Registry{byID: make(map[string]Template)}
	for _, t := range ts {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// DefaultRegistry contains the built-in templates.
func DefaultRegistry() *Registry {
	r, _ := NewRegistry(NewBoltonMaguire())
	return r
}

// Register appends t. Earlier registrations win when several match.
func (r *Registry) Register(t Template) error {
	if t == nil {
		return fmt.Errorf("register template: nil template")
	}
	id := strings.TrimSpace(t.ID())
	if id == "" {
		return fmt.Errorf("register template: empty id")
	}
	if _, dup := r.byID[id]; dup {
		return fmt.Errorf("register template: duplicate id %q", id)
	}
	r.byID[id] = t
	r.order = append(r.order, t)
	return nil
}

// Classify returns the profile of the first matching template, or Generic.
func (r *Registry) Classify(raw invoice.RawText) invoice.Profile {
	if r == nil {
		return invoice.Generic()
	}
	for _, t := range r.order {
		if t.Matches(raw) {
			return invoice.Specialized(t.ID())
		}
	}
	return invoice.Generic()
}

// Lookup returns the template registered under id.
func (r *Registry) Lookup(id string) (Template, bool) {
	if r == nil {
		return nil, false
	}
	t, ok := r.byID[id]
	return t, ok
}

// IDs lists registered template ids in match order.
func (r *Registry) IDs() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.order))
	for _, t := range r.order {
		out = append(out, t.ID())
	}
	return out
}

// containsAll reports whether every literal token appears in text.
func containsAll(text string, tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, tok := range tokens {
		if !strings.Contains(text, tok) {
			return false
		}
	}
	return true
}
