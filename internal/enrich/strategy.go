// Package enrich holds the enrichment strategies applied to contact records
// by the batch workers. Strategies are pure and deterministic: the same
// input record always yields the same enriched record.
package enrich

import (
	"fmt"
	"strings"

	"github.com/enrichkit/contact-pipeline/internal/contact"
	apperrors "github.com/enrichkit/contact-pipeline/pkg/errors"
)

// Strategy derives fields for a single contact record. Implementations must
// not mutate the input and must not perform I/O.
type Strategy interface {
	Name() string
	Enrich(rec contact.Record) (contact.Record, error)
}

// MissingFieldError reports a source field required by a strategy that is
// absent or blank on the input record.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return apperrors.ErrMissingField
}

// ProfessionalEmail derives a professional_email field as
// {first_name}.{last_name}@{company_domain}, lower-cased.
type ProfessionalEmail struct{}

func (ProfessionalEmail) Name() string { return "professional-email" }

func (ProfessionalEmail) Enrich(rec contact.Record) (contact.Record, error) {
	first, ok := rec.StringField("first_name")
	if !ok {
		return nil, &MissingFieldError{Field: "first_name"}
	}
	last, ok := rec.StringField("last_name")
	if !ok {
		return nil, &MissingFieldError{Field: "last_name"}
	}
	domain, ok := rec.StringField("company_domain")
	if !ok {
		return nil, &MissingFieldError{Field: "company_domain"}
	}

	out := rec.Clone()
	out["professional_email"] = strings.ToLower(first) + "." + strings.ToLower(last) + "@" + domain
	return out, nil
}

// Registry maps strategy names to implementations. The set of names is
// closed: looking up an unregistered name is a caller-visible error, never
// a silent fallback.
type Registry struct {
	strategies map[string]Strategy
}

// NewRegistry builds a Registry from the given strategies, keyed by Name().
func NewRegistry(strategies ...Strategy) *Registry {
	m := make(map[string]Strategy, len(strategies))
	for _, s := range strategies {
		m[s.Name()] = s
	}
	return &Registry{strategies: m}
}

// DefaultRegistry returns a Registry with every built-in strategy.
func DefaultRegistry() *Registry {
	return NewRegistry(ProfessionalEmail{})
}

// Get returns the strategy registered under name.
func (r *Registry) Get(name string) (Strategy, error) {
	s, ok := r.strategies[name]
	if !ok {
		return nil, apperrors.Newf(apperrors.ErrUnknownStrategy, 400, "no strategy registered as %q", name)
	}
	return s, nil
}
