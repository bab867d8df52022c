// Package currency holds the static table of ISO 4217 currencies the platform
// accepts. Lookups are pure; the table is loaded once from an embedded CSV.
package currency

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"github.com/ticketcore/promoengine/pkg/domain"
	"github.com/ticketcore/promoengine/pkg/money"
)

// DefaultDecimals is used for display when a currency carries no explicit exponent.
const DefaultDecimals = 2

//go:embed meta.csv
var metaCSV string

// Meta describes a single currency.
type Meta struct {
	Code     money.Code `json:"code"`
	Name     string     `json:"name"`
	Symbol   string     `json:"symbol"`
	Decimals int        `json:"decimals"`
	Country  string     `json:"country,omitempty"`
	Region   string     `json:"region,omitempty"`
}

// Registry is an immutable lookup table of currencies keyed by code.
type Registry struct {
	metas map[money.Code]Meta
	codes []money.Code
}

// NewRegistry builds a registry from the given metadata.
func NewRegistry(metas []Meta) *Registry {
	r := &Registry{metas: make(map[money.Code]Meta, len(metas))}
	for _, m := range metas {
		if _, dup := r.metas[m.Code]; !dup {
			r.codes = append(r.codes, m.Code)
		}
		r.metas[m.Code] = m
	}
	slices.Sort(r.codes)
	return r
}

// Get returns the metadata for a code (case-insensitive).
func (r *Registry) Get(code string) (Meta, error) {
	m, ok := r.metas[money.Code(strings.ToUpper(strings.TrimSpace(code)))]
	if !ok {
		return Meta{}, fmt.Errorf("%w: %q", domain.ErrInvalidCurrencyCode, code)
	}
	return m, nil
}

// IsValid reports whether the code is a registered currency. Matching is exact:
// codes crossing the boundary are always uppercase.
func (r *Registry) IsValid(code money.Code) bool {
	_, ok := r.metas[code]
	return ok
}

// Validate returns ErrInvalidCurrencyCode for the first unknown code.
func (r *Registry) Validate(codes ...money.Code) error {
	for _, c := range codes {
		if !r.IsValid(c) {
			return fmt.Errorf("%w: %q", domain.ErrInvalidCurrencyCode, c)
		}
	}
	return nil
}

// Decimals returns the minor-unit exponent of a currency.
func (r *Registry) Decimals(code money.Code) (int, error) {
	m, ok := r.metas[code]
	if !ok {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidCurrencyCode, code)
	}
	return m.Decimals, nil
}

// List returns all registered currencies ordered by code.
func (r *Registry) List() []Meta {
	out := make([]Meta, 0, len(r.codes))
	for _, c := range r.codes {
		out = append(out, r.metas[c])
	}
	return out
}

// Count returns the number of registered currencies.
func (r *Registry) Count() int {
	return len(r.codes)
}

var defaultRegistry = mustLoadDefault()

func mustLoadDefault() *Registry {
	metas, err := parseMetaCSV(strings.NewReader(metaCSV))
	if err != nil {
		panic(fmt.Sprintf("currency: embedded meta.csv is invalid: %v", err))
	}
	return NewRegistry(metas)
}

// Default returns the registry built from the embedded ISO table.
func Default() *Registry {
	return defaultRegistry
}
