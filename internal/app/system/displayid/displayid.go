// Package displayid generates the 10-digit human-facing request numbers.
package displayid

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"github.com/dalemusser/bloodhub/internal/domain/faults"
)

const (
	minID = 1_000_000_000
	maxID = 9_999_999_999

	// DefaultMaxAttempts bounds the collision retries.
	DefaultMaxAttempts = 16
)

// Lookup reports whether a display id is already used.
type Lookup interface {
	ExistsDisplayID(ctx context.Context, displayID string) (bool, error)
}

// Source returns a uniformly random value in [0, n).
type Source func(n int64) (int64, error)

// Generator samples candidates uniformly from the 10-digit space and retries
// on collision, giving up after MaxAttempts.
type Generator struct {
	lookup      Lookup
	maxAttempts int
	source      Source
}

// New builds a Generator. maxAttempts <= 0 selects DefaultMaxAttempts.
func New(lookup Lookup, maxAttempts int) *Generator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Generator{lookup: lookup, maxAttempts: maxAttempts, source: cryptoSource}
}

// WithSource replaces the random source. Used by tests.
func (g *Generator) WithSource(src Source) *Generator {
	g.source = src
	return g
}

// Generate returns a display id not present among existing requests at the
// time of the check. The request store's unique index on display_id catches
// the remaining insert race.
func (g *Generator) Generate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		n, err := g.source(maxID - minID + 1)
		if err != nil {
			return "", fmt.Errorf("display id: random source: %w", err)
		}
		candidate := fmt.Sprintf("%010d", minID+n)

		taken, err := g.lookup.ExistsDisplayID(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("display id: lookup: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", faults.ErrIDSpaceExhausted
}

func cryptoSource(n int64) (int64, error) {
	v, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return 0, err
	}
	return v.Int64(), nil
}

// Valid reports whether s has the display id shape.
func Valid(s string) bool {
	if len(s) != 10 || s[0] == '0' {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
