// internal/core/naming.go
package core

import (
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/iancoleman/strcase"
)

const alphanumeric = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// SuffixSource produces the random suffix appended to generated names.
type SuffixSource interface {
	RandomString(length int) string
}

// AlphanumericSource draws characters from [0-9A-Za-z]. It is not
// cryptographically secure; it only has to spread auto-generated names apart.
type AlphanumericSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewAlphanumericSource returns a randomly seeded source.
func NewAlphanumericSource() *AlphanumericSource {
	return NewSeededAlphanumericSource(rand.Uint64(), rand.Uint64())
}

// NewSeededAlphanumericSource returns a reproducible source.
func NewSeededAlphanumericSource(seed1, seed2 uint64) *AlphanumericSource {
	return &AlphanumericSource{rng: rand.New(rand.NewPCG(seed1, seed2))}
}

// RandomString returns length characters from the alphanumeric alphabet.
func (s *AlphanumericSource) RandomString(length int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	b.Grow(length)
	for i := 0; i < length; i++ {
		b.WriteByte(alphanumeric[s.rng.IntN(len(alphanumeric))])
	}
	return b.String()
}

// SnakeCase converts a test definition FQN such as "columnValuesToBeUnique"
// into "column_values_to_be_unique".
func SnakeCase(s string) string {
	return strcase.ToSnake(strings.TrimSpace(s))
}
