// Package idgen generates run identifiers used to correlate log lines.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/artpar/api2html/ports"
	"github.com/google/uuid"
)

// UUID generates random UUIDs.
type UUID struct {
	// Short keeps only the first 8 hex digits.
	Short bool
}

// New generates a new UUID v4.
func (g UUID) New() string {
	id := uuid.New().String()
	if g.Short {
		return id[:8]
	}
	return id
}

// Ensure interface compliance.
var _ ports.IDGenerator = UUID{}

// Sequential generates predictable ids, for tests and reproducible logs.
type Sequential struct {
	prefix  string
	counter atomic.Uint64
}

// NewSequential creates a sequential ID generator.
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// New generates the next sequential ID.
func (s *Sequential) New() string {
	return s.prefix + strconv.FormatUint(s.counter.Add(1), 10)
}

// Ensure interface compliance.
var _ ports.IDGenerator = (*Sequential)(nil)
