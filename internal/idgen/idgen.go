// Package idgen produces prefixed, time-ordered identifiers for ledger records.
package idgen

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	googleuuid "github.com/google/uuid"
)

// Resource prefixes used across the application.
const (
	PrefixTransaction = "txn"
	PrefixCategory    = "cat"
	PrefixRule        = "rule"
	PrefixUser        = "usr"
	PrefixAudit       = "audit"
)

const suffixLen = 7

// Supplier hands out identifiers that are unique for practical purposes
// within one process.
type Supplier interface {
	NewID(prefix string) string
}

// SupplierFunc adapts a plain function to the Supplier interface.
type SupplierFunc func(prefix string) string

// NewID calls f(prefix).
func (f SupplierFunc) NewID(prefix string) string { return f(prefix) }

// Default is the process-wide supplier backed by New.
var Default Supplier = SupplierFunc(New)

// New generates an identifier of the form <prefix>_<millis36>_<random36>.
//
// The middle segment is the current Unix time in milliseconds in base 36,
// so identifiers created later sort after earlier ones of the same length.
// The last segment holds 7 base-36 characters of randomness.
func New(prefix string) string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 36)
	return prefix + "_" + ts + "_" + randomSuffix()
}

func randomSuffix() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// Fall back to a v4 UUID's random bits if the system source fails
		u := googleuuid.New()
		copy(b[:], u[8:])
	}

	s := strconv.FormatUint(binary.BigEndian.Uint64(b[:]), 36)
	if len(s) < suffixLen {
		s = strings.Repeat("0", suffixLen-len(s)) + s
	}
	return s[len(s)-suffixLen:]
}

// PrefixOf returns the resource prefix of an identifier.
func PrefixOf(id string) string {
	prefix, _, _ := strings.Cut(id, "_")
	return prefix
}

// HasPrefix reports whether id was generated for the given prefix.
func HasPrefix(id, prefix string) bool {
	return PrefixOf(id) == prefix
}

// Sequential is a deterministic Supplier producing <prefix>_1, <prefix>_2, ...
// It is safe for concurrent use.
type Sequential struct {
	n atomic.Int64
}

// NewID returns the next identifier in the sequence.
func (s *Sequential) NewID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, s.n.Add(1))
}
