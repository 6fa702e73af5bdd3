package store

import (
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// maxIDLen bounds ids accepted from requests.
const maxIDLen = 64

// IDGenerator returns a fresh item id on every call.
type IDGenerator func() string

// NewULIDGenerator returns a generator of monotonic ULIDs. Ids from one
// generator sort in creation order even within the same millisecond.
func NewULIDGenerator() IDGenerator {
	return newULIDGenerator(rand.Reader, time.Now)
}

func newULIDGenerator(entropy io.Reader, now func() time.Time) IDGenerator {
	var mu sync.Mutex
	mono := ulid.Monotonic(entropy, 0)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		return ulid.MustNew(ulid.Timestamp(now()), mono).String()
	}
}

// ValidID reports whether id can be used verbatim in an element id and
// selector: non-empty ASCII letters, digits, '-' and '_'. Every ULID
// qualifies.
func ValidID(id string) bool {
	if id == "" || len(id) > maxIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= '0' && c <= '9', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
