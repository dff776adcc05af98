package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	mu   sync.Mutex
	mono io.Reader
)

func init() {
	// ulid.Monotonic keeps ids generated within the same millisecond
	// strictly increasing.
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	mono = ulid.Monotonic(rand.New(rand.NewSource(seed)), 0)
}

// New returns a ULID string (time-sortable identifier).
//
// Position ids sort lexicographically by creation time, so ordering open
// positions by id is the same as ordering them by open time.
func New() string {
	mu.Lock()
	defer mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), mono)
	if err != nil {
		// only possible if the clock goes backwards past the entropy window
		panic(err)
	}
	return id.String()
}

// Source produces unique identifiers.
type Source func() string

// Sequence returns a Source yielding prefix-000001, prefix-000002, ...
// It is safe for concurrent use and sorts in generation order.
func Sequence(prefix string) Source {
	var n atomic.Uint64
	return func() string {
		return fmt.Sprintf("%s-%06d", prefix, n.Add(1))
	}
}
