package id

import (
	"sort"
	"sync"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsUniqueAndSorted(t *testing.T) {
	ids := make([]string, 1000)
	for i := range ids {
		ids[i] = New()
	}

	seen := map[string]bool{}
	for _, s := range ids {
		_, err := ulid.Parse(s)
		require.NoError(t, err)
		assert.False(t, seen[s], "duplicate id %s", s)
		seen[s] = true
	}
	assert.True(t, sort.StringsAreSorted(ids))
}

func TestSequenceConcurrent(t *testing.T) {
	next := Sequence("P")
	assert.Equal(t, "P-000001", next())

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := map[string]bool{}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s := next()
				mu.Lock()
				seen[s] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 800)
}
