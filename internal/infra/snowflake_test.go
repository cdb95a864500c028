package infra

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateMonotonic(t *testing.T) {
	gen := NewSnowflakeGenerator(1)

	prev := gen.Generate()
	for i := 0; i < 10000; i++ {
		id := gen.Generate()
		require.Greater(t, id, prev, "ids must be strictly increasing")
		prev = id
	}
}

func TestGenerateUniqueAcrossGoroutines(t *testing.T) {
	gen := NewSnowflakeGenerator(1)

	const perWorker = 2000
	results := make(chan int64, 4*perWorker)
	for w := 0; w < 4; w++ {
		go func() {
			for i := 0; i < perWorker; i++ {
				results <- gen.Generate()
			}
		}()
	}

	seen := make(map[int64]bool, 4*perWorker)
	for i := 0; i < 4*perWorker; i++ {
		id := <-results
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
}

func TestExtractTimestamp(t *testing.T) {
	gen := NewSnowflakeGenerator(1)

	before := time.Now().Truncate(time.Millisecond)
	id := gen.Generate()
	after := time.Now()

	ts := gen.ExtractTimestamp(id)
	assert.False(t, ts.Before(before))
	assert.False(t, ts.After(after))
}

func TestFormatParseRoundTrip(t *testing.T) {
	id := NewSnowflakeGenerator(3).Generate()

	parsed, err := ParseID(FormatID(id))
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestParseIDRejectsNonNumeric(t *testing.T) {
	_, err := ParseID("optimistic-3f7c")
	assert.Error(t, err)
}
