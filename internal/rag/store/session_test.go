package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionLifecycle(t *testing.T) {
	s := NewMemorySessionStore()

	s.Init("sess-1")
	assert.Empty(t, s.History("sess-1"))

	s.Append("sess-1", SessionEntry{Query: "q1", Answer: "a1", At: time.Now()})
	s.Append("sess-1", SessionEntry{Query: "q2", Answer: "a2", At: time.Now()})

	history := s.History("sess-1")
	require.Len(t, history, 2)
	assert.Equal(t, "q1", history[0].Query)
	assert.Equal(t, "q2", history[1].Query)

	s.Drop("sess-1")
	assert.Empty(t, s.History("sess-1"))
}

func TestSessionReinitClears(t *testing.T) {
	s := NewMemorySessionStore()

	s.Append("sess-1", SessionEntry{Query: "q"})
	s.Init("sess-1")
	assert.Empty(t, s.History("sess-1"))
}

func TestSessionHistoryIsACopy(t *testing.T) {
	s := NewMemorySessionStore()
	s.Append("sess-1", SessionEntry{Query: "original"})

	history := s.History("sess-1")
	history[0].Query = "mutated"

	assert.Equal(t, "original", s.History("sess-1")[0].Query)
}

func TestSessionConcurrentAppend(t *testing.T) {
	s := NewMemorySessionStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Append("sess-1", SessionEntry{Query: "q"})
		}()
	}
	wg.Wait()

	assert.Len(t, s.History("sess-1"), 20)
}
