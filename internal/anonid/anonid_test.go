package anonid_test

import (
	"anonrelay/backend/internal/anonid"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomNew_Shape(t *testing.T) {
	var r anonid.Random
	for i := 0; i < 1000; i++ {
		id := r.New()
		require.Len(t, id, anonid.Length)
		for _, c := range id {
			assert.True(t, strings.ContainsRune(anonid.Alphabet, c), "unexpected character %q in %s", c, id)
		}
		assert.True(t, anonid.Valid(id))
	}
}

func TestRandomNew_Fresh(t *testing.T) {
	var r anonid.Random
	seen := make(map[string]bool)
	for i := 0; i < 10000; i++ {
		id := r.New()
		assert.False(t, seen[id], "duplicate token %s", id)
		seen[id] = true
	}
}

func TestRandomNew_Concurrent(t *testing.T) {
	var r anonid.Random
	var wg sync.WaitGroup
	ids := make(chan string, 800)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				ids <- r.New()
			}
		}()
	}
	wg.Wait()
	close(ids)
	for id := range ids {
		assert.True(t, anonid.Valid(id))
	}
}

func TestValid(t *testing.T) {
	assert.True(t, anonid.Valid("AB12CD34"))
	assert.False(t, anonid.Valid("ab12cd34"))
	assert.False(t, anonid.Valid("AB12CD3"))
	assert.False(t, anonid.Valid("AB12CD34X"))
	assert.False(t, anonid.Valid("AB12-D34"))
}

// sequence returns the given tokens in order.
type sequence struct {
	ids []string
	n   int
}

func (s *sequence) Generate(context.Context) (string, error) {
	id := s.ids[s.n%len(s.ids)]
	s.n++
	return id, nil
}

func TestUnique_SkipsTokensInUse(t *testing.T) {
	taken := map[string]bool{"AAAAAAAA": true, "BBBBBBBB": true}
	u := &anonid.Unique{
		Source:      &sequence{ids: []string{"AAAAAAAA", "BBBBBBBB", "CCCCCCCC"}},
		InUse:       func(_ context.Context, id string) (bool, error) { return taken[id], nil },
		MaxAttempts: 5,
	}

	id, err := u.Generate(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "CCCCCCCC", id)
}

func TestUnique_Exhausted(t *testing.T) {
	u := &anonid.Unique{
		Source:      &sequence{ids: []string{"AAAAAAAA"}},
		InUse:       func(context.Context, string) (bool, error) { return true, nil },
		MaxAttempts: 3,
	}

	_, err := u.Generate(context.Background())

	assert.ErrorIs(t, err, anonid.ErrExhausted)
}

func TestUnique_CheckerError(t *testing.T) {
	boom := errors.New("db down")
	u := anonid.NewUnique(func(context.Context, string) (bool, error) { return false, boom })

	_, err := u.Generate(context.Background())

	assert.ErrorIs(t, err, boom)
}
