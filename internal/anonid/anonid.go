// Package anonid generates the short anonymous tokens that correlate a relayed
// message with the administrator's reply.
//
// Tokens are 8 characters from [A-Z0-9] (36^8 ≈ 2.8e12 values). Random makes no
// uniqueness check, so two submissions can collide with birthday probability;
// Unique narrows that to collisions with messages that are no longer pending.
package anonid

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
)

const (
	// Length is the number of characters in a token.
	Length = 8
	// Alphabet is the set tokens are drawn from.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// bytes >= rejectAbove would bias the modulo.
	rejectAbove = 256 - 256%len(Alphabet)
)

// Generator produces anonymous IDs.
type Generator interface {
	Generate(ctx context.Context) (string, error)
}

// Random draws tokens uniformly from Alphabet. It holds no state.
type Random struct{}

// New returns a fresh token.
func (Random) New() string {
	out := make([]byte, 0, Length)
	buf := make([]byte, Length*2)
	for len(out) < Length {
		if _, err := rand.Read(buf); err != nil {
			panic(fmt.Sprintf("anonid: crypto/rand failed: %v", err))
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == Length {
				break
			}
		}
	}
	return string(out)
}

// Generate implements Generator.
func (r Random) Generate(context.Context) (string, error) {
	return r.New(), nil
}

// Valid reports whether s has the shape of a token.
func Valid(s string) bool {
	if len(s) != Length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// InUseFunc reports whether a token is already attached to a pending message.
type InUseFunc func(ctx context.Context, anonID string) (bool, error)

// ErrExhausted is returned when Unique could not find a free token.
var ErrExhausted = errors.New("anonid: no free token after max attempts")

// Unique wraps a generator and retries while the candidate is in use.
type Unique struct {
	Source      Generator
	InUse       InUseFunc
	MaxAttempts int
}

// NewUnique returns a Unique generator over Random with 5 attempts.
func NewUnique(inUse InUseFunc) *Unique {
	return &Unique{Source: Random{}, InUse: inUse, MaxAttempts: 5}
}

// Generate implements Generator.
func (u *Unique) Generate(ctx context.Context) (string, error) {
	attempts := u.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		id, err := u.Source.Generate(ctx)
		if err != nil {
			return "", err
		}
		taken, err := u.InUse(ctx, id)
		if err != nil {
			return "", fmt.Errorf("checking anon id %s: %w", id, err)
		}
		if !taken {
			return id, nil
		}
	}
	return "", ErrExhausted
}
