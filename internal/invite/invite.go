// Package invite generates household invite codes.
package invite

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strings"
)

// Alphabet excludes the confusable 0/O and 1/I.
const Alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Length of a generated code.
const Length = 8

// ErrExhausted is returned when no free code turned up within MaxAttempts.
var ErrExhausted = errors.New("could not find an unused invite code")

type Generator struct {
	Alphabet    string
	Length      int
	Rand        io.Reader
	MaxAttempts int
}

// NewGenerator returns a generator using the production alphabet and crypto/rand.
func NewGenerator() *Generator {
	return &Generator{
		Alphabet:    Alphabet,
		Length:      Length,
		Rand:        rand.Reader,
		MaxAttempts: 100,
	}
}

// Code returns one code with each character drawn uniformly from the alphabet.
func (g *Generator) Code() (string, error) {
	size := big.NewInt(int64(len(g.Alphabet)))
	var b strings.Builder
	b.Grow(g.Length)
	for i := 0; i < g.Length; i++ {
		n, err := rand.Int(g.Rand, size)
		if err != nil {
			return "", fmt.Errorf("generate invite code: %w", err)
		}
		b.WriteByte(g.Alphabet[n.Int64()])
	}
	return b.String(), nil
}

// Unique draws codes until exists reports one as unused.
func (g *Generator) Unique(exists func(code string) (bool, error)) (string, error) {
	for attempt := 0; attempt < g.MaxAttempts; attempt++ {
		code, err := g.Code()
		if err != nil {
			return "", err
		}
		taken, err := exists(code)
		if err != nil {
			return "", fmt.Errorf("check invite code: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrExhausted
}

// Normalize canonicalizes user input before lookup.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
