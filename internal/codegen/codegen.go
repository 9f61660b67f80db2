// Package codegen produces redemption code tokens.
package codegen

import "math/rand/v2"

const (
	DefaultAlphabet    = "abcdefghijklmnopqrstuvwxyz0123456789"
	DefaultLength      = 12
	DefaultMaxAttempts = 10
)

// Source yields uniform integers in [0, n).
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Generator builds random tokens and retries on collision.
type Generator struct {
	Alphabet    string
	Length      int
	MaxAttempts int
	src         Source
}

// New returns a Generator with the default alphabet, length and retry bound.
// A nil src uses the math/rand/v2 global generator.
func New(src Source) *Generator {
	if src == nil {
		src = globalSource{}
	}
	return &Generator{
		Alphabet:    DefaultAlphabet,
		Length:      DefaultLength,
		MaxAttempts: DefaultMaxAttempts,
		src:         src,
	}
}

// Token returns one candidate token.
func (g *Generator) Token() string {
	b := make([]byte, g.Length)
	for i := range b {
		b[i] = g.Alphabet[g.src.IntN(len(g.Alphabet))]
	}
	return string(b)
}

// Unique draws candidates until taken reports false or MaxAttempts is
// reached. The last candidate is returned either way, so uniqueness is
// best-effort.
func (g *Generator) Unique(taken func(string) bool) string {
	attempts := g.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var code string
	for i := 0; i < attempts; i++ {
		code = g.Token()
		if !taken(code) {
			break
		}
	}
	return code
}
