package testutil

import "fmt"

// SequentialIDGenerator hands out "<prefix>-0001", "<prefix>-0002", ...
//
// Evaluation ids show up in golden files, so tests need them to be
// predictable. Not safe for concurrent use.
type SequentialIDGenerator struct {
	prefix string
	n      int
}

// NewSequentialIDGenerator creates a generator. An empty prefix becomes
// "eval".
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "eval"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate implements engine.IDGenerator.
func (g *SequentialIDGenerator) Generate() string {
	g.n++
	return fmt.Sprintf("%s-%04d", g.prefix, g.n)
}
