package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzers(t *testing.T) {
	names := map[string]bool{}
	for _, a := range analyzers() {
		assert.False(t, names[a.Name], "duplicate analyzer %s", a.Name)
		names[a.Name] = true
	}

	for _, want := range []string{"shadow", "printf", "SA1000", "S1000", "U1000", "bodyclose", "noexit"} {
		assert.True(t, names[want], want)
	}
}
