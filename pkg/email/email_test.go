package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "marie@example.com", Normalize("  Marie@Example.COM "))
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid("a@b.co"))
	assert.False(t, IsValid("not-an-email"))
	assert.False(t, IsValid("a b@c.co"))
	assert.False(t, IsValid("a@b"))
}

func TestDeriveName(t *testing.T) {
	tests := []struct {
		address     string
		first, last string
	}{
		{"marie.dupont@example.com", "Marie", "Dupont"},
		{"jean_kouassi@example.com", "Jean", "Kouassi"},
		{"paul@example.com", "Paul", ""},
		{"...@example.com", "Membre", ""},
	}
	for _, tt := range tests {
		first, last := DeriveName(tt.address)
		assert.Equal(t, tt.first, first, tt.address)
		assert.Equal(t, tt.last, last, tt.address)
	}
}
