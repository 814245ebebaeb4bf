package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryRepositories(t *testing.T) {
	repos := NewMemoryRepositories()
	runRepositoryContract(t, repos.Match, repos.Opportunity)
}

func TestWinRate(t *testing.T) {
	tests := []struct {
		name     string
		wins     int
		losses   int
		expected float64
	}{
		{"nothing resolved", 0, 0, 0},
		{"all wins", 4, 0, 100},
		{"two thirds", 2, 1, 66.7},
		{"one third", 1, 2, 33.3},
		{"one in eight", 1, 7, 12.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, winRate(tt.wins, tt.losses))
		})
	}
}
