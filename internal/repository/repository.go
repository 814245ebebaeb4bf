package repository

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yourusername/form-signals/internal/database"
	"github.com/yourusername/form-signals/internal/models"
)

// Repositories holds all repository implementations
type Repositories struct {
	Match       MatchRepository
	Opportunity OpportunityRepository
}

// NewRepositories creates and returns all repository implementations
func NewRepositories(db *database.DB) (*Repositories, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	return &Repositories{
		Match:       NewPostgresMatchRepository(db),
		Opportunity: NewPostgresOpportunityRepository(db),
	}, nil
}

// NewMemoryRepositories returns repositories backed by process memory.
func NewMemoryRepositories() *Repositories {
	matches := NewMemoryMatchRepository()
	return &Repositories{
		Match:       matches,
		Opportunity: NewMemoryOpportunityRepository(matches),
	}
}

// winRate returns wins over resolved opportunities as a percentage with
// one decimal place, or 0 when nothing is resolved.
func winRate(wins, losses int) float64 {
	resolved := wins + losses
	if resolved == 0 {
		return 0
	}
	return decimal.NewFromInt(int64(wins)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(resolved))).
		Round(1).
		InexactFloat64()
}

func newStatistics(wins, losses, pending int) *models.Statistics {
	return &models.Statistics{
		Total:   wins + losses,
		Wins:    wins,
		Losses:  losses,
		WinRate: winRate(wins, losses),
		Pending: pending,
	}
}
