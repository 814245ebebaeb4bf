package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/yourusername/form-signals/internal/database"
	"github.com/yourusername/form-signals/internal/models"
)

const matchSummarySelect = `
	SELECT m.id, m.league_id, l.name, l.country, m.season, m.round,
	       m.home_team_id, ht.name, hs.rank,
	       m.away_team_id, awt.name, aws.rank,
	       m.home_score, m.away_score, m.minute, m.red_cards_home, m.red_cards_away,
	       m.status, m.match_date, m.updated_at
	FROM matches m
	JOIN leagues l ON l.id = m.league_id
	JOIN teams ht ON ht.id = m.home_team_id
	JOIN teams awt ON awt.id = m.away_team_id
	LEFT JOIN team_standings hs
	       ON hs.team_id = m.home_team_id AND hs.league_id = m.league_id AND hs.season = m.season
	LEFT JOIN team_standings aws
	       ON aws.team_id = m.away_team_id AND aws.league_id = m.league_id AND aws.season = m.season
`

// PostgresMatchRepository implements MatchRepository for PostgreSQL
type PostgresMatchRepository struct {
	db *database.DB
}

// NewPostgresMatchRepository creates a new match repository
func NewPostgresMatchRepository(db *database.DB) MatchRepository {
	return &PostgresMatchRepository{db: db}
}

// Upsert writes the league, both teams, their standings and the match
func (r *PostgresMatchRepository) Upsert(ctx context.Context, match *models.MatchSummary) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO leagues (id, name, country) VALUES ($1, $2, $3)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, country = EXCLUDED.country
		`, match.LeagueID, match.LeagueName, match.Country); err != nil {
			return fmt.Errorf("failed to upsert league: %w", err)
		}

		for _, team := range []models.Team{match.Home, match.Away} {
			if _, err := tx.Exec(ctx, `
				INSERT INTO teams (id, name, league_id) VALUES ($1, $2, $3)
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, league_id = EXCLUDED.league_id
			`, team.ID, team.Name, match.LeagueID); err != nil {
				return fmt.Errorf("failed to upsert team %d: %w", team.ID, err)
			}

			if team.Rank == nil || match.Season == nil {
				continue
			}
			if _, err := tx.Exec(ctx, `
				INSERT INTO team_standings (team_id, league_id, season, rank, updated_at)
				VALUES ($1, $2, $3, $4, NOW())
				ON CONFLICT (team_id, league_id, season)
				DO UPDATE SET rank = EXCLUDED.rank, updated_at = NOW()
			`, team.ID, match.LeagueID, *match.Season, *team.Rank); err != nil {
				return fmt.Errorf("failed to upsert standing for team %d: %w", team.ID, err)
			}
		}

		if _, err := tx.Exec(ctx, `
			INSERT INTO matches (id, league_id, season, round, home_team_id, away_team_id,
			                     home_score, away_score, minute, red_cards_home, red_cards_away,
			                     status, match_date, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
			ON CONFLICT (id) DO UPDATE SET
				season = EXCLUDED.season,
				round = EXCLUDED.round,
				home_score = EXCLUDED.home_score,
				away_score = EXCLUDED.away_score,
				minute = EXCLUDED.minute,
				red_cards_home = EXCLUDED.red_cards_home,
				red_cards_away = EXCLUDED.red_cards_away,
				status = EXCLUDED.status,
				match_date = EXCLUDED.match_date,
				updated_at = NOW()
		`,
			match.ID, match.LeagueID, match.Season, match.Round, match.Home.ID, match.Away.ID,
			match.HomeScore, match.AwayScore, match.Minute, match.RedCardsHome, match.RedCardsAway,
			string(match.Status), match.MatchDate,
		); err != nil {
			return fmt.Errorf("failed to upsert match %d: %w", match.ID, err)
		}

		return nil
	})
}

// GetByID retrieves a match by ID
func (r *PostgresMatchRepository) GetByID(ctx context.Context, id int64) (*models.MatchSummary, error) {
	row := r.db.GetPool().QueryRow(ctx, matchSummarySelect+` WHERE m.id = $1`, id)

	match, err := scanMatchSummary(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}

	return match, nil
}

// GetScheduled retrieves scheduled matches kicking off within [from, to]
func (r *PostgresMatchRepository) GetScheduled(ctx context.Context, from, to time.Time) ([]*models.MatchSummary, error) {
	query := matchSummarySelect + `
		WHERE m.status = 'scheduled' AND m.match_date >= $1 AND m.match_date <= $2
		ORDER BY m.match_date ASC, m.id ASC
	`
	return r.queryMatches(ctx, query, from, to)
}

// GetLive retrieves live matches updated since the given time
func (r *PostgresMatchRepository) GetLive(ctx context.Context, updatedSince time.Time) ([]*models.MatchSummary, error) {
	query := matchSummarySelect + `
		WHERE m.status = 'live' AND m.updated_at >= $1
		ORDER BY m.match_date ASC, m.id ASC
	`
	return r.queryMatches(ctx, query, updatedSince)
}

// GetRecentFinished retrieves a team's latest finished matches before a time
func (r *PostgresMatchRepository) GetRecentFinished(ctx context.Context, teamID int64, before time.Time, limit int) ([]models.MatchRecord, error) {
	query := `
		SELECT id, home_team_id, away_team_id, home_score, away_score, status, match_date
		FROM matches
		WHERE (home_team_id = $1 OR away_team_id = $1)
		  AND status = 'finished'
		  AND match_date < $2
		ORDER BY match_date DESC
		LIMIT $3
	`

	rows, err := r.db.GetPool().Query(ctx, query, teamID, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query team history: %w", err)
	}
	defer rows.Close()

	var records []models.MatchRecord
	for rows.Next() {
		var rec models.MatchRecord
		var status string
		if err := rows.Scan(
			&rec.ID, &rec.HomeTeamID, &rec.AwayTeamID, &rec.HomeScore, &rec.AwayScore, &status, &rec.MatchDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match record: %w", err)
		}
		rec.Status = models.MatchStatus(status)
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (r *PostgresMatchRepository) queryMatches(ctx context.Context, query string, args ...any) ([]*models.MatchSummary, error) {
	rows, err := r.db.GetPool().Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	var matches []*models.MatchSummary
	for rows.Next() {
		match, err := scanMatchSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, match)
	}

	return matches, rows.Err()
}

func scanMatchSummary(row pgx.Row) (*models.MatchSummary, error) {
	m := &models.MatchSummary{}
	var status string
	err := row.Scan(
		&m.ID, &m.LeagueID, &m.LeagueName, &m.Country, &m.Season, &m.Round,
		&m.Home.ID, &m.Home.Name, &m.Home.Rank,
		&m.Away.ID, &m.Away.Name, &m.Away.Rank,
		&m.HomeScore, &m.AwayScore, &m.Minute, &m.RedCardsHome, &m.RedCardsAway,
		&status, &m.MatchDate, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	m.Status = models.MatchStatus(status)
	return m, nil
}
