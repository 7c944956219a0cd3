package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"courtside-live/models"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepository interface {
	CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error
	Update(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, id string) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID string) ([]*models.Match, error)
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) error

	CreateEdges(ctx context.Context, exec SQLExecutor, edges []models.BracketEdge) error
	ListEdgesByTournament(ctx context.Context, tournamentID string) ([]models.BracketEdge, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tournament_id, round, round_label, order_in_round, bracket,
	slot1_team_id, slot2_team_id, score, status, winner_id, court_id, scheduled_at, ends, bye`

func (r *postgresMatchRepository) CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches (` + matchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	for _, m := range matches {
		score, ends, err := marshalMatchJSON(m)
		if err != nil {
			return err
		}
		_, err = executor.ExecContext(ctx, query,
			m.ID, m.TournamentID, m.Round, m.RoundLabel, m.OrderInRound, m.Bracket,
			m.Slot1TeamID, m.Slot2TeamID, score, m.Status, m.WinnerID, m.CourtID,
			m.ScheduledAt, ends, m.Bye,
		)
		if err != nil {
			return fmt.Errorf("failed to insert match %s: %w", m.ID, err)
		}
	}
	return nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	executor := r.getExecutor(exec)
	score, ends, err := marshalMatchJSON(m)
	if err != nil {
		return err
	}
	query := `
		UPDATE matches SET
			slot1_team_id = $1, slot2_team_id = $2, score = $3, status = $4,
			winner_id = $5, court_id = $6, scheduled_at = $7, ends = $8, bye = $9
		WHERE id = $10`
	result, err := executor.ExecContext(ctx, query,
		m.Slot1TeamID, m.Slot2TeamID, score, m.Status,
		m.WinnerID, m.CourtID, m.ScheduledAt, ends, m.Bye, m.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	m, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return m, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID string) ([]*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1
		ORDER BY bracket, round, order_in_round`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *postgresMatchRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID string) error {
	executor := r.getExecutor(exec)
	if _, err := executor.ExecContext(ctx,
		`DELETE FROM bracket_edges e USING matches m
		 WHERE e.from_match_id = m.id AND m.tournament_id = $1`, tournamentID); err != nil {
		return err
	}
	_, err := executor.ExecContext(ctx, `DELETE FROM matches WHERE tournament_id = $1`, tournamentID)
	return err
}

func (r *postgresMatchRepository) CreateEdges(ctx context.Context, exec SQLExecutor, edges []models.BracketEdge) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO bracket_edges (id, from_match_id, outcome, to_match_id, to_slot)
		VALUES ($1, $2, $3, $4, $5)`
	for _, e := range edges {
		if _, err := executor.ExecContext(ctx, query, e.ID, e.FromMatchID, e.Outcome, e.ToMatchID, e.ToSlot); err != nil {
			return fmt.Errorf("failed to insert bracket edge %s: %w", e.ID, err)
		}
	}
	return nil
}

func (r *postgresMatchRepository) ListEdgesByTournament(ctx context.Context, tournamentID string) ([]models.BracketEdge, error) {
	query := `
		SELECT e.id, e.from_match_id, e.outcome, e.to_match_id, e.to_slot
		FROM bracket_edges e
		JOIN matches m ON m.id = e.from_match_id
		WHERE m.tournament_id = $1
		ORDER BY e.id`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.BracketEdge
	for rows.Next() {
		var e models.BracketEdge
		if err := rows.Scan(&e.ID, &e.FromMatchID, &e.Outcome, &e.ToMatchID, &e.ToSlot); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(row rowScanner) (*models.Match, error) {
	m := &models.Match{}
	var score, ends []byte
	err := row.Scan(
		&m.ID, &m.TournamentID, &m.Round, &m.RoundLabel, &m.OrderInRound, &m.Bracket,
		&m.Slot1TeamID, &m.Slot2TeamID, &score, &m.Status, &m.WinnerID, &m.CourtID,
		&m.ScheduledAt, &ends, &m.Bye,
	)
	if err != nil {
		return nil, err
	}
	if len(score) > 0 {
		m.Score = &models.Score{}
		if err := json.Unmarshal(score, m.Score); err != nil {
			return nil, fmt.Errorf("failed to decode score for match %s: %w", m.ID, err)
		}
	}
	if len(ends) > 0 {
		if err := json.Unmarshal(ends, &m.Ends); err != nil {
			return nil, fmt.Errorf("failed to decode ends for match %s: %w", m.ID, err)
		}
	}
	return m, nil
}

func marshalMatchJSON(m *models.Match) (score, ends []byte, err error) {
	if m.Score != nil {
		if score, err = json.Marshal(m.Score); err != nil {
			return nil, nil, fmt.Errorf("failed to encode score for match %s: %w", m.ID, err)
		}
	}
	if len(m.Ends) > 0 {
		if ends, err = json.Marshal(m.Ends); err != nil {
			return nil, nil, fmt.Errorf("failed to encode ends for match %s: %w", m.ID, err)
		}
	}
	return score, ends, nil
}
