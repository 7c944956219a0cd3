package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"courtside-live/brackets"
	"courtside-live/models"
	"courtside-live/repositories"
	"courtside-live/stream"
)

// ProgressionService is the only writer of match state. Every operation
// runs under the tournament's live-bracket mutex: validation, mutation,
// cascade, persistence and event publication all commit before the next
// mutation of the same tournament can begin. Fan-out is non-blocking, so a
// slow subscriber never extends the critical section.
type ProgressionService interface {
	SubmitResult(ctx context.Context, matchID string, score models.Score, ends []models.End) (*models.Match, error)
	StartMatch(ctx context.Context, matchID string, courtID *string) (*models.Match, error)
	CancelMatch(ctx context.Context, matchID string, reason string) (*models.Match, error)
}

type progressionService struct {
	db             *sql.DB
	registry       *Registry
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	courtRepo      repositories.CourtRepository
	hub            *stream.Hub
	logger         *slog.Logger
}

func NewProgressionService(
	db *sql.DB,
	registry *Registry,
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	courtRepo repositories.CourtRepository,
	hub *stream.Hub,
	logger *slog.Logger,
) ProgressionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &progressionService{
		db:             db,
		registry:       registry,
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		courtRepo:      courtRepo,
		hub:            hub,
		logger:         logger,
	}
}

func (s *progressionService) SubmitResult(ctx context.Context, matchID string, score models.Score, ends []models.End) (*models.Match, error) {
	lb, m, release, err := s.acquireMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	defer release()

	if m.Terminal() {
		return nil, fmt.Errorf("%w: match %s is already %s", ErrInvalidStateTransition, m.ID, m.Status)
	}
	if !m.Ready() {
		return nil, fmt.Errorf("%w: match %s", ErrMatchNotReady, m.ID)
	}
	if score.Slot1 < 0 || score.Slot2 < 0 {
		return nil, fmt.Errorf("%w: negative score totals", ErrValidation)
	}
	if score.Slot1 == score.Slot2 && score.Slot1 >= models.GamePoint {
		return nil, fmt.Errorf("%w: draws are not allowed", ErrInvalidScore)
	}
	for i := 1; i < len(ends); i++ {
		if ends[i].Number <= ends[i-1].Number {
			return nil, fmt.Errorf("%w: ends must be in strictly increasing order", ErrValidation)
		}
	}

	m.Score = &score
	if ends != nil {
		m.Ends = ends
	}

	if !score.Final() {
		m.Status = models.MatchStatusActive
		if err := s.matchRepo.Update(ctx, nil, m); err != nil {
			s.discard(lb)
			return nil, fmt.Errorf("failed to persist match %s: %w", m.ID, err)
		}
		s.publishMatchUpdate(lb, m, "")
		return snapshot(m), nil
	}

	m.Status = models.MatchStatusCompleted
	if score.Slot1 > score.Slot2 {
		m.WinnerID = m.Slot1TeamID
	} else {
		m.WinnerID = m.Slot2TeamID
	}

	cascaded := lb.index.Resolve(m.ID)
	created, completed, winnerID, err := s.advanceTournament(lb)
	if err != nil {
		s.discard(lb)
		return nil, err
	}

	if err := s.persistProgress(ctx, lb, m, cascaded, created, completed, winnerID); err != nil {
		s.discard(lb)
		return nil, err
	}
	if completed {
		lb.tournament.Status = models.TournamentStatusCompleted
		lb.tournament.WinnerID = winnerID
	}

	bracketStream := stream.BracketStreamID(lb.tournament.ID)
	s.hub.Publish(stream.Event{
		Name:     stream.EventMatchComplete,
		StreamID: bracketStream,
		Payload:  stream.MatchPayload{Match: snapshot(m)},
	})
	if m.CourtID != nil {
		s.hub.Publish(stream.Event{
			Name:     stream.EventCourtUpdate,
			StreamID: stream.CourtStreamID(*m.CourtID),
			Payload:  stream.CourtUpdatePayload{CourtID: *m.CourtID, Match: snapshot(m)},
		})
	}

	affected := make([]*models.Match, 0, 1+len(cascaded)+len(created))
	affected = append(affected, snapshot(m))
	for _, c := range cascaded {
		affected = append(affected, snapshot(c))
	}
	for _, c := range created {
		affected = append(affected, snapshot(c))
	}
	s.hub.Publish(stream.Event{
		Name:     stream.EventBracketUpdate,
		StreamID: bracketStream,
		Payload:  stream.BracketUpdatePayload{TournamentID: lb.tournament.ID, Matches: affected},
	})

	if completed {
		s.publishTournamentCompleted(lb, winnerID)
	}

	return snapshot(m), nil
}

func (s *progressionService) publishTournamentCompleted(lb *liveBracket, winnerID *string) {
	s.hub.Publish(stream.Event{
		Name:     stream.EventTournamentUpdate,
		StreamID: stream.TournamentStreamID(lb.tournament.ID),
		Payload: stream.TournamentUpdatePayload{
			TournamentID: lb.tournament.ID,
			Status:       models.TournamentStatusCompleted,
			WinnerID:     winnerID,
			Winner:       lb.team(winnerID),
			Message:      "tournament completed",
		},
	})
	s.logger.Info("tournament completed",
		slog.String("tournament_id", lb.tournament.ID),
		slog.Any("winner_id", winnerID))
}

func (s *progressionService) StartMatch(ctx context.Context, matchID string, courtID *string) (*models.Match, error) {
	lb, m, release, err := s.acquireMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	defer release()

	if m.Status != models.MatchStatusScheduled {
		return nil, fmt.Errorf("%w: match %s is %s, only scheduled matches can start", ErrInvalidStateTransition, m.ID, m.Status)
	}
	if !m.Ready() {
		return nil, fmt.Errorf("%w: match %s", ErrMatchNotReady, m.ID)
	}
	if courtID != nil {
		if _, err := s.courtRepo.GetByID(ctx, *courtID); err != nil {
			if errors.Is(err, repositories.ErrCourtNotFound) {
				return nil, ErrCourtNotFound
			}
			return nil, fmt.Errorf("failed to resolve court %s: %w", *courtID, err)
		}
		m.CourtID = courtID
	}

	m.Status = models.MatchStatusActive
	if err := s.matchRepo.Update(ctx, nil, m); err != nil {
		s.discard(lb)
		return nil, fmt.Errorf("failed to persist match %s: %w", m.ID, err)
	}

	s.hub.Publish(stream.Event{
		Name:     stream.EventMatchStart,
		StreamID: stream.BracketStreamID(lb.tournament.ID),
		Payload:  stream.MatchPayload{Match: snapshot(m)},
	})
	if m.CourtID != nil {
		s.hub.Publish(stream.Event{
			Name:     stream.EventCourtUpdate,
			StreamID: stream.CourtStreamID(*m.CourtID),
			Payload:  stream.CourtUpdatePayload{CourtID: *m.CourtID, Match: snapshot(m)},
		})
	}
	return snapshot(m), nil
}

func (s *progressionService) CancelMatch(ctx context.Context, matchID string, reason string) (*models.Match, error) {
	lb, m, release, err := s.acquireMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	defer release()

	if m.Terminal() {
		return nil, fmt.Errorf("%w: match %s is already %s", ErrInvalidStateTransition, m.ID, m.Status)
	}

	// Downstream edges stay unresolved: cancellation never advances anyone.
	// The format follow-up still runs, so a round that just went fully
	// terminal can pair the next one or settle the tournament on standings.
	m.Status = models.MatchStatusCancelled
	created, completed, winnerID, err := s.advanceTournament(lb)
	if err != nil {
		s.discard(lb)
		return nil, err
	}

	if err := s.persistProgress(ctx, lb, m, nil, created, completed, winnerID); err != nil {
		s.discard(lb)
		return nil, err
	}
	if completed {
		lb.tournament.Status = models.TournamentStatusCompleted
		lb.tournament.WinnerID = winnerID
	}

	s.publishMatchUpdate(lb, m, reason)

	if len(created) > 0 || completed {
		affected := make([]*models.Match, 0, 1+len(created))
		affected = append(affected, snapshot(m))
		for _, c := range created {
			affected = append(affected, snapshot(c))
		}
		s.hub.Publish(stream.Event{
			Name:     stream.EventBracketUpdate,
			StreamID: stream.BracketStreamID(lb.tournament.ID),
			Payload:  stream.BracketUpdatePayload{TournamentID: lb.tournament.ID, Matches: affected},
		})
	}
	if completed {
		s.publishTournamentCompleted(lb, winnerID)
	}
	return snapshot(m), nil
}

// persistProgress writes one progression step in a single transaction: the
// mutated match, any cascaded slot fills, newly generated matches and the
// tournament's completion.
func (s *progressionService) persistProgress(
	ctx context.Context,
	lb *liveBracket,
	m *models.Match,
	cascaded, created []*models.Match,
	completed bool,
	winnerID *string,
) error {
	return runInTx(ctx, s.db, func(exec repositories.SQLExecutor) error {
		if err := s.matchRepo.Update(ctx, exec, m); err != nil {
			return fmt.Errorf("failed to persist match %s: %w", m.ID, err)
		}
		for _, c := range cascaded {
			if err := s.matchRepo.Update(ctx, exec, c); err != nil {
				return fmt.Errorf("failed to persist cascaded match %s: %w", c.ID, err)
			}
		}
		if len(created) > 0 {
			if err := s.matchRepo.CreateBatch(ctx, exec, created); err != nil {
				return fmt.Errorf("failed to persist generated matches: %w", err)
			}
		}
		if completed {
			if err := s.tournamentRepo.UpdateStatus(ctx, exec, lb.tournament.ID, models.TournamentStatusCompleted); err != nil {
				return fmt.Errorf("failed to complete tournament %s: %w", lb.tournament.ID, err)
			}
			if err := s.tournamentRepo.UpdateWinner(ctx, exec, lb.tournament.ID, winnerID); err != nil {
				return fmt.Errorf("failed to record tournament winner: %w", err)
			}
		}
		return nil
	})
}

// discard retires a live bracket whose in-memory state may have diverged
// from the database after a failed persist. The caller holds the bracket
// mutex; the next Acquire reloads from the system of record.
func (s *progressionService) discard(lb *liveBracket) {
	lb.stale = true
	s.registry.Evict(lb.tournament.ID)
}

// acquireMatch resolves the match's tournament, locks its live bracket and
// returns the in-graph match.
func (s *progressionService) acquireMatch(ctx context.Context, matchID string) (*liveBracket, *models.Match, func(), error) {
	rec, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, nil, nil, ErrMatchNotFound
		}
		return nil, nil, nil, fmt.Errorf("failed to resolve match %s: %w", matchID, err)
	}

	lb, release, err := s.registry.Acquire(ctx, rec.TournamentID)
	if err != nil {
		return nil, nil, nil, err
	}
	m := lb.index.Match(matchID)
	if m == nil {
		release()
		return nil, nil, nil, ErrMatchNotFound
	}
	return lb, m, release, nil
}

func (s *progressionService) publishMatchUpdate(lb *liveBracket, m *models.Match, reason string) {
	s.hub.Publish(stream.Event{
		Name:     stream.EventMatchUpdate,
		StreamID: stream.BracketStreamID(lb.tournament.ID),
		Payload:  stream.MatchPayload{Match: snapshot(m), Reason: reason},
	})
	if m.CourtID != nil {
		s.hub.Publish(stream.Event{
			Name:     stream.EventCourtUpdate,
			StreamID: stream.CourtStreamID(*m.CourtID),
			Payload:  stream.CourtUpdatePayload{CourtID: *m.CourtID, Match: snapshot(m)},
		})
	}
}

// advanceTournament runs the format-specific follow-up of a completion:
// swiss rounds are paired on demand, the double-elimination reset match is
// created the moment the loser-bracket champion takes the first grand
// final, and a finished tournament yields its winner.
func (s *progressionService) advanceTournament(lb *liveBracket) (created []*models.Match, completed bool, winnerID *string, err error) {
	switch lb.tournament.Format {
	case models.FormatSwiss:
		all := lb.index.Matches()
		for _, m := range all {
			if !m.Terminal() {
				return nil, false, nil, nil
			}
		}
		next, err := brackets.NextSwissRound(lb.tournament.ID, lb.teamList, all, lb.maxRound()+1)
		if err != nil {
			return nil, false, nil, err
		}
		if len(next) > 0 {
			for _, m := range next {
				lb.index.Add(m)
			}
			return next, false, nil, nil
		}
		return nil, true, lb.standingsWinner(), nil

	case models.FormatRoundRobin:
		for _, m := range lb.index.Matches() {
			if !m.Terminal() {
				return nil, false, nil, nil
			}
		}
		return nil, true, lb.standingsWinner(), nil

	case models.FormatDoubleElimination:
		final := lb.finalMatch()
		if final == nil || !final.Terminal() {
			return nil, false, nil, nil
		}
		if final.Status == models.MatchStatusCancelled {
			// The deciding match will never be replayed; standings settle it.
			return nil, true, lb.standingsWinner(), nil
		}
		if final.RoundLabel == brackets.GrandFinalLabel &&
			final.WinnerID != nil && final.Slot2TeamID != nil && *final.WinnerID == *final.Slot2TeamID {
			// One defeat each: the bracket resets for a last match.
			reset := brackets.GrandFinalReset(lb.tournament.ID, final)
			lb.index.Add(reset)
			return []*models.Match{reset}, false, nil, nil
		}
		return nil, true, final.WinnerID, nil

	default:
		final := lb.finalMatch()
		if final == nil || !final.Terminal() {
			return nil, false, nil, nil
		}
		if final.Status == models.MatchStatusCancelled {
			return nil, true, lb.standingsWinner(), nil
		}
		return nil, true, final.WinnerID, nil
	}
}

// standingsWinner ranks completed wins, ties broken by seed.
func (lb *liveBracket) standingsWinner() *string {
	wins := make(map[string]int, len(lb.teamList))
	for _, m := range lb.index.Matches() {
		if m.Status == models.MatchStatusCompleted && m.WinnerID != nil {
			wins[*m.WinnerID]++
		}
	}
	ranked := make([]*models.Team, len(lb.teamList))
	copy(ranked, lb.teamList)
	sort.SliceStable(ranked, func(i, j int) bool {
		if wins[ranked[i].ID] != wins[ranked[j].ID] {
			return wins[ranked[i].ID] > wins[ranked[j].ID]
		}
		return ranked[i].Seed < ranked[j].Seed
	})
	if len(ranked) == 0 {
		return nil
	}
	return &ranked[0].ID
}

func snapshot(m *models.Match) *models.Match {
	c := *m
	return &c
}
