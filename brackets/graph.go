package brackets

import "courtside-live/models"

// Index is a lookup view over one tournament's match graph. It owns the
// advancement mechanics shared by generation (bye normalization) and live
// progression (cascading a completed match through its edges).
type Index struct {
	byID     map[string]*models.Match
	outgoing map[string][]models.BracketEdge
	incoming map[string]map[int]models.BracketEdge
	order    []string
}

func NewIndex(matches []*models.Match, edges []models.BracketEdge) *Index {
	ix := &Index{
		byID:     make(map[string]*models.Match, len(matches)),
		outgoing: make(map[string][]models.BracketEdge),
		incoming: make(map[string]map[int]models.BracketEdge),
	}
	for _, m := range matches {
		ix.Add(m)
	}
	for _, e := range edges {
		ix.AddEdge(e)
	}
	return ix
}

func (ix *Index) Add(m *models.Match) {
	if _, ok := ix.byID[m.ID]; !ok {
		ix.order = append(ix.order, m.ID)
	}
	ix.byID[m.ID] = m
}

func (ix *Index) AddEdge(e models.BracketEdge) {
	ix.outgoing[e.FromMatchID] = append(ix.outgoing[e.FromMatchID], e)
	if ix.incoming[e.ToMatchID] == nil {
		ix.incoming[e.ToMatchID] = make(map[int]models.BracketEdge)
	}
	ix.incoming[e.ToMatchID][e.ToSlot] = e
}

func (ix *Index) Match(id string) *models.Match {
	return ix.byID[id]
}

// Matches returns every match in insertion order.
func (ix *Index) Matches() []*models.Match {
	out := make([]*models.Match, 0, len(ix.order))
	for _, id := range ix.order {
		out = append(out, ix.byID[id])
	}
	return out
}

func (ix *Index) Outgoing(id string) []models.BracketEdge {
	return ix.outgoing[id]
}

func (ix *Index) Incoming(id string, slot int) (models.BracketEdge, bool) {
	e, ok := ix.incoming[id][slot]
	return e, ok
}

func outcomeTeam(m *models.Match, outcome models.EdgeOutcome) *string {
	if m.Status != models.MatchStatusCompleted {
		return nil
	}
	if outcome == models.OutcomeWinner {
		return m.WinnerID
	}
	return m.LoserID()
}

// SlotVoid reports whether an empty slot can never be filled: it has no
// seeded team and either no incoming edge, or an incoming edge whose source
// can no longer produce the required outcome (a bye has no loser, a
// structurally cancelled bye has no winner either). A runtime cancellation
// of a real match does not void its downstream slots; those simply stay
// unresolved.
func (ix *Index) SlotVoid(m *models.Match, slot int) bool {
	if m.SlotTeam(slot) != nil {
		return false
	}
	edge, ok := ix.Incoming(m.ID, slot)
	if !ok {
		return true
	}
	src := ix.byID[edge.FromMatchID]
	if src == nil {
		return true
	}
	if src.Status == models.MatchStatusCompleted && outcomeTeam(src, edge.Outcome) == nil {
		return true
	}
	if src.Status == models.MatchStatusCancelled && src.Bye {
		return true
	}
	return false
}

// Resolve routes the outcomes of a terminal match into its destination
// slots and iterates over any advancement that triggers in turn: a slot
// fill that leaves the destination facing a void opponent auto-completes
// the destination as a bye. The worklist is bounded by the depth of the
// acyclic graph. Returns every match mutated, excluding the starting one.
func (ix *Index) Resolve(matchID string) []*models.Match {
	changed := make(map[string]*models.Match)
	work := []string{matchID}

	for len(work) > 0 {
		id := work[0]
		work = work[1:]
		src := ix.byID[id]
		if src == nil {
			continue
		}
		for _, edge := range ix.outgoing[id] {
			team := outcomeTeam(src, edge.Outcome)
			if team == nil {
				continue
			}
			dest := ix.byID[edge.ToMatchID]
			if dest == nil || dest.Terminal() || dest.SlotTeam(edge.ToSlot) != nil {
				continue
			}
			if edge.ToSlot == 1 {
				dest.Slot1TeamID = team
			} else {
				dest.Slot2TeamID = team
			}
			changed[dest.ID] = dest

			if !dest.Ready() {
				other := 3 - edge.ToSlot
				if ix.SlotVoid(dest, other) {
					dest.Bye = true
					dest.Status = models.MatchStatusCompleted
					dest.WinnerID = team
					work = append(work, dest.ID)
				}
			}
		}
	}

	out := make([]*models.Match, 0, len(changed))
	for _, id := range ix.order {
		if m, ok := changed[id]; ok {
			out = append(out, m)
		}
	}
	return out
}

// Normalize runs the generation-time bye pass: matches left with a single
// seeded team against a void slot complete immediately, matches with two
// void slots are cancelled outright, and every consequence cascades until
// the graph is stable.
func (ix *Index) Normalize() {
	for {
		settled := true
		for _, id := range ix.order {
			m := ix.byID[id]
			if m.Status != models.MatchStatusScheduled || m.Ready() {
				continue
			}
			v1 := ix.SlotVoid(m, 1)
			v2 := ix.SlotVoid(m, 2)
			switch {
			case m.Slot1TeamID != nil && v2:
				m.Bye = true
				m.Status = models.MatchStatusCompleted
				m.WinnerID = m.Slot1TeamID
				ix.Resolve(m.ID)
				settled = false
			case m.Slot2TeamID != nil && v1:
				m.Bye = true
				m.Status = models.MatchStatusCompleted
				m.WinnerID = m.Slot2TeamID
				ix.Resolve(m.ID)
				settled = false
			case v1 && v2:
				m.Bye = true
				m.Status = models.MatchStatusCancelled
				settled = false
			}
		}
		if settled {
			return
		}
	}
}
