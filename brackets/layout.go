package brackets

import (
	"sort"

	"courtside-live/models"
)

// LayoutConfig controls the geometry of a rendered bracket. Identical
// topology and config always produce identical output.
type LayoutConfig struct {
	MatchWidth  float64 `json:"match_width"`
	MatchHeight float64 `json:"match_height"`
	HGap        float64 `json:"h_gap"`
	VGap        float64 `json:"v_gap"`
	SectionGap  float64 `json:"section_gap"`
}

func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		MatchWidth:  180,
		MatchHeight: 64,
		HGap:        48,
		VGap:        24,
		SectionGap:  96,
	}
}

// MatchBox is the rendered position of one match.
type MatchBox struct {
	MatchID string  `json:"match_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
}

// Segment is one straight connector line.
type Segment struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

type Layout struct {
	Boxes      []MatchBox `json:"boxes"`
	Connectors []Segment  `json:"connectors"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
}

// ComputeLayout maps a topology snapshot to render geometry. The winner
// bracket occupies the top band; loser bracket, grand finals and
// consolation matches share a second band below it so the sections never
// overlap. Matches advance left to right, each centered on the midpoint of
// its source matches.
func ComputeLayout(matches []*models.Match, edges []models.BracketEdge, cfg LayoutConfig) Layout {
	section := make(map[string]models.BracketSection, len(matches))
	incoming := make(map[string][]models.BracketEdge)
	for _, m := range matches {
		section[m.ID] = m.Bracket
	}
	for _, e := range edges {
		incoming[e.ToMatchID] = append(incoming[e.ToMatchID], e)
	}

	var winner, loser, grand, consolation []*models.Match
	for _, m := range matches {
		switch {
		case m.Bracket == models.BracketLoser:
			loser = append(loser, m)
		case m.Bracket == models.BracketConsolation:
			consolation = append(consolation, m)
		case isGrandFinal(m, incoming[m.ID], section):
			grand = append(grand, m)
		default:
			winner = append(winner, m)
		}
	}

	out := Layout{}
	topHeight := layoutSection(&out, winner, edges, cfg, 0, 0)

	bandY := 0.0
	if topHeight > 0 {
		bandY = topHeight + cfg.SectionGap
	}
	bandX := 0.0
	for _, ms := range [][]*models.Match{loser, grand, consolation} {
		if len(ms) == 0 {
			continue
		}
		layoutSection(&out, ms, edges, cfg, bandX, bandY)
		cols := countRounds(ms)
		bandX += float64(cols) * (cfg.MatchWidth + cfg.HGap)
	}

	for _, b := range out.Boxes {
		if r := b.X + b.Width; r > out.Width {
			out.Width = r
		}
		if bot := b.Y + b.Height; bot > out.Height {
			out.Height = bot
		}
	}
	return out
}

// isGrandFinal spots the grand-final pair inside the winner section: the
// first grand final is fed by the loser bracket (or, in a two-team field,
// by a loser edge), the reset match carries its own label because it is
// created at runtime with both slots already filled and no edges at all.
// Edge-less later rounds of swiss and round robin stay in the main band.
func isGrandFinal(m *models.Match, in []models.BracketEdge, section map[string]models.BracketSection) bool {
	if m.Bracket != models.BracketWinner {
		return false
	}
	for _, e := range in {
		if section[e.FromMatchID] == models.BracketLoser || e.Outcome == models.OutcomeLoser {
			return true
		}
	}
	return m.RoundLabel == GrandFinalResetLabel
}

func countRounds(ms []*models.Match) int {
	seen := make(map[int]bool)
	for _, m := range ms {
		seen[m.Round] = true
	}
	return len(seen)
}

// layoutSection positions one bracket section and appends its boxes and
// connectors. Returns the section height.
func layoutSection(out *Layout, ms []*models.Match, edges []models.BracketEdge, cfg LayoutConfig, originX, originY float64) float64 {
	if len(ms) == 0 {
		return 0
	}

	inSection := make(map[string]bool, len(ms))
	for _, m := range ms {
		inSection[m.ID] = true
	}

	rounds := make(map[int][]*models.Match)
	for _, m := range ms {
		rounds[m.Round] = append(rounds[m.Round], m)
	}
	roundNums := make([]int, 0, len(rounds))
	for r := range rounds {
		roundNums = append(roundNums, r)
	}
	sort.Ints(roundNums)
	for _, r := range roundNums {
		sort.SliceStable(rounds[r], func(i, j int) bool {
			if rounds[r][i].OrderInRound != rounds[r][j].OrderInRound {
				return rounds[r][i].OrderInRound < rounds[r][j].OrderInRound
			}
			return rounds[r][i].ID < rounds[r][j].ID
		})
	}

	sources := make(map[string][]string)
	for _, e := range edges {
		if inSection[e.FromMatchID] && inSection[e.ToMatchID] {
			sources[e.ToMatchID] = append(sources[e.ToMatchID], e.FromMatchID)
		}
	}
	for id := range sources {
		sort.Strings(sources[id])
	}

	centerY := make(map[string]float64, len(ms))
	boxX := make(map[string]float64, len(ms))

	height := 0.0
	for col, r := range roundNums {
		x := originX + float64(col)*(cfg.MatchWidth+cfg.HGap)
		stackY := originY
		for _, m := range rounds[r] {
			var y float64
			srcs := placedSources(sources[m.ID], centerY)
			if col == 0 || len(srcs) == 0 {
				y = stackY
				stackY += cfg.MatchHeight + cfg.VGap
			} else {
				mid := 0.0
				for _, cy := range srcs {
					mid += cy
				}
				mid /= float64(len(srcs))
				y = mid - cfg.MatchHeight/2
			}
			boxX[m.ID] = x
			centerY[m.ID] = y + cfg.MatchHeight/2
			out.Boxes = append(out.Boxes, MatchBox{
				MatchID: m.ID,
				X:       x,
				Y:       y,
				Width:   cfg.MatchWidth,
				Height:  cfg.MatchHeight,
			})
			if bottom := y + cfg.MatchHeight; bottom-originY > height {
				height = bottom - originY
			}
		}
	}

	for _, r := range roundNums[1:] {
		for _, m := range rounds[r] {
			srcs := sources[m.ID]
			cys := placedSources(srcs, centerY)
			if len(cys) == 0 {
				continue
			}
			joinX := boxX[m.ID] - cfg.HGap/2
			for _, src := range srcs {
				cy, ok := centerY[src]
				if !ok {
					continue
				}
				out.Connectors = append(out.Connectors, Segment{
					X1: boxX[src] + cfg.MatchWidth, Y1: cy,
					X2: joinX, Y2: cy,
				})
			}
			if len(cys) == 2 && cys[0] != cys[1] {
				lo, hi := cys[0], cys[1]
				if lo > hi {
					lo, hi = hi, lo
				}
				out.Connectors = append(out.Connectors, Segment{X1: joinX, Y1: lo, X2: joinX, Y2: hi})
			}
			out.Connectors = append(out.Connectors, Segment{
				X1: joinX, Y1: centerY[m.ID],
				X2: boxX[m.ID], Y2: centerY[m.ID],
			})
		}
	}

	return height
}

func placedSources(srcs []string, centerY map[string]float64) []float64 {
	out := make([]float64, 0, len(srcs))
	for _, s := range srcs {
		if cy, ok := centerY[s]; ok {
			out = append(out, cy)
		}
	}
	return out
}
