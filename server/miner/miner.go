// Package miner extracts learned patterns from resolved decision history.
// It runs as a background task or on demand, reads each agent's store,
// derives statistical patterns, and writes them back as active rules.
package miner

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/hindsightlabs/hindsight/plugin/eventbus"
	"github.com/hindsightlabs/hindsight/server/memory"
	"github.com/hindsightlabs/hindsight/store"
)

const (
	// MinEvidence is the minimum number of resolved decisions backing a
	// pattern before it is worth extracting.
	MinEvidence = 3
	// MinConfidence is the extraction floor for tag win rates.
	MinConfidence = 0.55

	maxResolvedScan = 500
)

// Result summarizes one mining run over a single agent.
type Result struct {
	Agent             string   `json:"agent"`
	Skipped           bool     `json:"skipped"`
	Reason            string   `json:"reason,omitempty"`
	ResolvedDecisions int      `json:"resolved_decisions"`
	PatternsExtracted int      `json:"patterns_extracted"`
	PatternsPruned    int      `json:"patterns_pruned"`
	NewPatterns       []string `json:"new_patterns,omitempty"`
}

// Miner mines patterns for the agents managed by a memory.Manager.
type Miner struct {
	manager *memory.Manager
	bus     eventbus.Publisher
}

func NewMiner(manager *memory.Manager, bus eventbus.Publisher) *Miner {
	if bus == nil {
		bus = eventbus.Nop{}
	}
	return &Miner{manager: manager, bus: bus}
}

// Agent mines patterns from a single agent's decision history.
func (m *Miner) Agent(ctx context.Context, agent string) (*Result, error) {
	st, err := m.manager.Open(ctx, agent)
	if err != nil {
		return nil, err
	}
	result, err := MineStore(ctx, st)
	if err != nil {
		return nil, err
	}
	if !result.Skipped {
		m.publishMined(ctx, result)
	}
	return result, nil
}

// All mines every agent that has a store file. A failure on one agent is
// recorded as a skipped result and the batch continues.
func (m *Miner) All(ctx context.Context) ([]*Result, error) {
	agents, err := m.manager.ListAgents()
	if err != nil {
		return nil, err
	}
	if len(agents) == 0 {
		slog.Info("no agent stores found, nothing to mine")
		return nil, nil
	}

	slog.Info("mining patterns", "agents", len(agents), "names", strings.Join(agents, ", "))
	results := make([]*Result, 0, len(agents))
	for _, agent := range agents {
		result, err := m.Agent(ctx, agent)
		if err != nil {
			slog.Error("failed to mine agent", "agent", agent, "error", err)
			results = append(results, &Result{Agent: agent, Skipped: true, Reason: err.Error()})
			continue
		}
		results = append(results, result)
	}

	var mined, skipped, extracted int
	for _, r := range results {
		if r.Skipped {
			skipped++
			continue
		}
		mined++
		extracted += r.PatternsExtracted
	}
	slog.Info("mining complete", "mined", mined, "skipped", skipped, "new_patterns", extracted)
	return results, nil
}

func (m *Miner) publishMined(ctx context.Context, result *Result) {
	err := m.bus.Publish(ctx, eventbus.Event{
		Type:  eventbus.TypeLearningApplied,
		Agent: result.Agent,
		Payload: map[string]any{
			"patterns_extracted": result.PatternsExtracted,
			"patterns_pruned":    result.PatternsPruned,
		},
	})
	if err != nil {
		slog.Warn("failed to publish mining event", "agent", result.Agent, "error", err)
	}
}

// MineStore runs all extraction strategies over one agent store.
func MineStore(ctx context.Context, st *store.Store) (*Result, error) {
	stats, err := st.Stats(ctx)
	if err != nil {
		return nil, err
	}

	if stats.ResolvedDecisions < MinEvidence {
		slog.Info("skipping agent, not enough resolved decisions",
			"agent", st.Agent(), "resolved", stats.ResolvedDecisions, "need", MinEvidence)
		return &Result{
			Agent:             st.Agent(),
			Skipped:           true,
			Reason:            "insufficient_data",
			ResolvedDecisions: int(stats.ResolvedDecisions),
		}, nil
	}

	resolved, err := st.RecentDecisions(ctx, maxResolvedScan, true)
	if err != nil {
		return nil, err
	}

	var newPatterns []string
	record := func(patternType, desc string, evidence int, confidence float64) error {
		if _, err := st.AddPattern(ctx, patternType, desc, evidence, confidence, nil); err != nil {
			return err
		}
		newPatterns = append(newPatterns, desc)
		slog.Info("pattern extracted", "agent", st.Agent(), "description", desc)
		return nil
	}

	if err := mineTagPerformance(resolved, record); err != nil {
		return nil, err
	}
	if err := mineKeywordSignals(resolved, record); err != nil {
		return nil, err
	}
	if err := mineCalibration(resolved, record); err != nil {
		return nil, err
	}
	if err := mineTemporal(resolved, record); err != nil {
		return nil, err
	}

	pruned, err := pruneWeakPatterns(ctx, st)
	if err != nil {
		return nil, err
	}

	return &Result{
		Agent:             st.Agent(),
		ResolvedDecisions: int(stats.ResolvedDecisions),
		PatternsExtracted: len(newPatterns),
		PatternsPruned:    pruned,
		NewPatterns:       newPatterns,
	}, nil
}

type winLoss struct {
	wins   int
	losses int
	total  int
}

// mineTagPerformance groups resolved decisions by tag and extracts win rates.
// Zero-score outcomes count toward the total but neither side of the rate.
func mineTagPerformance(resolved []*store.Decision, record func(string, string, int, float64) error) error {
	byTag := map[string]*winLoss{}
	for _, dec := range resolved {
		for _, tag := range dec.Tags {
			wl := byTag[tag]
			if wl == nil {
				wl = &winLoss{}
				byTag[tag] = wl
			}
			wl.total++
			if dec.OutcomeScore > 0 {
				wl.wins++
			} else if dec.OutcomeScore < 0 {
				wl.losses++
			}
		}
	}

	for _, tag := range sortedKeys(byTag) {
		wl := byTag[tag]
		if wl.total < MinEvidence {
			continue
		}
		wr := float64(wl.wins) / math.Max(1, float64(wl.wins+wl.losses))
		if wr < MinConfidence && wr > 1-MinConfidence {
			continue
		}
		result := "loses"
		confidence := 1 - wr
		if wr >= 0.5 {
			result = "wins"
			confidence = wr
		}
		desc := fmt.Sprintf("Tag '%s': %s %d%% of the time (%dW/%dL over %d decisions)",
			tag, result, pct(wr), wl.wins, wl.losses, wl.total)
		if err := record("tag_performance", desc, wl.total, confidence); err != nil {
			return err
		}
	}
	return nil
}

// mineKeywordSignals finds context words strongly associated with wins or
// losses.
func mineKeywordSignals(resolved []*store.Decision, record func(string, string, int, float64) error) error {
	byWord := map[string]*winLoss{}
	for _, dec := range resolved {
		if dec.OutcomeScore == 0 {
			continue
		}
		for _, word := range ExtractKeywords(dec.Context) {
			wl := byWord[word]
			if wl == nil {
				wl = &winLoss{}
				byWord[word] = wl
			}
			if dec.OutcomeScore > 0 {
				wl.wins++
			} else {
				wl.losses++
			}
		}
	}

	for _, word := range sortedKeys(byWord) {
		wl := byWord[word]
		total := wl.wins + wl.losses
		if total < MinEvidence {
			continue
		}
		wr := float64(wl.wins) / float64(total)
		switch {
		case wr >= 0.65:
			desc := fmt.Sprintf("Keyword '%s' in context: %d%% win rate (%dW/%dL)",
				word, pct(wr), wl.wins, wl.losses)
			if err := record("keyword_signal", desc, total, wr); err != nil {
				return err
			}
		case wr <= 0.35:
			desc := fmt.Sprintf("Keyword '%s' in context: %d%% loss rate (%dL/%dW)",
				word, pct(1-wr), wl.losses, wl.wins)
			if err := record("keyword_signal", desc, total, 1-wr); err != nil {
				return err
			}
		}
	}
	return nil
}

// mineCalibration checks whether the agent's own confidence estimates line
// up with actual outcomes.
func mineCalibration(resolved []*store.Decision, record func(string, string, int, float64) error) error {
	var highConf, lowConf []*store.Decision
	for _, dec := range resolved {
		if dec.Confidence >= 0.7 {
			highConf = append(highConf, dec)
		} else if dec.Confidence < 0.4 {
			lowConf = append(lowConf, dec)
		}
	}

	if len(highConf) >= MinEvidence {
		wr := winRate(highConf)
		desc := fmt.Sprintf("High-confidence decisions (>=0.7): actual win rate %d%% over %d decisions",
			pct(wr), len(highConf))
		if err := record("calibration", desc, len(highConf), wr); err != nil {
			return err
		}
	}
	if len(lowConf) >= MinEvidence {
		wr := winRate(lowConf)
		desc := fmt.Sprintf("Low-confidence decisions (<0.4): actual win rate %d%% over %d decisions",
			pct(wr), len(lowConf))
		if err := record("calibration", desc, len(lowConf), math.Max(wr, 1-wr)); err != nil {
			return err
		}
	}
	return nil
}

// mineTemporal groups outcomes by the hour of day the decision was recorded.
func mineTemporal(resolved []*store.Decision, record func(string, string, int, float64) error) error {
	byHour := map[int]*winLoss{}
	for _, dec := range resolved {
		if dec.OutcomeScore == 0 {
			continue
		}
		hour := dec.Timestamp.Hour()
		wl := byHour[hour]
		if wl == nil {
			wl = &winLoss{}
			byHour[hour] = wl
		}
		if dec.OutcomeScore > 0 {
			wl.wins++
		} else {
			wl.losses++
		}
	}

	for _, hour := range sortedKeys(byHour) {
		wl := byHour[hour]
		total := wl.wins + wl.losses
		if total < MinEvidence {
			continue
		}
		wr := float64(wl.wins) / float64(total)
		if wr < 0.7 && wr > 0.3 {
			continue
		}
		result := "unfavorable"
		confidence := 1 - wr
		if wr >= 0.5 {
			result = "favorable"
			confidence = wr
		}
		desc := fmt.Sprintf("Hour %d:00 (%s): %s — %d%% WR (%dW/%dL)",
			hour, dayPeriod(hour), result, pct(wr), wl.wins, wl.losses)
		if err := record("temporal", desc, total, confidence); err != nil {
			return err
		}
	}
	return nil
}

// pruneWeakPatterns deactivates patterns that never accumulated evidence.
func pruneWeakPatterns(ctx context.Context, st *store.Store) (int, error) {
	patterns, err := st.ActivePatterns(ctx, &store.FindPattern{})
	if err != nil {
		return 0, err
	}
	pruned := 0
	for _, p := range patterns {
		if p.EvidenceCount <= 1 && p.Confidence < 0.5 {
			if _, err := st.DeactivatePattern(ctx, p.ID); err != nil {
				return pruned, err
			}
			pruned++
		}
	}
	return pruned, nil
}

var keywordRe = regexp.MustCompile(`[a-z][a-z0-9_]+`)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "this": {},
	"that": {}, "was": {}, "are": {}, "has": {}, "had": {}, "but": {},
	"not": {}, "you": {}, "all": {}, "can": {}, "her": {}, "his": {},
	"one": {}, "our": {}, "out": {}, "day": {}, "get": {}, "got": {},
	"let": {}, "may": {}, "say": {}, "she": {}, "too": {}, "use": {},
	"way": {}, "who": {}, "how": {}, "its": {}, "did": {}, "now": {},
}

// ExtractKeywords pulls meaningful lowercase words out of context text.
func ExtractKeywords(text string) []string {
	words := keywordRe.FindAllString(strings.ToLower(text), -1)
	keep := words[:0]
	for _, w := range words {
		if len(w) < 3 {
			continue
		}
		if _, noise := stopWords[w]; noise {
			continue
		}
		keep = append(keep, w)
	}
	return keep
}

func winRate(decisions []*store.Decision) float64 {
	wins := 0
	for _, d := range decisions {
		if d.OutcomeScore > 0 {
			wins++
		}
	}
	return float64(wins) / float64(len(decisions))
}

func pct(rate float64) int {
	return int(math.Round(rate * 100))
}

func dayPeriod(hour int) string {
	switch {
	case hour >= 6 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 18:
		return "afternoon"
	case hour >= 18 && hour < 22:
		return "evening"
	default:
		return "night"
	}
}

func sortedKeys[K int | string](m map[K]*winLoss) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
