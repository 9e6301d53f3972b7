// Package brain combines the agent store with the LLM collaborator. Before
// answering, it pulls learned patterns and similar past decisions and injects
// them into the prompt, so the model sees its own history.
package brain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hindsightlabs/hindsight/plugin/ai"
	"github.com/hindsightlabs/hindsight/server/retrieval"
	"github.com/hindsightlabs/hindsight/store"
)

const (
	// MaxPatterns is how many learned patterns are injected, best first.
	MaxPatterns = 8
	// MinPatternConfidence filters out patterns too weak to act on.
	MinPatternConfidence = 0.4
	// MaxDecisions is how many similar past decisions are injected.
	MaxDecisions = 5

	previewLen = 150
	outcomeLen = 100
)

// MemoryContext is the assembled memory block for one situation.
type MemoryContext struct {
	// Content is the rendered block, empty when the agent has no relevant
	// memory. Empty is not an error.
	Content        string
	PatternsUsed   int
	DecisionsFound int
}

// ThinkResult carries the LLM response plus what memory informed it.
type ThinkResult struct {
	Content        string
	MemoryContext  string
	PatternsUsed   int
	DecisionsFound int
}

// ThinkOptions tunes a single Think call.
type ThinkOptions struct {
	// SkipMemory answers without injecting memory context.
	SkipMemory bool
}

// Brain is the combined memory + LLM interface for one agent.
type Brain struct {
	store        *store.Store
	retriever    *retrieval.Retriever
	llm          ai.LLMService
	systemPrompt string
}

// New creates a brain over an agent store. llm may be nil; Think then
// returns empty content but memory assembly still works.
func New(st *store.Store, llm ai.LLMService, systemPrompt string) *Brain {
	return &Brain{
		store:        st,
		retriever:    retrieval.NewRetriever(st),
		llm:          llm,
		systemPrompt: systemPrompt,
	}
}

// AssembleContext renders the memory block for a situation: learned patterns
// first (highest confidence), then previews of similar past decisions.
func (b *Brain) AssembleContext(ctx context.Context, situation string) (*MemoryContext, error) {
	var parts []string

	patterns, err := b.store.ActivePatterns(ctx, &store.FindPattern{MinConfidence: MinPatternConfidence})
	if err != nil {
		return nil, err
	}
	if len(patterns) > MaxPatterns {
		patterns = patterns[:MaxPatterns]
	}
	if len(patterns) > 0 {
		parts = append(parts, "LEARNED PATTERNS:")
		for _, p := range patterns {
			parts = append(parts, fmt.Sprintf("  [%d%% confidence, %d evidence] %s",
				int(p.Confidence*100), p.EvidenceCount, p.Description))
		}
	}

	decisions, err := b.retriever.Relevant(ctx, situation, MaxDecisions)
	if err != nil {
		return nil, err
	}
	if len(decisions) > 0 {
		parts = append(parts, "\nSIMILAR PAST DECISIONS:")
		for _, d := range decisions {
			outcome := ""
			if d.Resolved {
				marker := "NEUTRAL"
				if d.OutcomeScore > 0 {
					marker = "WIN"
				} else if d.OutcomeScore < 0 {
					marker = "LOSS"
				}
				outcome = fmt.Sprintf(" → %s: %s", marker, truncate(d.Outcome, outcomeLen))
			}
			parts = append(parts, fmt.Sprintf("  Context: %s\n  Decision: %s\n  Confidence: %d%%%s",
				truncate(d.Context, previewLen), truncate(d.Decision, previewLen),
				int(d.Confidence*100), outcome))
		}
	}

	return &MemoryContext{
		Content:        strings.Join(parts, "\n"),
		PatternsUsed:   len(patterns),
		DecisionsFound: len(decisions),
	}, nil
}

// Think answers a question about a situation with memory context injected
// into the system prompt. An LLM failure is not fatal: the result comes back
// with empty content and the memory metadata intact.
func (b *Brain) Think(ctx context.Context, situation, question string, opts *ThinkOptions) (*ThinkResult, error) {
	if opts == nil {
		opts = &ThinkOptions{}
	}

	memory := &MemoryContext{}
	if !opts.SkipMemory {
		var err error
		memory, err = b.AssembleContext(ctx, situation)
		if err != nil {
			return nil, err
		}
	}

	system := b.systemPrompt
	if memory.Content != "" {
		system += "\n\n--- YOUR MEMORY (learned from past experience) ---\n" +
			memory.Content +
			"\n--- END MEMORY ---\n" +
			"\nUse this memory to inform your decision, but don't blindly follow patterns " +
			"if the current situation is significantly different."
	}

	result := &ThinkResult{
		MemoryContext:  memory.Content,
		PatternsUsed:   memory.PatternsUsed,
		DecisionsFound: memory.DecisionsFound,
	}

	if b.llm == nil {
		return result, nil
	}

	userMsg := fmt.Sprintf("SITUATION: %s\n\n%s", situation, question)
	messages := []ai.Message{ai.UserMessage(userMsg)}
	if system != "" {
		messages = append([]ai.Message{ai.SystemPrompt(system)}, messages...)
	}

	content, err := b.llm.Chat(ctx, messages)
	if err != nil {
		slog.Warn("LLM generation failed, returning empty response",
			"agent", b.store.Agent(), "error", err)
		return result, nil
	}
	result.Content = content
	return result, nil
}

// RememberDecision records a decision and returns its id.
func (b *Brain) RememberDecision(ctx context.Context, contextText, decision, reasoning string, confidence float64, tags []string) (string, error) {
	return b.store.RecordDecision(ctx, contextText, decision, reasoning, confidence, tags)
}

// RememberOutcome resolves a past decision.
func (b *Brain) RememberOutcome(ctx context.Context, decisionID, outcome string, score float64) (bool, error) {
	return b.store.RecordOutcome(ctx, decisionID, outcome, score)
}

// LearnPattern stores or reinforces a learned rule.
func (b *Brain) LearnPattern(ctx context.Context, patternType, description string, evidenceCount int, confidence float64) (string, error) {
	return b.store.AddPattern(ctx, patternType, description, evidenceCount, confidence, nil)
}

// RememberFact stores a fact in the knowledge base.
func (b *Brain) RememberFact(ctx context.Context, category, key, value, source string, ttlHours int) (string, error) {
	return b.store.SetKnowledge(ctx, category, key, value, source, ttlHours)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
