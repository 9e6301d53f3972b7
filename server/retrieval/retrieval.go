// Package retrieval finds past decisions relevant to a free-text situation
// using lexical keyword matching against stored decision contexts.
package retrieval

import (
	"context"
	"strings"

	"github.com/hindsightlabs/hindsight/store"
)

const (
	// DefaultLimit is the number of decisions returned when the caller
	// does not ask for a specific count.
	DefaultLimit = 5

	minTokenLen = 3
	maxKeywords = 10
)

// Keywords tokenizes a situation description into lookup keywords.
// Tokens are lower-cased, tokens shorter than three characters are dropped,
// and at most the first ten surviving tokens are kept.
func Keywords(situation string) []string {
	fields := strings.Fields(strings.ToLower(situation))
	keywords := make([]string, 0, maxKeywords)
	for _, field := range fields {
		if len(field) < minTokenLen {
			continue
		}
		keywords = append(keywords, field)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

// Retriever answers "what did this agent decide in situations like this one".
type Retriever struct {
	store *store.Store
}

func NewRetriever(s *store.Store) *Retriever {
	return &Retriever{store: s}
}

// Relevant returns up to limit decisions whose context mentions any keyword
// of the situation, newest first. A situation with no usable keywords yields
// an empty result rather than the newest decisions.
func (r *Retriever) Relevant(ctx context.Context, situation string, limit int) ([]*store.Decision, error) {
	keywords := Keywords(situation)
	if len(keywords) == 0 {
		return nil, nil
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	return r.store.ListDecisions(ctx, &store.FindDecision{
		Keywords: keywords,
		Limit:    limit,
	})
}
