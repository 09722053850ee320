// Package location normalizes free-text work locations to canonical state
// tokens such as "NewYork" or "DistrictOfColumbia".
package location

import (
	"context"
	"strings"
	"sync"

	"github.com/okian/isp/internal/domain/record"
	"github.com/okian/isp/internal/rubric"
	"github.com/okian/isp/pkg/logger"
)

const (
	// DistrictOfColumbia is the single token every DC spelling resolves to.
	DistrictOfColumbia = rubric.DistrictOfColumbia
	// Unknown marks a location no state could be identified for.
	Unknown = "Unknown"
	// DefaultBatchSize caps concurrent classifier calls per batch.
	DefaultBatchSize = 5
)

// Classifier turns one free-text location into a single-token place name or
// "Unknown". It must be safe for concurrent use.
type Classifier interface {
	Classify(ctx context.Context, location string) (string, error)
}

// Cache memoizes classifier answers across requests. Implementations must be
// safe for concurrent use; entries are never removed by the Normalizer.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Put(ctx context.Context, key, value string)
}

// Stats summarizes one Normalize call.
type Stats struct {
	Distinct   int
	CacheHits  int
	Classified int
	Failures   int
	Degraded   bool
}

// Normalizer rewrites the location field of mapped records.
type Normalizer struct {
	classifier Classifier
	cache      Cache
	batchSize  int
	log        logger.Logger
}

// NewNormalizer creates a Normalizer with configuration options.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		cache:     nopCache{},
		batchSize: DefaultBatchSize,
		log:       logger.Get().Named("location"),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize replaces field on every record with its canonical token.
// Null values stay null. Classification failures never abort the call.
func (n *Normalizer) Normalize(ctx context.Context, records []*record.Mapped, field string) Stats {
	if n.classifier == nil {
		n.canonicalizeOnly(records, field)
		return Stats{Degraded: true}
	}

	distinct := distinctValues(records, field)
	st := Stats{Distinct: len(distinct)}
	resolved := make(map[string]string, len(distinct))

	var pending []string
	for _, loc := range distinct {
		if v, ok := n.cache.Get(ctx, loc); ok {
			resolved[loc] = v
			st.CacheHits++
			continue
		}
		pending = append(pending, loc)
	}

	for start := 0; start < len(pending); start += n.batchSize {
		batch := pending[start:min(start+n.batchSize, len(pending))]
		answers := make([]string, len(batch))
		failed := make([]bool, len(batch))

		var wg sync.WaitGroup
		for i, loc := range batch {
			wg.Add(1)
			go func() {
				defer wg.Done()
				answers[i], failed[i] = n.resolve(ctx, loc)
			}()
		}
		wg.Wait()

		for i, loc := range batch {
			resolved[loc] = answers[i]
			n.cache.Put(ctx, loc, answers[i])
			st.Classified++
			if failed[i] {
				st.Failures++
			}
		}
	}

	for _, r := range records {
		s, ok := r.Text(field)
		if !ok {
			continue
		}
		if v, hit := resolved[s]; hit {
			r.Set(field, v)
		} else {
			r.Set(field, Unknown)
		}
	}

	n.log.Debug(ctx, "locations normalized",
		logger.Int("distinct", st.Distinct),
		logger.Int("cache_hits", st.CacheHits),
		logger.Int("classified", st.Classified),
		logger.Int("failures", st.Failures),
	)
	return st
}

// resolve classifies one value and applies the DC override. The bool is true
// when the classifier failed and the heuristic answer was used.
func (n *Normalizer) resolve(ctx context.Context, loc string) (string, bool) {
	answer, err := n.classifier.Classify(ctx, loc)
	if err != nil {
		n.log.Warn(ctx, "location classification failed",
			logger.String("location", loc),
			logger.Error(err),
		)
		return fallback(loc), true
	}
	answer = strings.TrimSpace(answer)
	if mentionsDC(loc) || answerIsDC(answer) {
		return DistrictOfColumbia, false
	}
	if answer == "" {
		return Unknown, false
	}
	return answer, false
}

func (n *Normalizer) canonicalizeOnly(records []*record.Mapped, field string) {
	for _, r := range records {
		if s, ok := r.Text(field); ok {
			r.Set(field, Canonicalize(s))
		}
	}
}

// distinctValues returns the non-empty values of field in first-seen order.
func distinctValues(records []*record.Mapped, field string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		s, ok := r.Text(field)
		if !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

type nopCache struct{}

func (nopCache) Get(context.Context, string) (string, bool) { return "", false }
func (nopCache) Put(context.Context, string, string)        {}
