package content

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"
)

const (
	// PerProviderLimit caps the items taken from a single feed.
	PerProviderLimit = 3
	// MaxTopics bounds script length and synthesis cost per episode.
	MaxTopics = 5
)

// Fallback is the topic used when no provider returned anything.
var Fallback = Topic{
	Title:   "No fresh news found.",
	Link:    "",
	Summary: "Backup topic: Recent advancements in AI technology",
	Source:  "fallback",
}

// Topic is one news item discussed in an episode.
type Topic struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Summary string `json:"summary"`
	Source  string `json:"source"`
}

// Provider yields news items from one upstream.
type Provider interface {
	Items(ctx context.Context) ([]Topic, error)
	Name() string
}

// ProviderFailure records an upstream that was skipped during a fetch.
type ProviderFailure struct {
	Provider string
	Err      error
}

func (f ProviderFailure) String() string {
	return fmt.Sprintf("%s: %v", f.Provider, f.Err)
}

// FetchResult is the outcome of a fetch. Topics is never empty.
type FetchResult struct {
	Topics   []Topic
	Failures []ProviderFailure
	Fallback bool
	Sampled  bool
}

// Source aggregates topics from its providers.
type Source struct {
	providers []Provider
	timeout   time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSource builds a Source. rng may be nil, in which case a randomly seeded
// generator is used; tests pass a seeded one.
func NewSource(providers []Provider, timeout time.Duration, rng *rand.Rand) *Source {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Source{
		providers: providers,
		timeout:   timeout,
		rng:       rng,
	}
}

// Fetch collects up to PerProviderLimit items from every provider in order.
// A failing provider is logged and skipped. More than MaxTopics items are
// sampled down without replacement; no items at all yields the Fallback topic.
func (s *Source) Fetch(ctx context.Context) FetchResult {
	var res FetchResult

	for _, p := range s.providers {
		items, err := s.fetchOne(ctx, p)
		if err != nil {
			slog.Error("news provider failed", "provider", p.Name(), "error", err)
			res.Failures = append(res.Failures, ProviderFailure{Provider: p.Name(), Err: err})
			continue
		}
		if len(items) > PerProviderLimit {
			items = items[:PerProviderLimit]
		}
		for _, item := range items {
			slog.Info("fetched news", "provider", p.Name(), "title", item.Title)
		}
		res.Topics = append(res.Topics, items...)
	}

	if len(res.Topics) > MaxTopics {
		res.Topics = s.sample(res.Topics, MaxTopics)
		res.Sampled = true
	}

	if len(res.Topics) == 0 {
		slog.Warn("no news available, using fallback topic", "providers", len(s.providers))
		res.Topics = []Topic{Fallback}
		res.Fallback = true
	}

	return res
}

func (s *Source) fetchOne(ctx context.Context, p Provider) (items []Topic, err error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	// one misbehaving provider must not take the whole fetch down
	defer func() {
		if r := recover(); r != nil {
			items, err = nil, fmt.Errorf("provider panic: %v", r)
		}
	}()

	return p.Items(ctx)
}

// sample picks n topics uniformly at random without replacement.
func (s *Source) sample(topics []Topic, n int) []Topic {
	s.mu.Lock()
	perm := s.rng.Perm(len(topics))
	s.mu.Unlock()

	out := make([]Topic, n)
	for i := 0; i < n; i++ {
		out[i] = topics[perm[i]]
	}
	return out
}
