// Package consensus merges sentence selections from several providers into
// ranked clusters of agreement.
package consensus

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
	"github.com/DjordjeVuckovic/news-highlight/internal/similarity"
)

// Thresholds are agreement ratios (score / configured providers) for each
// level. Lower edges are inclusive.
type Thresholds struct {
	High   float64 `yaml:"high" json:"high"`
	Medium float64 `yaml:"medium" json:"medium"`
}

var DefaultThresholds = Thresholds{High: 0.75, Medium: 0.50}

func (t Thresholds) Validate() error {
	if t.Medium < 0 || t.High > 1 || t.Medium > t.High {
		return fmt.Errorf("invalid consensus thresholds: medium=%.2f high=%.2f", t.Medium, t.High)
	}
	return nil
}

func (t Thresholds) Level(score, providers int) domain.ConsensusLevel {
	if providers <= 0 {
		return domain.ConsensusLow
	}
	ratio := float64(score) / float64(providers)
	switch {
	case ratio >= t.High:
		return domain.ConsensusHigh
	case ratio >= t.Medium:
		return domain.ConsensusMedium
	default:
		return domain.ConsensusLow
	}
}

type Merger struct {
	providers  []domain.ProviderID
	known      map[domain.ProviderID]bool
	thresholds Thresholds
	semantic   similarity.Matcher
}

type Option func(*Merger)

func WithThresholds(t Thresholds) Option {
	return func(m *Merger) {
		m.thresholds = t
	}
}

// WithSemanticIdentity also treats two sentences as identical when the
// matcher gives them full credit.
func WithSemanticIdentity(matcher similarity.Matcher) Option {
	return func(m *Merger) {
		m.semantic = matcher
	}
}

// New builds a merger for the configured provider set. Providers are visited
// in sorted order so output does not depend on map iteration.
func New(providers []domain.ProviderID, opts ...Option) *Merger {
	m := &Merger{
		providers:  domain.SortProviders(providers),
		known:      make(map[domain.ProviderID]bool, len(providers)),
		thresholds: DefaultThresholds,
	}
	for _, p := range providers {
		m.known[p] = true
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Providers returns the configured provider set, deduplicated and sorted.
func (m *Merger) Providers() []domain.ProviderID {
	out := make([]domain.ProviderID, 0, len(m.known))
	for _, p := range m.providers {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	return out
}

type cluster struct {
	seed    string
	members map[domain.ProviderID]bool
	order   []domain.ProviderID
	reasons map[domain.ProviderID]string
}

// Merge groups identical sentences across providers. Each output sentence has
// a score equal to the number of distinct providers that selected it, sorted by
// score descending and then by first appearance.
func (m *Merger) Merge(ctx context.Context, selections map[domain.ProviderID][]domain.SentenceItem) ([]domain.ConsensusSentence, error) {
	for p := range selections {
		if !m.known[p] {
			slog.Warn("ignoring selections from unconfigured provider", "provider", p, "count", len(selections[p]))
		}
	}

	var clusters []*cluster
	for _, provider := range m.Providers() {
		for _, item := range selections[provider] {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			text := strings.TrimSpace(item.Text)
			if text == "" {
				continue
			}

			c := m.find(ctx, clusters, text)
			if c == nil {
				c = &cluster{
					seed:    text,
					members: make(map[domain.ProviderID]bool),
					reasons: make(map[domain.ProviderID]string),
				}
				clusters = append(clusters, c)
			}

			if !c.members[provider] {
				c.members[provider] = true
				c.order = append(c.order, provider)
				c.reasons[provider] = item.Reason
			}
		}
	}

	total := len(m.Providers())
	out := make([]domain.ConsensusSentence, 0, len(clusters))
	for _, c := range clusters {
		score := len(c.order)
		out = append(out, domain.ConsensusSentence{
			Text:       c.seed,
			Score:      score,
			Level:      m.thresholds.Level(score, total),
			SelectedBy: c.order,
			Reasons:    c.reasons,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	return out, nil
}

func (m *Merger) find(ctx context.Context, clusters []*cluster, text string) *cluster {
	for _, c := range clusters {
		if similarity.ExactScore(c.seed, text) == domain.FullMatch {
			return c
		}
	}
	if m.semantic == nil {
		return nil
	}

	for _, c := range clusters {
		s, err := m.semantic.Score(ctx, c.seed, text)
		if err != nil {
			slog.Debug("semantic identity check failed, using exact comparison", "error", err)
			continue
		}
		if s == domain.FullMatch {
			return c
		}
	}
	return nil
}
