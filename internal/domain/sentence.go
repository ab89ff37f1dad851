package domain

import "sort"

// ProviderID names an LLM provider (gemini, openai, claude, mistral, ...).
type ProviderID string

// SentenceItem is one sentence a provider selected, with its stated reason.
type SentenceItem struct {
	Text     string     `json:"text"`
	Reason   string     `json:"reason"`
	Provider ProviderID `json:"provider"`
}

type ConsensusLevel string

const (
	ConsensusHigh   ConsensusLevel = "high"
	ConsensusMedium ConsensusLevel = "medium"
	ConsensusLow    ConsensusLevel = "low"
)

// ConsensusSentence is a cluster of materially identical sentences selected by
// one or more providers. Score always equals len(SelectedBy) and Reasons has
// exactly one entry per selecting provider.
type ConsensusSentence struct {
	Text       string                `json:"text"`
	Score      int                   `json:"consensus_score"`
	Level      ConsensusLevel        `json:"consensus_level"`
	SelectedBy []ProviderID          `json:"selected_by"`
	Reasons    map[ProviderID]string `json:"reasons"`
}

// SortProviders returns a sorted copy of ids.
func SortProviders(ids []ProviderID) []ProviderID {
	out := make([]ProviderID, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
