package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
)

func TestParseSelection_Valid(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		texts []string
	}{
		{
			name:  "core sentences",
			raw:   `{"core_sentences":[{"sentence":"금리를 동결했다.","reason":"핵심 사실"},{"sentence":"물가가 올랐다.","reason":"배경"}]}`,
			texts: []string{"금리를 동결했다.", "물가가 올랐다."},
		},
		{
			name:  "claims",
			raw:   `{"claims":[{"text":"A","reason":"r"}]}`,
			texts: []string{"A"},
		},
		{
			name:  "flat object keeps order",
			raw:   `{"나는 배고프다":"단문","정책은 합의를 필요로 한다":"논리"}`,
			texts: []string{"나는 배고프다", "정책은 합의를 필요로 한다"},
		},
		{
			name:  "code fence with language",
			raw:   "```json\n{\"claims\":[{\"text\":\"A\",\"reason\":\"r\"}]}\n```",
			texts: []string{"A"},
		},
		{
			name:  "code fence without language",
			raw:   "```\n{\"A\":\"r\"}\n```",
			texts: []string{"A"},
		},
		{
			name:  "empty list is valid",
			raw:   `{"core_sentences":[]}`,
			texts: []string{},
		},
		{
			name:  "blank sentences dropped",
			raw:   `{"claims":[{"text":"  ","reason":"r"},{"text":"B","reason":""}]}`,
			texts: []string{"B"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := ParseSelection(tt.raw, Gemini)
			v, ok := sel.(Valid)
			require.True(t, ok, "expected Valid, got %#v", sel)
			assert.Equal(t, tt.texts, v.Texts())
			for _, s := range v.Sentences {
				assert.Equal(t, Gemini, s.Provider)
			}
		})
	}
}

func TestParseSelection_ReasonsKept(t *testing.T) {
	sel := ParseSelection(`{"core_sentences":[{"sentence":" A ","reason":" why "}]}`, Claude)
	v, ok := sel.(Valid)
	require.True(t, ok)
	assert.Equal(t, []domain.SentenceItem{{Text: "A", Reason: "why", Provider: Claude}}, v.Sentences)
}

func TestParseSelection_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "prose", raw: "Here are the sentences: A, B"},
		{name: "array root", raw: `["A","B"]`},
		{name: "truncated", raw: `{"claims":[{"text":"A"`},
		{name: "core sentences wrong type", raw: `{"core_sentences":"A"}`},
		{name: "flat non-string value", raw: `{"A":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel := ParseSelection(tt.raw, OpenAI)
			m, ok := sel.(Malformed)
			require.True(t, ok, "expected Malformed, got %#v", sel)
			assert.ErrorIs(t, m, ErrMalformedOutput)
			assert.Equal(t, tt.raw, m.Raw)
		})
	}
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripCodeFence("  {\"a\":1} "))
	assert.Equal(t, `{"a":1}`, StripCodeFence("```JSON\n{\"a\":1}\n```"))
}
