package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
)

// Selection is the parsed outcome of a model response: either Valid or Malformed.
type Selection interface {
	isSelection()
}

type Valid struct {
	Sentences []domain.SentenceItem
}

type Malformed struct {
	Raw string
	Err error
}

func (Valid) isSelection()     {}
func (Malformed) isSelection() {}

func (v Valid) Texts() []string {
	out := make([]string, len(v.Sentences))
	for i, s := range v.Sentences {
		out[i] = s.Text
	}
	return out
}

func (m Malformed) Error() string {
	return m.Err.Error()
}

func (m Malformed) Unwrap() error {
	return m.Err
}

type coreSentence struct {
	Sentence string `json:"sentence"`
	Reason   string `json:"reason"`
}

type claim struct {
	Text   string `json:"text"`
	Reason string `json:"reason"`
}

// ParseSelection accepts three shapes, with or without a markdown code fence:
//
//	{"core_sentences": [{"sentence": "...", "reason": "..."}]}
//	{"claims": [{"text": "...", "reason": "..."}]}
//	{"<sentence>": "<reason>", ...}
//
// Anything else is Malformed. An empty list is Valid.
func ParseSelection(raw string, provider domain.ProviderID) Selection {
	body := StripCodeFence(raw)
	if body == "" {
		return Malformed{Raw: raw, Err: fmt.Errorf("%w: empty response", ErrMalformedOutput)}
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(body), &obj); err != nil {
		return Malformed{Raw: raw, Err: fmt.Errorf("%w: %v", ErrMalformedOutput, err)}
	}

	if rawList, ok := obj["core_sentences"]; ok {
		var items []coreSentence
		if err := json.Unmarshal(rawList, &items); err != nil {
			return Malformed{Raw: raw, Err: fmt.Errorf("%w: core_sentences: %v", ErrMalformedOutput, err)}
		}
		out := make([]domain.SentenceItem, 0, len(items))
		for _, it := range items {
			out = appendItem(out, it.Sentence, it.Reason, provider)
		}
		return Valid{Sentences: out}
	}

	if rawList, ok := obj["claims"]; ok {
		var items []claim
		if err := json.Unmarshal(rawList, &items); err != nil {
			return Malformed{Raw: raw, Err: fmt.Errorf("%w: claims: %v", ErrMalformedOutput, err)}
		}
		out := make([]domain.SentenceItem, 0, len(items))
		for _, it := range items {
			out = appendItem(out, it.Text, it.Reason, provider)
		}
		return Valid{Sentences: out}
	}

	return parseFlat(raw, body, provider)
}

// parseFlat keeps key order as it appears in the document.
func parseFlat(raw, body string, provider domain.ProviderID) Selection {
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	if _, err := dec.Token(); err != nil {
		return Malformed{Raw: raw, Err: fmt.Errorf("%w: %v", ErrMalformedOutput, err)}
	}

	var out []domain.SentenceItem
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Malformed{Raw: raw, Err: fmt.Errorf("%w: %v", ErrMalformedOutput, err)}
		}
		key, _ := keyTok.(string)

		var reason string
		if err := dec.Decode(&reason); err != nil {
			return Malformed{Raw: raw, Err: fmt.Errorf("%w: value for %q is not a string", ErrMalformedOutput, key)}
		}
		out = appendItem(out, key, reason, provider)
	}

	return Valid{Sentences: out}
}

func appendItem(out []domain.SentenceItem, text, reason string, provider domain.ProviderID) []domain.SentenceItem {
	text = strings.TrimSpace(text)
	if text == "" {
		return out
	}
	return append(out, domain.SentenceItem{
		Text:     text,
		Reason:   strings.TrimSpace(reason),
		Provider: provider,
	})
}

// StripCodeFence removes a surrounding ```json ... ``` block if present.
func StripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	parts := strings.Split(text, "```")
	if len(parts) < 2 {
		return text
	}
	inner := strings.TrimSpace(parts[1])
	if len(inner) >= 4 && strings.EqualFold(inner[:4], "json") {
		inner = strings.TrimSpace(inner[4:])
	}
	return inner
}
