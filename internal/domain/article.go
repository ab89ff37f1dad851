package domain

import (
	"strings"
)

const ArticleDefaultLanguage = "korean"

// ArticleCase is a single benchmark article with its human-annotated gold set.
type ArticleCase struct {
	ID        string   `json:"article_id" yaml:"id"`
	Issue     string   `json:"issue,omitempty" yaml:"issue,omitempty"`
	Newspaper string   `json:"newspaper,omitempty" yaml:"newspaper,omitempty"`
	Title     string   `json:"title,omitempty" yaml:"title,omitempty"`
	URL       string   `json:"url,omitempty" yaml:"url,omitempty"`
	Language  string   `json:"language,omitempty" yaml:"language,omitempty"`
	Body      string   `json:"body_text" yaml:"body"`
	Gold      []string `json:"gold_sentences" yaml:"gold"`
}

func (a ArticleCase) HasBody() bool {
	return strings.TrimSpace(a.Body) != ""
}

func (a ArticleCase) HasGold() bool {
	return len(a.Gold) > 0
}
