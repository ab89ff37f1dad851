package judgment

import (
	"log/slog"
	"strings"

	"github.com/DjordjeVuckovic/news-highlight/internal/bench/suite"
	"github.com/DjordjeVuckovic/news-highlight/internal/textnorm"
)

// MergeIntoSuite returns a copy of s whose gold sentences are replaced by the
// judged ones. Articles nobody judged keep their existing gold.
func MergeIntoSuite(jf *JudgmentFile, s *suite.TestSuite) *suite.TestSuite {
	judged := make(map[string]JudgmentEntry, len(jf.Articles))
	for _, e := range jf.Articles {
		if e.Judged() {
			judged[e.ArticleID] = e
		}
	}

	merged := *s
	merged.Articles = make([]suite.Article, len(s.Articles))
	copy(merged.Articles, s.Articles)

	for i, a := range merged.Articles {
		e, ok := judged[a.ID]
		if !ok {
			continue
		}
		merged.Articles[i].Gold = dedupe(e.Gold())
		delete(judged, a.ID)
	}

	for id := range judged {
		slog.Warn("judgment references article not in suite", "article", id)
	}

	return &merged
}

func dedupe(sentences []string) []string {
	seen := make(map[string]bool, len(sentences))
	out := make([]string, 0, len(sentences))
	for _, s := range sentences {
		s = strings.TrimSpace(s)
		key := textnorm.Normalize(s)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
