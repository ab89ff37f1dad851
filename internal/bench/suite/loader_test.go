package suite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParse(t *testing.T) {
	t.Run("valid suite", func(t *testing.T) {
		yaml := `
name: issue-based-50
version: "1.0"
articles:
  - id: art_001
    issue: 금리
    newspaper: 한국일보
    title: 한은, 기준금리 동결
    url: https://example.com/1
    body: 한국은행이 기준금리를 동결했다. 물가 상승세가 둔화됐다.
    gold:
      - 한국은행이 기준금리를 동결했다.
      - "  "
`
		s, err := Parse([]byte(yaml))
		require.NoError(t, err)
		assert.Equal(t, "issue-based-50", s.Name)
		require.Len(t, s.Articles, 1)

		a := s.Articles[0]
		assert.Equal(t, "art_001", a.ID)
		assert.Equal(t, "한국일보", a.Newspaper)
		assert.Equal(t, []string{"한국은행이 기준금리를 동결했다."}, a.Gold)
		assert.True(t, a.HasBody())
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := Parse([]byte("articles: [\n"))
		assert.ErrorContains(t, err, "parse suite YAML")
	})
}

func TestLoadFromFile(t *testing.T) {
	t.Run("body file resolved relative to suite", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "bodies/art_001.txt", "본문 텍스트")
		path := writeFile(t, dir, "suite.yaml", `
name: test
articles:
  - id: art_001
    body_file: bodies/art_001.txt
    gold: [본문 텍스트]
`)

		loaded, err := LoadFromFile(path)
		require.NoError(t, err)
		assert.Equal(t, dir, loaded.Dir)
		assert.Equal(t, "본문 텍스트", loaded.Suite.Articles[0].Body)
	})

	t.Run("missing body file", func(t *testing.T) {
		dir := t.TempDir()
		path := writeFile(t, dir, "suite.yaml", `
articles:
  - id: art_001
    body_file: nope.txt
`)
		_, err := LoadFromFile(path)
		assert.ErrorContains(t, err, "read body file")
	})

	t.Run("no articles", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "suite.yaml", "name: empty\narticles: []\n")
		_, err := LoadFromFile(path)
		assert.ErrorContains(t, err, "no articles")
	})

	t.Run("article missing id", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "suite.yaml", "articles:\n  - body: x\n")
		_, err := LoadFromFile(path)
		assert.ErrorContains(t, err, "no id")
	})

	t.Run("duplicate ids", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "suite.yaml", "articles:\n  - id: a\n  - id: a\n")
		_, err := LoadFromFile(path)
		assert.ErrorContains(t, err, "duplicate article id")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.ErrorContains(t, err, "read suite file")
	})
}

func TestWriteJSON_RoundTrip(t *testing.T) {
	s := &TestSuite{
		Name: "cache",
		Articles: []Article{
			{ArticleCase: domain.ArticleCase{ID: "art_001", Title: "제목", Body: "본문", Gold: []string{"본문"}}},
			{ArticleCase: domain.ArticleCase{ID: "art_002", Title: "빈 본문"}},
		},
	}

	path := filepath.Join(t.TempDir(), "cache", "preprocessed_articles.json")
	require.NoError(t, WriteJSON(s, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"article_count": 2`)
	assert.Contains(t, string(data), `"body_text": "본문"`)
	assert.Contains(t, string(data), `"gold_sentences"`)

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, s.Cases(), loaded.Suite.Cases())

	runnable := loaded.Suite.Runnable()
	require.Len(t, runnable, 1)
	assert.Equal(t, "art_001", runnable[0].ID)
}

func TestTestSuite_Article(t *testing.T) {
	s := &TestSuite{Articles: []Article{{ArticleCase: domain.ArticleCase{ID: "a"}}}}

	a, ok := s.Article("a")
	require.True(t, ok)
	a.Gold = []string{"g"}
	assert.Equal(t, []string{"g"}, s.Articles[0].Gold)

	_, ok = s.Article("b")
	assert.False(t, ok)
}
