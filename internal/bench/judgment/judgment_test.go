package judgment

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/DjordjeVuckovic/news-highlight/internal/bench/pool"
	"github.com/DjordjeVuckovic/news-highlight/internal/bench/suite"
	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
)

func samplePool() *pool.PoolFile {
	return &pool.PoolFile{
		ExperimentID: "exp_1",
		Articles: []pool.PoolEntry{
			{
				ArticleID: "art_1",
				Title:     "기사 1",
				Sentences: []pool.PooledSentence{
					{Text: "모두가 고른 문장.", Sources: []string{"A", "B", "C"}, Level: "high"},
					{Text: "둘이 고른 문장.", Sources: []string{"A", "B"}, Level: "medium"},
					{Text: "하나만 고른 문장.", Sources: []string{"C"}, Level: "low"},
				},
			},
		},
	}
}

func TestExportImportAnnotations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "judgments", "manual.yaml")
	require.NoError(t, ExportForAnnotation(samplePool(), path))

	jf, err := ImportAnnotations(path)
	require.NoError(t, err)
	assert.Equal(t, "manual", jf.Strategy)
	assert.Equal(t, "exp_1", jf.ExperimentID)
	require.Len(t, jf.Articles, 1)

	entry := jf.Articles[0]
	assert.Equal(t, "기사 1", entry.Title)
	require.Len(t, entry.Sentences, 3)
	for _, s := range entry.Sentences {
		assert.Equal(t, Unlabeled, s.Label)
	}
	assert.False(t, entry.Judged())
	assert.Empty(t, entry.Gold())
}

func TestImportAnnotations_InvalidLabel(t *testing.T) {
	jf := &JudgmentFile{Articles: []JudgmentEntry{{
		ArticleID: "art_1",
		Sentences: []JudgedSentence{{Text: "x", Label: 3}},
	}}}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, WriteJudgmentFile(jf, path))

	_, err := ImportAnnotations(path)
	assert.ErrorContains(t, err, "invalid label")
}

func TestConsensusJudge(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults to high agreement", func(t *testing.T) {
		graded, err := ConsensusJudge{}.Grade(ctx, samplePool().Articles[0])
		require.NoError(t, err)
		require.Len(t, graded, 3)
		assert.Equal(t, []int{Core, NotCore, NotCore}, labels(graded))
	})

	t.Run("medium and above", func(t *testing.T) {
		graded, err := ConsensusJudge{MinLevel: domain.ConsensusMedium}.Grade(ctx, samplePool().Articles[0])
		require.NoError(t, err)
		assert.Equal(t, []int{Core, Core, NotCore}, labels(graded))
	})

	t.Run("grade all", func(t *testing.T) {
		jf, err := GradeAll(ctx, ConsensusJudge{}, "consensus", samplePool())
		require.NoError(t, err)
		assert.Equal(t, "consensus", jf.Strategy)
		require.Len(t, jf.Articles, 1)
		assert.Equal(t, []string{"모두가 고른 문장."}, jf.Articles[0].Gold())
	})
}

func labels(js []JudgedSentence) []int {
	out := make([]int, len(js))
	for i, s := range js {
		out[i] = s.Label
	}
	return out
}

func TestMergeIntoSuite(t *testing.T) {
	s := &suite.TestSuite{
		Name: "test",
		Articles: []suite.Article{
			{ArticleCase: domain.ArticleCase{ID: "art_1", Gold: []string{"old"}}},
			{ArticleCase: domain.ArticleCase{ID: "art_2", Gold: []string{"untouched"}}},
		},
	}

	jf := &JudgmentFile{Articles: []JudgmentEntry{
		{
			ArticleID: "art_1",
			Sentences: []JudgedSentence{
				{Text: "core one.", Label: Core},
				{Text: "not core.", Label: NotCore},
				{Text: "core  one.", Label: Core},
			},
			Extra: []string{" added by annotator. "},
		},
		{
			ArticleID: "art_2",
			Sentences: []JudgedSentence{{Text: "skipped", Label: Unlabeled}},
		},
		{ArticleID: "missing", Extra: []string{"x"}},
	}}

	merged := MergeIntoSuite(jf, s)

	assert.Equal(t, []string{"core one.", "added by annotator."}, merged.Articles[0].Gold)
	assert.Equal(t, []string{"untouched"}, merged.Articles[1].Gold)
	// original is not modified
	assert.Equal(t, []string{"old"}, s.Articles[0].Gold)
}

func createWorkbook(t *testing.T, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Sheet1")
	require.NoError(t, err)
	for _, rowData := range rows {
		row := sheet.AddRow()
		for _, cellData := range rowData {
			row.AddCell().SetString(cellData)
		}
	}
	path := filepath.Join(t.TempDir(), "dataset.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestImportWorkbook(t *testing.T) {
	t.Run("reads articles and gold columns", func(t *testing.T) {
		path := createWorkbook(t, [][]string{
			{"기사제목", "article_id", "이슈", "신문사", "URL", "핵심1", "핵심2", "핵심3", "핵심4"},
			{"금리 동결", "art_001", "금리", "한국일보", "https://example.com/1", "첫 문장.", "", "셋째 문장.", ""},
			{"", "", "", "", "", "", "", "", ""},
			{"제목 없음", "art_002", "", "", "", "", "", "", ""},
		})

		s, err := ImportWorkbook(path, WorkbookOptions{SuiteName: "issue50"})
		require.NoError(t, err)
		assert.Equal(t, "issue50", s.Name)
		require.Len(t, s.Articles, 2)

		a := s.Articles[0]
		assert.Equal(t, "art_001", a.ID)
		assert.Equal(t, "금리", a.Issue)
		assert.Equal(t, "한국일보", a.Newspaper)
		assert.Equal(t, "금리 동결", a.Title)
		assert.Equal(t, "https://example.com/1", a.URL)
		assert.Equal(t, []string{"첫 문장.", "셋째 문장."}, a.Gold)
		assert.False(t, a.HasBody())

		assert.Empty(t, s.Articles[1].Gold)
	})

	t.Run("missing article id column", func(t *testing.T) {
		path := createWorkbook(t, [][]string{{"이슈", "핵심1"}, {"a", "b"}})
		_, err := ImportWorkbook(path, WorkbookOptions{})
		assert.ErrorContains(t, err, "article_id")
	})

	t.Run("unknown sheet", func(t *testing.T) {
		path := createWorkbook(t, [][]string{{"article_id"}})
		_, err := ImportWorkbook(path, WorkbookOptions{SheetName: "nope"})
		assert.ErrorContains(t, err, "not found")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ImportWorkbook(filepath.Join(t.TempDir(), "none.xlsx"), WorkbookOptions{})
		assert.Error(t, err)
	})
}

func TestFillBodies(t *testing.T) {
	dst := &suite.TestSuite{Articles: []suite.Article{
		{ArticleCase: domain.ArticleCase{ID: "a"}},
		{ArticleCase: domain.ArticleCase{ID: "b", Body: "keep"}},
		{ArticleCase: domain.ArticleCase{ID: "c"}},
	}}
	src := &suite.TestSuite{Articles: []suite.Article{
		{ArticleCase: domain.ArticleCase{ID: "a", Body: "from cache"}},
		{ArticleCase: domain.ArticleCase{ID: "b", Body: "other"}},
	}}

	assert.Equal(t, 1, FillBodies(dst, src))
	assert.Equal(t, "from cache", dst.Articles[0].Body)
	assert.Equal(t, "keep", dst.Articles[1].Body)
	assert.Empty(t, dst.Articles[2].Body)
}
