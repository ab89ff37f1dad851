package judgment

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/tealeg/xlsx/v2"

	"github.com/DjordjeVuckovic/news-highlight/internal/bench/suite"
	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
	"github.com/DjordjeVuckovic/news-highlight/pkg/utils"
)

// Workbook column headers of the annotated dataset.
const (
	ColArticleID = "article_id"
	ColIssue     = "이슈"
	ColNewspaper = "신문사"
	ColTitle     = "기사제목"
	ColURL       = "URL"
	ColBody      = "본문"
)

// GoldColumns hold one annotated core sentence each.
var GoldColumns = []string{"핵심1", "핵심2", "핵심3", "핵심4"}

type WorkbookOptions struct {
	// SheetName selects a sheet. The first sheet is used when empty.
	SheetName string
	SuiteName string
}

// ImportWorkbook reads the annotated dataset workbook into a suite. The
// header row is matched by name so column order does not matter. Bodies are
// read from an optional 본문 column; articles without one are kept with an
// empty body and filled in later.
func ImportWorkbook(path string, opts WorkbookOptions) (*suite.TestSuite, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("xlsx: open file: %w", err)
	}

	sheet, err := pickSheet(f, opts.SheetName)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, fmt.Errorf("xlsx: sheet %q is empty", sheet.Name)
	}

	cols := headerIndex(sheet.Rows[0])
	if _, ok := cols[ColArticleID]; !ok {
		return nil, fmt.Errorf("xlsx: missing %q column", ColArticleID)
	}

	s := &suite.TestSuite{Name: opts.SuiteName, Version: suite.CacheVersion}
	for i, row := range sheet.Rows[1:] {
		get := func(name string) string {
			idx, ok := cols[name]
			if !ok || idx >= len(row.Cells) {
				return ""
			}
			return strings.TrimSpace(row.Cells[idx].String())
		}

		id := get(ColArticleID)
		if id == "" {
			slog.Debug("skipping workbook row without article id", "row", i+2)
			continue
		}

		gold := make([]string, 0, len(GoldColumns))
		for _, c := range GoldColumns {
			gold = append(gold, get(c))
		}
		gold = utils.RemoveBlankStrings(gold)
		if len(gold) == 0 {
			slog.Warn("no gold sentences found", "article", id)
		}

		s.Articles = append(s.Articles, suite.Article{ArticleCase: domain.ArticleCase{
			ID:        id,
			Issue:     get(ColIssue),
			Newspaper: get(ColNewspaper),
			Title:     get(ColTitle),
			URL:       get(ColURL),
			Language:  domain.ArticleDefaultLanguage,
			Body:      get(ColBody),
			Gold:      gold,
		}})
	}

	slog.Info("imported workbook", "path", path, "articles", len(s.Articles))
	return s, nil
}

// FillBodies copies body text from an existing suite into articles that have none.
func FillBodies(dst, src *suite.TestSuite) int {
	filled := 0
	for i := range dst.Articles {
		a := &dst.Articles[i]
		if a.HasBody() {
			continue
		}
		if other, ok := src.Article(a.ID); ok && other.HasBody() {
			a.Body = other.Body
			filled++
		}
	}
	return filled
}

func pickSheet(f *xlsx.File, name string) (*xlsx.Sheet, error) {
	if name != "" {
		sheet, ok := f.Sheet[name]
		if !ok {
			return nil, fmt.Errorf("xlsx: sheet %q not found", name)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, fmt.Errorf("xlsx: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func headerIndex(row *xlsx.Row) map[string]int {
	cols := make(map[string]int, len(row.Cells))
	for i, c := range row.Cells {
		name := strings.TrimSpace(c.String())
		if name == "" {
			continue
		}
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
	}
	return cols
}
