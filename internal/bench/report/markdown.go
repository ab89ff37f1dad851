package report

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/DjordjeVuckovic/news-highlight/internal/bench/analysis"
	"github.com/DjordjeVuckovic/news-highlight/internal/llm"
)

// WriteMarkdown renders the report as a Markdown document.
func WriteMarkdown(r *Report, w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "# Experiment %s\n\n", r.Meta.ExperimentID)
	fmt.Fprintf(bw, "- Run: `%s`\n", r.Meta.RunID)
	fmt.Fprintf(bw, "- Date: %s\n", r.Meta.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(bw, "- Articles: %d\n", r.Meta.ArticleCount)
	fmt.Fprintf(bw, "- Similarity bands: perfect >= %.2f, partial >= %.2f\n\n",
		r.Meta.Config.Bands.Perfect, r.Meta.Config.Bands.Partial)

	fmt.Fprintf(bw, "## Conditions\n\n")
	mdRow(bw, "ID", "Prompt", "Model", "State", "Exact F1", "Semantic F1", "JSON compliance", "Failed")
	mdSep(bw, 8)
	for _, c := range r.Conditions {
		sem := "N/A"
		if c.Semantic != nil {
			sem = fmtMeanStd(c.Semantic.F1, c.Semantic.F1Std)
		}
		state := string(c.State)
		if conditionFailed(c) {
			state = "**" + state + "**"
		}
		mdRow(bw,
			c.ID,
			string(c.PromptType),
			fmt.Sprintf("%s/%s", c.Provider, c.Model),
			state,
			fmtMeanStd(c.Exact.F1, c.Exact.F1Std),
			sem,
			fmtPercent(c.JSONCompliance),
			fmt.Sprintf("%d/%d", c.Failed, c.Articles),
		)
	}
	fmt.Fprintln(bw)

	if an := r.Analysis; an != nil {
		writeMarkdownAnalysis(bw, an)
	}

	return bw.Flush()
}

func writeMarkdownAnalysis(bw *bufio.Writer, an *analysis.Analysis) {
	sig := make(map[string]analysis.SignificanceEntry, len(an.PromptSignificance))
	for _, s := range an.PromptSignificance {
		sig[s.ConditionA] = s
	}

	fmt.Fprintf(bw, "## Prompt improvement (%s F1)\n\n", an.Metric)
	mdRow(bw, "Model", "Baseline", "Optimized", "PIR", "t", "p", "Significant")
	mdSep(bw, 7)
	for _, p := range an.PIR {
		t, pv, mark := testCells(sig[p.OptimizedID])
		pir := fmtPIR(p)
		if p.Error != "" {
			pir += " (" + p.Error + ")"
		}
		mdRow(bw, p.ModelKey.String(), fmtScore(p.BaselineF1), fmtScore(p.OptimizedF1), pir, t, pv, mark)
	}
	fmt.Fprintln(bw)

	if len(an.ModelSignificance) > 0 {
		fmt.Fprintf(bw, "## Model comparisons\n\n")
		mdRow(bw, "Comparison", "Pairs", "t", "p", "Significant")
		mdSep(bw, 5)
		for _, e := range an.ModelSignificance {
			t, pv, mark := testCells(e)
			if e.Error != "" {
				mark = e.Error
			}
			mdRow(bw, e.Label, fmt.Sprintf("%d", e.Pairs), t, pv, mark)
		}
		fmt.Fprintln(bw)
	}

	fmt.Fprintf(bw, "## Inter-model agreement\n\n")
	if an.IMA.Overall == nil {
		fmt.Fprintf(bw, "Not available: %s\n\n", an.IMA.Error)
	} else {
		mdRow(bw, "Scope", "Jaccard")
		mdSep(bw, 2)
		mdRow(bw, "overall", fmtScore(*an.IMA.Overall))
		for _, pt := range sortedPromptTypes(an.IMA.ByPromptType) {
			mdRow(bw, string(pt), fmtScore(an.IMA.ByPromptType[pt]))
		}
		fmt.Fprintln(bw)
	}

	s := an.Summary
	fmt.Fprintf(bw, "## Summary\n\n")
	fmt.Fprintf(bw, "- Conditions: %d\n", s.TotalConditions)
	fmt.Fprintf(bw, "- Articles: %d\n", s.TotalArticles)
	fmt.Fprintf(bw, "- API calls: %d\n", s.TotalAPICalls)
	fmt.Fprintf(bw, "- Failed articles: %d\n", s.FailedArticles)
}

func mdRow(w io.Writer, cells ...string) {
	for i, c := range cells {
		cells[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	fmt.Fprintf(w, "| %s |\n", strings.Join(cells, " | "))
}

func mdSep(w io.Writer, n int) {
	fmt.Fprintf(w, "|%s\n", strings.Repeat("---|", n))
}

func sortedPromptTypes(m map[llm.PromptType]float64) []llm.PromptType {
	out := make([]llm.PromptType, 0, len(m))
	for pt := range m {
		out = append(out, pt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
