package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/DjordjeVuckovic/news-highlight/internal/bench/analysis"
	"github.com/DjordjeVuckovic/news-highlight/internal/bench/runner"
)

func WriteTable(r *Report, w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "\n=== Sentence Selection Benchmark: %s ===\n\n", r.Meta.ExperimentID)

	writeConditionTable(tw, r)
	writeLatencyTable(tw, r)
	if r.Analysis != nil {
		writePIRTable(tw, r.Analysis)
		writeSignificanceTable(tw, "Model Comparisons", r.Analysis.ModelSignificance)
		writeIMA(tw, r.Analysis)
	}

	tw.Flush()
}

func writeRow(tw *tabwriter.Writer, cells ...string) {
	fmt.Fprintln(tw, strings.Join(cells, "\t"))
}

func writeHeader(tw *tabwriter.Writer, header ...string) {
	writeRow(tw, header...)
	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	writeRow(tw, sep...)
}

func writeConditionTable(tw *tabwriter.Writer, r *Report) {
	fmt.Fprintf(tw, "Conditions (%d articles)\n\n", r.Meta.ArticleCount)
	writeHeader(tw, "ID", "Prompt", "Provider", "Model", "State",
		"Exact P", "Exact R", "Exact F1", "Sem P", "Sem R", "Sem F1", "JSON", "Failed")

	for _, c := range r.Conditions {
		sp, sr, sf := "N/A", "N/A", "N/A"
		if c.Semantic != nil {
			sp, sr, sf = fmtScore(c.Semantic.Precision), fmtScore(c.Semantic.Recall), fmtMeanStd(c.Semantic.F1, c.Semantic.F1Std)
		}
		writeRow(tw,
			c.ID,
			string(c.PromptType),
			string(c.Provider),
			c.Model,
			string(c.State),
			fmtScore(c.Exact.Precision),
			fmtScore(c.Exact.Recall),
			fmtMeanStd(c.Exact.F1, c.Exact.F1Std),
			sp, sr, sf,
			fmtPercent(c.JSONCompliance),
			fmt.Sprintf("%d/%d", c.Failed, c.Articles),
		)
	}
	fmt.Fprintln(tw)
}

func writeLatencyTable(tw *tabwriter.Writer, r *Report) {
	fmt.Fprintf(tw, "Latency per call\n\n")
	writeHeader(tw, "ID", "Mean", "p50", "p95", "Max", "Stddev", "Samples", "Tokens")

	for _, c := range r.Conditions {
		s := c.Latency
		writeRow(tw,
			c.ID,
			fmtMs(s.MeanMs),
			fmtMs(s.MedianMs),
			fmtMs(s.P95Ms),
			fmtMs(s.MaxMs),
			fmtMs(s.StddevMs),
			fmt.Sprintf("%d", s.SampleCount),
			fmt.Sprintf("%d", c.TotalTokens),
		)
	}
	fmt.Fprintln(tw)
}

func writePIRTable(tw *tabwriter.Writer, an *analysis.Analysis) {
	fmt.Fprintf(tw, "Prompt Improvement (%s F1)\n\n", an.Metric)
	writeHeader(tw, "Model", "Baseline", "Optimized", "Abs", "PIR", "t", "p", "Sig")

	sig := make(map[string]analysis.SignificanceEntry, len(an.PromptSignificance))
	for _, s := range an.PromptSignificance {
		sig[s.ConditionA] = s
	}

	for _, p := range an.PIR {
		t, pv, mark := testCells(sig[p.OptimizedID])
		writeRow(tw,
			p.ModelKey.String(),
			fmtScore(p.BaselineF1),
			fmtScore(p.OptimizedF1),
			fmt.Sprintf("%+.4f", p.AbsoluteImprovement),
			fmtPIR(p),
			t, pv, mark,
		)
	}
	fmt.Fprintln(tw)
}

func writeSignificanceTable(tw *tabwriter.Writer, title string, entries []analysis.SignificanceEntry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(tw, "%s\n\n", title)
	writeHeader(tw, "Comparison", "Pairs", "Mean diff", "t", "p", "Sig")

	for _, e := range entries {
		t, pv, mark := testCells(e)
		diff := "N/A"
		if e.Test != nil {
			diff = fmt.Sprintf("%+.4f", e.Test.MeanDiff)
		}
		writeRow(tw, e.Label, fmt.Sprintf("%d", e.Pairs), diff, t, pv, mark)
	}
	fmt.Fprintln(tw)
}

func writeIMA(tw *tabwriter.Writer, an *analysis.Analysis) {
	fmt.Fprintf(tw, "Inter-Model Agreement (Jaccard)\n\n")
	if an.IMA.Overall == nil {
		fmt.Fprintf(tw, "N/A: %s\n\n", an.IMA.Error)
		return
	}
	writeHeader(tw, "Scope", "IMA")
	writeRow(tw, "overall", fmtScore(*an.IMA.Overall))
	for _, pt := range sortedPromptTypes(an.IMA.ByPromptType) {
		writeRow(tw, string(pt), fmtScore(an.IMA.ByPromptType[pt]))
	}
	if an.IMA.Improvement != nil {
		writeRow(tw, "optimized - baseline", fmt.Sprintf("%+.4f", *an.IMA.Improvement))
	}
	fmt.Fprintln(tw)
}

func fmtScore(v float64) string {
	return fmt.Sprintf("%.4f", v)
}

func fmtMeanStd(mean, std float64) string {
	return fmt.Sprintf("%.4f±%.4f", mean, std)
}

func fmtPercent(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

func fmtMs(ms float64) string {
	if ms == 0 {
		return "-"
	}
	if ms < 1000 {
		return fmt.Sprintf("%.0fms", ms)
	}
	return fmt.Sprintf("%.2fs", ms/1000)
}

func fmtPIR(p analysis.PIREntry) string {
	if p.PIR == nil {
		return "N/A"
	}
	return fmt.Sprintf("%+.1f%%", *p.PIR)
}

func testCells(e analysis.SignificanceEntry) (t, p, mark string) {
	if e.Test == nil {
		return "N/A", "N/A", ""
	}
	mark = "no"
	if e.Test.Significant {
		mark = "yes"
	}
	return fmt.Sprintf("%.3f", e.Test.Statistic), fmt.Sprintf("%.4f", e.Test.PValue), mark
}

func conditionFailed(c ConditionRow) bool {
	return c.State == runner.StateFailed
}
