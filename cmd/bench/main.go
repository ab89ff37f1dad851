package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"text/tabwriter"

	"github.com/DjordjeVuckovic/news-highlight/internal/bench/analysis"
	"github.com/DjordjeVuckovic/news-highlight/internal/bench/judgment"
	"github.com/DjordjeVuckovic/news-highlight/internal/bench/metrics"
	"github.com/DjordjeVuckovic/news-highlight/internal/bench/pool"
	"github.com/DjordjeVuckovic/news-highlight/internal/bench/report"
	"github.com/DjordjeVuckovic/news-highlight/internal/bench/runner"
	"github.com/DjordjeVuckovic/news-highlight/internal/bench/spec"
	"github.com/DjordjeVuckovic/news-highlight/internal/bench/suite"
	"github.com/DjordjeVuckovic/news-highlight/internal/consensus"
	"github.com/DjordjeVuckovic/news-highlight/internal/domain"
	"github.com/DjordjeVuckovic/news-highlight/internal/embedding"
	"github.com/DjordjeVuckovic/news-highlight/internal/llm"
	"github.com/DjordjeVuckovic/news-highlight/internal/similarity"
	"github.com/DjordjeVuckovic/news-highlight/internal/storage"
	"github.com/DjordjeVuckovic/news-highlight/internal/storage/factory"
	"github.com/DjordjeVuckovic/news-highlight/internal/storage/pg"
)

func main() {
	cfg := parseFlags()

	level, err := cfg.logLevel()
	if err != nil {
		slog.Error("Invalid flags", "error", err)
		os.Exit(2)
	}
	slog.SetLogLoggerLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch cfg.Mode {
	case "run":
		err = runExperiment(ctx, cfg)
	case "analyze":
		err = runAnalyze(ctx, cfg)
	case "report":
		err = runReport(ctx, cfg)
	case "pool":
		err = runPool(ctx, cfg)
	case "judge":
		err = runJudge(ctx, cfg)
	case "merge":
		err = runMerge(cfg)
	case "import":
		err = runImport(cfg)
	case "history":
		err = runHistory(ctx, cfg)
	default:
		err = fmt.Errorf("unknown mode %q", cfg.Mode)
	}

	if err != nil {
		slog.Error("Bench failed", "mode", cfg.Mode, "error", err)
		stop()
		os.Exit(1)
	}
}

func runExperiment(ctx context.Context, cfg cliConfig) error {
	expSpec, err := spec.LoadFromFile(cfg.SpecPath)
	if err != nil {
		return err
	}
	if cfg.SuitePath != "" {
		expSpec.Suite = cfg.SuitePath
	}
	if cfg.OutputDir != "" {
		expSpec.OutputDir = cfg.OutputDir
	}

	conditions := expSpec.Filter(cfg.conditionIDs())
	if len(conditions) == 0 {
		return fmt.Errorf("no conditions match %q", cfg.Conditions)
	}

	loaded, err := suite.LoadFromFile(expSpec.Suite)
	if err != nil {
		return err
	}
	articles := loaded.Suite.Runnable()
	if skipped := len(loaded.Suite.Articles) - len(articles); skipped > 0 {
		slog.Warn("Skipping articles without body text", "count", skipped)
	}
	if len(articles) == 0 {
		return fmt.Errorf("suite %s has no article with body text", expSpec.Suite)
	}

	rc, err := loadRunConfig()
	if err != nil {
		return err
	}

	var opts []runner.Option
	if expSpec.Similarity.OptimalAssignment {
		opts = append(opts, runner.WithMatchOptions(metrics.WithOptimalAssignment()))
	}
	if expSpec.Similarity.Semantic {
		matcher, err := semanticMatcher(rc.Embedding, expSpec.Similarity.Bands)
		if err != nil {
			return err
		}
		if matcher != nil {
			opts = append(opts, runner.WithSemanticMatcher(matcher))
		} else {
			slog.Warn("Semantic scoring requested but EMBEDDING_ENABLED is not true, scoring exact only")
		}
	}

	analyze := newAnalyzeFunc(llm.NewFactory(rc.LLM), llm.NewPromptStore(expSpec.Prompts))

	r := runner.New(expSpec.RunnerConfig(), opts...)
	exp, runErr := r.RunExperiment(ctx, conditions, articles, analyze)
	if exp == nil {
		return runErr
	}

	// Partial results of a cancelled run are still persisted.
	resultsPath, err := report.WriteResults(exp, expSpec.OutputDir)
	if err != nil {
		return err
	}
	slog.Info("Results written", "path", resultsPath)

	if rc.Storage.Type != storage.JSON {
		if err := persist(context.WithoutCancel(ctx), rc.Storage, exp); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}

	an := analysis.New().Analyze(exp)
	analysisPath, err := report.WriteAnalysis(an, expSpec.OutputDir)
	if err != nil {
		return err
	}
	slog.Info("Analysis written", "path", analysisPath)

	return outputReport(report.Generate(exp, an), cfg.Markdown)
}

// newAnalyzeFunc builds one provider per condition on first use.
func newAnalyzeFunc(f *llm.Factory, prompts *llm.PromptStore) runner.AnalyzeFunc {
	type built struct {
		p   llm.Provider
		err error
	}
	var (
		mu        sync.Mutex
		providers = make(map[string]built)
	)

	provider := func(cond runner.ConditionSpec) (llm.Provider, error) {
		mu.Lock()
		defer mu.Unlock()
		b, ok := providers[cond.ID]
		if !ok {
			b.p, b.err = f.Create(cond.Provider, cond.Model)
			providers[cond.ID] = b
		}
		return b.p, b.err
	}

	return func(ctx context.Context, article domain.ArticleCase, cond runner.ConditionSpec) (*llm.Response, error) {
		p, err := provider(cond)
		if err != nil {
			return nil, err
		}
		prompt, err := prompts.Load(cond.PromptType, cond.Provider, cond.PromptFile)
		if err != nil {
			return nil, err
		}
		return p.Analyze(ctx, llm.Request{ArticleText: article.Body, SystemPrompt: prompt})
	}
}

func semanticMatcher(cfg *embedding.Config, bands similarity.Bands) (similarity.Matcher, error) {
	embedder, err := embedding.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	if embedder == nil {
		return nil, nil
	}
	slog.Info("Semantic scoring enabled", "backend", cfg.Backend, "model", embedder.Model())
	return similarity.NewSemanticScorer(similarity.NewCachedEmbedder(embedder), similarity.WithBands(bands)), nil
}

func persist(ctx context.Context, cfg *factory.StorageConfig, exp *runner.ExperimentResult) error {
	storer, closeFn, err := factory.NewStorer(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := storer.Save(ctx, exp); err != nil {
		return fmt.Errorf("save results to %s: %w", cfg.Type, err)
	}
	slog.Info("Results stored", "storage", cfg.Type, "experiment_id", exp.ExperimentID)
	return nil
}

func runAnalyze(ctx context.Context, cfg cliConfig) error {
	exp, err := readResults(ctx, cfg)
	if err != nil {
		return err
	}

	an := analysis.New().Analyze(exp)
	dir := cfg.OutputDir
	if dir == "" {
		dir = factory.DefaultResultsDir
	}
	path, err := report.WriteAnalysis(an, dir)
	if err != nil {
		return err
	}
	slog.Info("Analysis written", "path", path)

	return outputReport(report.Generate(exp, an), cfg.Markdown)
}

func runReport(ctx context.Context, cfg cliConfig) error {
	exp, err := readResults(ctx, cfg)
	if err != nil {
		return err
	}

	rpt := report.Generate(exp, analysis.New().Analyze(exp))
	if cfg.Output == "" {
		return report.WriteMarkdown(rpt, os.Stdout)
	}
	return writeMarkdownFile(rpt, cfg.Output)
}

func runPool(ctx context.Context, cfg cliConfig) error {
	if cfg.Output == "" {
		return fmt.Errorf("pool mode requires -output")
	}
	exp, err := readResults(ctx, cfg)
	if err != nil {
		return err
	}

	opts := pool.Options{Depth: cfg.PoolDepth}
	if expSpec, err := spec.LoadFromFile(cfg.SpecPath); err == nil {
		opts.Merge = append(opts.Merge, consensus.WithThresholds(expSpec.Consensus.Thresholds))
	} else {
		slog.Debug("Pooling with default consensus thresholds", "spec", cfg.SpecPath, "error", err)
	}
	if cfg.SuitePath != "" {
		loaded, err := suite.LoadFromFile(cfg.SuitePath)
		if err != nil {
			return err
		}
		opts.Titles = make(map[string]string, len(loaded.Suite.Articles))
		for _, a := range loaded.Suite.Articles {
			opts.Titles[a.ID] = a.Title
		}
	}

	pf, err := pool.PoolResults(ctx, exp, opts)
	if err != nil {
		return err
	}
	if err := pool.WritePoolFile(pf, cfg.Output); err != nil {
		return err
	}
	slog.Info("Pool file written", "path", cfg.Output, "articles", len(pf.Articles))
	return nil
}

func runJudge(ctx context.Context, cfg cliConfig) error {
	if cfg.PoolPath == "" {
		return fmt.Errorf("judge mode requires -pool")
	}
	if cfg.Output == "" {
		return fmt.Errorf("judge mode requires -output")
	}

	pf, err := pool.ReadPoolFile(cfg.PoolPath)
	if err != nil {
		return err
	}

	switch cfg.JudgeStrategy {
	case "manual":
		if err := judgment.ExportForAnnotation(pf, cfg.Output); err != nil {
			return err
		}
		slog.Info("Annotation template written", "path", cfg.Output)
	case "consensus":
		jf, err := judgment.GradeAll(ctx, judgment.ConsensusJudge{MinLevel: domain.ConsensusHigh}, "consensus", pf)
		if err != nil {
			return err
		}
		if err := judgment.WriteJudgmentFile(jf, cfg.Output); err != nil {
			return err
		}
		slog.Info("Consensus judgments written", "path", cfg.Output)
	default:
		return fmt.Errorf("unknown judge strategy %q", cfg.JudgeStrategy)
	}
	return nil
}

func runMerge(cfg cliConfig) error {
	if cfg.JudgmentPath == "" || cfg.SuitePath == "" || cfg.Output == "" {
		return fmt.Errorf("merge mode requires -judgment, -suite and -output")
	}

	jf, err := judgment.ImportAnnotations(cfg.JudgmentPath)
	if err != nil {
		return err
	}
	loaded, err := suite.LoadFromFile(cfg.SuitePath)
	if err != nil {
		return err
	}

	merged := judgment.MergeIntoSuite(jf, loaded.Suite)
	if err := suite.WriteJSON(merged, cfg.Output); err != nil {
		return err
	}
	slog.Info("Suite with judged gold written", "path", cfg.Output)
	return nil
}

func runImport(cfg cliConfig) error {
	if cfg.WorkbookPath == "" || cfg.Output == "" {
		return fmt.Errorf("import mode requires -workbook and -output")
	}

	s, err := judgment.ImportWorkbook(cfg.WorkbookPath, judgment.WorkbookOptions{SheetName: cfg.SheetName})
	if err != nil {
		return err
	}

	if cfg.SuitePath != "" {
		bodies, err := suite.LoadFromFile(cfg.SuitePath)
		if err != nil {
			return err
		}
		n := judgment.FillBodies(s, bodies.Suite)
		slog.Info("Filled article bodies", "count", n)
	}

	if err := suite.WriteJSON(s, cfg.Output); err != nil {
		return err
	}
	slog.Info("Suite imported", "path", cfg.Output, "articles", len(s.Articles))
	return nil
}

// readResults loads an experiment from -results, or by -experiment ID from the
// storage selected by STORAGE_TYPE.
func readResults(ctx context.Context, cfg cliConfig) (*runner.ExperimentResult, error) {
	if cfg.ResultsPath != "" {
		return report.ReadResults(cfg.ResultsPath)
	}
	if cfg.ExperimentID == "" {
		return nil, fmt.Errorf("%s mode requires -results or -experiment", cfg.Mode)
	}

	rc, err := loadRunConfig()
	if err != nil {
		return nil, err
	}
	storer, closeFn, err := factory.NewStorer(ctx, rc.Storage)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	reader, ok := storer.(storage.ResultReader)
	if !ok {
		return nil, fmt.Errorf("storage %s cannot load whole experiments, use -results", rc.Storage.Type)
	}
	return reader.Get(ctx, cfg.ExperimentID)
}

func runHistory(ctx context.Context, cfg cliConfig) error {
	if cfg.Provider == "" || cfg.Model == "" {
		return fmt.Errorf("history mode requires -provider and -model")
	}

	rc, err := loadRunConfig()
	if err != nil {
		return err
	}
	if rc.Storage.Type != storage.PG {
		return fmt.Errorf("history mode requires STORAGE_TYPE=%s", storage.PG)
	}

	conn, err := pg.NewConnectionPool(ctx, *rc.Storage.Pg)
	if err != nil {
		return err
	}
	defer conn.Close()

	s, err := pg.NewStorer(conn)
	if err != nil {
		return err
	}
	rows, err := s.ModelHistory(ctx, cfg.Provider, cfg.Model)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "EXPERIMENT\tCOND\tSTATE\tEXACT F1\tSEMANTIC F1\tJSON")
	for _, r := range rows {
		semantic := "-"
		if r.SemanticF1 != nil {
			semantic = fmt.Sprintf("%.4f", *r.SemanticF1)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.4f\t%s\t%.1f%%\n",
			r.ExperimentID, r.ConditionID, r.State, r.ExactF1, semantic, r.JSONCompliance*100)
	}
	return tw.Flush()
}

func outputReport(rpt *report.Report, markdownPath string) error {
	report.WriteTable(rpt, os.Stdout)
	if markdownPath == "" {
		return nil
	}
	if err := writeMarkdownFile(rpt, markdownPath); err != nil {
		return err
	}
	slog.Info("Markdown report written", "path", markdownPath)
	return nil
}

func writeMarkdownFile(rpt *report.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create markdown report: %w", err)
	}
	defer f.Close()
	return report.WriteMarkdown(rpt, f)
}
