package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/lahza"
	"github.com/poiesic/lahza/ai"
	"github.com/poiesic/lahza/core"
	"github.com/poiesic/lahza/ingestion"
	"github.com/poiesic/lahza/reindex"
	"github.com/poiesic/lahza/search"
	"github.com/poiesic/lahza/storage/postgres"
	"github.com/urfave/cli/v2"
)

// aiConfig builds the embedding config from the shared AI flags.
func aiConfig(c *cli.Context) *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithProvider(c.String("provider")),
		ai.WithAPIKey(c.String("api-key")),
		ai.WithTimeout(c.Duration("embedding-timeout")),
	}
	if host := c.String("embedding-host"); host != "" {
		opts = append(opts, ai.WithEmbeddingHost(host))
	}
	if model := c.String("embedding-model"); model != "" {
		opts = append(opts, ai.WithEmbeddingModel(model))
	}
	if model := c.String("clean-model"); model != "" {
		opts = append(opts, ai.WithCleaner(c.String("clean-host"), model))
	}
	return ai.NewConfig(opts...)
}

func appConfig(c *cli.Context) *lahza.Config {
	config := lahza.DefaultConfig()
	config.AI = aiConfig(c)
	config.DatabaseURL = c.String("database-url")
	config.BadgerPath = c.String("db")
	config.RedisURL = c.String("redis-url")
	config.CronSecret = c.String("cron-secret")
	if c.IsSet("max-batch-limit") {
		config.MaxBatchLimit = c.Int("max-batch-limit")
	}
	config.ItemDelay = c.Duration("item-delay")
	return config
}

func openApp(c *cli.Context) (*lahza.App, error) {
	config := appConfig(c)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	provider, err := newProvider(config.AI)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}
	app, err := lahza.Open(c.Context, config, lahza.WithProvider(provider))
	if err != nil {
		provider.Close()
		return nil, err
	}
	return app, nil
}

func driverConfig(c *cli.Context) reindex.DriverConfig {
	return reindex.DriverConfig{
		BatchSize:   c.Int("batch-size"),
		StartOffset: c.Int("offset"),
		MaxAttempts: c.Int("max-attempts"),
		RetryDelay:  c.Duration("retry-delay"),
		BatchDelay:  c.Duration("batch-delay"),
	}
}

func serveCommand(c *cli.Context) error {
	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	if c.String("cron-secret") == "" {
		slog.Warn("no cron secret configured, the reindex route will answer 500")
	}

	srv, err := app.NewServer()
	if err != nil {
		return err
	}
	return srv.ListenAndServe(c.Context, c.String("addr"))
}

func reindexCommand(c *cli.Context) error {
	runner := reindex.NewHTTPRunner(c.String("url"), c.String("secret"), c.Duration("timeout"))
	driver := reindex.NewDriver(runner, driverConfig(c), reindex.WithProgress(c.App.ErrWriter))

	fmt.Fprintf(c.App.ErrWriter, "Endpoint: %s\n", strings.TrimSuffix(c.String("url"), "/")+"/api/reindex")
	summary, err := driver.Run(c.Context)
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	printSummary(c, summary)
	return nil
}

func reindexLocalCommand(c *cli.Context) error {
	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	config := driverConfig(c)
	if c.Bool("reset") {
		err := app.Store().SaveCheckpoint(c.Context, &core.Checkpoint{Name: reindex.DefaultCheckpointName, Offset: 0})
		if err != nil {
			return fmt.Errorf("failed to reset checkpoint: %w", err)
		}
	}

	driver, err := app.NewLocalDriver(config, reindex.WithProgress(c.App.ErrWriter))
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", app.Provider().Model())
	summary, err := driver.Run(c.Context)
	if err != nil {
		return fmt.Errorf("reindex failed: %w", err)
	}
	printSummary(c, summary)
	return nil
}

func printSummary(c *cli.Context, s *reindex.Summary) {
	fmt.Fprintf(c.App.Writer, "Processed %d chunks in %d batches (ok %d, failed %d, error %d) in %s\n",
		s.Processed, s.Batches, s.Succeeded, s.Failed, s.Errored, s.Elapsed.Round(time.Millisecond))
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one transcript file is required")
	}

	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	pipeline, err := app.NewIngestionPipeline(
		ingestion.WithPoolSize(c.Int("pool-size")),
		ingestion.WithCharLimit(c.Int("char-limit")),
	)
	if err != nil {
		return err
	}
	defer pipeline.Release()

	for _, path := range c.Args().Slice() {
		transcript, err := ingestion.LoadTranscript(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		report, err := pipeline.Ingest(c.Context, transcript)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		fmt.Fprintf(c.App.Writer, "%s: episode %d %q, %d segments -> %d chunks (%d embedded, %d without embedding, %d cleaned)\n",
			path, report.Episode.Id, report.Episode.Title, report.Segments, report.Inserted, report.Embedded, report.Unembedded, report.Cleaned)
	}
	return nil
}

func searchCommand(c *cli.Context) error {
	query := strings.Join(c.Args().Slice(), " ")
	if strings.TrimSpace(query) == "" {
		return search.ErrEmptyQuery
	}

	app, err := openApp(c)
	if err != nil {
		return err
	}
	defer app.Close()

	searcher, err := app.NewSearcher(
		search.WithThreshold(float32(c.Float64("threshold"))),
		search.WithCount(c.Int("count")),
	)
	if err != nil {
		return err
	}

	var monitor search.SearchMonitor
	if c.Bool("verbose") {
		monitor = search.NewLogMonitor(slog.Default())
	}
	results, err := searcher.SearchWithMonitor(c.Context, query, core.ID(c.Uint64("episode")), monitor)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		fmt.Fprintln(c.App.Writer, "No results.")
		return nil
	}
	for i, r := range results {
		marker := " "
		if search.ContainsAllTerms(r.Content, query) {
			marker = "*"
		}
		fmt.Fprintf(c.App.Writer, "%2d.%s %.3f  %s [%s-%s]\n    %s\n    %s\n",
			i+1, marker, r.Similarity, r.EpisodeTitle,
			timestamp(r.StartTime), timestamp(r.EndTime),
			ai.Preview(r.Content, 200), r.EpisodeURL)
	}
	return nil
}

// timestamp renders seconds as h:mm:ss or m:ss.
func timestamp(seconds float64) string {
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func diagnoseCommand(c *cli.Context) error {
	models := c.Args().Slice()
	if len(models) == 0 {
		models = []string{"gemini-embedding-001", "text-embedding-004"}
	}

	fmt.Fprintln(c.App.Writer, "Starting diagnostic...")
	failures := 0
	for _, model := range models {
		config := aiConfig(c)
		config.EmbeddingModel = model
		config.NativeDimensions = true
		if err := config.Validate(); err != nil {
			return err
		}

		provider, err := newProvider(config)
		if err != nil {
			return fmt.Errorf("failed to create embedding provider: %w", err)
		}
		vector, err := provider.Embedder().EmbedText(c.Context, "Hello world")
		provider.Close()

		if err != nil {
			failures++
			fmt.Fprintf(c.App.Writer, "Model %s: %v\n", model, err)
			continue
		}
		fmt.Fprintf(c.App.Writer, "Model %s returned vector with length: %d\n", model, len(vector))
	}

	if failures == len(models) {
		return fmt.Errorf("no model returned a usable vector")
	}
	return nil
}

func migrateCommand(c *cli.Context) error {
	if err := postgres.Migrate(c.Context, c.String("database-url")); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	fmt.Fprintln(c.App.Writer, "Schema applied.")
	return nil
}
