// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/lahza"
	"github.com/poiesic/lahza/ai"
	"github.com/poiesic/lahza/reindex"
	"github.com/poiesic/lahza/server"
	"github.com/urfave/cli/v2"
)

// newProvider is replaced in tests.
var newProvider = lahza.NewProvider

func main() {
	if err := loadEnvFiles(".env.local", ".env"); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// loadEnvFiles loads each file that exists. Variables already set, including
// ones from an earlier file, are not overridden.
func loadEnvFiles(paths ...string) error {
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "lahza",
		Usage: "Semantic search over a podcast transcript archive",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
				EnvVars: []string{"LAHZA_LOG_LEVEL"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the search and reindex HTTP API",
				Action: serveCommand,
				Flags: join(storeFlags(), aiFlags(), []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Usage:   "Listen address",
						Value:   ":8080",
						EnvVars: []string{"LAHZA_ADDR"},
					},
					&cli.StringFlag{
						Name:    "cron-secret",
						Usage:   "Secret required by the reindex route",
						EnvVars: []string{"CRON_SECRET"},
					},
					&cli.StringFlag{
						Name:    "redis-url",
						Usage:   "Redis URL for the query embedding cache",
						EnvVars: []string{"REDIS_URL"},
					},
					&cli.IntFlag{
						Name:  "max-batch-limit",
						Usage: "Largest limit accepted by the reindex route",
						Value: server.MaxBatchLimit,
					},
				}),
			},
			{
				Name:   "reindex",
				Usage:  "Drive a remote reindex endpoint until every chunk is processed",
				Action: reindexCommand,
				Flags: join([]cli.Flag{
					&cli.StringFlag{
						Name:     "url",
						Usage:    "Base URL of the deployed service",
						EnvVars:  []string{"LAHZA_URL"},
						Required: true,
					},
					&cli.StringFlag{
						Name:     "secret",
						Usage:    "Cron secret sent as a bearer token",
						EnvVars:  []string{"CRON_SECRET"},
						Required: true,
					},
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Timeout for one batch request",
						Value: 60 * time.Second,
					},
				}, driverFlags()),
			},
			{
				Name:   "reindex-local",
				Usage:  "Re-embed every chunk in process, resuming from the last checkpoint",
				Action: reindexLocalCommand,
				Flags: join(storeFlags(), aiFlags(), driverFlags(), []cli.Flag{
					&cli.DurationFlag{
						Name:  "item-delay",
						Usage: "Pause after each successful chunk",
						Value: reindex.DefaultItemDelay,
					},
					&cli.BoolFlag{
						Name:  "reset",
						Usage: "Ignore the saved checkpoint and start from --offset",
					},
				}),
			},
			{
				Name:      "ingest",
				Usage:     "Load transcript JSON files into the store",
				ArgsUsage: "<transcript.json>...",
				Action:    ingestCommand,
				Flags: join(storeFlags(), aiFlags(), []cli.Flag{
					&cli.IntFlag{
						Name:  "pool-size",
						Usage: "Chunks embedded concurrently",
						Value: 5,
					},
					&cli.IntFlag{
						Name:  "char-limit",
						Usage: "Characters per chunk",
						Value: 800,
					},
					&cli.StringFlag{
						Name:    "clean-model",
						Usage:   "Chat model that cleans each chunk before embedding (no cleaning when empty)",
						EnvVars: []string{"LAHZA_CLEANER_MODEL"},
					},
					&cli.StringFlag{
						Name:    "clean-host",
						Usage:   "OpenAI-compatible chat API for cleaning (Gemini's when empty)",
						EnvVars: []string{"LAHZA_CLEANER_HOST"},
					},
				}),
			},
			{
				Name:      "search",
				Usage:     "Search the archive from the command line",
				ArgsUsage: "<query...>",
				Action:    searchCommand,
				Flags: join(storeFlags(), aiFlags(), []cli.Flag{
					&cli.StringFlag{
						Name:    "redis-url",
						Usage:   "Redis URL for the query embedding cache",
						EnvVars: []string{"REDIS_URL"},
					},
					&cli.Uint64Flag{
						Name:  "episode",
						Usage: "Restrict hits to one episode id",
					},
					&cli.Float64Flag{
						Name:  "threshold",
						Usage: "Minimum similarity",
						Value: 0.65,
					},
					&cli.IntFlag{
						Name:  "count",
						Usage: "Maximum number of hits",
						Value: 10,
					},
					&cli.BoolFlag{
						Name:    "verbose",
						Aliases: []string{"v"},
						Usage:   "Log each search stage",
					},
				}),
			},
			{
				Name:      "diagnose",
				Usage:     "Report the native vector length each embedding model returns, without requesting a dimensionality",
				ArgsUsage: "[model...]",
				Action:    diagnoseCommand,
				Flags:     aiFlags(),
			},
			{
				Name:   "migrate",
				Usage:  "Apply the Postgres schema",
				Action: migrateCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "database-url",
						Usage:    "Postgres connection URL",
						EnvVars:  []string{"DATABASE_URL"},
						Required: true,
					},
				},
			},
		},
	}
}

func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Usage:   "Postgres connection URL",
			EnvVars: []string{"DATABASE_URL"},
		},
		&cli.StringFlag{
			Name:    "db",
			Aliases: []string{"d"},
			Usage:   "Path to BadgerDB database directory (used when no database URL is set)",
			EnvVars: []string{"LAHZA_BADGER_PATH"},
		},
	}
}

func aiFlags() []cli.Flag {
	defaults := ai.DefaultConfig()
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "provider",
			Usage:   "Embedding provider (gemini, openai)",
			Value:   defaults.Provider,
			EnvVars: []string{"LAHZA_EMBEDDING_PROVIDER"},
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "Embedding provider API key",
			EnvVars: []string{"GEMINI_API_KEY", "OPENAI_API_KEY"},
		},
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL (provider default when empty)",
			EnvVars: []string{"LAHZA_EMBEDDING_HOST"},
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name (provider default when empty)",
			EnvVars: []string{"LAHZA_EMBEDDING_MODEL"},
		},
		&cli.DurationFlag{
			Name:  "embedding-timeout",
			Usage: "Timeout for one embedding call",
			Value: defaults.Timeout,
		},
	}
}

func driverFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "batch-size",
			Usage: "Chunks per batch",
			Value: reindex.DefaultBatchSize,
		},
		&cli.IntFlag{
			Name:  "offset",
			Usage: "Offset to start from",
		},
		&cli.IntFlag{
			Name:  "max-attempts",
			Usage: "Attempts per batch before giving up",
			Value: reindex.DefaultMaxAttempts,
		},
		&cli.DurationFlag{
			Name:  "retry-delay",
			Usage: "First delay between attempts, doubled each retry",
			Value: reindex.DefaultRetryDelay,
		},
		&cli.DurationFlag{
			Name:  "batch-delay",
			Usage: "Pause between successful batches",
			Value: reindex.DefaultBatchDelay,
		},
	}
}

func join(groups ...[]cli.Flag) []cli.Flag {
	var flags []cli.Flag
	for _, g := range groups {
		flags = append(flags, g...)
	}
	return flags
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
