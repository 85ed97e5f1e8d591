// Copyright 2026 Poiesic Systems
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
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/affinity/ai"
	"github.com/poiesic/affinity/ai/openai"
	"github.com/poiesic/affinity/batch"
	"github.com/poiesic/affinity/core"
	"github.com/poiesic/affinity/ingest"
	"github.com/poiesic/affinity/match"
	"github.com/poiesic/affinity/storage/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	// Optional .env next to the binary; flags and env vars win over it
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "affinity",
		Usage: "Semantic matching between seeker and provider profiles",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "load",
				Usage:  "Load profile registrations from a JSON Lines export",
				Action: loadCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the JSON Lines registration export",
						Required: true,
					},
				},
			},
			{
				Name:   "compute",
				Usage:  "Compute persisted matches for the seeker population in batches",
				Action: computeCommand,
				Flags: append([]cli.Flag{
					dbFlag(),
					&cli.IntFlag{
						Name:  "batch",
						Usage: "1-based batch number to run (0 runs all remaining batches)",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of source profiles per batch",
						Value: 10,
					},
					&cli.IntFlag{
						Name:  "top",
						Usage: "Matches persisted per source profile",
						Value: 1,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed embeddings",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				}, embeddingFlags()...),
			},
			{
				Name:   "match",
				Usage:  "Compute top matches for one profile on demand",
				Action: matchCommand,
				Flags: append([]cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Registered email address of the source profile",
						Required: true,
					},
					&cli.IntFlag{
						Name:  "top",
						Usage: "Maximum number of matches to return",
						Value: 5,
					},
				}, embeddingFlags()...),
			},
			{
				Name:   "top",
				Usage:  "Show the highest-scoring persisted matches",
				Action: topCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Number of matches to show",
						Value: 10,
					},
				},
			},
			{
				Name:   "contact",
				Usage:  "Record that an introduction between two profiles was sent",
				Action: contactCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.StringFlag{
						Name:     "seeker",
						Usage:    "Seeker email address",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "provider",
						Usage:    "Provider email address",
						Required: true,
					},
				},
			},
			{
				Name:   "counts",
				Usage:  "Show profile and match counts",
				Action: countsCommand,
				Flags:  []cli.Flag{dbFlag()},
			},
			{
				Name:   "reset",
				Usage:  "Delete persisted matches (and optionally profiles)",
				Action: resetCommand,
				Flags: []cli.Flag{
					dbFlag(),
					&cli.BoolFlag{
						Name:  "profiles",
						Usage: "Also delete all profiles",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func dbFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		EnvVars:  []string{"AFFINITY_DB"},
		Required: true,
	}
}

func embeddingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "embedding-host",
			Usage:   "Embedding service host URL",
			EnvVars: []string{"AFFINITY_EMBEDDING_HOST"},
			Value:   "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:    "embedding-model",
			Usage:   "Embedding model name",
			EnvVars: []string{"AFFINITY_EMBEDDING_MODEL"},
			Value:   "embeddinggemma",
		},
		&cli.StringFlag{
			Name:    "api-token",
			Usage:   "API token for the embedding service",
			EnvVars: []string{"AFFINITY_API_TOKEN"},
		},
	}
}

func aiConfigFromFlags(c *cli.Context) (*ai.Config, error) {
	config := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithAPIToken(c.String("api-token")),
	)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid embedding configuration: %w", err)
	}
	return config, nil
}

func newProvider(config *ai.Config) (ai.Provider, error) {
	provider, err := openai.NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding provider: %w", err)
	}
	return provider, nil
}

func openRepositories(c *cli.Context) (*badger.Repositories, error) {
	repos, err := badger.NewRepositories(c.String("db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return repos, nil
}

func loadCommand(c *cli.Context) error {
	ctx := context.Background()

	repos, err := openRepositories(c)
	if err != nil {
		return err
	}
	defer repos.Close()

	pipeline, err := ingest.NewPipeline(repos.Profiles)
	if err != nil {
		return fmt.Errorf("failed to create load pipeline: %w", err)
	}
	defer pipeline.Release()

	stats, err := pipeline.LoadFile(ctx, c.String("file"))
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Loaded %d profiles (%d skipped)\n", stats.Loaded, stats.Skipped)
	return nil
}

func computeCommand(c *cli.Context) error {
	ctx := context.Background()

	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	repos, err := openRepositories(c)
	if err != nil {
		return err
	}
	defer repos.Close()

	provider, err := newProvider(aiConfig)
	if err != nil {
		return err
	}
	defer provider.Close()

	engine, err := match.NewEngine(repos.Profiles, provider)
	if err != nil {
		return fmt.Errorf("failed to create matching engine: %w", err)
	}

	config := batch.DefaultConfig()
	config.BatchSize = c.Int("batch-size")
	config.TopN = c.Int("top")
	config.MaxRetries = c.Int("max-retries")
	config.RetryDelay = c.Duration("retry-delay")

	if config.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if config.TopN <= 0 {
		return fmt.Errorf("top must be greater than 0")
	}
	if config.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	controller := batch.NewController(repos.Profiles, repos.Matches, engine, config)

	if batchNumber := c.Int("batch"); batchNumber > 0 {
		progress, err := controller.Run(ctx, batchNumber, config.BatchSize)
		if err != nil {
			return fmt.Errorf("batch %d failed: %w", batchNumber, err)
		}
		return printJSON(progress)
	}

	if err := controller.RunAll(ctx, 1, os.Stderr); err != nil {
		return fmt.Errorf("match computation failed: %w", err)
	}
	return nil
}

func matchCommand(c *cli.Context) error {
	ctx := context.Background()

	aiConfig, err := aiConfigFromFlags(c)
	if err != nil {
		return err
	}

	repos, err := openRepositories(c)
	if err != nil {
		return err
	}
	defer repos.Close()

	provider, err := newProvider(aiConfig)
	if err != nil {
		return err
	}
	defer provider.Close()

	engine, err := match.NewEngine(repos.Profiles, provider)
	if err != nil {
		return fmt.Errorf("failed to create matching engine: %w", err)
	}

	results, err := engine.FindMatchesByEmail(ctx, c.String("email"), c.Int("top"))
	if err != nil {
		return fmt.Errorf("match failed: %w", err)
	}

	return printJSON(results)
}

func topCommand(c *cli.Context) error {
	ctx := context.Background()

	repos, err := openRepositories(c)
	if err != nil {
		return err
	}
	defer repos.Close()

	records, err := repos.Matches.ListTop(ctx, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	type row struct {
		Seeker     string  `json:"seeker"`
		Provider   string  `json:"provider"`
		Score      float64 `json:"score"`
		Percentage float64 `json:"percentage"`
	}

	rows := make([]row, 0, len(records))
	for _, record := range records {
		source, err := repos.Profiles.GetProfile(ctx, record.SourceId)
		if err != nil {
			return err
		}
		candidate, err := repos.Profiles.GetProfile(ctx, record.CandidateId)
		if err != nil {
			return err
		}

		r := row{
			Score:      core.RoundScore(record.Score),
			Percentage: core.RoundPercentage(record.Score),
		}
		if source.Population == core.PopulationSeeker {
			r.Seeker, r.Provider = source.Email, candidate.Email
		} else {
			r.Seeker, r.Provider = candidate.Email, source.Email
		}
		rows = append(rows, r)
	}

	return printJSON(rows)
}

func contactCommand(c *cli.Context) error {
	ctx := context.Background()

	repos, err := openRepositories(c)
	if err != nil {
		return err
	}
	defer repos.Close()

	seeker, err := repos.Profiles.GetProfileByEmail(ctx, c.String("seeker"))
	if err != nil {
		return fmt.Errorf("seeker lookup failed: %w", err)
	}
	provider, err := repos.Profiles.GetProfileByEmail(ctx, c.String("provider"))
	if err != nil {
		return fmt.Errorf("provider lookup failed: %w", err)
	}

	if seeker.Population != core.PopulationSeeker {
		return fmt.Errorf("%s is not a seeker profile", seeker.Email)
	}
	if provider.Population != core.PopulationProvider {
		return fmt.Errorf("%s is not a provider profile", provider.Email)
	}

	entry, err := repos.ContactLog.AddEntry(ctx, &core.ContactLogEntry{
		SeekerId:   seeker.Id,
		ProviderId: provider.Id,
	})
	if err != nil {
		return fmt.Errorf("failed to record introduction: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Recorded introduction %s -> %s at %s\n",
		seeker.Email, provider.Email, entry.SentAt.Format(time.RFC3339))
	return nil
}

func countsCommand(c *cli.Context) error {
	ctx := context.Background()

	repos, err := openRepositories(c)
	if err != nil {
		return err
	}
	defer repos.Close()

	seekers, err := repos.Profiles.CountByPopulation(ctx, core.PopulationSeeker)
	if err != nil {
		return err
	}
	providers, err := repos.Profiles.CountByPopulation(ctx, core.PopulationProvider)
	if err != nil {
		return err
	}
	processed, err := repos.Matches.ProcessedCount(ctx)
	if err != nil {
		return err
	}
	matches, err := repos.Matches.Count(ctx)
	if err != nil {
		return err
	}

	return printJSON(map[string]int{
		"seekers":   seekers,
		"providers": providers,
		"processed": processed,
		"matches":   matches,
	})
}

func resetCommand(c *cli.Context) error {
	ctx := context.Background()

	repos, err := openRepositories(c)
	if err != nil {
		return err
	}
	defer repos.Close()

	if err := repos.Matches.DeleteAll(ctx); err != nil {
		return fmt.Errorf("failed to delete matches: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Deleted all matches")

	if c.Bool("profiles") {
		if err := repos.Profiles.DeleteAll(ctx); err != nil {
			return fmt.Errorf("failed to delete profiles: %w", err)
		}
		fmt.Fprintln(os.Stderr, "Deleted all profiles")
	}
	return nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func setupLogger(c *cli.Context) error {
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

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
