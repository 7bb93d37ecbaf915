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
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/poiesic/docent"
	"github.com/poiesic/docent/config"
	"github.com/poiesic/docent/reembed"
	"github.com/poiesic/docent/watch"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func userFlag() *cli.Int64Flag {
	return &cli.Int64Flag{
		Name:     "user",
		Aliases:  []string{"u"},
		Usage:    "User id owning the knowledge base",
		Required: true,
	}
}

func modelFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "model",
		Aliases: []string{"m"},
		Usage:   "Generation model id (see the models command)",
		EnvVars: []string{"DOCENT_MODEL"},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "docent",
		Usage: "Per-user document knowledge base with grounded question answering",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file (default ~/.config/docent/config.yaml)",
				EnvVars: []string{"DOCENT_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory, overrides the config file",
				EnvVars: []string{"DOCENT_DB"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from this file",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "API key for the generation service",
				EnvVars: []string{config.DefaultAPIKeyEnv},
			},
		},
		Before: func(c *cli.Context) error {
			if err := setupLogger(c); err != nil {
				return err
			}
			return config.LoadEnv(c.String("env-file"))
		},
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Add documents to a user's knowledge base",
				ArgsUsage: "[file...]",
				Description: "Each file is extracted by extension and indexed. With no files, " +
					"plain text is read from standard input.",
				Action: ingestCommand,
				Flags: []cli.Flag{
					userFlag(),
					&cli.StringFlag{
						Name:    "source",
						Aliases: []string{"s"},
						Usage:   "Source name recorded for text read from standard input",
						Value:   "stdin",
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Answer a single question from a user's documents",
				ArgsUsage: "<question>",
				Action:    askCommand,
				Flags: []cli.Flag{
					userFlag(),
					modelFlag(),
					&cli.BoolFlag{
						Name:  "sources",
						Usage: "Print the retrieved chunks after the answer",
					},
				},
			},
			{
				Name:      "summarize",
				Usage:     "Summarize whole documents without indexing them",
				ArgsUsage: "[file...]",
				Description: "Each file is extracted by extension and summarized by the generation " +
					"model. With no files, plain text is read from standard input.",
				Action: summarizeCommand,
				Flags: []cli.Flag{
					modelFlag(),
					&cli.BoolFlag{
						Name:  "show-content",
						Usage: fmt.Sprintf("Print the first %d characters of each document before its summary", docent.PreviewLimit),
					},
				},
			},
			{
				Name:   "chat",
				Usage:  "Start an interactive multi-turn chat over a user's documents",
				Action: chatCommand,
				Flags: []cli.Flag{
					userFlag(),
					modelFlag(),
				},
			},
			{
				Name:   "clear",
				Usage:  "Delete all documents of a user",
				Action: clearCommand,
				Flags:  []cli.Flag{userFlag()},
			},
			{
				Name:   "namespaces",
				Usage:  "List stored knowledge bases",
				Action: namespacesCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "prefix",
						Aliases: []string{"p"},
						Usage:   "Only list namespaces starting with this prefix",
					},
				},
			},
			{
				Name:   "inspect",
				Usage:  "Show the chunks stored for a user",
				Action: inspectCommand,
				Flags: []cli.Flag{
					userFlag(),
					&cli.IntFlag{
						Name:  "width",
						Usage: "Truncate chunk text to this many characters (0 prints everything)",
						Value: 60,
					},
				},
			},
			{
				Name:   "models",
				Usage:  "List the offered generation models",
				Action: modelsCommand,
			},
			{
				Name:   "reembed",
				Usage:  "Rebuild stored vectors with the configured embedding model",
				Action: reembedCommand,
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:    "user",
						Aliases: []string{"u"},
						Usage:   "Only reembed this user's knowledge base",
					},
					&cli.StringFlag{
						Name:  "prefix",
						Usage: "Reembed every namespace starting with this prefix when no user is given",
					},
					&cli.StringFlag{
						Name:  "embedding-host",
						Usage: "Embedding service host URL, overrides the config file",
					},
					&cli.StringFlag{
						Name:  "embedding-model",
						Usage: "Embedding model name, overrides the config file",
					},
					&cli.IntFlag{
						Name:  "batch-size",
						Usage: "Number of chunks to embed in each batch",
						Value: reembed.DefaultBatchSize,
					},
					&cli.IntFlag{
						Name:  "report-interval",
						Usage: "Report progress every N chunks",
						Value: 100,
					},
					&cli.IntFlag{
						Name:  "max-retries",
						Usage: "Maximum retry attempts for failed operations",
						Value: 3,
					},
					&cli.DurationFlag{
						Name:  "retry-delay",
						Usage: "Base delay for exponential backoff",
						Value: 1 * time.Second,
					},
				},
			},
			{
				Name:      "watch",
				Usage:     "Keep a user's documents in step with the files of a directory",
				ArgsUsage: "<directory>",
				Action:    watchCommand,
				Flags: []cli.Flag{
					userFlag(),
					&cli.DurationFlag{
						Name:  "debounce",
						Usage: "Wait this long after the last change before ingesting a file",
						Value: watch.DefaultDebounce,
					},
					&cli.BoolFlag{
						Name:  "initial-scan",
						Usage: "Ingest files already in the directory on start",
					},
				},
			},
			{
				Name:   "serve",
				Usage:  "Serve the JSON HTTP API",
				Action: serveCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "addr",
						Aliases: []string{"a"},
						Usage:   "Listen address, overrides the config file",
						EnvVars: []string{"DOCENT_ADDR"},
					},
				},
			},
			{
				Name:  "config",
				Usage: "Manage the config file",
				Subcommands: []*cli.Command{
					{
						Name:   "init",
						Usage:  "Write a config file with default values",
						Action: configInitCommand,
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "force",
								Usage: "Overwrite an existing file",
							},
						},
					},
					{
						Name:   "show",
						Usage:  "Print the effective configuration",
						Action: configShowCommand,
					},
				},
			},
		},
	}
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

	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
