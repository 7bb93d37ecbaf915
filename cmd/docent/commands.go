package main

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/docent"
	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/api"
	"github.com/poiesic/docent/chat"
	"github.com/poiesic/docent/config"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/extract"
	"github.com/poiesic/docent/reembed"
	"github.com/poiesic/docent/session"
	"github.com/poiesic/docent/storage"
	"github.com/poiesic/docent/watch"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// databaseOverrides are appended to the options of every database a command
// opens. Tests use it to swap in a mock AI provider.
var databaseOverrides []docent.DatabaseOption

func configPath(c *cli.Context) (string, error) {
	if path := c.String("config"); path != "" {
		return path, nil
	}
	return config.DefaultPath()
}

func loadConfig(c *cli.Context) (*config.File, error) {
	path, err := configPath(c)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if db := c.String("db"); db != "" {
		cfg.DatabasePath = db
	}
	return cfg, nil
}

func openDatabase(c *cli.Context, cfg *config.File) (*docent.Database, error) {
	aiOpts := cfg.AIOptions()
	if key := c.String("api-key"); key != "" {
		aiOpts = append(aiOpts, ai.WithAPIKey(key))
	}
	opts := []docent.DatabaseOption{
		docent.WithAIConfig(ai.NewConfig(aiOpts...)),
		docent.WithLogger(slog.Default()),
		docent.WithChunking(cfg.Chunking.MaxSize, cfg.Chunking.Overlap),
		docent.WithEmbedBatchSize(cfg.Ingestion.BatchSize),
		docent.WithPoolSize(cfg.Ingestion.PoolSize),
		docent.WithRetrievalK(cfg.Retrieval.K),
		docent.WithDefaultModel(cfg.AI.GenerationModel),
	}
	db, err := docent.NewDatabase(cfg.DatabasePath, append(opts, databaseOverrides...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// withDatabase loads the config, opens the database and runs fn.
func withDatabase(c *cli.Context, fn func(cfg *config.File, db *docent.Database) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := openDatabase(c, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(cfg, db)
}

// failure keeps the cause visible to operators after the short message.
func failure(err error) error {
	return fmt.Errorf("%s (%w)", strings.TrimSuffix(docent.UserMessage(err), "."), err)
}

func ingestCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withDatabase(c, func(_ *config.File, db *docent.Database) error {
		pipeline, err := db.NewIngestionPipeline()
		if err != nil {
			return err
		}
		defer pipeline.Release()

		ns := core.NamespaceForUser(c.Int64("user"))
		ingest := func(doc *extract.Document) error {
			result, err := pipeline.Ingest(ctx, ns, doc.Text, doc.Source)
			if err != nil {
				return failure(err)
			}
			if result.Chunks == 0 {
				fmt.Fprintf(c.App.ErrWriter, "Skipped %s: no text\n", doc.Source)
				return nil
			}
			fmt.Fprintf(c.App.Writer, "Ingested %s into %s: %d chunks (%s)\n",
				result.Source, result.Namespace, result.Chunks, result.Duration.Round(time.Millisecond))
			return nil
		}

		if c.NArg() == 0 {
			text, err := extract.PlainText{}.Extract(ctx, c.App.Reader)
			if err != nil {
				return err
			}
			return ingest(&extract.Document{Source: c.String("source"), Text: text})
		}

		for _, path := range c.Args().Slice() {
			doc, err := extract.File(ctx, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if err := ingest(doc); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}
		return nil
	})
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("question is required")
	}

	return withDatabase(c, func(_ *config.File, db *docent.Database) error {
		pipeline, err := db.NewChatPipeline()
		if err != nil {
			return err
		}
		model := c.String("model")
		if model == "" {
			model = db.DefaultModel()
		}

		turn, err := pipeline.Ask(c.Context, core.NamespaceForUser(c.Int64("user")), nil, question, model)
		if err != nil {
			return failure(err)
		}
		fmt.Fprintln(c.App.Writer, turn.Answer)
		if c.Bool("sources") {
			fmt.Fprintln(c.App.Writer)
			for i, r := range turn.Chunks {
				fmt.Fprintf(c.App.Writer, "[%d] %s #%d (score %.3f)\n", i+1, r.Record.Source, r.Record.Index, r.Score)
			}
		}
		return nil
	})
}

func summarizeCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var docs []*extract.Document
	if c.NArg() == 0 {
		text, err := extract.PlainText{}.Extract(ctx, c.App.Reader)
		if err != nil {
			return err
		}
		docs = append(docs, &extract.Document{Source: "stdin", Text: text})
	}
	for _, path := range c.Args().Slice() {
		doc, err := extract.File(ctx, path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		docs = append(docs, doc)
	}

	return withDatabase(c, func(_ *config.File, db *docent.Database) error {
		summarizer, err := db.NewSummarizer()
		if err != nil {
			return err
		}
		model := c.String("model")
		if model == "" {
			model = db.DefaultModel()
		}

		for i, doc := range docs {
			if len(docs) > 1 {
				if i > 0 {
					fmt.Fprintln(c.App.Writer)
				}
				fmt.Fprintf(c.App.Writer, "== %s ==\n", doc.Source)
			}
			if c.Bool("show-content") {
				fmt.Fprintf(c.App.Writer, "%s\n\n---\n", docent.Preview(doc.Text))
			}
			summary, err := summarizer.Summarize(ctx, doc.Text, model)
			if err != nil {
				if !errors.Is(err, chat.ErrEmptyText) {
					err = &chat.StageError{Stage: chat.StageSummarize, Err: err}
				}
				return fmt.Errorf("%s: %w", doc.Source, failure(err))
			}
			fmt.Fprintln(c.App.Writer, strings.TrimSpace(summary))
		}
		return nil
	})
}

const chatHelp = `Commands:
  /model [id]  show or change the generation model
  /reset       start over with an empty history
  /quit        leave the chat`

func chatCommand(c *cli.Context) error {
	return withDatabase(c, func(_ *config.File, db *docent.Database) error {
		ctx := c.Context
		user := c.Int64("user")
		ns := core.NamespaceForUser(user)

		count, err := db.Repository().Count(ctx, ns)
		if err != nil {
			return err
		}
		if count == 0 {
			return fmt.Errorf("no documents for user %d, run ingest first", user)
		}

		pipeline, err := db.NewChatPipeline()
		if err != nil {
			return err
		}
		model := c.String("model")
		if model == "" {
			model = db.DefaultModel()
		}
		sess := session.New(model)
		sess.Bind(ns)
		if err := sess.StartChat(); err != nil {
			return err
		}

		out := c.App.Writer
		fmt.Fprintf(out, "Chatting over %d chunks in %s with %s. Type /help for commands.\n",
			count, ns, ai.ModelName(model))

		scanner := bufio.NewScanner(c.App.Reader)
		for {
			fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				fmt.Fprintln(out)
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())

			switch {
			case line == "":
				continue
			case line == "/quit" || line == "/exit":
				return nil
			case line == "/help":
				fmt.Fprintln(out, chatHelp)
			case line == "/reset":
				if err := sess.StartChat(); err != nil {
					return err
				}
				fmt.Fprintln(out, "History cleared.")
			case strings.HasPrefix(line, "/model"):
				if id := strings.TrimSpace(strings.TrimPrefix(line, "/model")); id != "" {
					sess.SelectModel(id)
				}
				fmt.Fprintf(out, "Using %s (%s).\n", ai.ModelName(sess.Model()), sess.Model())
			default:
				turn, err := pipeline.Answer(ctx, sess, line)
				if err != nil {
					if ctx.Err() != nil {
						return ctx.Err()
					}
					slog.Error("answer failed", "err", err)
					fmt.Fprintln(out, docent.UserMessage(err))
					continue
				}
				fmt.Fprintln(out, turn.Answer)
			}
		}
	})
}

func clearCommand(c *cli.Context) error {
	return withDatabase(c, func(_ *config.File, db *docent.Database) error {
		ns := core.NamespaceForUser(c.Int64("user"))
		if err := db.Repository().Clear(c.Context, ns); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Cleared %s\n", ns)
		return nil
	})
}

func namespacesCommand(c *cli.Context) error {
	return withDatabase(c, func(_ *config.File, db *docent.Database) error {
		repo := db.Repository()
		namespaces, err := repo.ListNamespaces(c.Context, c.String("prefix"))
		if err != nil {
			return err
		}
		if len(namespaces) == 0 {
			fmt.Fprintln(c.App.Writer, "No namespaces")
			return nil
		}

		tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAMESPACE\tCHUNKS\tDIMENSION\tUPDATED")
		for _, ns := range namespaces {
			info, err := repo.Info(c.Context, ns)
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", ns, info.Chunks, info.Dimension, info.UpdatedAt.Format("2006-01-02 15:04"))
		}
		return tw.Flush()
	})
}

func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if width <= 0 || utf8.RuneCountInString(s) <= width {
		return s
	}
	return string([]rune(s)[:width]) + "..."
}

func inspectCommand(c *cli.Context) error {
	return withDatabase(c, func(_ *config.File, db *docent.Database) error {
		ns := core.NamespaceForUser(c.Int64("user"))
		records, err := db.Repository().Chunks(c.Context, ns)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintf(c.App.Writer, "No chunks in %s\n", ns)
			return nil
		}
		for _, r := range records {
			fmt.Fprintf(c.App.Writer, "%s #%d (%d chars, %d dims): %s\n",
				r.Source, r.Index, utf8.RuneCountInString(r.Contents), len(r.Vector), truncate(r.Contents, c.Int("width")))
		}
		return nil
	})
}

func modelsCommand(c *cli.Context) error {
	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	for _, m := range ai.AvailableModels {
		marker := ""
		if m.ID == ai.DefaultModel {
			marker = "(default)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.ID, m.Name, marker)
	}
	return tw.Flush()
}

func reembedCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	reembedConfig := &reembed.Config{
		BatchSize:      c.Int("batch-size"),
		ReportInterval: c.Int("report-interval"),
		MaxRetries:     c.Int("max-retries"),
		RetryDelay:     c.Duration("retry-delay"),
	}
	if reembedConfig.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if reembedConfig.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if reembedConfig.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if host := c.String("embedding-host"); host != "" {
		cfg.AI.EmbeddingHost = host
	}
	if model := c.String("embedding-model"); model != "" {
		cfg.AI.EmbeddingModel = model
	}
	db, err := openDatabase(c, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	reembedder, err := db.NewReembedder(reembedConfig, c.App.ErrWriter)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.App.ErrWriter, "Database: %s\n", cfg.DatabasePath)
	fmt.Fprintf(c.App.ErrWriter, "Embedding host: %s\n", cfg.AI.EmbeddingHost)
	fmt.Fprintf(c.App.ErrWriter, "Embedding model: %s\n", cfg.AI.EmbeddingModel)
	fmt.Fprintln(c.App.ErrWriter)

	var results []*reembed.Result
	if c.IsSet("user") {
		result, err := reembedder.Run(ctx, core.NamespaceForUser(c.Int64("user")))
		if err != nil {
			return fmt.Errorf("reembedding failed: %w", err)
		}
		results = append(results, result)
	} else {
		results, err = reembedder.RunAll(ctx, c.String("prefix"))
		if err != nil {
			return fmt.Errorf("reembedding failed: %w", err)
		}
	}

	for _, r := range results {
		fmt.Fprintf(c.App.Writer, "%s: %d chunks, dimension %d -> %d (%s)\n",
			r.Namespace, r.Chunks, r.OldDimension, r.NewDimension, r.Duration.Round(time.Millisecond))
	}
	return nil
}

func watchCommand(c *cli.Context) error {
	dir := c.Args().First()
	if dir == "" {
		return fmt.Errorf("directory is required")
	}
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return withDatabase(c, func(_ *config.File, db *docent.Database) error {
		pipeline, err := db.NewIngestionPipeline()
		if err != nil {
			return err
		}
		defer pipeline.Release()

		var mu sync.Mutex
		report := func(ev watch.Event) {
			mu.Lock()
			defer mu.Unlock()
			if ev.Err != nil {
				fmt.Fprintf(c.App.ErrWriter, "%s: %s\n", ev.Path, docent.UserMessage(ev.Err))
				return
			}
			switch {
			case ev.Removed:
				fmt.Fprintf(c.App.Writer, "Removed %s: %d chunks\n", ev.Path, ev.Result.Removed)
			case ev.Result.Removed > 0:
				fmt.Fprintf(c.App.Writer, "Updated %s: %d chunks (was %d)\n", ev.Path, ev.Result.Chunks, ev.Result.Removed)
			default:
				fmt.Fprintf(c.App.Writer, "Ingested %s: %d chunks\n", ev.Path, ev.Result.Chunks)
			}
		}

		w, err := watch.New(dir, core.NamespaceForUser(c.Int64("user")), pipeline,
			watch.WithDebounce(c.Duration("debounce")),
			watch.WithInitialScan(c.Bool("initial-scan")),
			watch.WithHandler(report),
			watch.WithLogger(slog.Default()))
		if err != nil {
			return err
		}
		return w.Run(ctx)
	})
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !strings.EqualFold(c.String("log-level"), "debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	return withDatabase(c, func(cfg *config.File, db *docent.Database) error {
		assistant, err := db.NewAssistant()
		if err != nil {
			return err
		}
		defer assistant.Release()

		server, err := api.NewServer(assistant, api.WithLogger(slog.Default()))
		if err != nil {
			return err
		}
		addr := c.String("addr")
		if addr == "" {
			addr = cfg.Server.Address
		}
		return server.Run(ctx, addr)
	})
}

func configInitCommand(c *cli.Context) error {
	path, err := configPath(c)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil && !c.Bool("force") {
		return fmt.Errorf("%s already exists, use --force to overwrite", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	if err := config.Save(path, config.Default()); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	return nil
}

func configShowCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(c.App.Writer)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	return enc.Close()
}
