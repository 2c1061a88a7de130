package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"docqa/internal/bootstrap"
	"docqa/internal/cache"
	"docqa/internal/config"
	"docqa/internal/pipeline"
	"docqa/internal/pkg/textextract"
	"docqa/internal/platform/logger"
)

type engine interface {
	Prepare(rawText string) (*pipeline.Index, error)
	Build(ctx context.Context, idx *pipeline.Index) error
	Ask(ctx context.Context, idx *pipeline.Index, question string) (pipeline.Answer, error)
	Summarize(ctx context.Context, idx *pipeline.Index) (pipeline.Summary, error)
}

type engineFactory func(cfg *config.Config, vectors pipeline.VectorCache, log *slog.Logger) engine

func defaultEngine(cfg *config.Config, vectors pipeline.VectorCache, log *slog.Logger) engine {
	return bootstrap.NewPipeline(cfg, vectors, log)
}

type rootOptions struct {
	configPath string
	cacheDir   string
	logLevel   string
	jsonOutput bool
	timeout    time.Duration
}

func newRootCmd(newEngine engineFactory) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "docqa",
		Short:        "Summarize documents and answer questions grounded in them",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (.toml, .yaml); defaults to $CONFIG_FILE or configs/config.toml")
	root.PersistentFlags().StringVar(&opts.cacheDir, "cache-dir", "", "directory of the local vector cache; empty disables it")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print results as JSON")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Minute, "overall time limit")

	root.AddCommand(
		&cobra.Command{
			Use:   "summarize <file>",
			Short: "Summarize a PDF, Markdown or text document",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSummarize(cmd, opts, newEngine, args[0])
			},
		},
		&cobra.Command{
			Use:   "ask <file> <question>",
			Short: "Answer a question from the most relevant passage of a document",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runAsk(cmd, opts, newEngine, args[0], strings.Join(args[1:], " "))
			},
		},
	)
	return root
}

// session holds what one CLI invocation needs: a configured engine, the
// prepared document and the resources to release afterwards.
type session struct {
	engine engine
	index  *pipeline.Index
	close  func()
}

func openSession(cmd *cobra.Command, opts *rootOptions, newEngine engineFactory, path string) (*session, error) {
	cfgPath := opts.configPath
	if cfgPath == "" {
		cfgPath = os.Getenv("CONFIG_FILE")
	}
	if cfgPath == "" {
		cfgPath = "configs/config.toml"
	}
	cfg, err := config.LoadFile(cfgPath)
	if err != nil {
		return nil, err
	}
	log := logger.New(cmd.ErrOrStderr(), opts.logLevel, "text")

	var vectors pipeline.VectorCache
	closeCache := func() {}
	if opts.cacheDir != "" {
		badgerCache, err := cache.OpenBadgerVectorCache(opts.cacheDir, 0)
		if err != nil {
			return nil, err
		}
		vectors = badgerCache
		closeCache = func() {
			if err := badgerCache.Close(); err != nil {
				log.Warn("close vector cache failed", "error", err)
			}
		}
	}

	f, err := os.Open(path)
	if err != nil {
		closeCache()
		return nil, fmt.Errorf("open document failed: %w", err)
	}
	defer f.Close()

	raw, err := textextract.Extract(path, f)
	if err != nil {
		closeCache()
		return nil, err
	}

	eng := newEngine(cfg, vectors, log)
	idx, err := eng.Prepare(raw)
	if err != nil {
		closeCache()
		return nil, err
	}
	log.Debug("document prepared", "file", path, "chunks", len(idx.Chunks), "summary_chunks", len(idx.SummaryChunks))
	return &session{engine: eng, index: idx, close: closeCache}, nil
}

func runSummarize(cmd *cobra.Command, opts *rootOptions, newEngine engineFactory, path string) error {
	s, err := openSession(cmd, opts, newEngine, path)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	summary, err := s.engine.Summarize(ctx, s.index)
	if err != nil {
		return err
	}
	if opts.jsonOutput {
		return writeJSON(cmd.OutOrStdout(), map[string]any{
			"summary": summary.Text,
			"parts":   summary.Parts,
		})
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), summary.Text)
	return err
}

func runAsk(cmd *cobra.Command, opts *rootOptions, newEngine engineFactory, path, question string) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return fmt.Errorf("question is empty")
	}
	s, err := openSession(cmd, opts, newEngine, path)
	if err != nil {
		return err
	}
	defer s.close()

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	if err := s.engine.Build(ctx, s.index); err != nil {
		return err
	}
	answer, err := s.engine.Ask(ctx, s.index, question)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.jsonOutput {
		return writeJSON(out, answer)
	}
	fmt.Fprintf(out, "Answer: %s\n", answer.Text)
	fmt.Fprintf(out, "Context [%d, score %.3f]: %s\n", answer.Context.Index, answer.Score, answer.Context.Text)
	if answer.LowConfidence {
		fmt.Fprintln(out, "(low confidence)")
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
