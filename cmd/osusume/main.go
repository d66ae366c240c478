// Package main is the Osusume CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/hyperjump/osusume/internal/catalog"
	"github.com/hyperjump/osusume/internal/config"
	"github.com/hyperjump/osusume/internal/embedding"
	"github.com/hyperjump/osusume/internal/interpret"
	"github.com/hyperjump/osusume/internal/llm"
	"github.com/hyperjump/osusume/internal/models"
	"github.com/hyperjump/osusume/internal/rerank"
	"github.com/hyperjump/osusume/internal/search"
	"github.com/hyperjump/osusume/internal/server"
	"github.com/hyperjump/osusume/internal/vector"
	"github.com/hyperjump/osusume/internal/watcher"
	"github.com/hyperjump/osusume/pkg/utils"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/osusume/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks
// for config.yaml in the current directory (for development); if that exists
// it is used. Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// A missing .env is fine; explicit environment always wins.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "recommend":
		runRecommend()
	case "embed":
		runEmbed()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("osusume version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// components holds the wired pipeline dependencies for server and recommend.
type components struct {
	Handle      *catalog.Handle
	Reloader    *catalog.Reloader
	Engine      *search.Engine
	Embedder    embedding.Embedder
	Interpret   llm.Client
	Rerank      llm.Client
	RerankCache *rerank.Cache
}

// Close releases all held resources.
func (c *components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.Interpret != nil {
		_ = c.Interpret.Close()
	}
	if c.Rerank != nil && c.Rerank != c.Interpret {
		_ = c.Rerank.Close()
	}
	if c.RerankCache != nil {
		_ = c.RerankCache.Close()
	}
}

// initializeComponents loads the catalog index and wires the full pipeline.
// Without an API key in the configured environment variable the language
// model clients stay nil and both stages run on their deterministic
// fallbacks.
func initializeComponents(cfg *config.Config, logger *zap.Logger) (*components, error) {
	idx, err := catalog.Load(cfg.Catalog.RecordsPath, cfg.Catalog.VectorsPath, cfg.Retrieval.MaxFeatures)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	handle := catalog.NewHandle(idx)
	reloader := &catalog.Reloader{
		Handle:      handle,
		RecordsPath: cfg.Catalog.RecordsPath,
		VectorsPath: cfg.Catalog.VectorsPath,
		MaxFeatures: cfg.Retrieval.MaxFeatures,
	}

	embedder, err := embedding.NewOpenAIEmbedder(
		cfg.Embedding.BaseURL,
		cfg.Embedding.Model,
		cfg.Embedding.Dimensions,
		cfg.Embedding.CacheSize,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	c := &components{Handle: handle, Reloader: reloader, Embedder: embedder}

	apiKey := os.Getenv(cfg.LLM.APIKeyEnv)
	if apiKey == "" {
		logger.Warn("no API key set, query interpretation and reranking run on fallbacks",
			zap.String("env_var", cfg.LLM.APIKeyEnv))
	} else {
		ctx := context.Background()
		interpretClient, err := llm.NewGeminiClient(ctx, apiKey, cfg.LLM.InterpretModel)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to create interpret client: %w", err)
		}
		c.Interpret = interpretClient
		if cfg.LLM.RerankModel == cfg.LLM.InterpretModel {
			c.Rerank = interpretClient
		} else {
			rerankClient, err := llm.NewGeminiClient(ctx, apiKey, cfg.LLM.RerankModel)
			if err != nil {
				c.Close()
				return nil, fmt.Errorf("failed to create rerank client: %w", err)
			}
			c.Rerank = rerankClient
		}
	}

	if cfg.LLM.CachePath != "" {
		cache, err := rerank.OpenCache(cfg.LLM.CachePath)
		if err != nil {
			logger.Warn("rerank cache unavailable, continuing without it", zap.Error(err))
		} else {
			c.RerankCache = cache
		}
	}

	timeout := time.Duration(cfg.LLM.TimeoutSeconds) * time.Second
	weights := search.Weights{Vector: cfg.Retrieval.VectorWeight, Lexical: cfg.Retrieval.LexicalWeight}
	boosts := search.Boosts{
		Duration: cfg.Retrieval.DurationBoost,
		JobLevel: cfg.Retrieval.JobLevelBoost,
		Language: cfg.Retrieval.LanguageBoost,
		TestType: cfg.Retrieval.TestTypeBoost,
	}
	c.Engine = search.NewEngine(
		handle,
		interpret.New(c.Interpret, timeout, logger),
		search.NewScorer(embedder, weights, boosts, logger),
		rerank.New(c.Rerank, timeout, c.RerankCache, logger),
		cfg.Retrieval.TopKCandidates,
		logger,
	)
	return c, nil
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || *debug
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", debugMode),
	)

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if cfg.Catalog.Watch {
		watchOpts := []watcher.WatcherOption{watcher.WithLogger(logger)}
		watchSvc := watcher.NewWatcher(
			[]string{cfg.Catalog.RecordsPath, cfg.Catalog.VectorsPath},
			comps.Reloader.Reload,
			watchOpts...,
		)
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		defer watchSvc.Stop()
	}

	srv := server.NewServer(comps.Engine, comps.Handle, comps.Reloader, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// buildQuery joins all positional args with spaces so multi-word queries work
// the same with or without shell quoting.
func buildQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

func runRecommend() {
	fs := flag.NewFlagSet("recommend", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	topK := fs.Int("top-k", 10, "number of results")
	asJSON := fs.Bool("json", false, "print the raw JSON response")
	_ = fs.Parse(os.Args[2:])

	queryStr := buildQuery(fs.Args())
	if queryStr == "" {
		fmt.Fprintf(os.Stderr, "Usage: osusume recommend [flags] <query>\n")
		os.Exit(1)
	}

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	comps, err := initializeComponents(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	defer comps.Close()

	resp, err := comps.Engine.Recommend(context.Background(), &models.RecommendRequest{Query: queryStr, TopK: *topK})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Recommend failed: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("Query: %s\n", resp.Query)
	fmt.Printf("Rewritten: %s\n", strings.ReplaceAll(resp.RewrittenQuery, "\n", " "))
	fmt.Printf("Results (%d, %dms):\n", len(resp.Results), resp.QueryTime)
	for i, res := range resp.Results {
		fmt.Printf("%2d. %-50s %.2f  %s\n", i+1, utils.Truncate(res.Name, 50), res.RelevanceScore, res.URL)
		if res.RelevanceReason != "" {
			fmt.Printf("    %s\n", res.RelevanceReason)
		}
	}
}

// runEmbed batch-embeds every catalog record's embedding text and writes the
// row-aligned vector matrix the server loads at startup. This is the offline
// half of the dataset refresh; the online path never embeds records.
func runEmbed() {
	fs := flag.NewFlagSet("embed", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	outPath := fs.String("out", "", "output vector file (default: the configured vectors_path)")
	batchSize := fs.Int("batch-size", 32, "records per embedding request")
	_ = fs.Parse(os.Args[2:])

	cfg, _, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	records, err := catalog.LoadRecords(cfg.Catalog.RecordsPath)
	if err != nil {
		logger.Fatal("Failed to load catalog records", zap.Error(err))
	}

	embedder, err := embedding.NewOpenAIEmbedder(
		cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.Embedding.Dimensions, 0, logger)
	if err != nil {
		logger.Fatal("Failed to create embedder", zap.Error(err))
	}
	defer embedder.Close()

	ctx := context.Background()
	vectors := make([][]float32, 0, len(records))
	for start := 0; start < len(records); start += *batchSize {
		end := start + *batchSize
		if end > len(records) {
			end = len(records)
		}
		texts := make([]string, 0, end-start)
		for _, rec := range records[start:end] {
			texts = append(texts, rec.EmbedText)
		}

		batch, err := embedBatchWithRetry(ctx, embedder, texts, logger)
		if err != nil {
			logger.Fatal("Embedding batch failed", zap.Int("offset", start), zap.Error(err))
		}
		vectors = append(vectors, batch...)
		logger.Info("embedded batch", zap.Int("done", end), zap.Int("total", len(records)))
	}

	dest := *outPath
	if dest == "" {
		dest = cfg.Catalog.VectorsPath
	}
	if err := vector.WriteMatrix(dest, vectors); err != nil {
		logger.Fatal("Failed to write vector matrix", zap.Error(err))
	}
	logger.Info("vector matrix written",
		zap.String("path", dest),
		zap.Int("records", len(vectors)),
		zap.Int("dimensions", embedder.Dimensions()))
}

// embedBatchWithRetry retries transient embedding failures with bounded
// exponential backoff. Retry lives only in this offline path; the online
// request path fails fast instead.
func embedBatchWithRetry(ctx context.Context, embedder embedding.Embedder, texts []string, logger *zap.Logger) ([][]float32, error) {
	const maxAttempts = 4
	backoff := time.Second
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		batch, err := embedder.EmbedBatch(ctx, texts)
		if err == nil {
			return batch, nil
		}
		lastErr = err
		if attempt < maxAttempts {
			logger.Warn("embedding batch failed, retrying",
				zap.Int("attempt", attempt), zap.Duration("backoff", backoff), zap.Error(err))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
		}
	}
	return nil, lastErr
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	idx, err := catalog.Load(cfg.Catalog.RecordsPath, cfg.Catalog.VectorsPath, cfg.Retrieval.MaxFeatures)
	if err != nil {
		fmt.Printf("Catalog failed to load: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Config:      %s\n", resolvedConfigPath)
	fmt.Printf("Records:     %d (%s)\n", idx.Len(), cfg.Catalog.RecordsPath)
	fmt.Printf("Vectors:     %d dimensions (%s)\n", idx.Dimensions(), cfg.Catalog.VectorsPath)
	fmt.Printf("Vocabulary:  %d terms\n", idx.Lexical().VocabSize())
	fmt.Printf("Weights:     vector %.2f / lexical %.2f\n", cfg.Retrieval.VectorWeight, cfg.Retrieval.LexicalWeight)
	fmt.Printf("Candidates:  %d per query\n", cfg.Retrieval.TopKCandidates)
}

func printUsage() {
	fmt.Println(`osusume - assessment recommendation engine

Usage:
  osusume server    [-config path] [-debug]        start the HTTP API server
  osusume recommend [-config path] [-top-k n] [-json] <query>
                                                   run one query from the CLI
  osusume embed     [-config path] [-out path] [-batch-size n]
                                                   embed the catalog and write the vector matrix
  osusume status    [-config path]                 show catalog and config summary
  osusume version                                  print version
  osusume help                                     show this help`)
}
