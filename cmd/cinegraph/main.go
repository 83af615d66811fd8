// Command cinegraph is the movie knowledge base question-answering
// service.
//
// Usage:
//
//	cinegraph serve --config config.yaml
//	cinegraph ingest --movies data/tmdb_5000_movies.csv --credits data/tmdb_5000_credits.csv
//	cinegraph embed
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/cinegraph/cinegraph/pkg/config"
	"github.com/cinegraph/cinegraph/pkg/embedders"
	"github.com/cinegraph/cinegraph/pkg/graph"
	"github.com/cinegraph/cinegraph/pkg/ingest"
	"github.com/cinegraph/cinegraph/pkg/llms"
	"github.com/cinegraph/cinegraph/pkg/logger"
	"github.com/cinegraph/cinegraph/pkg/orchestrator"
	"github.com/cinegraph/cinegraph/pkg/router"
	"github.com/cinegraph/cinegraph/pkg/server"
	"github.com/cinegraph/cinegraph/pkg/synthesis"
	"github.com/cinegraph/cinegraph/pkg/tools"
)

// CLI defines the command-line interface.
type CLI struct {
	Version VersionCmd `cmd:"" help:"Show version information."`
	Serve   ServeCmd   `cmd:"" help:"Start the query server."`
	Ingest  IngestCmd  `cmd:"" help:"Load the TMDB dataset into the knowledge store."`
	Embed   EmbedCmd   `cmd:"" help:"Compute and store movie embeddings, then create the vector index."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." default:"info"`
	LogFormat string `help:"Log format (text or json)." default:"text"`
	LogFile   string `help:"Log file path (empty = stderr)."`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(cli *CLI) error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("cinegraph version %s\n", version)
	return nil
}

// ServeCmd starts the HTTP server.
type ServeCmd struct{}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := setup(cli)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := graph.New(cfg.Neo4j)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	if err := store.Ping(ctx); err != nil {
		logger.Get().Warn("knowledge store unreachable at startup", "error", err)
	}

	routerLLM, err := llms.NewGeminiProvider(cfg.Router)
	if err != nil {
		return err
	}
	synthLLM, err := llms.NewOpenAIProvider(cfg.Synthesizer)
	if err != nil {
		return err
	}
	embedder, err := embedders.NewOpenAIEmbedder(cfg.Embedder)
	if err != nil {
		return err
	}

	registry := tools.NewRegistry()
	for _, tool := range []tools.Tool{
		tools.NewCypherTool(store),
		tools.NewVectorSearchTool(store, embedder, cfg.Search.Index, cfg.Search.TopK),
		tools.NewReasoningTool(synthLLM),
	} {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}

	pipeline := orchestrator.New(
		router.New(routerLLM, registry),
		synthesis.New(synthLLM),
	)

	return server.New(cfg.Server, pipeline).Run(ctx)
}

// IngestCmd loads the TMDB CSVs.
type IngestCmd struct {
	Movies  string `help:"Path to the movies CSV." type:"path" default:"data/tmdb_5000_movies.csv"`
	Credits string `help:"Path to the credits CSV." type:"path" default:"data/tmdb_5000_credits.csv"`
}

func (c *IngestCmd) Run(cli *CLI) error {
	cfg, err := setup(cli)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := graph.New(cfg.Neo4j)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	loader := ingest.NewLoader(store)
	if err := loader.CreateSchema(ctx); err != nil {
		return err
	}

	moviesFile, err := os.Open(c.Movies)
	if err != nil {
		return err
	}
	defer moviesFile.Close()
	if _, err := loader.LoadMovies(ctx, moviesFile); err != nil {
		return err
	}

	creditsFile, err := os.Open(c.Credits)
	if err != nil {
		return err
	}
	defer creditsFile.Close()
	if _, err := loader.LoadCredits(ctx, creditsFile); err != nil {
		return err
	}

	return nil
}

// EmbedCmd runs the batch embedding pass.
type EmbedCmd struct{}

func (c *EmbedCmd) Run(cli *CLI) error {
	cfg, err := setup(cli)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := graph.New(cfg.Neo4j)
	if err != nil {
		return err
	}
	defer store.Close(context.Background())

	embedder, err := embedders.NewOpenAIEmbedder(cfg.Embedder)
	if err != nil {
		return err
	}

	pipeline := ingest.NewEmbeddingPipeline(store, embedder, cfg.Search.Index)
	if _, err := pipeline.Run(ctx); err != nil {
		return err
	}
	return pipeline.CreateVectorIndex(ctx)
}

// setup loads .env, the config file, and the logger.
func setup(cli *CLI) (*config.Config, error) {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	if err := logger.Init(cli.LogLevel, logger.Format(cli.LogFormat), cli.LogFile); err != nil {
		return nil, err
	}

	return config.Load(cli.Config)
}

func main() {
	cli := &CLI{}
	kctx := kong.Parse(cli,
		kong.Name("cinegraph"),
		kong.Description("Answers natural-language questions about a movie knowledge base."),
		kong.UsageOnError(),
	)

	if err := kctx.Run(cli); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
