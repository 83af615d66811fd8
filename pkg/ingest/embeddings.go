package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cinegraph/cinegraph/pkg/logger"
)

// Embedder is the slice of the embedding client the pipeline consumes.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimension() int
}

// EmbeddingPipeline computes and stores an embedding per Movie over its
// overview and tagline, then creates the vector index used by
// similarity search.
type EmbeddingPipeline struct {
	store    Store
	embedder Embedder
	index    string
	log      *slog.Logger
}

// NewEmbeddingPipeline creates the pipeline.
func NewEmbeddingPipeline(store Store, embedder Embedder, index string) *EmbeddingPipeline {
	return &EmbeddingPipeline{
		store:    store,
		embedder: embedder,
		index:    index,
		log:      logger.With("component", "embeddings"),
	}
}

// Run embeds every movie and stores the vector on movie_embedding.
// Movies with no text and per-movie embedding errors are skipped, not
// fatal. Returns the number of movies embedded.
func (p *EmbeddingPipeline) Run(ctx context.Context) (int, error) {
	records, err := p.store.Execute(ctx,
		"MATCH (m:Movie) RETURN m.id AS id, m.overview AS overview, m.tagline AS tagline", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to list movies: %w", err)
	}

	count := 0
	for _, record := range records {
		id, _ := record["id"].(string)
		if id == "" {
			continue
		}
		overview, _ := record["overview"].(string)
		tagline, _ := record["tagline"].(string)

		text := fmt.Sprintf("Overview: %s\nTagline: %s", overview, tagline)
		if strings.TrimSpace(overview) == "" && strings.TrimSpace(tagline) == "" {
			continue
		}

		embedding, err := p.embedder.Embed(ctx, text)
		if err != nil {
			p.log.Warn("embedding failed, skipping movie", "id", id, "error", err)
			continue
		}
		if len(embedding) != p.embedder.Dimension() {
			p.log.Warn("invalid embedding, skipping movie", "id", id, "got", len(embedding))
			continue
		}

		err = p.store.ExecuteWrite(ctx,
			"MATCH (m:Movie {id: $id}) SET m.movie_embedding = $embedding",
			map[string]any{"id": id, "embedding": embedding})
		if err != nil {
			return count, fmt.Errorf("failed to store embedding for movie %s: %w", id, err)
		}
		count++
	}

	p.log.Info("embeddings stored", "count", count)
	return count, nil
}

// CreateVectorIndex creates the cosine vector index over
// movie_embedding. The dimension must match the embedder's.
func (p *EmbeddingPipeline) CreateVectorIndex(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE VECTOR INDEX %s IF NOT EXISTS
FOR (m:Movie)
ON (m.movie_embedding)
OPTIONS {
    indexConfig: {
        `+"`vector.dimensions`"+`: %d,
        `+"`vector.similarity_function`"+`: "cosine"
    }
}`, p.index, p.embedder.Dimension())

	if err := p.store.ExecuteWrite(ctx, query, nil); err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}

	p.log.Info("vector index created", "index", p.index, "dimensions", p.embedder.Dimension())
	return nil
}
