// Package ingest performs the one-time batch load of the TMDB dataset
// into the knowledge store, and the batch embedding pass over the
// loaded movies.
package ingest

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/cinegraph/cinegraph/pkg/graph"
	"github.com/cinegraph/cinegraph/pkg/logger"
)

// Store is the slice of the graph client ingestion consumes.
type Store interface {
	Execute(ctx context.Context, query string, params map[string]any) ([]graph.Record, error)
	ExecuteWrite(ctx context.Context, query string, params map[string]any) error
}

// Loader writes the TMDB movies and credits CSVs into the graph.
type Loader struct {
	store Store
	log   *slog.Logger
}

// NewLoader creates a Loader.
func NewLoader(store Store) *Loader {
	return &Loader{
		store: store,
		log:   logger.With("component", "ingest"),
	}
}

var schemaStatements = []string{
	"CREATE CONSTRAINT movie_id_unique IF NOT EXISTS FOR (m:Movie) REQUIRE m.id IS UNIQUE",
	"CREATE CONSTRAINT person_id_unique IF NOT EXISTS FOR (p:Person) REQUIRE p.id IS UNIQUE",
	"CREATE INDEX genre_name_index IF NOT EXISTS FOR (g:Genre) ON (g.name)",
	"CREATE INDEX keyword_name_index IF NOT EXISTS FOR (k:Keyword) ON (k.name)",
	"CREATE INDEX company_name_index IF NOT EXISTS FOR (c:Company) ON (c.name)",
	"CREATE INDEX country_code_index IF NOT EXISTS FOR (c:Country) ON (c.iso_3166_1)",
	"CREATE INDEX language_code_index IF NOT EXISTS FOR (l:Language) ON (l.iso_639_1)",
}

// CreateSchema creates constraints and indexes. Idempotent.
func (l *Loader) CreateSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if err := l.store.ExecuteWrite(ctx, stmt, nil); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	l.log.Info("constraints and indexes created")
	return nil
}

// LoadMovies reads the movies CSV and merges Movie nodes plus their
// genre, keyword, company, country and language relationships. Returns
// the number of movies loaded.
func (l *Loader) LoadMovies(ctx context.Context, r io.Reader) (int, error) {
	rows, err := readCSV(r)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, row := range rows {
		if err := l.loadMovie(ctx, row); err != nil {
			return count, err
		}
		count++
	}

	l.log.Info("movies loaded", "count", count)
	return count, nil
}

func (l *Loader) loadMovie(ctx context.Context, row map[string]string) error {
	id := row["id"]
	if id == "" {
		return nil
	}

	props := map[string]any{
		"id":                id,
		"title":             row["title"],
		"original_language": row["original_language"],
		"release_date":      row["release_date"],
		"runtime":           parseFloat(row["runtime"]),
		"vote_average":      parseFloat(row["vote_average"]),
		"vote_count":        parseInt(row["vote_count"]),
		"popularity":        parseFloat(row["popularity"]),
		"budget":            parseFloat(row["budget"]),
		"revenue":           parseFloat(row["revenue"]),
		"status":            row["status"],
		"overview":          row["overview"],
		"tagline":           row["tagline"],
		"homepage":          row["homepage"],
	}

	if err := l.store.ExecuteWrite(ctx,
		"MERGE (m:Movie {id: $id}) SET m += $props",
		map[string]any{"id": id, "props": props}); err != nil {
		return fmt.Errorf("movie %s: %w", id, err)
	}

	for _, genre := range decodeJSONCell(row["genres"]) {
		if err := l.mergeNamed(ctx, id, "Genre", "IN_GENRE", stringField(genre, "name")); err != nil {
			return err
		}
	}
	for _, keyword := range decodeJSONCell(row["keywords"]) {
		if err := l.mergeNamed(ctx, id, "Keyword", "HAS_KEYWORD", stringField(keyword, "name")); err != nil {
			return err
		}
	}
	for _, company := range decodeJSONCell(row["production_companies"]) {
		if err := l.mergeNamed(ctx, id, "Company", "PRODUCED_BY", stringField(company, "name")); err != nil {
			return err
		}
	}
	for _, country := range decodeJSONCell(row["production_countries"]) {
		if err := l.mergeCoded(ctx, id, "Country", "iso_3166_1", "RELEASED_IN_COUNTRY",
			stringField(country, "iso_3166_1"), stringField(country, "name")); err != nil {
			return err
		}
	}
	for _, lang := range decodeJSONCell(row["spoken_languages"]) {
		if err := l.mergeCoded(ctx, id, "Language", "iso_639_1", "SPOKEN_IN_LANGUAGE",
			stringField(lang, "iso_639_1"), stringField(lang, "name")); err != nil {
			return err
		}
	}

	return nil
}

func (l *Loader) mergeNamed(ctx context.Context, movieID, label, rel, name string) error {
	if name == "" {
		return nil
	}
	query := fmt.Sprintf(
		"MERGE (n:%s {name: $name}) WITH n MATCH (m:Movie {id: $mid}) MERGE (m)-[:%s]->(n)",
		label, rel)
	if err := l.store.ExecuteWrite(ctx, query, map[string]any{"name": name, "mid": movieID}); err != nil {
		return fmt.Errorf("%s %q for movie %s: %w", label, name, movieID, err)
	}
	return nil
}

func (l *Loader) mergeCoded(ctx context.Context, movieID, label, codeProp, rel, code, name string) error {
	if code == "" {
		return nil
	}
	query := fmt.Sprintf(
		"MERGE (n:%s {%s: $code, name: $name}) WITH n MATCH (m:Movie {id: $mid}) MERGE (m)-[:%s]->(n)",
		label, codeProp, rel)
	if err := l.store.ExecuteWrite(ctx, query, map[string]any{"code": code, "name": name, "mid": movieID}); err != nil {
		return fmt.Errorf("%s %q for movie %s: %w", label, code, movieID, err)
	}
	return nil
}

// LoadCredits reads the credits CSV and merges Person nodes with their
// ACTED_IN, DIRECTED and CREW_ROLE relationships.
func (l *Loader) LoadCredits(ctx context.Context, r io.Reader) (int, error) {
	rows, err := readCSV(r)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, row := range rows {
		movieID := row["movie_id"]
		if movieID == "" {
			continue
		}

		for _, person := range decodeJSONCell(row["cast"]) {
			pid := idField(person)
			if pid == "" {
				continue
			}
			err := l.store.ExecuteWrite(ctx,
				`MERGE (p:Person {id: $id}) SET p.name = $name, p.gender = $gender
				 WITH p MATCH (m:Movie {id: $mid}) MERGE (p)-[:ACTED_IN {character: $char}]->(m)`,
				map[string]any{
					"id":     pid,
					"name":   stringField(person, "name"),
					"gender": person["gender"],
					"mid":    movieID,
					"char":   stringField(person, "character"),
				})
			if err != nil {
				return count, fmt.Errorf("cast for movie %s: %w", movieID, err)
			}
		}

		for _, person := range decodeJSONCell(row["crew"]) {
			pid := idField(person)
			if pid == "" {
				continue
			}
			job := stringField(person, "job")
			params := map[string]any{
				"id":     pid,
				"name":   stringField(person, "name"),
				"gender": person["gender"],
				"job":    job,
				"mid":    movieID,
			}

			var query string
			if strings.EqualFold(job, "director") {
				query = `MERGE (p:Person {id: $id}) SET p.name = $name, p.gender = $gender, p.job = $job
					 WITH p MATCH (m:Movie {id: $mid}) MERGE (p)-[:DIRECTED]->(m)`
			} else {
				query = `MERGE (p:Person {id: $id}) SET p.name = $name, p.gender = $gender, p.job = $job
					 WITH p MATCH (m:Movie {id: $mid}) MERGE (p)-[:CREW_ROLE {job: $job}]->(m)`
			}
			if err := l.store.ExecuteWrite(ctx, query, params); err != nil {
				return count, fmt.Errorf("crew for movie %s: %w", movieID, err)
			}
		}

		count++
	}

	l.log.Info("credits loaded", "movies", count)
	return count, nil
}

// readCSV reads all rows keyed by header name.
func readCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}

		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// decodeJSONCell decodes the TMDB CSV's embedded JSON arrays. The cells
// use single quotes; they are normalized before decoding, and cells
// that still fail to decode (apostrophes in values break the
// normalization) yield an empty slice rather than an error.
func decodeJSONCell(cell string) []map[string]any {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return nil
	}

	var items []map[string]any
	if err := json.Unmarshal([]byte(cell), &items); err == nil {
		return items
	}

	normalized := strings.ReplaceAll(cell, "'", `"`)
	if err := json.Unmarshal([]byte(normalized), &items); err != nil {
		return nil
	}
	return items
}

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// idField renders the numeric TMDB id as a string, matching the Movie
// and Person id properties.
func idField(m map[string]any) string {
	switch v := m["id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}

func parseFloat(s string) any {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return f
}

func parseInt(s string) any {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return n
}
