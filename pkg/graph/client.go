// Package graph is the knowledge store client. It wraps the Neo4j bolt
// driver behind read/write query execution returning ordered field-map
// records. The driver's connection pool is process-wide and safe for
// concurrent use; each call runs in its own session.
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/cinegraph/cinegraph/pkg/config"
)

// Record is one result row keyed by field name, in return order.
type Record map[string]any

// Client executes cypher against the movie knowledge store.
type Client struct {
	driver   neo4j.DriverWithContext
	database string
	timeout  time.Duration
}

// New connects to the store described by cfg. Connectivity is not
// verified here; use Ping.
func New(cfg config.Neo4jConfig) (*Client, error) {
	var auth neo4j.AuthToken
	if cfg.Username != "" {
		auth = neo4j.BasicAuth(cfg.Username, cfg.Password, "")
	} else {
		auth = neo4j.NoAuth()
	}

	driver, err := neo4j.NewDriverWithContext(cfg.URI, auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		driver:   driver,
		database: cfg.Database,
		timeout:  timeout,
	}, nil
}

// Execute runs a read query and returns all result records.
func (c *Client) Execute(ctx context.Context, query string, params map[string]any) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: c.database,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	return collectRecords(ctx, result)
}

// ExecuteWrite runs a write query. Used by ingestion only; the query
// pipeline is read-only.
func (c *Client) ExecuteWrite(ctx context.Context, query string, params map[string]any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: c.database,
	})
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return fmt.Errorf("write query failed: %w", err)
	}

	// Some failures only surface when the result is consumed.
	if _, err := result.Consume(ctx); err != nil {
		return fmt.Errorf("write query failed: %w", err)
	}

	return nil
}

// Ping verifies connectivity to the store.
func (c *Client) Ping(ctx context.Context) error {
	return c.driver.VerifyConnectivity(ctx)
}

// Close releases the driver's connection pool.
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

func collectRecords(ctx context.Context, result neo4j.ResultWithContext) ([]Record, error) {
	var records []Record
	for result.Next(ctx) {
		rec := result.Record()
		record := make(Record, len(rec.Keys))
		for _, key := range rec.Keys {
			val, _ := rec.Get(key)
			record[key] = val
		}
		records = append(records, record)
	}

	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("result iteration failed: %w", err)
	}

	return records, nil
}
