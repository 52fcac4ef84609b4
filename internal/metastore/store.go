// Package metastore implements the metadata bridge service: a small
// HTTP API over PostgreSQL that stores market questions keyed by
// on-chain market index.
package metastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kleoslabs/kleos/pkg/types"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Store is the interface for metadata persistence.
type Store interface {
	// Upsert inserts or replaces the question for a market index.
	Upsert(ctx context.Context, index uint64, question string) error

	// Update replaces the question for an existing market index, or
	// returns types.ErrMetadataNotFound when no record exists. Unlike
	// Upsert it never creates a row.
	Update(ctx context.Context, index uint64, question string) error

	// Get returns the question for a market index, or
	// types.ErrMetadataNotFound when no record exists.
	Get(ctx context.Context, index uint64) (string, error)

	// List returns every stored record ordered by market index.
	List(ctx context.Context) (map[uint64]string, error)

	// Close closes the underlying connection.
	Close() error
}

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	SSLMode  string
	Logger   *zap.Logger
}

// NewPostgresStore connects to PostgreSQL and verifies the connection.
func NewPostgresStore(cfg *PostgresConfig) (*PostgresStore, error) {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	cfg.Logger.Info("metastore-connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database))

	return &PostgresStore{db: db, logger: cfg.Logger}, nil
}

// NewPostgresStoreWithDB wraps an existing connection, used by tests.
func NewPostgresStoreWithDB(db *sql.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

// Upsert inserts or replaces the question for a market index. The
// conflict target makes retries idempotent: creating the same index
// twice overwrites instead of duplicating.
func (p *PostgresStore) Upsert(ctx context.Context, index uint64, question string) error {
	query := `
		INSERT INTO market_metadata (market_index, question)
		VALUES ($1, $2)
		ON CONFLICT (market_index) DO UPDATE SET question = EXCLUDED.question
	`

	_, err := p.db.ExecContext(ctx, query, index, question)
	if err != nil {
		return fmt.Errorf("upsert metadata: %w", err)
	}

	UpsertsTotal.Inc()
	p.logger.Debug("metadata-upserted",
		zap.Uint64("market-index", index))
	return nil
}

// Update replaces the question for an existing market index. No insert
// happens on a miss: an update against an index that was never created
// reports ErrMetadataNotFound instead of minting a record.
func (p *PostgresStore) Update(ctx context.Context, index uint64, question string) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE market_metadata SET question = $2 WHERE market_index = $1`,
		index, question,
	)
	if err != nil {
		return fmt.Errorf("update metadata: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update metadata: %w", err)
	}
	if affected == 0 {
		return types.ErrMetadataNotFound
	}

	UpdatesTotal.Inc()
	p.logger.Debug("metadata-updated",
		zap.Uint64("market-index", index))
	return nil
}

// Get returns the question for a market index.
func (p *PostgresStore) Get(ctx context.Context, index uint64) (string, error) {
	var question string
	err := p.db.QueryRowContext(ctx,
		`SELECT question FROM market_metadata WHERE market_index = $1`,
		index,
	).Scan(&question)
	if errors.Is(err, sql.ErrNoRows) {
		return "", types.ErrMetadataNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select metadata: %w", err)
	}
	return question, nil
}

// List returns every stored record.
func (p *PostgresStore) List(ctx context.Context) (map[uint64]string, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT market_index, question FROM market_metadata ORDER BY market_index`)
	if err != nil {
		return nil, fmt.Errorf("list metadata: %w", err)
	}
	defer rows.Close()

	records := make(map[uint64]string)
	for rows.Next() {
		var index uint64
		var question string
		if err := rows.Scan(&index, &question); err != nil {
			return nil, fmt.Errorf("scan metadata: %w", err)
		}
		records[index] = question
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate metadata: %w", err)
	}
	return records, nil
}

// Ping verifies the database connection is still alive. Used by the
// readiness probe.
func (p *PostgresStore) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (p *PostgresStore) Close() error {
	p.logger.Info("closing-metastore")
	return p.db.Close()
}
