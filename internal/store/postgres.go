package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/kapu/cinematch-kakao-bot-go/pkg/errors"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

const createKVTable = `
	CREATE TABLE IF NOT EXISTS kv_store (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)
`

// PostgresStore keeps values in a single kv_store table.
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresStore(cfg PostgresConfig, logger *zap.Logger) (*PostgresStore, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, createKVTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create kv_store table: %w", err)
	}

	logger.Info("PostgreSQL connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Database),
	)

	return NewPostgresStoreWithDB(db, logger), nil
}

// NewPostgresStoreWithDB wraps an open database whose kv_store table already exists.
func NewPostgresStoreWithDB(db *sql.DB, logger *zap.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

func (p *PostgresStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := p.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		p.logger.Error("Store get failed", zap.String("key", key), zap.Error(err))
		return "", false, apperrors.NewStoreError("get failed", "get", key, err)
	}
	return value, true, nil
}

func (p *PostgresStore) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv_store (key, value, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
	`
	if _, err := p.db.ExecContext(ctx, query, key, value); err != nil {
		p.logger.Error("Store set failed", zap.String("key", key), zap.Error(err))
		return apperrors.NewStoreError("set failed", "set", key, err)
	}
	return nil
}

func (p *PostgresStore) Delete(ctx context.Context, key string) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = $1`, key); err != nil {
		p.logger.Error("Store delete failed", zap.String("key", key), zap.Error(err))
		return apperrors.NewStoreError("delete failed", "delete", key, err)
	}
	return nil
}

func (p *PostgresStore) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}
