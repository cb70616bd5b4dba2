package credit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/phambaophuc/imgres/internal/models"
	"go.uber.org/zap"
)

// PostgresLedger keeps balances in user_credits and charged operations in
// user_operations. See internal/database/migrations.
type PostgresLedger struct {
	db     *sql.DB
	logger *zap.Logger
}

func OpenPostgresLedger(dbURL string, logger *zap.Logger) (*PostgresLedger, error) {
	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewPostgresLedger(db, logger), nil
}

func NewPostgresLedger(db *sql.DB, logger *zap.Logger) *PostgresLedger {
	return &PostgresLedger{db: db, logger: logger}
}

// DB exposes the connection for migrations.
func (l *PostgresLedger) DB() *sql.DB {
	return l.db
}

func (l *PostgresLedger) Balance(ctx context.Context, identity string) (int64, error) {
	var credit int64
	err := l.db.QueryRowContext(ctx,
		"SELECT credit FROM user_credits WHERE identity = $1",
		identity,
	).Scan(&credit)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read credit balance: %w", err)
	}
	return credit, nil
}

func (l *PostgresLedger) Debit(ctx context.Context, identity string, units int64) error {
	result, err := l.db.ExecContext(ctx,
		"UPDATE user_credits SET credit = credit - $1, updated_at = NOW() WHERE identity = $2",
		units, identity,
	)
	if err != nil {
		return fmt.Errorf("failed to debit credits: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to debit credits: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", models.ErrAccountNotFound, identity)
	}

	l.logger.Info("Credits debited", zap.String("identity", identity), zap.Int64("units", units))
	return nil
}

// Grant adds units to an identity, creating the row if needed.
func (l *PostgresLedger) Grant(ctx context.Context, identity string, units int64) (int64, error) {
	var credit int64
	err := l.db.QueryRowContext(ctx, `
		INSERT INTO user_credits (identity, credit) VALUES ($1, $2)
		ON CONFLICT (identity) DO UPDATE SET credit = user_credits.credit + EXCLUDED.credit, updated_at = NOW()
		RETURNING credit`,
		identity, units,
	).Scan(&credit)
	if err != nil {
		return 0, fmt.Errorf("failed to grant credits: %w", err)
	}
	return credit, nil
}

func (l *PostgresLedger) RecordUsage(ctx context.Context, event models.UsageEvent) error {
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO user_operations (id, identity, operation, variants, cost_credits, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING`,
		event.ID, event.Identity, event.Operation, event.Variants, event.CostCredits, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	return nil
}

func (l *PostgresLedger) HealthCheck(ctx context.Context) map[string]string {
	status := make(map[string]string)

	if err := l.db.PingContext(ctx); err != nil {
		status["postgres"] = "unhealthy: " + err.Error()
	} else {
		status["postgres"] = "healthy"
	}

	return status
}

func (l *PostgresLedger) Close() error {
	return l.db.Close()
}
