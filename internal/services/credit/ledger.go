package credit

import (
	"context"
	"fmt"

	"github.com/phambaophuc/imgres/internal/config"
	"github.com/phambaophuc/imgres/internal/database"
	"github.com/phambaophuc/imgres/internal/models"
	"go.uber.org/zap"
)

// Ledger holds per-identity credit balances. Debit must be atomic with
// respect to concurrent requests for the same identity.
type Ledger interface {
	Balance(ctx context.Context, identity string) (int64, error)
	Debit(ctx context.Context, identity string, units int64) error
	Grant(ctx context.Context, identity string, units int64) (int64, error)
	HealthCheck(ctx context.Context) map[string]string
}

// UsageStore persists charged operations.
type UsageStore interface {
	RecordUsage(ctx context.Context, event models.UsageEvent) error
}

// NewLedger builds the ledger selected by cfg.Credit.Backend. The returned
// close function releases the underlying connection.
func NewLedger(cfg *config.Config, logger *zap.Logger) (Ledger, func() error, error) {
	switch cfg.Credit.Backend {
	case config.CreditRedis:
		l := NewRedisLedger(cfg.Redis, cfg.Credit.KeyPrefix, logger)
		return l, l.Close, nil
	case config.CreditPostgres:
		l, err := OpenPostgresLedger(cfg.Database.URL, logger)
		if err != nil {
			return nil, nil, err
		}
		return l, l.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown credit backend %q", cfg.Credit.Backend)
	}
}

// OpenLedger is NewLedger followed by the schema migrations the postgres
// backend needs.
func OpenLedger(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Ledger, func() error, error) {
	ledger, closeLedger, err := NewLedger(cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	if pg, ok := ledger.(*PostgresLedger); ok {
		if err := database.NewMigrator(pg.DB(), logger).Run(ctx); err != nil {
			closeLedger()
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return ledger, closeLedger, nil
}

// LogUsageStore only logs usage events. It is used when no SQL database is
// configured.
type LogUsageStore struct {
	logger *zap.Logger
}

func NewLogUsageStore(logger *zap.Logger) *LogUsageStore {
	return &LogUsageStore{logger: logger}
}

func (s *LogUsageStore) RecordUsage(ctx context.Context, event models.UsageEvent) error {
	s.logger.Info("Usage recorded",
		zap.String("event_id", event.ID),
		zap.String("identity", event.Identity),
		zap.String("operation", event.Operation),
		zap.Int("variants", event.Variants),
		zap.Int64("cost_credits", event.CostCredits),
	)
	return nil
}
