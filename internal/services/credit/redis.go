package credit

import (
	"context"
	"errors"
	"fmt"

	"github.com/phambaophuc/imgres/internal/config"
	"github.com/phambaophuc/imgres/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// debitScript refuses to create a balance for an unknown identity.
var debitScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return false
end
return redis.call('DECRBY', KEYS[1], ARGV[1])
`)

type RedisLedger struct {
	redisClient *redis.Client
	keyPrefix   string
	logger      *zap.Logger
}

func NewRedisLedger(cfg config.RedisConfig, keyPrefix string, logger *zap.Logger) *RedisLedger {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisLedger{
		redisClient: redisClient,
		keyPrefix:   keyPrefix,
		logger:      logger,
	}
}

func (l *RedisLedger) key(identity string) string {
	return l.keyPrefix + identity
}

// Balance returns 0 for an identity that has no balance yet.
func (l *RedisLedger) Balance(ctx context.Context, identity string) (int64, error) {
	balance, err := l.redisClient.Get(ctx, l.key(identity)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read credit balance: %w", err)
	}
	return balance, nil
}

func (l *RedisLedger) Debit(ctx context.Context, identity string, units int64) error {
	remaining, err := debitScript.Run(ctx, l.redisClient, []string{l.key(identity)}, units).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: %s", models.ErrAccountNotFound, identity)
		}
		return fmt.Errorf("failed to debit credits: %w", err)
	}

	l.logger.Info("Credits debited",
		zap.String("identity", identity),
		zap.Int64("units", units),
		zap.Int64("remaining", remaining),
	)
	return nil
}

// Grant adds units to an identity, creating the balance if needed.
func (l *RedisLedger) Grant(ctx context.Context, identity string, units int64) (int64, error) {
	balance, err := l.redisClient.IncrBy(ctx, l.key(identity), units).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to grant credits: %w", err)
	}
	return balance, nil
}

func (l *RedisLedger) HealthCheck(ctx context.Context) map[string]string {
	status := make(map[string]string)

	if err := l.redisClient.Ping(ctx).Err(); err != nil {
		status["redis"] = "unhealthy: " + err.Error()
	} else {
		status["redis"] = "healthy"
	}

	return status
}

func (l *RedisLedger) Close() error {
	return l.redisClient.Close()
}
