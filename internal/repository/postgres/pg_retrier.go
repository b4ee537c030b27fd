package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type PsqlConnectionStrategy func(ctx context.Context, cfg Config) (*pgxpool.Pool, error)

type PostgresRetrier struct {
	countRetries   int
	delay          time.Duration
	connectionFunc PsqlConnectionStrategy
}

func NewPostgresRetrier(countRetries int, delay time.Duration, connectionFunc PsqlConnectionStrategy) *PostgresRetrier {
	return &PostgresRetrier{
		countRetries:   countRetries,
		delay:          delay,
		connectionFunc: connectionFunc,
	}
}

func (r *PostgresRetrier) newConnection(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	db, err := r.connectionFunc(ctx, cfg)

	for attempt := 0; err != nil && attempt < r.countRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, errors.Join(err, ctx.Err())
		case <-time.After(r.delay):
		}

		db, err = r.connectionFunc(ctx, cfg)
	}

	return db, err
}

// NewPsqlConnectionWithRetrier keeps dialing until the database answers, the retries
// run out or ctx is done. It exists for startup, when Postgres may still be booting.
func NewPsqlConnectionWithRetrier(ctx context.Context, cfg Config, retrier *PostgresRetrier) (*pgxpool.Pool, error) {
	return retrier.newConnection(ctx, cfg)
}
