package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/iho/txengine/internal/adapter/http/handler"
	"github.com/iho/txengine/internal/adapter/kafka"
	postgresRepo "github.com/iho/txengine/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/txengine/internal/adapter/repository/redis"
	"github.com/iho/txengine/internal/infrastructure/postgres"
	"github.com/iho/txengine/internal/infrastructure/redis"
	"github.com/iho/txengine/internal/usecase"
)

const (
	sinkRedis    = "redis"
	sinkPostgres = "postgres"
	sinkKafka    = "kafka"
)

var errUnknownSink = errors.New("unknown sink")

func validateSinks(names []string) error {
	for _, name := range names {
		switch name {
		case sinkRedis, sinkPostgres, sinkKafka:
		default:
			return fmt.Errorf("%w: %q", errUnknownSink, name)
		}
	}
	return nil
}

// sinkSet holds opened sinks, their readiness probes and the connections to release.
type sinkSet struct {
	sinks   []usecase.AccountSink
	checks  map[string]handler.HealthCheck
	closers []func()
}

func (s *sinkSet) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

func (a *app) openSinks(ctx context.Context, names []string) (*sinkSet, error) {
	set := &sinkSet{checks: make(map[string]handler.HealthCheck)}
	seen := make(map[string]bool, len(names))

	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		if err := a.openSink(ctx, set, name); err != nil {
			set.Close()
			return nil, fmt.Errorf("open %s sink: %w", name, err)
		}
	}

	return set, nil
}

func (a *app) openSink(ctx context.Context, set *sinkSet, name string) error {
	switch name {
	case sinkRedis:
		client, err := redis.NewClient(ctx, a.cfg.RedisURL)
		if err != nil {
			return err
		}
		set.sinks = append(set.sinks, redisRepo.NewAccountStore(client, a.cfg.RedisKeyPrefix))
		set.checks[name] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		set.closers = append(set.closers, func() { _ = client.Close() })

	case sinkPostgres:
		pool, err := postgres.NewPool(ctx, a.cfg.DatabaseURL, a.cfg.DatabaseMaxConns, a.cfg.DatabaseMinConns)
		if err != nil {
			return err
		}
		set.sinks = append(set.sinks, postgresRepo.NewAccountReportRepository(pool))
		set.checks[name] = pool.Ping
		set.closers = append(set.closers, pool.Close)

	case sinkKafka:
		publisher := kafka.NewPublisher(a.cfg.KafkaBrokers, a.cfg.KafkaTopic)
		set.sinks = append(set.sinks, publisher)
		set.closers = append(set.closers, func() {
			if err := publisher.Close(); err != nil {
				a.logger.Warn().Err(err).Msg("failed to close kafka writer")
			}
		})

	default:
		return fmt.Errorf("%w: %q", errUnknownSink, name)
	}

	a.logger.Info().Str("sink", name).Msg("sink opened")
	return nil
}
