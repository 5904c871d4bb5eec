package health

import (
	"context"
	"fmt"
	"time"

	"github.com/aaravmahajanofficial/footwear-storefront/internal/config"
	"github.com/hellofresh/health-go/v5"
	healthMongo "github.com/hellofresh/health-go/v5/checks/mongo"
	"github.com/hellofresh/health-go/v5/checks/postgres"
	healthRedis "github.com/hellofresh/health-go/v5/checks/redis"
	"github.com/segmentio/kafka-go"
)

const version = "1.0.0"

func NewHealthHandler(cfg *config.Config) (*health.Health, error) {

	checks := []health.Config{
		{
			Name:      "database",
			Timeout:   3 * time.Second,
			SkipOnErr: false,
			Check: postgres.New(postgres.Config{
				DSN: cfg.Database.GetDSN(),
			}),
		},
		{
			Name:      "redis",
			Timeout:   2 * time.Second,
			SkipOnErr: false,
			Check: healthRedis.New(healthRedis.Config{
				DSN: cfg.RedisConnect.GetDSN(),
			}),
		},
		{
			// Images are optional for cart rendering.
			Name:      "mongo",
			Timeout:   3 * time.Second,
			SkipOnErr: true,
			Check: healthMongo.New(healthMongo.Config{
				DSN:         cfg.Mongo.URI,
				TimeoutPing: 2 * time.Second,
			}),
		},
	}

	if cfg.Kafka.Enabled {
		checks = append(checks, health.Config{
			Name:      "kafka",
			Timeout:   3 * time.Second,
			SkipOnErr: true,
			Check:     kafkaCheck(cfg.Kafka.Brokers),
		})
	}

	h, err := health.New(
		health.WithComponent(health.Component{
			Name:    cfg.Otel.ServiceName,
			Version: version,
		}),
		health.WithSystemInfo(),
		health.WithChecks(checks...),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create health instance: %w", err)
	}

	return h, nil
}

func kafkaCheck(brokers []string) health.CheckFunc {
	return func(ctx context.Context) error {
		if len(brokers) == 0 {
			return fmt.Errorf("no kafka brokers configured")
		}

		conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
		if err != nil {
			return fmt.Errorf("failed to connect to kafka: %w", err)
		}
		defer conn.Close()

		if _, err := conn.Brokers(); err != nil {
			return fmt.Errorf("failed to read kafka metadata: %w", err)
		}

		return nil
	}
}
