package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/devrihan/xeno-shopify/internal/config"
	"github.com/devrihan/xeno-shopify/internal/db"
	"github.com/devrihan/xeno-shopify/internal/kafka"
	"github.com/devrihan/xeno-shopify/internal/logger"
	"github.com/devrihan/xeno-shopify/internal/metrics"
	"github.com/devrihan/xeno-shopify/internal/producer"
	"github.com/devrihan/xeno-shopify/internal/queue"
	"github.com/devrihan/xeno-shopify/internal/repository"
	"github.com/devrihan/xeno-shopify/internal/scheduler"
	"github.com/devrihan/xeno-shopify/internal/shopify"
	"github.com/devrihan/xeno-shopify/internal/util"
)

var syncOnce bool

var producerCmd = &cobra.Command{
	Use:   "producer",
	Short: "Run the scheduled sync producer (--once for a single run)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cfg.ValidateCore(); err != nil {
			return err
		}
		logger.Init(cfg.Log.Level)
		metrics.MustRegister(prometheus.DefaultRegisterer)

		mysqlDB, err := db.NewMySQL(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("mysql connect: %w", err)
		}
		defer mysqlDB.Close()

		redisClient, err := db.NewRedis(cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		defer func() { _ = redisClient.Close() }()

		writer := kafka.NewWriter(cfg.Kafka.Brokers)
		defer func() { _ = writer.Close() }()

		ingestQueue := queue.New(writer, redisClient, cfg.Kafka.TopicPrefix)
		shopClient := shopify.NewHTTPClient(cfg.Shopify.APIVersion, cfg.Shopify.TimeoutMs, cfg.Shopify.PageLimit)

		prod := producer.New(repository.NewTenantsRepository(mysqlDB), shopClient, ingestQueue)
		prod.Parallelism = cfg.Producer.TenantParallelism
		prod.FetchTimeout = cfg.Producer.FetchTimeout

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if syncOnce {
			stats, err := prod.SyncAll(ctx)
			if err != nil {
				return err
			}
			logger.Log.Info("one-shot sync finished",
				zap.Int("tenants", stats.Tenants),
				zap.Int64("enqueued", stats.Enqueued),
				zap.Int64("failed", stats.Failed))
			return nil
		}

		locker := scheduler.NewRedisLocker(redisClient, util.New())
		sched := scheduler.New(cfg.Producer.Interval, locker, func(ctx context.Context) error {
			_, err := prod.SyncAll(ctx)
			return err
		})

		logger.Log.Info("producer started",
			zap.Duration("interval", sched.Interval),
			zap.Int("tenant_parallelism", prod.Parallelism))

		err = sched.Start(ctx)
		if err == context.Canceled {
			return nil
		}
		return err
	},
}

func init() {
	producerCmd.Flags().BoolVar(&syncOnce, "once", false, "run a single sync across all tenants and exit")
}
