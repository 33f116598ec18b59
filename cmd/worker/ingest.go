package worker

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/devrihan/xeno-shopify/internal/config"
	"github.com/devrihan/xeno-shopify/internal/db"
	"github.com/devrihan/xeno-shopify/internal/kafka"
	"github.com/devrihan/xeno-shopify/internal/logger"
	"github.com/devrihan/xeno-shopify/internal/metrics"
	"github.com/devrihan/xeno-shopify/internal/model"
	"github.com/devrihan/xeno-shopify/internal/queue"
	"github.com/devrihan/xeno-shopify/internal/repository"
	"github.com/devrihan/xeno-shopify/internal/worker"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [type]",
	Short: "Run ingest consumers (all four job types, or a single one)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ValidateCore(); err != nil {
		return err
	}
	logger.Init(cfg.Log.Level)
	metrics.MustRegister(prometheus.DefaultRegisterer)

	types := model.JobTypes
	if len(args) == 1 {
		t, ok := model.ParseJobType(args[0])
		if !ok {
			return fmt.Errorf("unknown job type %q", args[0])
		}
		types = []model.JobType{t}
	}

	dbx, err := db.NewMySQL(cfg.MySQL)
	if err != nil {
		return fmt.Errorf("mysql connect: %w", err)
	}
	defer dbx.Close()

	redisClient, err := db.NewRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("redis connect: %w", err)
	}
	defer func() { _ = redisClient.Close() }()

	writer := kafka.NewWriter(cfg.Kafka.Brokers)
	defer func() { _ = writer.Close() }()

	ingestQueue := queue.New(writer, redisClient, cfg.Kafka.TopicPrefix)

	store := worker.Store{
		Customers: repository.NewCustomersRepository(dbx),
		Products:  repository.NewProductsRepository(dbx),
		Orders:    repository.NewOrdersRepository(dbx),
		Checkouts: repository.NewCheckoutsRepository(dbx),
	}

	groupID := cfg.Kafka.GroupID
	if groupID == "" {
		groupID = "xeno-ingest"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range types {
		t := t
		consumer := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers:        cfg.Kafka.Brokers,
			Topic:          queue.Topic(cfg.Kafka.TopicPrefix, t),
			GroupID:        groupID + "-" + t.String(),
			MinBytes:       cfg.Kafka.MinBytes,
			MaxBytes:       cfg.Kafka.MaxBytes,
			CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
		})
		defer consumer.Close()

		w := worker.NewIngest(t, consumer, ingestQueue, store)
		if cfg.Worker.Count > 0 {
			w.Workers = cfg.Worker.Count
		}
		if cfg.Worker.MaxAttempts > 0 {
			w.MaxAttempts = cfg.Worker.MaxAttempts
		}

		logger.Log.Info("ingest worker started",
			zap.String("type", t.String()),
			zap.String("group", groupID+"-"+t.String()),
			zap.Int("workers", w.Workers),
			zap.Int("max_attempts", w.MaxAttempts))

		g.Go(func() error { return w.Run(gctx) })
	}

	return g.Wait()
}
