package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/devrihan/xeno-shopify/internal/config"
	"github.com/devrihan/xeno-shopify/internal/db"
	httpSrv "github.com/devrihan/xeno-shopify/internal/http"
	"github.com/devrihan/xeno-shopify/internal/kafka"
	"github.com/devrihan/xeno-shopify/internal/logger"
	"github.com/devrihan/xeno-shopify/internal/notify"
	"github.com/devrihan/xeno-shopify/internal/producer"
	"github.com/devrihan/xeno-shopify/internal/queue"
	"github.com/devrihan/xeno-shopify/internal/repository"
	"github.com/devrihan/xeno-shopify/internal/shopify"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run ops HTTP server (onboarding, sync trigger, recovery action)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cfg.ValidateCore(); err != nil {
			return err
		}
		logger.Init(cfg.Log.Level)

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

		var provs []notify.Provider
		for _, pc := range cfg.Recovery.Providers {
			if !pc.Enabled || strings.TrimSpace(pc.URL) == "" {
				continue
			}
			provs = append(provs, notify.NewHTTPProvider(
				pc.Name,
				strings.TrimRight(pc.URL, "/"),
				pc.TimeoutMs,
				pc.Breaker.FailThreshold,
				pc.Breaker.OpenForMs,
			))
		}
		sender := notify.NewDispatcher(provs, cfg.Recovery.MaxAttempts)

		server := httpSrv.NewServer(cfg, mysqlDB, redisClient, prod, sender)

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(cfg.HTTP.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			log.Printf("signal received: %s, shutting down...", sig)
		case err := <-errCh:
			if err != nil {
				log.Printf("http server exited: %v", err)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)

		return nil
	},
}
