// The engine binary wires configuration, logging, the matching engine and
// its collaborators (trade feed, journal, kafka) behind the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/tradeflow/matching-engine/internal/config"
	"github.com/tradeflow/matching-engine/internal/engine"
	"github.com/tradeflow/matching-engine/internal/feed"
	"github.com/tradeflow/matching-engine/internal/journal"
	"github.com/tradeflow/matching-engine/internal/messaging"
	"github.com/tradeflow/matching-engine/internal/server"
	"github.com/tradeflow/matching-engine/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to config file (optional)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "matching-engine: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer log.Sync()

	var sinks []engine.TradeSink

	var hub *feed.Hub
	if cfg.Feed.Enabled {
		hub = feed.NewHub(log, cfg.Feed.SendBuffer, cfg.Feed.BroadcastQueue)
		go hub.Run()
		defer hub.Close()
		sinks = append(sinks, hub)
	}

	if cfg.Journal.Enabled {
		j, err := journal.Open(log, cfg.Journal.Path)
		if err != nil {
			return err
		}
		defer j.Close()
		sinks = append(sinks, j)
		log.Info("trade journal enabled", zap.String("path", cfg.Journal.Path))
	}

	if cfg.Kafka.Enabled {
		pub := messaging.NewTradePublisher(log, messaging.Config{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			BatchTimeout: cfg.Kafka.BatchTimeout,
			WriteTimeout: cfg.Kafka.WriteTimeout,
			QueueSize:    cfg.Kafka.QueueSize,
		})
		defer pub.Close()
		sinks = append(sinks, pub)
		log.Info("kafka trade publisher enabled",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("topic", cfg.Kafka.Topic))
	}

	eng := engine.New(log, sinks...)
	srv := server.New(log, eng, hub, cfg)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
