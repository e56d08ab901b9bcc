package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/nsqio/go-nsq"

	"taxdoc/apps/processor/internal/app"
	"taxdoc/apps/processor/internal/config"
	"taxdoc/apps/processor/internal/logger"
)

func main() {
	// Structured logger, correlation ids are pulled from context
	log := slog.New(logger.NewContextHandler(slog.NewJSONHandler(os.Stdout, nil)))
	slog.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		slog.Error("processor exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	deps, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.DB.Close()
	defer deps.NSQProducer.Stop()

	application, err := app.New(cfg, deps.DB, deps.Fetcher, deps.Secrets, deps.NSQProducer, log)
	if err != nil {
		return err
	}

	// Job event consumer
	nsqCfg := nsq.NewConfig()
	consumer, err := nsq.NewConsumer(config.TopicJobEvents, config.ChannelProcessor, nsqCfg)
	if err != nil {
		return err
	}
	consumer.AddHandler(application.Dispatcher)

	if err := consumer.ConnectToNSQLookupd(cfg.NSQLookupd); err != nil {
		// The API and retry endpoints still work without the consumer, so
		// log and keep running rather than crash-looping on lookupd.
		slog.Error("failed to connect to NSQLookupd", "error", err)
	} else {
		slog.Info("job event consumer connected",
			"topic", config.TopicJobEvents, "channel", config.ChannelProcessor)
	}
	defer consumer.Stop()

	return application.Run(ctx, strconv.Itoa(cfg.ServerPort))
}
