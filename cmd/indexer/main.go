package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-user-registry/config"
	"github.com/oksasatya/go-user-registry/internal/worker"
	"github.com/oksasatya/go-user-registry/pkg/helpers"
	"github.com/oksasatya/go-user-registry/pkg/search"
)

// indexer keeps the Elasticsearch users index in sync with the user events queue.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-indexer", cfg.Env)

	if cfg.RabbitMQURL == "" {
		logger.Fatal("RABBITMQ_URL not configured")
	}
	if len(cfg.ESAddrs()) == 0 {
		logger.Fatal("ELASTICSEARCH_ADDRS not configured")
	}

	es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass)
	if err != nil {
		logger.Fatalf("elasticsearch client: %v", err)
	}
	w := worker.NewUserIndexer(search.NewUserIndex(es, cfg.ESUsersIndex), logger)

	conn, ch, err := helpers.DialQueue(cfg.RabbitMQURL, cfg.RabbitMQUserEventsQueue)
	if err != nil {
		logger.Fatalf("amqp: %v", err)
	}
	defer func() { _ = conn.Close() }()
	defer func() { _ = ch.Close() }()

	// prefetch for fair dispatch
	if err := ch.Qos(16, 0, false); err != nil {
		logger.Fatalf("qos: %v", err)
	}
	msgs, err := ch.Consume(cfg.RabbitMQUserEventsQueue, "", false, false, false, false, nil)
	if err != nil {
		logger.Fatalf("consume: %v", err)
	}

	ctx := context.Background()
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for msg := range msgs {
			c, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := w.Handle(c, msg.Body)
			cancel()
			switch {
			case errors.Is(err, worker.ErrMalformed):
				logger.WithError(err).Warn("dropping user event")
				_ = msg.Nack(false, false)
			case err != nil:
				logger.WithError(err).Error("index user event failed; requeueing")
				_ = msg.Nack(false, true)
			default:
				_ = msg.Ack(false)
			}
		}
		close(done)
	}()

	logger.WithField("queue", cfg.RabbitMQUserEventsQueue).Info("indexer listening")
	<-stop
	logger.Info("shutting down...")
	_ = ch.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}
