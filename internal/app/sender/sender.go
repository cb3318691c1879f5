// Package sender приложение доставки уведомлений: читает очередь
// notifications.lot_available и отправляет сообщения в WhatsApp.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/parking-assistant/internal/config"
	"github.com/magabrotheeeer/parking-assistant/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/parking-assistant/internal/lib/sl"
	"github.com/magabrotheeeer/parking-assistant/internal/lib/whatsapp"
	senderservice "github.com/magabrotheeeer/parking-assistant/internal/services/sender"
)

// workers число сообщений, доставляемых одновременно.
const workers = 4

type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.SenderService
	logger        *slog.Logger
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.sender.New"

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues(), workers)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	transport := whatsapp.New(cfg.WhatsApp, logger)
	senderService := senderservice.NewSenderService(transport, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.LotAvailableQueue, workers, a.logger, a.senderService.Handler(ctx))
	if err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", rabbitmq.LotAvailableQueue), sl.Err(err))
		return err
	}
	a.logger.Info("sender consuming", slog.String("queue", rabbitmq.LotAvailableQueue))

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}

	return nil
}
