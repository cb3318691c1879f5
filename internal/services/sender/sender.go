// Package sender доставляет уведомления из очереди водителям в WhatsApp.
package sender

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/parking-assistant/internal/lib/sl"
	"github.com/magabrotheeeer/parking-assistant/internal/metrics"
	"github.com/magabrotheeeer/parking-assistant/internal/models"
)

// TextSender отправляет текст получателю.
type TextSender interface {
	SendText(ctx context.Context, to, text string) error
}

// SenderService обработчик очереди уведомлений.
type SenderService struct {
	transport TextSender
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport TextSender, log *slog.Logger) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// Handler обработчик для rabbitmq.ConsumerMessage.
func (s *SenderService) Handler(ctx context.Context) func([]byte) error {
	return func(body []byte) error {
		return s.SendLotAvailable(ctx, body)
	}
}

// SendLotAvailable разбирает уведомление о свободных местах и отправляет его водителю.
// Неразборчивое сообщение отбрасывается без ошибки: повтор его не исправит.
func (s *SenderService) SendLotAvailable(ctx context.Context, body []byte) error {
	const op = "services.sender.SendLotAvailable"

	var message models.Notification
	if err := json.Unmarshal(body, &message); err != nil {
		s.log.Error("failed to unmarshal message body", slog.String("op", op), sl.Err(err))
		metrics.DeliveriesTotal.WithLabelValues("malformed").Inc()
		return nil
	}
	if message.DriverID == "" || message.Text == "" {
		s.log.Error("notification without recipient or text", slog.String("op", op))
		metrics.DeliveriesTotal.WithLabelValues("malformed").Inc()
		return nil
	}

	err := s.transport.SendText(ctx, message.DriverID, message.Text)
	metrics.DeliveriesTotal.WithLabelValues(metrics.Result(err == nil)).Inc()
	if err != nil {
		s.log.Error("failed to deliver notification",
			slog.String("op", op), slog.String("driver_id", message.DriverID),
			slog.String("lot_id", message.LotID), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("notification delivered",
		slog.String("driver_id", message.DriverID), slog.String("lot_id", message.LotID))
	return nil
}
