package notify

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/parking-assistant/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/parking-assistant/internal/models"
)

// Publisher публикует сообщение в брокер.
type Publisher interface {
	Publish(routingKey string, message any) error
}

// QueueDispatcher ставит уведомления в очередь доставки.
type QueueDispatcher struct {
	publisher Publisher
}

// NewQueueDispatcher создает QueueDispatcher.
func NewQueueDispatcher(p Publisher) *QueueDispatcher {
	return &QueueDispatcher{publisher: p}
}

// Dispatch публикует уведомление.
func (d *QueueDispatcher) Dispatch(ctx context.Context, n models.Notification) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("notify.QueueDispatcher.Dispatch: %w", err)
	}
	return d.publisher.Publish(rabbitmq.LotAvailableRoutingKey, n)
}

// TextSender отправляет текст пользователю мессенджера.
type TextSender interface {
	SendText(ctx context.Context, to, text string) error
}

// DirectDispatcher отправляет уведомления сразу в мессенджер, без очереди.
type DirectDispatcher struct {
	sender TextSender
}

// NewDirectDispatcher создает DirectDispatcher.
func NewDirectDispatcher(s TextSender) *DirectDispatcher {
	return &DirectDispatcher{sender: s}
}

// Dispatch отправляет уведомление.
func (d *DirectDispatcher) Dispatch(ctx context.Context, n models.Notification) error {
	return d.sender.SendText(ctx, n.DriverID, n.Text)
}
