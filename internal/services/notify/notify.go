// Package notify рассылает водителям уведомления о появлении мест.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/magabrotheeeer/parking-assistant/internal/lib/sl"
	"github.com/magabrotheeeer/parking-assistant/internal/metrics"
	"github.com/magabrotheeeer/parking-assistant/internal/models"
)

// TargetResolver определяет получателей уведомления о парковке.
type TargetResolver interface {
	TargetsForLot(ctx context.Context, lotID string) ([]string, error)
}

// Dispatcher отправляет одно уведомление.
type Dispatcher interface {
	Dispatch(ctx context.Context, n models.Notification) error
}

// Clock источник текущего времени.
type Clock interface {
	Now() string
}

// Notifier рассылка уведомлений подписчикам парковки.
type Notifier struct {
	targets    TargetResolver
	dispatcher Dispatcher
	clock      Clock
	workers    int
	log        *slog.Logger
}

// New создает Notifier. workers ограничивает число одновременных отправок.
func New(targets TargetResolver, dispatcher Dispatcher, clock Clock, workers int, log *slog.Logger) *Notifier {
	if workers < 1 {
		workers = 1
	}
	return &Notifier{
		targets:    targets,
		dispatcher: dispatcher,
		clock:      clock,
		workers:    workers,
		log:        log,
	}
}

// NotifyLotAvailable отправляет по одному уведомлению каждому получателю
// парковки и возвращает число попыток отправки. Ошибка отдельной отправки
// только логируется.
func (n *Notifier) NotifyLotAvailable(ctx context.Context, lot *models.Lot) (int, error) {
	const op = "services.notify.NotifyLotAvailable"
	targets, err := n.Targets(ctx, lot.ID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n.Dispatch(ctx, lot, targets), nil
}

// Targets получатели уведомления о парковке на текущий момент.
func (n *Notifier) Targets(ctx context.Context, lotID string) ([]string, error) {
	const op = "services.notify.Targets"
	targets, err := n.targets.TargetsForLot(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return targets, nil
}

// Dispatch рассылает уведомление о парковке заранее выбранным получателям
// и возвращает число попыток отправки.
func (n *Notifier) Dispatch(ctx context.Context, lot *models.Lot, targets []string) int {
	const op = "services.notify.Dispatch"
	if len(targets) == 0 {
		return 0
	}
	log := n.log.With(slog.String("op", op), slog.String("lot_id", lot.ID))

	text := LotAvailableText(lot)
	createdAt := n.clock.Now()

	var g errgroup.Group
	g.SetLimit(n.workers)
	for _, driverID := range targets {
		g.Go(func() error {
			err := n.dispatcher.Dispatch(ctx, models.Notification{
				DriverID:  driverID,
				LotID:     lot.ID,
				Kind:      models.KindLotAvailable,
				Text:      text,
				CreatedAt: createdAt,
			})
			metrics.NotificationsTotal.WithLabelValues(metrics.Result(err == nil)).Inc()
			if err != nil {
				log.Warn("failed to dispatch notification", slog.String("driver_id", driverID), sl.Err(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	log.Info("lot availability notifications dispatched", slog.Int("targets", len(targets)))
	return len(targets)
}

// LotAvailableText текст уведомления о свободных местах.
func LotAvailableText(lot *models.Lot) string {
	text := fmt.Sprintf("Spots available at %s!", lot.Name)
	if lot.Address != "" {
		text += "\nAddress: " + lot.Address
	}
	text += "\nFree spots: " + lot.FreeSpots
	if lot.OccupancyLabel != "" {
		text += " (" + lot.OccupancyLabel + ")"
	}
	text += "\nHurry before they are gone!"
	return text
}
