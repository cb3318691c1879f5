// Package subscription ведет подписки водителей на уведомления о свободных
// местах: на конкретную парковку или на все парковки сразу.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/parking-assistant/internal/lib/sl"
	"github.com/magabrotheeeer/parking-assistant/internal/models"
)

// Repository определяет методы для работы с подписками в хранилище.
type Repository interface {
	// CreateSubscription сохраняет подписку; models.ErrAlreadySubscribed при дубле.
	CreateSubscription(ctx context.Context, sub models.Subscription) error
	// FindActiveSubscription ищет активную подписку; models.ErrSubscriptionNotFound если нет.
	FindActiveSubscription(ctx context.Context, driverID string, lotID *string) (*models.Subscription, error)
	DeactivateSubscription(ctx context.Context, driverID string, lotID *string) (bool, error)
	DeactivateSpecificSubscriptions(ctx context.Context, driverID string) (int, error)
	DeactivateAllSubscriptions(ctx context.Context, driverID string) (int, error)
	ListActiveSubscriptions(ctx context.Context, driverID string) ([]*models.Subscription, error)
	ListSubscriberIDs(ctx context.Context, lotID string) ([]string, error)
}

// LotGetter проверяет существование парковки.
type LotGetter interface {
	Get(ctx context.Context, id string) (*models.Lot, error)
}

// Clock источник текущего времени.
type Clock interface {
	Now() string
}

// Service индекс подписок.
type Service struct {
	repo  Repository
	lots  LotGetter
	clock Clock
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, lots LotGetter, clock Clock, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		lots:  lots,
		clock: clock,
		log:   log,
	}
}

// Subscribe подписывает водителя на парковку lotID или на все парковки (lotID == nil).
//
// Подписка на все парковки снимает подписки водителя на конкретные парковки.
// Подписка на конкретную парковку не проверяет наличие подписки на все.
func (s *Service) Subscribe(ctx context.Context, driverID string, lotID *string) (models.SubscribeResult, error) {
	const op = "services.subscription.Subscribe"
	log := s.log.With(slog.String("op", op), slog.String("driver_id", driverID))

	if lotID != nil {
		if _, err := s.lots.Get(ctx, *lotID); err != nil {
			return models.SubscribeResult{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	existing, err := s.repo.FindActiveSubscription(ctx, driverID, lotID)
	if err == nil {
		return models.SubscribeResult{Subscription: existing, AlreadySubscribed: true}, nil
	}
	if !errors.Is(err, models.ErrSubscriptionNotFound) {
		return models.SubscribeResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if lotID == nil {
		n, err := s.repo.DeactivateSpecificSubscriptions(ctx, driverID)
		if err != nil {
			return models.SubscribeResult{}, fmt.Errorf("%s: %w", op, err)
		}
		if n > 0 {
			log.Info("specific subscriptions replaced by wildcard", slog.Int("count", n))
		}
	}

	sub := models.Subscription{
		ID:           uuid.NewString(),
		DriverID:     driverID,
		LotID:        lotID,
		SubscribedAt: s.clock.Now(),
		Active:       true,
	}
	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		if errors.Is(err, models.ErrAlreadySubscribed) {
			existing, findErr := s.repo.FindActiveSubscription(ctx, driverID, lotID)
			if findErr != nil {
				log.Warn("failed to load concurrent subscription", sl.Err(findErr))
			}
			return models.SubscribeResult{Subscription: existing, AlreadySubscribed: true}, nil
		}
		return models.SubscribeResult{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("driver subscribed", slog.Bool("wildcard", sub.IsWildcard()))
	return models.SubscribeResult{Subscription: &sub}, nil
}

// Unsubscribe снимает подписку. false, если активной подписки не было.
func (s *Service) Unsubscribe(ctx context.Context, driverID string, lotID *string) (bool, error) {
	const op = "services.subscription.Unsubscribe"
	ok, err := s.repo.DeactivateSubscription(ctx, driverID, lotID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return ok, nil
}

// UnsubscribeAll снимает все подписки водителя и возвращает их число.
func (s *Service) UnsubscribeAll(ctx context.Context, driverID string) (int, error) {
	const op = "services.subscription.UnsubscribeAll"
	n, err := s.repo.DeactivateAllSubscriptions(ctx, driverID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// TargetsForLot водители, которых нужно уведомить о парковке: подписчики
// парковки и подписчики на все парковки, каждый один раз.
func (s *Service) TargetsForLot(ctx context.Context, lotID string) ([]string, error) {
	const op = "services.subscription.TargetsForLot"
	ids, err := s.repo.ListSubscriberIDs(ctx, lotID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	seen := make(map[string]struct{}, len(ids))
	result := ids[:0]
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result, nil
}

// ListActive активные подписки водителя.
func (s *Service) ListActive(ctx context.Context, driverID string) ([]*models.Subscription, error) {
	const op = "services.subscription.ListActive"
	subs, err := s.repo.ListActiveSubscriptions(ctx, driverID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subs, nil
}
