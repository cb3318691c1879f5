// Package lot чтение парковок с кэшированием и обновление состояния мест.
package lot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/parking-assistant/internal/lib/sl"
	"github.com/magabrotheeeer/parking-assistant/internal/lib/spots"
	"github.com/magabrotheeeer/parking-assistant/internal/models"
)

// Repository определяет методы для работы с парковками в хранилище.
type Repository interface {
	CreateLot(ctx context.Context, lot models.Lot) error
	GetLot(ctx context.Context, id string) (*models.Lot, error)
	FindLotByName(ctx context.Context, name string) (*models.Lot, error)
	UpdateLotState(ctx context.Context, id string, upd models.LotStateUpdate) (*models.Lot, error)
	ListLotsWithSpots(ctx context.Context) ([]*models.Lot, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Notifier уведомляет подписчиков парковки.
type Notifier interface {
	NotifyLotAvailable(ctx context.Context, lot *models.Lot) (int, error)
}

// Clock источник текущего времени.
type Clock interface {
	Now() string
}

// Service парковки.
type Service struct {
	repo     Repository
	cache    Cache
	cacheTTL time.Duration
	notifier Notifier
	clock    Clock
	log      *slog.Logger
}

// New создает Service. cache может быть nil.
func New(repo Repository, cache Cache, cacheTTL time.Duration, notifier Notifier, clock Clock, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		cacheTTL: cacheTTL,
		notifier: notifier,
		clock:    clock,
		log:      log,
	}
}

func cacheKey(id string) string {
	return "lot:" + id
}

// Get возвращает парковку, сначала из кэша.
func (s *Service) Get(ctx context.Context, id string) (*models.Lot, error) {
	const op = "services.lot.Get"
	key := cacheKey(id)

	if s.cache != nil {
		var cached models.Lot
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("failed to read lot from cache", slog.String("key", key), sl.Err(err))
		}
		if found {
			return &cached, nil
		}
	}

	lot, err := s.repo.GetLot(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, lot, s.cacheTTL); err != nil {
			s.log.Warn("failed to cache lot", slog.String("key", key), sl.Err(err))
		}
	}
	return lot, nil
}

// FindByName ищет парковку по названию.
func (s *Service) FindByName(ctx context.Context, name string) (*models.Lot, error) {
	const op = "services.lot.FindByName"
	lot, err := s.repo.FindLotByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return lot, nil
}

// Create добавляет парковку. Наличие мест и подпись выводятся из FreeSpots.
func (s *Service) Create(ctx context.Context, lot models.Lot) (*models.Lot, error) {
	const op = "services.lot.Create"

	if lot.ID == "" {
		lot.ID = uuid.NewString()
	}
	lot.HasSpots = spots.HasSpots(lot.FreeSpots)
	if lot.OccupancyLabel == "" && lot.FreeSpots != "" {
		lot.OccupancyLabel = spots.InferState(lot.FreeSpots)
	}
	lot.UpdatedAt = s.clock.Now()

	if err := s.repo.CreateLot(ctx, lot); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("lot created", slog.String("op", op), slog.String("lot_id", lot.ID))
	return &lot, nil
}

// FindAvailable парковки со свободными местами, свежие первыми.
func (s *Service) FindAvailable(ctx context.Context) ([]*models.Lot, error) {
	const op = "services.lot.FindAvailable"
	lots, err := s.repo.ListLotsWithSpots(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return lots, nil
}

// UpdateState записывает состояние мест и сбрасывает кэш парковки.
func (s *Service) UpdateState(ctx context.Context, id, descriptor string, hasSpots bool, label string) (*models.Lot, error) {
	const op = "services.lot.UpdateState"
	lot, err := s.repo.UpdateLotState(ctx, id, models.LotStateUpdate{
		FreeSpots:      descriptor,
		HasSpots:       hasSpots,
		OccupancyLabel: label,
		UpdatedAt:      s.clock.Now(),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, cacheKey(id)); err != nil {
			s.log.Warn("failed to invalidate lot cache", slog.String("lot_id", id), sl.Err(err))
		}
	}
	return lot, nil
}

// UpdateAvailability обновление мест менеджером парковки. Наличие мест и
// подпись выводятся из описания, если подпись не задана. Когда места есть,
// подписчики получают уведомление. Возвращает парковку и число уведомлений.
func (s *Service) UpdateAvailability(ctx context.Context, id, descriptor, label string) (*models.Lot, int, error) {
	const op = "services.lot.UpdateAvailability"
	log := s.log.With(slog.String("op", op), slog.String("lot_id", id))

	hasSpots := spots.HasSpots(descriptor)
	if label == "" {
		label = spots.InferState(descriptor)
	}

	lot, err := s.UpdateState(ctx, id, descriptor, hasSpots, label)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("lot availability updated", slog.String("free_spots", descriptor), slog.Bool("has_spots", hasSpots))

	if !hasSpots {
		return lot, 0, nil
	}
	sent, err := s.notifier.NotifyLotAvailable(ctx, lot)
	if err != nil {
		log.Error("failed to notify subscribers", sl.Err(err))
		return lot, 0, nil
	}
	return lot, sent, nil
}
