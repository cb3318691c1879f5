// Package manager менеджеры парковок: регистрация, вход по паролю и
// управление своей парковкой. Менеджер управляет одной парковкой и не
// может менять чужую.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/parking-assistant/internal/lib/jwt"
	"github.com/magabrotheeeer/parking-assistant/internal/lib/password"
	"github.com/magabrotheeeer/parking-assistant/internal/models"
)

// UserRepository определяет методы для работы с менеджерами в хранилище.
type UserRepository interface {
	CreateUser(ctx context.Context, u models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	SetManagedLot(ctx context.Context, userID, lotID string) error
}

// LotService операции с парковками.
type LotService interface {
	Get(ctx context.Context, id string) (*models.Lot, error)
	Create(ctx context.Context, lot models.Lot) (*models.Lot, error)
	UpdateAvailability(ctx context.Context, id, descriptor, label string) (*models.Lot, int, error)
}

// Clock источник текущего времени.
type Clock interface {
	Now() string
}

// Service менеджеры парковок.
type Service struct {
	users UserRepository
	lots  LotService
	maker jwt.Maker
	clock Clock
	log   *slog.Logger
}

// New создает Service.
func New(users UserRepository, lots LotService, maker jwt.Maker, clock Clock, log *slog.Logger) *Service {
	return &Service{
		users: users,
		lots:  lots,
		maker: maker,
		clock: clock,
		log:   log,
	}
}

// Register создает менеджера с паролем. Идентификатор уже
// зарегистрированного пользователя не переиспользуется.
func (s *Service) Register(ctx context.Context, id, name, rawPassword string) (*models.User, error) {
	const op = "services.manager.Register"

	if strings.TrimSpace(rawPassword) == "" {
		return nil, fmt.Errorf("%s: %w", op, models.ErrPasswordRequired)
	}
	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	u := models.User{
		ID:           id,
		Name:         name,
		Role:         models.RoleManager,
		PasswordHash: hashed,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.users.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("manager registered", slog.String("op", op), slog.String("user_id", id))
	return &u, nil
}

// Login проверяет пароль менеджера и выпускает токен. Неизвестный
// пользователь, водитель и неверный пароль неразличимы для клиента.
func (s *Service) Login(ctx context.Context, id, rawPassword string) (string, error) {
	const op = "services.manager.Login"

	user, err := s.users.GetUser(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return "", fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if user.Role != models.RoleManager || user.PasswordHash == "" {
		return "", fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		s.log.Warn("manager login failed", slog.String("op", op), slog.String("user_id", id))
		return "", fmt.Errorf("%s: %w", op, models.ErrInvalidCredentials)
	}

	token, err := s.maker.GenerateToken(user.ID, user.Role)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return token, nil
}

// manager возвращает менеджера или ErrForbidden для остальных ролей.
func (s *Service) manager(ctx context.Context, op, managerID string) (*models.User, error) {
	user, err := s.users.GetUser(ctx, managerID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if user.Role != models.RoleManager {
		return nil, fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}
	return user, nil
}

// authorize пропускает только менеджера парковки lotID.
func (s *Service) authorize(ctx context.Context, op, managerID, lotID string) error {
	user, err := s.manager(ctx, op, managerID)
	if err != nil {
		return err
	}
	if user.ManagedLotID == "" || user.ManagedLotID != lotID {
		s.log.Warn("manager tried to change foreign lot",
			slog.String("op", op), slog.String("user_id", managerID), slog.String("lot_id", lotID))
		return fmt.Errorf("%s: %w", op, models.ErrForbidden)
	}
	return nil
}

// CreateLot добавляет парковку и закрепляет ее за менеджером.
func (s *Service) CreateLot(ctx context.Context, managerID string, lot models.Lot) (*models.Lot, error) {
	const op = "services.manager.CreateLot"

	user, err := s.manager(ctx, op, managerID)
	if err != nil {
		return nil, err
	}
	if user.ManagedLotID != "" {
		return nil, fmt.Errorf("%s: %w", op, models.ErrManagerHasLot)
	}

	created, err := s.lots.Create(ctx, lot)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.SetManagedLot(ctx, managerID, created.ID); err != nil {
		s.log.Error("lot created but not bound to manager",
			slog.String("op", op), slog.String("user_id", managerID), slog.String("lot_id", created.ID))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("lot bound to manager", slog.String("op", op),
		slog.String("user_id", managerID), slog.String("lot_id", created.ID))
	return created, nil
}

// ManagedLot парковка менеджера.
func (s *Service) ManagedLot(ctx context.Context, managerID string) (*models.Lot, error) {
	const op = "services.manager.ManagedLot"

	user, err := s.manager(ctx, op, managerID)
	if err != nil {
		return nil, err
	}
	if user.ManagedLotID == "" {
		return nil, fmt.Errorf("%s: %w", op, models.ErrLotNotFound)
	}
	lot, err := s.lots.Get(ctx, user.ManagedLotID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return lot, nil
}

// UpdateAvailability обновляет места на парковке менеджера.
func (s *Service) UpdateAvailability(ctx context.Context, managerID, lotID, descriptor, label string) (*models.Lot, int, error) {
	const op = "services.manager.UpdateAvailability"

	if err := s.authorize(ctx, op, managerID, lotID); err != nil {
		return nil, 0, err
	}
	lot, sent, err := s.lots.UpdateAvailability(ctx, lotID, descriptor, label)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return lot, sent, nil
}

// SetHasSpots переключает наличие мест без точного числа. Включение
// уведомляет подписчиков так же, как обновление мест.
func (s *Service) SetHasSpots(ctx context.Context, managerID, lotID string, hasSpots bool) (*models.Lot, int, error) {
	descriptor, label := models.DescriptorNoSpots, models.LabelNoSpots
	if hasSpots {
		descriptor, label = models.DescriptorSomeSpots, models.LabelSomeSpots
	}
	return s.UpdateAvailability(ctx, managerID, lotID, descriptor, label)
}
