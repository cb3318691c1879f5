// Package memory хранилище в памяти процесса с тем же набором методов,
// что и repository.Storage. Используется для локального запуска без
// PostgreSQL и в тестах сервисов.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/magabrotheeeer/parking-assistant/internal/models"
)

// Storage потокобезопасное хранилище в памяти.
type Storage struct {
	mu            sync.RWMutex
	lots          map[string]models.Lot
	reports       []models.Report
	subscriptions []models.Subscription
	users         map[string]models.User
}

// New создает пустое хранилище.
func New() *Storage {
	return &Storage{
		lots:  make(map[string]models.Lot),
		users: make(map[string]models.User),
	}
}

func checkCtx(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return nil
	}
}

func sameLot(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// CreateLot добавляет парковку.
func (s *Storage) CreateLot(ctx context.Context, lot models.Lot) error {
	if err := checkCtx(ctx, "memory.CreateLot"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lots[lot.ID] = lot
	return nil
}

// GetLot возвращает парковку по ID.
func (s *Storage) GetLot(ctx context.Context, id string) (*models.Lot, error) {
	const op = "memory.GetLot"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	lot, ok := s.lots[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, models.ErrLotNotFound)
	}
	return &lot, nil
}

// FindLotByName ищет парковку по названию без учета регистра.
func (s *Storage) FindLotByName(ctx context.Context, name string) (*models.Lot, error) {
	const op = "memory.FindLotByName"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, lot := range s.lots {
		if strings.EqualFold(lot.Name, name) {
			return &lot, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", op, models.ErrLotNotFound)
}

// UpdateLotState записывает новое состояние мест.
func (s *Storage) UpdateLotState(ctx context.Context, id string, upd models.LotStateUpdate) (*models.Lot, error) {
	const op = "memory.UpdateLotState"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	lot, ok := s.lots[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, models.ErrLotNotFound)
	}
	lot.FreeSpots = upd.FreeSpots
	lot.HasSpots = upd.HasSpots
	lot.OccupancyLabel = upd.OccupancyLabel
	lot.UpdatedAt = upd.UpdatedAt
	s.lots[id] = lot
	return &lot, nil
}

// ListLotsWithSpots парковки со свободными местами, свежие обновления первыми.
func (s *Storage) ListLotsWithSpots(ctx context.Context) ([]*models.Lot, error) {
	if err := checkCtx(ctx, "memory.ListLotsWithSpots"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*models.Lot
	for _, lot := range s.lots {
		if lot.HasSpots {
			result = append(result, &lot)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].UpdatedAt != result[j].UpdatedAt {
			return result[i].UpdatedAt > result[j].UpdatedAt
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// CreateReport сохраняет отчет.
func (s *Storage) CreateReport(ctx context.Context, r models.Report) error {
	if err := checkCtx(ctx, "memory.CreateReport"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return nil
}

// HasUnprocessedReport есть ли у водителя необработанный отчет по парковке.
func (s *Storage) HasUnprocessedReport(ctx context.Context, lotID, reporterID string) (bool, error) {
	if err := checkCtx(ctx, "memory.HasUnprocessedReport"); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reports {
		if r.LotID == lotID && r.ReporterID == reporterID && !r.Processed {
			return true, nil
		}
	}
	return false, nil
}

// CountUnprocessedReports число необработанных отчетов по парковке.
func (s *Storage) CountUnprocessedReports(ctx context.Context, lotID string) (int, error) {
	if err := checkCtx(ctx, "memory.CountUnprocessedReports"); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, r := range s.reports {
		if r.LotID == lotID && !r.Processed {
			count++
		}
	}
	return count, nil
}

// CloseReports помечает необработанные отчеты парковки обработанными и
// удаляет все отчеты парковки за одну операцию. Возвращает число закрытых
// необработанных отчетов: 0 значит, что их уже закрыл другой вызов.
func (s *Storage) CloseReports(ctx context.Context, lotID string) (int, error) {
	if err := checkCtx(ctx, "memory.CloseReports"); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.reports[:0]
	n := 0
	for _, r := range s.reports {
		if r.LotID == lotID {
			if !r.Processed {
				n++
			}
			continue
		}
		kept = append(kept, r)
	}
	s.reports = kept
	return n, nil
}

// ListUnprocessedByReporter необработанные отчеты водителя, новые первыми.
func (s *Storage) ListUnprocessedByReporter(ctx context.Context, reporterID string) ([]*models.Report, error) {
	if err := checkCtx(ctx, "memory.ListUnprocessedByReporter"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*models.Report
	for _, r := range s.reports {
		if r.ReporterID == reporterID && !r.Processed {
			result = append(result, &r)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].ReportedAt > result[j].ReportedAt
	})
	return result, nil
}

// CreateSubscription сохраняет активную подписку.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) error {
	const op = "memory.CreateSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.subscriptions {
		if existing.Active && existing.DriverID == sub.DriverID && sameLot(existing.LotID, sub.LotID) {
			return fmt.Errorf("%s: %w", op, models.ErrAlreadySubscribed)
		}
	}
	s.subscriptions = append(s.subscriptions, sub)
	return nil
}

// FindActiveSubscription ищет активную подписку водителя.
func (s *Storage) FindActiveSubscription(ctx context.Context, driverID string, lotID *string) (*models.Subscription, error) {
	const op = "memory.FindActiveSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subscriptions {
		if sub.Active && sub.DriverID == driverID && sameLot(sub.LotID, lotID) {
			return &sub, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", op, models.ErrSubscriptionNotFound)
}

func (s *Storage) deactivate(match func(models.Subscription) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.subscriptions {
		if s.subscriptions[i].Active && match(s.subscriptions[i]) {
			s.subscriptions[i].Active = false
			n++
		}
	}
	return n
}

// DeactivateSubscription снимает активную подписку.
func (s *Storage) DeactivateSubscription(ctx context.Context, driverID string, lotID *string) (bool, error) {
	if err := checkCtx(ctx, "memory.DeactivateSubscription"); err != nil {
		return false, err
	}
	n := s.deactivate(func(sub models.Subscription) bool {
		return sub.DriverID == driverID && sameLot(sub.LotID, lotID)
	})
	return n > 0, nil
}

// DeactivateSpecificSubscriptions снимает подписки водителя на конкретные парковки.
func (s *Storage) DeactivateSpecificSubscriptions(ctx context.Context, driverID string) (int, error) {
	if err := checkCtx(ctx, "memory.DeactivateSpecificSubscriptions"); err != nil {
		return 0, err
	}
	return s.deactivate(func(sub models.Subscription) bool {
		return sub.DriverID == driverID && sub.LotID != nil
	}), nil
}

// DeactivateAllSubscriptions снимает все подписки водителя.
func (s *Storage) DeactivateAllSubscriptions(ctx context.Context, driverID string) (int, error) {
	if err := checkCtx(ctx, "memory.DeactivateAllSubscriptions"); err != nil {
		return 0, err
	}
	return s.deactivate(func(sub models.Subscription) bool {
		return sub.DriverID == driverID
	}), nil
}

// ListActiveSubscriptions активные подписки водителя в порядке создания.
func (s *Storage) ListActiveSubscriptions(ctx context.Context, driverID string) ([]*models.Subscription, error) {
	if err := checkCtx(ctx, "memory.ListActiveSubscriptions"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*models.Subscription
	for _, sub := range s.subscriptions {
		if sub.Active && sub.DriverID == driverID {
			result = append(result, &sub)
		}
	}
	return result, nil
}

// ListSubscriberIDs водители с активной подпиской на парковку или на все парковки.
func (s *Storage) ListSubscriberIDs(ctx context.Context, lotID string) ([]string, error) {
	if err := checkCtx(ctx, "memory.ListSubscriberIDs"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	var result []string
	for _, sub := range s.subscriptions {
		if !sub.Active || (sub.LotID != nil && *sub.LotID != lotID) {
			continue
		}
		if _, ok := seen[sub.DriverID]; ok {
			continue
		}
		seen[sub.DriverID] = struct{}{}
		result = append(result, sub.DriverID)
	}
	sort.Strings(result)
	return result, nil
}

// CreateUser регистрирует пользователя.
func (s *Storage) CreateUser(ctx context.Context, u models.User) error {
	const op = "memory.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.ID]; ok {
		return fmt.Errorf("%s: %w", op, models.ErrUserExists)
	}
	if u.ReferralCode != "" && s.codeTakenLocked(u.ReferralCode) {
		return fmt.Errorf("%s: %w", op, models.ErrReferralCodeTaken)
	}
	s.users[u.ID] = u
	return nil
}

func (s *Storage) codeTakenLocked(code string) bool {
	for _, u := range s.users {
		if u.ReferralCode == code {
			return true
		}
	}
	return false
}

// GetUser возвращает пользователя по ID.
func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "memory.GetUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	return &u, nil
}

// FindUserByReferralCode ищет владельца кода.
func (s *Storage) FindUserByReferralCode(ctx context.Context, code string) (*models.User, error) {
	const op = "memory.FindUserByReferralCode"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.ReferralCode == code {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
}

// ReferralCodeExists занят ли код.
func (s *Storage) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	if err := checkCtx(ctx, "memory.ReferralCodeExists"); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.codeTakenLocked(code), nil
}

func (s *Storage) updateUser(ctx context.Context, op, id string, apply func(*models.User) error) error {
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	if err := apply(&u); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.users[id] = u
	return nil
}

// SetReferralCode закрепляет код за пользователем.
func (s *Storage) SetReferralCode(ctx context.Context, userID, code string) error {
	return s.updateUser(ctx, "memory.SetReferralCode", userID, func(u *models.User) error {
		if u.ReferralCode != code && s.codeTakenLocked(code) {
			return models.ErrReferralCodeTaken
		}
		u.ReferralCode = code
		return nil
	})
}

// SetReferredBy запоминает примененный код. Код применяется один раз:
// повторный вызов возвращает models.ErrAlreadyReferred.
func (s *Storage) SetReferredBy(ctx context.Context, userID, code string) error {
	return s.updateUser(ctx, "memory.SetReferredBy", userID, func(u *models.User) error {
		if u.ReferredBy != "" {
			return models.ErrAlreadyReferred
		}
		u.ReferredBy = code
		return nil
	})
}

// IncrementReferralCount увеличивает счетчик приглашений.
func (s *Storage) IncrementReferralCount(ctx context.Context, userID string) error {
	return s.updateUser(ctx, "memory.IncrementReferralCount", userID, func(u *models.User) error {
		u.ReferralCount++
		return nil
	})
}

// ActivatePremium включает премиум до expiration.
func (s *Storage) ActivatePremium(ctx context.Context, userID, expiration string) error {
	return s.updateUser(ctx, "memory.ActivatePremium", userID, func(u *models.User) error {
		u.IsPremium = true
		u.PremiumExpiration = expiration
		return nil
	})
}

// RevokePremium выключает премиум.
func (s *Storage) RevokePremium(ctx context.Context, userID string) error {
	return s.updateUser(ctx, "memory.RevokePremium", userID, func(u *models.User) error {
		u.IsPremium = false
		u.PremiumExpiration = ""
		return nil
	})
}

// SetManagedLot закрепляет парковку за менеджером. Менеджер управляет
// одной парковкой: повторное закрепление возвращает models.ErrManagerHasLot.
func (s *Storage) SetManagedLot(ctx context.Context, userID, lotID string) error {
	return s.updateUser(ctx, "memory.SetManagedLot", userID, func(u *models.User) error {
		if u.ManagedLotID != "" {
			return models.ErrManagerHasLot
		}
		if _, ok := s.lots[lotID]; !ok {
			return models.ErrLotNotFound
		}
		u.ManagedLotID = lotID
		return nil
	})
}
