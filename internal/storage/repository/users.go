package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/parking-assistant/internal/models"
)

const userColumns = `id, name, role, referral_code, referred_by, referral_count,
	is_premium, premium_expiration, created_at, password_hash, managed_lot_id`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var (
		u                                models.User
		code, referredBy, expire, lotID sql.NullString
	)
	err := row.Scan(&u.ID, &u.Name, &u.Role, &code, &referredBy, &u.ReferralCount,
		&u.IsPremium, &expire, &u.CreatedAt, &u.PasswordHash, &lotID)
	if err != nil {
		return nil, err
	}
	u.ReferralCode = code.String
	u.ReferredBy = referredBy.String
	u.PremiumExpiration = expire.String
	u.ManagedLotID = lotID.String
	return &u, nil
}

// CreateUser регистрирует пользователя.
func (s *Storage) CreateUser(ctx context.Context, u models.User) error {
	const op = "storage.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := s.DB.ExecContext(ctx, query, u.ID, u.Name, u.Role, nullString(u.ReferralCode),
		nullString(u.ReferredBy), u.ReferralCount, u.IsPremium, nullString(u.PremiumExpiration), u.CreatedAt,
		u.PasswordHash, nullString(u.ManagedLotID))
	if isUniqueViolation(err) {
		if _, getErr := s.GetUser(ctx, u.ID); getErr == nil {
			return fmt.Errorf("%s: %w", op, models.ErrUserExists)
		}
		if u.ReferralCode != "" {
			return fmt.Errorf("%s: %w", op, models.ErrReferralCodeTaken)
		}
	}
	if err != nil {
		return storageErr(op, err)
	}
	return nil
}

// GetUser возвращает пользователя по ID.
func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	const op = "storage.GetUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	u, err := scanUser(s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	if err != nil {
		return nil, storageErr(op, err)
	}
	return u, nil
}

// FindUserByReferralCode ищет владельца реферального кода.
func (s *Storage) FindUserByReferralCode(ctx context.Context, code string) (*models.User, error) {
	const op = "storage.FindUserByReferralCode"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	u, err := scanUser(s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE referral_code = $1`, code))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	if err != nil {
		return nil, storageErr(op, err)
	}
	return u, nil
}

// ReferralCodeExists занят ли код.
func (s *Storage) ReferralCodeExists(ctx context.Context, code string) (bool, error) {
	const op = "storage.ReferralCodeExists"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE referral_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, storageErr(op, err)
	}
	return exists, nil
}

func (s *Storage) updateUser(ctx context.Context, op, query string, args ...any) error {
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return storageErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}
	return nil
}

// SetReferralCode закрепляет код за пользователем.
func (s *Storage) SetReferralCode(ctx context.Context, userID, code string) error {
	const op = "storage.SetReferralCode"
	err := s.updateUser(ctx, op, `UPDATE users SET referral_code = $2 WHERE id = $1`, userID, code)
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, models.ErrReferralCodeTaken)
	}
	return err
}

// SetReferredBy запоминает, чей код применил пользователь. Код
// применяется один раз: если referred_by уже заполнен, возвращается
// models.ErrAlreadyReferred.
func (s *Storage) SetReferredBy(ctx context.Context, userID, code string) error {
	const op = "storage.SetReferredBy"
	err := s.updateUser(ctx, op,
		`UPDATE users SET referred_by = $2 WHERE id = $1 AND referred_by IS NULL`, userID, code)
	if !errors.Is(err, models.ErrUserNotFound) {
		return err
	}
	if _, getErr := s.GetUser(ctx, userID); getErr != nil {
		return err
	}
	return fmt.Errorf("%s: %w", op, models.ErrAlreadyReferred)
}

// IncrementReferralCount увеличивает счетчик приглашений.
func (s *Storage) IncrementReferralCount(ctx context.Context, userID string) error {
	const op = "storage.IncrementReferralCount"
	return s.updateUser(ctx, op, `UPDATE users SET referral_count = referral_count + 1 WHERE id = $1`, userID)
}

// ActivatePremium включает премиум до expiration.
func (s *Storage) ActivatePremium(ctx context.Context, userID, expiration string) error {
	const op = "storage.ActivatePremium"
	return s.updateUser(ctx, op,
		`UPDATE users SET is_premium = TRUE, premium_expiration = $2 WHERE id = $1`, userID, expiration)
}

// RevokePremium выключает премиум и очищает дату окончания.
func (s *Storage) RevokePremium(ctx context.Context, userID string) error {
	const op = "storage.RevokePremium"
	return s.updateUser(ctx, op,
		`UPDATE users SET is_premium = FALSE, premium_expiration = NULL WHERE id = $1`, userID)
}

// SetManagedLot закрепляет парковку за менеджером. Менеджер управляет
// одной парковкой: повторное закрепление возвращает models.ErrManagerHasLot.
func (s *Storage) SetManagedLot(ctx context.Context, userID, lotID string) error {
	const op = "storage.SetManagedLot"
	err := s.updateUser(ctx, op,
		`UPDATE users SET managed_lot_id = $2 WHERE id = $1 AND managed_lot_id IS NULL`, userID, lotID)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%s: %w", op, models.ErrLotNotFound)
	}
	if !errors.Is(err, models.ErrUserNotFound) {
		return err
	}
	if _, getErr := s.GetUser(ctx, userID); getErr != nil {
		return err
	}
	return fmt.Errorf("%s: %w", op, models.ErrManagerHasLot)
}
