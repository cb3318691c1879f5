package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/parking-assistant/internal/models"
)

// CreateSubscription сохраняет активную подписку. Если такая подписка уже
// активна, возвращает models.ErrAlreadySubscribed.
func (s *Storage) CreateSubscription(ctx context.Context, sub models.Subscription) error {
	const op = "storage.CreateSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO lot_subscriptions (id, driver_id, lot_id, subscribed_at, active)
			  VALUES ($1, $2, $3, $4, $5)`
	_, err := s.DB.ExecContext(ctx, query, sub.ID, sub.DriverID, nullStringPtr(sub.LotID), sub.SubscribedAt, sub.Active)
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w", op, models.ErrAlreadySubscribed)
	}
	if err != nil {
		return storageErr(op, err)
	}
	return nil
}

// FindActiveSubscription ищет активную подписку водителя на парковку
// (lotID == nil - на все парковки).
func (s *Storage) FindActiveSubscription(ctx context.Context, driverID string, lotID *string) (*models.Subscription, error) {
	const op = "storage.FindActiveSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, driver_id, lot_id, subscribed_at, active FROM lot_subscriptions
			  WHERE driver_id = $1 AND lot_id IS NOT DISTINCT FROM $2 AND active
			  LIMIT 1`
	var (
		sub   models.Subscription
		lotNS sql.NullString
	)
	err := s.DB.QueryRowContext(ctx, query, driverID, nullStringPtr(lotID)).
		Scan(&sub.ID, &sub.DriverID, &lotNS, &sub.SubscribedAt, &sub.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrSubscriptionNotFound)
	}
	if err != nil {
		return nil, storageErr(op, err)
	}
	sub.LotID = ptrFromNull(lotNS)
	return &sub, nil
}

// DeactivateSubscription снимает активную подписку. Возвращает false, если ее не было.
func (s *Storage) DeactivateSubscription(ctx context.Context, driverID string, lotID *string) (bool, error) {
	const op = "storage.DeactivateSubscription"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE lot_subscriptions SET active = FALSE
		WHERE driver_id = $1 AND lot_id IS NOT DISTINCT FROM $2 AND active`,
		driverID, nullStringPtr(lotID))
	if err != nil {
		return false, storageErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr(op, err)
	}
	return n > 0, nil
}

// DeactivateSpecificSubscriptions снимает все подписки водителя на конкретные парковки.
func (s *Storage) DeactivateSpecificSubscriptions(ctx context.Context, driverID string) (int, error) {
	const op = "storage.DeactivateSpecificSubscriptions"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE lot_subscriptions SET active = FALSE
		WHERE driver_id = $1 AND lot_id IS NOT NULL AND active`, driverID)
	if err != nil {
		return 0, storageErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr(op, err)
	}
	return int(n), nil
}

// DeactivateAllSubscriptions снимает все подписки водителя.
func (s *Storage) DeactivateAllSubscriptions(ctx context.Context, driverID string) (int, error) {
	const op = "storage.DeactivateAllSubscriptions"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE lot_subscriptions SET active = FALSE
		WHERE driver_id = $1 AND active`, driverID)
	if err != nil {
		return 0, storageErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr(op, err)
	}
	return int(n), nil
}

// ListActiveSubscriptions активные подписки водителя в порядке создания.
func (s *Storage) ListActiveSubscriptions(ctx context.Context, driverID string) ([]*models.Subscription, error) {
	const op = "storage.ListActiveSubscriptions"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, driver_id, lot_id, subscribed_at, active
		FROM lot_subscriptions
		WHERE driver_id = $1 AND active
		ORDER BY subscribed_at, id`, driverID)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	var result []*models.Subscription
	for rows.Next() {
		var (
			sub   models.Subscription
			lotNS sql.NullString
		)
		if err := rows.Scan(&sub.ID, &sub.DriverID, &lotNS, &sub.SubscribedAt, &sub.Active); err != nil {
			return nil, storageErr(op, err)
		}
		sub.LotID = ptrFromNull(lotNS)
		result = append(result, &sub)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return result, nil
}

// ListSubscriberIDs водители с активной подпиской на парковку или на все
// парковки, без повторов.
func (s *Storage) ListSubscriberIDs(ctx context.Context, lotID string) ([]string, error) {
	const op = "storage.ListSubscriberIDs"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT DISTINCT driver_id FROM lot_subscriptions
		WHERE active AND (lot_id = $1 OR lot_id IS NULL)
		ORDER BY driver_id`, lotID)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr(op, err)
		}
		result = append(result, id)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return result, nil
}
