package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/parking-assistant/internal/models"
)

const lotColumns = `id, name, address, capacity, has_spots, free_spots, occupancy_label, updated_at`

func scanLot(row interface{ Scan(...any) error }) (*models.Lot, error) {
	var lot models.Lot
	err := row.Scan(&lot.ID, &lot.Name, &lot.Address, &lot.Capacity,
		&lot.HasSpots, &lot.FreeSpots, &lot.OccupancyLabel, &lot.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &lot, nil
}

// CreateLot добавляет парковку.
func (s *Storage) CreateLot(ctx context.Context, lot models.Lot) error {
	const op = "storage.CreateLot"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO lots (` + lotColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.DB.ExecContext(ctx, query, lot.ID, lot.Name, lot.Address, lot.Capacity,
		lot.HasSpots, lot.FreeSpots, lot.OccupancyLabel, lot.UpdatedAt)
	if err != nil {
		return storageErr(op, err)
	}
	return nil
}

// GetLot возвращает парковку по ID.
func (s *Storage) GetLot(ctx context.Context, id string) (*models.Lot, error) {
	const op = "storage.GetLot"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = $1`, id)
	lot, err := scanLot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrLotNotFound)
	}
	if err != nil {
		return nil, storageErr(op, err)
	}
	return lot, nil
}

// FindLotByName ищет парковку по названию без учета регистра.
func (s *Storage) FindLotByName(ctx context.Context, name string) (*models.Lot, error) {
	const op = "storage.FindLotByName"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	row := s.DB.QueryRowContext(ctx, `SELECT `+lotColumns+` FROM lots WHERE lower(name) = lower($1)`, name)
	lot, err := scanLot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrLotNotFound)
	}
	if err != nil {
		return nil, storageErr(op, err)
	}
	return lot, nil
}

// UpdateLotState записывает новое состояние мест и возвращает обновленную парковку.
func (s *Storage) UpdateLotState(ctx context.Context, id string, upd models.LotStateUpdate) (*models.Lot, error) {
	const op = "storage.UpdateLotState"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `UPDATE lots SET free_spots = $2, has_spots = $3, occupancy_label = $4, updated_at = $5
			  WHERE id = $1
			  RETURNING ` + lotColumns
	row := s.DB.QueryRowContext(ctx, query, id, upd.FreeSpots, upd.HasSpots, upd.OccupancyLabel, upd.UpdatedAt)
	lot, err := scanLot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrLotNotFound)
	}
	if err != nil {
		return nil, storageErr(op, err)
	}
	return lot, nil
}

// ListLotsWithSpots парковки со свободными местами, свежие обновления первыми.
func (s *Storage) ListLotsWithSpots(ctx context.Context) ([]*models.Lot, error) {
	const op = "storage.ListLotsWithSpots"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+lotColumns+` FROM lots
		WHERE has_spots ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	var result []*models.Lot
	for rows.Next() {
		lot, err := scanLot(rows)
		if err != nil {
			return nil, storageErr(op, err)
		}
		result = append(result, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return result, nil
}
