package repository

import (
	"context"

	"github.com/magabrotheeeer/parking-assistant/internal/models"
)

// CreateReport сохраняет отчет водителя.
func (s *Storage) CreateReport(ctx context.Context, r models.Report) error {
	const op = "storage.CreateReport"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO lot_reports (id, lot_id, reporter_id, report_type, reported_at, processed)
			  VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.DB.ExecContext(ctx, query, r.ID, r.LotID, r.ReporterID, r.Type, r.ReportedAt, r.Processed)
	if err != nil {
		return storageErr(op, err)
	}
	return nil
}

// HasUnprocessedReport есть ли у водителя необработанный отчет по парковке.
func (s *Storage) HasUnprocessedReport(ctx context.Context, lotID, reporterID string) (bool, error) {
	const op = "storage.HasUnprocessedReport"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
			SELECT 1 FROM lot_reports
			WHERE lot_id = $1 AND reporter_id = $2 AND NOT processed
		)`, lotID, reporterID).Scan(&exists)
	if err != nil {
		return false, storageErr(op, err)
	}
	return exists, nil
}

// CountUnprocessedReports число необработанных отчетов по парковке.
func (s *Storage) CountUnprocessedReports(ctx context.Context, lotID string) (int, error) {
	const op = "storage.CountUnprocessedReports"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	var count int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM lot_reports WHERE lot_id = $1 AND NOT processed`, lotID).Scan(&count)
	if err != nil {
		return 0, storageErr(op, err)
	}
	return count, nil
}

// CloseReports в одной транзакции помечает необработанные отчеты парковки
// обработанными и удаляет все отчеты парковки. Возвращает число закрытых
// необработанных отчетов. Параллельный вызов ждет блокировки строк и
// получает 0.
func (s *Storage) CloseReports(ctx context.Context, lotID string) (closed int, err error) {
	const op = "storage.CloseReports"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, storageErr(op, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx,
		`UPDATE lot_reports SET processed = TRUE WHERE lot_id = $1 AND NOT processed`, lotID)
	if err != nil {
		return 0, storageErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr(op, err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM lot_reports WHERE lot_id = $1`, lotID); err != nil {
		return 0, storageErr(op, err)
	}
	if err = tx.Commit(); err != nil {
		return 0, storageErr(op, err)
	}
	return int(n), nil
}

// ListUnprocessedByReporter необработанные отчеты водителя, новые первыми.
func (s *Storage) ListUnprocessedByReporter(ctx context.Context, reporterID string) ([]*models.Report, error) {
	const op = "storage.ListUnprocessedByReporter"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, lot_id, reporter_id, report_type, reported_at, processed
		FROM lot_reports
		WHERE reporter_id = $1 AND NOT processed
		ORDER BY reported_at DESC, id`, reporterID)
	if err != nil {
		return nil, storageErr(op, err)
	}
	defer rows.Close()

	var result []*models.Report
	for rows.Next() {
		var r models.Report
		if err := rows.Scan(&r.ID, &r.LotID, &r.ReporterID, &r.Type, &r.ReportedAt, &r.Processed); err != nil {
			return nil, storageErr(op, err)
		}
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(op, err)
	}
	return result, nil
}
