// Package report принимает отчеты водителей о свободных местах. Когда по
// парковке набирается порог независимых отчетов, парковка помечается
// свободной, подписчики получают уведомления, а отчеты парковки удаляются.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/parking-assistant/internal/lib/sl"
	"github.com/magabrotheeeer/parking-assistant/internal/metrics"
	"github.com/magabrotheeeer/parking-assistant/internal/models"
)

// Значения по умолчанию для Config.
const (
	DefaultThreshold         = 5
	DefaultActivationTimeout = 10 * time.Second
	DefaultNotifyTimeout     = 20 * time.Second
)

// Repository определяет методы для работы с отчетами в хранилище.
type Repository interface {
	CreateReport(ctx context.Context, r models.Report) error
	HasUnprocessedReport(ctx context.Context, lotID, reporterID string) (bool, error)
	CountUnprocessedReports(ctx context.Context, lotID string) (int, error)
	// CloseReports помечает отчеты парковки обработанными и удаляет их
	// атомарно. Возвращает число закрытых необработанных отчетов.
	CloseReports(ctx context.Context, lotID string) (int, error)
	ListUnprocessedByReporter(ctx context.Context, reporterID string) ([]*models.Report, error)
}

// LotService чтение и обновление парковок.
type LotService interface {
	Get(ctx context.Context, id string) (*models.Lot, error)
	UpdateState(ctx context.Context, id, descriptor string, hasSpots bool, label string) (*models.Lot, error)
}

// Notifier выбирает получателей уведомления о парковке и рассылает его.
type Notifier interface {
	Targets(ctx context.Context, lotID string) ([]string, error)
	Dispatch(ctx context.Context, lot *models.Lot, targets []string) int
}

// Locker эксклюзивная блокировка по ключу. Возвращает функцию снятия.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// ReferralPrompter текст приглашения поделиться реферальным кодом.
type ReferralPrompter interface {
	ReportPrompt(ctx context.Context, userID string) (string, error)
}

// Clock источник текущего времени.
type Clock interface {
	Now() string
	RelativeLabel(ts string) string
}

// Config параметры агрегатора.
type Config struct {
	// Threshold число отчетов разных водителей для активации парковки.
	Threshold int
	// ActivationTimeout ограничивает запись активации в хранилище.
	ActivationTimeout time.Duration
	// NotifyTimeout ограничивает рассылку уведомлений после активации.
	NotifyTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Threshold < 1 {
		c.Threshold = DefaultThreshold
	}
	if c.ActivationTimeout <= 0 {
		c.ActivationTimeout = DefaultActivationTimeout
	}
	if c.NotifyTimeout <= 0 {
		c.NotifyTimeout = DefaultNotifyTimeout
	}
	return c
}

// Aggregator агрегатор отчетов.
type Aggregator struct {
	repo     Repository
	lots     LotService
	notifier Notifier
	locker   Locker
	prompter ReferralPrompter
	clock    Clock
	cfg      Config
	log      *slog.Logger
}

// New создает Aggregator. prompter может быть nil.
func New(
	repo Repository,
	lots LotService,
	notifier Notifier,
	locker Locker,
	prompter ReferralPrompter,
	clock Clock,
	cfg Config,
	log *slog.Logger,
) *Aggregator {
	return &Aggregator{
		repo:     repo,
		lots:     lots,
		notifier: notifier,
		locker:   locker,
		prompter: prompter,
		clock:    clock,
		cfg:      cfg.withDefaults(),
		log:      log,
	}
}

func lockKey(lotID string) string {
	return "lock:lot-reports:" + lotID
}

// activation активированная парковка и получатели, выбранные в момент
// активации.
type activation struct {
	lot     *models.Lot
	targets []string
}

// Submit принимает отчет водителя reporterID о свободных местах на lotID.
//
// Прием отчета и активация идут под эксклюзивной блокировкой парковки.
// Активацию закрепляет CloseReports: отчеты закрываются одной операцией,
// и активировать парковку может только вызов, закрывший хотя бы один
// отчет. Рассылка идет после снятия блокировки.
func (a *Aggregator) Submit(ctx context.Context, lotID, reporterID string) (models.SubmitResult, error) {
	const op = "services.report.Submit"

	lot, err := a.lots.Get(ctx, lotID)
	if err != nil {
		return models.SubmitResult{}, fmt.Errorf("%s: %w", op, err)
	}

	result, act, err := a.record(ctx, lot, reporterID)
	if err != nil {
		return models.SubmitResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if act != nil {
		result.NotificationsSent = a.fanOut(ctx, act)
	}
	metrics.ReportsTotal.WithLabelValues(string(result.Outcome)).Inc()

	if result.Outcome != models.OutcomeDuplicate {
		result.ReferralPrompt = a.referralPrompt(ctx, reporterID)
	}
	return result, nil
}

// record сохраняет отчет и при достижении порога активирует парковку.
// Выполняется под блокировкой парковки.
func (a *Aggregator) record(ctx context.Context, lot *models.Lot, reporterID string) (models.SubmitResult, *activation, error) {
	log := a.log.With(slog.String("lot_id", lot.ID), slog.String("reporter_id", reporterID))

	unlock, err := a.locker.Lock(ctx, lockKey(lot.ID))
	if err != nil {
		return models.SubmitResult{}, nil, err
	}
	defer unlock()

	exists, err := a.repo.HasUnprocessedReport(ctx, lot.ID, reporterID)
	if err != nil {
		return models.SubmitResult{}, nil, err
	}
	if exists {
		count, err := a.repo.CountUnprocessedReports(ctx, lot.ID)
		if err != nil {
			return models.SubmitResult{}, nil, err
		}
		log.Info("duplicate report", slog.Int("count", count))
		return models.SubmitResult{Outcome: models.OutcomeDuplicate, Count: count}, nil, nil
	}

	report := models.Report{
		ID:         uuid.NewString(),
		LotID:      lot.ID,
		ReporterID: reporterID,
		Type:       models.ReportTypeSpotsAvailable,
		ReportedAt: a.clock.Now(),
	}
	if err := a.repo.CreateReport(ctx, report); err != nil {
		return models.SubmitResult{}, nil, err
	}

	// Счетчик перечитывается после вставки.
	count, err := a.repo.CountUnprocessedReports(ctx, lot.ID)
	if err != nil {
		return models.SubmitResult{}, nil, err
	}
	if count < a.cfg.Threshold {
		remaining := a.cfg.Threshold - count
		log.Info("report accepted", slog.Int("count", count), slog.Int("remaining", remaining))
		return models.SubmitResult{Outcome: models.OutcomePending, Count: count, Remaining: remaining}, nil, nil
	}

	act, err := a.activate(ctx, lot)
	if err != nil {
		return models.SubmitResult{}, nil, err
	}
	return models.SubmitResult{Outcome: models.OutcomeActivated, Count: count}, act, nil
}

// activate закрывает отчеты парковки, помечает ее свободной и выбирает
// получателей. Работает на контексте, не зависящем от отмены запроса:
// начатая активация доводится до конца.
func (a *Aggregator) activate(ctx context.Context, lot *models.Lot) (*activation, error) {
	const op = "services.report.activate"
	log := a.log.With(slog.String("op", op), slog.String("lot_id", lot.ID))

	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ActivationTimeout)
	defer cancel()

	closed, err := a.repo.CloseReports(actx, lot.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if closed == 0 {
		log.Warn("reports already closed by a concurrent activation")
		return nil, nil
	}

	updated, err := a.lots.UpdateState(actx, lot.ID,
		models.DescriptorReportedByUsers, true, models.LabelReportedByUsers)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	targets, err := a.notifier.Targets(actx, lot.ID)
	if err != nil {
		// Парковка уже активирована, без получателей рассылки не будет.
		log.Error("failed to resolve notification targets", sl.Err(err))
	}

	metrics.LotActivationsTotal.Inc()
	log.Info("lot activated by driver reports",
		slog.Int("reports_closed", closed), slog.Int("targets", len(targets)))
	return &activation{lot: updated, targets: targets}, nil
}

// fanOut рассылает уведомления об активации. Отмена запроса рассылку не
// прерывает.
func (a *Aggregator) fanOut(ctx context.Context, act *activation) int {
	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.NotifyTimeout)
	defer cancel()
	return a.notifier.Dispatch(nctx, act.lot, act.targets)
}

func (a *Aggregator) referralPrompt(ctx context.Context, reporterID string) string {
	if a.prompter == nil {
		return ""
	}
	prompt, err := a.prompter.ReportPrompt(ctx, reporterID)
	if err != nil {
		a.log.Warn("failed to build referral prompt",
			slog.String("reporter_id", reporterID), sl.Err(err))
		return ""
	}
	return prompt
}

// ListDriverReports необработанные отчеты водителя с текущим числом
// отчетов по каждой парковке.
func (a *Aggregator) ListDriverReports(ctx context.Context, reporterID string) ([]models.DriverReport, error) {
	const op = "services.report.ListDriverReports"

	reports, err := a.repo.ListUnprocessedByReporter(ctx, reporterID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	result := make([]models.DriverReport, 0, len(reports))
	for _, r := range reports {
		lot, err := a.lots.Get(ctx, r.LotID)
		if errors.Is(err, models.ErrNotFound) {
			a.log.Warn("report references missing lot",
				slog.String("op", op), slog.String("lot_id", r.LotID))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		count, err := a.repo.CountUnprocessedReports(ctx, r.LotID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, models.DriverReport{
			Lot:           lot,
			ReportedAt:    r.ReportedAt,
			ReportedLabel: a.clock.RelativeLabel(r.ReportedAt),
			LiveCount:     count,
		})
	}
	return result, nil
}
