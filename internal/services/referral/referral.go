// Package referral реферальная программа: коды приглашений, начисление
// премиум-дней пригласившему и проверка премиум-доступа.
//
// Срок премиума проверяется лениво: истекший доступ снимается при первой
// проверке после даты окончания, фоновой очистки нет.
package referral

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/parking-assistant/internal/lib/sl"
	"github.com/magabrotheeeer/parking-assistant/internal/metrics"
	"github.com/magabrotheeeer/parking-assistant/internal/models"
)

// Repository определяет методы для работы с пользователями в хранилище.
type Repository interface {
	CreateUser(ctx context.Context, u models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	FindUserByReferralCode(ctx context.Context, code string) (*models.User, error)
	ReferralCodeExists(ctx context.Context, code string) (bool, error)
	SetReferralCode(ctx context.Context, userID, code string) error
	SetReferredBy(ctx context.Context, userID, code string) error
	IncrementReferralCount(ctx context.Context, userID string) error
	ActivatePremium(ctx context.Context, userID, expiration string) error
	RevokePremium(ctx context.Context, userID string) error
}

// Clock операции со временем.
type Clock interface {
	Now() string
	NowTime() time.Time
	AddDays(ts string, n int) string
	ExpirationFromNow(days int) string
	IsActive(exp string) bool
	DaysUntil(exp string) int
	FormatForUser(ts string) string
}

// Config параметры программы.
type Config struct {
	GrantDays    int
	CodeLength   int
	CodeAttempts int
}

// Service реферальная программа.
type Service struct {
	repo   Repository
	clock  Clock
	cfg    Config
	source CodeSource
	log    *slog.Logger
}

// New создает Service. source == nil означает RandomCode.
func New(repo Repository, clock Clock, cfg Config, source CodeSource, log *slog.Logger) *Service {
	if source == nil {
		source = RandomCode
	}
	if cfg.GrantDays <= 0 {
		cfg.GrantDays = 7
	}
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = 6
	}
	if cfg.CodeAttempts <= 0 {
		cfg.CodeAttempts = 10
	}
	return &Service{
		repo:   repo,
		clock:  clock,
		cfg:    cfg,
		source: source,
		log:    log,
	}
}

func (s *Service) now() time.Time {
	return s.clock.NowTime()
}

// Register регистрирует пользователя, выдает ему код и применяет код
// пригласившего, если он указан. Повторная регистрация возвращает
// существующего пользователя и код не применяет.
func (s *Service) Register(ctx context.Context, u models.User, referralCode string) (models.RegisterResult, error) {
	const op = "services.referral.Register"
	log := s.log.With(slog.String("op", op), slog.String("user_id", u.ID))

	existing, err := s.repo.GetUser(ctx, u.ID)
	if err == nil {
		return models.RegisterResult{User: existing}, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return models.RegisterResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if u.Role == "" {
		u.Role = models.RoleDriver
	}
	u.ReferralCode = ""
	u.ReferralCount = 0
	u.IsPremium = false
	u.PremiumExpiration = ""
	u.CreatedAt = s.clock.Now()
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return models.RegisterResult{}, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("user registered", slog.String("role", u.Role))

	if _, err := s.AssignCode(ctx, u.ID); err != nil {
		return models.RegisterResult{}, fmt.Errorf("%s: %w", op, err)
	}

	result := models.RegisterResult{Created: true}
	if strings.TrimSpace(referralCode) != "" {
		redeem, err := s.RedeemCode(ctx, u.ID, referralCode)
		if err != nil {
			return models.RegisterResult{}, fmt.Errorf("%s: %w", op, err)
		}
		result.Redeem = &redeem
	}

	user, err := s.repo.GetUser(ctx, u.ID)
	if err != nil {
		return models.RegisterResult{}, fmt.Errorf("%s: %w", op, err)
	}
	result.User = user
	return result, nil
}

// AssignCode возвращает код пользователя, создавая его при первом обращении.
func (s *Service) AssignCode(ctx context.Context, userID string) (string, error) {
	const op = "services.referral.AssignCode"

	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if user.ReferralCode != "" {
		return user.ReferralCode, nil
	}

	for attempt := 0; attempt < 3; attempt++ {
		code := s.GenerateUniqueCode(ctx)
		err := s.repo.SetReferralCode(ctx, userID, code)
		if errors.Is(err, models.ErrReferralCodeTaken) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		s.log.Info("referral code assigned", slog.String("op", op), slog.String("user_id", userID))
		return code, nil
	}
	return "", fmt.Errorf("%s: %w", op, models.ErrReferralCodeTaken)
}

// RedeemCode применяет код code для нового пользователя newUserID.
// Владелец кода получает +1 приглашение и GrantDays дней премиума: от
// текущей даты окончания, если премиум еще действует, иначе от сейчас.
//
// Пользователь применяет код один раз и не может применить свой. Отказ
// не ошибка: Success == false и причина в Message.
func (s *Service) RedeemCode(ctx context.Context, newUserID, code string) (models.RedeemResult, error) {
	const op = "services.referral.RedeemCode"
	log := s.log.With(slog.String("op", op), slog.String("user_id", newUserID))

	newUser, err := s.repo.GetUser(ctx, newUserID)
	if err != nil {
		metrics.RedemptionsTotal.WithLabelValues("error").Inc()
		return models.RedeemResult{}, fmt.Errorf("%s: %w", op, err)
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	referrer, err := s.repo.FindUserByReferralCode(ctx, code)
	if errors.Is(err, models.ErrNotFound) {
		metrics.RedemptionsTotal.WithLabelValues("invalid_code").Inc()
		return models.RedeemResult{Success: false, Message: "Invalid referral code"}, nil
	}
	if err != nil {
		metrics.RedemptionsTotal.WithLabelValues("error").Inc()
		return models.RedeemResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if referrer.ID == newUser.ID {
		metrics.RedemptionsTotal.WithLabelValues("own_code").Inc()
		return models.RedeemResult{Success: false, Message: "You cannot use your own referral code"}, nil
	}
	alreadyReferred := models.RedeemResult{Success: false, Message: "You have already used a referral code"}
	if newUser.ReferredBy != "" {
		metrics.RedemptionsTotal.WithLabelValues("already_referred").Inc()
		return alreadyReferred, nil
	}

	err = s.repo.SetReferredBy(ctx, newUserID, code)
	if errors.Is(err, models.ErrAlreadyReferred) {
		metrics.RedemptionsTotal.WithLabelValues("already_referred").Inc()
		return alreadyReferred, nil
	}
	if err != nil {
		metrics.RedemptionsTotal.WithLabelValues("error").Inc()
		return models.RedeemResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.IncrementReferralCount(ctx, referrer.ID); err != nil {
		metrics.RedemptionsTotal.WithLabelValues("error").Inc()
		return models.RedeemResult{}, fmt.Errorf("%s: %w", op, err)
	}

	var expiration string
	if referrer.IsPremium && referrer.PremiumExpiration != "" && s.clock.IsActive(referrer.PremiumExpiration) {
		expiration = s.clock.AddDays(referrer.PremiumExpiration, s.cfg.GrantDays)
	} else {
		expiration = s.clock.ExpirationFromNow(s.cfg.GrantDays)
	}
	if err := s.repo.ActivatePremium(ctx, referrer.ID, expiration); err != nil {
		metrics.RedemptionsTotal.WithLabelValues("error").Inc()
		return models.RedeemResult{}, fmt.Errorf("%s: %w", op, err)
	}

	metrics.RedemptionsTotal.WithLabelValues("ok").Inc()
	log.Info("referral code redeemed", slog.String("referrer_id", referrer.ID), slog.String("expiration", expiration))

	name := referrer.Name
	if name == "" {
		name = "Your friend"
	}
	return models.RedeemResult{
		Success:       true,
		Message:       fmt.Sprintf("Code applied! %s earned %d days of premium.", name, s.cfg.GrantDays),
		ReferrerID:    referrer.ID,
		ReferrerName:  referrer.Name,
		NewExpiration: expiration,
	}, nil
}

// CheckAccess текущее состояние премиума. Истекший премиум снимается в
// хранилище. Неизвестный пользователь не имеет доступа.
func (s *Service) CheckAccess(ctx context.Context, userID string) (models.AccessStatus, error) {
	const op = "services.referral.CheckAccess"

	user, err := s.repo.GetUser(ctx, userID)
	if errors.Is(err, models.ErrNotFound) {
		metrics.AccessChecksTotal.WithLabelValues("unknown_user").Inc()
		return models.AccessStatus{}, nil
	}
	if err != nil {
		metrics.AccessChecksTotal.WithLabelValues("error").Inc()
		return models.AccessStatus{}, fmt.Errorf("%s: %w", op, err)
	}
	return s.accessFor(ctx, user), nil
}

func (s *Service) accessFor(ctx context.Context, user *models.User) models.AccessStatus {
	const op = "services.referral.accessFor"

	if !user.IsPremium || user.PremiumExpiration == "" {
		metrics.AccessChecksTotal.WithLabelValues("denied").Inc()
		return models.AccessStatus{IsPremium: user.IsPremium}
	}

	if s.clock.IsActive(user.PremiumExpiration) {
		metrics.AccessChecksTotal.WithLabelValues("granted").Inc()
		return models.AccessStatus{
			HasAccess:     true,
			IsPremium:     true,
			Expiration:    user.PremiumExpiration,
			DaysRemaining: s.clock.DaysUntil(user.PremiumExpiration),
		}
	}

	if err := s.repo.RevokePremium(ctx, user.ID); err != nil {
		s.log.Error("failed to revoke expired premium",
			slog.String("op", op), slog.String("user_id", user.ID), sl.Err(err))
	} else {
		s.log.Info("premium expired", slog.String("op", op), slog.String("user_id", user.ID))
	}
	metrics.AccessChecksTotal.WithLabelValues("expired").Inc()
	return models.AccessStatus{}
}

// Stats статистика приглашений пользователя.
func (s *Service) Stats(ctx context.Context, userID string) (models.ReferralStats, error) {
	const op = "services.referral.Stats"

	code, err := s.AssignCode(ctx, userID)
	if err != nil {
		return models.ReferralStats{}, fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return models.ReferralStats{}, fmt.Errorf("%s: %w", op, err)
	}
	access := s.accessFor(ctx, user)

	stats := models.ReferralStats{
		ReferralCode:  code,
		ReferralCount: user.ReferralCount,
		DaysEarned:    user.ReferralCount * s.cfg.GrantDays,
		Access:        access,
	}
	stats.Text = s.statsText(stats)
	return stats, nil
}

// Paywall сообщение для пользователя без доступа к уведомлениям.
func (s *Service) Paywall(ctx context.Context, userID string) (models.PaywallMessage, error) {
	const op = "services.referral.Paywall"

	code, err := s.AssignCode(ctx, userID)
	if err != nil {
		return models.PaywallMessage{}, fmt.Errorf("%s: %w", op, err)
	}
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return models.PaywallMessage{}, fmt.Errorf("%s: %w", op, err)
	}

	msg := models.PaywallMessage{
		ReferralCode:  code,
		ReferralCount: user.ReferralCount,
		DaysEarned:    user.ReferralCount * s.cfg.GrantDays,
	}
	msg.Text = fmt.Sprintf(
		"Notifications are a premium feature.\n"+
			"Share your code %s: every friend who signs up with it gives you %d days of premium.\n"+
			"Friends invited: %d. Days earned: %d.",
		msg.ReferralCode, s.cfg.GrantDays, msg.ReferralCount, msg.DaysEarned)
	return msg, nil
}

// ReportPrompt приглашение поделиться кодом после отчета водителя.
func (s *Service) ReportPrompt(ctx context.Context, userID string) (string, error) {
	const op = "services.referral.ReportPrompt"

	code, err := s.AssignCode(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Sprintf(
		"Thanks for your report! Want alerts when spots free up?\n"+
			"Invite friends with your code %s and get %d days of premium for each one.",
		code, s.cfg.GrantDays), nil
}

func (s *Service) statsText(st models.ReferralStats) string {
	text := fmt.Sprintf("Your referral code: %s\nFriends invited: %d\nDays earned: %d\n",
		st.ReferralCode, st.ReferralCount, st.DaysEarned)
	if st.Access.HasAccess {
		text += fmt.Sprintf("Premium active until %s (%d days left).",
			s.clock.FormatForUser(st.Access.Expiration), st.Access.DaysRemaining)
	} else {
		text += "Premium inactive. Share your code to unlock notifications."
	}
	return text
}
