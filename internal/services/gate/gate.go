// Package gate закрывает операции с уведомлениями премиум-доступом.
package gate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/parking-assistant/internal/models"
)

// AccessChecker проверка доступа и текст для пользователя без доступа.
type AccessChecker interface {
	CheckAccess(ctx context.Context, userID string) (models.AccessStatus, error)
	Paywall(ctx context.Context, userID string) (models.PaywallMessage, error)
}

// Gate проверяет доступ перед операцией.
type Gate struct {
	checker AccessChecker
	log     *slog.Logger
}

// New создает Gate.
func New(checker AccessChecker, log *slog.Logger) *Gate {
	return &Gate{checker: checker, log: log}
}

// Outcome результат закрытой операции: либо Result, либо Paywall.
type Outcome[T any] struct {
	Result  T
	Paywall *models.PaywallMessage
	Access  models.AccessStatus
}

// Allowed операция была выполнена.
func (o Outcome[T]) Allowed() bool {
	return o.Paywall == nil
}

// Guard выполняет operation только если у userID есть премиум-доступ.
// Без доступа operation не вызывается, а в ответе PaywallMessage.
func Guard[T any](ctx context.Context, g *Gate, userID string, operation func(ctx context.Context) (T, error)) (Outcome[T], error) {
	const op = "services.gate.Guard"

	access, err := g.checker.CheckAccess(ctx, userID)
	if err != nil {
		return Outcome[T]{}, fmt.Errorf("%s: %w", op, err)
	}

	if !access.HasAccess {
		paywall, err := g.checker.Paywall(ctx, userID)
		if err != nil {
			return Outcome[T]{}, fmt.Errorf("%s: %w", op, err)
		}
		g.log.Info("operation blocked by paywall", slog.String("op", op), slog.String("user_id", userID))
		return Outcome[T]{Paywall: &paywall, Access: access}, nil
	}

	result, err := operation(ctx)
	if err != nil {
		return Outcome[T]{Access: access}, err
	}
	return Outcome[T]{Result: result, Access: access}, nil
}
