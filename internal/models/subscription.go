package models

// Subscription подписка водителя на уведомления.
// LotID == nil означает подписку на все парковки.
type Subscription struct {
	ID           string  `json:"id"`
	DriverID     string  `json:"driver_id"`
	LotID        *string `json:"lot_id"`
	SubscribedAt string  `json:"subscribed_at"`
	Active       bool    `json:"active"`
}

// IsWildcard подписка на все парковки.
func (s Subscription) IsWildcard() bool {
	return s.LotID == nil
}

// SubscribeResult результат подписки: новая подписка или признак того,
// что такая подписка уже активна.
type SubscribeResult struct {
	Subscription      *Subscription `json:"subscription,omitempty"`
	AlreadySubscribed bool          `json:"already_subscribed"`
}

// SubscriptionRequest тело запроса на подписку и отписку.
type SubscriptionRequest struct {
	DriverID string  `json:"driver_id" validate:"required"`
	LotID    *string `json:"lot_id"`
}
