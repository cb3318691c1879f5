package models

// User пользователь мессенджера. ID совпадает с идентификатором WhatsApp.
type User struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Role              string `json:"role"`
	ReferralCode      string `json:"referral_code,omitempty"`
	ReferredBy        string `json:"referred_by,omitempty"`
	ReferralCount     int    `json:"referral_count"`
	IsPremium         bool   `json:"is_premium"`
	PremiumExpiration string `json:"premium_expiration,omitempty"`
	CreatedAt         string `json:"created_at"`
	PasswordHash      string `json:"-"`
	ManagedLotID      string `json:"managed_lot_id,omitempty"` // Парковка менеджера, не больше одной
}

// Роли пользователей.
const (
	RoleDriver  = "driver"
	RoleManager = "manager"
)

// AccessStatus текущее состояние премиум-доступа.
type AccessStatus struct {
	HasAccess     bool   `json:"has_access"`
	IsPremium     bool   `json:"is_premium"`
	Expiration    string `json:"expiration,omitempty"`
	DaysRemaining int    `json:"days_remaining"`
}

// RedeemResult результат применения реферального кода.
type RedeemResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	ReferrerID    string `json:"referrer_id,omitempty"`
	ReferrerName  string `json:"referrer_name,omitempty"`
	NewExpiration string `json:"new_expiration,omitempty"`
}

// ReferralStats статистика приглашений пользователя.
type ReferralStats struct {
	ReferralCode  string       `json:"referral_code"`
	ReferralCount int          `json:"referral_count"`
	DaysEarned    int          `json:"days_earned"`
	Access        AccessStatus `json:"access"`
	Text          string       `json:"text"`
}

// PaywallMessage ответ вместо закрытой операции для пользователя без доступа.
type PaywallMessage struct {
	ReferralCode  string `json:"referral_code"`
	ReferralCount int    `json:"referral_count"`
	DaysEarned    int    `json:"days_earned"`
	Text          string `json:"text"`
}

// RedeemRequest тело запроса на применение кода.
type RedeemRequest struct {
	UserID string `json:"user_id" validate:"required"`
	Code   string `json:"code" validate:"required"`
}

// RegisterRequest тело запроса на регистрацию пользователя.
type RegisterRequest struct {
	ID           string `json:"id" validate:"required"`
	Name         string `json:"name"`
	Role         string `json:"role" validate:"omitempty,oneof=driver manager"`
	ReferralCode string `json:"referral_code"`
}

// RegisterResult результат регистрации. Redeem заполнен, если при
// регистрации применялся код приглашения.
type RegisterResult struct {
	User    *User         `json:"user"`
	Created bool          `json:"created"`
	Redeem  *RedeemResult `json:"redeem,omitempty"`
}

// ManagerRequest тело запроса на регистрацию менеджера парковки.
type ManagerRequest struct {
	ID       string `json:"id" validate:"required"`
	Name     string `json:"name"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest тело запроса на вход менеджера.
type LoginRequest struct {
	ID       string `json:"id" validate:"required"`
	Password string `json:"password" validate:"required"`
}
