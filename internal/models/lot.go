// Package models содержит доменные структуры сервиса: парковки, отчеты
// водителей, подписки на уведомления и пользователей с премиум-доступом.
package models

// Значения, которые выставляются при активации парковки по отчетам водителей.
const (
	DescriptorReportedByUsers = "reported by users"
	LabelReportedByUsers      = "available according to driver reports"
)

// Значения переключателя наличия мест менеджером.
const (
	DescriptorNoSpots   = "0"
	LabelNoSpots        = "no spots available"
	DescriptorSomeSpots = "1+"
	LabelSomeSpots      = "spots available"
)

// Lot парковка.
type Lot struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Address        string `json:"address"`
	Capacity       int    `json:"capacity"`
	HasSpots       bool   `json:"has_spots"`
	FreeSpots      string `json:"free_spots"`                // Точное число или диапазон: "7", "10-15", "20+"
	OccupancyLabel string `json:"occupancy_label,omitempty"` // Подпись состояния для водителей
	UpdatedAt      string `json:"updated_at"`
}

// LotStateUpdate новое состояние парковки.
type LotStateUpdate struct {
	FreeSpots      string
	HasSpots       bool
	OccupancyLabel string
	UpdatedAt      string
}

// AvailabilityRequest тело запроса менеджера на обновление мест.
type AvailabilityRequest struct {
	FreeSpots      string `json:"free_spots" validate:"required"`
	OccupancyLabel string `json:"occupancy_label"`
}

// LotRequest тело запроса на добавление парковки.
type LotRequest struct {
	ID             string `json:"id"`
	Name           string `json:"name" validate:"required"`
	Address        string `json:"address"`
	Capacity       int    `json:"capacity" validate:"gte=0"`
	FreeSpots      string `json:"free_spots"`
	OccupancyLabel string `json:"occupancy_label"`
}

// LotStateRequest тело запроса менеджера на переключение наличия мест.
type LotStateRequest struct {
	HasSpots *bool `json:"has_spots" validate:"required"`
}
