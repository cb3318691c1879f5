package models

// KindLotAvailable уведомление о появлении мест.
const KindLotAvailable = "lot_available"

// Notification сообщение водителю, которое уходит в очередь доставки.
type Notification struct {
	DriverID  string `json:"driver_id"`
	LotID     string `json:"lot_id"`
	Kind      string `json:"kind"`
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}
