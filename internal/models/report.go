package models

// ReportTypeSpotsAvailable единственный тип отчета: водитель видит свободные места.
const ReportTypeSpotsAvailable = "spots_available"

// Report отчет водителя о свободных местах.
type Report struct {
	ID         string `json:"id"`
	LotID      string `json:"lot_id"`
	ReporterID string `json:"reporter_id"`
	Type       string `json:"type"`
	ReportedAt string `json:"reported_at"`
	Processed  bool   `json:"processed"`
}

// ReportOutcome исход приема отчета.
type ReportOutcome string

const (
	OutcomePending   ReportOutcome = "pending"
	OutcomeDuplicate ReportOutcome = "duplicate"
	OutcomeActivated ReportOutcome = "activated"
)

// SubmitResult результат приема отчета.
//
// Для pending заполнены Count и Remaining, для duplicate только Count,
// для activated Count и NotificationsSent.
type SubmitResult struct {
	Outcome           ReportOutcome `json:"outcome"`
	Count             int           `json:"count"`
	Remaining         int           `json:"remaining"`
	NotificationsSent int           `json:"notifications_sent"`
	ReferralPrompt    string        `json:"referral_prompt,omitempty"`
}

// DriverReport необработанный отчет водителя с текущим числом отчетов по парковке.
type DriverReport struct {
	Lot           *Lot   `json:"lot"`
	ReportedAt    string `json:"reported_at"`
	ReportedLabel string `json:"reported_label"`
	LiveCount     int    `json:"live_count"`
}

// ReportRequest тело запроса на отправку отчета.
type ReportRequest struct {
	LotID      string `json:"lot_id" validate:"required"`
	ReporterID string `json:"reporter_id" validate:"required"`
}
