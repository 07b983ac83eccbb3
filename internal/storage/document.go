package storage

import "time"

// Request types a customer can submit.
const (
	RequestPickup                = "pickup"
	RequestSelfDropoff           = "self_dropoff"
	RequestPartialTakeoutSelf    = "partial_takeout_self"
	RequestPartialTakeoutDeliver = "partial_takeout_delivery"
	RequestFullTakeoutSelf       = "full_takeout_self"
	RequestFullTakeoutDeliver    = "full_takeout_delivery"
	RequestReturnToCellSelf      = "return_to_cell_self"
	RequestReturnToCellDeliver   = "return_to_cell_delivery"
	RequestLegalDocsStorage      = "legal_docs_storage"
)

// Delivery request statuses. Transitions are one-directional:
// pending -> approved|rejected, approved -> completed.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCompleted = "completed"
)

// Rental agreement statuses kept in the customer-facing spelling.
const (
	AgreementActive = "Активна"
	AgreementEnded  = "Закончена"
)

// DateLayout is how calendar dates are persisted in the document.
const DateLayout = "2006-01-02"

type User struct {
	TelegramID        int64  `json:"telegram_id"`
	FullName          string `json:"full_name,omitempty"`
	Username          string `json:"username,omitempty"`
	Phone             string `json:"phone,omitempty"`
	Address           string `json:"address,omitempty"`
	Email             string `json:"email,omitempty"`
	AcquisitionSource string `json:"acquisition_source,omitempty"`
}

type Warehouse struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type Cell struct {
	Number        string `json:"number"`
	WarehouseName string `json:"warehouse_name"`
	CellSizeCode  string `json:"cell_size_code"`
	IsOccupied    bool   `json:"is_occupied"`
}

type CellSize struct {
	Code         string  `json:"code"`
	Description  string  `json:"description"`
	MonthlyPrice float64 `json:"monthly_price"`
}

type OverdueTariff struct {
	CellSizeCode string  `json:"cell_size_code"`
	ValidFrom    string  `json:"valid_from"`
	ValidUntil   string  `json:"valid_until"`
	DailyRate    float64 `json:"daily_rate"`
}

type PromoCode struct {
	Code            string `json:"code"`
	DiscountPercent int    `json:"discount_percent"`
	ValidFrom       string `json:"valid_from"`
	ValidUntil      string `json:"valid_until"`
}

type RentalAgreement struct {
	QRCode         string  `json:"qr_code"`
	UserTelegramID int64   `json:"user_telegram_id"`
	CellNumber     string  `json:"cell_number"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	TotalPrice     float64 `json:"total_price"`
	Status         string  `json:"status"`
}

// Item is the inventory record attached to an agreement. An empty RemovedAt
// means the items are currently stored.
type Item struct {
	RentalAgreementQRCode string   `json:"rental_agreement_qr_code"`
	HasSeasonalItems      bool     `json:"has_seasonal_items"`
	ItemList              []string `json:"item_list"`
	AddedAt               string   `json:"added_at"`
	RemovedAt             string   `json:"removed_at,omitempty"`
}

// DeliveryRequest is a customer order awaiting operator action. OrderID is
// assigned once at append time and stored on the record; it is never
// recomputed from list position.
type DeliveryRequest struct {
	OrderID              int      `json:"order_id"`
	UserTelegramID       int64    `json:"user_telegram_id"`
	RequestType          string   `json:"request_type"`
	CreatedAt            string   `json:"created_at"`
	Address              string   `json:"address,omitempty"`
	WarehouseName        string   `json:"warehouse_name,omitempty"`
	Phone                string   `json:"phone,omitempty"`
	Email                string   `json:"email,omitempty"`
	VolumeCode           string   `json:"volume,omitempty"`
	VolumeDescription    string   `json:"volume_description,omitempty"`
	RentDays             int      `json:"rent_days,omitempty"`
	PromoCode            string   `json:"promo_code,omitempty"`
	PromoDiscountPercent int      `json:"promo_discount_percent,omitempty"`
	ExpectedMonthlyPrice float64  `json:"expected_monthly_price,omitempty"`
	ExpectedTotalPrice   float64  `json:"expected_total_price,omitempty"`
	HasSeasonalItems     bool     `json:"has_seasonal_items,omitempty"`
	SeasonalItemList     []string `json:"seasonal_item_list,omitempty"`
	AgreementQRCode      string   `json:"agreement_qr_code,omitempty"`
	Status               string   `json:"status"`
	ApprovedAt           string   `json:"approved_at,omitempty"`
	ApprovedBy           int64    `json:"approved_by,omitempty"`
	RejectedAt           string   `json:"rejected_at,omitempty"`
	RejectedBy           int64    `json:"rejected_by,omitempty"`
	RejectReason         string   `json:"reject_reason,omitempty"`
	CompletedAt          string   `json:"completed_at,omitempty"`
	CompletedBy          int64    `json:"completed_by,omitempty"`
}

// Reminder is an append-only audit record; (qr_code, reminder_type, calendar
// day of sent_at) is the de-duplication key.
type Reminder struct {
	RentalAgreementQRCode string `json:"rental_agreement_qr_code"`
	ReminderType          string `json:"reminder_type"`
	SentAt                string `json:"sent_at"`
}

// Document is the whole business dataset, persisted as one JSON file.
type Document struct {
	Users            []User            `json:"users,omitempty"`
	Warehouses       []Warehouse       `json:"warehouses,omitempty"`
	Cells            []Cell            `json:"cells,omitempty"`
	CellSizes        []CellSize        `json:"cell_sizes,omitempty"`
	OverdueTariffs   []OverdueTariff   `json:"overdue_tariffs,omitempty"`
	PromoCodes       []PromoCode       `json:"promo_codes,omitempty"`
	RentalAgreements []RentalAgreement `json:"rental_agreements,omitempty"`
	Items            []Item            `json:"items,omitempty"`
	DeliveryRequests []DeliveryRequest `json:"delivery_requests,omitempty"`
	Reminders        []Reminder        `json:"reminders,omitempty"`
}

// ParseDate parses a persisted YYYY-MM-DD value. The zero time and false are
// returned for anything malformed so callers can skip bad records.
func ParseDate(value string) (time.Time, bool) {
	t, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// FormatDate renders a calendar date the way the document stores it.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Timestamp renders a UTC timestamp with second precision and a trailing Z.
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// SameDay reports whether a persisted timestamp falls on the given calendar day.
func SameDay(timestamp string, day time.Time) bool {
	if len(timestamp) < 10 {
		return false
	}
	return timestamp[:10] == FormatDate(day)
}
