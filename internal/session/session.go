// Package session holds per-user conversation progress: the current state
// tag and the field values collected so far. A session exists only between
// flow entry and commit/cancel.
package session

// State tags every step of the multi-step flows. The machine only ever moves
// between these values; anything else is a bug, not user input.
type State string

const (
	StateConsent         State = "WAIT_CONSENT"
	StateAddress         State = "WAIT_ADDRESS"
	StateWarehouse       State = "WAIT_WAREHOUSE"
	StatePhone           State = "WAIT_PHONE"
	StateEmail           State = "WAIT_EMAIL"
	StateVolume          State = "WAIT_VOLUME"
	StateRentDays        State = "WAIT_RENT_DAYS"
	StatePromo           State = "WAIT_PROMO"
	StateSeasonalFlag    State = "WAIT_SEASONAL_FLAG"
	StateSeasonalList    State = "WAIT_SEASONAL_LIST"
	StateConfirm         State = "CONFIRM"
	StateConfirmLegal    State = "CONFIRM_LEGAL"
	StateConfirmExisting State = "CONFIRM_EXISTING"
)

// Draft accumulates validated field values until the order is committed into
// the record store.
type Draft struct {
	RequestType          string   `json:"request_type"`
	Address              string   `json:"address,omitempty"`
	WarehouseName        string   `json:"warehouse_name,omitempty"`
	Phone                string   `json:"phone,omitempty"`
	Email                string   `json:"email,omitempty"`
	VolumeCode           string   `json:"volume,omitempty"`
	VolumeDescription    string   `json:"volume_description,omitempty"`
	RentDays             int      `json:"rent_days,omitempty"`
	PromoCode            string   `json:"promo_code,omitempty"`
	PromoDiscountPercent int      `json:"promo_discount_percent,omitempty"`
	HasSeasonalItems     bool     `json:"has_seasonal_items,omitempty"`
	SeasonalItems        []string `json:"seasonal_items,omitempty"`
	AgreementQRCode      string   `json:"agreement_qr_code,omitempty"`
}

// Session is one user's in-progress conversation.
type Session struct {
	State State `json:"state"`
	Draft Draft `json:"draft"`
}

// Store is the session table contract. Get returns nil when no session
// exists; Clear on a missing session is a no-op.
type Store interface {
	Get(userID int64) (*Session, error)
	Set(userID int64, sess *Session) error
	Clear(userID int64) error
}
