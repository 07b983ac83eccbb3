package qr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KamenskiyIlya/Self-Storage/internal/storage"
)

func TestPickupPayload(t *testing.T) {
	rent := storage.RentalAgreement{
		QRCode:     "SS-1-42-A1-20250201",
		CellNumber: "A1",
		EndDate:    "2025-03-18",
	}
	assert.Equal(t,
		"selfstorage:pickup\nagreement=SS-1-42-A1-20250201\ncell=A1\nexpires_at=2025-03-19",
		PickupPayload(rent))
}

func TestPickupPayloadBadDate(t *testing.T) {
	rent := storage.RentalAgreement{QRCode: "SS-1-42-A1-20250201", CellNumber: "A1", EndDate: "скоро"}
	assert.Contains(t, PickupPayload(rent), "expires_at=скоро")
}

func TestRenderProducesPNG(t *testing.T) {
	png, err := Render(PickupPayload(storage.RentalAgreement{QRCode: "SS-1-42-A1-20250201", CellNumber: "A1"}))
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "pickup_SS-1-42-A1-20250201.png",
		FileName(storage.RentalAgreement{QRCode: "SS-1-42-A1-20250201"}))
}
