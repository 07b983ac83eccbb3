// Package qr renders the pickup-authorization image a customer shows at the
// warehouse.
package qr

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/KamenskiyIlya/Self-Storage/internal/storage"
)

const imageSize = 512

// PickupPayload encodes the agreement, its cell and an expiry timestamp
// (one day past the agreement end) into the scanned text.
func PickupPayload(rent storage.RentalAgreement) string {
	expires := rent.EndDate
	if end, ok := storage.ParseDate(rent.EndDate); ok {
		expires = storage.FormatDate(end.AddDate(0, 0, 1))
	}
	return fmt.Sprintf("selfstorage:pickup\nagreement=%s\ncell=%s\nexpires_at=%s",
		rent.QRCode, rent.CellNumber, expires)
}

// Render produces a PNG for the payload text.
func Render(payload string) ([]byte, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, imageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr code: %w", err)
	}
	return png, nil
}

// FileName names the image sent to the user.
func FileName(rent storage.RentalAgreement) string {
	return fmt.Sprintf("pickup_%s.png", rent.QRCode)
}
