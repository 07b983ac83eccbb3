package storage

import "time"

// FindUser returns the user with the given telegram id, or nil.
func (d *Document) FindUser(telegramID int64) *User {
	for i := range d.Users {
		if d.Users[i].TelegramID == telegramID {
			return &d.Users[i]
		}
	}
	return nil
}

// UpsertUser creates or updates a user profile. Only non-empty fields of the
// incoming profile overwrite what is already stored; users are never deleted.
func (d *Document) UpsertUser(profile User) *User {
	user := d.FindUser(profile.TelegramID)
	if user == nil {
		d.Users = append(d.Users, User{TelegramID: profile.TelegramID})
		user = &d.Users[len(d.Users)-1]
	}
	if profile.FullName != "" {
		user.FullName = profile.FullName
	}
	if profile.Username != "" {
		user.Username = profile.Username
	}
	if profile.Phone != "" {
		user.Phone = profile.Phone
	}
	if profile.Address != "" {
		user.Address = profile.Address
	}
	if profile.Email != "" {
		user.Email = profile.Email
	}
	if profile.AcquisitionSource != "" {
		user.AcquisitionSource = profile.AcquisitionSource
	}
	return user
}

// CellByNumber returns the cell with the given number, or nil.
func (d *Document) CellByNumber(number string) *Cell {
	for i := range d.Cells {
		if d.Cells[i].Number == number {
			return &d.Cells[i]
		}
	}
	return nil
}

// FreeCell picks an unoccupied cell, preferring one that matches the
// requested size code and falling back to any free cell.
func (d *Document) FreeCell(sizeCode string) *Cell {
	var fallback *Cell
	for i := range d.Cells {
		if d.Cells[i].IsOccupied {
			continue
		}
		if d.Cells[i].CellSizeCode == sizeCode {
			return &d.Cells[i]
		}
		if fallback == nil {
			fallback = &d.Cells[i]
		}
	}
	return fallback
}

// WarehouseByName returns the warehouse with the given name, or nil.
func (d *Document) WarehouseByName(name string) *Warehouse {
	for i := range d.Warehouses {
		if d.Warehouses[i].Name == name {
			return &d.Warehouses[i]
		}
	}
	return nil
}

// WarehouseAddress returns the stored address for a warehouse name, or a
// placeholder the operator resolves later.
func (d *Document) WarehouseAddress(name string) string {
	if w := d.WarehouseByName(name); w != nil {
		return w.Address
	}
	return "Адрес уточнит оператор"
}

// CellSizeByCode returns the cell size reference entry, or nil.
func (d *Document) CellSizeByCode(code string) *CellSize {
	for i := range d.CellSizes {
		if d.CellSizes[i].Code == code {
			return &d.CellSizes[i]
		}
	}
	return nil
}

// MonthlyPrice returns the base monthly price for a size code.
func (d *Document) MonthlyPrice(code string) (float64, bool) {
	if size := d.CellSizeByCode(code); size != nil {
		return size.MonthlyPrice, true
	}
	return 0, false
}

// OverdueDailyRate finds the tariff entry matching the size code whose
// validity range contains the given date.
func (d *Document) OverdueDailyRate(sizeCode string, on time.Time) (float64, bool) {
	for _, tariff := range d.OverdueTariffs {
		if tariff.CellSizeCode != sizeCode {
			continue
		}
		from, okFrom := ParseDate(tariff.ValidFrom)
		until, okUntil := ParseDate(tariff.ValidUntil)
		if !okFrom || !okUntil {
			continue
		}
		if !on.Before(from) && !on.After(until) {
			return tariff.DailyRate, true
		}
	}
	return 0, false
}

// PromoByCode returns the promo catalog entry, or nil.
func (d *Document) PromoByCode(code string) *PromoCode {
	for i := range d.PromoCodes {
		if d.PromoCodes[i].Code == code {
			return &d.PromoCodes[i]
		}
	}
	return nil
}

// ActiveOn reports whether the promo's validity window contains the date.
func (p *PromoCode) ActiveOn(on time.Time) bool {
	from, okFrom := ParseDate(p.ValidFrom)
	until, okUntil := ParseDate(p.ValidUntil)
	if !okFrom || !okUntil {
		return false
	}
	return !on.Before(from) && !on.After(until)
}

// AgreementByQR returns the rental agreement with the given qr code, or nil.
func (d *Document) AgreementByQR(qr string) *RentalAgreement {
	for i := range d.RentalAgreements {
		if d.RentalAgreements[i].QRCode == qr {
			return &d.RentalAgreements[i]
		}
	}
	return nil
}

// RequestByID returns the delivery request with the stored order id, or nil.
func (d *Document) RequestByID(orderID int) *DeliveryRequest {
	for i := range d.DeliveryRequests {
		if d.DeliveryRequests[i].OrderID == orderID {
			return &d.DeliveryRequests[i]
		}
	}
	return nil
}

// UserRequests returns all delivery requests submitted by the user.
func (d *Document) UserRequests(telegramID int64) []DeliveryRequest {
	var out []DeliveryRequest
	for _, req := range d.DeliveryRequests {
		if req.UserTelegramID == telegramID {
			out = append(out, req)
		}
	}
	return out
}

// PendingRequests returns all requests awaiting operator action.
func (d *Document) PendingRequests() []DeliveryRequest {
	var out []DeliveryRequest
	for _, req := range d.DeliveryRequests {
		if req.Status == StatusPending {
			out = append(out, req)
		}
	}
	return out
}

// OpenItemByAgreement returns the agreement's item record that has not been
// removed yet, or nil.
func (d *Document) OpenItemByAgreement(qr string) *Item {
	for i := range d.Items {
		if d.Items[i].RentalAgreementQRCode == qr && d.Items[i].RemovedAt == "" {
			return &d.Items[i]
		}
	}
	return nil
}

// ActiveAgreementByUser returns the user's active agreement, or nil.
func (d *Document) ActiveAgreementByUser(telegramID int64) *RentalAgreement {
	for i := range d.RentalAgreements {
		if d.RentalAgreements[i].UserTelegramID == telegramID && d.RentalAgreements[i].Status == AgreementActive {
			return &d.RentalAgreements[i]
		}
	}
	return nil
}

// AppendRequest assigns the next order id, stamps it on the record and
// appends it. The id is count+1 at append time and is stored permanently:
// it must never be recomputed from list position afterwards.
func (d *Document) AppendRequest(req DeliveryRequest) int {
	req.OrderID = len(d.DeliveryRequests) + 1
	d.DeliveryRequests = append(d.DeliveryRequests, req)
	return req.OrderID
}

// ReminderSentToday reports whether a reminder of this type for this
// agreement was already recorded on the given calendar day.
func (d *Document) ReminderSentToday(qr, reminderType string, day time.Time) bool {
	for _, r := range d.Reminders {
		if r.RentalAgreementQRCode != qr || r.ReminderType != reminderType {
			continue
		}
		if SameDay(r.SentAt, day) {
			return true
		}
	}
	return false
}

// AppendReminder records an emitted reminder regardless of delivery outcome.
func (d *Document) AppendReminder(qr, reminderType string, at time.Time) {
	d.Reminders = append(d.Reminders, Reminder{
		RentalAgreementQRCode: qr,
		ReminderType:          reminderType,
		SentAt:                Timestamp(at),
	})
}
