// Package orders implements the operator-triggered transitions on delivery
// requests: approve, reject, complete. Approvals allocate storage cells and
// open rental agreements; completions of full-takeout requests close them.
package orders

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KamenskiyIlya/Self-Storage/internal/storage"
)

var (
	ErrNotFound    = errors.New("заявка не найдена")
	ErrNoFreeCell  = errors.New("нет свободных ячеек")
	ErrShortReason = errors.New("причина отклонения должна быть не короче 3 символов")
)

// StatusError reports a transition attempted on a request whose status does
// not allow it. The request is never mutated in that case.
type StatusError struct {
	OrderID int
	Status  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("заявка №%d уже в статусе %s", e.OrderID, e.Status)
}

// Outcome is what a successful transition produced. UserText is the
// best-effort notification for the end user; Agreement is set when an
// approval opened a new rental agreement.
type Outcome struct {
	Request   storage.DeliveryRequest
	Agreement *storage.RentalAgreement
	UserText  string
}

// Service runs transitions against the record store.
type Service struct {
	store storage.Store
	now   func() time.Time
}

func New(store storage.Store) *Service {
	return &Service{store: store, now: time.Now}
}

func NewWithClock(store storage.Store, now func() time.Time) *Service {
	return &Service{store: store, now: now}
}

// physical reports whether the request type needs a storage cell allocated
// at approval time.
func physical(requestType string) bool {
	return requestType == storage.RequestPickup || requestType == storage.RequestSelfDropoff
}

// fullTakeout reports whether completing the request closes the agreement.
func fullTakeout(requestType string) bool {
	return requestType == storage.RequestFullTakeoutSelf || requestType == storage.RequestFullTakeoutDeliver
}

// Approve moves a pending request to approved. For intake types it allocates
// a free cell (matching size preferred), opens a rental agreement with a
// deterministic qr code and an item record, and marks the cell occupied.
// With no free cell the request stays pending and ErrNoFreeCell is returned.
func (s *Service) Approve(orderID int, actor int64) (*Outcome, error) {
	doc, err := s.store.Read()
	if err != nil {
		return nil, err
	}
	req := doc.RequestByID(orderID)
	if req == nil {
		return nil, fmt.Errorf("%w: №%d", ErrNotFound, orderID)
	}
	if req.Status != storage.StatusPending {
		return nil, &StatusError{OrderID: orderID, Status: req.Status}
	}

	now := s.now()
	out := &Outcome{}

	if physical(req.RequestType) {
		cell := doc.FreeCell(req.VolumeCode)
		if cell == nil {
			return nil, ErrNoFreeCell
		}

		rentDays := req.RentDays
		if rentDays <= 0 {
			rentDays = 30
		}
		start := now
		end := now.AddDate(0, 0, rentDays)

		rent := storage.RentalAgreement{
			QRCode:         agreementQR(orderID, req.UserTelegramID, cell.Number, now),
			UserTelegramID: req.UserTelegramID,
			CellNumber:     cell.Number,
			StartDate:      storage.FormatDate(start),
			EndDate:        storage.FormatDate(end),
			TotalPrice:     req.ExpectedTotalPrice,
			Status:         storage.AgreementActive,
		}
		doc.RentalAgreements = append(doc.RentalAgreements, rent)
		doc.Items = append(doc.Items, storage.Item{
			RentalAgreementQRCode: rent.QRCode,
			HasSeasonalItems:      req.HasSeasonalItems,
			ItemList:              req.SeasonalItemList,
			AddedAt:               storage.Timestamp(now),
		})
		cell.IsOccupied = true
		req.AgreementQRCode = rent.QRCode

		out.Agreement = &rent
		out.UserText = fmt.Sprintf(
			"Ваша заявка №%d одобрена ✅\nДоговор: %s\nЯчейка: %s (склад %s, %s)\nПериод: %s — %s\nПокажите QR-код при получении вещей.",
			orderID, rent.QRCode, cell.Number, cell.WarehouseName,
			doc.WarehouseAddress(cell.WarehouseName), rent.StartDate, rent.EndDate)
	} else {
		out.UserText = fmt.Sprintf("Ваша заявка №%d одобрена ✅ Оператор свяжется с вами по деталям.", orderID)
	}

	req.Status = storage.StatusApproved
	req.ApprovedAt = storage.Timestamp(now)
	req.ApprovedBy = actor

	if err := s.store.Write(doc); err != nil {
		return nil, fmt.Errorf("failed to save approval: %w", err)
	}
	out.Request = *req
	return out, nil
}

// Reject moves a non-approved request to rejected with a reason of at least
// 3 characters.
func (s *Service) Reject(orderID int, reason string, actor int64) (*Outcome, error) {
	reason = strings.TrimSpace(reason)
	if len([]rune(reason)) < 3 {
		return nil, ErrShortReason
	}

	doc, err := s.store.Read()
	if err != nil {
		return nil, err
	}
	req := doc.RequestByID(orderID)
	if req == nil {
		return nil, fmt.Errorf("%w: №%d", ErrNotFound, orderID)
	}
	if req.Status == storage.StatusApproved || req.Status == storage.StatusCompleted {
		return nil, &StatusError{OrderID: orderID, Status: req.Status}
	}

	req.Status = storage.StatusRejected
	req.RejectReason = reason
	req.RejectedAt = storage.Timestamp(s.now())
	req.RejectedBy = actor

	if err := s.store.Write(doc); err != nil {
		return nil, fmt.Errorf("failed to save rejection: %w", err)
	}
	return &Outcome{
		Request:  *req,
		UserText: fmt.Sprintf("Ваша заявка №%d отклонена ❌\nПричина: %s", orderID, reason),
	}, nil
}

// Complete moves an approved request to completed. For full-takeout requests
// the linked agreement is closed, its cell freed and its item record closed.
// A request already in a terminal status is reported, not mutated.
func (s *Service) Complete(orderID int, actor int64) (*Outcome, error) {
	doc, err := s.store.Read()
	if err != nil {
		return nil, err
	}
	req := doc.RequestByID(orderID)
	if req == nil {
		return nil, fmt.Errorf("%w: №%d", ErrNotFound, orderID)
	}
	if req.Status != storage.StatusApproved {
		return nil, &StatusError{OrderID: orderID, Status: req.Status}
	}

	now := s.now()
	userText := fmt.Sprintf("Ваша заявка №%d выполнена ✅", orderID)

	if fullTakeout(req.RequestType) {
		if rent := doc.AgreementByQR(req.AgreementQRCode); rent != nil {
			rent.Status = storage.AgreementEnded
			rent.EndDate = storage.FormatDate(now)
			if cell := doc.CellByNumber(rent.CellNumber); cell != nil {
				cell.IsOccupied = false
			}
			if item := doc.OpenItemByAgreement(rent.QRCode); item != nil {
				item.RemovedAt = storage.Timestamp(now)
			}
			userText = fmt.Sprintf("Ваша заявка №%d выполнена ✅\nДоговор %s закрыт, вещи выданы полностью.", orderID, rent.QRCode)
		}
	}

	req.Status = storage.StatusCompleted
	req.CompletedAt = storage.Timestamp(now)
	req.CompletedBy = actor

	if err := s.store.Write(doc); err != nil {
		return nil, fmt.Errorf("failed to save completion: %w", err)
	}
	return &Outcome{Request: *req, UserText: userText}, nil
}

// agreementQR builds the agreement key. It is deterministic from the order,
// user, cell and date, and unique in practice because an order is approved
// at most once.
func agreementQR(orderID int, userID int64, cellNumber string, on time.Time) string {
	return fmt.Sprintf("SS-%d-%d-%s-%s", orderID, userID, cellNumber, on.Format("20060102"))
}
