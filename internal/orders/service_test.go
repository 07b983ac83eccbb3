package orders

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KamenskiyIlya/Self-Storage/internal/storage"
)

const operatorID int64 = 100

func fixedClock() time.Time {
	return time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)
}

func storeWithPending(requestType string) (*storage.MemStore, int) {
	doc := &storage.Document{
		Warehouses: []storage.Warehouse{{Name: "Склад Север", Address: "Москва, Северная 1"}},
		Cells: []storage.Cell{
			{Number: "A1", WarehouseName: "Склад Север", CellSizeCode: "m", IsOccupied: false},
			{Number: "A2", WarehouseName: "Склад Север", CellSizeCode: "s", IsOccupied: false},
		},
	}
	orderID := doc.AppendRequest(storage.DeliveryRequest{
		UserTelegramID:     42,
		RequestType:        requestType,
		VolumeCode:         "s",
		RentDays:           45,
		ExpectedTotalPrice: 1200,
		Status:             storage.StatusPending,
	})
	return storage.NewMemStore(doc), orderID
}

func TestApproveAllocatesMatchingCell(t *testing.T) {
	store, orderID := storeWithPending(storage.RequestPickup)
	svc := NewWithClock(store, fixedClock)

	out, err := svc.Approve(orderID, operatorID)
	require.NoError(t, err)
	require.NotNil(t, out.Agreement)
	assert.Equal(t, "A2", out.Agreement.CellNumber)
	assert.Equal(t, "SS-1-42-A2-20250201", out.Agreement.QRCode)
	assert.Equal(t, "2025-02-01", out.Agreement.StartDate)
	assert.Equal(t, "2025-03-18", out.Agreement.EndDate)
	assert.Equal(t, storage.AgreementActive, out.Agreement.Status)
	assert.Contains(t, out.UserText, "одобрена")

	doc, err := store.Read()
	require.NoError(t, err)
	req := doc.RequestByID(orderID)
	assert.Equal(t, storage.StatusApproved, req.Status)
	assert.Equal(t, operatorID, req.ApprovedBy)
	assert.Equal(t, out.Agreement.QRCode, req.AgreementQRCode)
	assert.True(t, doc.CellByNumber("A2").IsOccupied)
	assert.False(t, doc.CellByNumber("A1").IsOccupied)
	require.Len(t, doc.Items, 1)
	assert.Empty(t, doc.Items[0].RemovedAt)
}

func TestApproveFallsBackToAnyFreeCell(t *testing.T) {
	doc := &storage.Document{
		Cells: []storage.Cell{{Number: "B1", CellSizeCode: "l", IsOccupied: false}},
	}
	orderID := doc.AppendRequest(storage.DeliveryRequest{
		UserTelegramID: 42,
		RequestType:    storage.RequestSelfDropoff,
		VolumeCode:     "s",
		Status:         storage.StatusPending,
	})
	svc := NewWithClock(storage.NewMemStore(doc), fixedClock)

	out, err := svc.Approve(orderID, operatorID)
	require.NoError(t, err)
	require.NotNil(t, out.Agreement)
	assert.Equal(t, "B1", out.Agreement.CellNumber)
	// Missing rent days default to 30.
	assert.Equal(t, "2025-03-03", out.Agreement.EndDate)
}

func TestApproveNoFreeCellStaysPending(t *testing.T) {
	doc := &storage.Document{
		Cells: []storage.Cell{{Number: "A1", CellSizeCode: "s", IsOccupied: true}},
	}
	orderID := doc.AppendRequest(storage.DeliveryRequest{
		UserTelegramID: 42,
		RequestType:    storage.RequestPickup,
		VolumeCode:     "s",
		Status:         storage.StatusPending,
	})
	store := storage.NewMemStore(doc)
	svc := NewWithClock(store, fixedClock)

	_, err := svc.Approve(orderID, operatorID)
	require.ErrorIs(t, err, ErrNoFreeCell)

	saved, err := store.Read()
	require.NoError(t, err)
	assert.Equal(t, storage.StatusPending, saved.RequestByID(orderID).Status)
	assert.Empty(t, saved.RentalAgreements)
}

func TestApproveNonPhysicalSkipsCell(t *testing.T) {
	doc := &storage.Document{}
	orderID := doc.AppendRequest(storage.DeliveryRequest{
		UserTelegramID: 42,
		RequestType:    storage.RequestLegalDocsStorage,
		Status:         storage.StatusPending,
	})
	store := storage.NewMemStore(doc)
	svc := NewWithClock(store, fixedClock)

	out, err := svc.Approve(orderID, operatorID)
	require.NoError(t, err)
	assert.Nil(t, out.Agreement)

	saved, _ := store.Read()
	assert.Empty(t, saved.RentalAgreements)
	assert.Equal(t, storage.StatusApproved, saved.RequestByID(orderID).Status)
}

func TestApproveTwiceIsStatusError(t *testing.T) {
	store, orderID := storeWithPending(storage.RequestPickup)
	svc := NewWithClock(store, fixedClock)

	_, err := svc.Approve(orderID, operatorID)
	require.NoError(t, err)

	_, err = svc.Approve(orderID, operatorID)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, storage.StatusApproved, statusErr.Status)
}

func TestTwoApprovalsNeverShareACell(t *testing.T) {
	doc := &storage.Document{
		Cells: []storage.Cell{
			{Number: "A1", CellSizeCode: "s", IsOccupied: false},
			{Number: "A2", CellSizeCode: "s", IsOccupied: false},
		},
	}
	first := doc.AppendRequest(storage.DeliveryRequest{
		UserTelegramID: 1, RequestType: storage.RequestPickup, VolumeCode: "s", Status: storage.StatusPending,
	})
	second := doc.AppendRequest(storage.DeliveryRequest{
		UserTelegramID: 2, RequestType: storage.RequestPickup, VolumeCode: "s", Status: storage.StatusPending,
	})
	svc := NewWithClock(storage.NewMemStore(doc), fixedClock)

	out1, err := svc.Approve(first, operatorID)
	require.NoError(t, err)
	out2, err := svc.Approve(second, operatorID)
	require.NoError(t, err)
	assert.NotEqual(t, out1.Agreement.CellNumber, out2.Agreement.CellNumber)
}

func TestRejectRequiresReason(t *testing.T) {
	store, orderID := storeWithPending(storage.RequestPickup)
	svc := NewWithClock(store, fixedClock)

	_, err := svc.Reject(orderID, "  ок ", operatorID)
	require.ErrorIs(t, err, ErrShortReason)

	out, err := svc.Reject(orderID, "нет свободных дат", operatorID)
	require.NoError(t, err)
	assert.Equal(t, storage.StatusRejected, out.Request.Status)
	assert.Equal(t, "нет свободных дат", out.Request.RejectReason)
	assert.Contains(t, out.UserText, "отклонена")
}

func TestRejectApprovedIsStatusError(t *testing.T) {
	store, orderID := storeWithPending(storage.RequestPickup)
	svc := NewWithClock(store, fixedClock)

	_, err := svc.Approve(orderID, operatorID)
	require.NoError(t, err)

	_, err = svc.Reject(orderID, "передумали", operatorID)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
}

func TestCompleteRequiresApproved(t *testing.T) {
	store, orderID := storeWithPending(storage.RequestPickup)
	svc := NewWithClock(store, fixedClock)

	_, err := svc.Complete(orderID, operatorID)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, storage.StatusPending, statusErr.Status)

	saved, _ := store.Read()
	assert.Equal(t, storage.StatusPending, saved.RequestByID(orderID).Status)
}

func TestCompleteFullTakeoutClosesAgreement(t *testing.T) {
	doc := &storage.Document{
		Cells: []storage.Cell{{Number: "A1", CellSizeCode: "s", IsOccupied: true}},
		RentalAgreements: []storage.RentalAgreement{{
			QRCode:         "SS-1-42-A1-20250101",
			UserTelegramID: 42,
			CellNumber:     "A1",
			StartDate:      "2025-01-01",
			EndDate:        "2025-04-01",
			Status:         storage.AgreementActive,
		}},
		Items: []storage.Item{{
			RentalAgreementQRCode: "SS-1-42-A1-20250101",
			AddedAt:               "2025-01-01T10:00:00Z",
		}},
	}
	orderID := doc.AppendRequest(storage.DeliveryRequest{
		UserTelegramID:  42,
		RequestType:     storage.RequestFullTakeoutSelf,
		AgreementQRCode: "SS-1-42-A1-20250101",
		Status:          storage.StatusApproved,
	})
	store := storage.NewMemStore(doc)
	svc := NewWithClock(store, fixedClock)

	out, err := svc.Complete(orderID, operatorID)
	require.NoError(t, err)
	assert.Contains(t, out.UserText, "закрыт")

	saved, _ := store.Read()
	rent := saved.AgreementByQR("SS-1-42-A1-20250101")
	assert.Equal(t, storage.AgreementEnded, rent.Status)
	assert.Equal(t, "2025-02-01", rent.EndDate)
	assert.False(t, saved.CellByNumber("A1").IsOccupied)
	assert.NotEmpty(t, saved.Items[0].RemovedAt)
	assert.Equal(t, storage.StatusCompleted, saved.RequestByID(orderID).Status)
}

func TestCompletePartialTakeoutKeepsCell(t *testing.T) {
	doc := &storage.Document{
		Cells: []storage.Cell{{Number: "A1", CellSizeCode: "s", IsOccupied: true}},
		RentalAgreements: []storage.RentalAgreement{{
			QRCode:         "SS-1-42-A1-20250101",
			UserTelegramID: 42,
			CellNumber:     "A1",
			EndDate:        "2025-04-01",
			Status:         storage.AgreementActive,
		}},
	}
	orderID := doc.AppendRequest(storage.DeliveryRequest{
		UserTelegramID:  42,
		RequestType:     storage.RequestPartialTakeoutSelf,
		AgreementQRCode: "SS-1-42-A1-20250101",
		Status:          storage.StatusApproved,
	})
	store := storage.NewMemStore(doc)
	svc := NewWithClock(store, fixedClock)

	_, err := svc.Complete(orderID, operatorID)
	require.NoError(t, err)

	saved, _ := store.Read()
	assert.True(t, saved.CellByNumber("A1").IsOccupied)
	assert.Equal(t, storage.AgreementActive, saved.AgreementByQR("SS-1-42-A1-20250101").Status)
	assert.Equal(t, "2025-04-01", saved.AgreementByQR("SS-1-42-A1-20250101").EndDate)
}

func TestTransitionsOnMissingOrder(t *testing.T) {
	svc := NewWithClock(storage.NewMemStore(nil), fixedClock)

	_, err := svc.Approve(99, operatorID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Reject(99, "причина", operatorID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Complete(99, operatorID)
	assert.ErrorIs(t, err, ErrNotFound)
}
