// Package flow implements the conversation state machine: given the current
// session state and a normalized text input it validates the input, advances
// the state and produces the outbound reply, committing a delivery request
// into the record store on terminal confirmation.
package flow

import (
	"fmt"
	"strings"
	"time"

	"github.com/KamenskiyIlya/Self-Storage/internal/session"
	"github.com/KamenskiyIlya/Self-Storage/internal/storage"
)

// Keyboard tells the transport layer which reply keyboard to attach.
type Keyboard int

const (
	KeyboardNone Keyboard = iota
	KeyboardMainMenu
	KeyboardConsent
	KeyboardWarehouses
	KeyboardSeasonal
)

// Committed reports the delivery request persisted by a terminal confirm.
type Committed struct {
	OrderID int
	Request storage.DeliveryRequest
}

// Result is one machine step's outcome. A nil Next clears the session.
type Result struct {
	Reply      string
	Keyboard   Keyboard
	Warehouses []string
	Next       *session.Session
	Committed  *Committed
}

// Input is one inbound message plus the caller's session, if any.
type Input struct {
	UserID   int64
	Username string
	FullName string
	Text     string
	Session  *session.Session
}

// Machine drives all conversation flows against a single record store.
type Machine struct {
	store storage.Store
	now   func() time.Time
}

func New(store storage.Store) *Machine {
	return &Machine{store: store, now: time.Now}
}

// NewWithClock is used by tests that need a fixed "today".
func NewWithClock(store storage.Store, now func() time.Time) *Machine {
	return &Machine{store: store, now: now}
}

const (
	idleReply        = "Выберите действие в меню или нажмите /start."
	cancelledReply   = "Заявка отменена. Возвращаю в меню."
	confirmHint      = "Ответьте ДА или НЕТ."
	consentPrompt    = "Для оформления заявки нужно согласие на обработку персональных данных.\nНажмите «Согласен(на)» для продолжения или «Не согласен(на)» для отмены."
	addressPrompt    = "Введите адрес, откуда забрать вещи (город, улица, дом):"
	ownAddressPrompt = "Введите ваш адрес (укажем в договоре):"
	phonePrompt      = "Введите телефон в формате +79991234567:"
	emailPrompt      = "Введите email для уведомлений:"
	rentDaysPrompt   = "На сколько дней нужна ячейка? Введите число от 1 до 3650:"
	promoPrompt      = "Есть промокод? Введите его или напишите «нет»:"
	seasonalPrompt   = "Есть ли среди вещей сезонные (лыжи, сноуборд, шины)?"
	itemListPrompt   = "Перечислите сезонные вещи через запятую:"
)

// BeginPickup starts the courier-pickup intake flow.
func (m *Machine) BeginPickup() Result {
	return Result{
		Reply: addressPrompt,
		Next: &session.Session{
			State: session.StateAddress,
			Draft: session.Draft{RequestType: storage.RequestPickup},
		},
	}
}

// BeginDropoff starts the self drop-off intake flow, which opens with the
// personal-data consent gate.
func (m *Machine) BeginDropoff() Result {
	return Result{
		Reply:    consentPrompt,
		Keyboard: KeyboardConsent,
		Next: &session.Session{
			State: session.StateConsent,
			Draft: session.Draft{RequestType: storage.RequestSelfDropoff},
		},
	}
}

// BeginLegal starts the legal-documents storage flow: a single confirmation,
// contact data comes from the stored profile.
func (m *Machine) BeginLegal(userID int64) Result {
	doc, _ := m.store.Read()
	contact := "Контактные данные возьмём из вашего профиля."
	if user := doc.FindUser(userID); user != nil && user.Phone != "" {
		contact = fmt.Sprintf("Свяжемся с вами по телефону %s.", user.Phone)
	}
	reply := "Хранение юридических документов: приём, опись и выдача по запросу.\n" +
		contact + "\n\nОформить заявку? Ответьте ДА или НЕТ."
	return Result{
		Reply: reply,
		Next: &session.Session{
			State: session.StateConfirmLegal,
			Draft: session.Draft{RequestType: storage.RequestLegalDocsStorage},
		},
	}
}

var existingActionLabels = map[string]string{
	storage.RequestPartialTakeoutSelf:    "частичный вывоз, заберёте сами",
	storage.RequestPartialTakeoutDeliver: "частичный вывоз, доставим курьером",
	storage.RequestFullTakeoutSelf:       "полный вывоз, заберёте сами",
	storage.RequestFullTakeoutDeliver:    "полный вывоз, доставим курьером",
	storage.RequestReturnToCellSelf:      "возврат вещей в ячейку, привезёте сами",
	storage.RequestReturnToCellDeliver:   "возврат вещей в ячейку, заберём курьером",
}

// BeginExisting starts a service flow on an already-active agreement. When
// the user has no active agreement the session is not created.
func (m *Machine) BeginExisting(userID int64, requestType string) Result {
	label, ok := existingActionLabels[requestType]
	if !ok {
		return Result{Reply: idleReply, Keyboard: KeyboardMainMenu}
	}
	doc, _ := m.store.Read()
	rent := doc.ActiveAgreementByUser(userID)
	if rent == nil {
		return Result{
			Reply:    "Активный договор хранения не найден. Если это ошибка, свяжитесь с оператором.",
			Keyboard: KeyboardMainMenu,
		}
	}
	reply := fmt.Sprintf(
		"Заявка: %s.\nДоговор: %s\nЯчейка: %s\nДата окончания: %s\n\nПодтвердить? Ответьте ДА или НЕТ.",
		label, rent.QRCode, rent.CellNumber, rent.EndDate)
	return Result{
		Reply: reply,
		Next: &session.Session{
			State: session.StateConfirmExisting,
			Draft: session.Draft{RequestType: requestType, AgreementQRCode: rent.QRCode},
		},
	}
}

// Step consumes one text input. Cancel words abort any flow; with no session
// the machine is idle and just points back at the menu.
func (m *Machine) Step(in Input) Result {
	text := strings.TrimSpace(in.Text)

	if IsCancel(text) {
		return Result{Reply: cancelledReply, Keyboard: KeyboardMainMenu}
	}
	if in.Session == nil {
		return Result{Reply: idleReply, Keyboard: KeyboardMainMenu}
	}

	sess := *in.Session
	switch sess.State {
	case session.StateConsent:
		return m.stepConsent(sess, text)
	case session.StateWarehouse:
		return m.stepWarehouse(sess, text)
	case session.StateAddress:
		return m.stepAddress(sess, text)
	case session.StatePhone:
		return m.stepPhone(sess, text)
	case session.StateEmail:
		return m.stepEmail(sess, text)
	case session.StateVolume:
		return m.stepVolume(sess, text)
	case session.StateRentDays:
		return m.stepRentDays(sess, text)
	case session.StatePromo:
		return m.stepPromo(sess, text)
	case session.StateSeasonalFlag:
		return m.stepSeasonalFlag(sess, text)
	case session.StateSeasonalList:
		return m.stepSeasonalList(sess, text)
	case session.StateConfirm, session.StateConfirmLegal, session.StateConfirmExisting:
		// The single-question flows (legal docs, actions on an existing
		// agreement) confirm the same way as the full intake.
		return m.stepConfirm(in, sess, text)
	}
	// Unknown state tag, e.g. after a bad deploy: drop the session.
	return Result{Reply: idleReply, Keyboard: KeyboardMainMenu}
}

func (m *Machine) stepConsent(sess session.Session, text string) Result {
	if consentDeclined(text) {
		return Result{
			Reply:    "Без согласия на обработку данных оформить заявку нельзя. Возвращаю в меню.",
			Keyboard: KeyboardMainMenu,
		}
	}
	if !consentAgreed(text) {
		return Result{Reply: consentPrompt, Keyboard: KeyboardConsent, Next: &sess}
	}
	doc, _ := m.store.Read()
	names := warehouseNames(doc)
	if len(names) == 0 {
		// No reference data: degrade to the courier flow rather than dead-end.
		sess.Draft.RequestType = storage.RequestPickup
		sess.State = session.StateAddress
		return Result{Reply: addressPrompt, Next: &sess}
	}
	sess.State = session.StateWarehouse
	return Result{
		Reply:      "Выберите склад, куда привезёте вещи:",
		Keyboard:   KeyboardWarehouses,
		Warehouses: names,
		Next:       &sess,
	}
}

func (m *Machine) stepWarehouse(sess session.Session, text string) Result {
	doc, _ := m.store.Read()
	names := warehouseNames(doc)
	for _, name := range names {
		if text == name {
			sess.Draft.WarehouseName = name
			sess.State = session.StateAddress
			return Result{Reply: ownAddressPrompt, Next: &sess}
		}
	}
	return Result{
		Reply:      "Выберите склад кнопкой из списка:",
		Keyboard:   KeyboardWarehouses,
		Warehouses: names,
		Next:       &sess,
	}
}

func (m *Machine) stepAddress(sess session.Session, text string) Result {
	if !ValidAddress(text) {
		return Result{Reply: "Адрес слишком короткий. Введите подробнее:", Next: &sess}
	}
	sess.Draft.Address = text
	sess.State = session.StatePhone
	return Result{Reply: phonePrompt, Next: &sess}
}

func (m *Machine) stepPhone(sess session.Session, text string) Result {
	if !ValidPhone(text) {
		return Result{Reply: "Неверный формат. Пример: +79991234567", Next: &sess}
	}
	sess.Draft.Phone = strings.TrimSpace(text)
	sess.State = session.StateEmail
	return Result{Reply: emailPrompt, Next: &sess}
}

func (m *Machine) stepEmail(sess session.Session, text string) Result {
	if !ValidEmail(text) {
		return Result{Reply: "Некорректный email. Пример: name@example.com", Next: &sess}
	}
	sess.Draft.Email = strings.TrimSpace(text)
	sess.State = session.StateVolume
	doc, _ := m.store.Read()
	return Result{Reply: volumePrompt(doc), Next: &sess}
}

func (m *Machine) stepVolume(sess session.Session, text string) Result {
	doc, _ := m.store.Read()
	code := strings.ToLower(strings.TrimSpace(text))
	size := doc.CellSizeByCode(code)
	if size == nil {
		return Result{Reply: "Не узнаю такой код объёма.\n" + volumePrompt(doc), Next: &sess}
	}
	sess.Draft.VolumeCode = size.Code
	sess.Draft.VolumeDescription = size.Description
	sess.State = session.StateRentDays
	return Result{Reply: rentDaysPrompt, Next: &sess}
}

func (m *Machine) stepRentDays(sess session.Session, text string) Result {
	days, ok := ParseRentDays(text)
	if !ok {
		return Result{Reply: "Введите целое число дней от 1 до 3650:", Next: &sess}
	}
	sess.Draft.RentDays = days
	sess.State = session.StatePromo
	return Result{Reply: promoPrompt, Next: &sess}
}

func (m *Machine) stepPromo(sess session.Session, text string) Result {
	if !IsPromoSkip(text) {
		code := strings.ToLower(strings.TrimSpace(text))
		doc, _ := m.store.Read()
		promo := doc.PromoByCode(code)
		if promo == nil {
			return Result{Reply: "Промокод не найден. Проверьте код или напишите «нет»:", Next: &sess}
		}
		if !promo.ActiveOn(m.now()) {
			reply := fmt.Sprintf("Промокод %s сейчас не действует (период: %s — %s). Введите другой или напишите «нет»:",
				promo.Code, promo.ValidFrom, promo.ValidUntil)
			return Result{Reply: reply, Next: &sess}
		}
		sess.Draft.PromoCode = promo.Code
		sess.Draft.PromoDiscountPercent = promo.DiscountPercent
	}
	sess.State = session.StateSeasonalFlag
	return Result{Reply: seasonalPrompt, Keyboard: KeyboardSeasonal, Next: &sess}
}

func (m *Machine) stepSeasonalFlag(sess session.Session, text string) Result {
	switch {
	case seasonalNo(text):
		sess.Draft.HasSeasonalItems = false
		sess.Draft.SeasonalItems = nil
		return m.toConfirm(sess)
	case seasonalYes(text):
		sess.Draft.HasSeasonalItems = true
		sess.State = session.StateSeasonalList
		return Result{Reply: itemListPrompt, Next: &sess}
	}
	return Result{Reply: seasonalPrompt, Keyboard: KeyboardSeasonal, Next: &sess}
}

func (m *Machine) stepSeasonalList(sess session.Session, text string) Result {
	items := SplitItems(text)
	if len(items) == 0 {
		return Result{Reply: "Список пуст. " + itemListPrompt, Next: &sess}
	}
	sess.Draft.SeasonalItems = items
	return m.toConfirm(sess)
}

func (m *Machine) toConfirm(sess session.Session) Result {
	doc, _ := m.store.Read()
	sess.State = session.StateConfirm
	return Result{Reply: confirmText(doc, sess.Draft), Next: &sess}
}

func (m *Machine) stepConfirm(in Input, sess session.Session, text string) Result {
	switch {
	case IsYes(text):
		return m.commit(in, sess.Draft)
	case IsNo(text):
		return Result{Reply: "Ок, заявка отменена.", Keyboard: KeyboardMainMenu}
	}
	return Result{Reply: confirmHint, Next: &sess}
}

// commit persists the delivery request and the user profile, then clears
// the session. On a failed write the session stays so the user can retry.
func (m *Machine) commit(in Input, draft session.Draft) Result {
	doc, _ := m.store.Read()

	user := doc.UpsertUser(storage.User{
		TelegramID: in.UserID,
		FullName:   in.FullName,
		Username:   in.Username,
		Phone:      draft.Phone,
		Address:    draft.Address,
		Email:      draft.Email,
	})

	req := storage.DeliveryRequest{
		UserTelegramID:    in.UserID,
		RequestType:       draft.RequestType,
		CreatedAt:         storage.Timestamp(m.now()),
		Address:           draft.Address,
		WarehouseName:     draft.WarehouseName,
		Phone:             draft.Phone,
		Email:             draft.Email,
		VolumeCode:        draft.VolumeCode,
		VolumeDescription: draft.VolumeDescription,
		RentDays:          draft.RentDays,
		HasSeasonalItems:  draft.HasSeasonalItems,
		SeasonalItemList:  draft.SeasonalItems,
		AgreementQRCode:   draft.AgreementQRCode,
		Status:            storage.StatusPending,
	}
	if req.Phone == "" {
		req.Phone = user.Phone
	}
	if req.Email == "" {
		req.Email = user.Email
	}
	if req.Address == "" && draft.RequestType != storage.RequestLegalDocsStorage {
		req.Address = user.Address
	}
	if draft.VolumeCode != "" {
		_, monthly, total := draftPrices(doc, draft)
		req.PromoCode = draft.PromoCode
		req.PromoDiscountPercent = draft.PromoDiscountPercent
		req.ExpectedMonthlyPrice = monthly
		req.ExpectedTotalPrice = total
	}

	orderID := doc.AppendRequest(req)
	if err := m.store.Write(doc); err != nil {
		sess := session.Session{State: session.StateConfirm, Draft: draft}
		if draft.RequestType == storage.RequestLegalDocsStorage {
			sess.State = session.StateConfirmLegal
		} else if draft.AgreementQRCode != "" {
			sess.State = session.StateConfirmExisting
		}
		return Result{
			Reply: "Не удалось сохранить заявку, попробуйте ещё раз. Ответьте ДА или НЕТ.",
			Next:  &sess,
		}
	}
	req.OrderID = orderID

	return Result{
		Reply:     fmt.Sprintf("Заявка №%d создана ✅ Оператор свяжется с вами.", orderID),
		Keyboard:  KeyboardMainMenu,
		Committed: &Committed{OrderID: orderID, Request: req},
	}
}

// draftPrices computes the quoted prices: base monthly from reference data,
// monthly after promo discount, and the linear day-rate total.
func draftPrices(doc *storage.Document, draft session.Draft) (base, monthly, total float64) {
	base, _ = doc.MonthlyPrice(draft.VolumeCode)
	monthly = MonthlyWithDiscount(base, draft.PromoDiscountPercent)
	total = TotalPrice(monthly, draft.RentDays)
	return base, monthly, total
}

func warehouseNames(doc *storage.Document) []string {
	names := make([]string, 0, len(doc.Warehouses))
	for _, w := range doc.Warehouses {
		names = append(names, w.Name)
	}
	return names
}

func volumePrompt(doc *storage.Document) string {
	var b strings.Builder
	b.WriteString("Выберите объём хранения, введите код:\n")
	for _, size := range doc.CellSizes {
		fmt.Fprintf(&b, "%s — %s (%.0f руб./мес.)\n", size.Code, size.Description, size.MonthlyPrice)
	}
	return strings.TrimRight(b.String(), "\n")
}

func confirmText(doc *storage.Document, draft session.Draft) string {
	base, monthly, total := draftPrices(doc, draft)

	measure := "Точный объём замерим при приёме вещей на складе."
	if draft.RequestType == storage.RequestPickup {
		measure = "Курьер замерит габариты на месте."
	}

	var b strings.Builder
	b.WriteString("Проверьте заявку:\n")
	if draft.RequestType == storage.RequestSelfDropoff && draft.WarehouseName != "" {
		fmt.Fprintf(&b, "Склад: %s (%s)\n", draft.WarehouseName, doc.WarehouseAddress(draft.WarehouseName))
	}
	fmt.Fprintf(&b, "Адрес: %s\n", draft.Address)
	fmt.Fprintf(&b, "Телефон: %s\n", draft.Phone)
	fmt.Fprintf(&b, "Email: %s\n", draft.Email)
	fmt.Fprintf(&b, "Объём: %s — %s\n", draft.VolumeCode, draft.VolumeDescription)
	fmt.Fprintf(&b, "Срок хранения: %d дн.\n", draft.RentDays)
	if draft.HasSeasonalItems {
		fmt.Fprintf(&b, "Сезонные вещи: %s\n", strings.Join(draft.SeasonalItems, ", "))
	} else {
		b.WriteString("Сезонные вещи: нет\n")
	}
	if draft.PromoCode != "" {
		fmt.Fprintf(&b, "Промокод: %s (-%d%%)\n", draft.PromoCode, draft.PromoDiscountPercent)
		fmt.Fprintf(&b, "Цена без скидки: %.0f руб./мес.\n", base)
		fmt.Fprintf(&b, "Цена со скидкой: %.0f руб./мес.\n", monthly)
	} else {
		fmt.Fprintf(&b, "Промокод: не применён\nОжидаемая стоимость: %.0f руб./мес.\n", monthly)
	}
	fmt.Fprintf(&b, "Ожидаемая стоимость за весь срок: %.0f руб.\n", total)
	b.WriteString(measure)
	b.WriteString("\n\nНажмите ДА для подтверждения или НЕТ для отмены")
	return b.String()
}
