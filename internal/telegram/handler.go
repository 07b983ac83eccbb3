// Package telegram wires inbound updates into the conversation machine and
// the operator commands, and renders replies with the right keyboards.
package telegram

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/KamenskiyIlya/Self-Storage/internal/flow"
	"github.com/KamenskiyIlya/Self-Storage/internal/logger"
	"github.com/KamenskiyIlya/Self-Storage/internal/orders"
	"github.com/KamenskiyIlya/Self-Storage/internal/qr"
	"github.com/KamenskiyIlya/Self-Storage/internal/reminders"
	"github.com/KamenskiyIlya/Self-Storage/internal/session"
	"github.com/KamenskiyIlya/Self-Storage/internal/storage"
)

const rulesText = `Правила хранения SelfStorage:
— принимаем бытовые вещи, мебель, сезонный инвентарь и документы;
— не принимаем еду, животных, оружие, горючие и токсичные материалы;
— доступ к ячейке по QR-коду договора;
— после окончания срока аренды вещи хранятся ещё до 6 месяцев по повышенному тарифу.`

var requestTypeLabels = map[string]string{
	storage.RequestPickup:                "вывоз курьером",
	storage.RequestSelfDropoff:           "самостоятельная доставка на склад",
	storage.RequestPartialTakeoutSelf:    "частичный вывоз (самовывоз)",
	storage.RequestPartialTakeoutDeliver: "частичный вывоз курьером",
	storage.RequestFullTakeoutSelf:       "полный вывоз (самовывоз)",
	storage.RequestFullTakeoutDeliver:    "полный вывоз курьером",
	storage.RequestReturnToCellSelf:      "возврат вещей в ячейку",
	storage.RequestReturnToCellDeliver:   "возврат вещей курьером",
	storage.RequestLegalDocsStorage:      "хранение документов",
}

var statusLabels = map[string]string{
	storage.StatusPending:   "в обработке",
	storage.StatusApproved:  "одобрена",
	storage.StatusRejected:  "отклонена",
	storage.StatusCompleted: "выполнена",
}

// Bot routes updates between users, the operator and the core services.
type Bot struct {
	api            *tgbotapi.BotAPI
	transport      *Transport
	machine        *flow.Machine
	orders         *orders.Service
	sweeper        *reminders.Sweeper
	sessions       session.Store
	store          storage.Store
	operatorChatID int64
	operatorID     int64
}

func NewBot(api *tgbotapi.BotAPI, machine *flow.Machine, ordersSvc *orders.Service,
	sweeper *reminders.Sweeper, sessions session.Store, store storage.Store,
	operatorChatID, operatorID int64) *Bot {
	return &Bot{
		api:            api,
		transport:      NewTransport(api),
		machine:        machine,
		orders:         ordersSvc,
		sweeper:        sweeper,
		sessions:       sessions,
		store:          store,
		operatorChatID: operatorChatID,
		operatorID:     operatorID,
	}
}

func (b *Bot) sendError(chatID int64, err error) {
	logger.Warn("reporting error to chat", "chat_id", chatID, "error", err)
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Ошибка: %v", err))
	b.api.Send(msg)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		logger.Warn("failed to send message", "error", err)
	}
}

// HandleUpdate processes one inbound update. Messages for the same chat
// arrive one at a time, so no per-user locking is needed here.
func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	var from *tgbotapi.User
	var command, args, text string
	var chatID int64

	switch {
	case update.Message != nil:
		from = update.Message.From
		chatID = update.Message.Chat.ID
		text = update.Message.Text
		command = update.Message.Command()
		args = update.Message.CommandArguments()
	case update.CallbackQuery != nil:
		// The originating message can be missing (e.g. too old); with no
		// chat to reply into there is nothing to do.
		if update.CallbackQuery.Message == nil {
			return
		}
		from = update.CallbackQuery.From
		chatID = update.CallbackQuery.Message.Chat.ID
		split := strings.SplitN(update.CallbackQuery.Data, " ", 2)
		command = strings.TrimPrefix(split[0], "/")
		if len(split) > 1 {
			args = split[1]
		}
		// Stop the button spinner.
		b.api.Request(tgbotapi.NewCallback(update.CallbackQuery.ID, ""))
	default:
		return
	}
	if from == nil {
		return
	}
	logger.Debug("update", "user", from.ID, "command", command, "text", text)

	switch command {
	case "start":
		b.handleStart(from, chatID, args)
		return
	case "help":
		msg := tgbotapi.NewMessage(chatID, rulesText)
		msg.ReplyMarkup = mainMenu()
		b.send(msg)
		return
	case "existing":
		b.apply(chatID, from.ID, b.machine.BeginExisting(from.ID, args))
		return
	case "orders":
		b.handleOrders(from, chatID)
		return
	case "approve":
		b.handleApprove(from, chatID, args)
		return
	case "reject":
		b.handleReject(from, chatID, args)
		return
	case "complete":
		b.handleComplete(from, chatID, args)
		return
	case "remind":
		b.handleRemind(from, chatID)
		return
	case "cancel":
		// Falls through to the flow machine, which understands /cancel.
		text = "/cancel"
	case "":
		// Plain text, handled below.
	default:
		b.send(tgbotapi.NewMessage(chatID, "Не знаю такую команду. Нажмите /start."))
		return
	}

	switch text {
	case btnWantStore:
		b.apply(chatID, from.ID, b.machine.BeginPickup())
	case btnSelfBring:
		b.apply(chatID, from.ID, b.machine.BeginDropoff())
	case btnLegalDocs:
		b.apply(chatID, from.ID, b.machine.BeginLegal(from.ID))
	case btnExisting:
		msg := tgbotapi.NewMessage(chatID, "Что нужно сделать с вещами?")
		msg.ReplyMarkup = existingActionsKeyboard()
		b.send(msg)
	case btnRules:
		b.send(tgbotapi.NewMessage(chatID, rulesText))
	case btnMyOrders:
		b.handleMyOrders(from, chatID)
	default:
		b.stepFlow(from, chatID, text)
	}
}

func (b *Bot) handleStart(from *tgbotapi.User, chatID int64, args string) {
	if err := b.sessions.Clear(from.ID); err != nil {
		logger.Warn("failed to clear session", "user", from.ID, "error", err)
	}

	// "/start <source>" carries the acquisition source from ad links.
	source := strings.ToLower(strings.TrimSpace(args))
	doc, _ := b.store.Read()
	doc.UpsertUser(storage.User{
		TelegramID:        from.ID,
		FullName:          fullName(from),
		Username:          from.UserName,
		AcquisitionSource: source,
	})
	if err := b.store.Write(doc); err != nil {
		logger.Warn("failed to save user profile", "user", from.ID, "error", err)
	}

	msg := tgbotapi.NewMessage(chatID, "Привет! Я бот SelfStorage ✅\nВыбери пункт меню:")
	msg.ReplyMarkup = mainMenu()
	b.send(msg)
}

func (b *Bot) handleMyOrders(from *tgbotapi.User, chatID int64) {
	doc, _ := b.store.Read()
	requests := doc.UserRequests(from.ID)
	if len(requests) == 0 {
		b.send(tgbotapi.NewMessage(chatID, "У вас пока нет заявок."))
		return
	}
	var lines []string
	for _, req := range requests {
		lines = append(lines, fmt.Sprintf("№%d — %s (%s)",
			req.OrderID, requestTypeLabels[req.RequestType], statusLabels[req.Status]))
	}
	b.send(tgbotapi.NewMessage(chatID, "Ваши заявки:\n"+strings.Join(lines, "\n")))
}

// stepFlow runs one machine step for a plain text input.
func (b *Bot) stepFlow(from *tgbotapi.User, chatID int64, text string) {
	sess, err := b.sessions.Get(from.ID)
	if err != nil {
		logger.Warn("failed to load session", "user", from.ID, "error", err)
	}
	res := b.machine.Step(flow.Input{
		UserID:   from.ID,
		Username: from.UserName,
		FullName: fullName(from),
		Text:     text,
		Session:  sess,
	})
	b.apply(chatID, from.ID, res)
}

// apply stores the next session state, sends the reply and fans out the
// operator notification for a freshly committed order.
func (b *Bot) apply(chatID, userID int64, res flow.Result) {
	var err error
	if res.Next == nil {
		err = b.sessions.Clear(userID)
	} else {
		err = b.sessions.Set(userID, res.Next)
	}
	if err != nil {
		logger.Warn("failed to store session", "user", userID, "error", err)
	}

	if res.Reply != "" {
		msg := tgbotapi.NewMessage(chatID, res.Reply)
		switch res.Keyboard {
		case flow.KeyboardMainMenu:
			msg.ReplyMarkup = mainMenu()
		case flow.KeyboardConsent:
			msg.ReplyMarkup = consentKeyboard()
		case flow.KeyboardWarehouses:
			msg.ReplyMarkup = warehouseKeyboard(res.Warehouses)
		case flow.KeyboardSeasonal:
			msg.ReplyMarkup = seasonalKeyboard()
		}
		b.send(msg)
	}

	if res.Committed != nil {
		b.notifyOperatorNewOrder(res.Committed)
	}
}

func (b *Bot) notifyOperatorNewOrder(c *flow.Committed) {
	if b.operatorChatID == 0 {
		return
	}
	req := c.Request
	var lines []string
	lines = append(lines, "Новая заявка:")
	lines = append(lines, fmt.Sprintf("№%d — %s", c.OrderID, requestTypeLabels[req.RequestType]))
	lines = append(lines, fmt.Sprintf("Клиент: %d", req.UserTelegramID))
	if req.Phone != "" {
		lines = append(lines, "Телефон: "+req.Phone)
	}
	if req.Address != "" {
		lines = append(lines, "Адрес: "+req.Address)
	}
	if req.WarehouseName != "" {
		lines = append(lines, "Склад: "+req.WarehouseName)
	}
	if req.VolumeCode != "" {
		lines = append(lines, fmt.Sprintf("Объём: %s, срок: %d дн., итого: %.0f руб.",
			req.VolumeCode, req.RentDays, req.ExpectedTotalPrice))
	}
	if req.AgreementQRCode != "" {
		lines = append(lines, "Договор: "+req.AgreementQRCode)
	}
	if err := b.transport.SendText(b.operatorChatID, strings.Join(lines, "\n")); err != nil {
		logger.Warn("failed to notify operator", "error", err)
	}
}

// isOperator gates the transition commands behind the configured numeric id.
func (b *Bot) isOperator(from *tgbotapi.User, chatID int64) bool {
	if from.ID != b.operatorID {
		b.send(tgbotapi.NewMessage(chatID, "Команда доступна только оператору."))
		return false
	}
	return true
}

func (b *Bot) handleOrders(from *tgbotapi.User, chatID int64) {
	if !b.isOperator(from, chatID) {
		return
	}
	doc, _ := b.store.Read()
	pending := doc.PendingRequests()
	if len(pending) == 0 {
		b.send(tgbotapi.NewMessage(chatID, "Нет заявок в ожидании."))
		return
	}
	var lines []string
	lines = append(lines, "Заявки в ожидании:")
	for _, req := range pending {
		lines = append(lines, fmt.Sprintf("№%d — %s, клиент %d, объём %s",
			req.OrderID, requestTypeLabels[req.RequestType], req.UserTelegramID, req.VolumeCode))
	}
	lines = append(lines, "", "Отклонить: /reject <№> <причина>", "Выполнить: /complete <№>")
	msg := tgbotapi.NewMessage(chatID, strings.Join(lines, "\n"))
	msg.ReplyMarkup = pendingOrdersKeyboard(pending)
	b.send(msg)
}

func (b *Bot) handleApprove(from *tgbotapi.User, chatID int64, args string) {
	if !b.isOperator(from, chatID) {
		return
	}
	orderID, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, "Использование: /approve <номер заявки>"))
		return
	}

	out, err := b.orders.Approve(orderID, from.ID)
	if err != nil {
		if errors.Is(err, orders.ErrNoFreeCell) {
			b.send(tgbotapi.NewMessage(chatID,
				fmt.Sprintf("Нет свободных ячеек — заявка №%d остаётся в ожидании.", orderID)))
			return
		}
		b.sendError(chatID, err)
		return
	}

	b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Заявка №%d одобрена.", orderID)))
	b.notifyUser(out)

	if out.Agreement != nil {
		png, err := qr.Render(qr.PickupPayload(*out.Agreement))
		if err != nil {
			logger.Warn("failed to render pickup qr", "error", err)
			return
		}
		if err := b.transport.SendPhoto(out.Request.UserTelegramID, qr.FileName(*out.Agreement), png); err != nil {
			logger.Warn("failed to send pickup qr", "user", out.Request.UserTelegramID, "error", err)
		}
	}
}

func (b *Bot) handleReject(from *tgbotapi.User, chatID int64, args string) {
	if !b.isOperator(from, chatID) {
		return
	}
	parts := strings.SplitN(strings.TrimSpace(args), " ", 2)
	orderID, err := strconv.Atoi(parts[0])
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, "Использование: /reject <номер заявки> <причина>"))
		return
	}
	reason := ""
	if len(parts) > 1 {
		reason = parts[1]
	}

	out, err := b.orders.Reject(orderID, reason, from.ID)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Заявка №%d отклонена.", orderID)))
	b.notifyUser(out)
}

func (b *Bot) handleComplete(from *tgbotapi.User, chatID int64, args string) {
	if !b.isOperator(from, chatID) {
		return
	}
	orderID, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		b.send(tgbotapi.NewMessage(chatID, "Использование: /complete <номер заявки>"))
		return
	}

	out, err := b.orders.Complete(orderID, from.ID)
	if err != nil {
		b.sendError(chatID, err)
		return
	}
	b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf("Заявка №%d выполнена.", orderID)))
	b.notifyUser(out)
}

func (b *Bot) handleRemind(from *tgbotapi.User, chatID int64) {
	if !b.isOperator(from, chatID) {
		return
	}
	stats := b.sweeper.Run()
	b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"Напоминания: отправлено %d, email %d, ошибок %d.", stats.Sent, stats.EmailSent, stats.Errors)))
}

// notifyUser delivers the transition outcome to the end user. Best effort:
// a failed delivery never rolls anything back.
func (b *Bot) notifyUser(out *orders.Outcome) {
	if out.UserText == "" {
		return
	}
	if err := b.transport.SendText(out.Request.UserTelegramID, out.UserText); err != nil {
		logger.Warn("failed to notify user", "user", out.Request.UserTelegramID, "error", err)
	}
}

func fullName(from *tgbotapi.User) string {
	return strings.TrimSpace(from.FirstName + " " + from.LastName)
}
