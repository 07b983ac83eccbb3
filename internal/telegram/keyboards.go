package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/KamenskiyIlya/Self-Storage/internal/storage"
)

// Main menu button labels. The flow machine matches some of these literally,
// so they live in one place.
const (
	btnRules      = "Правила хранения"
	btnMyOrders   = "Мои заказы"
	btnExisting   = "Уже храню вещи"
	btnWantStore  = "Хочу хранить вещи"
	btnSelfBring  = "Привезу вещи сам(а)"
	btnLegalDocs  = "Хранение документов"
	btnBackToMenu = "Вернуться в главное меню"

	btnConsentYes = "Согласен(на)"
	btnConsentNo  = "Не согласен(на)"

	btnSeasonalYes = "Да, есть сезонные вещи"
	btnSeasonalNo  = "Нет, обычные вещи"
)

func mainMenu() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnRules),
			tgbotapi.NewKeyboardButton(btnMyOrders),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnExisting),
			tgbotapi.NewKeyboardButton(btnWantStore),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSelfBring),
			tgbotapi.NewKeyboardButton(btnLegalDocs),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func consentKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConsentYes),
			tgbotapi.NewKeyboardButton(btnConsentNo),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func seasonalKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSeasonalYes),
			tgbotapi.NewKeyboardButton(btnSeasonalNo),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func warehouseKeyboard(names []string) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(names)+1)
	for _, name := range names {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(name)))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnBackToMenu)))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	return kb
}

// existingActionsKeyboard offers the service actions on an active agreement.
// Callback data uses the same "/command args" form as typed commands.
func existingActionsKeyboard() tgbotapi.InlineKeyboardMarkup {
	row := func(label, requestType string) []tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "/existing "+requestType),
		)
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		row("Частичный вывоз (заберу сам(а))", storage.RequestPartialTakeoutSelf),
		row("Частичный вывоз курьером", storage.RequestPartialTakeoutDeliver),
		row("Полный вывоз (заберу сам(а))", storage.RequestFullTakeoutSelf),
		row("Полный вывоз курьером", storage.RequestFullTakeoutDeliver),
		row("Верну вещи в ячейку сам(а)", storage.RequestReturnToCellSelf),
		row("Возврат вещей курьером", storage.RequestReturnToCellDeliver),
	)
}

// pendingOrdersKeyboard gives the operator one-tap approve/complete buttons
// per pending request. Rejection needs a typed reason, so it stays a command.
func pendingOrdersKeyboard(requests []storage.DeliveryRequest) tgbotapi.InlineKeyboardMarkup {
	kb := tgbotapi.NewInlineKeyboardMarkup()
	for _, req := range requests {
		kb.InlineKeyboard = append(kb.InlineKeyboard, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("✅ Одобрить №%d", req.OrderID),
				fmt.Sprintf("/approve %d", req.OrderID)),
		))
	}
	return kb
}
