package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"

	"github.com/KamenskiyIlya/Self-Storage/internal/session"
	"github.com/KamenskiyIlya/Self-Storage/internal/storage"
)

func TestHandleUpdateCallbackWithoutMessage(t *testing.T) {
	b := NewBot(nil, nil, nil, nil, session.NewMemory(), storage.NewMemStore(nil), 0, 0)

	assert.NotPanics(t, func() {
		b.HandleUpdate(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
			ID:   "cb1",
			From: &tgbotapi.User{ID: 42},
			Data: "/existing full_takeout_self",
		}})
	})
}

func TestHandleUpdateIgnoresEmptyUpdate(t *testing.T) {
	b := NewBot(nil, nil, nil, nil, session.NewMemory(), storage.NewMemStore(nil), 0, 0)
	assert.NotPanics(t, func() { b.HandleUpdate(tgbotapi.Update{}) })
}
