package main

import (
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/KamenskiyIlya/Self-Storage/internal/config"
	"github.com/KamenskiyIlya/Self-Storage/internal/flow"
	"github.com/KamenskiyIlya/Self-Storage/internal/logger"
	"github.com/KamenskiyIlya/Self-Storage/internal/mailer"
	"github.com/KamenskiyIlya/Self-Storage/internal/orders"
	"github.com/KamenskiyIlya/Self-Storage/internal/reminders"
	"github.com/KamenskiyIlya/Self-Storage/internal/scheduler"
	"github.com/KamenskiyIlya/Self-Storage/internal/session"
	"github.com/KamenskiyIlya/Self-Storage/internal/storage"
	"github.com/KamenskiyIlya/Self-Storage/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)

	store := storage.NewFileStore(cfg.Storage.DatabaseFile)

	var sessions session.Store
	if cfg.Storage.SessionsDB != "" {
		sessions, err = session.OpenSQLite(cfg.Storage.SessionsDB)
		if err != nil {
			logger.Warn("sessions db unavailable, falling back to in-memory sessions", "error", err)
			sessions = session.NewMemory()
		}
	} else {
		sessions = session.NewMemory()
	}

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Fatalf("failed to create bot: %v", err)
	}
	logger.Info("authorized on telegram", "account", api.Self.UserName)

	machine := flow.New(store)
	ordersSvc := orders.New(store)
	mail := mailer.New(cfg.Mail.SendgridAPIKey, cfg.Mail.From, cfg.Mail.FromName)
	transport := telegram.NewTransport(api)
	sweeper := reminders.New(store, transport, mail, cfg.Telegram.OperatorChatID)

	bot := telegram.NewBot(api, machine, ordersSvc, sweeper, sessions, store,
		cfg.Telegram.OperatorChatID, cfg.Telegram.OperatorID)

	sched, err := scheduler.New(cfg.Scheduler.ReminderSpec, sweeper)
	if err != nil {
		log.Fatalf("invalid reminder schedule %q: %v", cfg.Scheduler.ReminderSpec, err)
	}
	sched.Start()
	defer sched.Stop()

	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "Начать работу с ботом"},
		{Command: "help", Description: "Правила хранения"},
		{Command: "cancel", Description: "Отменить текущую заявку"},
		{Command: "orders", Description: "Заявки в ожидании (оператор)"},
		{Command: "remind", Description: "Запустить напоминания (оператор)"},
	}
	if _, err := api.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		log.Fatalf("failed to set commands: %v", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	for update := range api.GetUpdatesChan(u) {
		bot.HandleUpdate(update)
	}
}
