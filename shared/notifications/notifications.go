package notifications

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"nft-vault/shared/env"

	"github.com/mymmrac/telego"
	"golang.org/x/time/rate"
)

var bot *telego.Bot
var isInitialized bool = false
var telegramLimiter *rate.Limiter

// InitTelegramBot wires the optional Telegram alert channel. Warn/Error/Fatal
// log lines are mirrored there when the bot token and group id are configured.
func InitTelegramBot() error {
	if isInitialized && bot != nil {
		log.Println("INFO: Telegram bot already initialized.")
		return nil
	}

	isInitialized = false
	bot = nil
	telegramLimiter = nil

	botToken := env.TelegramBotToken
	groupID := env.TelegramGroupID

	if botToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN missing from env configuration")
	}
	if groupID == 0 {
		return fmt.Errorf("TELEGRAM_GROUP_ID missing or invalid in env configuration")
	}

	log.Println("Initializing Telegram bot API...")
	var err error
	bot, err = telego.NewBot(botToken, telego.WithDefaultLogger(false, false))
	if err != nil {
		bot = nil
		return fmt.Errorf("failed to initialize Telegram bot API: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	userInfo, err := bot.GetMe(ctx)
	if err != nil {
		bot = nil
		return fmt.Errorf("failed to verify bot token with GetMe API call: %w", err)
	}

	isInitialized = true
	telegramLimiter = rate.NewLimiter(rate.Limit(0.2), 1)
	log.Printf("Telegram bot initialized successfully for @%s", userInfo.Username)
	log.Printf("Telegram rate limiter initialized (1 msg / 5 sec)")

	SendTelegramMessage(fmt.Sprintf("Alert channel connected (@%s). Ready.", userInfo.Username))
	return nil
}

// IsEnabled reports whether the alert channel is usable.
func IsEnabled() bool {
	return isInitialized && bot != nil
}

// SendTelegramMessage delivers a message to the configured group, respecting
// the global rate limit. Failures are logged, never propagated; alerting is
// best-effort by contract.
func SendTelegramMessage(message string) {
	if !IsEnabled() {
		log.Println("WARN: Cannot send message, Telegram bot is not initialized.")
		return
	}
	if telegramLimiter != nil {
		if err := telegramLimiter.Wait(context.Background()); err != nil {
			log.Printf("ERROR: Telegram rate limiter wait error: %v. Proceeding with send attempt...", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_, err := bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: env.TelegramGroupID},
		Text:      truncateMessage(message),
		ParseMode: telego.ModeMarkdown,
	})
	if err != nil {
		// Markdown parse failures are common with raw upstream payloads;
		// retry once as plain text.
		if strings.Contains(err.Error(), "can't parse entities") {
			_, err = bot.SendMessage(ctx, &telego.SendMessageParams{
				ChatID: telego.ChatID{ID: env.TelegramGroupID},
				Text:   truncateMessage(message),
			})
		}
		if err != nil {
			log.Printf("ERROR: Failed to send Telegram message: %v", err)
		}
	}
}

func truncateMessage(message string) string {
	const telegramMessageLimit = 4096
	if len(message) <= telegramMessageLimit {
		return message
	}
	return message[:telegramMessageLimit-3] + "..."
}
