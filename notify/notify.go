// Package notify delivers admin notifications about menu changes and failed
// sync runs.
package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

type Notifier interface {
	Notify(ctx context.Context, subject, message string) error
}

// Telegram sends notifications to a single admin chat.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegram(api *tgbotapi.BotAPI, chatID int64) *Telegram {
	return &Telegram{api: api, chatID: chatID}
}

// Dial connects to the Bot API with token and returns a Telegram notifier.
func Dial(token string, chatID int64) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return NewTelegram(api, chatID), nil
}

func (t *Telegram) Notify(ctx context.Context, subject, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, format(subject, message))
	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func format(subject, message string) string {
	message = strings.TrimSpace(message)
	if message == "" {
		return subject
	}
	return subject + "\n\n" + message
}

// Log writes notifications to the logger. Used when no bot token is set.
type Log struct {
	Logger logrus.FieldLogger
}

func (l Log) Notify(ctx context.Context, subject, message string) error {
	l.Logger.WithField("component", "notify").WithField("subject", subject).Info(message)
	return nil
}
