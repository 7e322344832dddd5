// Package notify reports finished tasks to the operator.
package notify

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/court-scheduler/internal/domain/reservation"
	"github.com/example/court-scheduler/internal/runner"
)

// Sender delivers a plain-text message.
type Sender interface {
	Send(ctx context.Context, text string) error
}

// Notifier sends a summary of every finished task.
type Notifier struct {
	Sender Sender
}

func (n *Notifier) Observe(ctx context.Context, ev runner.Event) {
	if ev.Kind != runner.TaskFinished || ev.Result == nil {
		return
	}
	if err := n.Sender.Send(ctx, Message(*ev.Result)); err != nil {
		log.Printf("notify: task %s: %v", ev.Task.ID, err)
	}
}

// Message renders the notification text for a finished task.
func Message(res reservation.TaskResult) string {
	var b strings.Builder
	switch res.Status() {
	case reservation.TaskDone:
		b.WriteString("🎾 Reserved\n")
	case reservation.TaskPartial:
		b.WriteString("🎾 Partly reserved\n")
	default:
		b.WriteString("⚠️ Reservation failed\n")
	}
	b.WriteString(res.Summary())
	return b.String()
}

// Log writes messages to the standard logger.
type Log struct{}

func (Log) Send(ctx context.Context, text string) error {
	log.Printf("notify: %s", strings.TrimSpace(text))
	return nil
}

type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends messages to one chat through a bot.
type Telegram struct {
	bot    botAPI
	chatID int64
}

func NewTelegram(token string, chatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	log.Printf("notify: telegram bot @%s ready", bot.Self.UserName)
	return &Telegram{bot: bot, chatID: chatID}, nil
}

func (t *Telegram) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, text))
	return err
}
