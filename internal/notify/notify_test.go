package notify

import (
	"context"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/example/court-scheduler/internal/domain/reservation"
	"github.com/example/court-scheduler/internal/runner"
)

type captured struct{ msgs []string }

func (c *captured) Send(ctx context.Context, text string) error {
	c.msgs = append(c.msgs, text)
	return nil
}

func TestNotifierOnlyOnFinish(t *testing.T) {
	c := &captured{}
	n := &Notifier{Sender: c}
	ctx := context.Background()
	n.Observe(ctx, runner.Event{Kind: runner.TaskAccepted})
	n.Observe(ctx, runner.Event{Kind: runner.RoundCompleted})

	res := &reservation.TaskResult{TaskID: "t1", Username: "alice", Requests: []reservation.RequestResult{{
		Court: "A1", Date: "2024-06-01",
		Slots: []reservation.SlotResult{{Outcome: reservation.Claimed}, {Outcome: reservation.OutcomeExpired}},
	}}}
	n.Observe(ctx, runner.Event{Kind: runner.TaskFinished, Result: res})

	if len(c.msgs) != 1 {
		t.Fatalf("messages = %d", len(c.msgs))
	}
	msg := c.msgs[0]
	if !strings.HasPrefix(msg, "🎾 Partly reserved\n") || !strings.Contains(msg, "task t1 (alice): partial") {
		t.Fatalf("message = %q", msg)
	}
}

type fakeBot struct{ sent []tgbotapi.Chattable }

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func TestTelegramSend(t *testing.T) {
	bot := &fakeBot{}
	tg := &Telegram{bot: bot, chatID: 99}
	if err := tg.Send(context.Background(), "hello"); err != nil {
		t.Fatal(err)
	}
	msg, ok := bot.sent[0].(tgbotapi.MessageConfig)
	if !ok || msg.ChatID != 99 || msg.Text != "hello" {
		t.Fatalf("sent = %#v", bot.sent[0])
	}
}
