package telegram

import (
	"context"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Lex6452/lp/internal/domain"
)

type captureDispatcher struct{ got []domain.Invocation }

func (c *captureDispatcher) Dispatch(_ context.Context, inv domain.Invocation) bool {
	c.got = append(c.got, inv)
	return true
}

func message(fromID, chatID int64, msgID int, text string) *tgbotapi.Message {
	return &tgbotapi.Message{
		MessageID: msgID,
		From:      &tgbotapi.User{ID: fromID},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
	}
}

func TestRouter_OwnerMessagesDispatch(t *testing.T) {
	disp := &captureDispatcher{}
	bot := NewBot(nil, zap.NewNop())
	r := NewRouter(zap.NewNop(), bot, 10, disp)

	r.HandleUpdate(context.Background(), tgbotapi.Update{Message: message(10, -100, 1, ".пинг")})

	if len(disp.got) != 1 {
		t.Fatalf("want one invocation, got %d", len(disp.got))
	}
	inv := disp.got[0]
	if inv.UserID != 10 || inv.ChatID != -100 || inv.MessageID != 1 || inv.Text != ".пинг" {
		t.Fatalf("invocation fields: %+v", inv)
	}
	// The command message itself lands in the own-message index.
	if ids := bot.RecentOwn(-100, 5); len(ids) != 1 || ids[0] != 1 {
		t.Fatalf("recent own: %v", ids)
	}
}

func TestRouter_ForeignMessagesGoToHooks(t *testing.T) {
	disp := &captureDispatcher{}
	bot := NewBot(nil, zap.NewNop())
	r := NewRouter(zap.NewNop(), bot, 10, disp)

	var hookFrom int64
	r.OnForeign(func(_ context.Context, _ int64, fromID int64, _ int) {
		hookFrom = fromID
	})

	r.HandleUpdate(context.Background(), tgbotapi.Update{Message: message(99, -100, 2, "привет")})

	if len(disp.got) != 0 {
		t.Fatal("foreign message must not dispatch")
	}
	if hookFrom != 99 {
		t.Fatalf("hook saw from=%d", hookFrom)
	}
	if ids := bot.RecentOwn(-100, 5); len(ids) != 0 {
		t.Fatalf("foreign message must not be indexed: %v", ids)
	}
}

func TestRouter_ReplyClassification(t *testing.T) {
	disp := &captureDispatcher{}
	r := NewRouter(zap.NewNop(), NewBot(nil, zap.NewNop()), 10, disp)

	cmd := message(10, -100, 3, ".+гс myrec")
	cmd.ReplyToMessage = &tgbotapi.Message{
		MessageID: 2,
		From:      &tgbotapi.User{ID: 99},
		Chat:      &tgbotapi.Chat{ID: -100},
		Voice:     &tgbotapi.Voice{FileID: "voice-file", FileSize: 1024},
	}
	r.HandleUpdate(context.Background(), tgbotapi.Update{Message: cmd})

	ref := disp.got[0].ReplyTo
	if ref == nil {
		t.Fatal("reply must be classified")
	}
	if ref.Kind != domain.MediaVoice || ref.FileID != "voice-file" || ref.FileSize != 1024 {
		t.Fatalf("reply ref: %+v", ref)
	}
	if ref.UserID != 99 || ref.MessageID != 2 {
		t.Fatalf("reply origin: %+v", ref)
	}
}

func TestRecentOwn_NewestFirstAndBounded(t *testing.T) {
	bot := NewBot(nil, zap.NewNop())
	for i := 1; i <= recentCap+10; i++ {
		bot.noteOwn(-1, i)
	}
	ids := bot.RecentOwn(-1, 3)
	want := []int{recentCap + 10, recentCap + 9, recentCap + 8}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("want %v, got %v", want, ids)
		}
	}
	if all := bot.RecentOwn(-1, recentCap*2); len(all) != recentCap {
		t.Fatalf("ring must be capped at %d, got %d", recentCap, len(all))
	}
}
