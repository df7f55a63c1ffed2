package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Lex6452/lp/internal/domain"
)

// Dispatcher runs a command invocation. dispatch.Dispatcher implements
// it.
type Dispatcher interface {
	Dispatch(ctx context.Context, inv domain.Invocation) bool
}

// ForeignHook observes messages from other users. The trap feature
// registers one.
type ForeignHook func(ctx context.Context, chatID, fromID int64, messageID int)

// Router turns Telegram updates into invocations. Only the owner's
// messages are commands; everyone else's pass to the foreign hooks.
type Router struct {
	log     *zap.Logger
	bot     *Bot
	ownerID int64
	disp    Dispatcher

	foreign []ForeignHook
}

func NewRouter(log *zap.Logger, bot *Bot, ownerID int64, disp Dispatcher) *Router {
	return &Router{
		log:     log,
		bot:     bot,
		ownerID: ownerID,
		disp:    disp,
	}
}

// OnForeign registers a hook for messages not sent by the owner.
// Register before the update loop starts; not safe to call
// concurrently with updates.
func (r *Router) OnForeign(h ForeignHook) {
	r.foreign = append(r.foreign, h)
}

// HandleUpdate routes a single update.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID

	if msg.From.ID != r.ownerID {
		for _, h := range r.foreign {
			h(ctx, chatID, msg.From.ID, msg.MessageID)
		}
		return
	}

	// Every own message is remembered for bulk delete, commands
	// included.
	r.bot.noteOwn(chatID, msg.MessageID)

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	if strings.TrimSpace(text) == "" {
		return
	}

	inv := domain.Invocation{
		UserID:    msg.From.ID,
		ChatID:    chatID,
		MessageID: msg.MessageID,
		Text:      text,
		ReplyTo:   classifyReply(msg.ReplyToMessage),
	}
	if r.disp.Dispatch(ctx, inv) {
		r.log.Debug("command handled",
			zap.Int64("chatID", chatID), zap.Int("messageID", msg.MessageID))
	}
}

// classifyReply extracts what handlers need from the replied-to
// message.
func classifyReply(m *tgbotapi.Message) *domain.ReplyRef {
	if m == nil {
		return nil
	}
	ref := &domain.ReplyRef{MessageID: m.MessageID, Kind: domain.MediaText, Text: m.Text}
	if m.From != nil {
		ref.UserID = m.From.ID
	}

	switch {
	case m.Voice != nil:
		ref.Kind = domain.MediaVoice
		ref.FileID = m.Voice.FileID
		ref.FileSize = int64(m.Voice.FileSize)
	case m.VideoNote != nil:
		ref.Kind = domain.MediaVideoNote
		ref.FileID = m.VideoNote.FileID
		ref.FileSize = int64(m.VideoNote.FileSize)
	case m.Video != nil:
		ref.Kind = domain.MediaVideo
		ref.FileID = m.Video.FileID
		ref.FileSize = int64(m.Video.FileSize)
	case len(m.Photo) > 0:
		// Telegram sends several sizes, the last is the largest.
		best := m.Photo[len(m.Photo)-1]
		ref.Kind = domain.MediaPhoto
		ref.FileID = best.FileID
		ref.FileSize = int64(best.FileSize)
	default:
		if m.Caption != "" && ref.Text == "" {
			ref.Text = m.Caption
		}
	}
	return ref
}
