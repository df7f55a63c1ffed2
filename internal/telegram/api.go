package telegram

import "context"

// Chat actions accepted by SendChatAction.
const (
	ActionTyping      = "typing"
	ActionRecordVoice = "record_voice"
)

// API is the slice of the Telegram transport the handlers need. Bot
// implements it; handler tests substitute a fake.
type API interface {
	// SendMessage posts text and returns the new message ID.
	SendMessage(ctx context.Context, chatID int64, text string) (int, error)
	EditMessage(ctx context.Context, chatID int64, messageID int, text string) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error

	SendVoice(ctx context.Context, chatID int64, path string) error
	SendVideoNote(ctx context.Context, chatID int64, path string) error
	SendPhoto(ctx context.Context, chatID int64, data []byte, caption string) error
	SendChatAction(ctx context.Context, chatID int64, action string) error

	// Download fetches a Telegram file to dest and returns its size.
	Download(ctx context.Context, fileID, dest string) (int64, error)

	ChatTitle(ctx context.Context, chatID int64) (string, error)
	// MemberUsernames lists the usernames the transport can see in the
	// chat (administrators).
	MemberUsernames(ctx context.Context, chatID int64) ([]string, error)
	// KeepAlive performs a minimal round trip to keep the session warm.
	KeepAlive(ctx context.Context) error

	// RecentOwn returns up to limit IDs of our own latest messages in
	// the chat, newest first. Only messages observed since startup are
	// known.
	RecentOwn(chatID int64, limit int) []int
}
