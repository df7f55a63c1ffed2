package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// recentCap bounds the per-chat ring of our own message IDs.
const recentCap = 200

// Bot adapts tgbotapi to the API interface and keeps a small in-memory
// index of our own messages per chat. The Bot API has no history
// search, so bulk delete works off this index.
type Bot struct {
	api *tgbotapi.BotAPI
	log *zap.Logger

	mu     sync.Mutex
	recent map[int64][]int
}

func NewBot(api *tgbotapi.BotAPI, log *zap.Logger) *Bot {
	return &Bot{
		api:    api,
		log:    log,
		recent: make(map[int64][]int),
	}
}

// SelfID returns the account's own user ID.
func (b *Bot) SelfID() int64 { return b.api.Self.ID }

// noteOwn records one of our messages for later bulk delete. Called by
// the router for every observed own message and by send paths.
func (b *Bot) noteOwn(chatID int64, messageID int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ring := append(b.recent[chatID], messageID)
	if len(ring) > recentCap {
		ring = ring[len(ring)-recentCap:]
	}
	b.recent[chatID] = ring
}

func (b *Bot) RecentOwn(chatID int64, limit int) []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	ring := b.recent[chatID]
	if limit > len(ring) {
		limit = len(ring)
	}
	out := make([]int, 0, limit)
	for i := len(ring) - 1; i >= len(ring)-limit; i-- {
		out = append(out, ring[i])
	}
	return out
}

// forget drops a deleted message from the index.
func (b *Bot) forget(chatID int64, messageID int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ring := b.recent[chatID]
	for i, id := range ring {
		if id == messageID {
			b.recent[chatID] = append(ring[:i], ring[i+1:]...)
			return
		}
	}
}

func (b *Bot) SendMessage(_ context.Context, chatID int64, text string) (int, error) {
	sent, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return 0, err
	}
	b.noteOwn(chatID, sent.MessageID)
	return sent.MessageID, nil
}

func (b *Bot) EditMessage(_ context.Context, chatID int64, messageID int, text string) error {
	_, err := b.api.Send(tgbotapi.NewEditMessageText(chatID, messageID, text))
	return err
}

func (b *Bot) DeleteMessage(_ context.Context, chatID int64, messageID int) error {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return err
	}
	b.forget(chatID, messageID)
	return nil
}

func (b *Bot) SendVoice(_ context.Context, chatID int64, path string) error {
	sent, err := b.api.Send(tgbotapi.NewVoice(chatID, tgbotapi.FilePath(path)))
	if err != nil {
		return err
	}
	b.noteOwn(chatID, sent.MessageID)
	return nil
}

func (b *Bot) SendVideoNote(_ context.Context, chatID int64, path string) error {
	sent, err := b.api.Send(tgbotapi.NewVideoNote(chatID, 0, tgbotapi.FilePath(path)))
	if err != nil {
		return err
	}
	b.noteOwn(chatID, sent.MessageID)
	return nil
}

func (b *Bot) SendPhoto(_ context.Context, chatID int64, data []byte, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "photo.jpg", Bytes: data})
	photo.Caption = caption
	sent, err := b.api.Send(photo)
	if err != nil {
		return err
	}
	b.noteOwn(chatID, sent.MessageID)
	return nil
}

func (b *Bot) SendChatAction(_ context.Context, chatID int64, action string) error {
	_, err := b.api.Request(tgbotapi.NewChatAction(chatID, action))
	return err
}

func (b *Bot) Download(ctx context.Context, fileID, dest string) (int64, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return 0, fmt.Errorf("resolve file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, resp.Body)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dest)
		return 0, err
	}
	return n, nil
}

func (b *Bot) ChatTitle(_ context.Context, chatID int64) (string, error) {
	chat, err := b.api.GetChat(tgbotapi.ChatInfoConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return "", err
	}
	if chat.Title != "" {
		return chat.Title, nil
	}
	return chat.FirstName, nil
}

func (b *Bot) MemberUsernames(_ context.Context, chatID int64) ([]string, error) {
	admins, err := b.api.GetChatAdministrators(tgbotapi.ChatAdministratorsConfig{
		ChatConfig: tgbotapi.ChatConfig{ChatID: chatID},
	})
	if err != nil {
		return nil, err
	}
	var names []string
	for _, a := range admins {
		if a.User != nil && a.User.UserName != "" && !a.User.IsBot {
			names = append(names, a.User.UserName)
		}
	}
	return names, nil
}

func (b *Bot) KeepAlive(_ context.Context) error {
	_, err := b.api.GetMe()
	return err
}
