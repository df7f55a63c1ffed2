package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/Lex6452/lp/internal/dispatch"
	"github.com/Lex6452/lp/internal/domain"
	"github.com/Lex6452/lp/internal/store"
)

var unsafeFileChars = regexp.MustCompile(`[^\w.-]+`)

// safeFilename flattens a user-chosen name into something the
// filesystem accepts.
func safeFilename(name string) string {
	s := strings.ReplaceAll(name, " ", "_")
	s = unsafeFileChars.ReplaceAllString(s, "")
	s = strings.Trim(s, "_")
	if s == "" {
		return "file"
	}
	return s
}

func registerVoices(d *dispatch.Dispatcher, deps *Deps) {
	d.Register(
		dispatch.Rule{
			Name: "voice-add", Keyword: "+гс",
			MinTokens: 2, Usage: "{prefix}+гс <название> (ответом на голосовое)",
			NeedReply: true, ReplyMedia: domain.MediaVoice,
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				name := inv.Rest(1)
				if err := domain.ValidateName(name); err != nil {
					return dispatch.Errorf("Имя должно быть от 1 до 50 символов")
				}
				if inv.ReplyTo.FileSize > domain.MaxVoiceBytes {
					return dispatch.Errorf("Голосовое сообщение слишком большое (максимум 50 МБ)")
				}
				exists, err := deps.Repo.VoiceExists(ctx, inv.UserID, name)
				if err != nil {
					return fmt.Errorf("check voice: %w", err)
				}
				if exists {
					return dispatch.Errorf("Голосовое сообщение '%s' уже существует!", name)
				}

				dir := filepath.Join(deps.DataDir, fmt.Sprint(inv.UserID), "voice")
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create voice dir: %w", err)
				}
				dest := filepath.Join(dir, safeFilename(name)+fmt.Sprintf("_%d.ogg", inv.ReplyTo.MessageID))

				src := dest + ".src"
				if _, err := deps.API.Download(ctx, inv.ReplyTo.FileID, src); err != nil {
					return fmt.Errorf("download voice: %w", err)
				}
				defer os.Remove(src)
				if err := deps.Media.ToVoice(ctx, src, dest); err != nil {
					return fmt.Errorf("convert voice: %w", err)
				}

				if err := deps.Repo.SaveVoice(ctx, domain.StoredFile{UserID: inv.UserID, Name: name, Path: dest}); err != nil {
					_ = os.Remove(dest)
					if errors.Is(err, store.ErrDuplicate) {
						return dispatch.Errorf("Голосовое сообщение '%s' уже существует!", name)
					}
					return fmt.Errorf("save voice: %w", err)
				}
				return deps.edit(ctx, inv, fmt.Sprintf("✅ Голосовое сообщение '%s' сохранено!", name))
			},
		},
		dispatch.Rule{
			Name: "voice-delete", Keyword: "-гс",
			MinTokens: 2, Usage: "{prefix}-гс <название>",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				name := inv.Rest(1)
				path, err := deps.Repo.DeleteVoice(ctx, inv.UserID, name)
				if errors.Is(err, store.ErrNotFound) {
					return dispatch.Errorf("Голосовое сообщение '%s' не найдено!", name)
				}
				if err != nil {
					return fmt.Errorf("delete voice: %w", err)
				}
				if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
					deps.Log.Warn("voice file not removed", zap.String("path", path), zap.Error(rmErr))
				}
				return deps.edit(ctx, inv, fmt.Sprintf("🗑️ Голосовое сообщение '%s' удалено!", name))
			},
		},
		dispatch.Rule{
			Name: "voice-list", Keyword: "гсы",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				names, err := deps.Repo.ListVoices(ctx, inv.UserID)
				if err != nil {
					return fmt.Errorf("list voices: %w", err)
				}
				return deps.edit(ctx, inv, formatNameList("голосовые сообщения", "У вас нет сохранённых голосовых сообщений!", names))
			},
		},
		dispatch.Rule{
			Name: "voice-play", Keyword: domain.KeywordVoice,
			MinTokens: 2, Usage: "{prefix}гс <название>",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				name := inv.Rest(1)
				path, err := deps.Repo.VoicePath(ctx, inv.UserID, name)
				if errors.Is(err, store.ErrNotFound) {
					return dispatch.Errorf("Голосовое сообщение '%s' не найдено!", name)
				}
				if err != nil {
					return fmt.Errorf("get voice: %w", err)
				}
				if _, statErr := os.Stat(path); statErr != nil {
					return dispatch.Errorf("Файл голосового сообщения '%s' потерян", name)
				}
				if err := deps.API.DeleteMessage(ctx, inv.ChatID, inv.MessageID); err != nil {
					return fmt.Errorf("delete command message: %w", err)
				}
				return deps.API.SendVoice(ctx, inv.ChatID, path)
			},
		},
	)
}
