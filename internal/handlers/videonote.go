package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Lex6452/lp/internal/dispatch"
	"github.com/Lex6452/lp/internal/domain"
	"github.com/Lex6452/lp/internal/store"
)

func registerVideoNotes(d *dispatch.Dispatcher, deps *Deps) {
	d.Register(
		dispatch.Rule{
			Name: "videonote-add", Keyword: "+кружочек",
			MinTokens: 2, Usage: "{prefix}+кружочек <название> (ответом на кружочек или видео)",
			NeedReply: true,
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				if inv.ReplyTo.Kind != domain.MediaVideoNote && inv.ReplyTo.Kind != domain.MediaVideo {
					return dispatch.Errorf("Ответьте на видеокружочек или видео!")
				}
				name := inv.Rest(1)
				if err := domain.ValidateName(name); err != nil {
					return dispatch.Errorf("Имя должно быть от 1 до 50 символов")
				}
				if inv.ReplyTo.FileSize > domain.MaxVoiceBytes {
					return dispatch.Errorf("Видео слишком большое (максимум 50 МБ)")
				}
				exists, err := deps.Repo.VideoNoteExists(ctx, inv.UserID, name)
				if err != nil {
					return fmt.Errorf("check video note: %w", err)
				}
				if exists {
					return dispatch.Errorf("Кружочек '%s' уже существует!", name)
				}

				dir := filepath.Join(deps.DataDir, fmt.Sprint(inv.UserID), "note")
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create note dir: %w", err)
				}
				dest := filepath.Join(dir, safeFilename(name)+fmt.Sprintf("_%d.mp4", inv.ReplyTo.MessageID))

				src := dest + ".src"
				if _, err := deps.API.Download(ctx, inv.ReplyTo.FileID, src); err != nil {
					return fmt.Errorf("download video: %w", err)
				}
				defer os.Remove(src)
				if err := deps.Media.ToVideoNote(ctx, src, dest); err != nil {
					return fmt.Errorf("convert video note: %w", err)
				}

				if err := deps.Repo.SaveVideoNote(ctx, domain.StoredFile{UserID: inv.UserID, Name: name, Path: dest}); err != nil {
					_ = os.Remove(dest)
					if errors.Is(err, store.ErrDuplicate) {
						return dispatch.Errorf("Кружочек '%s' уже существует!", name)
					}
					return fmt.Errorf("save video note: %w", err)
				}
				return deps.edit(ctx, inv, fmt.Sprintf("✅ Кружочек '%s' сохранён!", name))
			},
		},
		dispatch.Rule{
			Name: "videonote-delete", Keyword: "-кружочек",
			MinTokens: 2, Usage: "{prefix}-кружочек <название>",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				name := inv.Rest(1)
				path, err := deps.Repo.DeleteVideoNote(ctx, inv.UserID, name)
				if errors.Is(err, store.ErrNotFound) {
					return dispatch.Errorf("Кружочек '%s' не найден!", name)
				}
				if err != nil {
					return fmt.Errorf("delete video note: %w", err)
				}
				if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
					deps.Log.Warn("video note file not removed", zap.String("path", path), zap.Error(rmErr))
				}
				return deps.edit(ctx, inv, fmt.Sprintf("🗑️ Кружочек '%s' удалён!", name))
			},
		},
		dispatch.Rule{
			Name: "videonote-list", Keyword: "кружочки",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				names, err := deps.Repo.ListVideoNotes(ctx, inv.UserID)
				if err != nil {
					return fmt.Errorf("list video notes: %w", err)
				}
				return deps.edit(ctx, inv, formatNameList("кружочки", "У вас нет сохранённых кружочков!", names))
			},
		},
		dispatch.Rule{
			Name: "videonote-play", Keyword: domain.KeywordVideoNote,
			MinTokens: 2, Usage: "{prefix}кружочек <название>",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				name := inv.Rest(1)
				path, err := deps.Repo.VideoNotePath(ctx, inv.UserID, name)
				if errors.Is(err, store.ErrNotFound) {
					return dispatch.Errorf("Кружочек '%s' не найден!", name)
				}
				if err != nil {
					return fmt.Errorf("get video note: %w", err)
				}
				if _, statErr := os.Stat(path); statErr != nil {
					return dispatch.Errorf("Файл кружочка '%s' потерян", name)
				}
				if err := deps.API.DeleteMessage(ctx, inv.ChatID, inv.MessageID); err != nil {
					return fmt.Errorf("delete command message: %w", err)
				}
				return deps.API.SendVideoNote(ctx, inv.ChatID, path)
			},
		},
	)
}
