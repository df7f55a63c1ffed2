package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Lex6452/lp/internal/dispatch"
	"github.com/Lex6452/lp/internal/domain"
	"github.com/Lex6452/lp/internal/store"
	"github.com/Lex6452/lp/internal/tasks"
)

// frameDelay is the pause between animation frame edits.
const frameDelay = time.Second

func registerAnimations(d *dispatch.Dispatcher, deps *Deps) {
	d.Register(
		dispatch.Rule{
			Name: "animation-add", Keyword: "+анимка",
			MinTokens: 2, Usage: "{prefix}+анимка <имя> (ответом на текст с кадрами через #$)",
			NeedReply: true,
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				if inv.ReplyTo.Text == "" {
					return dispatch.Errorf("Ответьте на сообщение с кадрами анимации!")
				}
				name := inv.Rest(1)
				if err := domain.ValidateName(name); err != nil {
					return dispatch.Errorf("Имя должно быть от 1 до 50 символов")
				}

				frames := domain.SplitFrames(inv.ReplyTo.Text)
				if len(frames) < domain.MinAnimationFrames {
					return dispatch.Errorf("Анимация должна содержать хотя бы %d кадра!", domain.MinAnimationFrames)
				}

				err := deps.Repo.SaveAnimation(ctx, domain.Animation{UserID: inv.UserID, Name: name, Frames: frames})
				if errors.Is(err, store.ErrDuplicate) {
					return dispatch.Errorf("Анимация '%s' уже существует!", name)
				}
				if err != nil {
					return fmt.Errorf("save animation: %w", err)
				}
				return deps.edit(ctx, inv, fmt.Sprintf("✅ Анимация '%s' сохранена (%d кадров)!", name, len(frames)))
			},
		},
		dispatch.Rule{
			Name: "animation-delete", Keyword: "-анимка",
			MinTokens: 2, Usage: "{prefix}-анимка <имя>",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				name := inv.Rest(1)
				ok, err := deps.Repo.DeleteAnimation(ctx, inv.UserID, name)
				if err != nil {
					return fmt.Errorf("delete animation: %w", err)
				}
				if !ok {
					return dispatch.Errorf("Анимация '%s' не найдена!", name)
				}
				return deps.edit(ctx, inv, fmt.Sprintf("🗑️ Анимация '%s' удалена!", name))
			},
		},
		dispatch.Rule{
			Name: "animation-list", Keyword: "анимки",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				names, err := deps.Repo.ListAnimations(ctx, inv.UserID)
				if err != nil {
					return fmt.Errorf("list animations: %w", err)
				}
				return deps.edit(ctx, inv, formatNameList("анимации", "У вас нет сохранённых анимаций!", names))
			},
		},
		dispatch.Rule{
			Name: "animation-play", Keyword: domain.KeywordAnimation,
			MinTokens: 2, Usage: "{prefix}анимка <имя>",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				name := inv.Rest(1)
				frames, err := deps.Repo.GetAnimation(ctx, inv.UserID, name)
				if errors.Is(err, store.ErrNotFound) {
					return dispatch.Errorf("Анимация '%s' не найдена!", name)
				}
				if err != nil {
					return fmt.Errorf("get animation: %w", err)
				}

				// The first frame replaces the command synchronously, the
				// rest play in the background so long animations don't
				// block the update loop.
				if err := deps.edit(ctx, inv, frames[0]); err != nil {
					return fmt.Errorf("first frame: %w", err)
				}
				key := tasks.Key{UserID: inv.UserID, ChatID: inv.ChatID, Feature: "animation"}
				deps.Tasks.Once(deps.TaskCtx, key, func(ctx context.Context) error {
					for _, frame := range frames[1:] {
						if err := deps.sleep(ctx, frameDelay); err != nil {
							return err
						}
						if err := deps.edit(ctx, inv, frame); err != nil {
							return err
						}
					}
					return nil
				})
				return nil
			},
		},
	)
}
