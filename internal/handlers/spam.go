package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/Lex6452/lp/internal/dispatch"
	"github.com/Lex6452/lp/internal/domain"
	"github.com/Lex6452/lp/internal/tasks"
)

const spamPause = 500 * time.Millisecond

func registerSpam(d *dispatch.Dispatcher, deps *Deps) {
	d.Register(dispatch.Rule{
		Name: "spam", Keyword: "спам", CaseFold: true,
		MinTokens: 2, Usage: "{prefix}спам <число> [текст]",
		Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
			count, err := strconv.Atoi(inv.Arg(1))
			if err != nil {
				return dispatch.Errorf("Укажите корректное число")
			}
			if count <= 0 {
				return dispatch.Errorf("Количество должно быть больше 0")
			}
			if count > domain.MaxSpamCount {
				return dispatch.Errorf("Максимальное количество сообщений: %d", domain.MaxSpamCount)
			}

			// Text may follow on the same line or from the second line.
			text := inv.Rest(2)
			if text == "" {
				return dispatch.Errorf("Текст спама не указан")
			}
			if len([]rune(text)) > domain.MaxSpamTextLen {
				return dispatch.Errorf("Текст спама слишком длинный (максимум %d символов)", domain.MaxSpamTextLen)
			}

			if err := deps.API.DeleteMessage(ctx, inv.ChatID, inv.MessageID); err != nil {
				return err
			}

			key := tasks.Key{UserID: inv.UserID, ChatID: inv.ChatID, Feature: "spam"}
			deps.Tasks.Once(deps.TaskCtx, key, func(ctx context.Context) error {
				for i := 0; i < count; i++ {
					if _, err := deps.API.SendMessage(ctx, inv.ChatID, text); err != nil {
						return err
					}
					if err := deps.sleep(ctx, spamPause); err != nil {
						return err
					}
				}
				return nil
			})
			return nil
		},
	})
}
