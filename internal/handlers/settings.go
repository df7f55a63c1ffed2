package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/Lex6452/lp/internal/dispatch"
	"github.com/Lex6452/lp/internal/domain"
)

func registerSettings(d *dispatch.Dispatcher, deps *Deps) {
	setPrefix := func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
		p := inv.Arg(1)
		if err := domain.ValidatePrefix(p); err != nil {
			return dispatch.Errorf("Префикс должен быть одним печатным символом")
		}
		if err := deps.Repo.SetPrefix(ctx, inv.UserID, p); err != nil {
			return fmt.Errorf("set prefix: %w", err)
		}
		return deps.edit(ctx, inv, fmt.Sprintf("✅ Префикс изменён на `%s`", p))
	}
	d.Register(
		dispatch.Rule{
			Name: "set-prefix", Keyword: "префикс",
			MinTokens: 2, Usage: "{prefix}префикс <символ>",
			Handle: setPrefix,
		},
		dispatch.Rule{
			Name: "set-prefix-short", Keyword: "преф",
			MinTokens: 2, Usage: "{prefix}преф <символ>",
			Handle: setPrefix,
		},
		dispatch.Rule{
			Name: "set-delete-cmd", Keyword: "удалялка", CaseFold: true,
			MinTokens: 2, Usage: "{prefix}удалялка <команда>",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				cmd := inv.Arg(1)
				if err := domain.ValidateCommandName(cmd); err != nil {
					if errors.Is(err, domain.ErrReservedCmd) {
						return dispatch.Errorf("Название не может совпадать с командами бота")
					}
					return dispatch.Errorf("Название должно быть от 1 до 50 символов без управляющих")
				}
				if err := deps.Repo.SetDeleteCmd(ctx, inv.UserID, cmd); err != nil {
					return fmt.Errorf("set delete cmd: %w", err)
				}
				return deps.edit(ctx, inv, fmt.Sprintf(
					"✅ Команда удаления установлена: `%s`\nТеперь используйте `%s <n>` и `%s- <n>`", cmd, cmd, cmd))
			},
		},
		dispatch.Rule{
			Name: "set-edit-text", Keyword: "редач", CaseFold: true,
			MinTokens: 2, Usage: "{prefix}редач <текст>",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				text := inv.Rest(1)
				if err := deps.Repo.SetEditText(ctx, inv.UserID, text); err != nil {
					return fmt.Errorf("set edit text: %w", err)
				}
				return deps.edit(ctx, inv, fmt.Sprintf("✅ Текст для редактирования установлен: `%s`", text))
			},
		},
		dispatch.Rule{
			Name: "profile", Keyword: "профиль",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				voices, err := deps.Repo.ListVoices(ctx, inv.UserID)
				if err != nil {
					return fmt.Errorf("list voices: %w", err)
				}
				notes, err := deps.Repo.ListVideoNotes(ctx, inv.UserID)
				if err != nil {
					return fmt.Errorf("list video notes: %w", err)
				}
				templates, err := deps.Repo.ListTemplates(ctx, inv.UserID)
				if err != nil {
					return fmt.Errorf("list templates: %w", err)
				}
				aliases, err := deps.Repo.ListAliases(ctx, inv.UserID)
				if err != nil {
					return fmt.Errorf("list aliases: %w", err)
				}
				return deps.edit(ctx, inv, fmt.Sprintf(
					"👤 Ваш профиль\n\n"+
						"🆔 User ID: %d\n"+
						"🔣 Префикс: %s\n"+
						"🗑️ Команда удаления: %s\n"+
						"📹 Видеокружочков: %d\n"+
						"🎙️ Голосовых сообщений: %d\n"+
						"📝 Шаблонов: %d\n"+
						"🔗 Алиасов: %d",
					inv.UserID, s.Prefix, s.DeleteCmd,
					len(notes), len(voices), len(templates), len(aliases)))
			},
		},
	)
}
