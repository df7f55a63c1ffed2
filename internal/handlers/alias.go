package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Lex6452/lp/internal/dispatch"
	"github.com/Lex6452/lp/internal/domain"
	"github.com/Lex6452/lp/internal/store"
)

func registerAliases(d *dispatch.Dispatcher, deps *Deps) {
	d.Register(
		dispatch.Rule{
			Name: "alias-add", Keyword: "+алиас",
			MinTokens: 3, Usage: "{prefix}+алиас <имя> <команда>",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				name := inv.Arg(1)
				if err := domain.ValidateCommandName(name); err != nil {
					if errors.Is(err, domain.ErrReservedCmd) {
						return dispatch.Errorf("Имя алиаса не может совпадать с командами бота")
					}
					return dispatch.Errorf("Имя алиаса должно быть от 1 до 50 символов")
				}

				command := inv.Rest(2)
				if _, _, err := domain.ParseAliasTarget(s.Prefix, command); err != nil {
					if errors.Is(err, domain.ErrNotAliasable) {
						return dispatch.Errorf("Алиасы доступны только для: %s",
							strings.Join(domain.PlaybackKeywords(), ", "))
					}
					return dispatch.Errorf("Команда должна иметь вид `%sгс <название>`", s.Prefix)
				}

				// SQLite's NOCASE folds ASCII only, so the collision check
				// against Cyrillic names lives here.
				existing, err := deps.Repo.ListAliases(ctx, inv.UserID)
				if err != nil {
					return fmt.Errorf("list aliases: %w", err)
				}
				for _, a := range existing {
					if strings.EqualFold(a.Name, name) {
						return dispatch.Errorf("Алиас '%s' уже существует", a.Name)
					}
				}

				err = deps.Repo.SaveAlias(ctx, domain.Alias{UserID: inv.UserID, Name: name, Command: command})
				if errors.Is(err, store.ErrDuplicate) {
					return dispatch.Errorf("Алиас '%s' уже существует", name)
				}
				if err != nil {
					return fmt.Errorf("save alias: %w", err)
				}
				return deps.edit(ctx, inv, fmt.Sprintf("✅ Алиас '%s' → `%s` сохранён", name, command))
			},
		},
		dispatch.Rule{
			Name: "alias-delete", Keyword: "-алиас",
			MinTokens: 2, Usage: "{prefix}-алиас <имя>",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				name := inv.Arg(1)
				ok, err := deps.Repo.DeleteAlias(ctx, inv.UserID, name)
				if err != nil {
					return fmt.Errorf("delete alias: %w", err)
				}
				if !ok {
					return dispatch.Errorf("Алиас '%s' не найден", name)
				}
				return deps.edit(ctx, inv, fmt.Sprintf("🗑️ Алиас '%s' удалён", name))
			},
		},
		dispatch.Rule{
			Name: "alias-list", Keyword: "алиасы",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				aliases, err := deps.Repo.ListAliases(ctx, inv.UserID)
				if err != nil {
					return fmt.Errorf("list aliases: %w", err)
				}
				if len(aliases) == 0 {
					return deps.edit(ctx, inv, "📂 У вас нет сохранённых алиасов!")
				}
				var b strings.Builder
				b.WriteString("📂 Ваши алиасы:\n\n")
				for i, a := range aliases {
					fmt.Fprintf(&b, "%d. %s → `%s`\n", i+1, a.Name, a.Command)
				}
				fmt.Fprintf(&b, "\nВсего: %d", len(aliases))
				return deps.edit(ctx, inv, b.String())
			},
		},
	)
}
