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

func registerTemplates(d *dispatch.Dispatcher, deps *Deps) {
	d.Register(
		dispatch.Rule{
			Name: "template-add", Keyword: "+шаб",
			MinTokens: 3, Usage: "{prefix}+шаб <имя> <текст>",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				name := inv.Arg(1)
				if err := domain.ValidateName(name); err != nil {
					return dispatch.Errorf("Имя должно быть от 1 до 50 символов")
				}
				text := inv.Rest(2)

				err := deps.Repo.SaveTemplate(ctx, domain.Template{UserID: inv.UserID, Name: name, Text: text})
				if errors.Is(err, store.ErrDuplicate) {
					return dispatch.Errorf("Шаблон '%s' уже существует", name)
				}
				if err != nil {
					return fmt.Errorf("save template: %w", err)
				}
				return deps.edit(ctx, inv, fmt.Sprintf("✅ Шаблон '%s' сохранён!", name))
			},
		},
		dispatch.Rule{
			Name: "template-delete", Keyword: "-шаб",
			MinTokens: 2, Usage: "{prefix}-шаб <имя>",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				name := inv.Arg(1)
				ok, err := deps.Repo.DeleteTemplate(ctx, inv.UserID, name)
				if err != nil {
					return fmt.Errorf("delete template: %w", err)
				}
				if !ok {
					return dispatch.Errorf("Шаблон '%s' не найден!", name)
				}
				return deps.edit(ctx, inv, fmt.Sprintf("🗑️ Шаблон '%s' удалён!", name))
			},
		},
		dispatch.Rule{
			Name: "template-list", Keyword: "шабы",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				names, err := deps.Repo.ListTemplates(ctx, inv.UserID)
				if err != nil {
					return fmt.Errorf("list templates: %w", err)
				}
				return deps.edit(ctx, inv, formatNameList("шаблоны", "У вас нет сохранённых шаблонов!", names))
			},
		},
		dispatch.Rule{
			Name: "template-play", Keyword: domain.KeywordTemplate,
			MinTokens: 2, Usage: "{prefix}шаб <имя>",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				name := inv.Rest(1)
				text, err := deps.Repo.GetTemplate(ctx, inv.UserID, name)
				if errors.Is(err, store.ErrNotFound) {
					return dispatch.Errorf("Шаблон '%s' не найден!", name)
				}
				if err != nil {
					return fmt.Errorf("get template: %w", err)
				}
				return deps.edit(ctx, inv, text)
			},
		},
	)
}

// formatNameList renders the common numbered list reply.
func formatNameList(plural, emptyMsg string, names []string) string {
	if len(names) == 0 {
		return "📂 " + emptyMsg
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📂 Ваши %s:\n\n", plural)
	for i, name := range names {
		fmt.Fprintf(&b, "%d. %s\n", i+1, name)
	}
	fmt.Fprintf(&b, "\nВсего: %d", len(names))
	return b.String()
}
