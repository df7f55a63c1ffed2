package handlers

import (
	"context"
	"time"

	"github.com/Lex6452/lp/internal/dispatch"
	"github.com/Lex6452/lp/internal/domain"
	"github.com/Lex6452/lp/internal/tasks"
)

const (
	typingSymbol = "▒"
	typingDelay  = 50 * time.Millisecond
)

func registerTypewriter(d *dispatch.Dispatcher, deps *Deps) {
	typewrite := func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
		text := inv.Rest(1)
		key := tasks.Key{UserID: inv.UserID, ChatID: inv.ChatID, Feature: "typewriter"}
		deps.Tasks.Once(deps.TaskCtx, key, func(ctx context.Context) error {
			runes := []rune(text)
			for i := 1; i <= len(runes); i++ {
				cursor := string(runes[:i])
				if i < len(runes) {
					cursor += typingSymbol
				}
				if err := deps.edit(ctx, inv, cursor); err != nil {
					return err
				}
				if err := deps.sleep(ctx, typingDelay); err != nil {
					return err
				}
			}
			// Final pass drops the cursor.
			return deps.edit(ctx, inv, text)
		})
		return nil
	}

	d.Register(
		dispatch.Rule{
			Name: "typewriter", Keyword: "type",
			MinTokens: 2, Usage: "{prefix}type <текст>",
			Handle: typewrite,
		},
		dispatch.Rule{
			Name: "typewriter-ru", Keyword: "печатай",
			MinTokens: 2, Usage: "{prefix}печатай <текст>",
			Handle: typewrite,
		},
	)
}
