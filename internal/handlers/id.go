package handlers

import (
	"context"
	"fmt"

	"github.com/Lex6452/lp/internal/dispatch"
	"github.com/Lex6452/lp/internal/domain"
)

func registerID(d *dispatch.Dispatcher, deps *Deps) {
	d.Register(dispatch.Rule{
		Name: "id", Keyword: "ид", CaseFold: true,
		Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
			if inv.ReplyTo != nil {
				if inv.ReplyTo.UserID == 0 {
					return dispatch.Errorf("Пользователь в реплае не найден")
				}
				return deps.edit(ctx, inv, fmt.Sprintf(
					"🆔 ID пользователя: %d\n🆔 ID чата: %d", inv.ReplyTo.UserID, inv.ChatID))
			}
			return deps.edit(ctx, inv, fmt.Sprintf(
				"🆔 ID чата: %d\n🆔 Ваш ID: %d", inv.ChatID, inv.UserID))
		},
	})
}
