package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Lex6452/lp/internal/dispatch"
	"github.com/Lex6452/lp/internal/domain"
)

func registerMegapush(d *dispatch.Dispatcher, deps *Deps) {
	d.Register(dispatch.Rule{
		Name: "megapush", Keyword: "мегапуш",
		Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
			// Private chats have nobody to mention.
			if inv.ChatID > 0 {
				return dispatch.Errorf("Эта команда работает только в групповых чатах!")
			}
			names, err := deps.API.MemberUsernames(ctx, inv.ChatID)
			if err != nil {
				return fmt.Errorf("list members: %w", err)
			}
			if len(names) == 0 {
				return dispatch.Errorf("В чате нет пользователей с @username!")
			}
			var mentions []string
			for _, name := range names {
				mentions = append(mentions, "@"+name)
			}
			return deps.edit(ctx, inv, strings.Join(mentions, " "))
		},
	})
}
