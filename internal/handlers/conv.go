package handlers

import (
	"context"
	"errors"

	"github.com/Lex6452/lp/internal/dispatch"
	"github.com/Lex6452/lp/internal/domain"
)

func registerConv(d *dispatch.Dispatcher, deps *Deps) {
	d.Register(dispatch.Rule{
		Name: "layout-fix", Keyword: "конв", CaseFold: true,
		Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
			// Either convert the replied-to message's text in place of
			// the command, or the argument text itself.
			text := inv.Rest(1)
			if text == "" {
				if inv.ReplyTo == nil || inv.ReplyTo.Text == "" {
					return dispatch.Errorf("Укажите текст или ответьте на сообщение")
				}
				text = inv.ReplyTo.Text
			}
			fixed, err := domain.ConvertLayout(text)
			if errors.Is(err, domain.ErrUnknownLayout) {
				return dispatch.Errorf("Не удалось определить раскладку")
			}
			if err != nil {
				return err
			}
			return deps.edit(ctx, inv, fixed)
		},
	})
}
