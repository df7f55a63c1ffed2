package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Lex6452/lp/internal/dispatch"
	"github.com/Lex6452/lp/internal/domain"
)

func registerHelp(d *dispatch.Dispatcher, deps *Deps) {
	d.Register(dispatch.Rule{
		Name: "help", Keyword: "help",
		Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
			var b strings.Builder
			b.WriteString("📖 Доступные команды:\n\n")
			for _, r := range d.Rules() {
				// Rules spelled through settings (the delete command)
				// are listed separately below.
				if r.Keyword == "" {
					continue
				}
				b.WriteString(s.Prefix + r.Keyword + "\n")
			}
			fmt.Fprintf(&b, "\nУдаление сообщений: %s <n> и %s- <n>", s.DeleteCmd, s.DeleteCmd)
			return deps.edit(ctx, inv, b.String())
		},
	})
}
