package handlers

import (
	"context"
	"math/rand"
	"strings"

	"github.com/Lex6452/lp/internal/dispatch"
	"github.com/Lex6452/lp/internal/domain"
)

func registerChoose(d *dispatch.Dispatcher, deps *Deps) {
	d.Register(dispatch.Rule{
		Name: "choose", Keyword: "выбери",
		MinTokens: 2, Usage: "{prefix}выбери <вариант> или <вариант> [или ...]",
		Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
			variants := splitVariants(inv.Rest(1))
			if len(variants) < 2 {
				return dispatch.Errorf("Укажите хотя бы два варианта, разделённых словом 'или'")
			}
			chosen := variants[rand.Intn(len(variants))]
			return deps.edit(ctx, inv, "🎲 Выбран вариант: "+chosen)
		},
	})
}

// splitVariants splits on the word "или" surrounded by spaces, keeping
// multi-word variants intact.
func splitVariants(text string) []string {
	var out []string
	for _, v := range strings.Split(" "+text+" ", " или ") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
