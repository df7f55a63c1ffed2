package handlers

import (
	"context"
	"time"

	"github.com/Lex6452/lp/internal/dispatch"
	"github.com/Lex6452/lp/internal/domain"
	"github.com/Lex6452/lp/internal/tasks"
)

// onlinePing is how often the keep-alive loop touches the API.
const onlinePing = 5 * time.Minute

func registerOnline(d *dispatch.Dispatcher, deps *Deps) {
	// The keep-alive loop is account-wide, chat does not matter.
	key := func(inv domain.Invocation) tasks.Key {
		return tasks.Key{UserID: inv.UserID, Feature: "online"}
	}

	d.Register(
		dispatch.Rule{
			Name: "online-start", Keyword: "+онлайн",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				if deps.Tasks.Active(key(inv)) {
					return dispatch.Errorf("Вечный онлайн уже включён!")
				}
				deps.Tasks.Start(deps.TaskCtx, key(inv), onlinePing, func(ctx context.Context) error {
					return deps.API.KeepAlive(ctx)
				})
				return deps.edit(ctx, inv, "✅ Вечный онлайн включён!")
			},
		},
		dispatch.Rule{
			Name: "online-stop", Keyword: "-онлайн",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				if !deps.Tasks.Stop(key(inv)) {
					return dispatch.Errorf("Вечный онлайн уже отключён!")
				}
				return deps.edit(ctx, inv, "✅ Вечный онлайн отключён!")
			},
		},
		dispatch.Rule{
			Name: "online-status", Keyword: "онлайн",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				status := "отключён"
				if deps.Tasks.Active(key(inv)) {
					status = "включён"
				}
				return deps.edit(ctx, inv, "ℹ️ Вечный онлайн: "+status)
			},
		},
	)
}
