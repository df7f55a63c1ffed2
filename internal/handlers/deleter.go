package handlers

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Lex6452/lp/internal/dispatch"
	"github.com/Lex6452/lp/internal/domain"
	"github.com/Lex6452/lp/internal/tasks"
)

// Pacing between bulk operations, to stay under flood limits.
const (
	deletePause = 200 * time.Millisecond
	editPause   = 300 * time.Millisecond
)

func registerDeleter(d *dispatch.Dispatcher, deps *Deps) {
	// The edit-then-delete spelling registers first: "гг-" must not be
	// read as "гг" with a stray token.
	d.Register(
		dispatch.Rule{
			Name: "delete-edit",
			KeywordFn: func(s domain.Settings) string { return s.DeleteCmd + "-" },
			Bare:      true,
			MinTokens: 2, Usage: "{delete_cmd}- <число>",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				return bulkDelete(ctx, deps, inv, s, true)
			},
		},
		dispatch.Rule{
			Name: "delete-plain",
			KeywordFn: func(s domain.Settings) string { return s.DeleteCmd },
			Bare:      true,
			MinTokens: 2, Usage: "{delete_cmd} <число>",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				return bulkDelete(ctx, deps, inv, s, false)
			},
		},
	)
}

// bulkDelete removes the caller's n latest messages in the chat. With
// obliterate set, each message is first edited to the user's edit text.
func bulkDelete(ctx context.Context, deps *Deps, inv domain.Invocation, s domain.Settings, obliterate bool) error {
	n, err := strconv.Atoi(inv.Arg(1))
	if err != nil || n <= 0 {
		return dispatch.Errorf("Укажите корректное число больше 0")
	}

	// The command message goes first and does not count toward n.
	if err := deps.API.DeleteMessage(ctx, inv.ChatID, inv.MessageID); err != nil {
		return err
	}

	// The paced loop takes seconds for large n, so it runs off the
	// update goroutine. A repeated command supersedes the running one.
	targets := deps.API.RecentOwn(inv.ChatID, n)
	key := tasks.Key{UserID: inv.UserID, ChatID: inv.ChatID, Feature: "bulk-delete"}
	deps.Tasks.Once(deps.TaskCtx, key, func(ctx context.Context) error {
		for _, msgID := range targets {
			if obliterate {
				if err := deps.API.EditMessage(ctx, inv.ChatID, msgID, s.EditText); err != nil {
					deps.Log.Warn("edit before delete failed",
						zap.Int64("chatID", inv.ChatID), zap.Int("messageID", msgID), zap.Error(err))
				}
				if err := deps.sleep(ctx, editPause); err != nil {
					return err
				}
			}
			if err := deps.API.DeleteMessage(ctx, inv.ChatID, msgID); err != nil {
				deps.Log.Warn("bulk delete failed",
					zap.Int64("chatID", inv.ChatID), zap.Int("messageID", msgID), zap.Error(err))
			}
			if err := deps.sleep(ctx, deletePause); err != nil {
				return err
			}
		}
		return nil
	})
	return nil
}
