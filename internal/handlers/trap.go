package handlers

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Lex6452/lp/internal/dispatch"
	"github.com/Lex6452/lp/internal/domain"
)

// trapState holds the chats with an armed trap. One trap per chat, the
// next foreign message springs it.
type trapState struct {
	mu    sync.Mutex
	armed map[int64]bool
}

func registerTrap(d *dispatch.Dispatcher, deps *Deps) {
	st := &trapState{armed: make(map[int64]bool)}

	d.Register(dispatch.Rule{
		Name: "trap", Keyword: "ловушка", CaseFold: true,
		Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
			if err := deps.API.DeleteMessage(ctx, inv.ChatID, inv.MessageID); err != nil {
				return err
			}
			if err := deps.API.SendPhoto(ctx, inv.ChatID, deps.TrapSet, "Ловушка установлена! Ждём жертву..."); err != nil {
				return err
			}
			st.mu.Lock()
			st.armed[inv.ChatID] = true
			st.mu.Unlock()
			return nil
		},
	})

	if deps.OnForeign == nil {
		return
	}
	deps.OnForeign(func(ctx context.Context, chatID, fromID int64, messageID int) {
		st.mu.Lock()
		sprung := st.armed[chatID]
		if sprung {
			delete(st.armed, chatID)
		}
		st.mu.Unlock()
		if !sprung {
			return
		}
		if err := deps.API.SendPhoto(ctx, chatID, deps.TrapSprung, ""); err != nil {
			deps.Log.Warn("trap photo failed", zap.Int64("chatID", chatID), zap.Error(err))
		}
	})
}
