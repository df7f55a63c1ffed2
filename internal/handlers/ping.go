package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Lex6452/lp/internal/dispatch"
	"github.com/Lex6452/lp/internal/domain"
)

func registerPing(d *dispatch.Dispatcher, deps *Deps) {
	d.Register(dispatch.Rule{
		Name: "ping", Keyword: "пинг", CaseFold: true,
		Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
			start := deps.Clk.Now()

			// Round trip: send a probe message and remove it.
			probeID, err := deps.API.SendMessage(ctx, inv.ChatID, "⏳ Измерение ping...")
			if err != nil {
				return fmt.Errorf("send probe: %w", err)
			}
			apiTime := deps.Clk.Since(start)
			if err := deps.API.DeleteMessage(ctx, inv.ChatID, probeID); err != nil {
				deps.Log.Warn("probe message not removed", zap.Int("messageID", probeID), zap.Error(err))
			}

			total := deps.Clk.Since(start)
			return deps.edit(ctx, inv, fmt.Sprintf(
				"📊 Результаты ping:\n\n"+
					"• Время ответа API: %.2f мс\n"+
					"• Время обработки: %.2f мс\n\n"+
					"⏱ Общее время выполнения: %.2f мс",
				float64(apiTime.Microseconds())/1000,
				float64((total-apiTime).Microseconds())/1000,
				float64(total.Microseconds())/1000))
		},
	})
}
