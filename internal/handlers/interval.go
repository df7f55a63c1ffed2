package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Lex6452/lp/internal/dispatch"
	"github.com/Lex6452/lp/internal/domain"
	"github.com/Lex6452/lp/internal/store"
	"github.com/Lex6452/lp/internal/tasks"
)

func intervalKey(userID int64, name string) tasks.Key {
	// ChatID stays zero: an interval name is unique per user, the
	// target chat is part of the stored row.
	return tasks.Key{UserID: userID, Feature: "interval:" + name}
}

func registerIntervals(d *dispatch.Dispatcher, deps *Deps) {
	d.Register(
		dispatch.Rule{
			Name: "interval-add", Keyword: "+интервал", CaseFold: true,
			MinTokens: 3, Usage: "{prefix}+интервал <имя> <минуты>\n<текст с новой строки>",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				head := strings.Fields(inv.FirstLine())
				if len(head) < 3 {
					return dispatch.Errorf("Формат: %s+интервал <имя> <минуты>, текст с новой строки", s.Prefix)
				}
				name := head[1]
				if err := domain.ValidateName(name); err != nil {
					return dispatch.Errorf("Имя должно быть от 1 до 50 символов")
				}
				minutes, err := strconv.Atoi(head[2])
				if err != nil || minutes <= 0 {
					return dispatch.Errorf("Время должно быть числом больше 0")
				}
				text := inv.Tail()
				if text == "" {
					return dispatch.Errorf("Укажите текст интервала с новой строки")
				}

				n, err := deps.Repo.CountIntervals(ctx, inv.UserID)
				if err != nil {
					return fmt.Errorf("count intervals: %w", err)
				}
				if n >= domain.MaxIntervals {
					return dispatch.Errorf("Лимит интервалов (%d)", domain.MaxIntervals)
				}

				iv := domain.Interval{
					UserID: inv.UserID, Name: name,
					ChatID: inv.ChatID, PeriodMinutes: minutes, Text: text,
				}
				if err := deps.Repo.SaveInterval(ctx, iv); err != nil {
					if errors.Is(err, store.ErrDuplicate) {
						return dispatch.Errorf("Интервал '%s' уже существует", name)
					}
					return fmt.Errorf("save interval: %w", err)
				}

				startInterval(deps, iv)
				return deps.edit(ctx, inv, fmt.Sprintf("✅ Интервал '%s' запущен (каждые %d мин)", name, minutes))
			},
		},
		dispatch.Rule{
			Name: "interval-delete", Keyword: "-интервал", CaseFold: true,
			MinTokens: 2, Usage: "{prefix}-интервал <имя>",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				name := inv.Arg(1)
				deps.Tasks.Stop(intervalKey(inv.UserID, name))
				ok, err := deps.Repo.DeleteInterval(ctx, inv.UserID, name)
				if err != nil {
					return fmt.Errorf("delete interval: %w", err)
				}
				if !ok {
					return dispatch.Errorf("Интервал '%s' не найден", name)
				}
				return deps.edit(ctx, inv, fmt.Sprintf("🗑️ Интервал '%s' остановлен и удалён", name))
			},
		},
		dispatch.Rule{
			Name: "interval-list", Keyword: "интервалы", CaseFold: true,
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				list, err := deps.Repo.ListIntervals(ctx, inv.UserID)
				if err != nil {
					return fmt.Errorf("list intervals: %w", err)
				}
				var lines []string
				for _, iv := range list {
					state := "остановлен"
					if deps.Tasks.Active(intervalKey(inv.UserID, iv.Name)) {
						state = "активен"
					}
					lines = append(lines, fmt.Sprintf("%d. %s — каждые %d мин, чат %d (%s)",
						len(lines)+1, iv.Name, iv.PeriodMinutes, iv.ChatID, state))
				}
				if len(lines) == 0 {
					return deps.edit(ctx, inv, "📂 У вас нет интервалов!")
				}
				return deps.edit(ctx, inv, "📂 Ваши интервалы:\n\n"+strings.Join(lines, "\n"))
			},
		},
	)
}

// startInterval launches the resend loop for one stored interval.
func startInterval(deps *Deps, iv domain.Interval) {
	period := time.Duration(iv.PeriodMinutes) * time.Minute
	deps.Tasks.Start(deps.TaskCtx, intervalKey(iv.UserID, iv.Name), period, func(ctx context.Context) error {
		_, err := deps.API.SendMessage(ctx, iv.ChatID, iv.Text)
		return err
	})
}
