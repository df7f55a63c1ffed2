package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/Lex6452/lp/internal/dispatch"
	"github.com/Lex6452/lp/internal/domain"
	"github.com/Lex6452/lp/internal/lookup"
	"github.com/Lex6452/lp/internal/store"
)

func formatUptime(sec uint64) string {
	d := time.Duration(sec) * time.Second
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	mins := int(d.Minutes()) % 60
	if days > 0 {
		return fmt.Sprintf("%dд %dч %dм", days, hours, mins)
	}
	if hours > 0 {
		return fmt.Sprintf("%dч %dм", hours, mins)
	}
	return fmt.Sprintf("%dм", mins)
}

func findSpeedServer(servers []store.SpeedServer, id int64) (store.SpeedServer, bool) {
	for _, sv := range servers {
		if sv.ID == id {
			return sv, true
		}
	}
	return store.SpeedServer{}, false
}

func registerServer(d *dispatch.Dispatcher, deps *Deps) {
	d.Register(
		dispatch.Rule{
			Name: "host-stats", Keyword: "серв",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				percents, err := cpu.PercentWithContext(ctx, 0, false)
				if err != nil || len(percents) == 0 {
					return fmt.Errorf("cpu usage: %w", err)
				}
				vm, err := mem.VirtualMemoryWithContext(ctx)
				if err != nil {
					return fmt.Errorf("memory usage: %w", err)
				}
				info, err := host.InfoWithContext(ctx)
				if err != nil {
					return fmt.Errorf("host info: %w", err)
				}

				var b strings.Builder
				b.WriteString("🖥 Состояние сервера\n\n")
				fmt.Fprintf(&b, "🧠 CPU: %.1f%%\n", percents[0])
				fmt.Fprintf(&b, "💾 RAM: %.1f%% (%.1f/%.1f ГБ)\n",
					vm.UsedPercent,
					float64(vm.Used)/(1<<30),
					float64(vm.Total)/(1<<30))
				fmt.Fprintf(&b, "⏳ Аптайм: %s\n", formatUptime(info.Uptime))
				fmt.Fprintf(&b, "🐧 ОС: %s %s", info.Platform, info.PlatformVersion)
				return deps.edit(ctx, inv, b.String())
			},
		},
		dispatch.Rule{
			Name: "speed-add", Keyword: "+speed",
			MinTokens: 3, Usage: "{prefix}+speed <имя> <url>",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				name := inv.Arg(1)
				rawURL := inv.Arg(2)
				u, err := url.Parse(rawURL)
				if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
					return dispatch.Errorf("Неверный URL сервера")
				}
				if err := deps.Repo.AddSpeedServer(ctx, name, rawURL); err != nil {
					if errors.Is(err, store.ErrDuplicate) {
						return dispatch.Errorf("Сервер '%s' уже существует", name)
					}
					return err
				}
				return deps.edit(ctx, inv, fmt.Sprintf("✅ Сервер '%s' добавлен!", name))
			},
		},
		dispatch.Rule{
			Name: "speed-remove", Keyword: "-speed",
			MinTokens: 2, Usage: "{prefix}-speed <id>",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				id, err := strconv.ParseInt(inv.Arg(1), 10, 64)
				if err != nil {
					return dispatch.Errorf("ID сервера должен быть числом")
				}
				servers, err := deps.Repo.ListSpeedServers(ctx)
				if err != nil {
					return err
				}
				sv, ok := findSpeedServer(servers, id)
				if !ok {
					return dispatch.Errorf("Сервер с ID %d не найден", id)
				}
				if _, err := deps.Repo.RemoveSpeedServer(ctx, sv.Name); err != nil {
					return err
				}
				return deps.edit(ctx, inv, fmt.Sprintf("🗑️ Сервер '%s' удалён!", sv.Name))
			},
		},
		dispatch.Rule{
			Name: "speed", Keyword: "speed",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				servers, err := deps.Repo.ListSpeedServers(ctx)
				if err != nil {
					return err
				}
				arg := inv.Arg(1)
				if arg == "" {
					if len(servers) == 0 {
						return deps.edit(ctx, inv, "📂 Нет сохранённых серверов!")
					}
					var b strings.Builder
					b.WriteString("📂 Список серверов:\n\n")
					for _, sv := range servers {
						fmt.Fprintf(&b, "%d. %s (%s)\n", sv.ID, sv.Name, lookup.MaskURL(sv.URL))
					}
					fmt.Fprintf(&b, "\nВсего: %d", len(servers))
					return deps.edit(ctx, inv, b.String())
				}

				id, err := strconv.ParseInt(arg, 10, 64)
				if err != nil {
					return dispatch.Errorf("ID сервера должен быть числом")
				}
				sv, ok := findSpeedServer(servers, id)
				if !ok {
					return dispatch.Errorf("Сервер с ID %d не найден", id)
				}
				if err := deps.edit(ctx, inv, fmt.Sprintf("⏳ Запуск теста скорости на сервере %s...", sv.Name)); err != nil {
					return err
				}
				report, err := deps.Look.SpeedTest(ctx, sv.URL, sv.Name)
				if err != nil {
					deps.Log.Warn("speedtest failed", zap.String("server", sv.Name), zap.Error(err))
					return dispatch.Errorf("Ошибка при выполнении теста скорости на сервере %s", sv.Name)
				}
				return deps.edit(ctx, inv, report)
			},
		},
	)
}
