package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/Lex6452/lp/internal/dispatch"
	"github.com/Lex6452/lp/internal/domain"
	"github.com/Lex6452/lp/internal/lookup"
)

// lookupErr translates the HTTP status classes into user messages.
func lookupErr(err error, notFound string) error {
	switch {
	case errors.Is(err, lookup.ErrNotFound):
		return dispatch.Errorf("%s", notFound)
	case errors.Is(err, lookup.ErrUnauthorized):
		return dispatch.Errorf("Неверный или не настроенный API-ключ")
	case errors.Is(err, lookup.ErrRateLimited):
		return dispatch.Errorf("Превышен лимит запросов, попробуйте позже")
	default:
		return err
	}
}

func registerLookups(d *dispatch.Dispatcher, deps *Deps) {
	d.Register(
		dispatch.Rule{
			Name: "weather", Keyword: "погода", CaseFold: true,
			MinTokens: 2, Usage: "{prefix}погода <город> [ДД.ММ.ГГГГ]",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				city := inv.Arg(1)
				dateArg := inv.Arg(2)

				if dateArg == "" {
					report, err := deps.Look.CurrentWeather(ctx, city)
					if err != nil {
						return lookupErr(err, "Город не найден")
					}
					return deps.edit(ctx, inv, report)
				}

				day, err := time.Parse("02.01.2006", dateArg)
				if err != nil {
					return dispatch.Errorf("Неверный формат даты. Используйте ДД.ММ.ГГГГ")
				}
				today := deps.Clk.Now().UTC().Truncate(24 * time.Hour)
				if day.Before(today) || day.After(today.Add(lookup.ForecastHorizon)) {
					return dispatch.Errorf("Прогноз доступен только на сегодня и до 16 дней вперёд")
				}

				report, err := deps.Look.Forecast(ctx, city, day)
				if err != nil {
					return lookupErr(err, "Прогноз недоступен для этой даты")
				}
				return deps.edit(ctx, inv, report)
			},
		},
		dispatch.Rule{
			Name: "ip-info", Keyword: "ип", CaseFold: true,
			MinTokens: 2, Usage: "{prefix}ип <IP-адрес>",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				report, err := deps.Look.IPInfo(ctx, inv.Arg(1))
				if err != nil {
					return lookupErr(err, "Данные для этого IP-адреса недоступны")
				}
				return deps.edit(ctx, inv, report)
			},
		},
		dispatch.Rule{
			Name: "whois", Keyword: "whois", CaseFold: true,
			MinTokens: 2, Usage: "{prefix}whois <домен> [<домен> ...]",
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				report, err := deps.Look.Whois(ctx, inv.Args()[1:])
				if err != nil {
					return lookupErr(err, "Данные не найдены для указанных доменов")
				}
				// Telegram rejects messages over 4096 characters.
				if r := []rune(report); len(r) > 4000 {
					report = string(r[:3997]) + "..."
				}
				return deps.edit(ctx, inv, report)
			},
		},
		dispatch.Rule{
			Name: "space", Keyword: "космос", CaseFold: true,
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				date := inv.Arg(1)
				if date != "" {
					day, err := time.Parse("2006-01-02", date)
					if err != nil {
						return dispatch.Errorf("Неверный формат даты. Используйте ГГГГ-ММ-ДД")
					}
					if day.After(deps.Clk.Now()) {
						return dispatch.Errorf("Дата не может быть в будущем")
					}
				}
				report, err := deps.Look.SpacePhoto(ctx, date)
				if err != nil {
					if errors.Is(err, lookup.ErrUnauthorized) {
						return dispatch.Errorf("API-ключ NASA не настроен")
					}
					return lookupErr(err, "Данные за эту дату недоступны")
				}
				return deps.edit(ctx, inv, report)
			},
		},
		dispatch.Rule{
			Name: "cat", Keyword: "котик", CaseFold: true,
			Handle: func(ctx context.Context, inv domain.Invocation, s domain.Settings) error {
				img, err := deps.Look.CatImage(ctx)
				if err != nil {
					return lookupErr(err, "Не удалось загрузить котика...")
				}
				if err := deps.API.DeleteMessage(ctx, inv.ChatID, inv.MessageID); err != nil {
					return err
				}
				return deps.API.SendPhoto(ctx, inv.ChatID, img, "")
			},
		},
	)
}
