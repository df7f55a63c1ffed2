// Package lookup talks to the public HTTP APIs behind the info
// commands: weather, IP geolocation, WHOIS and cat pictures.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrNotFound     = errors.New("lookup: not found")
	ErrUnauthorized = errors.New("lookup: bad or missing API key")
	ErrRateLimited  = errors.New("lookup: request limit exceeded")
)

// domainRe accepts ordinary registrable domains (xn-- included).
var domainRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]{1,61}[a-zA-Z0-9](?:\.[a-zA-Z]{2,})+$`)

// Client holds API endpoints and keys. Zero-value base URLs mean the
// production services; tests point them at httptest servers.
type Client struct {
	HTTP *http.Client
	Log  *zap.Logger

	WeatherKey string
	WhoisKey   string
	NasaKey    string

	WeatherURL   string
	GeocodingURL string
	OpenMeteoURL string
	IPInfoURL    string
	WhoisURL     string
	CatURL       string
	NasaURL      string
}

func New(log *zap.Logger, weatherKey, whoisKey string) *Client {
	return &Client{
		HTTP:         &http.Client{Timeout: 15 * time.Second},
		Log:          log,
		WeatherKey:   weatherKey,
		WhoisKey:     whoisKey,
		WeatherURL:   "https://api.openweathermap.org/data/2.5/weather",
		GeocodingURL: "https://api.openweathermap.org/geo/1.0/direct",
		OpenMeteoURL: "https://api.open-meteo.com/v1/forecast",
		IPInfoURL:    "https://ipinfo.io",
		WhoisURL:     "https://api.whois.vu",
		CatURL:       "https://api.thecatapi.com/v1/images/search",
		NasaURL:      "https://api.nasa.gov/planetary/apod",
	}
}

func (c *Client) get(ctx context.Context, rawURL string, header http.Header, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, statusErr(resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func statusErr(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return fmt.Errorf("lookup: status %d", code)
	}
}

// --- Weather ---

// weatherCode maps Open-Meteo weather codes to Russian descriptions.
var weatherCode = map[int]struct {
	Desc string
	Icon string
}{
	0:  {"Ясно", "☀️"},
	1:  {"В основном ясно", "⛅"},
	2:  {"Переменная облачность", "⛅"},
	3:  {"Пасмурно", "☁️"},
	45: {"Туман", "🌫️"},
	48: {"Изморозь", "🌫️"},
	51: {"Лёгкая морось", "🌧️"},
	53: {"Морось", "🌧️"},
	55: {"Сильная морось", "🌧️"},
	61: {"Лёгкий дождь", "🌧️"},
	63: {"Дождь", "🌧️"},
	65: {"Сильный дождь", "🌧️"},
	71: {"Лёгкий снег", "❄️"},
	73: {"Снег", "❄️"},
	75: {"Сильный снег", "❄️"},
	80: {"Лёгкий ливень", "🌧️"},
	81: {"Ливень", "🌧️"},
	82: {"Сильный ливень", "🌧️"},
	95: {"Гроза", "⛈️"},
	96: {"Гроза с градом", "⛈️"},
	99: {"Сильная гроза с градом", "⛈️"},
}

// CurrentWeather returns a formatted report for city.
func (c *Client) CurrentWeather(ctx context.Context, city string) (string, error) {
	if c.WeatherKey == "" {
		return "", ErrUnauthorized
	}
	q := url.Values{
		"q":     {city},
		"appid": {c.WeatherKey},
		"units": {"metric"},
		"lang":  {"ru"},
	}
	var data struct {
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
	}
	if _, err := c.get(ctx, c.WeatherURL+"?"+q.Encode(), nil, &data); err != nil {
		return "", err
	}

	desc := "неизвестно"
	if len(data.Weather) > 0 {
		desc = data.Weather[0].Description
	}
	return fmt.Sprintf(
		"🌤️ Погода в %s:\nТемпература: %.1f°C\nОщущается: %.1f°C\nОписание: %s\nВлажность: %d%%\nВетер: %.1f м/с",
		city, data.Main.Temp, data.Main.FeelsLike, capitalize(desc), data.Main.Humidity, data.Wind.Speed,
	), nil
}

// ForecastHorizon is how far ahead Open-Meteo serves hourly data.
const ForecastHorizon = 16 * 24 * time.Hour

// Forecast returns an hourly report for city on the given day, grouped
// by time of day.
func (c *Client) Forecast(ctx context.Context, city string, day time.Time) (string, error) {
	if c.WeatherKey == "" {
		return "", ErrUnauthorized
	}

	lat, lon, err := c.geocode(ctx, city)
	if err != nil {
		return "", err
	}

	q := url.Values{
		"latitude":  {fmt.Sprintf("%.4f", lat)},
		"longitude": {fmt.Sprintf("%.4f", lon)},
		"hourly":    {"temperature_2m,weather_code,wind_speed_10m"},
		"timezone":  {"auto"},
	}
	var data struct {
		Hourly struct {
			Time        []string  `json:"time"`
			Temperature []float64 `json:"temperature_2m"`
			Code        []int     `json:"weather_code"`
			Wind        []float64 `json:"wind_speed_10m"`
		} `json:"hourly"`
	}
	if _, err := c.get(ctx, c.OpenMeteoURL+"?"+q.Encode(), nil, &data); err != nil {
		return "", err
	}

	dayStr := day.Format("2006-01-02")
	type hour struct {
		hh   int
		temp float64
		code int
		wind float64
	}
	var hours []hour
	for i, ts := range data.Hourly.Time {
		if !strings.HasPrefix(ts, dayStr) {
			continue
		}
		t, err := time.Parse("2006-01-02T15:04", ts)
		if err != nil {
			continue
		}
		hours = append(hours, hour{
			hh:   t.Hour(),
			temp: data.Hourly.Temperature[i],
			code: data.Hourly.Code[i],
			wind: data.Hourly.Wind[i],
		})
	}
	if len(hours) == 0 {
		return "", ErrNotFound
	}

	minT, maxT := hours[0].temp, hours[0].temp
	for _, h := range hours {
		if h.temp < minT {
			minT = h.temp
		}
		if h.temp > maxT {
			maxT = h.temp
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🌤️ Погода в %s на %s\n", city, day.Format("02.01.2006"))
	fmt.Fprintf(&b, "Мин: %.1f°C, Макс: %.1f°C\n", minT, maxT)

	periods := []struct {
		name     string
		icon     string
		from, to int
	}{
		{"Ночь", "🌙", 0, 6},
		{"Утро", "🌅", 6, 12},
		{"День", "☀️", 12, 18},
		{"Вечер", "🌄", 18, 24},
	}
	for _, p := range periods {
		var lines []string
		for _, h := range hours {
			if h.hh < p.from || h.hh >= p.to {
				continue
			}
			wc, ok := weatherCode[h.code]
			if !ok {
				wc.Desc, wc.Icon = "Неизвестно", "❓"
			}
			lines = append(lines, fmt.Sprintf("%02d:00: %.1f°C %s %s, ветер %.1f м/с",
				h.hh, h.temp, wc.Icon, wc.Desc, h.wind))
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s %s:\n%s\n", p.icon, p.name, strings.Join(lines, "\n"))
	}
	return strings.TrimSpace(b.String()), nil
}

func (c *Client) geocode(ctx context.Context, city string) (lat, lon float64, err error) {
	q := url.Values{
		"q":     {city},
		"limit": {"1"},
		"appid": {c.WeatherKey},
	}
	var geo []struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	}
	if _, err := c.get(ctx, c.GeocodingURL+"?"+q.Encode(), nil, &geo); err != nil {
		return 0, 0, err
	}
	if len(geo) == 0 {
		return 0, 0, ErrNotFound
	}
	return geo[0].Lat, geo[0].Lon, nil
}

// --- IP geolocation ---

// IPInfo returns a formatted geolocation report for addr.
func (c *Client) IPInfo(ctx context.Context, addr string) (string, error) {
	if _, err := netip.ParseAddr(addr); err != nil {
		return "", fmt.Errorf("%w: bad address", ErrNotFound)
	}

	var data struct {
		IP       string `json:"ip"`
		City     string `json:"city"`
		Region   string `json:"region"`
		Country  string `json:"country"`
		Loc      string `json:"loc"`
		Org      string `json:"org"`
		Postal   string `json:"postal"`
		Timezone string `json:"timezone"`
		Hostname string `json:"hostname"`
	}
	if _, err := c.get(ctx, c.IPInfoURL+"/"+addr+"/geo", nil, &data); err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"🌐 Информация об IP: %s\n🏙️ Город: %s\n🗺️ Регион: %s\n🌍 Страна: %s\n📍 Координаты: %s\n🏢 Провайдер: %s\n📪 Почтовый индекс: %s\n⏰ Часовой пояс: %s\n💻 Хостнейм: %s",
		orUnknown(data.IP), orUnknown(data.City), orUnknown(data.Region), orUnknown(data.Country),
		orUnknown(data.Loc), orUnknown(data.Org), orUnknown(data.Postal), orUnknown(data.Timezone),
		orUnknown(data.Hostname),
	), nil
}

// --- WHOIS ---

// ValidDomain reports whether s looks like a registrable domain.
func ValidDomain(s string) bool { return domainRe.MatchString(s) }

// Whois fetches and summarizes registration data for each domain.
func (c *Client) Whois(ctx context.Context, domains []string) (string, error) {
	var b strings.Builder
	for _, domain := range domains {
		domain = strings.ToLower(domain)
		if !ValidDomain(domain) {
			return "", fmt.Errorf("%w: bad domain %q", ErrNotFound, domain)
		}

		var data struct {
			Whois     string `json:"whois"`
			IPAddress string `json:"ip_address"`
			Source    string `json:"source"`
		}
		h := http.Header{}
		if c.WhoisKey != "" {
			h.Set("x-api-key", c.WhoisKey)
		}
		if _, err := c.get(ctx, c.WhoisURL+"/whois/"+domain, h, &data); err != nil {
			fmt.Fprintf(&b, "🌍 WHOIS: %s\n❌ %v\n\n", domain, err)
			continue
		}
		b.WriteString(formatWhois(domain, data.Whois, data.IPAddress, data.Source))
	}
	out := strings.TrimSpace(b.String())
	if out == "" {
		return "", ErrNotFound
	}
	return out, nil
}

// formatWhois pulls the interesting fields out of raw registry output.
// Both the ICANN spelling and the TCI one (.ru/.su zones) are
// recognized.
func formatWhois(domain, raw, ip, source string) string {
	fields := map[string]string{
		"registrar": "Неизвестно",
		"created":   "Неизвестно",
		"expires":   "Неизвестно",
		"updated":   "Неизвестно",
		"owner":     "Неизвестно",
		"email":     "Неизвестно",
	}
	var nservers, statuses []string

	appendUniq := func(list []string, v string) []string {
		for _, have := range list {
			if have == v {
				return list
			}
		}
		return append(list, v)
	}
	dateOnly := func(v string) string { return strings.SplitN(v, "T", 2)[0] }

	for _, line := range strings.Split(raw, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case "Domain Name", "domain":
			domain = strings.ToLower(value)
		case "Registrar", "registrar":
			fields["registrar"] = value
		case "Creation Date", "created":
			fields["created"] = dateOnly(value)
		case "Registry Expiry Date", "Expiration Date", "paid-till":
			fields["expires"] = dateOnly(value)
		case "Updated Date":
			fields["updated"] = dateOnly(value)
		case "Domain Status", "state":
			statuses = appendUniq(statuses, value)
		case "Name Server", "nserver":
			ns := strings.ToLower(strings.TrimSuffix(value, "."))
			nservers = appendUniq(nservers, ns)
		case "Registrant Name", "Registrant Organization", "person":
			fields["owner"] = value
		case "Registrant Email", "e-mail":
			email, _, _ := strings.Cut(value, "(")
			fields["email"] = strings.TrimSpace(email)
		}
	}

	status, dns := "Неизвестно", "Неизвестно"
	if len(statuses) > 0 {
		if len(statuses) > 3 {
			statuses = statuses[:3]
		}
		status = strings.Join(statuses, ", ")
	}
	if len(nservers) > 0 {
		if len(nservers) > 3 {
			nservers = nservers[:3]
		}
		dns = strings.Join(nservers, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🌍 WHOIS: %s\n", domain)
	fmt.Fprintf(&b, "📝 Регистратор: %s\n", fields["registrar"])
	fmt.Fprintf(&b, "📅 Создан: %s\n", fields["created"])
	fmt.Fprintf(&b, "📅 Истекает: %s\n", fields["expires"])
	fmt.Fprintf(&b, "📅 Обновлён: %s\n", fields["updated"])
	fmt.Fprintf(&b, "🔒 Статус: %s\n", status)
	fmt.Fprintf(&b, "🔗 DNS: %s\n", dns)
	fmt.Fprintf(&b, "👤 Владелец: %s\n", fields["owner"])
	fmt.Fprintf(&b, "📧 Email: %s\n", fields["email"])
	if ip != "" {
		fmt.Fprintf(&b, "🌐 IP-адрес: %s\n", ip)
	}
	if source != "" {
		fmt.Fprintf(&b, "📡 Источник: %s\n", source)
	}
	b.WriteString("\n")
	return b.String()
}

// --- Cat pictures ---

// CatImage fetches a random cat photo.
func (c *Client) CatImage(ctx context.Context) ([]byte, error) {
	var items []struct {
		URL string `json:"url"`
	}
	if _, err := c.get(ctx, c.CatURL, nil, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 || items[0].URL == "" {
		return nil, ErrNotFound
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, items[0].URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, statusErr(resp.StatusCode)
	}
	// Telegram caps photo uploads at 10 MB.
	return io.ReadAll(io.LimitReader(resp.Body, 10<<20))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

func orUnknown(s string) string {
	if s == "" {
		return "Неизвестно"
	}
	return s
}
