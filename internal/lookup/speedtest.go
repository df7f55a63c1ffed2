package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// speedTestTimeout overrides the client timeout: a full bandwidth
// measurement routinely runs for tens of seconds.
const speedTestTimeout = 60 * time.Second

var ipv4Re = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)

// MaskIP hides the host part of an IPv4 address: 1.2.3.4 -> 1.2.***.***.
func MaskIP(ip string) string {
	if ip == "" {
		return "N/A"
	}
	parts := strings.Split(ip, ".")
	if len(parts) != 4 {
		return ip
	}
	return parts[0] + "." + parts[1] + ".***.***"
}

// MaskURL masks the address in URLs whose host is a literal IPv4,
// keeping scheme and port. Hostname URLs pass through unchanged.
func MaskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	host := u.Hostname()
	if !ipv4Re.MatchString(host) {
		return raw
	}
	masked := u.Scheme + "://" + MaskIP(host)
	if p := u.Port(); p != "" {
		masked += ":" + p
	}
	return masked
}

type speedResult struct {
	Download struct {
		Bandwidth float64 `json:"bandwidth"`
	} `json:"download"`
	Upload struct {
		Bandwidth float64 `json:"bandwidth"`
	} `json:"upload"`
	Ping struct {
		Latency float64 `json:"latency"`
	} `json:"ping"`
	ISP    string `json:"isp"`
	Server struct {
		Name     string `json:"name"`
		Location string `json:"location"`
	} `json:"server"`
	Interface struct {
		ExternalIP string `json:"externalIp"`
	} `json:"interface"`
}

// SpeedTest asks the agent at serverURL to run a bandwidth measurement
// and returns the formatted report. The agent speaks the Ookla CLI JSON
// shape over POST /speedtest.
func (c *Client) SpeedTest(ctx context.Context, serverURL, serverName string) (string, error) {
	endpoint := strings.TrimRight(serverURL, "/") + "/speedtest"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "Telegram Speedtest Bot")

	hc := *c.HTTP
	hc.Timeout = speedTestTimeout
	resp, err := hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", statusErr(resp.StatusCode)
	}
	var data speedResult
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	download := data.Download.Bandwidth * 8 / 1_000_000
	upload := data.Upload.Bandwidth * 8 / 1_000_000

	var b strings.Builder
	b.WriteString("🚀 Результаты Speedtest\n\n")
	fmt.Fprintf(&b, "🔖 Название сервера: %s\n", serverName)
	fmt.Fprintf(&b, "🌐 Сервер теста: %s (%s)\n", data.Server.Name, data.Server.Location)
	fmt.Fprintf(&b, "🏠 Провайдер: %s\n", data.ISP)
	fmt.Fprintf(&b, "🖥 Внешний IP: %s\n\n", MaskIP(data.Interface.ExternalIP))
	fmt.Fprintf(&b, "⬇️ Скачивание: %.2f Мбит/с\n", download)
	fmt.Fprintf(&b, "⬆️ Загрузка: %.2f Мбит/с\n", upload)
	fmt.Fprintf(&b, "⏱ Пинг: %.2f мс", data.Ping.Latency)
	return b.String(), nil
}
