package lookup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

func testClient(srv *httptest.Server) *Client {
	c := New(zap.NewNop(), "test-key", "whois-key")
	c.HTTP = srv.Client()
	c.WeatherURL = srv.URL + "/weather"
	c.GeocodingURL = srv.URL + "/geo"
	c.OpenMeteoURL = srv.URL + "/meteo"
	c.IPInfoURL = srv.URL
	c.WhoisURL = srv.URL
	c.CatURL = srv.URL + "/cats"
	return c
}

func TestCurrentWeather_Formats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "Москва" {
			t.Errorf("city param: %q", got)
		}
		if got := r.URL.Query().Get("appid"); got != "test-key" {
			t.Errorf("appid param: %q", got)
		}
		w.Write([]byte(`{
			"weather":[{"description":"пасмурно"}],
			"main":{"temp":-3.55,"feels_like":-8.1,"humidity":87},
			"wind":{"speed":4.2}
		}`))
	}))
	defer srv.Close()

	out, err := testClient(srv).CurrentWeather(context.Background(), "Москва")
	if err != nil {
		t.Fatalf("weather: %v", err)
	}
	for _, want := range []string{"Погода в Москва", "-3.5°C", "Ощущается: -8.1°C", "Пасмурно", "87%", "4.2 м/с"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestCurrentWeather_StatusErrors(t *testing.T) {
	status := http.StatusUnauthorized
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
	}))
	defer srv.Close()
	c := testClient(srv)

	if _, err := c.CurrentWeather(context.Background(), "x"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("401: %v", err)
	}
	status = http.StatusNotFound
	if _, err := c.CurrentWeather(context.Background(), "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("404: %v", err)
	}
	status = http.StatusTooManyRequests
	if _, err := c.CurrentWeather(context.Background(), "x"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("429: %v", err)
	}
}

func TestCurrentWeather_NoKey(t *testing.T) {
	c := New(zap.NewNop(), "", "")
	if _, err := c.CurrentWeather(context.Background(), "x"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("missing key must fail fast, got %v", err)
	}
}

func TestForecast_GroupsByTimeOfDay(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/geo"):
			w.Write([]byte(`[{"lat":55.75,"lon":37.62}]`))
		case strings.HasPrefix(r.URL.Path, "/meteo"):
			w.Write([]byte(`{"hourly":{
				"time":["2026-09-02T03:00","2026-09-02T09:00","2026-09-02T15:00","2026-09-02T21:00","2026-09-03T03:00"],
				"temperature_2m":[8.1,12.4,17.9,11.0,7.7],
				"weather_code":[3,63,0,95,3],
				"wind_speed_10m":[2.0,3.5,1.1,6.8,2.2]
			}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	day := time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	out, err := testClient(srv).Forecast(context.Background(), "Москва", day)
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	for _, want := range []string{
		"на 02.09.2026",
		"Мин: 8.1°C, Макс: 17.9°C",
		"Ночь", "Утро", "День", "Вечер",
		"Дождь", "Ясно", "Гроза",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	// The next day's hours stay out.
	if strings.Contains(out, "7.7") {
		t.Fatalf("forecast leaked other days:\n%s", out)
	}
}

func TestForecast_EmptyDayIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/geo") {
			w.Write([]byte(`[{"lat":1,"lon":2}]`))
			return
		}
		w.Write([]byte(`{"hourly":{"time":[],"temperature_2m":[],"weather_code":[],"wind_speed_10m":[]}}`))
	}))
	defer srv.Close()

	_, err := testClient(srv).Forecast(context.Background(), "x", time.Now())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestIPInfo_ValidatesAddress(t *testing.T) {
	c := New(zap.NewNop(), "", "")
	if _, err := c.IPInfo(context.Background(), "not-an-ip"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for junk input, got %v", err)
	}
}

func TestIPInfo_Formats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/8.8.8.8/geo" {
			t.Errorf("path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"ip":"8.8.8.8","city":"Mountain View","country":"US","org":"AS15169 Google LLC"}`))
	}))
	defer srv.Close()

	out, err := testClient(srv).IPInfo(context.Background(), "8.8.8.8")
	if err != nil {
		t.Fatalf("ipinfo: %v", err)
	}
	for _, want := range []string{"8.8.8.8", "Mountain View", "Google", "Часовой пояс: Неизвестно"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
}

func TestWhois_ParsesBothRegistryDialects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "whois-key" {
			t.Errorf("api key header: %q", got)
		}
		switch r.URL.Path {
		case "/whois/example.com":
			w.Write([]byte(`{"source":"iana","whois":"Domain Name: EXAMPLE.COM\nRegistrar: ICANN\nCreation Date: 1995-08-14T04:00:00Z\nRegistry Expiry Date: 2026-08-13T04:00:00Z\nDomain Status: clientDeleteProhibited\nName Server: A.IANA-SERVERS.NET.\n"}`))
		case "/whois/пример.su", "/whois/example.su":
			w.Write([]byte(`{"source":"tci","whois":"domain: EXAMPLE.SU\nregistrar: RUCENTER-SU\ncreated: 2005-10-25T20:00:00Z\npaid-till: 2026-10-25T21:00:00Z\nstate: REGISTERED, DELEGATED\nnserver: ns1.example.su.\ne-mail: admin@example.su (transfer)\n"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	out, err := testClient(srv).Whois(context.Background(), []string{"example.com", "example.su"})
	if err != nil {
		t.Fatalf("whois: %v", err)
	}
	for _, want := range []string{
		"WHOIS: example.com", "ICANN", "1995-08-14", "a.iana-servers.net",
		"WHOIS: example.su", "RUCENTER-SU", "2026-10-25", "admin@example.su",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "(transfer)") {
		t.Fatal("email suffix must be stripped")
	}
}

func TestWhois_RejectsBadDomain(t *testing.T) {
	c := New(zap.NewNop(), "", "")
	if _, err := c.Whois(context.Background(), []string{"bad_domain"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCatImage_FollowsURL(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cats":
			w.Write([]byte(`[{"url":"` + srv.URL + `/img/1.jpg"}]`))
		case "/img/1.jpg":
			w.Write([]byte("jpeg-bytes"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	data, err := testClient(srv).CatImage(context.Background())
	if err != nil {
		t.Fatalf("cat: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Fatalf("image bytes: %q", data)
	}
}
