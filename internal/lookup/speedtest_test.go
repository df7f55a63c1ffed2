package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestMaskURL(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"http://203.0.113.9:8080", "http://203.0.***.***:8080"},
		{"https://198.51.100.1", "https://198.51.***.***"},
		{"http://speed.example.com:9000", "http://speed.example.com:9000"},
		{"not a url at all", "not a url at all"},
	}
	for _, c := range cases {
		if got := MaskURL(c.in); got != c.want {
			t.Fatalf("MaskURL(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSpeedTest_FormatsReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/speedtest" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{
			"download": {"bandwidth": 12500000},
			"upload": {"bandwidth": 2500000},
			"ping": {"latency": 7.25},
			"isp": "Example Telecom",
			"server": {"name": "Example", "location": "Moscow"},
			"interface": {"externalIp": "203.0.113.77"}
		}`))
	}))
	defer srv.Close()

	c := New(zap.NewNop(), "", "")
	c.HTTP = srv.Client()

	out, err := c.SpeedTest(context.Background(), srv.URL, "дом")
	if err != nil {
		t.Fatalf("speedtest: %v", err)
	}
	for _, want := range []string{"дом", "Example (Moscow)", "Example Telecom", "100.00 Мбит/с", "20.00 Мбит/с", "7.25 мс", "203.0.***.***"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "203.0.113.77") {
		t.Fatalf("report leaks the raw IP:\n%s", out)
	}
}

func TestSpeedTest_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(zap.NewNop(), "", "")
	c.HTTP = srv.Client()
	if _, err := c.SpeedTest(context.Background(), srv.URL, "дом"); err == nil {
		t.Fatalf("expected error on 500")
	}
}
