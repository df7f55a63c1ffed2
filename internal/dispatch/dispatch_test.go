package dispatch

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/Lex6452/lp/internal/domain"
	"github.com/Lex6452/lp/internal/store"
)

type fakeSettings struct {
	s   domain.Settings
	err error
}

func (f *fakeSettings) GetSettings(_ context.Context, userID int64) (domain.Settings, error) {
	if f.err != nil {
		return domain.Settings{}, f.err
	}
	s := f.s
	s.UserID = userID
	return s, nil
}

type fakeAliases struct{ byName map[string]string }

func (f *fakeAliases) ResolveAlias(_ context.Context, _ int64, name string) (string, error) {
	if cmd, ok := f.byName[name]; ok {
		return cmd, nil
	}
	return "", store.ErrNotFound
}

type fakeResponder struct{ edits []string }

func (f *fakeResponder) EditMessage(_ context.Context, _ int64, _ int, text string) error {
	f.edits = append(f.edits, text)
	return nil
}

func newTestDispatcher(s domain.Settings) (*Dispatcher, *fakeResponder, *fakeAliases) {
	resp := &fakeResponder{}
	aliases := &fakeAliases{byName: map[string]string{}}
	d := New(zap.NewNop(), &fakeSettings{s: s}, aliases, resp)
	return d, resp, aliases
}

func inv(text string) domain.Invocation {
	return domain.Invocation{UserID: 1, ChatID: -100, MessageID: 5, Text: text}
}

func record(name string, hits *[]string) Rule {
	return Rule{
		Name:    name,
		Keyword: name,
		Handle: func(context.Context, domain.Invocation, domain.Settings) error {
			*hits = append(*hits, name)
			return nil
		},
	}
}

func TestDispatch_SharedStemPicksExactToken(t *testing.T) {
	d, _, _ := newTestDispatcher(domain.DefaultSettings(1))
	var hits []string
	d.Register(record("+шаб", &hits), record("-шаб", &hits), record("шабы", &hits), record("шаб", &hits))

	for text, want := range map[string]string{
		".+шаб x yy": "+шаб",
		".-шаб x":    "-шаб",
		".шабы":      "шабы",
		".шаб x":     "шаб",
	} {
		hits = hits[:0]
		if !d.Dispatch(context.Background(), inv(text)) {
			t.Fatalf("%q: no rule matched", text)
		}
		if len(hits) != 1 || hits[0] != want {
			t.Fatalf("%q: want %q, got %v", text, want, hits)
		}
	}
}

func TestDispatch_UsesUserPrefix(t *testing.T) {
	s := domain.DefaultSettings(1)
	s.Prefix = "!"
	d, _, _ := newTestDispatcher(s)
	var hits []string
	d.Register(record("пинг", &hits))

	if d.Dispatch(context.Background(), inv(".пинг")) {
		t.Fatal("default prefix must not match after the user changed it")
	}
	if !d.Dispatch(context.Background(), inv("!пинг")) {
		t.Fatal("custom prefix must match")
	}
}

func TestDispatch_BareRuleSkipsPrefix(t *testing.T) {
	s := domain.DefaultSettings(1)
	s.DeleteCmd = "гг"
	d, _, _ := newTestDispatcher(s)

	var got string
	d.Register(Rule{
		Name:      "delete",
		KeywordFn: func(s domain.Settings) string { return s.DeleteCmd },
		Bare:      true,
		Handle: func(_ context.Context, inv domain.Invocation, _ domain.Settings) error {
			got = inv.Text
			return nil
		},
	})

	if !d.Dispatch(context.Background(), inv("гг 3")) {
		t.Fatal("bare command must match without prefix")
	}
	if got != "гг 3" {
		t.Fatalf("handler saw %q", got)
	}
	if d.Dispatch(context.Background(), inv(".гг 3")) {
		t.Fatal("bare command must not match with prefix")
	}
}

func TestDispatch_TokenCaseSensitivity(t *testing.T) {
	d, _, _ := newTestDispatcher(domain.DefaultSettings(1))
	var hits []string
	d.Register(
		record("преф", &hits),
		Rule{
			Name: "ping", Keyword: "пинг", CaseFold: true,
			Handle: func(context.Context, domain.Invocation, domain.Settings) error {
				hits = append(hits, "пинг")
				return nil
			},
		},
	)

	if d.Dispatch(context.Background(), inv(".ПРЕФ !")) {
		t.Fatal("exact-match rule must not fold case")
	}
	if !d.Dispatch(context.Background(), inv(".ПИНГ")) {
		t.Fatal("CaseFold rule must match any case")
	}
	if len(hits) != 1 || hits[0] != "пинг" {
		t.Fatalf("hits: %v", hits)
	}
}

func TestDispatch_AliasReplay(t *testing.T) {
	d, _, aliases := newTestDispatcher(domain.DefaultSettings(1))
	aliases.byName["привет"] = ".гс запись"

	var replayed domain.Invocation
	d.Register(Rule{
		Name:    "voice",
		Keyword: "гс",
		Handle: func(_ context.Context, inv domain.Invocation, _ domain.Settings) error {
			replayed = inv
			return nil
		},
	})

	orig := inv("привет")
	if !d.Dispatch(context.Background(), orig) {
		t.Fatal("alias must dispatch the stored command")
	}
	if replayed.Text != ".гс запись" {
		t.Fatalf("replay text: %q", replayed.Text)
	}
	// Origin coordinates survive the replay so the handler edits the
	// right message.
	if replayed.ChatID != orig.ChatID || replayed.MessageID != orig.MessageID {
		t.Fatalf("replay lost origin: %+v", replayed)
	}
}

func TestDispatch_AliasDoesNotChain(t *testing.T) {
	d, _, aliases := newTestDispatcher(domain.DefaultSettings(1))
	// A stored command that is itself an alias name must not loop.
	aliases.byName["a"] = ".гс b"
	aliases.byName[".гс b"] = ".гс c"

	var got string
	d.Register(Rule{
		Name:    "voice",
		Keyword: "гс",
		Handle: func(_ context.Context, inv domain.Invocation, _ domain.Settings) error {
			got = inv.Text
			return nil
		},
	})

	d.Dispatch(context.Background(), inv("a"))
	if got != ".гс b" {
		t.Fatalf("want single-step replay, handler saw %q", got)
	}
}

func TestDispatch_InvalidAliasTargetReportsError(t *testing.T) {
	d, resp, aliases := newTestDispatcher(domain.DefaultSettings(1))
	// Stored before the owner switched prefix from "!" to ".".
	aliases.byName["старый"] = "!гс запись"
	aliases.byName["справка"] = ".хелп"

	d.Register(Rule{
		Name:    "voice",
		Keyword: "гс",
		Handle: func(context.Context, domain.Invocation, domain.Settings) error {
			t.Fatal("broken alias must not reach a handler")
			return nil
		},
	})

	if !d.Dispatch(context.Background(), inv("старый")) {
		t.Fatal("broken alias still counts as handled")
	}
	if len(resp.edits) != 1 || !strings.Contains(resp.edits[0], "Неверный формат команды в алиасе") {
		t.Fatalf("want format error in chat, got %v", resp.edits)
	}

	if !d.Dispatch(context.Background(), inv("справка")) {
		t.Fatal("non-playback alias still counts as handled")
	}
	if len(resp.edits) != 2 || !strings.Contains(resp.edits[1], "не поддерживается") {
		t.Fatalf("want whitelist error in chat, got %v", resp.edits)
	}
}

func TestDispatch_StoreFailureFallsBackToDefaults(t *testing.T) {
	resp := &fakeResponder{}
	d := New(zap.NewNop(),
		&fakeSettings{err: errors.New("db down")},
		&fakeAliases{byName: map[string]string{}}, resp)

	var hits []string
	d.Register(record("пинг", &hits))
	if !d.Dispatch(context.Background(), inv(".пинг")) {
		t.Fatal("default prefix must work when settings are unavailable")
	}
}

func TestDispatch_MinTokensRepliesUsage(t *testing.T) {
	d, resp, _ := newTestDispatcher(domain.DefaultSettings(1))
	d.Register(Rule{
		Name:      "voice",
		Keyword:   "гс",
		MinTokens: 2,
		Usage:     "{prefix}гс <название>",
		Handle: func(context.Context, domain.Invocation, domain.Settings) error {
			t.Fatal("handler must not run on short input")
			return nil
		},
	})

	d.Dispatch(context.Background(), inv(".гс"))
	if len(resp.edits) != 1 || !strings.Contains(resp.edits[0], ".гс <название>") {
		t.Fatalf("want usage with substituted prefix, got %v", resp.edits)
	}
}

func TestDispatch_NeedReplyGuards(t *testing.T) {
	d, resp, _ := newTestDispatcher(domain.DefaultSettings(1))
	ran := false
	d.Register(Rule{
		Name:       "save-voice",
		Keyword:    "+гс",
		NeedReply:  true,
		ReplyMedia: domain.MediaVoice,
		Handle: func(context.Context, domain.Invocation, domain.Settings) error {
			ran = true
			return nil
		},
	})

	d.Dispatch(context.Background(), inv(".+гс x"))
	if ran || len(resp.edits) != 1 {
		t.Fatalf("missing reply must be rejected: ran=%v edits=%v", ran, resp.edits)
	}

	withPhoto := inv(".+гс x")
	withPhoto.ReplyTo = &domain.ReplyRef{MessageID: 2, Kind: domain.MediaPhoto}
	d.Dispatch(context.Background(), withPhoto)
	if ran {
		t.Fatal("wrong media kind must be rejected")
	}

	withVoice := inv(".+гс x")
	withVoice.ReplyTo = &domain.ReplyRef{MessageID: 2, Kind: domain.MediaVoice}
	d.Dispatch(context.Background(), withVoice)
	if !ran {
		t.Fatal("matching reply must reach the handler")
	}
}

func TestDispatch_ErrorBoundary(t *testing.T) {
	d, resp, _ := newTestDispatcher(domain.DefaultSettings(1))
	d.Register(
		Rule{Name: "boom", Keyword: "бум", Handle: func(context.Context, domain.Invocation, domain.Settings) error {
			panic("nil map write")
		}},
		Rule{Name: "user-err", Keyword: "нет", Handle: func(context.Context, domain.Invocation, domain.Settings) error {
			return Errorf("Запись %q не найдена", "x")
		}},
	)

	if !d.Dispatch(context.Background(), inv(".бум")) {
		t.Fatal("panicking rule still counts as matched")
	}
	if len(resp.edits) != 1 || !strings.HasPrefix(resp.edits[0], "⚠️") {
		t.Fatalf("panic must surface a warning, got %v", resp.edits)
	}

	d.Dispatch(context.Background(), inv(".нет"))
	if len(resp.edits) != 2 || !strings.Contains(resp.edits[1], "не найдена") {
		t.Fatalf("user error text must reach the chat, got %v", resp.edits)
	}
}
