package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Lex6452/lp/internal/domain"
)

func newTestRepo(t *testing.T) *SQLiteRepo {
	t.Helper()
	r, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestSettings_MissingThenRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	if _, err := r.GetSettings(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for fresh user, got %v", err)
	}

	if err := r.SetPrefix(ctx, 42, "!"); err != nil {
		t.Fatalf("set prefix: %v", err)
	}
	s, err := r.GetSettings(ctx, 42)
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if s.Prefix != "!" {
		t.Fatalf("want prefix %q, got %q", "!", s.Prefix)
	}
	// Columns not touched by the upsert keep their defaults.
	if s.DeleteCmd != domain.DefaultDeleteCmd || s.EditText != domain.DefaultEditText {
		t.Fatalf("defaults clobbered: %+v", s)
	}

	if err := r.SetDeleteCmd(ctx, 42, "гг"); err != nil {
		t.Fatalf("set delete cmd: %v", err)
	}
	s, _ = r.GetSettings(ctx, 42)
	if s.Prefix != "!" || s.DeleteCmd != "гг" {
		t.Fatalf("second upsert lost earlier value: %+v", s)
	}
}

func TestSettings_PerUserIsolation(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	if err := r.SetPrefix(ctx, 1, "#"); err != nil {
		t.Fatalf("set prefix: %v", err)
	}
	if _, err := r.GetSettings(ctx, 2); !errors.Is(err, ErrNotFound) {
		t.Fatalf("user 2 must be unaffected, got %v", err)
	}
}

func TestAlias_RoundTripAndCollision(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	a := domain.Alias{UserID: 7, Name: "привет", Command: ".гс запись"}
	if err := r.SaveAlias(ctx, a); err != nil {
		t.Fatalf("save alias: %v", err)
	}
	if err := r.SaveAlias(ctx, a); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("want ErrDuplicate on second save, got %v", err)
	}

	cmd, err := r.ResolveAlias(ctx, 7, "привет")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cmd != ".гс запись" {
		t.Fatalf("want command %q, got %q", ".гс запись", cmd)
	}
	if _, err := r.ResolveAlias(ctx, 7, "нет"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}

	ok, err := r.DeleteAlias(ctx, 7, "привет")
	if err != nil || !ok {
		t.Fatalf("delete alias: ok=%v err=%v", ok, err)
	}
	ok, _ = r.DeleteAlias(ctx, 7, "привет")
	if ok {
		t.Fatal("second delete must report missing")
	}
}

func TestAlias_ListSorted(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	for _, name := range []string{"в", "а", "б"} {
		if err := r.SaveAlias(ctx, domain.Alias{UserID: 1, Name: name, Command: ".пинг"}); err != nil {
			t.Fatalf("save %q: %v", name, err)
		}
	}
	list, err := r.ListAliases(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	var got []string
	for _, a := range list {
		got = append(got, a.Name)
	}
	if !reflect.DeepEqual(got, []string{"а", "б", "в"}) {
		t.Fatalf("want sorted names, got %v", got)
	}
}

func TestTemplate_CRUD(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	tpl := domain.Template{UserID: 3, Name: "бриф", Text: "Добрый день!\nПо делу:"}
	if err := r.SaveTemplate(ctx, tpl); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := r.SaveTemplate(ctx, tpl); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}

	text, err := r.GetTemplate(ctx, 3, "бриф")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if text != tpl.Text {
		t.Fatalf("multiline text mangled: %q", text)
	}

	exists, err := r.TemplateExists(ctx, 3, "бриф")
	if err != nil || !exists {
		t.Fatalf("exists: %v %v", exists, err)
	}

	ok, err := r.DeleteTemplate(ctx, 3, "бриф")
	if err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	if _, err := r.GetTemplate(ctx, 3, "бриф"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound after delete, got %v", err)
	}
}

func TestVoice_DeleteReturnsPath(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	f := domain.StoredFile{UserID: 9, Name: "myrec", Path: "/data/9/voice/myrec.ogg"}
	if err := r.SaveVoice(ctx, f); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := r.SaveVoice(ctx, f); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}

	path, err := r.VoicePath(ctx, 9, "myrec")
	if err != nil || path != f.Path {
		t.Fatalf("path: %q %v", path, err)
	}

	removed, err := r.DeleteVoice(ctx, 9, "myrec")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if removed != f.Path {
		t.Fatalf("want removed path %q, got %q", f.Path, removed)
	}
	if _, err := r.DeleteVoice(ctx, 9, "myrec"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound on second delete, got %v", err)
	}
}

func TestVideoNote_SeparateNamespace(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	if err := r.SaveVoice(ctx, domain.StoredFile{UserID: 1, Name: "x", Path: "/v/x.ogg"}); err != nil {
		t.Fatalf("save voice: %v", err)
	}
	// Same name in the video-note namespace is not a duplicate.
	if err := r.SaveVideoNote(ctx, domain.StoredFile{UserID: 1, Name: "x", Path: "/n/x.mp4"}); err != nil {
		t.Fatalf("save video note: %v", err)
	}
	path, err := r.VideoNotePath(ctx, 1, "x")
	if err != nil || path != "/n/x.mp4" {
		t.Fatalf("video note path: %q %v", path, err)
	}
}

func TestAnimation_FramesRoundTrip(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	frames := []string{"кадр 1", "кадр 2", "кадр #3"}
	a := domain.Animation{UserID: 5, Name: "волна", Frames: frames}
	if err := r.SaveAnimation(ctx, a); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := r.GetAnimation(ctx, 5, "волна")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !reflect.DeepEqual(got, frames) {
		t.Fatalf("frames round trip: want %v, got %v", frames, got)
	}
}

func TestInterval_CountForCap(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < domain.MaxIntervals; i++ {
		iv := domain.Interval{
			UserID: 6, Name: string(rune('a' + i)),
			ChatID: -100, PeriodMinutes: 10, Text: "tick",
		}
		if err := r.SaveInterval(ctx, iv); err != nil {
			t.Fatalf("save #%d: %v", i, err)
		}
	}
	n, err := r.CountIntervals(ctx, 6)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != domain.MaxIntervals {
		t.Fatalf("want %d intervals, got %d", domain.MaxIntervals, n)
	}

	list, err := r.ListIntervals(ctx, 6)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != domain.MaxIntervals || list[0].PeriodMinutes != 10 {
		t.Fatalf("list mismatch: %+v", list)
	}
}

func TestActivity_AddRemoveList(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	a := domain.Activity{UserID: 2, ChatID: -500, Kind: domain.ActivityVoice}
	if err := r.AddActivity(ctx, a); err != nil {
		t.Fatalf("add: %v", err)
	}
	// Re-adding the same intent is a no-op, not an error.
	if err := r.AddActivity(ctx, a); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if err := r.AddActivity(ctx, domain.Activity{UserID: 2, ChatID: -600, Kind: domain.ActivityTyping}); err != nil {
		t.Fatalf("add typing: %v", err)
	}

	chats, err := r.ListActivities(ctx, 2, domain.ActivityVoice)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(chats, []int64{-500}) {
		t.Fatalf("want [-500], got %v", chats)
	}

	ok, err := r.RemoveActivity(ctx, a)
	if err != nil || !ok {
		t.Fatalf("remove: ok=%v err=%v", ok, err)
	}
	ok, _ = r.RemoveActivity(ctx, a)
	if ok {
		t.Fatal("second remove must report missing")
	}
}

func TestSpeedServers_Registry(t *testing.T) {
	r := newTestRepo(t)
	ctx := context.Background()

	if err := r.AddSpeedServer(ctx, "домашний", "http://10.0.0.1:8080"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.AddSpeedServer(ctx, "домашний", "http://other"); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}
	if err := r.AddSpeedServer(ctx, "офис", "http://10.0.0.2:8080"); err != nil {
		t.Fatalf("add second: %v", err)
	}

	list, err := r.ListSpeedServers(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].Name != "домашний" || list[1].Name != "офис" {
		t.Fatalf("insertion order lost: %+v", list)
	}

	ok, err := r.RemoveSpeedServer(ctx, "домашний")
	if err != nil || !ok {
		t.Fatalf("remove: ok=%v err=%v", ok, err)
	}
}
