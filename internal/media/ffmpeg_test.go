package media

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestStderrTail(t *testing.T) {
	in := "frame=1\nframe=2\nsrc.bin: Invalid data found when processing input"
	if got := stderrTail(in); got != "src.bin: Invalid data found when processing input" {
		t.Fatalf("got %q", got)
	}
	if got := stderrTail(""); got != "" {
		t.Fatalf("empty stderr: %q", got)
	}
}

func TestRun_MissingBinary(t *testing.T) {
	tr := NewTranscoder(filepath.Join(t.TempDir(), "no-such-ffmpeg"), zap.NewNop())
	dest := filepath.Join(t.TempDir(), "out.ogg")
	if err := tr.ToVoice(context.Background(), "in.mp3", dest); err == nil {
		t.Fatal("want error for missing binary")
	}
}
