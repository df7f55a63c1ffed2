// Package media converts downloaded files into the formats Telegram
// expects for voice messages and video notes. Conversion shells out to
// ffmpeg.
package media

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"
)

// Transcoder wraps an ffmpeg binary.
type Transcoder struct {
	bin string
	log *zap.Logger
}

func NewTranscoder(bin string, log *zap.Logger) *Transcoder {
	if bin == "" {
		bin = "ffmpeg"
	}
	return &Transcoder{bin: bin, log: log}
}

// ToVoice converts src into an opus-in-ogg file at dest, the only
// encoding Telegram plays as a voice message.
func (t *Transcoder) ToVoice(ctx context.Context, src, dest string) error {
	return t.run(ctx, dest,
		"-i", src,
		"-vn",
		"-c:a", "libopus",
		"-b:a", "64k",
		"-f", "ogg",
		dest,
	)
}

// ToVideoNote converts src into a square mp4 at dest. Telegram rejects
// non-square video notes, so the frame is cropped to its shorter side.
func (t *Transcoder) ToVideoNote(ctx context.Context, src, dest string) error {
	return t.run(ctx, dest,
		"-i", src,
		"-vf", "crop='min(iw,ih)':'min(iw,ih)',scale=384:384",
		"-c:v", "libx264",
		"-preset", "fast",
		"-c:a", "aac",
		"-f", "mp4",
		dest,
	)
}

func (t *Transcoder) run(ctx context.Context, dest string, args ...string) error {
	full := append([]string{"-y", "-hide_banner", "-loglevel", "error"}, args...)
	cmd := exec.CommandContext(ctx, t.bin, full...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	t.log.Debug("ffmpeg", zap.Strings("args", full))
	if err := cmd.Run(); err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("ffmpeg: %w: %s", err, stderrTail(stderr.String()))
	}
	return nil
}

// stderrTail keeps error messages short: ffmpeg's last line names the
// actual failure.
func stderrTail(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
