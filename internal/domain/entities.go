package domain

import "strings"

// Resource caps. Rejections on these are deliberate, not failures.
const (
	MaxIntervals       = 5
	MaxSpamCount       = 50
	MaxSpamTextLen     = 2000
	MaxVoiceBytes      = 50 << 20
	MinAnimationFrames = 2
)

// frameSep separates animation frames inside the stored text column.
const frameSep = "#$"

// Template is a named text snippet replayed verbatim.
type Template struct {
	UserID int64
	Name   string
	Text   string
}

// StoredFile is a named media file kept on disk (voice clips, video notes).
type StoredFile struct {
	UserID int64
	Name   string
	Path   string
}

// Animation is a named sequence of message-edit frames.
type Animation struct {
	UserID int64
	Name   string
	Frames []string
}

// JoinFrames encodes frames for storage.
func JoinFrames(frames []string) string {
	return strings.Join(frames, " "+frameSep+" ")
}

// SplitFrames decodes a stored frame column, dropping empty frames.
func SplitFrames(s string) []string {
	var frames []string
	for _, f := range strings.Split(s, frameSep) {
		if f = strings.TrimSpace(f); f != "" {
			frames = append(frames, f)
		}
	}
	return frames
}

// Interval is a persisted scheduled-broadcast definition. The row records
// intent only; the live resend loop exists solely in the task registry.
type Interval struct {
	UserID        int64
	Name          string
	ChatID        int64
	PeriodMinutes int
	Text          string
}

// Activity kinds for fake-presence simulation.
const (
	ActivityVoice  = "voice"
	ActivityTyping = "typing"
)

// Activity is a persisted fake-presence intent for one chat.
type Activity struct {
	UserID int64
	ChatID int64
	Kind   string
}
