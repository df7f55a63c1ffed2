package domain

import (
	"strings"
	"unicode"
)

// MediaKind classifies the attachment on a message relevant to matching.
type MediaKind int

const (
	MediaNone MediaKind = iota
	MediaVoice
	MediaVideoNote
	MediaPhoto
	MediaVideo
	MediaText // reply target carries plain text only
)

// ReplyRef describes the message an invocation replies to.
type ReplyRef struct {
	MessageID int
	UserID    int64
	Kind      MediaKind
	Text      string
	FileID    string
	FileSize  int64
}

// Invocation is a transport-independent command request: sender and chat
// identity plus the raw text. Handlers accept this instead of the transport
// SDK's message type, which also lets the dispatcher replay an alias by
// substituting Text alone.
type Invocation struct {
	UserID    int64
	ChatID    int64
	MessageID int
	Text      string
	ReplyTo   *ReplyRef
}

// Args splits the invocation text on whitespace.
func (inv Invocation) Args() []string {
	return strings.Fields(inv.Text)
}

// Arg returns the n-th whitespace-delimited token, or "" when absent.
func (inv Invocation) Arg(n int) string {
	args := inv.Args()
	if n < 0 || n >= len(args) {
		return ""
	}
	return args[n]
}

// Rest returns everything after the first n tokens with original spacing
// and newlines preserved. Multi-line payloads (interval texts, spam bodies)
// depend on this.
func (inv Invocation) Rest(n int) string {
	s := inv.Text
	for ; n > 0; n-- {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		cut := strings.IndexFunc(s, unicode.IsSpace)
		if cut < 0 {
			return ""
		}
		s = s[cut:]
	}
	return strings.TrimSpace(s)
}

// FirstLine returns the first line of the invocation text.
func (inv Invocation) FirstLine() string {
	if i := strings.IndexByte(inv.Text, '\n'); i >= 0 {
		return strings.TrimSpace(inv.Text[:i])
	}
	return strings.TrimSpace(inv.Text)
}

// Tail returns all lines after the first, joined as written.
func (inv Invocation) Tail() string {
	if i := strings.IndexByte(inv.Text, '\n'); i >= 0 {
		return strings.TrimSpace(inv.Text[i+1:])
	}
	return ""
}

// WithText returns a copy of the invocation with the text field replaced.
// Used for replayed alias invocations: identity fields are preserved.
func (inv Invocation) WithText(text string) Invocation {
	inv.Text = text
	return inv
}
