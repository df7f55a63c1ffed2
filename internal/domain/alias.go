package domain

import (
	"errors"
	"strings"
)

// Alias maps a user-defined trigger phrase to a full command invocation.
type Alias struct {
	UserID  int64
	Name    string
	Command string
}

// playbackKeywords is the whitelist of commands an alias may expand to.
// Aliasing is restricted to side-effect-free playback features so alias
// chains cannot recurse or trigger destructive operations.
var playbackKeywords = map[string]struct{}{
	KeywordVoice:     {},
	KeywordTemplate:  {},
	KeywordAnimation: {},
	KeywordVideoNote: {},
}

// Aliasable feature keywords.
const (
	KeywordVoice     = "гс"
	KeywordTemplate  = "шаб"
	KeywordAnimation = "анимка"
	KeywordVideoNote = "кружочек"
)

var (
	ErrAliasTarget  = errors.New("alias target is not a valid command")
	ErrNotAliasable = errors.New("command cannot be aliased")
)

// PlaybackKeywords returns the aliasable keywords in stable order.
func PlaybackKeywords() []string {
	return []string{KeywordVoice, KeywordTemplate, KeywordAnimation, KeywordVideoNote}
}

// ParseAliasTarget validates a stored alias command against the owner's
// prefix and the playback whitelist. It returns the target keyword and the
// argument that follows it.
func ParseAliasTarget(prefix, command string) (keyword, arg string, err error) {
	command = strings.TrimSpace(command)
	if !strings.HasPrefix(command, prefix) {
		return "", "", ErrAliasTarget
	}
	fields := strings.Fields(strings.TrimPrefix(command, prefix))
	if len(fields) < 2 {
		return "", "", ErrAliasTarget
	}
	keyword = strings.ToLower(fields[0])
	if _, ok := playbackKeywords[keyword]; !ok {
		return "", "", ErrNotAliasable
	}
	return keyword, strings.Join(fields[1:], " "), nil
}
