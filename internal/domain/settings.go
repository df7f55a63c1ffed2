package domain

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Defaults applied when a user has no settings row (or the row cannot be read).
const (
	DefaultPrefix    = "."
	DefaultDeleteCmd = "дд"
	DefaultEditText  = "🫥🫥🫥"
)

// Settings holds per-user command customization.
type Settings struct {
	UserID    int64
	Prefix    string
	DeleteCmd string
	EditText  string
}

// DefaultSettings returns the built-in settings for a user without a row.
func DefaultSettings(userID int64) Settings {
	return Settings{
		UserID:    userID,
		Prefix:    DefaultPrefix,
		DeleteCmd: DefaultDeleteCmd,
		EditText:  DefaultEditText,
	}
}

var (
	ErrBadPrefix   = errors.New("prefix must be a single printable non-space character")
	ErrBadName     = errors.New("name must be 1-50 characters without control characters")
	ErrReservedCmd = errors.New("name collides with a built-in command")
)

// reservedWords is the fixed set of built-in keywords. User-chosen names
// (aliases, custom delete commands) must not collide with any of these,
// case-insensitively.
var reservedWords = map[string]struct{}{
	"type": {}, "печатай": {}, "спам": {}, "пинг": {}, "выбери": {}, "мегапуш": {},
	"ловушка": {}, "конв": {}, "ид": {}, "серв": {},
	"+шаб": {}, "шаб": {}, "-шаб": {}, "шабы": {},
	"+гс": {}, "гс": {}, "-гс": {}, "гсы": {},
	"+анимка": {}, "анимка": {}, "-анимка": {}, "анимки": {},
	"+кружочек": {}, "кружочек": {}, "-кружочек": {}, "кружочки": {},
	"+гсф": {}, "-гсф": {}, "гсф": {},
	"+смсф": {}, "-смсф": {}, "смсф": {},
	"+онлайн": {}, "-онлайн": {}, "онлайн": {},
	"+интервал": {}, "-интервал": {}, "интервалы": {},
	"speed": {}, "+speed": {}, "-speed": {},
	"преф": {}, "префикс": {}, "профиль": {}, "удалялка": {}, "редач": {},
	"+алиас": {}, "-алиас": {}, "алиасы": {},
	"погода": {}, "ип": {}, "whois": {}, "котик": {}, "космос": {},
	"дд": {}, "дд-": {}, "help": {},
}

// IsReserved reports whether word matches a built-in keyword, ignoring case.
func IsReserved(word string) bool {
	_, ok := reservedWords[strings.ToLower(word)]
	return ok
}

// ValidatePrefix checks that p is exactly one printable, non-space rune.
func ValidatePrefix(p string) error {
	r, size := utf8.DecodeRuneInString(p)
	if size == 0 || size != len(p) || r == utf8.RuneError {
		return ErrBadPrefix
	}
	if unicode.IsSpace(r) || !unicode.IsPrint(r) {
		return ErrBadPrefix
	}
	return nil
}

// ValidateCommandName checks a user-chosen trigger name: 1-50 characters,
// no control characters, not a reserved keyword.
func ValidateCommandName(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if IsReserved(name) {
		return ErrReservedCmd
	}
	return nil
}

// ValidateName checks length and character constraints only.
func ValidateName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < 1 || n > 50 {
		return ErrBadName
	}
	for _, r := range name {
		if r < 32 {
			return ErrBadName
		}
	}
	return nil
}
