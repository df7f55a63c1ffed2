package domain

import (
	"errors"
	"regexp"
)

// QWERTY ↔ ЙЦУКЕН mapping for fixing text typed in the wrong layout.
var engToRus = map[rune]rune{
	'q': 'й', 'w': 'ц', 'e': 'у', 'r': 'к', 't': 'е', 'y': 'н', 'u': 'г',
	'i': 'ш', 'o': 'щ', 'p': 'з', '[': 'х', ']': 'ъ',
	'a': 'ф', 's': 'ы', 'd': 'в', 'f': 'а', 'g': 'п', 'h': 'р', 'j': 'о',
	'k': 'л', 'l': 'д', ';': 'ж', '\'': 'э',
	'z': 'я', 'x': 'ч', 'c': 'с', 'v': 'м', 'b': 'и', 'n': 'т', 'm': 'ь',
	',': 'б', '.': 'ю', '/': '.', '`': 'ё',
	'Q': 'Й', 'W': 'Ц', 'E': 'У', 'R': 'К', 'T': 'Е', 'Y': 'Н', 'U': 'Г',
	'I': 'Ш', 'O': 'Щ', 'P': 'З', '{': 'Х', '}': 'Ъ',
	'A': 'Ф', 'S': 'Ы', 'D': 'В', 'F': 'А', 'G': 'П', 'H': 'Р', 'J': 'О',
	'K': 'Л', 'L': 'Д', ':': 'Ж', '"': 'Э',
	'Z': 'Я', 'X': 'Ч', 'C': 'С', 'V': 'М', 'B': 'И', 'N': 'Т', 'M': 'Ь',
	'<': 'Б', '>': 'Ю', '?': ',', '~': 'Ё',
}

var rusToEng = func() map[rune]rune {
	m := make(map[rune]rune, len(engToRus))
	for k, v := range engToRus {
		m[v] = k
	}
	return m
}()

var (
	latinLike    = regexp.MustCompile(`^[a-zA-Z0-9\s.,;!?()\[\]{}'"` + "`" + `~<>/-]*$`)
	cyrillicLike = regexp.MustCompile(`^[а-яА-ЯёЁ0-9\s.,;!?()\[\]{}'"` + "`" + `~<>/-]*$`)
)

// ErrUnknownLayout is returned when text matches neither layout.
var ErrUnknownLayout = errors.New("cannot detect keyboard layout")

// ConvertLayout detects whether text was typed on the Latin or Cyrillic
// layout and converts it to the other one.
func ConvertLayout(text string) (string, error) {
	var mapping map[rune]rune
	switch {
	case latinLike.MatchString(text):
		mapping = engToRus
	case cyrillicLike.MatchString(text):
		mapping = rusToEng
	default:
		return "", ErrUnknownLayout
	}
	out := make([]rune, 0, len(text))
	for _, r := range text {
		if mapped, ok := mapping[r]; ok {
			r = mapped
		}
		out = append(out, r)
	}
	return string(out), nil
}
