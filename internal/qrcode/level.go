package qrcode

import "strings"

// Level is a QR error-correction level.
type Level string

const (
	LevelL Level = "L"
	LevelM Level = "M"
	LevelQ Level = "Q"
	LevelH Level = "H"
)

// ParseLevel normalizes s to upper case and reports whether it names a
// known level. Surrounding whitespace is not accepted.
func ParseLevel(s string) (Level, bool) {
	switch l := Level(strings.ToUpper(s)); l {
	case LevelL, LevelM, LevelQ, LevelH:
		return l, true
	default:
		return "", false
	}
}

func (l Level) String() string { return string(l) }
