// Package params validates raw query parameters for the QR endpoints.
package params

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"qrgate/internal/qrcode"
)

// Bounds for the quiet zone, in modules.
const (
	MinQuiet = 0
	MaxQuiet = 16
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrPayloadTooLarge = errors.New("payload too large")
)

// Error carries a client-facing message and one of the sentinel kinds above.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }
func (e *Error) Unwrap() error { return e.Kind }

func invalid(format string, args ...any) error {
	return &Error{Kind: ErrInvalidInput, Msg: fmt.Sprintf(format, args...)}
}

// Defaults are the values used when a query parameter is absent.
type Defaults struct {
	Preset     string
	ECC        qrcode.Level
	Quiet      int
	MaxDataLen int
}

// Params is a validated request.
type Params struct {
	Data   string
	Preset Preset
	ECC    qrcode.Level
	Quiet  int
}

// Parse validates data, p, ecc and q from q. Absent parameters fall back to
// d.
func Parse(q url.Values, d Defaults) (Params, error) {
	data, err := ParseData(q, d)
	if err != nil {
		return Params{}, err
	}

	presetID := d.Preset
	if q.Has("p") {
		presetID = q.Get("p")
	}
	preset, ok := LookupPreset(presetID)
	if !ok {
		return Params{}, invalid("Invalid preset: %s", presetID)
	}

	ecc, quiet, err := ParseRendering(q, d)
	if err != nil {
		return Params{}, err
	}

	return Params{Data: data, Preset: preset, ECC: ecc, Quiet: quiet}, nil
}

// ParseData returns the trimmed data parameter.
func ParseData(q url.Values, d Defaults) (string, error) {
	raw := q.Get("data")
	if raw == "" {
		return "", invalid("Missing required parameter: data")
	}

	data := strings.TrimSpace(raw)
	if d.MaxDataLen > 0 && utf8.RuneCountInString(data) > d.MaxDataLen {
		return "", &Error{
			Kind: ErrPayloadTooLarge,
			Msg:  fmt.Sprintf("Data exceeds maximum length of %d", d.MaxDataLen),
		}
	}
	if data == "" {
		return "", invalid("Data is empty after trimming")
	}
	return data, nil
}

// ParseRendering validates the ecc and q parameters.
func ParseRendering(q url.Values, d Defaults) (qrcode.Level, int, error) {
	rawECC := string(d.ECC)
	if q.Has("ecc") {
		rawECC = q.Get("ecc")
	}
	ecc, ok := qrcode.ParseLevel(rawECC)
	if !ok {
		return "", 0, invalid("Invalid ECC level: %s", strings.ToUpper(rawECC))
	}

	quiet := d.Quiet
	if q.Has("q") {
		raw := q.Get("q")
		n, err := ParseQuiet(raw)
		if err != nil {
			return "", 0, err
		}
		quiet = n
	}
	return ecc, quiet, nil
}

// ParseQuiet parses a quiet zone width. Only base-10 integers in
// [MinQuiet, MaxQuiet] are accepted.
func ParseQuiet(raw string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < MinQuiet || n > MaxQuiet {
		return 0, invalid("Invalid quiet zone: %s (must be integer %d..%d)", raw, MinQuiet, MaxQuiet)
	}
	return n, nil
}
