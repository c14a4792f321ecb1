package qrcode

import (
	"fmt"

	goqr "github.com/yeqown/go-qrcode/v2"
)

// Error is returned when a grid could not be produced for the input.
type Error struct {
	Msg string
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Encoder turns text into a module grid. Implementations must be
// deterministic and safe for concurrent use.
type Encoder interface {
	Encode(text string, level Level) (Grid, error)
}

// StandardEncoder encodes with github.com/yeqown/go-qrcode. The grid it
// returns carries no quiet zone.
type StandardEncoder struct{}

// NewEncoder returns the default Encoder.
func NewEncoder() StandardEncoder {
	return StandardEncoder{}
}

// Encode implements Encoder. Panics inside the encoder are returned as *Error.
func (StandardEncoder) Encode(text string, level Level) (grid Grid, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &Error{Msg: fmt.Sprintf("QR generation failed: %v", rec)}
		}
	}()

	opt, ok := levelOption(level)
	if !ok {
		return Grid{}, &Error{Msg: fmt.Sprintf("unsupported ECC level %q", level)}
	}

	qr, err := goqr.NewWith(text, opt)
	if err != nil {
		return Grid{}, &Error{Msg: "QR generation failed", Err: err}
	}

	w := &gridWriter{}
	if err := qr.Save(w); err != nil {
		return Grid{}, &Error{Msg: "QR generation failed", Err: err}
	}
	return w.grid, nil
}

func levelOption(level Level) (goqr.EncodeOption, bool) {
	switch level {
	case LevelL:
		return goqr.WithErrorCorrectionLevel(goqr.ErrorCorrectionLow), true
	case LevelM:
		return goqr.WithErrorCorrectionLevel(goqr.ErrorCorrectionMedium), true
	case LevelQ:
		return goqr.WithErrorCorrectionLevel(goqr.ErrorCorrectionQuart), true
	case LevelH:
		return goqr.WithErrorCorrectionLevel(goqr.ErrorCorrectionHighest), true
	default:
		return nil, false
	}
}

// gridWriter captures the encoded matrix instead of drawing it.
type gridWriter struct {
	grid Grid
}

func (w *gridWriter) Write(mat goqr.Matrix) error {
	size := mat.Width()
	if mat.Height() != size {
		return fmt.Errorf("non-square matrix %dx%d", mat.Width(), mat.Height())
	}

	cells := make([]bool, size*size)
	mat.Iterate(goqr.IterDirection_ROW, func(x, y int, v goqr.QRValue) {
		if x < size && y < size {
			cells[y*size+x] = v.IsSet()
		}
	})

	g, err := NewGrid(size, cells)
	if err != nil {
		return err
	}
	w.grid = g
	return nil
}

func (w *gridWriter) Close() error { return nil }
