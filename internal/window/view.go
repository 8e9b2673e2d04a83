// Package window reinterprets a flat series as overlapping fixed-width rows.
package window

import (
	"fmt"
	"math"

	"github.com/go-sod/wknn/internal/errkind"
)

// RowCount returns the number of windows of width w and step h that fit
// into n samples. Callers must guarantee n >= w, w >= 1 and h >= 1.
func RowCount(n, w, h int) int {
	return (n-w)/h + 1
}

// View is a read-only sliding-window index over a series it does not own.
type View struct {
	data []float32
	w    int
	h    int
	rows int
}

func New(data []float32, w, h int) (View, error) {
	if w < 1 {
		return View{}, fmt.Errorf("window width %d must be positive: %w", w, errkind.ErrPrecondition)
	}
	if h < 1 {
		return View{}, fmt.Errorf("window step %d must be positive: %w", h, errkind.ErrPrecondition)
	}
	if len(data) < w {
		return View{}, fmt.Errorf(
			"series of %d samples is shorter than window width %d: %w",
			len(data), w, errkind.ErrPrecondition,
		)
	}
	return View{data: data, w: w, h: h, rows: RowCount(len(data), w, h)}, nil
}

// Row returns the window starting at i*h. The slice is capacity clipped so it
// cannot be used to write past the window into the parent series.
func (v View) Row(i int) []float32 {
	start := i * v.h
	return v.data[start : start+v.w : start+v.w]
}

func (v View) Rows() int {
	return v.rows
}

func (v View) Width() int {
	return v.w
}

func (v View) Step() int {
	return v.h
}

// Len is the length of the underlying series.
func (v View) Len() int {
	return len(v.data)
}

// CheckFinite reports the first NaN or infinite sample covered by a row.
func (v View) CheckFinite() error {
	if v.rows < 1 {
		return nil
	}
	return CheckFinite(v.data[:(v.rows-1)*v.h+v.w])
}

// CheckFinite returns an ErrPrecondition error naming the first NaN or
// infinite value of data.
func CheckFinite(data []float32) error {
	for i, x := range data {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return fmt.Errorf("sample %d is %v: %w", i, x, errkind.ErrPrecondition)
		}
	}
	return nil
}
