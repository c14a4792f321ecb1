// Package render turns a QR module grid into a compact SVG document.
package render

import (
	"strconv"
	"strings"

	"qrgate/internal/qrcode"
)

const (
	lightFill = "#fff"
	darkFill  = "#000"
)

// SVG renders grid with a uniform quiet zone of quiet modules, scaled to
// width x height pixels.
//
// The viewBox is always in module units, so the path data depends only on
// grid and quiet. Each horizontal run of dark modules becomes one sub-path.
func SVG(grid qrcode.Grid, quiet, width, height int) string {
	if quiet < 0 {
		quiet = 0
	}
	dim := strconv.Itoa(grid.Size() + 2*quiet)

	var b strings.Builder
	b.Grow(256 + grid.Size()*grid.Size())

	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `)
	b.WriteString(dim)
	b.WriteByte(' ')
	b.WriteString(dim)
	b.WriteString(`" width="`)
	b.WriteString(strconv.Itoa(width))
	b.WriteString(`" height="`)
	b.WriteString(strconv.Itoa(height))
	b.WriteString(`" shape-rendering="crispEdges">`)

	b.WriteString(`<rect width="`)
	b.WriteString(dim)
	b.WriteString(`" height="`)
	b.WriteString(dim)
	b.WriteString(`" fill="` + lightFill + `"/>`)

	b.WriteString(`<path d="`)
	writePath(&b, grid, quiet)
	b.WriteString(`" fill="` + darkFill + `"/>`)

	b.WriteString(`</svg>`)
	return b.String()
}

// PathData returns only the d attribute that SVG would emit.
func PathData(grid qrcode.Grid, quiet int) string {
	if quiet < 0 {
		quiet = 0
	}
	var b strings.Builder
	writePath(&b, grid, quiet)
	return b.String()
}

func writePath(b *strings.Builder, grid qrcode.Grid, quiet int) {
	size := grid.Size()
	for y := 0; y < size; y++ {
		x := 0
		for x < size {
			if !grid.Dark(x, y) {
				x++
				continue
			}
			start := x
			for x < size && grid.Dark(x, y) {
				x++
			}
			run := strconv.Itoa(x - start)

			b.WriteByte('M')
			b.WriteString(strconv.Itoa(start + quiet))
			b.WriteByte(' ')
			b.WriteString(strconv.Itoa(y + quiet))
			b.WriteByte('h')
			b.WriteString(run)
			b.WriteString("v1h-")
			b.WriteString(run)
			b.WriteByte('z')
		}
	}
}
