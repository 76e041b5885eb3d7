package emit

import (
	"fmt"
	"io"
	"strings"
)

const DefaultHexWidth = 16

// Hex writes a dump of b with offsets starting at base.
func Hex(w io.Writer, base int, b []byte, width int) error {
	if width <= 0 {
		width = DefaultHexWidth
	}
	var line strings.Builder
	for off := 0; off < len(b); off += width {
		end := off + width
		if end > len(b) {
			end = len(b)
		}
		line.Reset()
		fmt.Fprintf(&line, "    %08x ", base+off)
		for i := off; i < off+width; i++ {
			if i < end {
				fmt.Fprintf(&line, " %02x", b[i])
			} else {
				line.WriteString("   ")
			}
		}
		line.WriteString("  |")
		for _, c := range b[off:end] {
			if c >= 0x20 && c < 0x7f {
				line.WriteByte(c)
			} else {
				line.WriteByte('.')
			}
		}
		line.WriteString("|\n")
		if _, err := io.WriteString(w, line.String()); err != nil {
			return err
		}
	}
	return nil
}

// Fallback prints why a record could not be rendered, then its raw bytes.
func Fallback(w io.Writer, e Emission, reason error) error {
	if _, err := fmt.Fprintf(w, "    ** %v\n", reason); err != nil {
		return err
	}
	return Hex(w, e.Offset, e.Raw, e.HexWidth)
}
