// Package hexdump renders byte buffers as colored hex listings with an
// address column and ASCII gutter.
package hexdump

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"memscan/coloransi"
	"memscan/process"
)

// Options defines options for customizing the hexdump output
type Options struct {
	// BytesPerLine defines the number of bytes to display per line
	BytesPerLine int

	// ShowASCII determines whether to show the ASCII representation
	ShowASCII bool

	// StartOffset is the address printed for the first byte
	StartOffset uint64

	// OffsetWidth is the width of the offset column in hex digits
	OffsetWidth int

	// OffsetColor is the color for the offset/address column
	OffsetColor coloransi.ColorCode

	// HexColor is the color for the hex values
	HexColor coloransi.ColorCode

	// ASCIIColor is the color for the ASCII representation
	ASCIIColor coloransi.ColorCode

	// NonPrintableColor is the color for non-printable ASCII characters
	NonPrintableColor coloransi.ColorCode

	// ZeroColor is the color for zero bytes (0x00)
	ZeroColor coloransi.ColorCode

	// MaxLines is the maximum number of lines to show (0 for no limit)
	MaxLines int

	// ShowPointers annotates lines whose leading quadwords fall inside
	// a mapped region from Regions
	ShowPointers bool

	// Regions is the region catalog used for pointer validation
	Regions []process.Region
}

// DefaultOptions returns the default hexdump options
func DefaultOptions() Options {
	return Options{
		BytesPerLine:      16,
		ShowASCII:         true,
		StartOffset:       0,
		OffsetWidth:       12,
		OffsetColor:       coloransi.Cyan,
		HexColor:          coloransi.Green,
		ASCIIColor:        coloransi.White,
		NonPrintableColor: coloransi.BrightBlack,
		ZeroColor:         coloransi.BrightBlack,
	}
}

// Dump creates a hex dump of the given data with specified options
func Dump(data []byte, options Options) string {
	var buffer bytes.Buffer
	DumpToWriter(&buffer, data, options)
	return buffer.String()
}

// DumpBytes creates a hex dump of data with default options
func DumpBytes(data []byte) string {
	return Dump(data, DefaultOptions())
}

// DumpAt creates a hex dump whose address column starts at addr, with
// pointer annotation against the given region catalog.
func DumpAt(data []byte, addr process.MemoryAddress, regions []process.Region) string {
	options := DefaultOptions()
	options.StartOffset = uint64(addr)
	options.ShowPointers = true
	options.Regions = regions
	return Dump(data, options)
}

// DumpToWriter writes a hex dump of the given data to the specified writer
func DumpToWriter(writer io.Writer, data []byte, options Options) {
	if options.BytesPerLine <= 0 {
		options.BytesPerLine = 16
	}
	if options.OffsetWidth <= 0 {
		options.OffsetWidth = 12
	}

	lineCount := 0
	for offset := 0; offset < len(data); offset += options.BytesPerLine {
		if options.MaxLines > 0 && lineCount >= options.MaxLines {
			fmt.Fprintf(writer, "... %d more bytes\n", len(data)-offset)
			break
		}

		end := offset + options.BytesPerLine
		if end > len(data) {
			end = len(data)
		}

		formatLine(writer, data[offset:end], uint64(offset)+options.StartOffset, options)
		lineCount++
	}
}

// formatLine formats a single line of the hex dump
func formatLine(writer io.Writer, data []byte, offset uint64, options Options) {
	offsetStr := fmt.Sprintf("%0"+strconv.Itoa(options.OffsetWidth)+"x", offset)
	fmt.Fprint(writer, coloransi.Foreground(options.OffsetColor, offsetStr), "  ")

	half := options.BytesPerLine / 2
	for i := 0; i < options.BytesPerLine; i++ {
		if i == half && half > 0 {
			fmt.Fprint(writer, "| ")
		}
		if i < len(data) {
			color := options.HexColor
			if data[i] == 0 {
				color = options.ZeroColor
			}
			fmt.Fprint(writer, coloransi.Foreground(color, fmt.Sprintf("%02x", data[i])), " ")
		} else {
			// Keep the ASCII gutter aligned on the final short line
			fmt.Fprint(writer, "   ")
		}
	}

	if options.ShowASCII {
		fmt.Fprint(writer, "| ")
		formatASCII(writer, data, options)
	}

	if options.ShowPointers && len(data) >= 8 {
		ptr := binary.LittleEndian.Uint64(data[:8])
		if pointsIntoRegion(ptr, options.Regions) {
			fmt.Fprint(writer, " | ", coloransi.Foreground(coloransi.Yellow, fmt.Sprintf("0x%x", ptr)))
		}
		if len(data) >= 16 {
			if ptr2 := binary.LittleEndian.Uint64(data[8:16]); pointsIntoRegion(ptr2, options.Regions) {
				fmt.Fprint(writer, " ", coloransi.Foreground(coloransi.Yellow, fmt.Sprintf("0x%x", ptr2)))
			}
		}
	}

	fmt.Fprintln(writer)
}

// formatASCII formats the ASCII gutter of a hex dump line
func formatASCII(writer io.Writer, data []byte, options Options) {
	for _, b := range data {
		c := rune(b)
		switch {
		case b == 0:
			fmt.Fprint(writer, coloransi.Foreground(options.ZeroColor, "."))
		case !unicode.IsPrint(c) || b > 0x7e:
			fmt.Fprint(writer, coloransi.Foreground(options.NonPrintableColor, "."))
		default:
			fmt.Fprint(writer, coloransi.Foreground(options.ASCIIColor, string(c)))
		}
	}
	if pad := options.BytesPerLine - len(data); pad > 0 {
		fmt.Fprint(writer, strings.Repeat(" ", pad))
	}
}

// pointsIntoRegion reports whether ptr falls inside any mapped region
func pointsIntoRegion(ptr uint64, regions []process.Region) bool {
	for _, r := range regions {
		if ptr >= uint64(r.Base) && ptr < uint64(r.End()) {
			return true
		}
	}
	return false
}
