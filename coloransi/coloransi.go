// Package coloransi provides ANSI terminal color helpers for shell and
// hexdump output.
package coloransi

import (
	"fmt"
	"strings"
)

// ColorCode represents ANSI color codes and RGB colors as a 32-bit integer.
// The lower 8 bits hold ANSI color codes, the upper 24 bits RGB values.
type ColorCode uint32

// ANSI color codes
const (
	Black   ColorCode = 30
	Red     ColorCode = 31
	Green   ColorCode = 32
	Yellow  ColorCode = 33
	Blue    ColorCode = 34
	Magenta ColorCode = 35
	Cyan    ColorCode = 36
	White   ColorCode = 37

	// For bright colors, add 60
	BrightBlack   ColorCode = Black + 60
	BrightRed     ColorCode = Red + 60
	BrightGreen   ColorCode = Green + 60
	BrightYellow  ColorCode = Yellow + 60
	BrightBlue    ColorCode = Blue + 60
	BrightMagenta ColorCode = Magenta + 60
	BrightCyan    ColorCode = Cyan + 60
	BrightWhite   ColorCode = White + 60

	// Background colors are the foreground code plus this offset
	BackgroundOffset ColorCode = 10

	// RGB color mask
	RGBMask ColorCode = 0xFFFFFF00
)

// TextStyle selects an ANSI text attribute
type TextStyle uint8

const (
	Bold      TextStyle = 1
	Dim       TextStyle = 2
	Underline TextStyle = 4
)

// RGB creates a ColorCode from RGB values
func RGB(r, g, b uint8) ColorCode {
	return ColorCode(uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8)
}

// IsRGB checks if the ColorCode represents an RGB color
func (c ColorCode) IsRGB() bool {
	return c&RGBMask != 0
}

// Enabled controls whether the helpers emit escape sequences at all.
// Disabled output passes text through unchanged.
var Enabled = true

// Reset returns the sequence clearing all attributes
func Reset() string {
	if !Enabled {
		return ""
	}
	return "\033[0m"
}

// OneForeground returns the escape sequence selecting fg
func OneForeground(fg ColorCode) string {
	if !Enabled {
		return ""
	}
	if fg.IsRGB() {
		return fmt.Sprintf("\033[38;2;%d;%d;%dm", uint8(fg>>24), uint8(fg>>16), uint8(fg>>8))
	}
	return fmt.Sprintf("\033[%dm", uint32(fg))
}

// OneBackground returns the escape sequence selecting bg
func OneBackground(bg ColorCode) string {
	if !Enabled {
		return ""
	}
	if bg.IsRGB() {
		return fmt.Sprintf("\033[48;2;%d;%d;%dm", uint8(bg>>24), uint8(bg>>16), uint8(bg>>8))
	}
	return fmt.Sprintf("\033[%dm", uint32(bg+BackgroundOffset))
}

// Foreground formats the given text with the specified foreground color.
func Foreground(fg ColorCode, v ...interface{}) string {
	return OneForeground(fg) + join(v) + Reset()
}

// Color formats the given text with foreground and background colors.
func Color(fg, bg ColorCode, v ...interface{}) string {
	return OneForeground(fg) + OneBackground(bg) + join(v) + Reset()
}

// Style formats the text with the specified text style.
func Style(style TextStyle, v ...interface{}) string {
	if !Enabled {
		return join(v)
	}
	return fmt.Sprintf("\033[%dm%s%s", style, join(v), Reset())
}

func join(v []interface{}) string {
	args := make([]string, len(v))
	for i, arg := range v {
		args[i] = fmt.Sprint(arg)
	}
	return strings.Join(args, " ")
}

// VisibleLength returns the printable width of s, skipping escape
// sequences produced by this package.
func VisibleLength(s string) int {
	length := 0
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\033':
			inEscape = true
		case inEscape:
			if r == 'm' {
				inEscape = false
			}
		default:
			length++
		}
	}
	return length
}
