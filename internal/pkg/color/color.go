// Package color derives display colors for user identifiers.
package color

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const (
	DefaultFill       = "#ffffff"
	DefaultBackground = "#000000"
)

// ErrInvalidHex is returned for anything that is not six hex digits.
var ErrInvalidHex = errors.New("color: expected six hex digits")

var hexPattern = regexp.MustCompile(`^[0-9a-fA-F]{6}$`)

// Pair is a foreground/background combination.
type Pair struct {
	Fill       string `json:"fill"`
	Background string `json:"background"`
}

// Default is white on black.
func Default() Pair {
	return Pair{Fill: DefaultFill, Background: DefaultBackground}
}

// IsHex reports whether s is exactly six hex digits, without a leading '#'.
func IsHex(s string) bool {
	return hexPattern.MatchString(s)
}

// Complement returns the complementary color of a six digit hex string, prefixed with '#'.
// Each channel becomes (max+min)-c, which rotates the hue by 180 degrees and keeps
// lightness and saturation.
func Complement(hex string) (string, error) {
	hex = strings.TrimPrefix(hex, "#")
	if !IsHex(hex) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHex, hex)
	}

	var rgb [3]int64
	for i := range rgb {
		v, err := strconv.ParseInt(hex[i*2:i*2+2], 16, 64)
		if err != nil {
			return "", fmt.Errorf("%w: %q", ErrInvalidHex, hex)
		}
		rgb[i] = v
	}

	hi := max(rgb[0], rgb[1], rgb[2])
	lo := min(rgb[0], rgb[1], rgb[2])
	sum := hi + lo

	return fmt.Sprintf("#%02x%02x%02x", sum-rgb[0], sum-rgb[1], sum-rgb[2]), nil
}

// ForIdentifier derives a stable color pair from an identifier such as a user id.
//
// The last six characters are used as-is when they are hex. Otherwise they are read
// as a base-36 number and the last six digits of its hex form are used. Anything
// else yields the default pair.
func ForIdentifier(id string) Pair {
	if id == "" {
		return Default()
	}

	tail := lastN(id, 6)
	if IsHex(tail) {
		return withFill(tail)
	}

	n, ok := parseIntPrefix(tail, 36)
	if !ok {
		return Default()
	}
	candidate := lastN(strconv.FormatInt(n, 16), 6)
	if IsHex(candidate) {
		return withFill(candidate)
	}
	return Default()
}

func withFill(hex string) Pair {
	background, err := Complement(hex)
	if err != nil {
		return Default()
	}
	return Pair{Fill: "#" + hex, Background: background}
}

func lastN(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

// parseIntPrefix reads the longest valid prefix of s in the given base, after
// leading whitespace and an optional sign. It fails only when no digit is found.
func parseIntPrefix(s string, base int) (int64, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	negative := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		negative = s[0] == '-'
		s = s[1:]
	}

	var n int64
	digits := 0
	for _, r := range s {
		d := digitValue(r)
		if d < 0 || d >= base {
			break
		}
		n = n*int64(base) + int64(d)
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if negative {
		n = -n
	}
	return n, true
}

func digitValue(r rune) int {
	switch {
	case r >= '0' && r <= '9':
		return int(r - '0')
	case r >= 'a' && r <= 'z':
		return int(r-'a') + 10
	case r >= 'A' && r <= 'Z':
		return int(r-'A') + 10
	default:
		return -1
	}
}
