package common

import (
	"fmt"
	"os"
	"strings"
)

// Permission conversion between long-listing strings and octal digit form.
//
// A 10-character input ("-rwxr-xr--") has its type character dropped before
// conversion, so the round trip through octal yields the 9-character
// permission body. That asymmetry is deliberate: the type is not a permission
// bit.

const permLetters = "rwxrwxrwx"

// PermissionsToOctal converts a 9- or 10-character permission string to its
// three-digit octal form, e.g. "-rwxr-xr--" -> "754".
func PermissionsToOctal(perms string) (string, error) {
	body := perms
	if len(body) == 10 {
		switch body[0] {
		case '-', 'd', 'l':
		default:
			return "", WrapError(ErrInvalidPermission, "unknown type character %q in %q", body[0], perms)
		}
		body = body[1:]
	}
	if len(body) != 9 {
		return "", WrapError(ErrInvalidPermission, "want 9 or 10 characters, got %d in %q", len(perms), perms)
	}
	digits := make([]byte, 3)
	for triplet := 0; triplet < 3; triplet++ {
		var value byte
		for bit := 0; bit < 3; bit++ {
			i := triplet*3 + bit
			switch body[i] {
			case permLetters[i]:
				value |= 1 << (2 - bit)
			case '-':
			default:
				return "", WrapError(ErrInvalidPermission, "unexpected character %q at position %d in %q", body[i], i, perms)
			}
		}
		digits[triplet] = '0' + value
	}
	return string(digits), nil
}

// OctalToPermissions converts a three-digit octal string to the 9-character
// permission body, e.g. "754" -> "rwxr-xr--".
func OctalToPermissions(octal string) (string, error) {
	if len(octal) != 3 {
		return "", WrapError(ErrInvalidOctal, "want 3 digits, got %q", octal)
	}
	var b strings.Builder
	for triplet := 0; triplet < 3; triplet++ {
		d := octal[triplet]
		if d < '0' || d > '7' {
			return "", WrapError(ErrInvalidOctal, "digit %q out of range in %q", d, octal)
		}
		value := d - '0'
		for bit := 0; bit < 3; bit++ {
			i := triplet*3 + bit
			if value&(1<<(2-bit)) != 0 {
				b.WriteByte(permLetters[i])
			} else {
				b.WriteByte('-')
			}
		}
	}
	return b.String(), nil
}

// ModeToPermissions renders an os.FileMode in 10-character long-listing form.
func ModeToPermissions(mode os.FileMode) string {
	typeChar := byte('-')
	switch {
	case mode.IsDir():
		typeChar = 'd'
	case mode&os.ModeSymlink != 0:
		typeChar = 'l'
	}
	var b strings.Builder
	b.WriteByte(typeChar)
	perm := mode.Perm()
	for i := 0; i < 9; i++ {
		if perm&(1<<(8-i)) != 0 {
			b.WriteByte(permLetters[i])
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// RenderPermissions builds the 10-character form from a type character and an
// octal permission string. An empty or unparseable octal renders every bit as
// '-', never failing: display code depends on always getting 10 characters.
func RenderPermissions(typeChar byte, octal string) string {
	body, err := OctalToPermissions(octal)
	if err != nil {
		body = strings.Repeat("-", 9)
	}
	return fmt.Sprintf("%c%s", typeChar, body)
}
