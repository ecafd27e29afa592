package binning

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultFormatSpec renders two decimals and trims trailing zeros.
const DefaultFormatSpec = ".2~f"

// Format is a fixed-point number format parsed from a specifier such as
// ".2f" or ".2~f". The "~" flag trims insignificant trailing zeros.
type Format struct {
	Spec      string
	Precision int
	Trim      bool
}

// ParseFormat parses a fixed-point specifier of the form ".N[~]f".
func ParseFormat(spec string) (Format, error) {
	s := strings.TrimSpace(spec)
	if !strings.HasPrefix(s, ".") || !strings.HasSuffix(s, "f") {
		return Format{}, fmt.Errorf("unsupported number format %q", spec)
	}

	body := strings.TrimSuffix(strings.TrimPrefix(s, "."), "f")
	trim := strings.HasSuffix(body, "~")
	body = strings.TrimSuffix(body, "~")

	precision, err := strconv.Atoi(body)
	if err != nil || precision < 0 {
		return Format{}, fmt.Errorf("invalid precision in number format %q", spec)
	}

	return Format{Spec: s, Precision: precision, Trim: trim}, nil
}

// MustParseFormat is ParseFormat for specifiers known at compile time.
func MustParseFormat(spec string) Format {
	f, err := ParseFormat(spec)
	if err != nil {
		panic(err)
	}
	return f
}

// Apply formats v.
func (f Format) Apply(v float64) string {
	out := strconv.FormatFloat(v, 'f', f.Precision, 64)
	if f.Trim && strings.Contains(out, ".") {
		out = strings.TrimRight(out, "0")
		out = strings.TrimSuffix(out, ".")
	}
	if out == "-0" {
		out = "0"
	}
	return out
}
