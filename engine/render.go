package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// ============================================================================
// RENDERERS — Cell display transforms
// ============================================================================
// A column's Render spec selects one of these, e.g. "fixed:2",
// "percent:1", "fraction:1", "thousands", "truncate:40", "sci:3", "yesno".
// Non-numeric values pass through the numeric renderers as Value.String();
// null is "".
// ============================================================================

// Renderer turns a cell value into display text.
type Renderer func(Value) string

// Plain renders Value.String().
func Plain(v Value) string { return v.String() }

// Fixed renders numbers with d decimals.
func Fixed(d int) Renderer {
	return numeric(func(f float64) string { return strconv.FormatFloat(f, 'f', d, 64) })
}

// Percent renders a number already in percent units with d decimals.
func Percent(d int) Renderer {
	return numeric(func(f float64) string { return strconv.FormatFloat(f, 'f', d, 64) + "%" })
}

// Fraction renders a 0..1 proportion as a percentage with d decimals.
func Fraction(d int) Renderer {
	return numeric(func(f float64) string { return strconv.FormatFloat(f*100, 'f', d, 64) + "%" })
}

// YesNo renders bools as "yes"/"no"; other values pass through.
func YesNo(v Value) string {
	b, ok := v.Boolean()
	switch {
	case !ok:
		return v.String()
	case b:
		return "yes"
	default:
		return "no"
	}
}

// Thousands renders numbers rounded to integers with comma separators.
// Non-integral numbers keep two decimals.
func Thousands() Renderer {
	return numeric(FormatNumber)
}

// Scientific renders numbers in exponent form with d decimals.
func Scientific(d int) Renderer {
	return numeric(func(f float64) string { return strconv.FormatFloat(f, 'e', d, 64) })
}

// Truncate cuts text longer than n runes and appends an ellipsis.
func Truncate(n int) Renderer {
	return func(v Value) string {
		return truncate(v.String(), n)
	}
}

func numeric(format func(float64) string) Renderer {
	return func(v Value) string {
		if f, ok := v.Float(); ok {
			return format(f)
		}
		return v.String()
	}
}

// ParseRenderer resolves a render spec. "" yields Plain.
func ParseRenderer(spec string) (Renderer, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return Plain, nil
	}

	name, arg, hasArg := strings.Cut(spec, ":")
	n := 0
	if hasArg {
		var err error
		n, err = strconv.Atoi(strings.TrimSpace(arg))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRenderer, spec)
		}
	}

	switch strings.ToLower(name) {
	case "fixed":
		return Fixed(n), nil
	case "percent", "pct":
		return Percent(n), nil
	case "fraction":
		return Fraction(n), nil
	case "yesno":
		return YesNo, nil
	case "thousands":
		return Thousands(), nil
	case "sci", "scientific":
		if !hasArg {
			n = 3
		}
		return Scientific(n), nil
	case "truncate":
		if n == 0 {
			return nil, fmt.Errorf("%w: %q needs a length", ErrUnknownRenderer, spec)
		}
		return Truncate(n), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRenderer, spec)
	}
}

// mustRenderer falls back to Plain for unparsable specs. Config overrides
// are checked with ParseRenderer before they reach a table.
func mustRenderer(spec string) Renderer {
	r, err := ParseRenderer(spec)
	if err != nil {
		return Plain
	}
	return r
}

func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
