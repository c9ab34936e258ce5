package repository

// Range represents a daily-bar history window.
type Range string

const (
	Range1Mo Range = "1mo"
	Range3Mo Range = "3mo"
	Range6Mo Range = "6mo"
	Range1Y  Range = "1y"
	Range2Y  Range = "2y"
	Range5Y  Range = "5y"
)

// IsValidRange returns true if r is a supported history range.
func IsValidRange(r Range) bool {
	switch r {
	case Range1Mo, Range3Mo, Range6Mo, Range1Y, Range2Y, Range5Y:
		return true
	default:
		return false
	}
}

// DefaultRange returns the default history range.
func DefaultRange() Range { return Range1Y }

// NormalizeRange converts a raw string to a valid range (or default).
func NormalizeRange(s string) Range {
	if s == "" {
		return DefaultRange()
	}
	r := Range(s)
	if IsValidRange(r) {
		return r
	}
	return DefaultRange()
}

// Sessions returns the approximate number of trading sessions in a range.
func (r Range) Sessions() int {
	switch r {
	case Range1Mo:
		return 21
	case Range3Mo:
		return 63
	case Range6Mo:
		return 126
	case Range2Y:
		return 500
	case Range5Y:
		return 1250
	default:
		return 250
	}
}
