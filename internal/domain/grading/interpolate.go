package grading

import "github.com/B-Eddie/WOSSIB/internal/domain/shared"

// Convert maps a raw mark to a converted percentage using the table's
// flattened point set.
//
// A raw mark matching a tabulated point returns its converted value exactly.
// A mark below the minimum tabulated point clamps to that point's value, and
// one above the maximum clamps to the maximum's value. Anything in between is
// linearly interpolated between the two bracketing points, rounding half up
// (0.5 rounds towards the higher integer). Tests pin this tie rule.
//
// Converted values are not assumed monotonic in the raw mark: source tables
// contain local dips and the table is reproduced faithfully, so the bracket
// search runs over raw marks only.
func (t *ConversionTable) Convert(raw int) (int, error) {
	if err := ValidateRawMark(raw); err != nil {
		return 0, err
	}
	if t.IsEmpty() {
		return 0, shared.ErrEmptyTable
	}

	points := t.points
	if raw <= points[0].Raw {
		return points[0].Converted, nil
	}
	if raw >= points[len(points)-1].Raw {
		return points[len(points)-1].Converted, nil
	}

	// Binary search for the first point with Raw >= raw. Points are sorted
	// and deduplicated, so points[idx-1].Raw < raw <= points[idx].Raw.
	lo, hi := 0, len(points)-1
	for lo < hi {
		mid := (lo + hi) / 2
		if points[mid].Raw < raw {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	upper := points[lo]
	if upper.Raw == raw {
		return upper.Converted, nil
	}
	lower := points[lo-1]

	return interpolate(lower, upper, raw), nil
}

// interpolate computes round(y1 + (y2-y1)*(raw-x1)/(x2-x1)) in exact integer
// arithmetic. The numerator y1*(x2-raw) + y2*(raw-x1) is non-negative for
// in-range values, so (2*num + d) / (2*d) implements round-half-up.
func interpolate(lower, upper Point, raw int) int {
	d := upper.Raw - lower.Raw
	num := lower.Converted*(upper.Raw-raw) + upper.Converted*(raw-lower.Raw)
	return (2*num + d) / (2 * d)
}
