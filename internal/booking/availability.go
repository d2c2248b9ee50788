package booking

// Overlaps reports whether two stays share at least one night.
// Ranges are half-open, so back-to-back stays (a.CheckOut == b.CheckIn) do not overlap.
func Overlaps(a, b DateRange) bool {
	return a.CheckIn.Before(b.CheckOut) && a.CheckOut.After(b.CheckIn)
}

// IsAvailable reports whether candidate overlaps none of existing.
func IsAvailable(candidate DateRange, existing []DateRange) bool {
	for _, r := range existing {
		if Overlaps(candidate, r) {
			return false
		}
	}
	return true
}

func ranges(bookings []*Booking) []DateRange {
	out := make([]DateRange, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, b.Range())
	}
	return out
}
