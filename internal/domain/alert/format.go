package alert

import "strconv"

// signed renders an int64 with an explicit plus sign and thin thousands
// grouping, e.g. +12 345.
func signed(v int64) string {
	s := group(v)
	if v > 0 {
		return "+" + s
	}
	return s
}

func signedInt(v int) string { return signed(int64(v)) }

func group(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := strconv.FormatInt(v, 10)

	var out []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, ' ')
		}
		out = append(out, d)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}
