package numeric

import "github.com/holiman/uint256"

// formatScaled renders raw as a decimal string with the last scale digits
// treated as the fractional part, the way every scaled type's String does.
func formatScaled(raw *uint256.Int, scale int) string {
	s := raw.Dec()
	if scale == 0 {
		return s
	}
	for len(s) <= scale {
		s = "0" + s
	}
	intPart := s[:len(s)-scale]
	fracPart := s[len(s)-scale:]
	return intPart + "." + fracPart
}
