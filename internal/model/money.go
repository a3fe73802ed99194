package model

import "strconv"

// ParseMinorUnits converts string amounts already in minor units to int64.
// The storefront AJAX cart API reports prices in minor units natively;
// currency-conversion apps echo them back as quoted strings in this
// format ("8900" = $89.00).
// Examples: "8900" → 8900, "123456" → 123456, "" → 0
func ParseMinorUnits(s string) int64 {
	if s == "" {
		return 0
	}
	// Parse as float to handle potential decimal values, then truncate
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(f)
}
