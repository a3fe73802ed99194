package compat

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// MinClientVersion is the oldest theme script the sync API still speaks
// to. Older scripts predate the removal signal endpoints and would leave
// carts diverging.
const MinClientVersion = "1.2.0"

// CheckVersion validates a client-reported script version against the
// supported floor.
func CheckVersion(version string) error {
	v := normalizeVersion(version)
	if !semver.IsValid(v) {
		return fmt.Errorf("invalid client version %q", version)
	}
	if semver.Compare(v, normalizeVersion(MinClientVersion)) < 0 {
		return fmt.Errorf("client version %s is older than supported minimum %s", version, MinClientVersion)
	}
	return nil
}

// normalizeVersion adds "v" prefix if needed for semver parsing.
func normalizeVersion(v string) string {
	if v == "" {
		return "v0.0.0"
	}
	if v[0] != 'v' {
		return "v" + v
	}
	return v
}
