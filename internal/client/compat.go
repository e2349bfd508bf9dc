package client

import (
	"fmt"
	"strings"

	"github.com/blang/semver/v4"

	"lexdesk/internal/types"
)

// CheckCompatibility accepts a server API version with the same major as
// this client and a minor no older than it.
func CheckCompatibility(serverVersion string) error {
	want := semver.MustParse(types.APIVersion)
	raw := strings.TrimPrefix(strings.TrimSpace(serverVersion), "v")
	if raw == "" {
		return fmt.Errorf("server did not report an api version (need %s)", want)
	}
	got, err := semver.Parse(raw)
	if err != nil {
		return fmt.Errorf("server api version %q: %w", serverVersion, err)
	}
	if got.Major != want.Major {
		return fmt.Errorf("server api version %s is incompatible with %s", got, want)
	}
	if got.Minor < want.Minor {
		return fmt.Errorf("server api version %s is older than %s", got, want)
	}
	return nil
}
