package revocation

import (
	"fmt"
	"time"

	"oidcprovider/pkg/platform/sentinel"
)

// Clock returns the current time.
type Clock func() time.Time

// GrantEntry is the list entry that revokes every token minted from a
// grant. Token jtis are stored under their own value.
func GrantEntry(grantID string) string {
	return "gid:" + grantID
}

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive: %w", sentinel.ErrInvalidState)
	}
	return nil
}

func nonEmpty(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			out = append(out, id)
		}
	}
	return out
}
