package lead_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"lead-gateway/internal/lead"
)

func TestEventIDFormat(t *testing.T) {
	at := time.UnixMilli(1760000000123)
	require.Equal(t, "u1_Lead_1760000000123_abcdefghi", lead.EventID("u1", at, "abcdefghi"))
	require.Equal(t, "anonymous_Lead_1760000000123_abcdefghi", lead.EventID("", at, "abcdefghi"))
}

func TestRandomSuffix(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-z]{9}$`)
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		s := lead.RandomSuffix()
		require.Regexp(t, pattern, s)
		seen[s] = struct{}{}
	}
	require.Len(t, seen, 1000)
}
