package remote

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseRetryAfter_ValidSeconds(t *testing.T) {
	d, ok := parseRetryAfter("30")
	require.True(t, ok)
	require.Equal(t, 30*time.Second, d)
}

func TestParseRetryAfter_EmptyIsAbsent(t *testing.T) {
	_, ok := parseRetryAfter("")
	require.False(t, ok)
}

func TestParseRetryAfter_HTTPDateFormIsUnsupported(t *testing.T) {
	// Hosted chat rate-limit responses only send delta-seconds; an
	// HTTP-date value is treated as absent rather than misparsed.
	_, ok := parseRetryAfter("Wed, 21 Oct 2026 07:28:00 GMT")
	require.False(t, ok)
}

func TestNew_RejectsMissingCredential(t *testing.T) {
	_, err := New("", "gpt-4o-mini")
	require.Error(t, err)
}

func TestNew_RejectsMissingModel(t *testing.T) {
	_, err := New("sk-test", "")
	require.Error(t, err)
}
