package batch

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eventkit/bannergen/internal/event"
)

func mustEvent(t *testing.T, s string) event.Event {
	t.Helper()
	ev, err := event.ParseBytes([]byte(s))
	require.NoError(t, err)
	return ev
}
