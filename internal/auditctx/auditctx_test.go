package auditctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOriginRoundTrip(t *testing.T) {
	ctx := WithOrigin(context.Background(), Origin{IPAddress: "10.0.0.1", UserAgent: "curl/8"})

	origin, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, "10.0.0.1", origin.IPAddress)
	require.Equal(t, "curl/8", origin.UserAgent)
}

func TestFromContextWithoutOrigin(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)

	_, ok = FromContext(nil)
	require.False(t, ok)

	origin, ok := FromContext(WithOrigin(nil, Origin{RequestID: "req-1"}))
	require.True(t, ok)
	require.Equal(t, "req-1", origin.RequestID)
}
