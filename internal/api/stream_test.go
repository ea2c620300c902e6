package api

import (
	"bufio"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishFanout(t *testing.T) {
	hub := NewStreamHub()

	a := hub.subscribe()
	b := hub.subscribe()
	defer hub.unsubscribe(a)
	defer hub.unsubscribe(b)

	hub.Publish([]byte("frame"))

	assert.Equal(t, "frame", string(<-a))
	assert.Equal(t, "frame", string(<-b))
}

func TestHubSlowClientDropsFrames(t *testing.T) {
	hub := NewStreamHub()

	ch := hub.subscribe()
	defer hub.unsubscribe(ch)

	for i := 0; i < streamBuffer+10; i++ {
		hub.Publish([]byte("x"))
	}

	// The buffered frames survive; the overflow was dropped without
	// blocking the publisher.
	assert.Len(t, ch, streamBuffer)
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewStreamHub()

	ch := hub.subscribe()
	hub.unsubscribe(ch)
	hub.Publish([]byte("x"))

	assert.Empty(t, ch)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestStreamEndpointDeliversEvents(t *testing.T) {
	env := setupEnv(t)

	req, err := http.NewRequest(http.MethodGet, env.api.URL+"/telemetry/stream", nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// Wait for the subscription to register before publishing.
	deadline := time.Now().Add(2 * time.Second)
	for env.server.Hub().ClientCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	require.NotZero(t, env.server.Hub().ClientCount())

	env.server.Hub().Publish([]byte(`{"type":"stats","stats":{"total":1}}`))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(line, "data: "))
	assert.Contains(t, line, `"total":1`)
}
