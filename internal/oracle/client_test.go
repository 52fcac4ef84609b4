package oracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/feeds/FLR-USD", r.URL.Path)
		json.NewEncoder(w).Encode(Feed{
			FeedID:    "FLR-USD",
			Price:     "2050",
			Decimals:  5,
			Timestamp: 1700000000,
		})
	}))
	defer server.Close()

	client, err := NewClient(server.URL)
	require.NoError(t, err)

	feed, err := client.GetFeed(context.Background(), "FLR-USD")
	require.NoError(t, err)
	assert.Equal(t, "2050", feed.Price)
	assert.Equal(t, uint8(5), feed.Decimals)
	assert.Equal(t, int64(1700000000), feed.ReadAt().Unix())
}

func TestGetFeedErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "not-found", status: http.StatusNotFound},
		{name: "server-error", status: http.StatusInternalServerError},
		{name: "empty-price", status: http.StatusOK, body: `{"feed_id":"FLR-USD","price":""}`},
		{name: "malformed-body", status: http.StatusOK, body: `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				if tt.body != "" {
					w.Write([]byte(tt.body))
				}
			}))
			defer server.Close()

			client, err := NewClient(server.URL)
			require.NoError(t, err)
			_, err = client.GetFeed(context.Background(), "FLR-USD")
			assert.Error(t, err)
		})
	}
}

func TestStreamDeliversUpdates(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		defer conn.Close()

		// Expect the subscription first.
		var sub subscribeMessage
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(payload, &sub))
		assert.Equal(t, "subscribe", sub.Type)
		assert.Equal(t, []string{"FLR-USD"}, sub.FeedIDs)

		update, _ := json.Marshal(Feed{FeedID: "FLR-USD", Price: "2100", Decimals: 5, Timestamp: 1700000001})
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, update))

		// Hold the connection open until the client goes away.
		conn.ReadMessage()
	}))
	defer server.Close()

	stream, err := NewStream(StreamConfig{
		URL:     "ws" + server.URL[len("http"):],
		FeedIDs: []string{"FLR-USD"},
	})
	require.NoError(t, err)
	require.NoError(t, stream.Start())
	defer stream.Stop()

	select {
	case feed := <-stream.Updates():
		assert.Equal(t, "FLR-USD", feed.FeedID)
		assert.Equal(t, "2100", feed.Price)
	case <-time.After(5 * time.Second):
		t.Fatal("no update delivered")
	}
	assert.True(t, stream.Connected())
}

func TestNewStreamValidation(t *testing.T) {
	_, err := NewStream(StreamConfig{FeedIDs: []string{"FLR-USD"}})
	assert.Error(t, err)

	_, err = NewStream(StreamConfig{URL: "ws://localhost"})
	assert.Error(t, err)
}
