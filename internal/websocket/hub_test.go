package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/isdelr/portal-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub, userID string) *Client {
	return &Client{hub: hub, UserID: userID, Send: make(chan []byte, 4)}
}

func receive(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case raw, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
		return Message{}
	}
}

func TestHub_PublishActivityReachesOnlyOwner(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	ana1 := newTestClient(hub, "ana")
	ana2 := newTestClient(hub, "ana")
	bob := newTestClient(hub, "bob")
	hub.Add(ana1)
	hub.Add(ana2)
	hub.Add(bob)

	hub.PublishActivity(models.Activity{ID: "a1", UserID: "ana", Type: models.ActivityLogin})

	for _, c := range []*Client{ana1, ana2} {
		msg := receive(t, c)
		assert.Equal(t, ActionActivity, msg.Action)
		payload, ok := msg.Payload.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "a1", payload["id"])
	}

	select {
	case <-bob.Send:
		t.Fatal("bob must not receive ana's activity")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_RemoveClosesSend(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	c := newTestClient(hub, "ana")
	hub.Add(c)
	hub.Remove(c)

	select {
	case _, ok := <-c.Send:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("send channel not closed")
	}
}

func TestHub_StopIsSafeForLateCallers(t *testing.T) {
	hub := NewHub()
	stopped := make(chan struct{})
	go func() {
		hub.Run()
		close(stopped)
	}()

	c := newTestClient(hub, "ana")
	hub.Add(c)
	hub.Stop()
	<-stopped

	// None of these may block after the hub stopped.
	hub.Remove(c)
	hub.PublishActivity(models.Activity{UserID: "ana"})
	late := newTestClient(hub, "ana")
	hub.Add(late)

	_, ok := <-late.Send
	assert.False(t, ok)
}
