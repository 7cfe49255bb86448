package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishRoutesByBranch(t *testing.T) {
	hub := NewHub(nil)

	hq := &Client{ID: "hq", UserID: "u-hq", AllBranches: true, Events: make(chan Event, 4)}
	bj := &Client{ID: "bj", UserID: "u-bj", BranchID: "br-bj", Events: make(chan Event, 4)}
	sh := &Client{ID: "sh", UserID: "u-sh", BranchID: "br-sh", Events: make(chan Event, 4)}
	hub.Register(hq)
	hub.Register(bj)
	hub.Register(sh)
	require.Equal(t, 3, hub.Count())

	hub.Publish("br-bj", "requisition_update", map[string]string{"id": "r1", "status": "approved"})

	require.Len(t, hq.Events, 1)
	require.Len(t, bj.Events, 1)
	assert.Len(t, sh.Events, 0)

	ev := <-bj.Events
	assert.Equal(t, "requisition_update", ev.EventType)
	assert.JSONEq(t, `{"id":"r1","status":"approved"}`, ev.Data)
}

func TestHubSkipsFullClients(t *testing.T) {
	hub := NewHub(nil)
	c := &Client{ID: "c", AllBranches: true, Events: make(chan Event, 1)}
	hub.Register(c)

	hub.Publish("b", "e", 1)
	hub.Publish("b", "e", 2)

	assert.Len(t, c.Events, 1)

	hub.Unregister("c")
	assert.Equal(t, 0, hub.Count())
	_, open := <-c.Events
	assert.True(t, open) // buffered event still readable
	_, open = <-c.Events
	assert.False(t, open)
}
