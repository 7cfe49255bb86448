package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bitfantasy/nimo-hq/internal/ir/testutil"
	"github.com/bitfantasy/nimo-hq/internal/shared/sse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSSEStreamDeliversBranchEvents(t *testing.T) {
	hub := sse.NewHub(zap.NewNop())
	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	api.GET("/events", NewSSEHandler(hub).Stream)

	ctx, cancel := context.WithCancel(context.Background())
	token := testutil.GenerateTestToken("u-bj-mgr", "br-bj", "branch_manager")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/events?token="+token, nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		router.ServeHTTP(w, req)
		close(done)
	}()

	waitFor(t, func() bool { return hub.Count() == 1 })
	hub.Publish("br-sh", "requisition_update", map[string]string{"ir_number": "IR-SH01-2610-0001"})
	hub.Publish("br-bj", "requisition_update", map[string]string{"ir_number": "IR-BJ01-2610-0001"})
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not stop after client disconnect")
	}

	body := w.Body.String()
	require.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Contains(t, body, "event: connected")
	assert.Contains(t, body, "event: requisition_update\ndata: {\"ir_number\":\"IR-BJ01-2610-0001\"}")
	assert.NotContains(t, body, "IR-SH01")
	assert.Zero(t, hub.Count())
}
