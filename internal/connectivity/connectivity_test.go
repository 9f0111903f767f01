package connectivity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestManual_NotifiesOnlyOnTransition(t *testing.T) {
	m := NewManual(true)
	var events []bool
	unsubscribe := m.Subscribe(func(online bool) { events = append(events, online) })

	m.Set(true)
	m.Set(false)
	m.Set(false)
	m.Set(true)
	assert.Equal(t, []bool{false, true}, events)
	assert.True(t, m.Online())

	unsubscribe()
	unsubscribe()
	m.Set(false)
	assert.Equal(t, []bool{false, true}, events)
}

func TestProbeMonitor_Check(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if healthy.Load() {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := resty.New().SetBaseURL(srv.URL).SetTimeout(time.Second)
	p := NewProbeMonitor(client, "", time.Second, zap.NewNop())

	var events []bool
	p.Subscribe(func(online bool) { events = append(events, online) })

	assert.True(t, p.Check(context.Background()))
	healthy.Store(false)
	assert.False(t, p.Check(context.Background()))
	assert.False(t, p.Online())
	healthy.Store(true)
	assert.True(t, p.Check(context.Background()))

	assert.Equal(t, []bool{false, true}, events)
}

func TestProbeMonitor_UnreachableIsOffline(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	p := NewProbeMonitor(resty.New().SetBaseURL(url).SetTimeout(time.Second), "/health", time.Second, zap.NewNop())
	assert.False(t, p.Check(context.Background()))
}
