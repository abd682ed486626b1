package client

import (
	"context"
	"net/http"
	"sync"
)

// Connectivity tracks whether the server was reachable at the last probe.
// Screens hold one and pass it down; writes made while offline are not
// queued.
type Connectivity struct {
	client *Client

	mu      sync.RWMutex
	online  bool
	loading bool
}

func NewConnectivity(c *Client) *Connectivity {
	return &Connectivity{client: c}
}

func (s *Connectivity) IsOnline() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.online
}

func (s *Connectivity) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Sync probes /healthz and records the outcome.  A degraded server (503)
// counts as offline.  The returned error is the probe failure, if any.
func (s *Connectivity) Sync(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	_, err := s.client.do(ctx, http.MethodGet, "/healthz", nil, nil)

	s.mu.Lock()
	s.online = err == nil
	s.loading = false
	s.mu.Unlock()
	return err
}
