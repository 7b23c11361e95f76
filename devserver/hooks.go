package devserver

import "sync"

// hooks let tests provoke the failure modes the client must survive
type hooks struct {
	mu                sync.Mutex
	forceUnauthorized int
	failRenewals      bool
	failCreates       map[int64]bool
	calls             map[string]int
}

func newHooks() *hooks {
	return &hooks{failCreates: map[int64]bool{}, calls: map[string]int{}}
}

// ForceUnauthorized makes the next n authenticated requests fail with 401 regardless of their token
func (s *Server) ForceUnauthorized(n int) {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.forceUnauthorized = n
}

// FailRenewals makes the refresh endpoint reject every token
func (s *Server) FailRenewals(fail bool) {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.failRenewals = fail
}

// FailCreatesFor makes cart and favorite creation fail for productID
func (s *Server) FailCreatesFor(productID int64, fail bool) {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.failCreates[productID] = fail
}

// Calls returns how many requests matched route, written as "METHOD /path/:param"
func (s *Server) Calls(route string) int {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	return s.hooks.calls[route]
}

func (s *Server) ResetCalls() {
	s.hooks.mu.Lock()
	defer s.hooks.mu.Unlock()
	s.hooks.calls = map[string]int{}
}

func (h *hooks) takeUnauthorized() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.forceUnauthorized <= 0 {
		return false
	}
	h.forceUnauthorized--
	return true
}

func (h *hooks) renewalsFail() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.failRenewals
}

func (h *hooks) createFails(productID int64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.failCreates[productID]
}

func (h *hooks) count(route string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls[route]++
}
