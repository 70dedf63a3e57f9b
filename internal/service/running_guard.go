package service

import (
	"context"
	"sync"
)

// rollupGuard serializes metric rollups per UTC day. A second rollup for a
// day that is still being computed is refused rather than queued, and
// shutdown can wait for the in-flight ones. The zero value is ready to use.
type rollupGuard struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
	wg       sync.WaitGroup
}

// TryLock claims date. It returns false while another rollup holds it.
func (g *rollupGuard) TryLock(date string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.inFlight[date]; busy {
		return false
	}
	if g.inFlight == nil {
		g.inFlight = make(map[string]struct{})
	}
	g.inFlight[date] = struct{}{}
	g.wg.Add(1)
	return true
}

// Unlock releases a date claimed by TryLock.
func (g *rollupGuard) Unlock(date string) {
	g.mu.Lock()
	delete(g.inFlight, date)
	g.mu.Unlock()
	g.wg.Done()
}

// Do runs fn while holding date. ran is false, and fn is not called, when
// the date is already claimed.
func (g *rollupGuard) Do(date string, fn func() error) (ran bool, err error) {
	if !g.TryLock(date) {
		return false, nil
	}
	defer g.Unlock(date)
	return true, fn()
}

// WaitAll returns once no rollup is in flight or ctx is done.
func (g *rollupGuard) WaitAll(ctx context.Context) {
	idle := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(idle)
	}()
	select {
	case <-idle:
	case <-ctx.Done():
	}
}
