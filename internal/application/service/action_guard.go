package service

import (
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/garyjia/clinic-invoice/internal/domain/entity"
)

// actionGuard coalesces concurrent invocations of the same action onto one call
// and tracks which actions are in flight.
type actionGuard struct {
	group singleflight.Group

	mu       sync.Mutex
	inFlight map[entity.Action]int
}

func newActionGuard() *actionGuard {
	return &actionGuard{inFlight: make(map[entity.Action]int)}
}

// do runs fn unless a call with the same action and key is outstanding, in which
// case it waits for that call and returns its result. shared reports the latter.
func (g *actionGuard) do(action entity.Action, key string, fn func() (interface{}, error)) (v interface{}, shared bool, err error) {
	flightKey := string(action)
	if key != "" {
		flightKey += ":" + key
	}

	v, err, shared = g.group.Do(flightKey, func() (interface{}, error) {
		g.enter(action)
		defer g.leave(action)
		return fn()
	})
	return v, shared, err
}

func (g *actionGuard) enter(action entity.Action) {
	g.mu.Lock()
	g.inFlight[action]++
	g.mu.Unlock()
}

func (g *actionGuard) leave(action entity.Action) {
	g.mu.Lock()
	if g.inFlight[action] <= 1 {
		delete(g.inFlight, action)
	} else {
		g.inFlight[action]--
	}
	g.mu.Unlock()
}

// busy returns the actions currently in flight, sorted
func (g *actionGuard) busy() []entity.Action {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]entity.Action, 0, len(g.inFlight))
	for action := range g.inFlight {
		out = append(out, action)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
