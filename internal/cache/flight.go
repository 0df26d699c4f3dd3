package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// flights runs one compute per key for all concurrent callers. The compute
// context is detached from the caller that started it and is cancelled only
// when every waiting caller has gone. A caller leaving early gets its own
// context error; the last one to leave cancels the compute and takes its
// result.
type flights struct {
	mu     sync.Mutex
	group  singleflight.Group
	active map[string]*flight
}

type flight struct {
	waiters int
	cancel  context.CancelFunc
}

func (f *flights) do(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	f.mu.Lock()
	if f.active == nil {
		f.active = make(map[string]*flight)
	}

	// An active entry always has its call in the group, so a nil function
	// only ever joins it.
	var run func() (any, error)
	fl, ok := f.active[key]
	if !ok {
		cctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		fl = &flight{cancel: cancel}
		f.active[key] = fl
		run = func() (any, error) {
			defer cancel()
			defer f.finish(key, fl)
			return fn(cctx)
		}
	}
	fl.waiters++
	ch := f.group.DoChan(key, run)
	f.mu.Unlock()

	return f.wait(ctx, key, fl, ch)
}

func (f *flights) wait(ctx context.Context, key string, fl *flight, ch <-chan singleflight.Result) (any, error) {
	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
	}

	f.mu.Lock()
	fl.waiters--
	last := fl.waiters == 0
	if last {
		f.detach(key, fl)
	}
	f.mu.Unlock()

	if !last {
		return nil, ctx.Err()
	}
	fl.cancel()
	res := <-ch
	return res.Val, res.Err
}

func (f *flights) finish(key string, fl *flight) {
	f.mu.Lock()
	f.detach(key, fl)
	f.mu.Unlock()
}

// detach drops the entry so later misses start a new call. Callers hold mu.
func (f *flights) detach(key string, fl *flight) {
	if f.active[key] == fl {
		delete(f.active, key)
		f.group.Forget(key)
	}
}
