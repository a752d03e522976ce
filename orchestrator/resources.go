package orchestrator

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ResourceType names an external resource shared by concurrent runs.
type ResourceType string

const (
	ResourceDownload   ResourceType = "download"   // yt-dlp processes
	ResourceTranscribe ResourceType = "transcribe" // speech recognition jobs
)

// ResourceConstraint defines limits for a resource type
type ResourceConstraint struct {
	Type     ResourceType
	MaxSlots int
}

// Limiter bounds how many runs use each resource at once. Types without a
// constraint are unlimited.
type Limiter struct {
	sems map[ResourceType]*semaphore.Weighted

	mu     sync.Mutex
	active map[ResourceType]int
	max    map[ResourceType]int
}

// NewLimiter creates a limiter from constraints. Non-positive limits are
// ignored.
func NewLimiter(constraints []ResourceConstraint) *Limiter {
	l := &Limiter{
		sems:   make(map[ResourceType]*semaphore.Weighted),
		active: make(map[ResourceType]int),
		max:    make(map[ResourceType]int),
	}
	for _, c := range constraints {
		if c.MaxSlots <= 0 {
			continue
		}
		l.sems[c.Type] = semaphore.NewWeighted(int64(c.MaxSlots))
		l.max[c.Type] = c.MaxSlots
	}
	return l
}

// Acquire blocks until a slot of rt is free or ctx is done. The returned
// release func must be called exactly once.
func (l *Limiter) Acquire(ctx context.Context, rt ResourceType) (release func(), err error) {
	if l == nil {
		return func() {}, nil
	}
	sem, ok := l.sems[rt]
	if ok {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
	}

	l.mu.Lock()
	l.active[rt]++
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.active[rt]--
			l.mu.Unlock()
			if ok {
				sem.Release(1)
			}
		})
	}, nil
}

// Stats returns active and maximum slots per resource. Constrained
// resources are always listed, idle or not.
func (l *Limiter) Stats() map[string]interface{} {
	stats := make(map[string]interface{})
	if l == nil {
		return stats
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	for rt, n := range l.active {
		stats[string(rt)+"_active"] = n
	}
	for rt, n := range l.max {
		stats[string(rt)+"_max"] = n
		stats[string(rt)+"_active"] = l.active[rt]
	}
	return stats
}
