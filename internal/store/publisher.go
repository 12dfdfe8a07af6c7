package store

import "sync"

// publisher delivers versioned states to subscribers one at a time. A
// state published while a delivery is under way is queued and replaces
// any queued state with a lower version, so subscribers always end on the
// highest version published and never see versions go backwards.
type publisher[T any] struct {
	mu        sync.Mutex
	subs      map[int]func(T)
	nextID    int
	pending   *T
	pendingV  uint64
	delivered uint64
	busy      bool
}

func newPublisher[T any]() *publisher[T] {
	return &publisher[T]{subs: make(map[int]func(T))}
}

func (p *publisher[T]) subscribe(fn func(T)) (unsubscribe func()) {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

// publish hands state to every subscriber unless a newer version has
// already been delivered or queued. When another goroutine is delivering,
// publish returns at once and that goroutine delivers state after its
// current one.
func (p *publisher[T]) publish(version uint64, state T) {
	p.mu.Lock()
	if version <= p.delivered || (p.pending != nil && version <= p.pendingV) {
		p.mu.Unlock()
		return
	}
	p.pending, p.pendingV = &state, version
	if p.busy {
		p.mu.Unlock()
		return
	}
	p.busy = true

	for p.pending != nil {
		next := *p.pending
		p.delivered = p.pendingV
		p.pending = nil

		fns := make([]func(T), 0, len(p.subs))
		for _, fn := range p.subs {
			fns = append(fns, fn)
		}
		p.mu.Unlock()

		for _, fn := range fns {
			fn(next)
		}
		p.mu.Lock()
	}
	p.busy = false
	p.mu.Unlock()
}
