package scope

import (
	"fmt"
	"net/url"
	"sync"
)

// GameIDParam is the query parameter carrying the requested game.
const GameIDParam = "gameId"

// Signal is a read-only "requested game" value with change notification.
type Signal interface {
	Value() string
	Subscribe(fn func(string)) (unsubscribe func())
}

// QuerySignal reads the requested game from URL query values.
type QuerySignal struct {
	mu     sync.RWMutex
	value  string
	subs   map[int]func(string)
	nextID int
}

func NewQuerySignal(query url.Values) *QuerySignal {
	return &QuerySignal{
		value: query.Get(GameIDParam),
		subs:  make(map[int]func(string)),
	}
}

// ParseQuerySignal builds a signal from a raw query string such as
// "gameId=51".
func ParseQuerySignal(rawQuery string) (*QuerySignal, error) {
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to parse query: %w", err)
	}
	return NewQuerySignal(query), nil
}

func (q *QuerySignal) Value() string {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.value
}

// Set changes the value and notifies subscribers when it differs.
func (q *QuerySignal) Set(value string) {
	q.mu.Lock()
	if q.value == value {
		q.mu.Unlock()
		return
	}
	q.value = value
	fns := make([]func(string), 0, len(q.subs))
	for _, fn := range q.subs {
		fns = append(fns, fn)
	}
	q.mu.Unlock()

	for _, fn := range fns {
		fn(value)
	}
}

// SetQuery is Set with the gameId taken from query.
func (q *QuerySignal) SetQuery(query url.Values) {
	q.Set(query.Get(GameIDParam))
}

func (q *QuerySignal) Subscribe(fn func(string)) (unsubscribe func()) {
	q.mu.Lock()
	id := q.nextID
	q.nextID++
	q.subs[id] = fn
	q.mu.Unlock()

	return func() {
		q.mu.Lock()
		delete(q.subs, id)
		q.mu.Unlock()
	}
}
