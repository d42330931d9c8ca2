package tictactoe

import (
	"sync"

	"github.com/rocketscienceinc/tictactoe-solo/internal/entity"
)

// Observer receives every snapshot the engine publishes.
type Observer func(state entity.GameState)

type subscription struct {
	id       uint64
	observer Observer
}

// StateHolder owns the latest snapshot and notifies observers when it is replaced.
// It is safe to read and subscribe from any goroutine; only the engine writes.
type StateHolder struct {
	mu            sync.RWMutex
	current       entity.GameState
	nextID        uint64
	subscriptions []subscription
}

func NewStateHolder(initial entity.GameState) *StateHolder {
	return &StateHolder{current: initial}
}

// Get returns the current snapshot.
func (that *StateHolder) Get() entity.GameState {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.current
}

// Subscribe registers observer for all later snapshots. Observers are called in
// subscription order on the goroutine that changed the state.
func (that *StateHolder) Subscribe(observer Observer) func() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.nextID++
	id := that.nextID
	that.subscriptions = append(that.subscriptions, subscription{id: id, observer: observer})

	var once sync.Once
	return func() {
		once.Do(func() {
			that.unsubscribe(id)
		})
	}
}

func (that *StateHolder) unsubscribe(id uint64) {
	that.mu.Lock()
	defer that.mu.Unlock()

	for i, sub := range that.subscriptions {
		if sub.id == id {
			that.subscriptions = append(that.subscriptions[:i:i], that.subscriptions[i+1:]...)
			return
		}
	}
}

func (that *StateHolder) set(state entity.GameState) {
	that.mu.Lock()
	that.current = state
	subscriptions := that.subscriptions
	that.mu.Unlock()

	for _, sub := range subscriptions {
		sub.observer(state)
	}
}
