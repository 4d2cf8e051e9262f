package hotkey

import "sync"

// Handler receives key-down events. Returning true consumes the event: it is
// not offered to listeners attached before this one, and the host must
// suppress the key's normal action.
type Handler func(Event) bool

// Bus is the window-level key-down listener list. Listeners attached later
// see events first.
type Bus struct {
	mu        sync.Mutex
	nextID    int
	listeners []listener
}

type listener struct {
	id int
	h  Handler
}

// Attach adds h to the bus and returns a function that removes it. The
// returned function is safe to call more than once.
func (b *Bus) Attach(h Handler) (detach func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.listeners = append(b.listeners, listener{id: id, h: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, l := range b.listeners {
		if l.id == id {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			return
		}
	}
}

// Dispatch offers ev to the attached listeners, newest first, and reports
// whether one of them consumed it. Listeners may detach themselves while
// handling.
func (b *Bus) Dispatch(ev Event) bool {
	b.mu.Lock()
	snapshot := make([]listener, len(b.listeners))
	copy(snapshot, b.listeners)
	b.mu.Unlock()

	for i := len(snapshot) - 1; i >= 0; i-- {
		if snapshot[i].h(ev) {
			return true
		}
	}
	return false
}

// Listeners returns the number of attached listeners.
func (b *Bus) Listeners() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

// Active reports whether any listener is attached.
func (b *Bus) Active() bool { return b.Listeners() > 0 }
