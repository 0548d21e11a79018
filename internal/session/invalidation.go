package session

// Resource names a kind of cached data. Invalidation events carry the kind
// so a subscriber refetches only what it displays, instead of one global
// counter conflating every list.
type Resource string

const (
	ResourceUser     Resource = "user"
	ResourceReceipts Resource = "receipts"
	ResourceItems    Resource = "items"
)

// Event tells a subscriber its resource kind changed and must be refetched.
// Refresh is the counter value at publish time; subscribers treat any new
// value as "invalidate and refetch", never interpreting it further.
type Event struct {
	Resource Resource
	Refresh  uint64
}

type subscriber struct {
	ch    chan Event
	kinds map[Resource]bool
}

// Subscribe registers interest in the given resource kinds (all kinds when
// none are named). Events coalesce: a subscriber that has not drained its
// channel sees only the newest event, which is enough because every event
// means the same thing. The returned cancel func must be called when the
// consumer goes away.
func (s *Store) Subscribe(kinds ...Resource) (<-chan Event, func()) {
	sub := &subscriber{
		ch:    make(chan Event, 1),
		kinds: make(map[Resource]bool, len(kinds)),
	}
	for _, k := range kinds {
		sub.kinds[k] = true
	}

	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = sub
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
	return sub.ch, cancel
}

// publish fans an invalidation out to every subscriber interested in res.
// Must be called without the store lock held.
func (s *Store) publish(res Resource) {
	s.mu.Lock()
	refresh := s.refresh
	targets := make([]*subscriber, 0, len(s.subs))
	for _, sub := range s.subs {
		if len(sub.kinds) == 0 || sub.kinds[res] {
			targets = append(targets, sub)
		}
	}
	s.mu.Unlock()

	ev := Event{Resource: res, Refresh: refresh}
	for _, sub := range targets {
		select {
		case sub.ch <- ev:
		default:
			// Coalesce: replace the undelivered event with the newer one.
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- ev:
			default:
			}
		}
	}
}
