// Package session owns the canonical in-memory client state: the current
// user, the list caches, the entities open for detail viewing, and the
// refresh counter every mutation bumps. Views hold only transient drafts;
// anything authoritative lives here and is mutated through setters.
package session

import (
	"log/slog"
	"sync"

	"github.com/cartcompass/cartcompass/internal/entity"
)

// Store is the session state container. It is dependency-injected rather
// than a package-level singleton, and safe for use from concurrent fetches.
type Store struct {
	mu sync.Mutex

	user           entity.User
	refresh        uint64
	displayReceipt entity.Receipt
	displayItem    entity.Item
	receiptList    []entity.Receipt
	itemList       []entity.Item

	authenticateActive bool
	compareItemActive  bool

	generations map[Resource]uint64

	subs   map[int]*subscriber
	nextID int

	logger *slog.Logger
}

// NewStore returns a store initialized to the anonymous sentinel state.
func NewStore(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		user:           entity.BaseUser,
		displayReceipt: entity.BaseReceipt,
		displayItem:    entity.BaseItem,
		generations:    make(map[Resource]uint64),
		subs:           make(map[int]*subscriber),
		logger:         logger,
	}
}

// User returns the current identity.
func (s *Store) User() entity.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// SetUser replaces the user wholesale. When the identity actually changes,
// the dependent list caches and display entities are cleared in the same
// critical section so no reader ever sees the new user next to the old
// user's data.
func (s *Store) SetUser(user entity.User) {
	s.mu.Lock()
	identityChanged := s.user.UserUUID != user.UserUUID
	s.user = user
	if identityChanged {
		s.receiptList = nil
		s.itemList = nil
		s.displayReceipt = entity.BaseReceipt
		s.displayItem = entity.BaseItem
	}
	s.mu.Unlock()

	if identityChanged {
		s.publish(ResourceUser)
		s.publish(ResourceReceipts)
		s.publish(ResourceItems)
	}
}

// Refresh returns the current value of the refresh counter.
func (s *Store) Refresh() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh
}

// MarkMutated records one successful create/edit/delete against a resource
// kind. The counter increases by exactly one and subscribers displaying
// that kind are told to refetch. Failed mutations never come through here.
func (s *Store) MarkMutated(res Resource) uint64 {
	s.mu.Lock()
	s.refresh++
	value := s.refresh
	s.mu.Unlock()

	s.logger.Debug("session.mutated", "resource", string(res), "refresh", value)
	s.publish(res)
	return value
}

// Reset returns the whole session to the anonymous sentinel state: user,
// caches, display entities, and the refresh counter. This is the logout
// path and the only place the counter goes backwards.
func (s *Store) Reset() {
	s.mu.Lock()
	s.user = entity.BaseUser
	s.refresh = 0
	s.receiptList = nil
	s.itemList = nil
	s.displayReceipt = entity.BaseReceipt
	s.displayItem = entity.BaseItem
	s.mu.Unlock()

	// The list caches vanished with the identity; every kind is stale.
	s.publish(ResourceUser)
	s.publish(ResourceReceipts)
	s.publish(ResourceItems)
}

// ReceiptList returns the last-fetched receipt snapshot.
func (s *Store) ReceiptList() []entity.Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receiptList
}

// ItemList returns the last-fetched item snapshot.
func (s *Store) ItemList() []entity.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.itemList
}

// DisplayReceipt returns the receipt open for detail viewing.
func (s *Store) DisplayReceipt() entity.Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayReceipt
}

// SetDisplayReceipt records the receipt being opened for detail viewing.
func (s *Store) SetDisplayReceipt(receipt entity.Receipt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.displayReceipt = receipt
}

// ResetDisplayReceipt returns the display receipt to the sentinel, called on
// navigation away from a detail view.
func (s *Store) ResetDisplayReceipt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.displayReceipt = entity.BaseReceipt
}

// DisplayItem returns the item open in the compare view.
func (s *Store) DisplayItem() entity.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.displayItem
}

// SetDisplayItem records the item being compared.
func (s *Store) SetDisplayItem(item entity.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.displayItem = item
}

// ToggleAuthenticate flips the authentication modal flag and returns the new
// value. The flag is only ever flipped, never set directly.
func (s *Store) ToggleAuthenticate() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticateActive = !s.authenticateActive
	return s.authenticateActive
}

// AuthenticateActive reports whether the authentication modal is open.
func (s *Store) AuthenticateActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticateActive
}

// ToggleCompare flips the compare modal flag and returns the new value.
func (s *Store) ToggleCompare() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compareItemActive = !s.compareItemActive
	return s.compareItemActive
}

// CompareActive reports whether the compare modal is open.
func (s *Store) CompareActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.compareItemActive
}

// BeginFetch issues a new generation number for a list fetch. In-flight
// requests are never cancelled; instead a response is applied only when its
// generation is still the latest issued for that resource, which suppresses
// late-arriving responses aimed at stale state.
func (s *Store) BeginFetch(res Resource) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[res]++
	return s.generations[res]
}

// ApplyReceipts installs a fetched receipt snapshot (full replace, never a
// merge) if gen is still current. Returns false when the response was stale
// and discarded.
func (s *Store) ApplyReceipts(gen uint64, list []entity.Receipt) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generations[ResourceReceipts] {
		s.logger.Debug("session.stale_response", "resource", string(ResourceReceipts), "gen", gen)
		return false
	}
	s.receiptList = list
	return true
}

// ApplyItems installs a fetched item snapshot if gen is still current.
func (s *Store) ApplyItems(gen uint64, list []entity.Item) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generations[ResourceItems] {
		s.logger.Debug("session.stale_response", "resource", string(ResourceItems), "gen", gen)
		return false
	}
	s.itemList = list
	return true
}
