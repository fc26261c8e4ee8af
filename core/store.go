package core

import (
	"reflect"
	"unsafe"
)

// DefaultSlotCapacity is the largest value, in bytes, a Store slot accepts
// unless configured otherwise.
const DefaultSlotCapacity = 1024

// StoreConfig holds construction options for a Store.
type StoreConfig struct {
	// SlotCapacity bounds unsafe.Sizeof of stored values. Zero disables the check.
	SlotCapacity uintptr
}

// DefaultStoreConfig returns the default store configuration.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{SlotCapacity: DefaultSlotCapacity}
}

// slot is a type-erased storage location. Each index of a Store gets exactly
// one slot, allocated on first Create and reused afterwards.
type slot interface {
	valueType() reflect.Type
	occupied() bool
	reset()
}

type cell[T any] struct {
	value T
	full  bool
}

func (c *cell[T]) valueType() reflect.Type { return typeOf[T]() }
func (c *cell[T]) occupied() bool          { return c.full }

func (c *cell[T]) reset() {
	var zero T
	c.value = zero
	c.full = false
}

// Store holds at most one value per type, addressed by the type's index in
// domain D. Many stores may share one TypeIndexer and therefore one index
// space.
//
// A Store is not safe for concurrent mutation; it is meant to be owned by a
// single subsystem. Create, Has, Any, Get and Remove are package functions
// because they are parameterised by the value type.
type Store[D any] struct {
	ix           *TypeIndexer
	slots        []slot
	slotCapacity uintptr
}

// NewStore creates an empty store indexed by ix with the default config.
func NewStore[D any](ix *TypeIndexer) *Store[D] {
	return NewStoreWithConfig[D](ix, DefaultStoreConfig())
}

// NewStoreWithConfig creates an empty store indexed by ix.
func NewStoreWithConfig[D any](ix *TypeIndexer, config StoreConfig) *Store[D] {
	if ix == nil {
		panic("Store: indexer must not be nil")
	}
	return &Store[D]{ix: ix, slotCapacity: config.SlotCapacity}
}

// Indexer returns the TypeIndexer the store resolves indices with.
func (s *Store[D]) Indexer() *TypeIndexer {
	return s.ix
}

// Len returns the number of slots, occupied or not.
func (s *Store[D]) Len() int {
	return len(s.slots)
}

// Occupied returns the number of slots currently holding a value.
func (s *Store[D]) Occupied() int {
	n := 0
	for _, sl := range s.slots {
		if sl != nil && sl.occupied() {
			n++
		}
	}
	return n
}

// Clear destroys every stored value. The slot sequence keeps its length so
// indices stay valid for later Create calls.
func (s *Store[D]) Clear() {
	for _, sl := range s.slots {
		if sl != nil && sl.occupied() {
			sl.reset()
		}
	}
}

// Types lists the value types currently stored, in index order.
func (s *Store[D]) Types() []reflect.Type {
	var out []reflect.Type
	for _, sl := range s.slots {
		if sl != nil && sl.occupied() {
			out = append(out, sl.valueType())
		}
	}
	return out
}

func (s *Store[D]) grow(idx int) {
	if idx < len(s.slots) {
		return
	}
	if idx < cap(s.slots) {
		s.slots = s.slots[:idx+1]
		return
	}
	next := make([]slot, idx+1, max(2*cap(s.slots), idx+1))
	copy(next, s.slots)
	s.slots = next
}

// Create stores value as the instance of T and returns a pointer to the
// stored copy. It panics with ErrSlotOccupied if T is already present and
// ErrSlotTooLarge if T exceeds the configured slot capacity.
func Create[T, D any](s *Store[D], value T) *T {
	c := claim[T](s, "Create")
	c.value = value
	c.full = true
	return &c.value
}

// Emplace stores the zero value of T and initialises it in place with init.
func Emplace[T, D any](s *Store[D], init func(*T)) *T {
	c := claim[T](s, "Emplace")
	c.full = true
	if init != nil {
		init(&c.value)
	}
	return &c.value
}

func claim[T, D any](s *Store[D], op string) *cell[T] {
	if s.slotCapacity > 0 {
		var zero T
		if unsafe.Sizeof(zero) > s.slotCapacity {
			usagePanic(op, typeName(typeOf[T]()), ErrSlotTooLarge)
		}
	}
	idx := GetIndex[T, D](s.ix)
	s.grow(idx)
	if s.slots[idx] == nil {
		c := &cell[T]{}
		s.slots[idx] = c
		return c
	}
	c, ok := s.slots[idx].(*cell[T])
	if !ok {
		usagePanic(op, typeName(typeOf[T]()), ErrTypeMismatch)
	}
	if c.full {
		usagePanic(op, typeName(typeOf[T]()), ErrSlotOccupied)
	}
	return c
}

// lookup finds the slot for T without registering T.
func lookup[T, D any](s *Store[D]) (c *cell[T], mismatch bool) {
	idx, ok := LookupIndex[T, D](s.ix)
	if !ok || idx >= len(s.slots) || s.slots[idx] == nil {
		return nil, false
	}
	c, ok = s.slots[idx].(*cell[T])
	if !ok {
		return nil, true
	}
	return c, false
}

func present[T, D any](s *Store[D], op string) *cell[T] {
	c, mismatch := lookup[T](s)
	if mismatch {
		usagePanic(op, typeName(typeOf[T]()), ErrTypeMismatch)
	}
	if c == nil || !c.full {
		usagePanic(op, typeName(typeOf[T]()), ErrNotPresent)
	}
	return c
}

// Has reports whether a T is stored.
func Has[T, D any](s *Store[D]) bool {
	c, _ := lookup[T](s)
	return c != nil && c.full
}

// Has2 reports whether both A and B are stored.
func Has2[A, B, D any](s *Store[D]) bool {
	return Has[A](s) && Has[B](s)
}

// Has3 reports whether A, B and C are all stored.
func Has3[A, B, C, D any](s *Store[D]) bool {
	return Has[A](s) && Has[B](s) && Has[C](s)
}

// Has4 reports whether all four types are stored.
func Has4[A, B, C, E, D any](s *Store[D]) bool {
	return Has3[A, B, C](s) && Has[E](s)
}

// Any2 reports whether A or B is stored.
func Any2[A, B, D any](s *Store[D]) bool {
	return Has[A](s) || Has[B](s)
}

// Any3 reports whether at least one of A, B or C is stored.
func Any3[A, B, C, D any](s *Store[D]) bool {
	return Has[A](s) || Has[B](s) || Has[C](s)
}

// Any4 reports whether at least one of the four types is stored.
func Any4[A, B, C, E, D any](s *Store[D]) bool {
	return Any3[A, B, C](s) || Has[E](s)
}

// Get returns a pointer to the stored T. It panics with ErrNotPresent if no
// T is stored and ErrTypeMismatch if the slot holds a different type.
func Get[T, D any](s *Store[D]) *T {
	return &present[T](s, "Get").value
}

// TryGet returns the stored T if present.
func TryGet[T, D any](s *Store[D]) (*T, bool) {
	c, _ := lookup[T](s)
	if c == nil || !c.full {
		return nil, false
	}
	return &c.value, true
}

// Get2 returns pointers to the stored A and B.
func Get2[A, B, D any](s *Store[D]) (*A, *B) {
	return Get[A](s), Get[B](s)
}

// Get3 returns pointers to the stored A, B and C.
func Get3[A, B, C, D any](s *Store[D]) (*A, *B, *C) {
	return Get[A](s), Get[B](s), Get[C](s)
}

// Get4 returns pointers to the four stored values.
func Get4[A, B, C, E, D any](s *Store[D]) (*A, *B, *C, *E) {
	return Get[A](s), Get[B](s), Get[C](s), Get[E](s)
}

// Remove destroys the stored T and marks its slot empty. It panics with
// ErrNotPresent if no T is stored.
func Remove[T, D any](s *Store[D]) {
	present[T](s, "Remove").reset()
}

// Remove2 removes A and B.
func Remove2[A, B, D any](s *Store[D]) {
	Remove[A](s)
	Remove[B](s)
}

// Remove3 removes A, B and C.
func Remove3[A, B, C, D any](s *Store[D]) {
	Remove[A](s)
	Remove[B](s)
	Remove[C](s)
}
