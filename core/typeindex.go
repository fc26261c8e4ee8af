package core

import (
	"maps"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
)

// TypeInfo describes one type registered in an index domain.
type TypeInfo struct {
	Index       int
	Name        string
	Fingerprint uint64
	Type        reflect.Type
}

// TypeIndexer assigns each value type a stable, zero-based index within an
// index domain. A domain is any Go type used purely as a tag; unrelated
// subsystems pick different domain types and get independent numbering.
//
// Indices are handed out in first-seen order and are never reused. Lookups of
// already registered types are lock-free; registration takes the domain's
// own mutex. A TypeIndexer is safe for concurrent use.
type TypeIndexer struct {
	domains sync.Map // reflect.Type -> *domainIndex
	logger  Logger
}

type domainIndex struct {
	name     string
	mu       sync.Mutex
	snapshot atomic.Pointer[map[reflect.Type]int]
	types    []TypeInfo
}

// NewTypeIndexer creates an empty TypeIndexer.
func NewTypeIndexer() *TypeIndexer {
	return NewTypeIndexerWithLogger(nil)
}

// NewTypeIndexerWithLogger creates an empty TypeIndexer that reports new
// registrations at debug level.
func NewTypeIndexerWithLogger(logger Logger) *TypeIndexer {
	if logger == nil {
		logger = NewNoOpLogger()
	}
	return &TypeIndexer{logger: logger}
}

// GetIndex returns the index of T within domain D, registering T on first use.
func GetIndex[T, D any](ix *TypeIndexer) int {
	return ix.indexOf(typeOf[D](), typeOf[T]())
}

// LookupIndex returns the index of T within domain D without registering it.
func LookupIndex[T, D any](ix *TypeIndexer) (int, bool) {
	v, ok := ix.domains.Load(typeOf[D]())
	if !ok {
		return 0, false
	}
	return v.(*domainIndex).lookup(typeOf[T]())
}

// Registered lists the types registered in domain D, ordered by index.
func Registered[D any](ix *TypeIndexer) []TypeInfo {
	v, ok := ix.domains.Load(typeOf[D]())
	if !ok {
		return nil
	}
	d := v.(*domainIndex)
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]TypeInfo, len(d.types))
	copy(out, d.types)
	return out
}

// DomainCounts returns how many types each domain has registered, keyed by
// the domain type's qualified name.
func (ix *TypeIndexer) DomainCounts() map[string]int {
	out := make(map[string]int)
	ix.domains.Range(func(_, v any) bool {
		d := v.(*domainIndex)
		if m := d.snapshot.Load(); m != nil {
			out[d.name] = len(*m)
		} else {
			out[d.name] = 0
		}
		return true
	})
	return out
}

// Fingerprint returns a deterministic 64-bit hash of the fully qualified
// name of t.
func Fingerprint(t reflect.Type) uint64 {
	return xxhash.Sum64String(typeName(t))
}

func (ix *TypeIndexer) indexOf(domain, t reflect.Type) int {
	d := ix.domain(domain)
	if idx, ok := d.lookup(t); ok {
		return idx
	}
	info, added := d.register(t)
	if added {
		ix.logger.Debug("type registered",
			F("domain", d.name),
			F("type", info.Name),
			F("index", info.Index),
			F("fingerprint", info.Fingerprint),
		)
	}
	return info.Index
}

func (ix *TypeIndexer) domain(t reflect.Type) *domainIndex {
	if v, ok := ix.domains.Load(t); ok {
		return v.(*domainIndex)
	}
	v, _ := ix.domains.LoadOrStore(t, &domainIndex{name: typeName(t)})
	return v.(*domainIndex)
}

func (d *domainIndex) lookup(t reflect.Type) (int, bool) {
	m := d.snapshot.Load()
	if m == nil {
		return 0, false
	}
	idx, ok := (*m)[t]
	return idx, ok
}

// register appends t under the domain lock. The lookup map is copied on
// write so readers never need the lock.
func (d *domainIndex) register(t reflect.Type) (TypeInfo, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if idx, ok := d.lookup(t); ok {
		return d.types[idx], false
	}

	info := TypeInfo{
		Index:       len(d.types),
		Name:        typeName(t),
		Fingerprint: Fingerprint(t),
		Type:        t,
	}
	next := make(map[reflect.Type]int, len(d.types)+1)
	if old := d.snapshot.Load(); old != nil {
		maps.Copy(next, *old)
	}
	next[t] = info.Index
	d.types = append(d.types, info)
	d.snapshot.Store(&next)
	return info, true
}

// TypeKey caches the index of T in domain D for one call site. Declare it
// once (package variable or struct field) and call Index on the hot path:
// after the first call it is a single atomic load.
//
// A TypeKey binds to the first TypeIndexer it is resolved against.
type TypeKey[T, D any] struct {
	idx atomic.Int64 // index+1, 0 while unresolved
}

// Index returns the cached index, resolving it through ix on first use.
func (k *TypeKey[T, D]) Index(ix *TypeIndexer) int {
	if v := k.idx.Load(); v != 0 {
		return int(v - 1)
	}
	idx := GetIndex[T, D](ix)
	k.idx.Store(int64(idx) + 1)
	return idx
}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func typeName(t reflect.Type) string {
	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}
