package engine

import "sort"

// ============================================================================
// RECORD VIEW — Zero-Copy Data Access Interface
// ============================================================================
// The engine never owns or mutates source data. It reads through this
// interface.
//
// Implementations:
//   SliceView      — wraps []Record (parsed CSV/TSV, ad-hoc)
//   SubView        — filtered/sorted subset (indices into parent, zero-copy)
//   DomainView[T]  — reads typed structs via accessor functions (zero-copy)
// ============================================================================

// RecordView provides indexed access to an ordered record sequence.
// Search, filter and sort call Value in tight loops.
type RecordView interface {
	Len() int
	Value(index int, key string) Value
	Keys() []string // keys present in the data
}

// ============================================================================
// SLICE VIEW — wraps []Record
// ============================================================================

// SliceView wraps a []Record slice as a RecordView.
type SliceView struct {
	records []Record
	keys    []string
}

// NewSliceView creates a RecordView from a []Record slice.
// The slice is referenced, not copied; callers must not mutate it afterwards.
func NewSliceView(records []Record) RecordView {
	v := &SliceView{records: records}
	v.cacheKeys()
	return v
}

func (v *SliceView) cacheKeys() {
	seen := make(map[string]bool)
	for _, r := range v.records {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				v.keys = append(v.keys, k)
			}
		}
	}
	sort.Strings(v.keys) // map order is random
}

func (v *SliceView) Len() int { return len(v.records) }

func (v *SliceView) Value(i int, key string) Value {
	if i < 0 || i >= len(v.records) {
		return Null()
	}
	return v.records[i].Get(key)
}

func (v *SliceView) Keys() []string { return v.keys }

// ============================================================================
// SUB VIEW — filtered/sorted subset (zero-copy)
// ============================================================================

// SubView is a subset or permutation of a parent RecordView.
// Holds indices into the parent; no data is copied.
type SubView struct {
	parent  RecordView
	indices []int
}

// newSubView flattens nested SubViews so lookups stay one hop deep.
func newSubView(parent RecordView, indices []int) RecordView {
	if sv, ok := parent.(*SubView); ok {
		mapped := make([]int, len(indices))
		for i, idx := range indices {
			mapped[i] = sv.indices[idx]
		}
		return &SubView{parent: sv.parent, indices: mapped}
	}
	return &SubView{parent: parent, indices: indices}
}

// Slice returns records [start, end) of view, clamped to its bounds.
func Slice(view RecordView, start, end int) RecordView {
	n := view.Len()
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start >= end {
		return newSubView(view, []int{})
	}
	indices := make([]int, 0, end-start)
	for i := start; i < end; i++ {
		indices = append(indices, i)
	}
	return newSubView(view, indices)
}

func (v *SubView) Len() int { return len(v.indices) }

func (v *SubView) Value(i int, key string) Value {
	if i < 0 || i >= len(v.indices) {
		return Null()
	}
	return v.parent.Value(v.indices[i], key)
}

func (v *SubView) Keys() []string { return v.parent.Keys() }

// ============================================================================
// DOMAIN ADAPTER — Zero-copy typed struct access
// ============================================================================
//
// Usage:
//
//	adapter := engine.NewDomainAdapter[helpers.Field]().
//	    Column("path", func(f helpers.Field) engine.Value { return engine.String(f.Path) }).
//	    Column("value", func(f helpers.Field) engine.Value { return engine.ValueOf(f.Value) })
//
//	view := adapter.Bind(fields)
//
// ============================================================================

// DomainAdapter builds a RecordView from typed structs.
// Declare once, bind many times.
type DomainAdapter[T any] struct {
	order []string
	cols  map[string]func(T) Value
}

// NewDomainAdapter creates a new adapter for type T.
func NewDomainAdapter[T any]() *DomainAdapter[T] {
	return &DomainAdapter[T]{cols: make(map[string]func(T) Value)}
}

// Column registers an accessor for key.
func (a *DomainAdapter[T]) Column(key string, fn func(T) Value) *DomainAdapter[T] {
	if _, exists := a.cols[key]; !exists {
		a.order = append(a.order, key)
	}
	a.cols[key] = fn
	return a
}

// Bind creates a RecordView over data. The slice is referenced, not copied.
func (a *DomainAdapter[T]) Bind(data []T) RecordView {
	return &DomainView[T]{data: data, cols: a.cols, keys: a.order}
}

// DomainView reads typed struct fields via registered accessor functions.
type DomainView[T any] struct {
	data []T
	cols map[string]func(T) Value
	keys []string
}

func (v *DomainView[T]) Len() int { return len(v.data) }

func (v *DomainView[T]) Value(i int, key string) Value {
	if i < 0 || i >= len(v.data) {
		return Null()
	}
	if fn, ok := v.cols[key]; ok {
		return fn(v.data[i])
	}
	return Null()
}

func (v *DomainView[T]) Keys() []string { return v.keys }
