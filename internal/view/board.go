// Package view keeps the chart instances a page shows, keyed by chart id.
// An instance is always destroyed before another one takes its slot.
package view

import (
	"slices"
	"sync"
)

// Handle is a mounted chart instance.
type Handle interface {
	Destroy()
}

type Board[H Handle] struct {
	mu      sync.RWMutex
	handles map[int64]H
	order   []int64
}

func NewBoard[H Handle]() *Board[H] {
	return &Board[H]{handles: map[int64]H{}}
}

// Mount places h under id. A handle already mounted there is destroyed
// first.
func (b *Board[H]) Mount(id int64, h H) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if prev, ok := b.handles[id]; ok {
		prev.Destroy()
	} else {
		b.order = append(b.order, id)
	}
	b.handles[id] = h
}

func (b *Board[H]) Get(id int64) (H, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	h, ok := b.handles[id]
	return h, ok
}

// At returns the handle mounted at position i, in mount order.
func (b *Board[H]) At(i int) (H, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var zero H
	if i < 0 || i >= len(b.order) {
		return zero, false
	}
	return b.handles[b.order[i]], true
}

func (b *Board[H]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.order)
}

// Unmount destroys and removes the handle under id.
func (b *Board[H]) Unmount(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.unmountLocked(id)
}

// Retain unmounts every handle whose id is not in ids and reorders the rest
// to follow ids.
func (b *Board[H]) Retain(ids []int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range slices.Clone(b.order) {
		if !slices.Contains(ids, id) {
			b.unmountLocked(id)
		}
	}
	order := make([]int64, 0, len(b.order))
	for _, id := range ids {
		if _, ok := b.handles[id]; ok && !slices.Contains(order, id) {
			order = append(order, id)
		}
	}
	b.order = order
}

// Teardown destroys every mounted handle.
func (b *Board[H]) Teardown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range slices.Clone(b.order) {
		b.unmountLocked(id)
	}
}

func (b *Board[H]) unmountLocked(id int64) {
	h, ok := b.handles[id]
	if !ok {
		return
	}
	h.Destroy()
	delete(b.handles, id)
	b.order = slices.DeleteFunc(b.order, func(v int64) bool { return v == id })
}
