package engine

import (
	"fmt"
	"iter"
	"slices"
)

// Collection is an arena of entities addressed by integer index. Index 0
// is never allocated; freed indices are reused lowest first.
type Collection[I ~uint32, T any] struct {
	items map[I]*T
	free  []I
	next  I
}

// NewCollection creates an empty collection.
func NewCollection[I ~uint32, T any]() *Collection[I, T] {
	return &Collection[I, T]{
		items: make(map[I]*T),
		next:  1,
	}
}

// Allocate creates a zero entity at the lowest free index.
func (c *Collection[I, T]) Allocate() (I, *T) {
	var index I
	if len(c.free) > 0 {
		index = c.free[0]
		c.free = c.free[1:]
	} else {
		index = c.next
		c.next++
	}
	item := new(T)
	c.items[index] = item
	return index, item
}

// AllocateAt creates a zero entity at a fixed index, as loading does.
func (c *Collection[I, T]) AllocateAt(index I) (*T, error) {
	if index == 0 {
		return nil, fmt.Errorf("allocate index 0: reserved")
	}
	if _, ok := c.items[index]; ok {
		return nil, fmt.Errorf("allocate index %d: already in use", index)
	}
	for i := c.next; i < index; i++ {
		c.free = append(c.free, i)
	}
	if index >= c.next {
		c.next = index + 1
	}
	if i := slices.Index(c.free, index); i >= 0 {
		c.free = slices.Delete(c.free, i, i+1)
	}
	item := new(T)
	c.items[index] = item
	return item, nil
}

// Get resolves an index. The entity may have been erased.
func (c *Collection[I, T]) Get(index I) (*T, bool) {
	item, ok := c.items[index]
	return item, ok
}

// Exists reports whether index refers to a live entity.
func (c *Collection[I, T]) Exists(index I) bool {
	_, ok := c.items[index]
	return ok
}

// Erase removes an entity and frees its index.
func (c *Collection[I, T]) Erase(index I) bool {
	if _, ok := c.items[index]; !ok {
		return false
	}
	delete(c.items, index)
	i, _ := slices.BinarySearch(c.free, index)
	c.free = slices.Insert(c.free, i, index)
	return true
}

// Len returns the number of live entities.
func (c *Collection[I, T]) Len() int {
	return len(c.items)
}

// Indices returns live indices in ascending order.
func (c *Collection[I, T]) Indices() []I {
	out := make([]I, 0, len(c.items))
	for i := range c.items {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

// All iterates live entities in ascending index order. Entities erased
// during iteration are skipped.
func (c *Collection[I, T]) All() iter.Seq2[I, *T] {
	return func(yield func(I, *T) bool) {
		for _, i := range c.Indices() {
			item, ok := c.items[i]
			if !ok {
				continue
			}
			if !yield(i, item) {
				return
			}
		}
	}
}
