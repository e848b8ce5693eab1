package bufferpool

import (
	"container/list"

	"github.com/arvsh/lynxdb/extendiblehash"
)

// frameFreeList is the pool's free-frame index: an ordered list of unused
// frame ids plus an extendiblehash.Table mapping each free frame id to its
// *list.Element, so a frame can be pulled out of the free list in O(1)
// without a linear scan. This is the hash table's
// Table[int, *list.Element] instantiation, distinct from the
// Table[uint64, int] the Manager uses for its page directory.
type frameFreeList struct {
	order *list.List
	index *extendiblehash.Table[int, *list.Element]
}

func newFrameFreeList(poolSize int) *frameFreeList {
	fl := &frameFreeList{
		order: list.New(),
		index: extendiblehash.New[int, *list.Element](4, extendiblehash.HashInt[int]()),
	}
	for i := 0; i < poolSize; i++ {
		fl.push(i)
	}
	return fl
}

// push marks frameID free.
func (fl *frameFreeList) push(frameID int) {
	elem := fl.order.PushBack(frameID)
	fl.index.Insert(frameID, elem)
}

// pop removes and returns the next free frame id, if any.
func (fl *frameFreeList) pop() (int, bool) {
	front := fl.order.Front()
	if front == nil {
		return 0, false
	}
	frameID := front.Value.(int)
	fl.order.Remove(front)
	fl.index.Remove(frameID)
	return frameID, true
}

func (fl *frameFreeList) len() int {
	return fl.order.Len()
}
