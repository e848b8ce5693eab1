// Package extendiblehash implements a generic, thread-safe extendible hash
// table: a directory of 2^globalDepth slots pointing at buckets, where each
// bucket independently tracks how many low hash bits ("local depth") it
// distinguishes. Buckets split (and, when needed, the directory doubles) on
// overflow; the table never merges buckets back on removal.
package extendiblehash

import "sync"

type entry[K comparable, V any] struct {
	key   K
	value V
}

// bucket holds up to capacity key/value pairs that all share the same low
// localDepth bits of their hash. A bucket may be referenced by more than
// one directory slot.
type bucket[K comparable, V any] struct {
	items      []entry[K, V]
	capacity   int
	localDepth int
}

func (b *bucket[K, V]) find(key K) (V, bool) {
	for _, e := range b.items {
		if e.key == key {
			return e.value, true
		}
	}
	var zero V
	return zero, false
}

func (b *bucket[K, V]) remove(key K) bool {
	for i, e := range b.items {
		if e.key == key {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return true
		}
	}
	return false
}

// insertOrUpdate overwrites key's value if already present, otherwise
// appends it if there's room. It reports whether the binding now lives in
// this bucket.
func (b *bucket[K, V]) insertOrUpdate(key K, value V) bool {
	for i := range b.items {
		if b.items[i].key == key {
			b.items[i].value = value
			return true
		}
	}
	if len(b.items) >= b.capacity {
		return false
	}
	b.items = append(b.items, entry[K, V]{key: key, value: value})
	return true
}

// Table is a generic extendible hash table mapping keys of type K to
// values of type V. All operations acquire a single mutex for their
// duration, making the table safe for concurrent use: Find observes
// either the pre- or post-state of any concurrent Insert/Remove, and
// splits/directory doublings run entirely inside the critical section.
type Table[K comparable, V any] struct {
	mutex sync.Mutex

	hashFn      HashFunc[K]
	bucketSize  int
	globalDepth int
	directory   []*bucket[K, V]
	numBuckets  int
}

// New constructs a Table with a single empty bucket of local depth 0 and
// global depth 0. bucketSize bounds how many entries a bucket holds before
// it must split; hashFn supplies a deterministic hash for K.
func New[K comparable, V any](bucketSize int, hashFn HashFunc[K]) *Table[K, V] {
	if bucketSize < 1 {
		panic("extendiblehash: bucketSize must be >= 1")
	}
	root := &bucket[K, V]{capacity: bucketSize}
	return &Table[K, V]{
		hashFn:     hashFn,
		bucketSize: bucketSize,
		directory:  []*bucket[K, V]{root},
		numBuckets: 1,
	}
}

// indexOf returns the directory slot for key: the low globalDepth bits of
// its hash. Callers must hold t.mutex.
func (t *Table[K, V]) indexOf(key K) int {
	mask := uint64(1)<<uint(t.globalDepth) - 1
	return int(t.hashFn(key) & mask)
}

// Find returns the value bound to key, if present.
func (t *Table[K, V]) Find(key K) (V, bool) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return t.directory[t.indexOf(key)].find(key)
}

// Remove deletes key's binding if present, reporting whether it was found.
// It never merges buckets or shrinks the directory.
func (t *Table[K, V]) Remove(key K) bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	return t.directory[t.indexOf(key)].remove(key)
}

// Insert binds key to value, overwriting any existing binding. It never
// fails: when the target bucket is full and doesn't already hold key, the
// bucket splits (doubling the directory first if the bucket's local depth
// has caught up to the global depth), and the insert retries.
func (t *Table[K, V]) Insert(key K, value V) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	for {
		idx := t.indexOf(key)
		b := t.directory[idx]
		if b.insertOrUpdate(key, value) {
			return
		}
		t.splitBucket(b)
	}
}

// splitBucket grows b's local depth by one, allocates its sibling, and
// redistributes b's entries between the two. Callers must hold t.mutex.
func (t *Table[K, V]) splitBucket(b *bucket[K, V]) {
	if b.localDepth == t.globalDepth {
		t.directory = append(t.directory, t.directory...)
		t.globalDepth++
	}

	oldLocalDepth := b.localDepth
	newLocalDepth := oldLocalDepth + 1

	oldMask := uint64(1)<<uint(oldLocalDepth) - 1
	newMask := uint64(1)<<uint(newLocalDepth) - 1

	// every item still in b shares these low oldLocalDepth bits; use the
	// first to learn the prefix that stays with b after the split.
	prevPrefix := t.hashFn(b.items[0].key) & oldMask

	sibling := &bucket[K, V]{capacity: t.bucketSize, localDepth: newLocalDepth}
	t.numBuckets++

	var kept []entry[K, V]
	for _, e := range b.items {
		if t.hashFn(e.key)&newMask == prevPrefix {
			kept = append(kept, e)
		} else {
			sibling.items = append(sibling.items, e)
		}
	}
	b.items = kept
	b.localDepth = newLocalDepth

	for i := range t.directory {
		idx := uint64(i)
		if idx&oldMask == prevPrefix && idx&newMask != prevPrefix {
			t.directory[i] = sibling
		}
	}
}

// GlobalDepth returns the number of hash bits the directory distinguishes.
func (t *Table[K, V]) GlobalDepth() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.globalDepth
}

// LocalDepth returns the local depth of the bucket referenced by dirIndex.
func (t *Table[K, V]) LocalDepth(dirIndex int) int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.directory[dirIndex].localDepth
}

// NumBuckets returns the number of distinct buckets reachable through the
// directory.
func (t *Table[K, V]) NumBuckets() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.numBuckets
}
