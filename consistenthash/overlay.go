// Copyright (c) 2024 Rishabh Parekh
// MIT License

// Use of this source code is governed by an MIT license that can be
// found in the LICENSE file.

// MementoOverlay records logically-removed, non-tail buckets so the engine
// can redirect keys that still hash into a removed index.
package consistenthash

const (
	overlayMinCapacity = 1 << 4
	overlayMaxCapacity = 1 << 30
)

// overlayRecord is a single removed-bucket entry. next chains to the next
// record in the same hash slot, addressed by arena index rather than pointer.
type overlayRecord struct {
	bucket      int
	replacer    int
	prevRemoved int
	next        int32 // arena index, -1 if none
}

// MementoOverlay is a separately chained hash table mapping bucket -> record.
// Records live in a compact arena addressed by int32 index; heads holds, per
// slot, the arena index of the first record in that slot's chain (-1 if
// empty). Resizing only rebuilds heads/next linkage -- the arena's record
// contents are never copied.
type MementoOverlay struct {
	heads   []int32
	records []overlayRecord
	free    []int32
	size    int
}

// NewMementoOverlay creates an empty overlay with the minimum table capacity.
func NewMementoOverlay() *MementoOverlay {
	heads := make([]int32, overlayMinCapacity)
	for i := range heads {
		heads[i] = -1
	}
	return &MementoOverlay{heads: heads}
}

// slot returns the hash-table slot for bucket given the current capacity.
func slot(bucket int, capacity int) int {
	h := uint32(bucket)
	h ^= h >> 16
	return int(h) & (capacity - 1)
}

func (o *MementoOverlay) capacity() int {
	return len(o.heads) / 4 * 3
}

// Remember inserts a record for bucket and returns bucket, growing the table
// if the load factor exceeds 0.75.
func (o *MementoOverlay) Remember(bucket, replacer, prevRemoved int) int {
	idx := o.allocate(overlayRecord{bucket: bucket, replacer: replacer, prevRemoved: prevRemoved})

	s := slot(bucket, len(o.heads))
	o.records[idx].next = o.heads[s]
	o.heads[s] = idx
	o.size++

	if o.size > o.capacity() {
		o.resize(len(o.heads) * 2)
	}
	return bucket
}

func (o *MementoOverlay) allocate(r overlayRecord) int32 {
	if n := len(o.free); n > 0 {
		idx := o.free[n-1]
		o.free = o.free[:n-1]
		o.records[idx] = r
		return idx
	}
	o.records = append(o.records, r)
	return int32(len(o.records) - 1)
}

// find returns the arena index of bucket's record, or -1 if none.
func (o *MementoOverlay) find(bucket int) int32 {
	s := slot(bucket, len(o.heads))
	cur := o.heads[s]
	for cur != -1 {
		if o.records[cur].bucket == bucket {
			return cur
		}
		cur = o.records[cur].next
	}
	return -1
}

// Replacer returns the replacer recorded for bucket, or -1 if bucket has not
// been removed.
func (o *MementoOverlay) Replacer(bucket int) int {
	idx := o.find(bucket)
	if idx == -1 {
		return -1
	}
	return o.records[idx].replacer
}

// Restore removes the record for bucket and returns its prevRemoved pointer.
// If the overlay is empty, it returns bucket+1: this is the mechanism by
// which repeated AddBucket calls grow the ring before any real removal has
// ever happened (lastRemoved starts at the initial size N0, and chasing
// Restore(N0), Restore(N0+1), ... on an empty overlay just counts upward).
func (o *MementoOverlay) Restore(bucket int) int {
	if o.IsEmpty() {
		return bucket + 1
	}

	s := slot(bucket, len(o.heads))
	cur := o.heads[s]
	var prev int32 = -1
	for cur != -1 && o.records[cur].bucket != bucket {
		prev = cur
		cur = o.records[cur].next
	}
	if cur == -1 {
		// Precondition violation: restoring a bucket that was never removed.
		return -1
	}

	if prev == -1 {
		o.heads[s] = o.records[cur].next
	} else {
		o.records[prev].next = o.records[cur].next
	}

	prevRemoved := o.records[cur].prevRemoved
	o.records[cur] = overlayRecord{}
	o.free = append(o.free, cur)
	o.size--

	if len(o.heads) > overlayMinCapacity && o.size <= o.capacity()/4 {
		o.resize(len(o.heads) / 2)
	}
	return prevRemoved
}

// resize rebuilds the heads/next chain linkage for a new table capacity,
// bounded to [overlayMinCapacity, overlayMaxCapacity]. The records arena
// itself is untouched: only the index table is rebuilt.
func (o *MementoOverlay) resize(newCapacity int) {
	if newCapacity < overlayMinCapacity || newCapacity > overlayMaxCapacity {
		return
	}

	newHeads := make([]int32, newCapacity)
	for i := range newHeads {
		newHeads[i] = -1
	}

	for _, head := range o.heads {
		cur := head
		for cur != -1 {
			next := o.records[cur].next
			s := slot(o.records[cur].bucket, newCapacity)
			o.records[cur].next = newHeads[s]
			newHeads[s] = cur
			cur = next
		}
	}
	o.heads = newHeads
}

// IsEmpty reports whether the overlay has no live records.
func (o *MementoOverlay) IsEmpty() bool {
	return o.size <= 0
}

// Size returns the number of live records.
func (o *MementoOverlay) Size() int {
	return o.size
}
