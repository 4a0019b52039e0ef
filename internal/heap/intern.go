package heap

// Table is the open-addressing hash table described in spec.md §4.5: linear
// probing, load factor cap 0.75, capacity doubling, tombstone deletion. It
// backs both the string interner (key: canonical *String, value: unused) and
// the VM's global-variable environment (key: *String, value: the global's
// current Value) -- spec.md notes these two uses share one table shape.
//
// original_source/src/hash_table.c is the direct model: hash_table_set_value
// grows before inserting when count+1 would exceed capacity*0.75,
// hash_table_find_entry_by_key remembers the first tombstone it passes so a
// later insert can reuse that slot instead of probing past it forever.
type Table struct {
	entries []tableEntry
	count   int // live entries plus tombstones
}

type tableEntry struct {
	key       *String
	value     Value
	tombstone bool
}

const tableMaxLoad = 0.75

// Get returns the value stored under key, if any.
func (t *Table) Get(key *String) (Value, bool) {
	if len(t.entries) == 0 {
		return Nil, false
	}
	e := t.findEntry(key)
	if e.key == nil {
		return Nil, false
	}
	return e.value, true
}

// Set stores value under key, growing the table first if needed. Returns
// true if key was not already present.
func (t *Table) Set(key *String, value Value) bool {
	if float64(t.count+1) > float64(len(t.entries))*tableMaxLoad {
		t.grow()
	}

	e := t.findEntry(key)
	isNewKey := e.key == nil
	if isNewKey && !e.tombstone {
		t.count++
	}

	e.key = key
	e.value = value
	e.tombstone = false
	return isNewKey
}

// Delete removes key, leaving a tombstone so later probes past this slot
// still find their target.
func (t *Table) Delete(key *String) bool {
	if len(t.entries) == 0 {
		return false
	}
	e := t.findEntry(key)
	if e.key == nil {
		return false
	}
	e.key = nil
	e.tombstone = true
	return true
}

// FindString looks a string up by raw content before a String object for it
// necessarily exists, which is what makes interning work: Heap.NewString
// calls this first, and only allocates a new String object on a miss.
func (t *Table) FindString(chars string, hash uint32) *String {
	if len(t.entries) == 0 {
		return nil
	}
	capacity := uint32(len(t.entries))
	idx := hash % capacity
	for {
		e := &t.entries[idx]
		if e.key == nil {
			if !e.tombstone {
				return nil
			}
		} else if e.key.Hash == hash && e.key.Chars == chars {
			return e.key
		}
		idx = (idx + 1) % capacity
	}
}

// Each walks every live (non-tombstone, non-empty) entry, used by the GC to
// mark the global table's keys and values as roots.
func (t *Table) Each(fn func(key *String, value Value)) {
	for _, e := range t.entries {
		if e.key != nil {
			fn(e.key, e.value)
		}
	}
}

func (t *Table) findEntry(key *String) *tableEntry {
	capacity := uint32(len(t.entries))
	idx := key.Hash % capacity
	var tombstone *tableEntry
	for {
		e := &t.entries[idx]
		switch {
		case e.key == nil:
			if !e.tombstone {
				if tombstone != nil {
					return tombstone
				}
				return e
			}
			if tombstone == nil {
				tombstone = e
			}
		case e.key == key:
			return e
		}
		idx = (idx + 1) % capacity
	}
}

func (t *Table) grow() {
	newCapacity := 8
	if len(t.entries) > 0 {
		newCapacity = len(t.entries) * 2
	}

	old := t.entries
	t.entries = make([]tableEntry, newCapacity)
	t.count = 0

	for _, e := range old {
		if e.key == nil {
			continue
		}
		dst := t.findEntry(e.key)
		dst.key = e.key
		dst.value = e.value
		t.count++
	}
}

// hashString computes the FNV-1a hash used throughout, matching
// original_source/src/string.c's string_hash (offset basis 2166136261,
// prime 16777619).
func hashString(s string) uint32 {
	hash := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		hash ^= uint32(s[i])
		hash *= 16777619
	}
	return hash
}
