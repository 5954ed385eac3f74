package storage

// Store is an opaque key-value substrate for plan records.
// Keys and values are arbitrary byte strings; callers own the encoding.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(key []byte) ([]byte, error)

	// Has reports whether a value exists under key.
	Has(key []byte) (bool, error)

	// List returns every key that starts with prefix, in ascending byte order.
	List(prefix []byte) ([][]byte, error)

	// Apply commits all operations in the batch atomically: either every
	// put and delete becomes visible or none does.
	Apply(b *Batch) error

	// Close releases the underlying resources.
	Close() error
}

type batchOp struct {
	key    []byte
	value  []byte
	delete bool
}

// Batch collects puts and deletes to be committed together by Store.Apply.
type Batch struct {
	ops []batchOp
}

// NewBatch creates an empty batch.
func NewBatch() *Batch {
	return &Batch{}
}

// Put queues a write of value under key. Both slices are copied.
func (b *Batch) Put(key, value []byte) *Batch {
	b.ops = append(b.ops, batchOp{key: clone(key), value: clone(value)})
	return b
}

// Delete queues removal of key.
func (b *Batch) Delete(key []byte) *Batch {
	b.ops = append(b.ops, batchOp{key: clone(key), delete: true})
	return b
}

// Len returns the number of queued operations.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.ops)
}

// validate checks that the batch is non-empty and every key is set.
func (b *Batch) validate() error {
	if b.Len() == 0 {
		return ErrEmptyBatch
	}
	for _, op := range b.ops {
		if len(op.key) == 0 {
			return ErrEmptyKey
		}
	}
	return nil
}

func clone(p []byte) []byte {
	if p == nil {
		return nil
	}
	out := make([]byte, len(p))
	copy(out, p)
	return out
}
