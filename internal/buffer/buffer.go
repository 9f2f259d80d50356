package buffer

// Buffer is a byte container of a fixed capacity. The whole memory is allocated once, in New,
// and is never grown: a byte that doesn't fit is rejected, leaving the already stored data
// intact.
type Buffer struct {
	memory []byte
}

func New(size int) Buffer {
	return Buffer{
		memory: make([]byte, 0, size),
	}
}

// AppendByte writes a single byte, checking whether it won't exceed the capacity.
func (b *Buffer) AppendByte(c byte) (ok bool) {
	if len(b.memory) == cap(b.memory) {
		return false
	}

	b.memory = append(b.memory, c)
	return true
}

// Len returns the number of bytes stored.
func (b *Buffer) Len() int {
	return len(b.memory)
}

// Bytes returns the stored data. The slice is valid until the next Clear.
func (b *Buffer) Bytes() []byte {
	return b.memory
}

// Clear just resets the pointers, so old values may be overridden by new ones.
func (b *Buffer) Clear() {
	b.memory = b.memory[:0]
}
