// Package arena implements a per-request bump allocator.
//
// Go has no manual memory deallocation, so "allocation" here means bump
// allocation out of a []byte block owned by the Arena, not a call into a
// heap. The point is to bound allocation count and give the caller a
// single O(blocks) Reset instead of freeing N small objects individually.
package arena

import (
	"errors"
	"unsafe"
)

// DefaultBlockSize is the size of the first geometrically-grown block.
const DefaultBlockSize = 64 * 1024

// MaxBlockSize caps the geometric growth of regular (non-oversized)
// blocks so a long-lived arena's block sizes don't double indefinitely.
const MaxBlockSize = 4 * 1024 * 1024

// MaxAlignment is the largest alignment Allocate accepts.
const MaxAlignment = 64

// ErrInvalidAlignment is returned when the requested alignment is not a
// power of two, or exceeds MaxAlignment.
var ErrInvalidAlignment = errors.New("arena: invalid alignment")

type block struct {
	data []byte
	used int
}

// Arena is a bump allocator over a growing sequence of blocks. Regular
// (non-oversized) blocks grow geometrically: each new block added to
// satisfy an allocation is double the size of the last, up to
// MaxBlockSize (§4.1). It is not safe for concurrent use; each
// reactor/connection owns exactly one.
type Arena struct {
	blocks        []*block
	blockSize     int
	nextSize      int
	bytesAlloc    int
	totalCapacity int
}

// New creates an Arena whose first block is sized blockSize. A zero or
// negative size uses DefaultBlockSize. Later blocks double in size (up
// to MaxBlockSize) each time the arena outgrows its existing capacity.
func New(blockSize int) *Arena {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Arena{blockSize: blockSize, nextSize: blockSize}
}

// BytesAllocated returns the number of bytes handed out since the last Reset.
func (a *Arena) BytesAllocated() int { return a.bytesAlloc }

// TotalCapacity returns the sum of all block capacities ever allocated.
func (a *Arena) TotalCapacity() int { return a.totalCapacity }

func isPowerOfTwo(n int) bool { return n > 0 && n&(n-1) == 0 }

// Allocate returns bytes-length slice aligned to alignment, or an error if
// alignment is invalid. The returned slice's backing array is owned by the
// arena and only valid until the next Reset.
func (a *Arena) Allocate(bytes int, alignment int) ([]byte, error) {
	if alignment == 0 {
		alignment = 1
	}
	if !isPowerOfTwo(alignment) || alignment > MaxAlignment {
		return nil, ErrInvalidAlignment
	}
	if bytes < 0 {
		return nil, errors.New("arena: negative size")
	}
	if bytes == 0 {
		return nil, nil
	}

	// Oversized allocations get a dedicated block.
	if bytes > a.blockSize {
		b := a.newBlock(bytes + alignment)
		return a.allocateFrom(b, bytes, alignment)
	}

	for _, b := range a.blocks {
		if out, ok := a.tryAllocateFrom(b, bytes, alignment); ok {
			return out, nil
		}
	}

	size := a.nextSize
	if bytes > size {
		size = bytes
	}
	b := a.newBlock(size)
	if a.nextSize < MaxBlockSize {
		a.nextSize *= 2
		if a.nextSize > MaxBlockSize {
			a.nextSize = MaxBlockSize
		}
	}
	return a.allocateFrom(b, bytes, alignment)
}

func (a *Arena) newBlock(size int) *block {
	b := &block{data: make([]byte, size)}
	a.blocks = append(a.blocks, b)
	a.totalCapacity += size
	return b
}

func (a *Arena) tryAllocateFrom(b *block, bytes, alignment int) ([]byte, bool) {
	base := uintptr(unsafe.Pointer(&b.data[0]))
	start := b.used
	padding := alignPadding(base+uintptr(start), alignment)
	if start+padding+bytes > len(b.data) {
		return nil, false
	}
	out := b.data[start+padding : start+padding+bytes]
	b.used = start + padding + bytes
	a.bytesAlloc += bytes
	return out, true
}

func (a *Arena) allocateFrom(b *block, bytes, alignment int) ([]byte, error) {
	if out, ok := a.tryAllocateFrom(b, bytes, alignment); ok {
		return out, nil
	}
	return nil, errors.New("arena: allocator exhausted")
}

func alignPadding(addr uintptr, alignment int) int {
	mask := uintptr(alignment - 1)
	rem := addr & mask
	if rem == 0 {
		return 0
	}
	return int(uintptr(alignment) - rem)
}

// Reset rewinds every block's used counter to zero without releasing the
// underlying storage. Previously handed-out slices must not be used after
// Reset; the arena does not guard against that.
func (a *Arena) Reset() {
	for _, b := range a.blocks {
		b.used = 0
	}
	a.bytesAlloc = 0
}

// String copies s into the arena and returns a string aliasing the arena's
// storage. The returned string is valid only until the next Reset.
func (a *Arena) String(s string) (string, error) {
	buf, err := a.Allocate(len(s), 1)
	if err != nil {
		return "", err
	}
	if len(s) == 0 {
		return "", nil
	}
	copy(buf, s)
	return unsafe.String(&buf[0], len(buf)), nil
}

// Bytes copies src into the arena and returns a []byte aliasing the
// arena's storage, valid only until the next Reset.
func (a *Arena) Bytes(src []byte) ([]byte, error) {
	buf, err := a.Allocate(len(src), 1)
	if err != nil {
		return nil, err
	}
	copy(buf, src)
	return buf, nil
}
