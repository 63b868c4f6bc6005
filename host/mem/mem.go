//go:build linux

// Package mem maps the GPIO register window into the process and exposes it
// as 32-bit registers addressed by word offset.
package mem

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// BlockSize is the size of the GPIO register window
const BlockSize = 4 * 1024

// GPIO base physical addresses
const (
	BaseBCM2835 = 0x20200000 // Pi 1, Zero
	BaseBCM2836 = 0x3F200000 // Pi 2, Pi 3
	BaseBCM2711 = 0xFE200000 // Pi 4
)

// ErrMap is wrapped by every error Map returns
var ErrMap = errors.New("mem: map failed")

// Block is a mapped register window. Each access is a single aligned 32-bit
// load or store; SetBits and ClearBits are load/modify/store and assume the
// caller owns the registers they touch.
type Block struct {
	f     *os.File
	mem   []byte
	words []uint32
}

// Open maps the GPIO window of device. /dev/gpiomem already starts at the
// GPIO block, so base is only used as the offset for /dev/mem.
func Open(device string, base int64) (*Block, error) {
	offset := int64(0)
	if device == "/dev/mem" {
		offset = base
	}
	return Map(device, offset, BlockSize)
}

// Map maps size bytes of path starting at offset, read-write and shared
func Map(path string, offset int64, size int) (*Block, error) {
	if size <= 0 || size%4 != 0 {
		return nil, fmt.Errorf("%w: bad size %d", ErrMap, size)
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMap, err)
	}

	b, err := unix.Mmap(int(f.Fd()), offset, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: mmap %s at 0x%x: %v", ErrMap, path, offset, err)
	}

	return &Block{
		f:     f,
		mem:   b,
		words: unsafe.Slice((*uint32)(unsafe.Pointer(&b[0])), size/4),
	}, nil
}

// Len returns the number of 32-bit registers in the window
func (b *Block) Len() int { return len(b.words) }

func (b *Block) ReadBits(offset uint32) uint32 {
	return atomic.LoadUint32(&b.words[offset])
}

func (b *Block) WriteBits(offset uint32, value uint32) {
	atomic.StoreUint32(&b.words[offset], value)
}

func (b *Block) SetBits(offset uint32, mask uint32) {
	b.WriteBits(offset, b.ReadBits(offset)|mask)
}

func (b *Block) ClearBits(offset uint32, mask uint32) {
	b.WriteBits(offset, b.ReadBits(offset)&^mask)
}

// Close unmaps the window. It is safe to call more than once.
func (b *Block) Close() error {
	if b.mem == nil {
		return nil
	}
	err := unix.Munmap(b.mem)
	b.mem, b.words = nil, nil
	if cerr := b.f.Close(); err == nil {
		err = cerr
	}
	return err
}
