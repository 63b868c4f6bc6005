//go:build !linux

package mem

import (
	"errors"
	"fmt"
)

const BlockSize = 4 * 1024

const (
	BaseBCM2835 = 0x20200000
	BaseBCM2836 = 0x3F200000
	BaseBCM2711 = 0xFE200000
)

var ErrMap = errors.New("mem: map failed")

// Block is unavailable off Linux; Map always fails
type Block struct{}

func Open(device string, base int64) (*Block, error) {
	return Map(device, base, BlockSize)
}

func Map(path string, offset int64, size int) (*Block, error) {
	return nil, fmt.Errorf("%w: %s: not supported on this platform", ErrMap, path)
}

func (b *Block) Len() int                              { return 0 }
func (b *Block) ReadBits(offset uint32) uint32         { return 0 }
func (b *Block) WriteBits(offset uint32, value uint32) {}
func (b *Block) SetBits(offset uint32, mask uint32)    {}
func (b *Block) ClearBits(offset uint32, mask uint32)  {}
func (b *Block) Close() error                          { return nil }
