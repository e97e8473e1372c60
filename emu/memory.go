package emu

import "encoding/binary"

// DefaultMemorySize is the bus size used when none is configured (16MB).
const DefaultMemorySize = 16 * 1024 * 1024

// Memory is the flat, little-endian, byte-addressable bus. Every fetch,
// load and store goes through it.
//
// Accesses have no alignment requirement. An access that does not lie
// entirely inside the buffer panics with an *AccessError; callers that
// address memory on behalf of a guest check InBounds first.
type Memory struct {
	data []byte

	// Called after every write with the written range.
	writeHooks []func(addr, width uint64)
}

// NewMemory allocates a zero-filled bus of size bytes.
func NewMemory(size uint64) *Memory {
	return &Memory{data: make([]byte, size)}
}

// Size returns the bus size in bytes.
func (m *Memory) Size() uint64 {
	return uint64(len(m.data))
}

// OnWrite registers fn to be called after every store to the bus,
// whether it comes from the guest or the host.
func (m *Memory) OnWrite(fn func(addr, width uint64)) {
	m.writeHooks = append(m.writeHooks, fn)
}

func (m *Memory) notifyWrite(addr, width uint64) {
	for _, fn := range m.writeHooks {
		fn(addr, width)
	}
}

// InBounds reports whether [addr, addr+width) lies inside the bus.
func (m *Memory) InBounds(addr, width uint64) bool {
	size := uint64(len(m.data))
	return width <= size && addr <= size-width
}

func (m *Memory) slice(addr, width uint64) []byte {
	if !m.InBounds(addr, width) {
		panic(&AccessError{Addr: addr, Width: width, Size: m.Size()})
	}
	return m.data[addr : addr+width]
}

// Load8 reads one byte, zero-extended.
func (m *Memory) Load8(addr uint64) uint64 {
	return uint64(m.slice(addr, 1)[0])
}

// Load16 reads a little-endian halfword, zero-extended.
func (m *Memory) Load16(addr uint64) uint64 {
	return uint64(binary.LittleEndian.Uint16(m.slice(addr, 2)))
}

// Load32 reads a little-endian word, zero-extended.
func (m *Memory) Load32(addr uint64) uint64 {
	return uint64(binary.LittleEndian.Uint32(m.slice(addr, 4)))
}

// Load64 reads a little-endian doubleword.
func (m *Memory) Load64(addr uint64) uint64 {
	return binary.LittleEndian.Uint64(m.slice(addr, 8))
}

// Store8 writes the low 8 bits of value.
func (m *Memory) Store8(addr, value uint64) {
	m.slice(addr, 1)[0] = byte(value)
	m.notifyWrite(addr, 1)
}

// Store16 writes the low 16 bits of value, little-endian.
func (m *Memory) Store16(addr, value uint64) {
	binary.LittleEndian.PutUint16(m.slice(addr, 2), uint16(value))
	m.notifyWrite(addr, 2)
}

// Store32 writes the low 32 bits of value, little-endian.
func (m *Memory) Store32(addr, value uint64) {
	binary.LittleEndian.PutUint32(m.slice(addr, 4), uint32(value))
	m.notifyWrite(addr, 4)
}

// Store64 writes value, little-endian.
func (m *Memory) Store64(addr, value uint64) {
	binary.LittleEndian.PutUint64(m.slice(addr, 8), value)
	m.notifyWrite(addr, 8)
}

// Load reads width (1, 2, 4 or 8) bytes, zero-extended.
func (m *Memory) Load(addr, width uint64) uint64 {
	switch width {
	case 1:
		return m.Load8(addr)
	case 2:
		return m.Load16(addr)
	case 4:
		return m.Load32(addr)
	case 8:
		return m.Load64(addr)
	}
	panic("emu: unsupported access width")
}

// Store writes the low width (1, 2, 4 or 8) bytes of value.
func (m *Memory) Store(addr, width, value uint64) {
	switch width {
	case 1:
		m.Store8(addr, value)
	case 2:
		m.Store16(addr, value)
	case 4:
		m.Store32(addr, value)
	case 8:
		m.Store64(addr, value)
	default:
		panic("emu: unsupported access width")
	}
}

// StoreBytes copies data to the bus starting at addr.
func (m *Memory) StoreBytes(addr uint64, data []byte) {
	copy(m.slice(addr, uint64(len(data))), data)
	m.notifyWrite(addr, uint64(len(data)))
}

// LoadBytes returns a copy of n bytes starting at addr.
func (m *Memory) LoadBytes(addr, n uint64) []byte {
	out := make([]byte, n)
	copy(out, m.slice(addr, n))
	return out
}
