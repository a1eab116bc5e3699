package pager

import "encoding/binary"

// FreePos returns the offset of the first unused byte in the page.
func (p *Page) FreePos() int {
	return p.freePos
}

// CurrentPos returns the page's sequential-access cursor.
func (p *Page) CurrentPos() int {
	return p.currentPos
}

// SetCurrentPos repositions the sequential-access cursor.
func (p *Page) SetCurrentPos(pos int) {
	p.currentPos = pos
}

func (p *Page) validGet(offset, length int) bool {
	return offset >= PageHeaderSize && offset+length <= p.freePos
}

func (p *Page) validPut(offset, length int) bool {
	return offset >= PageHeaderSize && offset <= p.freePos && offset+length <= BlockSize
}

func (p *Page) advance(offset, length int) {
	p.currentPos = offset + length
	p.dirty = true
	if offset+length > p.freePos {
		p.freePos = offset + length
		p.writeHeader()
	}
}

// GetIntAt reads a 4-byte little-endian integer at the given offset.
// offset must satisfy PageHeaderSize <= offset && offset+4 <= freePos; violating
// that is a programmer error and panics, matching the pager's
// fatal-on-out-of-range-get contract.
func (p *Page) GetIntAt(offset int) int {
	if !p.validGet(offset, 4) {
		panic("pager: get int out of range")
	}
	return int(int32(binary.LittleEndian.Uint32(p.buf[offset : offset+4])))
}

// PutIntAt writes a 4-byte little-endian integer at the given offset.
// Returns false (without modifying the page) if the offset is out of
// range, so callers can chain to the next block.
func (p *Page) PutIntAt(offset, value int) bool {
	if !p.validPut(offset, 4) {
		return false
	}
	binary.LittleEndian.PutUint32(p.buf[offset:offset+4], uint32(int32(value)))
	p.advance(offset, 4)
	return true
}

// GetInt reads a 4-byte integer at the cursor and advances it by 4.
func (p *Page) GetInt() int {
	v := p.GetIntAt(p.currentPos)
	p.currentPos += 4
	return v
}

// PutInt writes a 4-byte integer at the cursor and advances it by 4 on
// success.
func (p *Page) PutInt(value int) bool {
	return p.PutIntAt(p.currentPos, value)
}

// GetStringAt reads a fixed-length, NUL-padded string at the given
// offset.
func (p *Page) GetStringAt(offset, length int) string {
	if !p.validGet(offset, length) {
		panic("pager: get string out of range")
	}
	raw := p.buf[offset : offset+length]
	n := 0
	for n < len(raw) && raw[n] != 0 {
		n++
	}
	return string(raw[:n])
}

// PutStringAt writes a fixed-length, NUL-padded string at the given
// offset. value is truncated if it doesn't fit in length bytes.
func (p *Page) PutStringAt(offset int, value string, length int) bool {
	if !p.validPut(offset, length) {
		return false
	}
	dst := p.buf[offset : offset+length]
	for i := range dst {
		dst[i] = 0
	}
	copy(dst, value)
	p.advance(offset, length)
	return true
}

// GetString reads a fixed-length string at the cursor and advances it.
func (p *Page) GetString(length int) string {
	s := p.GetStringAt(p.currentPos, length)
	p.currentPos += length
	return s
}

// PutString writes a fixed-length string at the cursor and advances it
// on success.
func (p *Page) PutString(value string, length int) bool {
	return p.PutStringAt(p.currentPos, value, length)
}
