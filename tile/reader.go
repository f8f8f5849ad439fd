package tile

import (
	"bytes"
	"encoding/binary"
	"io"
)

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

type decoder struct {
	r *bytes.Reader
	t *Tile

	// Enough to hold a dense grid, the largest single read
	tmp [denseBytes]byte
}

func (d *decoder) readType() (Type, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		return 0, io.ErrUnexpectedEOF
	}
	return Type(b), nil
}

func (d *decoder) readFrame() error {
	if err := readFull(d.r, d.tmp[:frameBytes]); err != nil {
		return err
	}
	d.t.OffsetX = int(int16(binary.LittleEndian.Uint16(d.tmp[0:])))
	d.t.OffsetY = int(int16(binary.LittleEndian.Uint16(d.tmp[2:])))
	return nil
}

func (d *decoder) readDense() error {
	if err := readFull(d.r, d.tmp[:denseBytes]); err != nil {
		return err
	}
	for i := 0; i < numPixels; i++ {
		v := binary.LittleEndian.Uint16(d.tmp[i<<1:])
		if v&opaqueBit != 0 {
			d.t.Pixels[i] = v & colorMask
			d.t.Mask[i] = true
		}
	}
	return nil
}

func (d *decoder) readSparse() error {
	rows, err := d.r.ReadByte()
	if err != nil {
		return io.ErrUnexpectedEOF
	}
	if int(rows) > Height {
		return ErrBounds
	}

	for y := 0; y < int(rows); y++ {
		segments, err := d.r.ReadByte()
		if err != nil {
			return io.ErrUnexpectedEOF
		}
		for s := 0; s < int(segments); s++ {
			if err := readFull(d.r, d.tmp[:2]); err != nil {
				return err
			}
			start, count := int(d.tmp[0]), int(d.tmp[1])
			if start+count > Width {
				return ErrBounds
			}
			if err := readFull(d.r, d.tmp[:count<<1]); err != nil {
				return err
			}
			row := y*Width + start
			for x := 0; x < count; x++ {
				d.t.Pixels[row+x] = binary.LittleEndian.Uint16(d.tmp[x<<1:]) & colorMask
				d.t.Mask[row+x] = true
			}
		}
	}
	return nil
}

// measure computes the tight bounds of the opaque pixels
func (d *decoder) measure() {
	t := d.t
	for y := 0; y < Height; y++ {
		first, last := -1, -1
		for x := 0; x < Width; x++ {
			if t.Mask[y*Width+x] {
				if first < 0 {
					first = x
				}
				last = x
			}
		}
		if first < 0 {
			continue
		}
		t.Runs[y] = Run{Start: first, Count: last - first + 1}
		if t.Runs[y].End() > t.Width {
			t.Width = t.Runs[y].End()
		}
		t.Height = y + 1
	}
}

func (d *decoder) decode(raw []byte) error {
	if len(raw) == 0 {
		return ErrEmpty
	}
	d.r = bytes.NewReader(raw)

	typ, err := d.readType()
	if err != nil {
		return err
	}

	if typ == TypeFramed {
		if err := d.readFrame(); err != nil {
			return err
		}
		if typ, err = d.readType(); err != nil {
			return err
		}
		if typ == TypeFramed {
			return ErrNestedFrame
		}
	}

	switch typ {
	case TypeDense, TypeDenseBlend:
		err = d.readDense()
	case TypeSparse, TypeSparseBlend:
		err = d.readSparse()
	default:
		return ErrUnknownType
	}
	if err != nil {
		return err
	}

	if d.r.Len() > 0 {
		return ErrTrailing
	}

	d.t.Blend = typ.blend()
	d.measure()

	return nil
}

// Decode decodes a raw tile record. Identical input always produces an
// identical Tile. The returned error matches ErrDecode if the record is
// malformed.
func Decode(raw []byte) (*Tile, error) {
	d := decoder{t: new(Tile)}
	if err := d.decode(raw); err != nil {
		if err == io.ErrUnexpectedEOF {
			return nil, ErrTruncated
		}
		return nil, err
	}
	return d.t, nil
}
