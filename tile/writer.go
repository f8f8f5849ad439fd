package tile

import (
	"encoding/binary"
	"errors"
	"image"
	"io"
	"math"
)

var errTooBig = errors.New("tile: image is too big")

type encoder struct {
	w io.Writer
}

func (e *encoder) writeFrame(p image.Point) error {
	if p.X < math.MinInt16 || p.X > math.MaxInt16 || p.Y < math.MinInt16 || p.Y > math.MaxInt16 {
		return errors.New("tile: offset out of range")
	}
	var tmp [1 + frameBytes]byte
	tmp[0] = byte(TypeFramed)
	binary.LittleEndian.PutUint16(tmp[1:], uint16(int16(p.X)))
	binary.LittleEndian.PutUint16(tmp[3:], uint16(int16(p.Y)))
	_, err := e.w.Write(tmp[:])
	return err
}

// Find each horizontal span of opaque pixels in a row
func segments(m image.Image, y int) [][2]int {
	b := m.Bounds()
	var spans [][2]int
	start := -1
	for x := b.Min.X; x <= b.Max.X; x++ {
		opaque := false
		if x < b.Max.X {
			_, _, _, a := m.At(x, y).RGBA()
			opaque = a >= 0x8000
		}
		switch {
		case opaque && start < 0:
			start = x
		case !opaque && start >= 0:
			spans = append(spans, [2]int{start - b.Min.X, x - start})
			start = -1
		}
	}
	return spans
}

func (e *encoder) encode(m image.Image, typ Type) error {
	b := m.Bounds()

	if _, err := e.w.Write([]byte{byte(typ), byte(b.Dy())}); err != nil {
		return err
	}

	var tmp [2]byte
	for y := b.Min.Y; y < b.Max.Y; y++ {
		spans := segments(m, y)
		if _, err := e.w.Write([]byte{byte(len(spans))}); err != nil {
			return err
		}
		for _, s := range spans {
			if _, err := e.w.Write([]byte{byte(s[0]), byte(s[1])}); err != nil {
				return err
			}
			for x := b.Min.X + s[0]; x < b.Min.X+s[0]+s[1]; x++ {
				binary.LittleEndian.PutUint16(tmp[:], RGB555(m.At(x, y)))
				if _, err := e.w.Write(tmp[:]); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// Encode writes the Image m to w as a sparse tile record. Pixels with less
// than half alpha are transparent. If the bounds of m do not start at the
// origin the record is framed with the minimum point as its offset.
func Encode(w io.Writer, m image.Image, blend bool) error {
	b := m.Bounds()
	if b.Dx() > Width || b.Dy() > Height {
		return errTooBig
	}

	e := encoder{w: w}

	if b.Min != (image.Point{}) {
		if err := e.writeFrame(b.Min); err != nil {
			return err
		}
	}

	typ := TypeSparse
	if blend {
		typ = TypeSparseBlend
	}

	return e.encode(m, typ)
}
