package thumbnail

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"image"
	"image/png"
	"io"
	"math"
	"sort"

	"github.com/bodgit/isomap/block"
)

const (
	magic = "ISTH"

	// Filename is the default name used when writing a pack to disk
	Filename = "thumbs.ist"
)

var (
	errBadMagic    = errors.New("thumbnail: bad magic")
	errBadChecksum = errors.New("thumbnail: bad checksum")
)

// Pack holds one thumbnail per block. It implements the
// encoding.BinaryMarshaler and encoding.BinaryUnmarshaler interfaces.
type Pack struct {
	thumbs map[block.Coord][]byte
}

// NewPack returns an empty pack
func NewPack() *Pack {
	return &Pack{
		thumbs: make(map[block.Coord][]byte),
	}
}

// Length returns the number of thumbnails in the pack
func (p *Pack) Length() int {
	return len(p.thumbs)
}

// Set stores m as the thumbnail for the block at c, replacing any existing
// thumbnail
func (p *Pack) Set(c block.Coord, m image.Image) error {
	b := new(bytes.Buffer)
	if err := png.Encode(b, m); err != nil {
		return err
	}
	p.thumbs[c] = b.Bytes()
	return nil
}

// Get returns the thumbnail for the block at c, or nil if there isn't one
func (p *Pack) Get(c block.Coord) (image.Image, error) {
	b, ok := p.thumbs[c]
	if !ok {
		return nil, nil
	}
	return png.Decode(bytes.NewReader(b))
}

// Coords returns the coordinates of every thumbnail, sorted
func (p *Pack) Coords() []block.Coord {
	keys := make([]block.Coord, 0, len(p.thumbs))
	for k := range p.thumbs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

type header struct {
	X, Y   int32
	Length uint32
	CRC    uint32
}

// MarshalBinary encodes the pack into binary form and returns the result
func (p *Pack) MarshalBinary() ([]byte, error) {
	b := new(bytes.Buffer)
	b.WriteString(magic)

	if err := binary.Write(b, binary.LittleEndian, uint32(len(p.thumbs))); err != nil {
		return nil, err
	}

	for _, k := range p.Coords() {
		if k.X < math.MinInt32 || k.X > math.MaxInt32 || k.Y < math.MinInt32 || k.Y > math.MaxInt32 {
			return nil, fmt.Errorf("thumbnail: block %s out of range", k)
		}
		v := p.thumbs[k]
		if err := binary.Write(b, binary.LittleEndian, &header{int32(k.X), int32(k.Y), uint32(len(v)), crc32.ChecksumIEEE(v)}); err != nil {
			return nil, err
		}
		if _, err := b.Write(v); err != nil {
			return nil, err
		}
	}

	return b.Bytes(), nil
}

// UnmarshalBinary decodes the pack from binary form
func (p *Pack) UnmarshalBinary(b []byte) error {
	r := bytes.NewReader(b)

	p.thumbs = make(map[block.Coord][]byte)

	var m [len(magic)]byte
	if _, err := io.ReadFull(r, m[:]); err != nil || string(m[:]) != magic {
		return errBadMagic
	}

	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return err
	}

	for i := uint32(0); i < n; i++ {
		var h header
		if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
			return err
		}
		if int64(h.Length) > int64(r.Len()) {
			return errors.New("thumbnail: insufficient data")
		}
		v := make([]byte, h.Length)
		if _, err := io.ReadFull(r, v); err != nil {
			return err
		}
		if crc32.ChecksumIEEE(v) != h.CRC {
			return errBadChecksum
		}
		p.thumbs[block.Coord{X: int(h.X), Y: int(h.Y)}] = v
	}

	if r.Len() > 0 {
		return errors.New("thumbnail: too much data")
	}

	return nil
}
