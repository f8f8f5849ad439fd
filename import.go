package isomap

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/isomap/block"
	"github.com/bodgit/isomap/tile"
)

type xmlMap struct {
	XMLName xml.Name   `xml:"Map"`
	Tiles   []xmlTile  `xml:"Tile"`
	Blocks  []xmlBlock `xml:"Block"`
}

type xmlTile struct {
	XMLName xml.Name `xml:"Tile"`
	Set     uint16   `xml:"Set,attr"`
	Index   uint16   `xml:"Index,attr"`
	Image   string   `xml:"Image,attr"`
	Raw     string   `xml:"Raw,attr"`
	Blend   bool     `xml:"Blend,attr"`
	X       int      `xml:"X,attr"`
	Y       int      `xml:"Y,attr"`
}

type xmlBlock struct {
	XMLName xml.Name    `xml:"Block"`
	X       int         `xml:"X,attr"`
	Y       int         `xml:"Y,attr"`
	Objects []xmlObject `xml:"Object"`
}

type xmlObject struct {
	XMLName xml.Name `xml:"Object"`
	X       uint16   `xml:"X,attr"`
	Y       uint16   `xml:"Y,attr"`
	Set     uint16   `xml:"Set,attr"`
	Index   uint16   `xml:"Index,attr"`
	Layer   int      `xml:"Layer,attr"`
}

func manifestPath(base, file string) string {
	return filepath.Join(filepath.Dir(base), filepath.Clean(strings.ReplaceAll(file, "\\", string(os.PathSeparator))))
}

// Shift the image bounds so the tile is framed with its offset
type offsetImage struct {
	image.Image
	offset image.Point
}

func (m offsetImage) Bounds() image.Rectangle {
	return m.Image.Bounds().Add(m.offset)
}

func (m offsetImage) At(x, y int) color.Color {
	return m.Image.At(x-m.offset.X, y-m.offset.Y)
}

func encodeImage(file string, offset image.Point, blend bool) ([]byte, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	if offset != (image.Point{}) {
		m = offsetImage{m, offset}
	}

	b := new(bytes.Buffer)
	if err := tile.Encode(b, m, blend); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// ImportXML replaces the contents of the archive with the map described by
// the XML manifest in file. Each tile is either a raw record copied
// verbatim or an image which is encoded as it is imported. Objects are
// numbered in the order they appear in the manifest.
func (a *Archive) ImportXML(file string) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := ioutil.ReadAll(f)
	if err != nil {
		return err
	}

	var manifest xmlMap
	if err := xml.Unmarshal(b, &manifest); err != nil {
		return err
	}

	if err := a.Reset(); err != nil {
		return err
	}

	for _, t := range manifest.Tiles {
		var raw []byte
		switch {
		case t.Raw != "":
			if raw, err = ioutil.ReadFile(manifestPath(file, t.Raw)); err != nil {
				return err
			}
		case t.Image != "":
			if raw, err = encodeImage(manifestPath(file, t.Image), image.Pt(t.X, t.Y), t.Blend); err != nil {
				return err
			}
		default:
			return fmt.Errorf("tile %d:%d has no data", t.Set, t.Index)
		}

		if err := a.AddTile(tile.Key{Set: t.Set, Index: t.Index}, raw); err != nil {
			return err
		}
	}

	var seq uint64
	for _, xb := range manifest.Blocks {
		b := block.New(block.Coord{X: xb.X, Y: xb.Y})
		for _, o := range xb.Objects {
			seq++
			b.Objects = append(b.Objects, block.Object{
				X:     o.X,
				Y:     o.Y,
				Key:   tile.Key{Set: o.Set, Index: o.Index},
				Layer: o.Layer,
				Seq:   seq,
			})
		}
		if err := a.AddBlock(b); err != nil {
			return err
		}
	}

	return nil
}
