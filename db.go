package isomap

import (
	"database/sql"
	"fmt"

	"github.com/bodgit/isomap/block"
	"github.com/bodgit/isomap/tile"
	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
)

// Archive is a sqlite database holding raw tile records along with the
// blocks and objects of a map. Tile records are stored zstd compressed.
type Archive struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewArchive opens, creating if necessary, the archive in file
func NewArchive(file string) (*Archive, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS tile (set_id INTEGER NOT NULL, index_id INTEGER NOT NULL, data BLOB NOT NULL, PRIMARY KEY(set_id, index_id))"); err != nil {
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS block (id INTEGER PRIMARY KEY NOT NULL, x INTEGER NOT NULL, y INTEGER NOT NULL, UNIQUE(x, y))"); err != nil {
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS object (block_id INTEGER NOT NULL, seq INTEGER NOT NULL, x INTEGER NOT NULL, y INTEGER NOT NULL, set_id INTEGER NOT NULL, index_id INTEGER NOT NULL, layer INTEGER NOT NULL, FOREIGN KEY(block_id) REFERENCES block(id))"); err != nil {
		return nil, err
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}

	return &Archive{
		db:  db,
		enc: enc,
		dec: dec,
	}, nil
}

// Reset removes everything from the archive
func (a *Archive) Reset() error {
	if _, err := a.db.Exec("DELETE FROM object"); err != nil {
		return err
	}

	if _, err := a.db.Exec("DELETE FROM block"); err != nil {
		return err
	}

	if _, err := a.db.Exec("DELETE FROM tile"); err != nil {
		return err
	}

	return nil
}

// AddTile stores the raw record for key, replacing any existing record
func (a *Archive) AddTile(key tile.Key, raw []byte) error {
	if _, err := a.db.Exec("INSERT OR REPLACE INTO tile (set_id, index_id, data) VALUES (?, ?, ?)", key.Set, key.Index, a.enc.EncodeAll(raw, nil)); err != nil {
		return err
	}
	return nil
}

// Lookup returns the raw record for key or tile.ErrMissing if there isn't
// one. It implements cache.Lookup.
func (a *Archive) Lookup(key tile.Key) ([]byte, error) {
	var data []byte
	switch err := a.db.QueryRow("SELECT data FROM tile WHERE set_id = ? AND index_id = ?", key.Set, key.Index).Scan(&data); err {
	case sql.ErrNoRows:
		return nil, tile.ErrMissing
	case nil:
		return a.dec.DecodeAll(data, nil)
	default:
		return nil, err
	}
}

func (a *Archive) addBlock(tx *sql.Tx, c block.Coord) (int64, error) {
	var id int64
	switch err := tx.QueryRow("SELECT id FROM block WHERE x = ? AND y = ?", c.X, c.Y).Scan(&id); err {
	case sql.ErrNoRows:
		result, err := tx.Exec("INSERT INTO block (x, y) VALUES (?, ?)", c.X, c.Y)
		if err != nil {
			return 0, err
		}
		return result.LastInsertId()
	case nil:
		return id, nil
	default:
		return 0, err
	}
}

// AddBlock stores b, replacing the objects of any existing block at the same
// coordinate
func (a *Archive) AddBlock(b *block.Block) error {
	tx, err := a.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	id, err := a.addBlock(tx, b.Coord)
	if err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM object WHERE block_id = ?", id); err != nil {
		return err
	}

	for _, o := range b.Objects {
		if _, err := tx.Exec("INSERT INTO object (block_id, seq, x, y, set_id, index_id, layer) VALUES (?, ?, ?, ?, ?, ?, ?)", id, int64(o.Seq), o.X, o.Y, o.Key.Set, o.Key.Index, o.Layer); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Blocks returns every block in the archive ordered by row then column,
// with objects in sequence order
func (a *Archive) Blocks() ([]*block.Block, error) {
	rows, err := a.db.Query("SELECT b.x, b.y, o.seq, o.x, o.y, o.set_id, o.index_id, o.layer FROM block AS b LEFT JOIN object AS o ON o.block_id = b.id ORDER BY b.y, b.x, o.seq")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []*block.Block
	var current *block.Block
	for rows.Next() {
		var c block.Coord
		var seq, x, y, set, index, layer sql.NullInt64
		if err := rows.Scan(&c.X, &c.Y, &seq, &x, &y, &set, &index, &layer); err != nil {
			return nil, err
		}

		if current == nil || current.Coord != c {
			current = block.New(c)
			blocks = append(blocks, current)
		}

		// A block without any objects
		if !seq.Valid {
			continue
		}

		current.Objects = append(current.Objects, block.Object{
			X:     uint16(x.Int64),
			Y:     uint16(y.Int64),
			Key:   tile.Key{Set: uint16(set.Int64), Index: uint16(index.Int64)},
			Layer: int(layer.Int64),
			Seq:   uint64(seq.Int64),
		})
	}

	return blocks, rows.Err()
}

// Close closes the archive
func (a *Archive) Close() error {
	a.dec.Close()
	if err := a.enc.Close(); err != nil {
		return err
	}
	return a.db.Close()
}
