package hintless

import (
	"fmt"

	"github.com/PengHao0916/hintless-pir/crypto/rand"
	m "github.com/PengHao0916/hintless-pir/matrix"
)

// Database holds records packed into an LWE-compatible matrix. Record i
// occupies column i % DBCols, rows (i / DBCols) * Ne through the following
// Ne-1, with limb j carrying record bits [j*PlaintextBits, (j+1)*PlaintextBits)
// in little-endian bit order. The matrix is immutable once built.
type Database struct {
	params Parameters
	data   *m.Matrix[m.Elem32]
}

func NewDatabase(params Parameters, records [][]byte) (*Database, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if uint64(len(records)) > params.NumRecords() {
		return nil, fmt.Errorf("%w: %d records exceed capacity %d",
			ErrConfig, len(records), params.NumRecords())
	}

	db := &Database{
		params: params,
		data:   m.Zeros[m.Elem32](params.MatrixRows(), params.MatrixCols()),
	}
	for i, rec := range records {
		if uint64(len(rec)) != params.RecordBytes() {
			return nil, fmt.Errorf("%w: record %d has %d bytes, want %d",
				ErrConfig, i, len(rec), params.RecordBytes())
		}
		if pad := params.RecordBits % 8; pad != 0 && rec[len(rec)-1]>>pad != 0 {
			return nil, fmt.Errorf("%w: record %d has non-zero padding bits", ErrConfig, i)
		}
		db.setRecord(uint64(i), rec)
	}
	return db, nil
}

// Build a database of uniformly random records
func NewRandomDatabase(params Parameters, prg *rand.BufPRGReader) (*Database, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	records := make([][]byte, params.NumRecords())
	for i := range records {
		rec := make([]byte, params.RecordBytes())
		if _, err := prg.Read(rec); err != nil {
			return nil, err
		}
		if pad := params.RecordBits % 8; pad != 0 {
			rec[len(rec)-1] &= byte(1<<pad) - 1
		}
		records[i] = rec
	}
	return NewDatabase(params, records)
}

func (db *Database) Params() Parameters {
	return db.params
}

func (db *Database) NumRecords() uint64 {
	return db.params.NumRecords()
}

func (db *Database) Data() *m.Matrix[m.Elem32] {
	return db.data
}

// Reconstruct record i from its matrix limbs
func (db *Database) Record(i uint64) ([]byte, error) {
	if i >= db.params.NumRecords() {
		return nil, fmt.Errorf("%w: %d >= %d", ErrOutOfRange, i, db.params.NumRecords())
	}

	p := db.params
	row := (i / p.DBCols) * p.Ne()
	col := i % p.DBCols
	limbs := make([]uint64, p.Ne())
	for j := range limbs {
		limbs[j] = uint64(db.data.Get(row+uint64(j), col))
	}
	return assembleRecord(p, limbs)
}

func (db *Database) setRecord(i uint64, rec []byte) {
	p := db.params
	row := (i / p.DBCols) * p.Ne()
	col := i % p.DBCols
	for j := uint64(0); j < p.Ne(); j++ {
		bits := min(p.PlaintextBits, p.RecordBits-j*p.PlaintextBits)
		db.data.Set(row+j, col, m.Elem32(getBits(rec, j*p.PlaintextBits, bits)))
	}
}

// Convert limb values back into record bytes. The final limb of a record has
// fewer valid bits when PlaintextBits does not divide RecordBits, so an
// over-range limb there signals a corrupted decode.
func assembleRecord(p Parameters, limbs []uint64) ([]byte, error) {
	if uint64(len(limbs)) != p.Ne() {
		return nil, fmt.Errorf("%w: got %d limbs, want %d", ErrDecode, len(limbs), p.Ne())
	}

	out := make([]byte, p.RecordBytes())
	for j, limb := range limbs {
		bits := min(p.PlaintextBits, p.RecordBits-uint64(j)*p.PlaintextBits)
		if limb >= 1<<bits {
			return nil, fmt.Errorf("%w: limb %d out of range", ErrDecode, j)
		}
		setBits(out, uint64(j)*p.PlaintextBits, bits, limb)
	}
	return out, nil
}

func getBits(buf []byte, off, n uint64) uint64 {
	var v uint64
	for k := uint64(0); k < n; k++ {
		bit := off + k
		v |= uint64(buf[bit/8]>>(bit%8)&1) << k
	}
	return v
}

func setBits(buf []byte, off, n, v uint64) {
	for k := uint64(0); k < n; k++ {
		bit := off + k
		if v>>k&1 != 0 {
			buf[bit/8] |= 1 << (bit % 8)
		}
	}
}
