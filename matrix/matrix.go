package matrix

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	mrand "math/rand"

	"golang.org/x/exp/constraints"

	"github.com/PengHao0916/hintless-pir/crypto/lwe"
)

// Matrices are over Z_2^32 or Z_2^64; modular reduction is just the natural
// wraparound of the element type.
type Elem32 uint32
type Elem64 uint64

func (Elem32) Bitlen() uint64 { return 32 }
func (Elem64) Bitlen() uint64 { return 64 }

type Elem interface {
	constraints.Unsigned
	Bitlen() uint64
}

// Randomness source usable both as an io.Reader and a math/rand source
type IoRandSource interface {
	io.Reader
	mrand.Source64
}

// Squished matrices pack `squishDelta` entries of `squishBasis` bits each
// into a single 32-bit element
const (
	squishBasis = uint64(10)
	squishDelta = uint64(3)
)

type Matrix[T Elem] struct {
	rows uint64
	cols uint64
	data []T
}

func New[T Elem](rows, cols uint64) *Matrix[T] {
	return &Matrix[T]{
		rows: rows,
		cols: cols,
		data: make([]T, rows*cols),
	}
}

func Zeros[T Elem](rows, cols uint64) *Matrix[T] {
	return New[T](rows, cols)
}

// Wrap existing data without copying
func NewFromRaw[T Elem](data []T, rows, cols uint64) *Matrix[T] {
	if uint64(len(data)) != rows*cols {
		panic(dimErr(rows, cols, uint64(len(data)), 1))
	}
	return &Matrix[T]{rows, cols, data}
}

// Sample a uniform matrix. A `mod` of 0 means the full range of T.
func Rand[T Elem](src IoRandSource, rows, cols, mod uint64) *Matrix[T] {
	out := New[T](rows, cols)
	for i := range out.data {
		if mod == 0 {
			out.data[i] = T(src.Uint64())
		} else {
			out.data[i] = T(src.Uint64() % mod)
		}
	}
	return out
}

// Sample a matrix with entries drawn from a discrete gaussian, stored in
// two's complement
func Gaussian[T Elem](src IoRandSource, rows, cols uint64) *Matrix[T] {
	out := New[T](rows, cols)
	for i := range out.data {
		if T(0).Bitlen() == 32 {
			out.data[i] = T(lwe.GaussSample32(src))
		} else {
			out.data[i] = T(lwe.GaussSample64(src))
		}
	}
	return out
}

func (m *Matrix[T]) Rows() uint64 {
	return m.rows
}

func (m *Matrix[T]) Cols() uint64 {
	return m.cols
}

// Number of entries, _not_ bytes
func (m *Matrix[T]) Size() uint64 {
	return m.rows * m.cols
}

func (m *Matrix[T]) Data() []T {
	return m.data
}

func (m *Matrix[T]) Get(i, j uint64) T {
	if i >= m.rows || j >= m.cols {
		panic("Out of bounds")
	}
	return m.data[i*m.cols+j]
}

func (m *Matrix[T]) Set(i, j uint64, val T) {
	if i >= m.rows || j >= m.cols {
		panic("Out of bounds")
	}
	m.data[i*m.cols+j] = val
}

func (m *Matrix[T]) Copy() *Matrix[T] {
	out := New[T](m.rows, m.cols)
	copy(out.data, m.data)
	return out
}

func (a *Matrix[T]) Equal(b *Matrix[T]) bool {
	if a.rows != b.rows || a.cols != b.cols {
		return false
	}
	for i := range a.data {
		if a.data[i] != b.data[i] {
			return false
		}
	}
	return true
}

func (a *Matrix[T]) Add(b *Matrix[T]) {
	if a.cols != b.cols || a.rows != b.rows {
		panic(dimErr(a.rows, a.cols, b.rows, b.cols))
	}
	for i := range a.data {
		a.data[i] += b.data[i]
	}
}

func (a *Matrix[T]) Sub(b *Matrix[T]) {
	if a.cols != b.cols || a.rows != b.rows {
		panic(dimErr(a.rows, a.cols, b.rows, b.cols))
	}
	for i := range a.data {
		a.data[i] -= b.data[i]
	}
}

func (a *Matrix[T]) MulConst(val T) {
	for i := range a.data {
		a.data[i] *= val
	}
}

// Append `n` zero rows to a column vector
func (a *Matrix[T]) AppendZeros(n uint64) {
	a.Concat(Zeros[T](n, a.cols))
}

func (a *Matrix[T]) Concat(b *Matrix[T]) {
	if a.cols == 0 && a.rows == 0 {
		a.cols = b.cols
		a.rows = b.rows
		a.data = b.data
		return
	}
	if a.cols != b.cols {
		panic(dimErr(a.rows, a.cols, b.rows, b.cols))
	}
	a.rows += b.rows
	a.data = append(a.data, b.data...)
}

// Select a range of rows sharing the underlying storage
func (m *Matrix[T]) SelectRows(offset, num uint64) *Matrix[T] {
	if offset+num > m.rows {
		panic("Out of bounds")
	}
	if offset == 0 && num == m.rows {
		return m
	}
	return &Matrix[T]{
		rows: num,
		cols: m.cols,
		data: m.data[offset*m.cols : (offset+num)*m.cols],
	}
}

func Mul[T Elem](a, b *Matrix[T]) *Matrix[T] {
	if b.cols == 1 {
		return MulVec(a, b)
	}
	if a.cols != b.rows {
		panic(dimErr(a.rows, a.cols, b.rows, b.cols))
	}

	out := New[T](a.rows, b.cols)
	for i := uint64(0); i < a.rows; i++ {
		for k := uint64(0); k < a.cols; k++ {
			val := a.data[i*a.cols+k]
			if val == 0 {
				continue
			}
			for j := uint64(0); j < b.cols; j++ {
				out.data[i*b.cols+j] += val * b.data[k*b.cols+j]
			}
		}
	}
	return out
}

func MulVec[T Elem](a, b *Matrix[T]) *Matrix[T] {
	if a.cols != b.rows || b.cols != 1 {
		panic(dimErr(a.rows, a.cols, b.rows, b.cols))
	}

	out := New[T](a.rows, 1)
	for i := uint64(0); i < a.rows; i++ {
		var acc T
		row := a.data[i*a.cols : (i+1)*a.cols]
		for j := range row {
			acc += row[j] * b.data[j]
		}
		out.data[i] = acc
	}
	return out
}

// A matrix whose rows are generated on-the-fly from PRG seeds rather than
// stored. Row counts are given per-source.
type SeededMatrix[T Elem] struct {
	srcs []IoRandSource
	rows []uint64
	cols uint64
}

func NewSeeded[T Elem](srcs []IoRandSource, rows []uint64, cols uint64) *SeededMatrix[T] {
	if len(srcs) != len(rows) {
		panic("Mismatched seeds")
	}
	return &SeededMatrix[T]{srcs, rows, cols}
}

// Compute `a * b` where `a` is seeded, streaming the rows of `a` so the full
// matrix is never materialized
func MulSeededLeft[T Elem](a *SeededMatrix[T], b *Matrix[T]) *Matrix[T] {
	if a.cols != b.rows || b.cols != 1 {
		panic("Dimension mismatch")
	}

	var total uint64
	for _, r := range a.rows {
		total += r
	}

	out := New[T](total, 1)
	row := make([]T, a.cols)
	idx := uint64(0)
	for i, src := range a.srcs {
		for r := uint64(0); r < a.rows[i]; r++ {
			for j := range row {
				row[j] = T(src.Uint64())
			}
			var acc T
			for j := range row {
				acc += row[j] * b.data[j]
			}
			out.data[idx] = acc
			idx++
		}
	}
	return out
}

// Whether entries bounded by `p` can be packed into fewer 32-bit words
func CanSquish[T Elem](p uint64) bool {
	return T(0).Bitlen() == 32 && p <= (1<<squishBasis)
}

func SquishRatio() uint64 {
	return squishDelta
}

func (m *Matrix[T]) CanSquish(p uint64) bool {
	return CanSquish[T](p)
}

func (m *Matrix[T]) SquishRatio() uint64 {
	return SquishRatio()
}

// Pack groups of `squishDelta` consecutive entries into single elements of
// `squishBasis` bits each. Entries must fit in `squishBasis` bits.
func (m *Matrix[T]) Squish() {
	cols := (m.cols + squishDelta - 1) / squishDelta
	out := New[T](m.rows, cols)
	for i := uint64(0); i < m.rows; i++ {
		for j := uint64(0); j < cols; j++ {
			var packed T
			for k := uint64(0); k < squishDelta; k++ {
				if squishDelta*j+k < m.cols {
					packed += m.data[i*m.cols+squishDelta*j+k] << (k * squishBasis)
				}
			}
			out.data[i*cols+j] = packed
		}
	}
	*m = *out
}

// Multiply a squished matrix with an (unsquished) vector. The vector must be
// padded to a multiple of `squishDelta` entries.
func MulVecPacked[T Elem](a, b *Matrix[T]) *Matrix[T] {
	if a.cols*squishDelta != b.rows || b.cols != 1 {
		panic(dimErr(a.rows, a.cols, b.rows, b.cols))
	}

	mask := T(1)<<squishBasis - 1
	out := New[T](a.rows, 1)
	for i := uint64(0); i < a.rows; i++ {
		var acc T
		row := a.data[i*a.cols : (i+1)*a.cols]
		for j := range row {
			packed := row[j]
			acc += (packed & mask) * b.data[squishDelta*uint64(j)]
			acc += ((packed >> squishBasis) & mask) * b.data[squishDelta*uint64(j)+1]
			acc += ((packed >> (2 * squishBasis)) & mask) * b.data[squishDelta*uint64(j)+2]
		}
		out.data[i] = acc
	}
	return out
}

func (m *Matrix[T]) GobEncode() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := gob.NewEncoder(buf)
	for _, field := range []any{m.rows, m.cols, m.data} {
		if err := enc.Encode(field); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (m *Matrix[T]) GobDecode(buf []byte) error {
	dec := gob.NewDecoder(bytes.NewBuffer(buf))
	for _, field := range []any{&m.rows, &m.cols, &m.data} {
		if err := dec.Decode(field); err != nil {
			return err
		}
	}
	return nil
}

func dimErr(aRows, aCols, bRows, bCols uint64) string {
	return fmt.Sprintf("Dimension mismatch: %d-by-%d vs. %d-by-%d", aRows, aCols, bRows, bCols)
}
