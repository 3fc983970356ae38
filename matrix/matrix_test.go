package matrix

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/PengHao0916/hintless-pir/crypto/rand"
)

var key = rand.PRGKey([16]byte{
	100, 121, 60, 254, 76, 111, 7, 102, 199, 220, 220, 5, 95, 174, 252, 221,
})

func testMul[T Elem](t *testing.T, rows, inner, cols uint64) {
	prg := rand.NewBufPRG(rand.NewPRG(&key))
	a := Rand[T](prg, rows, inner, 0)
	b := Rand[T](prg, inner, cols, 0)
	out := Mul(a, b)

	for i := uint64(0); i < rows; i++ {
		for j := uint64(0); j < cols; j++ {
			var acc T
			for k := uint64(0); k < inner; k++ {
				acc += a.Get(i, k) * b.Get(k, j)
			}
			if out.Get(i, j) != acc {
				t.Fatalf("Mismatch @ (%d, %d)", i, j)
			}
		}
	}
}

func TestMul32(t *testing.T) {
	testMul[Elem32](t, 13, 29, 7)
	testMul[Elem32](t, 16, 16, 1)
}

func TestMul64(t *testing.T) {
	testMul[Elem64](t, 13, 29, 7)
}

func TestMulSeededLeft(t *testing.T) {
	rows := uint64(100)
	cols := uint64(64)
	prg := rand.NewBufPRG(rand.NewPRG(&key))
	vec := Rand[Elem32](prg, cols, 1, 0)

	seed := rand.RandomPRGKey()
	a := Rand[Elem32](rand.NewBufPRG(rand.NewPRG(seed)), rows, cols, 0)
	expected := Mul(a, vec)

	seeded := NewSeeded[Elem32](
		[]IoRandSource{rand.NewBufPRG(rand.NewPRG(seed))},
		[]uint64{rows},
		cols,
	)
	if !MulSeededLeft(seeded, vec).Equal(expected) {
		t.Fatal("Seeded product differs from materialized product")
	}
}

func TestSquish(t *testing.T) {
	rows := uint64(32)
	cols := uint64(100) // not a multiple of the squish ratio
	pMod := uint64(1 << 9)

	prg := rand.NewBufPRG(rand.NewPRG(&key))
	a := Rand[Elem32](prg, rows, cols, pMod)
	vec := Rand[Elem32](prg, cols, 1, 0)
	expected := MulVec(a, vec)

	if !a.CanSquish(pMod) {
		t.Fatal("Matrix should be squishable")
	}
	packed := a.Copy()
	packed.Squish()
	if packed.Cols() >= a.Cols() {
		t.Fatal("Squish did not compress")
	}

	padded := vec.Copy()
	if cols%packed.SquishRatio() != 0 {
		padded.AppendZeros(packed.SquishRatio() - (cols % packed.SquishRatio()))
	}
	if !MulVecPacked(packed, padded).Equal(expected) {
		t.Fatal("Packed product differs from plain product")
	}
}

func TestSquishFullWidthEntries(t *testing.T) {
	rows := uint64(16)
	cols := uint64(9)
	pMod := uint64(1) << squishBasis // entries need every bit of the pack width

	prg := rand.NewBufPRG(rand.NewPRG(&key))
	a := Rand[Elem32](prg, rows, cols, pMod)
	a.Set(0, 0, Elem32(pMod-1))
	vec := Rand[Elem32](prg, cols, 1, 0)
	expected := MulVec(a, vec)

	packed := a.Copy()
	packed.Squish()
	if !MulVecPacked(packed, vec).Equal(expected) {
		t.Fatal("Packed product dropped high entry bits")
	}
}

func TestSelectRows(t *testing.T) {
	prg := rand.NewBufPRG(rand.NewPRG(&key))
	a := Rand[Elem32](prg, 10, 4, 0)
	sub := a.SelectRows(3, 5)
	if sub.Rows() != 5 || sub.Cols() != 4 {
		t.Fatal("Bad dimensions")
	}
	for i := uint64(0); i < 5; i++ {
		for j := uint64(0); j < 4; j++ {
			if sub.Get(i, j) != a.Get(i+3, j) {
				t.Fatalf("Mismatch @ (%d, %d)", i, j)
			}
		}
	}
}

func TestGob(t *testing.T) {
	prg := rand.NewBufPRG(rand.NewPRG(&key))
	a := Rand[Elem32](prg, 7, 9, 0)

	buf := new(bytes.Buffer)
	if err := gob.NewEncoder(buf).Encode(a); err != nil {
		t.Fatal(err)
	}
	var b Matrix[Elem32]
	if err := gob.NewDecoder(buf).Decode(&b); err != nil {
		t.Fatal(err)
	}
	if !a.Equal(&b) {
		t.Fatal("Gob roundtrip mangled matrix")
	}
}
