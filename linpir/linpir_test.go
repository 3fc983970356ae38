package linpir

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/PengHao0916/hintless-pir/crypto/lwe"
	"github.com/PengHao0916/hintless-pir/crypto/rand"
	m "github.com/PengHao0916/hintless-pir/matrix"
)

var key = rand.PRGKey([16]byte{
	100, 121, 60, 254, 76, 111, 7, 102, 199, 220, 220, 5, 95, 174, 252, 221,
})

// Small insecure ring for fast tests
var testParams = Parameters{
	LogN:         10,
	Qs:           []uint64{35184371884033, 35184371703809},
	Ts:           []uint64{2056193, 1990657},
	GadgetLogB:   16,
	RowsPerBlock: 100,
}

func expectedProducts(hint *m.Matrix[m.Elem32], secret []int64) []int64 {
	out := make([]int64, hint.Rows())
	for r := uint64(0); r < hint.Rows(); r++ {
		for c := uint64(0); c < hint.Cols(); c++ {
			out[r] += int64(hint.Get(r, c)) * secret[c]
		}
	}
	return out
}

func TestHintEvaluation(t *testing.T) {
	secretDim := uint64(64)
	numRows := uint64(230) // two full blocks plus a remainder block

	ctx, err := NewContext(testParams, secretDim)
	assert.NilError(t, err)

	prg := rand.NewBufPRG(rand.NewPRG(&key))
	hint := m.Rand[m.Elem32](prg, numRows, secretDim, 0)

	server, err := NewServer(ctx, hint)
	assert.NilError(t, err)
	assert.Equal(t, server.NumBlocks(), 3)

	client := NewClient(ctx)
	km, err := client.KeyMaterial()
	assert.NilError(t, err)
	evk, err := BuildEvaluationKeySet(km)
	assert.NilError(t, err)

	secret := lwe.SampleTernaryVec(prg, secretDim)
	encSecret, err := client.EncryptSecret(secret)
	assert.NilError(t, err)

	responses, err := server.Answer(encSecret, evk)
	assert.NilError(t, err)
	assert.Equal(t, len(responses), 3)

	got, err := client.Recover(responses, numRows)
	assert.NilError(t, err)

	want := expectedProducts(hint, secret)
	for r := range want {
		assert.Equal(t, got[r], want[r], "row %d", r)
	}
}

func TestBlockAlignedRows(t *testing.T) {
	secretDim := uint64(32)
	numRows := testParams.RowsPerBlock * 2 // exact multiple, no padding block

	ctx, err := NewContext(testParams, secretDim)
	assert.NilError(t, err)

	prg := rand.NewBufPRG(rand.NewPRG(&key))
	hint := m.Rand[m.Elem32](prg, numRows, secretDim, 0)

	server, err := NewServer(ctx, hint)
	assert.NilError(t, err)
	assert.Equal(t, server.NumBlocks(), 2)

	client := NewClient(ctx)
	km, err := client.KeyMaterial()
	assert.NilError(t, err)
	evk, err := BuildEvaluationKeySet(km)
	assert.NilError(t, err)

	secret := lwe.SampleTernaryVec(prg, secretDim)
	encSecret, err := client.EncryptSecret(secret)
	assert.NilError(t, err)

	responses, err := server.Answer(encSecret, evk)
	assert.NilError(t, err)

	got, err := client.Recover(responses, numRows)
	assert.NilError(t, err)

	want := expectedProducts(hint, secret)
	for r := range want {
		assert.Equal(t, got[r], want[r], "row %d", r)
	}
}

func TestZeroHint(t *testing.T) {
	secretDim := uint64(16)

	ctx, err := NewContext(testParams, secretDim)
	assert.NilError(t, err)

	hint := m.Zeros[m.Elem32](50, secretDim)
	server, err := NewServer(ctx, hint)
	assert.NilError(t, err)

	client := NewClient(ctx)
	km, err := client.KeyMaterial()
	assert.NilError(t, err)
	evk, err := BuildEvaluationKeySet(km)
	assert.NilError(t, err)

	prg := rand.NewBufPRG(rand.NewPRG(&key))
	encSecret, err := client.EncryptSecret(lwe.SampleTernaryVec(prg, secretDim))
	assert.NilError(t, err)

	responses, err := server.Answer(encSecret, evk)
	assert.NilError(t, err)

	got, err := client.Recover(responses, 50)
	assert.NilError(t, err)
	for r := range got {
		assert.Equal(t, got[r], int64(0))
	}
}

func TestContextValidation(t *testing.T) {
	// Secret dimension must be a power of two that fits in the slots
	_, err := NewContext(testParams, 48)
	assert.Assert(t, err != nil)
	_, err = NewContext(testParams, 1024)
	assert.Assert(t, err != nil)

	bad := testParams
	bad.Ts = []uint64{2056194} // not 1 mod 2N
	_, err = NewContext(bad, 64)
	assert.Assert(t, err != nil)

	bad = testParams
	bad.RowsPerBlock = 0
	_, err = NewContext(bad, 64)
	assert.Assert(t, err != nil)
}

func TestRequestShapeChecks(t *testing.T) {
	ctx, err := NewContext(testParams, 16)
	assert.NilError(t, err)

	prg := rand.NewBufPRG(rand.NewPRG(&key))
	hint := m.Rand[m.Elem32](prg, 10, 16, 0)
	server, err := NewServer(ctx, hint)
	assert.NilError(t, err)

	client := NewClient(ctx)
	km, err := client.KeyMaterial()
	assert.NilError(t, err)
	evk, err := BuildEvaluationKeySet(km)
	assert.NilError(t, err)

	_, err = client.EncryptSecret(make([]int64, 17))
	assert.Assert(t, err != nil)

	encSecret, err := client.EncryptSecret(lwe.SampleTernaryVec(prg, 16))
	assert.NilError(t, err)
	_, err = server.Answer(encSecret[:1], evk)
	assert.Assert(t, err != nil)

	responses, err := server.Answer(encSecret, evk)
	assert.NilError(t, err)
	_, err = client.Recover(responses[:0], 10)
	assert.Assert(t, err != nil)
}
