// Package linpir evaluates matrix-vector products over encrypted vectors.
//
// The matrix is known to the server in the clear; the vector arrives as a
// BGV ciphertext with the vector repeated across the plaintext slots. The
// product is computed with the baby-step giant-step diagonal method, one
// ciphertext per row-block and plaintext modulus. Working residues mod
// several plaintext moduli are recombined by CRT on the client, so the
// scheme recovers exact integer products as long as they stay below half
// the product of the moduli.
package linpir

import (
	"fmt"

	"github.com/tuneinsight/lattigo/v5/he/heint"
)

// Opaque type for serialized lattigo objects
type CipherBlob = []byte

// Per-session key material a client sends ahead of its first query
type KeyMaterial struct {
	GaloisKeys []CipherBlob
}

func (km *KeyMaterial) Size() uint64 {
	size := uint64(0)
	for _, gk := range km.GaloisKeys {
		size += uint64(len(gk))
	}
	return size
}

// Context holds the BGV instantiations shared by clients and servers. All
// plaintext moduli share the same ring, so one secret key and one set of
// rotation keys serves every instantiation.
type Context struct {
	params    Parameters
	secretDim uint64
	schemes   []heint.Parameters

	// Baby-step / giant-step split of the diagonal method: secretDim is
	// factored as n1 * n2 with n1 a power of two near sqrt(secretDim)
	n1, n2 int
}

func NewContext(params Parameters, secretDim uint64) (*Context, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	slots := uint64(1) << (params.LogN - 1)
	if secretDim == 0 || secretDim&(secretDim-1) != 0 {
		return nil, fmt.Errorf("linpir: secret dimension %d is not a power of two", secretDim)
	}
	if secretDim > slots {
		return nil, fmt.Errorf("linpir: secret dimension %d exceeds slot count %d", secretDim, slots)
	}
	if params.RowsPerBlock > slots {
		return nil, fmt.Errorf("linpir: block height %d exceeds slot count %d", params.RowsPerBlock, slots)
	}

	schemes := make([]heint.Parameters, len(params.Ts))
	for k, t := range params.Ts {
		scheme, err := heint.NewParametersFromLiteral(heint.ParametersLiteral{
			LogN:             params.LogN,
			Q:                params.Qs,
			PlaintextModulus: t,
		})
		if err != nil {
			return nil, fmt.Errorf("linpir: bad ring parameters: %w", err)
		}
		schemes[k] = scheme
	}

	n1 := uint64(1)
	for n1*n1 < secretDim {
		n1 <<= 1
	}

	return &Context{
		params:    params,
		secretDim: secretDim,
		schemes:   schemes,
		n1:        int(n1),
		n2:        int(secretDim / n1),
	}, nil
}

func (c *Context) Params() Parameters {
	return c.params
}

func (c *Context) SecretDim() uint64 {
	return c.secretDim
}

// Number of usable slots per ciphertext (one matrix row of the BGV packing)
func (c *Context) Slots() int {
	return 1 << (c.params.LogN - 1)
}

func (c *Context) NumBlocks(numRows uint64) int {
	return int((numRows + c.params.RowsPerBlock - 1) / c.params.RowsPerBlock)
}

// Galois elements for every rotation the diagonal method performs
func (c *Context) GaloisElements() []uint64 {
	ks := make([]int, 0, c.n1+c.n2-2)
	for i := 1; i < c.n1; i++ {
		ks = append(ks, i)
	}
	for j := 1; j < c.n2; j++ {
		ks = append(ks, j*c.n1)
	}
	return c.schemes[0].GaloisElements(ks)
}
