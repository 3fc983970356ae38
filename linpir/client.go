package linpir

import (
	"fmt"
	"math/big"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/he/heint"
	"github.com/tuneinsight/lattigo/v5/utils"
)

type Client struct {
	ctx        *Context
	sk         *rlwe.SecretKey
	encoders   []*heint.Encoder
	encryptors []*rlwe.Encryptor
	decryptors []*rlwe.Decryptor
}

func NewClient(ctx *Context) *Client {
	// The ring is identical across plaintext moduli, so a single secret key
	// is valid for every instantiation
	sk := rlwe.NewKeyGenerator(ctx.schemes[0]).GenSecretKeyNew()

	c := &Client{
		ctx:        ctx,
		sk:         sk,
		encoders:   make([]*heint.Encoder, len(ctx.schemes)),
		encryptors: make([]*rlwe.Encryptor, len(ctx.schemes)),
		decryptors: make([]*rlwe.Decryptor, len(ctx.schemes)),
	}
	for k, scheme := range ctx.schemes {
		c.encoders[k] = heint.NewEncoder(scheme)
		c.encryptors[k] = heint.NewEncryptor(scheme, sk)
		c.decryptors[k] = heint.NewDecryptor(scheme, sk)
	}
	return c
}

// Generate the rotation keys a server needs to evaluate hint products for
// this client
func (c *Client) KeyMaterial() (*KeyMaterial, error) {
	kgen := rlwe.NewKeyGenerator(c.ctx.schemes[0])
	evkParams := rlwe.EvaluationKeyParameters{
		BaseTwoDecomposition: utils.Pointy(c.ctx.params.GadgetLogB),
	}

	gks := kgen.GenGaloisKeysNew(c.ctx.GaloisElements(), c.sk, evkParams)
	km := &KeyMaterial{GaloisKeys: make([]CipherBlob, len(gks))}
	for i, gk := range gks {
		blob, err := gk.MarshalBinary()
		if err != nil {
			return nil, err
		}
		km.GaloisKeys[i] = blob
	}
	return km, nil
}

// Encrypt a secret vector, repeated across the slots, once per plaintext
// modulus
func (c *Client) EncryptSecret(secret []int64) ([]CipherBlob, error) {
	if uint64(len(secret)) != c.ctx.secretDim {
		return nil, fmt.Errorf("linpir: secret has dimension %d, want %d", len(secret), c.ctx.secretDim)
	}

	slots := c.ctx.Slots()
	blobs := make([]CipherBlob, len(c.ctx.schemes))
	for k, scheme := range c.ctx.schemes {
		t := int64(scheme.PlaintextModulus())
		vals := make([]uint64, scheme.N())
		for x := 0; x < slots; x++ {
			v := secret[uint64(x)%c.ctx.secretDim] % t
			if v < 0 {
				v += t
			}
			vals[x] = uint64(v)
		}

		pt := heint.NewPlaintext(scheme, scheme.MaxLevel())
		if err := c.encoders[k].Encode(vals, pt); err != nil {
			return nil, err
		}
		ct, err := c.encryptors[k].EncryptNew(pt)
		if err != nil {
			return nil, err
		}
		if blobs[k], err = ct.MarshalBinary(); err != nil {
			return nil, err
		}
	}
	return blobs, nil
}

// Recover the integer hint-vector products from per-block responses. Input
// is indexed as [block][modulus]; the output has one centered value per hint
// row.
func (c *Client) Recover(responses [][]CipherBlob, numRows uint64) ([]int64, error) {
	if len(responses) != c.ctx.NumBlocks(numRows) {
		return nil, fmt.Errorf("linpir: got %d response blocks, want %d", len(responses), c.ctx.NumBlocks(numRows))
	}

	ts := c.ctx.params.Ts
	bigT := uint64(1)
	for _, t := range ts {
		bigT *= t
	}

	// CRT recombination constants: basis[k] = (T/ts[k]) and its inverse mod ts[k]
	basis := make([]uint64, len(ts))
	invs := make([]uint64, len(ts))
	for k, t := range ts {
		basis[k] = bigT / t
		inv := new(big.Int).ModInverse(
			new(big.Int).SetUint64(basis[k]%t),
			new(big.Int).SetUint64(t),
		)
		if inv == nil {
			return nil, fmt.Errorf("linpir: plaintext moduli are not coprime")
		}
		invs[k] = inv.Uint64()
	}

	out := make([]int64, numRows)
	for b, group := range responses {
		if len(group) != len(ts) {
			return nil, fmt.Errorf("linpir: response block has %d ciphertexts, want %d", len(group), len(ts))
		}

		lo := uint64(b) * c.ctx.params.RowsPerBlock
		rows := min(c.ctx.params.RowsPerBlock, numRows-lo)

		residues := make([][]uint64, len(ts))
		for k, blob := range group {
			ct := new(rlwe.Ciphertext)
			if err := ct.UnmarshalBinary(blob); err != nil {
				return nil, err
			}
			vals := make([]uint64, c.ctx.schemes[k].N())
			pt := c.decryptors[k].DecryptNew(ct)
			if err := c.encoders[k].Decode(pt, vals); err != nil {
				return nil, err
			}
			residues[k] = vals
		}

		for i := uint64(0); i < rows; i++ {
			var x uint64
			for k, t := range ts {
				x = (x + ((residues[k][i]*invs[k])%t)*basis[k]) % bigT
			}
			v := int64(x)
			if x > bigT/2 {
				v -= int64(bigT)
			}
			out[lo+i] = v
		}
	}
	return out, nil
}
