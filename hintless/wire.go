package hintless

import (
	"github.com/PengHao0916/hintless-pir/crypto/rand"
	"github.com/PengHao0916/hintless-pir/linpir"
	m "github.com/PengHao0916/hintless-pir/matrix"
)

// PublicParams is the once-per-database snapshot clients bootstrap from. The
// LWE public matrix travels as a PRG seed; the hint itself never leaves the
// server.
type PublicParams struct {
	Params Parameters
	SeedA  rand.PRGKey
}

func (pp *PublicParams) Size() uint64 {
	size := uint64(len(pp.SeedA))
	size += 5 * 8 // database and LWE geometry
	size += uint64(2+len(pp.Params.LinPIR.Qs)+len(pp.Params.LinPIR.Ts)+1) * 8
	return size
}

// Request carries one query. KeyMaterial is present only on the first
// request of a session; the server caches it under SessionID.
type Request struct {
	SessionID uint64

	// LWE query vector, padded to the squished database width
	Query *m.Matrix[m.Elem32]

	// Encryptions of the LWE secret, one per hint plaintext modulus
	EncSecret []linpir.CipherBlob

	KeyMaterial *linpir.KeyMaterial
}

func (r *Request) Size() uint64 {
	size := uint64(8)
	if r.Query != nil {
		size += r.Query.Size() * m.Elem32(0).Bitlen() / 8
	}
	for _, blob := range r.EncSecret {
		size += uint64(len(blob))
	}
	if r.KeyMaterial != nil {
		size += r.KeyMaterial.Size()
	}
	return size
}

// Response carries the LWE answers (one vector per row-block) and the
// homomorphically evaluated hint corrections (one ciphertext per row-block
// and plaintext modulus).
type Response struct {
	CtRecords       []*m.Matrix[m.Elem32]
	LinPIRResponses [][]linpir.CipherBlob
}

func (r *Response) Size() uint64 {
	size := uint64(0)
	for _, ans := range r.CtRecords {
		size += ans.Size() * m.Elem32(0).Bitlen() / 8
	}
	for _, group := range r.LinPIRResponses {
		for _, blob := range group {
			size += uint64(len(blob))
		}
	}
	return size
}
