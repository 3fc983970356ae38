package linpir

import (
	"fmt"
	"slices"
)

// Parameters of the BGV instantiations used for hint evaluation.
//
// The Qs are the RNS limbs of the ciphertext modulus and are shared by every
// plaintext modulus in Ts. Products are recovered exactly when they lie in
// (-T/2, T/2] for T the product of the Ts, so Ts bounds the magnitude of the
// hint-vector products the scheme can represent.
type Parameters struct {
	LogN int
	Qs   []uint64
	Ts   []uint64

	// Base-2 logarithm of the gadget decomposition base of the rotation keys
	GadgetLogB int

	// Hint matrices taller than this are split into independently evaluated
	// row-blocks
	RowsPerBlock uint64
}

func (p Parameters) Equal(other Parameters) bool {
	return p.LogN == other.LogN &&
		slices.Equal(p.Qs, other.Qs) &&
		slices.Equal(p.Ts, other.Ts) &&
		p.GadgetLogB == other.GadgetLogB &&
		p.RowsPerBlock == other.RowsPerBlock
}

func (p Parameters) validate() error {
	if p.LogN < 10 || p.LogN > 16 {
		return fmt.Errorf("linpir: ring degree 2^%d out of range", p.LogN)
	}
	if len(p.Qs) == 0 {
		return fmt.Errorf("linpir: no ciphertext moduli")
	}
	if len(p.Ts) == 0 {
		return fmt.Errorf("linpir: no plaintext moduli")
	}

	// The CRT recombination is done in uint64 arithmetic: intermediate values
	// reach T * max(Ts)
	bigT := uint64(1)
	for _, t := range p.Ts {
		if t == 0 || t%(2<<p.LogN) != 1 {
			return fmt.Errorf("linpir: plaintext modulus %d is not 1 mod 2N", t)
		}
		if t >= 1<<31 {
			return fmt.Errorf("linpir: plaintext modulus %d too large", t)
		}
		if bigT >= (1<<62)/t {
			return fmt.Errorf("linpir: product of plaintext moduli too large")
		}
		bigT *= t
	}

	if p.GadgetLogB < 1 || p.GadgetLogB > 63 {
		return fmt.Errorf("linpir: bad gadget base 2^%d", p.GadgetLogB)
	}
	if p.RowsPerBlock == 0 {
		return fmt.Errorf("linpir: block height must be positive")
	}
	return nil
}
