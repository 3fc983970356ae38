package linpir

import (
	"fmt"
	"sync"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"
	"github.com/tuneinsight/lattigo/v5/he/heint"

	m "github.com/PengHao0916/hintless-pir/matrix"
)

type Server struct {
	ctx     *Context
	numRows uint64
	evals   []*heint.Evaluator

	// diags[k][b][d] is the d-th generalized diagonal of row-block b reduced
	// mod Ts[k], pre-rotated for the giant step it belongs to. A nil entry
	// marks an all-zero diagonal.
	diags [][][]*rlwe.Plaintext
}

// Preprocess a hint matrix into NTT-domain plaintext diagonals. The hint has
// one column per secret coefficient; rows beyond a multiple of the block
// height are zero-padded.
func NewServer(ctx *Context, hint *m.Matrix[m.Elem32]) (*Server, error) {
	n := ctx.secretDim
	if hint.Cols() != n {
		return nil, fmt.Errorf("linpir: hint has %d columns, want %d", hint.Cols(), n)
	}
	if hint.Rows() == 0 {
		return nil, fmt.Errorf("linpir: empty hint")
	}

	numRows := hint.Rows()
	numBlocks := ctx.NumBlocks(numRows)
	slots := uint64(ctx.Slots())
	n1 := uint64(ctx.n1)

	s := &Server{
		ctx:     ctx,
		numRows: numRows,
		evals:   make([]*heint.Evaluator, len(ctx.schemes)),
		diags:   make([][][]*rlwe.Plaintext, len(ctx.schemes)),
	}

	for k, scheme := range ctx.schemes {
		s.evals[k] = heint.NewEvaluator(scheme, nil)

		t := scheme.PlaintextModulus()
		ecd := heint.NewEncoder(scheme)
		vals := make([]uint64, scheme.N())

		s.diags[k] = make([][]*rlwe.Plaintext, numBlocks)
		for b := 0; b < numBlocks; b++ {
			lo := uint64(b) * ctx.params.RowsPerBlock
			rows := min(ctx.params.RowsPerBlock, numRows-lo)

			s.diags[k][b] = make([]*rlwe.Plaintext, n)
			for d := uint64(0); d < n; d++ {
				shift := (d / n1) * n1

				clear(vals)
				zero := true
				for x := uint64(0); x < slots; x++ {
					r := (x + slots - shift) % slots
					if r >= rows {
						continue
					}
					v := uint64(hint.Get(lo+r, (r+d)%n)) % t
					if v != 0 {
						vals[x] = v
						zero = false
					}
				}
				if zero {
					continue
				}

				pt := heint.NewPlaintext(scheme, scheme.MaxLevel())
				if err := ecd.Encode(vals, pt); err != nil {
					return nil, err
				}
				s.diags[k][b][d] = pt
			}
		}
	}
	return s, nil
}

func (s *Server) NumRows() uint64 {
	return s.numRows
}

func (s *Server) NumBlocks() int {
	return s.ctx.NumBlocks(s.numRows)
}

// Reassemble a client's rotation keys into an evaluation key set
func BuildEvaluationKeySet(km *KeyMaterial) (rlwe.EvaluationKeySet, error) {
	gks := make([]*rlwe.GaloisKey, len(km.GaloisKeys))
	for i, blob := range km.GaloisKeys {
		gk := new(rlwe.GaloisKey)
		if err := gk.UnmarshalBinary(blob); err != nil {
			return nil, err
		}
		gks[i] = gk
	}
	return rlwe.NewMemEvaluationKeySet(nil, gks...), nil
}

// Evaluate the hint products for one encrypted secret. Returns one
// ciphertext per (row-block, plaintext-modulus) pair, indexed as
// [block][modulus]. Row-blocks are evaluated in parallel.
func (s *Server) Answer(encSecret []CipherBlob, evk rlwe.EvaluationKeySet) ([][]CipherBlob, error) {
	if len(encSecret) != len(s.ctx.schemes) {
		return nil, fmt.Errorf("linpir: got %d encrypted secrets, want %d", len(encSecret), len(s.ctx.schemes))
	}

	numBlocks := s.NumBlocks()
	out := make([][]CipherBlob, numBlocks)
	for b := range out {
		out[b] = make([]CipherBlob, len(s.ctx.schemes))
	}

	var wg sync.WaitGroup
	errs := make([]error, len(s.ctx.schemes)*numBlocks)
	for k := range s.ctx.schemes {
		ct := new(rlwe.Ciphertext)
		if err := ct.UnmarshalBinary(encSecret[k]); err != nil {
			return nil, fmt.Errorf("linpir: bad encrypted secret: %w", err)
		}
		eval := s.evals[k].WithKey(evk)

		// Baby-step rotations are shared by every row-block
		rots := make([]*rlwe.Ciphertext, s.ctx.n1)
		rots[0] = ct
		for i := 1; i < s.ctx.n1; i++ {
			rot, err := eval.RotateColumnsNew(ct, i)
			if err != nil {
				return nil, err
			}
			rots[i] = rot
		}

		for b := 0; b < numBlocks; b++ {
			wg.Add(1)
			go func(k, b int, eval *heint.Evaluator) {
				defer wg.Done()
				acc, err := s.evalBlock(k, b, rots, eval)
				if err != nil {
					errs[k*numBlocks+b] = err
					return
				}
				blob, err := acc.MarshalBinary()
				if err != nil {
					errs[k*numBlocks+b] = err
					return
				}
				out[b][k] = blob
			}(k, b, eval.ShallowCopy())
		}
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Giant-step accumulation for a single (modulus, block) pair
func (s *Server) evalBlock(k, b int, rots []*rlwe.Ciphertext, eval *heint.Evaluator) (*rlwe.Ciphertext, error) {
	n1, n2 := s.ctx.n1, s.ctx.n2

	var acc *rlwe.Ciphertext
	for j := 0; j < n2; j++ {
		var inner *rlwe.Ciphertext
		for i := 0; i < n1; i++ {
			pt := s.diags[k][b][j*n1+i]
			if pt == nil {
				continue
			}
			if inner == nil {
				ct, err := eval.MulNew(rots[i], pt)
				if err != nil {
					return nil, err
				}
				inner = ct
			} else if err := eval.MulThenAdd(rots[i], pt, inner); err != nil {
				return nil, err
			}
		}
		if inner == nil {
			continue
		}

		if j > 0 {
			rot, err := eval.RotateColumnsNew(inner, j*n1)
			if err != nil {
				return nil, err
			}
			inner = rot
		}
		if acc == nil {
			acc = inner
		} else if err := eval.Add(acc, inner, acc); err != nil {
			return nil, err
		}
	}

	if acc == nil {
		// Whole block is zero: a transparent zero ciphertext is a valid
		// encryption of the all-zero product
		acc = heint.NewCiphertext(s.ctx.schemes[k], 1, s.ctx.schemes[k].MaxLevel())
	}
	return acc, nil
}
