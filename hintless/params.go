package hintless

import (
	"fmt"

	"github.com/PengHao0916/hintless-pir/linpir"
)

// Bits of headroom the rounding step needs between the plaintext and the
// 32-bit LWE modulus to absorb the query error and the hint-product noise
const noiseMarginBits = 16

// Parameters pins down the protocol instance. Client and server must agree
// on every field; see Equal.
type Parameters struct {
	// Database geometry: DBRows * DBCols records of RecordBits bits each
	DBRows     uint64
	DBCols     uint64
	RecordBits uint64

	// LWE query scheme: secret dimension and bits packed per matrix entry.
	// The LWE modulus is fixed to 2^32.
	SecretDim     uint64
	PlaintextBits uint64

	// Hint evaluation scheme
	LinPIR linpir.Parameters
}

func DefaultParameters() Parameters {
	return Parameters{
		DBRows:        1024,
		DBCols:        1024,
		RecordBits:    64,
		SecretDim:     1024,
		PlaintextBits: 8,
		LinPIR: linpir.Parameters{
			LogN:         12,
			Qs:           []uint64{35184371884033, 35184371703809},
			Ts:           []uint64{2056193, 1990657},
			GadgetLogB:   16,
			RowsPerBlock: 2048,
		},
	}
}

func (p Parameters) NumRecords() uint64 {
	return p.DBRows * p.DBCols
}

func (p Parameters) RecordBytes() uint64 {
	return (p.RecordBits + 7) / 8
}

// Z_p elements needed per record
func (p Parameters) Ne() uint64 {
	return (p.RecordBits + p.PlaintextBits - 1) / p.PlaintextBits
}

// Dimensions of the packed database matrix. Records are split vertically:
// record limbs stack within a column.
func (p Parameters) MatrixRows() uint64 {
	return p.DBRows * p.Ne()
}

func (p Parameters) MatrixCols() uint64 {
	return p.DBCols
}

func (p Parameters) PlaintextMod() uint64 {
	return 1 << p.PlaintextBits
}

// Scaling factor mapping plaintexts into the top bits of the LWE modulus
func (p Parameters) Delta() uint64 {
	return 1 << (32 - p.PlaintextBits)
}

func (p Parameters) Equal(other Parameters) bool {
	return p.DBRows == other.DBRows &&
		p.DBCols == other.DBCols &&
		p.RecordBits == other.RecordBits &&
		p.SecretDim == other.SecretDim &&
		p.PlaintextBits == other.PlaintextBits &&
		p.LinPIR.Equal(other.LinPIR)
}

func (p Parameters) Validate() error {
	if p.DBRows == 0 || p.DBCols == 0 {
		return fmt.Errorf("%w: empty database geometry", ErrConfig)
	}
	if p.RecordBits == 0 {
		return fmt.Errorf("%w: records must hold at least one bit", ErrConfig)
	}
	if p.PlaintextBits == 0 || p.PlaintextBits+noiseMarginBits > 32 {
		return fmt.Errorf("%w: plaintext size 2^%d leaves no noise headroom", ErrConfig, p.PlaintextBits)
	}
	if p.SecretDim == 0 {
		return fmt.Errorf("%w: secret dimension must be positive", ErrConfig)
	}
	if _, err := linpir.NewContext(p.LinPIR, p.SecretDim); err != nil {
		return fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return nil
}
