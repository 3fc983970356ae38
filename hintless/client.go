package hintless

import (
	"fmt"

	"github.com/PengHao0916/hintless-pir/crypto/lwe"
	"github.com/PengHao0916/hintless-pir/crypto/rand"
	"github.com/PengHao0916/hintless-pir/linpir"
	m "github.com/PengHao0916/hintless-pir/matrix"
)

// Client generates requests and decodes responses. It caches its key
// material: the first request of a session carries the rotation keys, later
// ones only reference the session. A Client handles one outstanding query at
// a time and is not safe for concurrent use; run one Client per goroutine.
type Client struct {
	params Parameters
	pub    *PublicParams
	prg    *rand.BufPRGReader
	ctx    *linpir.Context
	hint   *linpir.Client

	sessionID uint64
	sentKeys  bool

	// State of the outstanding query
	pending   bool
	lastIndex uint64
}

func NewClient(params Parameters, pub *PublicParams) (*Client, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if pub == nil || !pub.Params.Equal(params) {
		return nil, ErrIncompatibleParams
	}

	ctx, err := linpir.NewContext(params.LinPIR, params.SecretDim)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}

	prg := rand.NewRandomBufPRG()
	return &Client{
		params:    params,
		pub:       pub,
		prg:       prg,
		ctx:       ctx,
		hint:      linpir.NewClient(ctx),
		sessionID: prg.Uint64(),
	}, nil
}

func (c *Client) SessionID() uint64 {
	return c.sessionID
}

// GenerateRequest builds the query for record `index`: a ternary LWE secret
// s, the query vector A*s + e + Delta * onehot(col), and encryptions of s
// for the hint evaluation.
func (c *Client) GenerateRequest(index uint64) (*Request, error) {
	p := c.params
	if index >= p.NumRecords() {
		return nil, fmt.Errorf("%w: %d >= %d", ErrOutOfRange, index, p.NumRecords())
	}

	secret := lwe.SampleTernaryVec(c.prg, p.SecretDim)
	secretMat := m.New[m.Elem32](p.SecretDim, 1)
	for i, v := range secret {
		secretMat.Data()[i] = m.Elem32(v)
	}

	// The public matrix is regenerated from its seed row by row, never held
	// in memory
	seeded := m.NewSeeded[m.Elem32](
		[]m.IoRandSource{rand.NewBufPRG(rand.NewPRG(&c.pub.SeedA))},
		[]uint64{p.MatrixCols()},
		p.SecretDim,
	)
	query := m.MulSeededLeft(seeded, secretMat)
	query.Add(m.Gaussian[m.Elem32](c.prg, p.MatrixCols(), 1))
	query.Data()[index%p.DBCols] += m.Elem32(p.Delta())

	// Pad the query to match the squished database width
	if m.CanSquish[m.Elem32](p.PlaintextMod()) && p.MatrixCols()%m.SquishRatio() != 0 {
		query.AppendZeros(m.SquishRatio() - p.MatrixCols()%m.SquishRatio())
	}

	encSecret, err := c.hint.EncryptSecret(secret)
	if err != nil {
		return nil, err
	}

	req := &Request{
		SessionID: c.sessionID,
		Query:     query,
		EncSecret: encSecret,
	}
	if !c.sentKeys {
		km, err := c.hint.KeyMaterial()
		if err != nil {
			return nil, err
		}
		req.KeyMaterial = km
		c.sentKeys = true
	}

	c.pending = true
	c.lastIndex = index
	return req, nil
}

// RecoverRecord decodes the response of the outstanding query: it recovers
// the hint corrections H*s, subtracts them from the LWE answers, rounds away
// the noise and reassembles the record bytes.
func (c *Client) RecoverRecord(resp *Response) ([]byte, error) {
	if !c.pending {
		return nil, fmt.Errorf("hintless: no outstanding query")
	}

	p := c.params
	numRows := p.MatrixRows()
	numBlocks := c.ctx.NumBlocks(numRows)
	if resp == nil || len(resp.CtRecords) != numBlocks || len(resp.LinPIRResponses) != numBlocks {
		return nil, fmt.Errorf("%w: response does not match block count %d", ErrMalformedRequest, numBlocks)
	}

	corrections, err := c.hint.Recover(resp.LinPIRResponses, numRows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	answer := m.New[m.Elem32](0, 0)
	rpb := p.LinPIR.RowsPerBlock
	for b, ct := range resp.CtRecords {
		lo := uint64(b) * rpb
		if ct == nil || ct.Rows() != min(rpb, numRows-lo) || ct.Cols() != 1 {
			return nil, fmt.Errorf("%w: bad answer block %d", ErrMalformedRequest, b)
		}
		answer.Concat(ct)
	}

	delta := p.Delta()
	rowBase := (c.lastIndex / p.DBCols) * p.Ne()
	limbs := make([]uint64, p.Ne())
	for j := range limbs {
		r := rowBase + uint64(j)
		noised := answer.Get(r, 0) - m.Elem32(uint64(corrections[r]))
		limbs[j] = (uint64(noised) + delta/2) / delta % p.PlaintextMod()
	}

	c.pending = false
	rec, err := assembleRecord(p, limbs)
	if err != nil {
		return nil, err
	}
	return rec, nil
}
