package hintless

import (
	"fmt"
	"sync"

	"github.com/tuneinsight/lattigo/v5/core/rlwe"

	"github.com/PengHao0916/hintless-pir/crypto/rand"
	"github.com/PengHao0916/hintless-pir/linpir"
	m "github.com/PengHao0916/hintless-pir/matrix"
)

type serverState int

const (
	stateUnpreprocessed serverState = iota
	statePreprocessed
	stateServing
)

// Server owns the encoded database and answers queries. After Preprocess the
// database matrix, the hint and the public parameters are immutable, so
// HandleRequest calls may run concurrently.
type Server struct {
	params Parameters
	db     *Database
	ctx    *linpir.Context

	// Populated by Preprocess
	seedA    *rand.PRGKey
	packed   *m.Matrix[m.Elem32]
	squished bool
	hintSrv  *linpir.Server
	pub      *PublicParams

	mu    sync.Mutex
	state serverState

	// Cached per-session evaluation keys, keyed by Request.SessionID.
	// Entries are never evicted.
	sessions sync.Map
}

func NewServer(params Parameters, db *Database) (*Server, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if db == nil {
		return nil, fmt.Errorf("%w: nil database", ErrConfig)
	}
	if !db.params.Equal(params) {
		return nil, fmt.Errorf("%w: database was built with different parameters", ErrIncompatibleParams)
	}

	ctx, err := linpir.NewContext(params.LinPIR, params.SecretDim)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return &Server{params: params, db: db, ctx: ctx}, nil
}

// Build a server over a fresh database of uniformly random records
func NewServerWithRandomDatabase(params Parameters) (*Server, error) {
	db, err := NewRandomDatabase(params, rand.NewRandomBufPRG())
	if err != nil {
		return nil, err
	}
	return NewServer(params, db)
}

func (s *Server) Database() *Database {
	return s.db
}

// Preprocess samples the LWE public matrix, computes the hint H = D * A and
// encodes it for homomorphic evaluation. A no-op when called twice.
func (s *Server) Preprocess() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateUnpreprocessed {
		return nil
	}

	seed := rand.RandomPRGKey()
	matrixA := m.Rand[m.Elem32](
		rand.NewBufPRG(rand.NewPRG(seed)),
		s.params.MatrixCols(),
		s.params.SecretDim,
		0,
	)

	hint := m.Mul(s.db.Data(), matrixA)
	hintSrv, err := linpir.NewServer(s.ctx, hint)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPreprocessing, err)
	}

	// Pack the database for the memory-bound answer pass. Must happen after
	// the hint product, which needs the plain representation.
	packed := s.db.Data().Copy()
	squished := packed.CanSquish(s.params.PlaintextMod())
	if squished {
		packed.Squish()
	}

	s.seedA = seed
	s.packed = packed
	s.squished = squished
	s.hintSrv = hintSrv
	s.pub = &PublicParams{Params: s.params, SeedA: *seed}
	s.state = statePreprocessed
	return nil
}

func (s *Server) PublicParams() (*PublicParams, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == stateUnpreprocessed {
		return nil, ErrPreprocessing
	}
	pub := *s.pub
	return &pub, nil
}

// HandleRequest answers one query: the LWE pass multiplies each row-block of
// the packed database against the query vector, the hint pass evaluates the
// per-block corrections homomorphically. Blocks run in parallel.
func (s *Server) HandleRequest(req *Request) (*Response, error) {
	s.mu.Lock()
	if s.state == stateUnpreprocessed {
		s.mu.Unlock()
		return nil, ErrPreprocessing
	}
	s.state = stateServing
	s.mu.Unlock()

	if req == nil || req.Query == nil {
		return nil, fmt.Errorf("%w: missing query", ErrMalformedRequest)
	}
	wantRows := s.packed.Cols()
	if s.squished {
		wantRows *= m.SquishRatio()
	}
	if req.Query.Rows() != wantRows || req.Query.Cols() != 1 {
		return nil, fmt.Errorf("%w: query has %d entries, want %d",
			ErrMalformedRequest, req.Query.Size(), wantRows)
	}
	if len(req.EncSecret) != len(s.params.LinPIR.Ts) {
		return nil, fmt.Errorf("%w: got %d encrypted secrets, want %d",
			ErrMalformedRequest, len(req.EncSecret), len(s.params.LinPIR.Ts))
	}

	evk, err := s.sessionKeys(req)
	if err != nil {
		return nil, err
	}

	numBlocks := s.hintSrv.NumBlocks()
	rpb := s.params.LinPIR.RowsPerBlock

	var wg sync.WaitGroup
	var hintResp [][]linpir.CipherBlob
	var hintErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		hintResp, hintErr = s.hintSrv.Answer(req.EncSecret, evk)
	}()

	cts := make([]*m.Matrix[m.Elem32], numBlocks)
	for b := 0; b < numBlocks; b++ {
		wg.Add(1)
		go func(b int) {
			defer wg.Done()
			lo := uint64(b) * rpb
			block := s.packed.SelectRows(lo, min(rpb, s.packed.Rows()-lo))
			if s.squished {
				cts[b] = m.MulVecPacked(block, req.Query)
			} else {
				cts[b] = m.MulVec(block, req.Query)
			}
		}(b)
	}
	wg.Wait()

	if hintErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRequest, hintErr)
	}
	return &Response{CtRecords: cts, LinPIRResponses: hintResp}, nil
}

// Resolve the evaluation keys for a request: fresh material is cached under
// the session id, later requests look it up there.
func (s *Server) sessionKeys(req *Request) (rlwe.EvaluationKeySet, error) {
	if req.KeyMaterial != nil {
		evk, err := linpir.BuildEvaluationKeySet(req.KeyMaterial)
		if err != nil {
			return nil, fmt.Errorf("%w: bad key material: %v", ErrMalformedRequest, err)
		}
		s.sessions.Store(req.SessionID, evk)
		return evk, nil
	}
	if cached, ok := s.sessions.Load(req.SessionID); ok {
		return cached.(rlwe.EvaluationKeySet), nil
	}
	return nil, fmt.Errorf("%w: no key material for session %d", ErrMalformedRequest, req.SessionID)
}
