package hintless

import (
	"errors"
	"sync"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/PengHao0916/hintless-pir/crypto/rand"
	"github.com/PengHao0916/hintless-pir/linpir"
)

// Small insecure instance for fast tests: 4096 records of 64 bits, packed
// into a 512 x 64 matrix split across two row-blocks.
func testParams() Parameters {
	return Parameters{
		DBRows:        64,
		DBCols:        64,
		RecordBits:    64,
		SecretDim:     256,
		PlaintextBits: 8,
		LinPIR: linpir.Parameters{
			LogN:         10,
			Qs:           []uint64{35184371884033, 35184371703809},
			Ts:           []uint64{2056193, 1990657},
			GadgetLogB:   16,
			RowsPerBlock: 256,
		},
	}
}

func testServer(t *testing.T) *Server {
	t.Helper()
	server, err := NewServerWithRandomDatabase(testParams())
	assert.NilError(t, err)
	assert.NilError(t, server.Preprocess())
	return server
}

func runQuery(t *testing.T, server *Server, client *Client, index uint64) []byte {
	t.Helper()
	req, err := client.GenerateRequest(index)
	assert.NilError(t, err)
	resp, err := server.HandleRequest(req)
	assert.NilError(t, err)
	rec, err := client.RecoverRecord(resp)
	assert.NilError(t, err)
	return rec
}

func TestQueryRoundtrip(t *testing.T) {
	server := testServer(t)
	pub, err := server.PublicParams()
	assert.NilError(t, err)

	client, err := NewClient(testParams(), pub)
	assert.NilError(t, err)

	for _, index := range []uint64{0, 1, 63, 64, 1000, server.Database().NumRecords() - 1} {
		want, err := server.Database().Record(index)
		assert.NilError(t, err)
		assert.DeepEqual(t, runQuery(t, server, client, index), want)
	}
}

func TestKeyMaterialSentOnce(t *testing.T) {
	server := testServer(t)
	pub, err := server.PublicParams()
	assert.NilError(t, err)

	client, err := NewClient(testParams(), pub)
	assert.NilError(t, err)

	req1, err := client.GenerateRequest(7)
	assert.NilError(t, err)
	assert.Assert(t, req1.KeyMaterial != nil)
	resp, err := server.HandleRequest(req1)
	assert.NilError(t, err)
	_, err = client.RecoverRecord(resp)
	assert.NilError(t, err)

	// The session is established, so later requests skip the rotation keys
	req2, err := client.GenerateRequest(9)
	assert.NilError(t, err)
	assert.Assert(t, req2.KeyMaterial == nil)
	assert.Equal(t, req1.Size(), req2.Size()+req1.KeyMaterial.Size())

	resp, err = server.HandleRequest(req2)
	assert.NilError(t, err)
	rec, err := client.RecoverRecord(resp)
	assert.NilError(t, err)

	want, err := server.Database().Record(9)
	assert.NilError(t, err)
	assert.DeepEqual(t, rec, want)
}

func TestUnknownSession(t *testing.T) {
	server := testServer(t)
	pub, err := server.PublicParams()
	assert.NilError(t, err)

	client, err := NewClient(testParams(), pub)
	assert.NilError(t, err)

	req, err := client.GenerateRequest(3)
	assert.NilError(t, err)
	req.KeyMaterial = nil

	_, err = server.HandleRequest(req)
	assert.Assert(t, errors.Is(err, ErrMalformedRequest))
}

func TestMalformedQuery(t *testing.T) {
	server := testServer(t)
	pub, err := server.PublicParams()
	assert.NilError(t, err)

	client, err := NewClient(testParams(), pub)
	assert.NilError(t, err)

	req, err := client.GenerateRequest(3)
	assert.NilError(t, err)

	missing := *req
	missing.Query = nil
	_, err = server.HandleRequest(&missing)
	assert.Assert(t, errors.Is(err, ErrMalformedRequest))

	short := *req
	short.EncSecret = req.EncSecret[:1]
	_, err = server.HandleRequest(&short)
	assert.Assert(t, errors.Is(err, ErrMalformedRequest))

	truncated := *req
	truncated.Query = req.Query.SelectRows(0, req.Query.Rows()-3)
	_, err = server.HandleRequest(&truncated)
	assert.Assert(t, errors.Is(err, ErrMalformedRequest))
}

func TestOutOfRange(t *testing.T) {
	params := testParams()
	server := testServer(t)
	pub, err := server.PublicParams()
	assert.NilError(t, err)

	client, err := NewClient(params, pub)
	assert.NilError(t, err)

	_, err = client.GenerateRequest(params.NumRecords())
	assert.Assert(t, errors.Is(err, ErrOutOfRange))
}

func TestServerLifecycle(t *testing.T) {
	server, err := NewServerWithRandomDatabase(testParams())
	assert.NilError(t, err)

	_, err = server.PublicParams()
	assert.Assert(t, errors.Is(err, ErrPreprocessing))
	_, err = server.HandleRequest(&Request{})
	assert.Assert(t, errors.Is(err, ErrPreprocessing))

	assert.NilError(t, server.Preprocess())
	assert.NilError(t, server.Preprocess()) // idempotent

	pub, err := server.PublicParams()
	assert.NilError(t, err)
	client, err := NewClient(testParams(), pub)
	assert.NilError(t, err)
	rec := runQuery(t, server, client, 42)

	want, err := server.Database().Record(42)
	assert.NilError(t, err)
	assert.DeepEqual(t, rec, want)
}

func TestIncompatibleParams(t *testing.T) {
	params := testParams()
	server := testServer(t)
	pub, err := server.PublicParams()
	assert.NilError(t, err)

	other := params
	other.DBRows = 128
	_, err = NewClient(other, pub)
	assert.Assert(t, errors.Is(err, ErrIncompatibleParams))

	db, err := NewRandomDatabase(other, rand.NewRandomBufPRG())
	assert.NilError(t, err)
	_, err = NewServer(params, db)
	assert.Assert(t, errors.Is(err, ErrIncompatibleParams))
}

func TestConcurrentSessions(t *testing.T) {
	server := testServer(t)
	pub, err := server.PublicParams()
	assert.NilError(t, err)

	const numClients = 3
	var wg sync.WaitGroup
	for i := 0; i < numClients; i++ {
		wg.Add(1)
		go func(index uint64) {
			defer wg.Done()
			client, err := NewClient(testParams(), pub)
			assert.Check(t, err == nil)
			rec := runQuery(t, server, client, index)
			want, err := server.Database().Record(index)
			assert.Check(t, err == nil)
			assert.Check(t, string(rec) == string(want))
		}(uint64(100 + i*37))
	}
	wg.Wait()
}
