package service

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/PengHao0916/hintless-pir/hintless"
	"github.com/PengHao0916/hintless-pir/linpir"
)

// Small insecure instance for fast tests
func testParams() hintless.Parameters {
	return hintless.Parameters{
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

func TestE2E(t *testing.T) {
	params := testParams()
	pirServer, err := hintless.NewServerWithRandomDatabase(params)
	assert.NilError(t, err)

	server, err := StartServer(pirServer, "127.0.0.1:0")
	assert.NilError(t, err)
	defer server.StopServer()
	time.Sleep(100 * time.Millisecond) // Give the listener a moment

	client, err := MakeClient(server.Addr(), params)
	assert.NilError(t, err)
	defer client.Close()

	for _, index := range []uint64{0, 511, params.NumRecords() - 1} {
		got, err := client.Query(index)
		assert.NilError(t, err)

		want, err := pirServer.Database().Record(index)
		assert.NilError(t, err)
		assert.DeepEqual(t, got, want)
	}
}

func TestCommunicationCounts(t *testing.T) {
	params := testParams()
	pirServer, err := hintless.NewServerWithRandomDatabase(params)
	assert.NilError(t, err)

	server, err := StartServer(pirServer, "127.0.0.1:0")
	assert.NilError(t, err)
	defer server.StopServer()
	time.Sleep(100 * time.Millisecond)

	client, err := MakeClient(server.Addr(), params)
	assert.NilError(t, err)
	defer client.Close()

	// First query ships the rotation keys, later ones only the query vector
	// and the encrypted secret
	client.Conn().Reset()
	_, err = client.Query(17)
	assert.NilError(t, err)
	firstSent, firstRecv := client.Conn().Counts()
	assert.Assert(t, firstSent > 0 && firstRecv > 0)

	client.Conn().Reset()
	_, err = client.Query(23)
	assert.NilError(t, err)
	secondSent, _ := client.Conn().Counts()
	assert.Assert(t, secondSent < firstSent)
}

func TestBadQueryIndex(t *testing.T) {
	params := testParams()
	pirServer, err := hintless.NewServerWithRandomDatabase(params)
	assert.NilError(t, err)

	server, err := StartServer(pirServer, "127.0.0.1:0")
	assert.NilError(t, err)
	defer server.StopServer()
	time.Sleep(100 * time.Millisecond)

	client, err := MakeClient(server.Addr(), params)
	assert.NilError(t, err)
	defer client.Close()

	_, err = client.Query(params.NumRecords())
	assert.Assert(t, err != nil)
}
