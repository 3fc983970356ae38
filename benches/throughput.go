package main

import (
	"fmt"
	"log"
	"math"
	"testing"

	"github.com/PengHao0916/hintless-pir/crypto/rand"
)

// Server-side answer throughput with a warm session
func benchmarkThroughput() {
	server, client := benchSetup()
	params := benchParams()
	prg := rand.NewRandomBufPRG()

	dbSizeGB := float64(params.MatrixRows()*params.MatrixCols()*4) / math.Pow(1024.0, 3)
	fmt.Printf("DB with size: %0.2fGB\n", dbSizeGB)

	req, err := client.GenerateRequest(prg.Uint64() % params.NumRecords())
	if err != nil {
		log.Fatal(err)
	}
	if _, err := server.HandleRequest(req); err != nil {
		log.Fatal(err)
	}

	// Steady-state request without key material
	req, err = client.GenerateRequest(prg.Uint64() % params.NumRecords())
	if err != nil {
		log.Fatal(err)
	}

	result := testing.Benchmark(func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := server.HandleRequest(req); err != nil {
				log.Fatal(err)
			}
		}
	})
	avgTimeSec := result.T.Seconds() / float64(result.N)
	fmt.Printf(
		"Throughput(%d x %d, %d, %d iters): %0.2f GB/s\n",
		*rows, *cols, *recordBits, result.N, dbSizeGB/avgTimeSec,
	)
}
