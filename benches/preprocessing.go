package main

import (
	"log"
	"testing"

	"github.com/PengHao0916/hintless-pir/crypto/rand"
	"github.com/PengHao0916/hintless-pir/hintless"
)

func benchParams() hintless.Parameters {
	params := hintless.DefaultParameters()
	params.DBRows = *rows
	params.DBCols = *cols
	params.RecordBits = *recordBits
	return params
}

func benchmarkPreprocessing() testing.BenchmarkResult {
	params := benchParams()
	db, err := hintless.NewRandomDatabase(params, rand.NewRandomBufPRG())
	if err != nil {
		log.Fatal(err)
	}

	// Preprocessing is one-shot per server, so each iteration gets a fresh one
	return testing.Benchmark(func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			server, err := hintless.NewServer(params, db)
			if err != nil {
				log.Fatal(err)
			}
			if err := server.Preprocess(); err != nil {
				log.Fatal(err)
			}
		}
	})
}
