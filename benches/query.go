package main

import (
	"log"
	"testing"

	"github.com/PengHao0916/hintless-pir/crypto/rand"
	"github.com/PengHao0916/hintless-pir/hintless"
)

func benchSetup() (*hintless.Server, *hintless.Client) {
	params := benchParams()
	server, err := hintless.NewServerWithRandomDatabase(params)
	if err != nil {
		log.Fatal(err)
	}
	if err := server.Preprocess(); err != nil {
		log.Fatal(err)
	}
	pub, err := server.PublicParams()
	if err != nil {
		log.Fatal(err)
	}
	client, err := hintless.NewClient(params, pub)
	if err != nil {
		log.Fatal(err)
	}
	return server, client
}

// Full online roundtrip: request generation, server answer, record recovery
func benchmarkQuery() testing.BenchmarkResult {
	server, client := benchSetup()
	params := benchParams()
	prg := rand.NewRandomBufPRG()

	// Establish the session so the loop measures steady-state queries
	req, err := client.GenerateRequest(0)
	if err != nil {
		log.Fatal(err)
	}
	resp, err := server.HandleRequest(req)
	if err != nil {
		log.Fatal(err)
	}
	if _, err := client.RecoverRecord(resp); err != nil {
		log.Fatal(err)
	}

	return testing.Benchmark(func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			index := prg.Uint64() % params.NumRecords()
			req, err := client.GenerateRequest(index)
			if err != nil {
				log.Fatal(err)
			}
			resp, err := server.HandleRequest(req)
			if err != nil {
				log.Fatal(err)
			}
			if _, err := client.RecoverRecord(resp); err != nil {
				log.Fatal(err)
			}
		}
	})
}
