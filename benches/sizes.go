package main

import (
	"fmt"
	"log"
)

// Report the communication footprint of each protocol message
func computeSizes() {
	server, client := benchSetup()

	pub, err := server.PublicParams()
	if err != nil {
		log.Fatal(err)
	}

	first, err := client.GenerateRequest(0)
	if err != nil {
		log.Fatal(err)
	}
	resp, err := server.HandleRequest(first)
	if err != nil {
		log.Fatal(err)
	}
	if _, err := client.RecoverRecord(resp); err != nil {
		log.Fatal(err)
	}

	// Session is warm, so this request carries no key material
	steady, err := client.GenerateRequest(1)
	if err != nil {
		log.Fatal(err)
	}

	kb := func(n uint64) float64 { return float64(n) / 1024.0 }
	fmt.Printf("Public params:     %0.2f KB\n", kb(pub.Size()))
	fmt.Printf("First request:     %0.2f KB\n", kb(first.Size()))
	fmt.Printf("  key material:    %0.2f KB\n", kb(first.KeyMaterial.Size()))
	fmt.Printf("Steady request:    %0.2f KB\n", kb(steady.Size()))
	fmt.Printf("Response:          %0.2f KB\n", kb(resp.Size()))
}
