package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"testing"
)

var rows *uint64
var cols *uint64
var recordBits *uint64

func runBench(benchType string) {
	switch benchType {
	case "preprocessing":
		result := benchmarkPreprocessing()

		avgTimeSec := result.T.Seconds() / float64(result.N)
		fmt.Printf("%d iters\n", result.N)
		fmt.Printf(
			"Avg. Preprocessing(%d x %d, %d bits): %0.2fs\n",
			*rows, *cols, *recordBits, avgTimeSec,
		)

	case "query":
		result := benchmarkQuery()

		avgTimeMs := float64(result.T.Microseconds()) / float64(result.N) / 1000.0
		fmt.Printf("%d iters\n", result.N)
		fmt.Printf(
			"Avg. Query Latency(%d x %d, %d bits): %0.2fms\n",
			*rows, *cols, *recordBits, avgTimeMs,
		)

	case "throughput":
		benchmarkThroughput()

	case "size":
		computeSizes()

	default:
		panic(fmt.Sprintf("Invalid bench name %s", benchType))
	}
}

func main() {
	// Required to call this before flag.Parse for testing flags to work
	testing.Init()
	rows = flag.Uint64("rows", 1024, "# of record rows")
	cols = flag.Uint64("cols", 1024, "# of record cols")
	recordBits = flag.Uint64("bits", 64, "bits per record")
	benchType := flag.String("bench", "query", "(preprocessing/query/throughput/size)")
	memprofile := flag.String("memprofile", "", "write memory profile to `file`")
	flag.Parse()

	runBench(*benchType)

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			log.Fatal("could not create memory profile: ", err)
		}
		defer f.Close()
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatal("could not write memory profile: ", err)
		}
	}
}
