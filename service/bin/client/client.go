package main

import (
	"flag"
	"log"
	"time"

	"github.com/fatih/color"

	"github.com/PengHao0916/hintless-pir/crypto/rand"
	"github.com/PengHao0916/hintless-pir/hintless"
	"github.com/PengHao0916/hintless-pir/service"
)

func main() {
	addr := flag.String("addr", "0.0.0.0:8728", "Server address")
	rows := flag.Uint64("rows", 1024, "# of record rows")
	cols := flag.Uint64("cols", 1024, "# of record cols")
	recordBits := flag.Uint64("bits", 64, "Bits per record")
	iters := flag.Uint64("iters", 5, "Number of queries to make")
	flag.Parse()

	params := hintless.DefaultParameters()
	params.DBRows = *rows
	params.DBCols = *cols
	params.RecordBits = *recordBits

	log.Print("Initializing client...")
	start := time.Now()
	client, err := service.MakeClient(*addr, params)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()
	log.Printf("\tTook: %0.2fs", time.Since(start).Seconds())

	prg := rand.NewRandomBufPRG()
	for i := uint64(0); i < *iters; i++ {
		index := prg.Uint64() % params.NumRecords()
		client.Conn().Reset()

		start = time.Now()
		if _, err := client.Query(index); err != nil {
			log.Fatal(err)
		}
		elapsed := time.Since(start)

		sent, recv := client.Conn().Counts()
		color.Green("Query %d (index %d): %dms", i, index, elapsed.Milliseconds())
		color.Yellow(
			"\tUpload: %0.2f KB, Download: %0.2f KB",
			float64(sent)/1024.0, float64(recv)/1024.0,
		)
	}
}
