package main

import (
	"bufio"
	"flag"
	"log"
	"os"
	"time"

	"github.com/PengHao0916/hintless-pir/hintless"
	"github.com/PengHao0916/hintless-pir/service"
)

func main() {
	rows := flag.Uint64("rows", 1024, "# of record rows")
	cols := flag.Uint64("cols", 1024, "# of record cols")
	recordBits := flag.Uint64("bits", 64, "Bits per record")
	addr := flag.String("addr", ":8728", "Listen address")
	flag.Parse()

	params := hintless.DefaultParameters()
	params.DBRows = *rows
	params.DBCols = *cols
	params.RecordBits = *recordBits

	log.Printf("Building a random %d x %d database of %d-bit records...", *rows, *cols, *recordBits)
	pirServer, err := hintless.NewServerWithRandomDatabase(params)
	if err != nil {
		log.Fatal(err)
	}

	start := time.Now()
	server, err := service.StartServer(pirServer, *addr)
	if err != nil {
		log.Fatal(err)
	}
	defer server.StopServer()
	log.Printf("Preprocessing took %0.2fs", time.Since(start).Seconds())
	log.Printf("Serving on %s", server.Addr())

	buf := bufio.NewReader(os.Stdin)
	log.Println("Press enter to kill server...")
	buf.ReadBytes('\n')
}
