package service

import (
	"github.com/PengHao0916/hintless-pir/hintless"
)

// RPC structs
type InitRequest struct{}

type InitResponse struct {
	Params *hintless.PublicParams
}

type QueryRequest struct {
	Request *hintless.Request
}

type QueryResponse struct {
	Response *hintless.Response
}
