package service

import (
	"fmt"
	"net"
	"net/rpc"

	"github.com/PengHao0916/hintless-pir/hintless"
)

type Client struct {
	conn      *CountingIO
	rpcClient *rpc.Client
	pirClient *hintless.Client
}

// Connect to a PIR server, fetch its public parameters and derive the
// per-session client state
func MakeClient(addr string, params hintless.Parameters) (*Client, error) {
	socket, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("service: connecting to server: %w", err)
	}
	conn := NewCountingIO(socket)
	rpcClient := rpc.NewClient(conn)

	var reply InitResponse
	if err := rpcClient.Call("Server.InitRPC", InitRequest{}, &reply); err != nil {
		rpcClient.Close()
		return nil, fmt.Errorf("service: fetching public parameters: %w", err)
	}

	pirClient, err := hintless.NewClient(params, reply.Params)
	if err != nil {
		rpcClient.Close()
		return nil, err
	}
	return &Client{conn, rpcClient, pirClient}, nil
}

func (c *Client) Close() error {
	return c.rpcClient.Close()
}

// Query fetches one record by index
func (c *Client) Query(index uint64) ([]byte, error) {
	req, err := c.pirClient.GenerateRequest(index)
	if err != nil {
		return nil, err
	}

	var reply QueryResponse
	if err := c.rpcClient.Call("Server.QueryRPC", QueryRequest{req}, &reply); err != nil {
		return nil, fmt.Errorf("service: query failed: %w", err)
	}
	return c.pirClient.RecoverRecord(reply.Response)
}

func (c *Client) Conn() *CountingIO {
	return c.conn
}
