package service

import (
	"log"
	"net"
	"net/rpc"

	"github.com/PengHao0916/hintless-pir/hintless"
)

type Server struct {
	*hintless.Server
	listener net.Listener
}

// Create a new RPC server. Preprocesses the database before accepting
// connections.
func StartServer(pirServer *hintless.Server, addr string) (*Server, error) {
	if err := pirServer.Preprocess(); err != nil {
		return nil, err
	}
	server := &Server{pirServer, nil}

	// Start RPC server
	rpcHandler := rpc.NewServer()
	rpcHandler.Register(server)
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	server.listener = l
	go func() {
		for {
			conn, err := server.listener.Accept()
			if err != nil {
				return
			}
			go rpcHandler.ServeConn(conn)
		}
	}()

	return server, nil
}

func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Shutdown the RPC server
func (s *Server) StopServer() {
	s.listener.Close()
}

// RPC called to bootstrap a new client
func (s *Server) InitRPC(args InitRequest, response *InitResponse) error {
	log.Printf("Got Init RPC Call")

	pub, err := s.PublicParams()
	if err != nil {
		return err
	}
	response.Params = pub
	return nil
}

// RPC called to answer a query
func (s *Server) QueryRPC(args QueryRequest, response *QueryResponse) error {
	log.Printf("Got Query RPC Call (session %d)", args.Request.SessionID)
	log.Printf("Query size: %0.2f KB", float64(args.Request.Size())/1024.0)

	resp, err := s.HandleRequest(args.Request)
	if err != nil {
		return err
	}
	response.Response = resp
	return nil
}
