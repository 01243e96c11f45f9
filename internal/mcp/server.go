package mcp

import (
	"context"
	"io"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/wyh0626/evermemos-mcp-server/internal/tools"
)

type Server struct {
	registry *tools.Registry
	handler  *Handler
}

func NewServer(registry *tools.Registry) *Server {
	return &Server{
		registry: registry,
		handler:  NewHandler(registry),
	}
}

// Serve speaks newline-delimited JSON-RPC over rwc until the peer disconnects
// or ctx is cancelled. Requests are handled asynchronously so one in-flight
// tool call never blocks another.
func (s *Server) Serve(ctx context.Context, rwc io.ReadWriteCloser) error {
	stream := jsonrpc2.NewBufferedStream(rwc, jsonrpc2.PlainObjectCodec{})
	conn := jsonrpc2.NewConn(ctx, stream, jsonrpc2.AsyncHandler(s.handler))

	select {
	case <-ctx.Done():
		conn.Close()
		<-conn.DisconnectNotify()
		return ctx.Err()
	case <-conn.DisconnectNotify():
		return nil
	}
}

func (s *Server) Registry() *tools.Registry {
	return s.registry
}

// StdioPipe joins a read and a write stream into the single ReadWriteCloser
// the JSON-RPC stream wants, for serving over stdin/stdout.
type StdioPipe struct {
	Reader io.ReadCloser
	Writer io.WriteCloser
}

func (p *StdioPipe) Read(b []byte) (int, error) {
	return p.Reader.Read(b)
}

func (p *StdioPipe) Write(b []byte) (int, error) {
	return p.Writer.Write(b)
}

func (p *StdioPipe) Close() error {
	rerr := p.Reader.Close()
	werr := p.Writer.Close()
	if rerr != nil {
		return rerr
	}
	return werr
}
