package transport

import (
	"errors"
	"fmt"

	"github.com/shrtyk/raft-params/api"
	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	// defaultMaxMsgSize matches the gRPC default receive limit.
	defaultMaxMsgSize = 4 << 20
	// msgOverhead leaves room for the request envelope around a snapshot block.
	msgOverhead = 64 << 10
)

// ConnectParams derives the gRPC reconnect policy from p: reconnects start
// after the RPC failure backoff and never wait longer than the upper election
// timeout bound.
func ConnectParams(p *api.Parameters) grpc.ConnectParams {
	bc := backoff.DefaultConfig
	if d := p.RPCBackoff(); d > 0 {
		bc.BaseDelay = d
	}
	if d := p.ElectionTimeoutUpper(); d > bc.BaseDelay {
		bc.MaxDelay = d
	}

	cp := grpc.ConnectParams{Backoff: bc}
	if d := p.ElectionTimeoutLower(); d > 0 {
		cp.MinConnectTimeout = d
	}
	return cp
}

// MaxMsgSize is the message size limit that fits one snapshot block.
func MaxMsgSize(p *api.Parameters) int {
	return max(defaultMaxMsgSize, p.SnapshotBlockSize()+msgOverhead)
}

// DialOptions returns the options used to dial every peer.
func DialOptions(p *api.Parameters) []grpc.DialOption {
	size := MaxMsgSize(p)
	return []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithConnectParams(ConnectParams(p)),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallSendMsgSize(size),
			grpc.MaxCallRecvMsgSize(size),
		),
	}
}

// SetupConnections creates a client connection per peer address. The returned
// function closes all of them.
func SetupConnections(peerAddrs []string, p *api.Parameters) ([]*grpc.ClientConn, func() error, error) {
	var err error
	opts := DialOptions(p)
	conns := make([]*grpc.ClientConn, len(peerAddrs))
	for i, addr := range peerAddrs {
		conn, clientError := grpc.NewClient(addr, opts...)
		if clientError != nil {
			err = errors.Join(err, fmt.Errorf("failed to create client for peer %d (%s): %w", i, addr, clientError))
			for j := range i {
				if closeErr := conns[j].Close(); closeErr != nil {
					err = errors.Join(err, fmt.Errorf("failed to close peer %d connections: %w", j, closeErr))
				}
			}
			return nil, nil, err
		}
		conns[i] = conn
	}

	closeFunc := func() error {
		var cferr error
		for i, conn := range conns {
			if cerr := conn.Close(); cerr != nil {
				cferr = errors.Join(cferr, fmt.Errorf("failed to close peer %d connections: %w", i, cerr))
			}
		}
		return cferr
	}

	return conns, closeFunc, nil
}
