package committer

import (
	"context"
	"sync"
	"time"

	clockwork "github.com/jonboulle/clockwork"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/randcast-network/randcast-node/log"
	rpccommitter "github.com/randcast-network/randcast-node/rpc/committer"
	"github.com/randcast-network/randcast-node/retry"
)

const defaultCallTimeout = 10 * time.Second

// Client gossips this node's partial signatures to peer committers,
// caching one gRPC connection per endpoint, mirroring the teacher's
// internal/net grpcClient connection-cache idiom.
type Client struct {
	log   log.Logger
	clock clockwork.Clock

	mu    sync.Mutex
	conns map[string]*grpc.ClientConn

	dialOpts []grpc.DialOption
	timeout  time.Duration
}

// NewClient returns a committer RPC client. Connections are plaintext
// (insecure transport credentials); TLS is a deployment concern left to the
// dial options callers add.
func NewClient(l log.Logger, clock clockwork.Clock, dialOpts ...grpc.DialOption) *Client {
	return &Client{
		log:      l.Named("committer-client"),
		clock:    clock,
		conns:    make(map[string]*grpc.ClientConn),
		dialOpts: dialOpts,
		timeout:  defaultCallTimeout,
	}
}

func (c *Client) conn(endpoint string) (*grpc.ClientConn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if conn, ok := c.conns[endpoint]; ok {
		return conn, nil
	}
	opts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, c.dialOpts...)
	conn, err := grpc.Dial(endpoint, opts...)
	if err != nil {
		return nil, err
	}
	c.conns[endpoint] = conn
	return conn, nil
}

// CommitPartialSignature sends one partial signature to endpoint, retrying
// per rd. An InvalidArgument rejection (AlreadyCommittedPartialSignature
// among them) and a false result are treated as terminal success (spec.md
// §4.6's client-side note): no further retry, and the call returns nil.
func (c *Client) CommitPartialSignature(
	ctx context.Context,
	rd retry.Descriptor,
	endpoint string,
	req *rpccommitter.CommitPartialSignatureRequest,
) error {
	return retry.Do(ctx, c.clock, rd, func(ctx context.Context) error {
		conn, err := c.conn(endpoint)
		if err != nil {
			return err
		}
		client := rpccommitter.NewCommitterServiceClient(conn)
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		reply, err := client.CommitPartialSignature(callCtx, req)
		if err != nil {
			if status.Code(err) == codes.InvalidArgument {
				c.log.Debugw("committer rejected partial signature, treating as resolved",
					"endpoint", endpoint, "err", err)
				return retry.Terminal(nil)
			}
			return err
		}
		if !reply.GetResult() {
			return retry.Terminal(nil)
		}
		return nil
	})
}

// Stop closes every cached connection.
func (c *Client) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, conn := range c.conns {
		_ = conn.Close()
	}
	c.conns = make(map[string]*grpc.ClientConn)
}
