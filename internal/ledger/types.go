// internal/ledger/types.go
package ledger

import (
	"sync"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

const (
	defaultTimeout = 10 * time.Second
	maxRetries     = 3
	retryDelay     = 500 * time.Millisecond
)

// Client talks to a pool of Solana RPC nodes.
type Client struct {
	rpcClients []*RPCClient
	logger     *zap.Logger
	currIndex  int
	mutex      sync.Mutex
}

// RPCClient wraps a single RPC endpoint with health state.
type RPCClient struct {
	Client  *rpc.Client
	URL     string
	active  bool
	metrics *RPCMetrics
	mutex   sync.RWMutex
}

// RPCMetrics keeps rough per-node counters.
type RPCMetrics struct {
	successCount uint64
	errorCount   uint64
	latency      time.Duration
	mutex        sync.RWMutex
}
