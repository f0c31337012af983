package blockchain

import (
	"context"
	"log"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
)

// DiagnosticResult holds the result of a Solana connectivity diagnostic
type DiagnosticResult struct {
	RPCConnected    bool   `json:"rpc_connected"`
	Network         string `json:"network"`
	RPCURL          string `json:"rpc_url"`
	RPCError        string `json:"rpc_error,omitempty"`
	LatestBlockhash string `json:"latest_blockhash,omitempty"`
	Slot            uint64 `json:"slot,omitempty"`
	Timestamp       string `json:"timestamp"`
}

// RunDiagnostics checks RPC connectivity and reads the finalized slot the
// height clock would report
func (s *SolanaClient) RunDiagnostics(ctx context.Context) *DiagnosticResult {
	result := &DiagnosticResult{
		Network:   s.network,
		RPCURL:    s.rpcURL,
		Timestamp: time.Now().Format(time.RFC3339),
	}

	blockhash, err := s.rpcClient.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		result.RPCError = err.Error()
		log.Printf("[Diagnostics] RPC failed: %v", err)
		return result
	}
	result.RPCConnected = true
	result.LatestBlockhash = blockhash.Value.Blockhash.String()

	slot, err := s.GetSlot(ctx)
	if err != nil {
		result.RPCConnected = false
		result.RPCError = err.Error()
		log.Printf("[Diagnostics] Slot read failed: %v", err)
		return result
	}
	result.Slot = slot

	return result
}
