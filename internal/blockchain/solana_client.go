package blockchain

import (
	"context"
	"fmt"
	"log"

	"github.com/gagliardetto/solana-go/rpc"
)

// SolanaClient handles Solana RPC reads used by the ledger
type SolanaClient struct {
	rpcClient *rpc.Client
	network   string
	rpcURL    string
}

// RPCEndpoint returns the public RPC endpoint of a Solana cluster.
func RPCEndpoint(network string) string {
	switch network {
	case "mainnet-beta":
		return rpc.MainNetBeta_RPC
	case "testnet":
		return rpc.TestNet_RPC
	case "localnet":
		return rpc.LocalNet_RPC
	default:
		return rpc.DevNet_RPC
	}
}

// NewSolanaClient creates a new Solana client. An empty rpcURL selects the
// public endpoint of network.
func NewSolanaClient(network, rpcURL string) *SolanaClient {
	if rpcURL == "" {
		rpcURL = RPCEndpoint(network)
	}

	log.Printf("Solana client using %s (%s)", network, rpcURL)
	return &SolanaClient{
		rpcClient: rpc.New(rpcURL),
		network:   network,
		rpcURL:    rpcURL,
	}
}

// GetSlot returns the cluster's latest finalized slot
func (s *SolanaClient) GetSlot(ctx context.Context) (uint64, error) {
	slot, err := s.rpcClient.GetSlot(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return 0, fmt.Errorf("failed to get slot from %s: %w", s.network, err)
	}
	return slot, nil
}
