package signer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// MethodSignRawTransactionWithWallet is the node RPC used for delegated signing.
const MethodSignRawTransactionWithWallet = "signrawtransactionwithwallet"

// RPCCaller issues a named JSON-RPC call with positional parameters and
// returns the raw result.
type RPCCaller interface {
	Call(ctx context.Context, method string, params ...any) (json.RawMessage, error)
}

// NodeSigner delegates signing to the wallet of a node. The node wallet must
// be unlocked and hold the keys for every input.
type NodeSigner struct {
	rpc    RPCCaller
	logger *zap.Logger
}

var _ Signer = (*NodeSigner)(nil)

// NewNodeSigner creates a NodeSigner using rpc as the channel to the node.
func NewNodeSigner(rpc RPCCaller, opts ...Option) (*NodeSigner, error) {
	if rpc == nil {
		return nil, errors.New("rpc caller is required")
	}
	o := buildOptions(opts)
	return &NodeSigner{rpc: rpc, logger: o.logger}, nil
}

// Clone returns a second handle sharing the same RPC channel.
func (s *NodeSigner) Clone() *NodeSigner {
	return &NodeSigner{rpc: s.rpc, logger: s.logger}
}

// RPC returns the underlying channel for auxiliary node operations.
func (s *NodeSigner) RPC() RPCCaller {
	return s.rpc
}

// Kind implements Signer.
func (s *NodeSigner) Kind() Kind {
	return KindNode
}

type signRawResult struct {
	hex      string
	hasHex   bool
	complete bool
	errors   string
}

// SignTransaction sends unsignedTx to the node wallet with a single
// signrawtransactionwithwallet call. There are no retries.
func (s *NodeSigner) SignTransaction(ctx context.Context, unsignedTx string) (string, error) {
	s.logger.Debug("Signing transaction via node wallet", zap.String("unsignedTx", truncate(unsignedTx)))

	if _, err := ValidateUnsignedTx(unsignedTx); err != nil {
		return "", err
	}

	raw, err := s.rpc.Call(ctx, MethodSignRawTransactionWithWallet, unsignedTx)
	if err != nil {
		return "", RemoteSigningFailure(fmt.Sprintf(
			"node wallet signing failed: %v. Ensure the wallet is unlocked and contains the required keys.", err), err)
	}

	res := parseSignRawResult(raw)
	if !res.hasHex {
		return "", InvalidTransaction("node signing result missing 'hex' field")
	}
	if !res.complete {
		return "", InvalidTransaction(fmt.Sprintf(
			"transaction signing incomplete, the node wallet may be missing required keys; errors: %s", res.errors))
	}

	s.logger.Debug("Transaction signed by node wallet", zap.String("signedTx", truncate(res.hex)))
	return res.hex, nil
}

// parseSignRawResult reads the loosely typed node response. A missing or
// non-boolean "complete" is treated as false.
func parseSignRawResult(raw json.RawMessage) signRawResult {
	var res signRawResult
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return res
	}
	obj, _ := value.(map[string]any)

	res.hex, res.hasHex = obj["hex"].(string)
	res.complete, _ = obj["complete"].(bool)

	res.errors = "unknown errors"
	if errs, ok := obj["errors"]; ok {
		if b, err := json.Marshal(errs); err == nil {
			res.errors = string(b)
		}
	}
	return res
}
