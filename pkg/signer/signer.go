// Package signer signs unsigned transactions through one interface,
// independent of where the private key lives.
//
// Two backends are provided. NodeSigner delegates to the wallet of a node
// reached over JSON-RPC. SoftwareSigner holds a BIP32 key derived from a
// mnemonic in process memory. Hardware wallets and HSMs can be added later as
// further implementations of Signer.
package signer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Signer turns unsigned transaction hex into signed transaction hex.
type Signer interface {
	// SignTransaction signs every input of unsignedTx. The result is either a
	// fully signed transaction or a *Error; partial results are never returned.
	SignTransaction(ctx context.Context, unsignedTx string) (string, error)

	// Kind identifies the backend for diagnostics. Library code must not
	// change behaviour based on it.
	Kind() Kind
}

// Kind enumerates the available backends.
type Kind string

const (
	KindNode     Kind = "node"
	KindSoftware Kind = "software"
)

func (k Kind) String() string {
	return string(k)
}

// Valid reports whether k is one of the known backend kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindNode, KindSoftware:
		return true
	default:
		return false
	}
}

// Describe returns a one-line diagnostic description of s.
func Describe(s Signer) string {
	switch s.Kind() {
	case KindNode:
		return fmt.Sprintf("%s (node wallet signing via RPC)", s.Kind())
	case KindSoftware:
		return fmt.Sprintf("%s (in-memory key management)", s.Kind())
	default:
		return fmt.Sprintf("%s (unknown backend)", s.Kind())
	}
}

type options struct {
	logger *zap.Logger
}

// Option configures a backend at construction.
type Option func(*options)

// WithLogger sets the logger used for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
