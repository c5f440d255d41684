package signer

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"runtime"
	"sync"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/btcsuite/btcutil"
	"github.com/btcsuite/btcutil/hdkeychain"
	bip39 "github.com/cosmos/go-bip39"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// SoftwareSigner signs with a BIP32 key held in process memory. The key is
// derived at m/44'/coin'/0'/0/index from a BIP39 mnemonic and never leaves the
// process. Every input is signed as a P2PKH spend of Address().
//
// Close releases the key material; a finalizer does the same if the handle is
// garbage collected without being closed.
type SoftwareSigner struct {
	mu sync.RWMutex

	key      *hdkeychain.ExtendedKey
	network  Network
	params   *chaincfg.Params
	index    uint32
	address  *btcutil.AddressPubKeyHash
	pkScript []byte
	pubKey   []byte
	logger   *zap.Logger
}

var _ Signer = (*SoftwareSigner)(nil)

// NewSoftwareSigner derives the signing key for index on network from mnemonic.
func NewSoftwareSigner(mnemonic string, network Network, index uint32, opts ...Option) (*SoftwareSigner, error) {
	params, err := network.Params()
	if err != nil {
		return nil, LibraryError("invalid network", err)
	}
	if index >= hdkeychain.HardenedKeyStart {
		return nil, LibraryError(fmt.Sprintf("derivation index %d out of range", index), nil)
	}

	seed, err := bip39.NewSeedWithErrorChecking(mnemonic, "")
	if err != nil {
		return nil, LibraryError("invalid mnemonic", err)
	}
	defer zero(seed)

	key, err := deriveKey(seed, params, index)
	if err != nil {
		return nil, LibraryError("key derivation failed", err)
	}

	pub, err := key.ECPubKey()
	if err != nil {
		key.Zero()
		return nil, LibraryError("failed to derive public key", err)
	}
	pubBytes := pub.SerializeCompressed()
	address, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(pubBytes), params)
	if err != nil {
		key.Zero()
		return nil, LibraryError("failed to derive address", err)
	}
	pkScript, err := txscript.PayToAddrScript(address)
	if err != nil {
		key.Zero()
		return nil, LibraryError("failed to build output script", err)
	}

	o := buildOptions(opts)
	s := &SoftwareSigner{
		key:      key,
		network:  network,
		params:   params,
		index:    index,
		address:  address,
		pkScript: pkScript,
		pubKey:   pubBytes,
		logger:   o.logger,
	}
	runtime.SetFinalizer(s, (*SoftwareSigner).Close)

	s.logger.Debug("Created software signer",
		zap.String("network", network.String()),
		zap.Uint32("index", index),
		zap.String("address", address.EncodeAddress()),
	)
	return s, nil
}

// GenerateSoftwareSigner creates a signer from a freshly generated mnemonic.
// The mnemonic is returned to the caller and not retained by the signer.
func GenerateSoftwareSigner(network Network, index uint32, opts ...Option) (string, *SoftwareSigner, error) {
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		return "", nil, LibraryError("mnemonic generation failed", err)
	}
	s, err := NewSoftwareSigner(mnemonic, network, index, opts...)
	if err != nil {
		return "", nil, err
	}
	return mnemonic, s, nil
}

func deriveKey(seed []byte, params *chaincfg.Params, index uint32) (*hdkeychain.ExtendedKey, error) {
	master, err := hdkeychain.NewMaster(seed, params)
	if err != nil {
		return nil, errors.Wrap(err, "master key")
	}

	path := []uint32{
		hdkeychain.HardenedKeyStart + 44,
		hdkeychain.HardenedKeyStart + params.HDCoinType,
		hdkeychain.HardenedKeyStart + 0,
		0,
		index,
	}
	key := master
	for depth, child := range path {
		next, err := key.Derive(child)
		key.Zero()
		if err != nil {
			return nil, errors.Wrapf(err, "derive child at depth %d", depth+1)
		}
		key = next
	}
	return key, nil
}

// Kind implements Signer.
func (s *SoftwareSigner) Kind() Kind {
	return KindSoftware
}

// Network returns the network fixed at construction.
func (s *SoftwareSigner) Network() Network {
	return s.network
}

// Index returns the derivation index.
func (s *SoftwareSigner) Index() uint32 {
	return s.index
}

// DerivationPath returns the BIP32 path of the signing key.
func (s *SoftwareSigner) DerivationPath() string {
	return fmt.Sprintf("m/44'/%d'/0'/0/%d", s.params.HDCoinType, s.index)
}

// Address returns the P2PKH address whose inputs this signer can sign.
func (s *SoftwareSigner) Address() string {
	return s.address.EncodeAddress()
}

// PublicKeyHex returns the compressed public key.
func (s *SoftwareSigner) PublicKeyHex() string {
	return hex.EncodeToString(s.pubKey)
}

// SignTransaction signs all inputs of a serialized transaction.
func (s *SoftwareSigner) SignTransaction(_ context.Context, unsignedTx string) (string, error) {
	s.logger.Debug("Signing transaction with software key", zap.String("unsignedTx", truncate(unsignedTx)))

	raw, err := ValidateUnsignedTx(unsignedTx)
	if err != nil {
		return "", err
	}

	var tx wire.MsgTx
	r := bytes.NewReader(raw)
	if err := tx.Deserialize(r); err != nil {
		return "", InvalidTransaction("cannot decode transaction: " + err.Error())
	}
	if r.Len() != 0 {
		return "", InvalidTransaction(fmt.Sprintf("cannot decode transaction: %d trailing bytes", r.Len()))
	}
	if len(tx.TxIn) == 0 {
		return "", InvalidTransaction("transaction has no inputs")
	}
	// Inputs must arrive unsigned.
	for i, in := range tx.TxIn {
		if len(in.SignatureScript) != 0 || len(in.Witness) != 0 {
			return "", InvalidTransaction(fmt.Sprintf("input %d already carries signature data", i))
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.key == nil {
		return "", LibraryError("signer key material has been released", nil)
	}

	priv, err := s.key.ECPrivKey()
	if err != nil {
		return "", LibraryError("failed to load private key", err)
	}
	defer priv.D.SetInt64(0)

	for i := range tx.TxIn {
		sigScript, err := txscript.SignatureScript(&tx, i, s.pkScript, txscript.SigHashAll, priv, true)
		if err != nil {
			return "", LibraryError(fmt.Sprintf("failed to sign input %d", i), err)
		}
		tx.TxIn[i].SignatureScript = sigScript
	}

	var buf bytes.Buffer
	buf.Grow(tx.SerializeSize())
	if err := tx.Serialize(&buf); err != nil {
		return "", LibraryError("failed to serialize signed transaction", err)
	}
	signed := hex.EncodeToString(buf.Bytes())

	s.logger.Debug("Transaction signed with software key",
		zap.Int("inputs", len(tx.TxIn)),
		zap.String("signedTx", truncate(signed)),
	)
	return signed, nil
}

// Close zeroes the private key material. It is safe to call more than once.
func (s *SoftwareSigner) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key != nil {
		s.key.Zero()
		s.key = nil
	}
	runtime.SetFinalizer(s, nil)
	return nil
}
