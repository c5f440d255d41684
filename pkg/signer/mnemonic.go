package signer

import (
	bip39 "github.com/cosmos/go-bip39"
	"github.com/pkg/errors"
)

// mnemonicEntropyBits yields a 24 word phrase.
const mnemonicEntropyBits = 256

// GenerateMnemonic returns a new random BIP39 mnemonic.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(mnemonicEntropyBits)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate entropy")
	}
	defer zero(entropy)

	mnemonic, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return "", errors.Wrap(err, "failed to encode mnemonic")
	}
	return mnemonic, nil
}

// ValidateMnemonic checks the word list and checksum of mnemonic.
func ValidateMnemonic(mnemonic string) error {
	if !bip39.IsMnemonicValid(mnemonic) {
		return errors.New("mnemonic is not a valid BIP39 phrase")
	}
	return nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
