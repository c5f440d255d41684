package signer

import "encoding/hex"

const logPrefixLen = 64

// ValidateUnsignedTx applies the checks every backend runs before doing any
// backend-specific work, and returns the decoded transaction bytes.
func ValidateUnsignedTx(unsignedTx string) ([]byte, error) {
	if unsignedTx == "" {
		return nil, InvalidTransaction("unsigned transaction hex cannot be empty")
	}
	if len(unsignedTx)%2 != 0 {
		return nil, InvalidTransaction("unsigned transaction hex must have even length")
	}
	raw, err := hex.DecodeString(unsignedTx)
	if err != nil {
		return nil, EncodingError("unsigned transaction is not valid hex: "+err.Error(), err)
	}
	return raw, nil
}

// truncate shortens hex for debug logs.
func truncate(s string) string {
	if len(s) <= logPrefixLen {
		return s
	}
	return s[:logPrefixLen] + "..."
}
