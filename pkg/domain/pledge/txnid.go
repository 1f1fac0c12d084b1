package pledge

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

const (
	txnIDPrefix   = "STXN"
	txnIDLength   = 16
	txnIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

var txnIDPattern = regexp.MustCompile(`^STXN[A-Z0-9]{16}$`)

// TxnIDGenerator issues human-readable transaction codes.
type TxnIDGenerator func() (string, error)

// NewTxnID returns "STXN" followed by 16 random uppercase alphanumerics.
func NewTxnID() (string, error) {
	buf := make([]byte, txnIDLength)
	max := big.NewInt(int64(len(txnIDAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate transaction code: %w", err)
		}
		buf[i] = txnIDAlphabet[n.Int64()]
	}
	return txnIDPrefix + string(buf), nil
}

// IsTxnID reports whether s has the shape of a generated transaction code.
func IsTxnID(s string) bool {
	return txnIDPattern.MatchString(s)
}
