package pledge

import (
	"encoding/json"
	"fmt"
)

// ChargeRef records the processor references of a captured charge.
type ChargeRef struct {
	ID                 string `json:"id,omitempty"`
	Object             string `json:"object,omitempty"`
	Customer           string `json:"customer,omitempty"`
	Destination        string `json:"destination,omitempty"`
	BalanceTransaction string `json:"balance_transaction,omitempty"`
}

// ServiceData is the processor-specific metadata of a transaction.
// It is encrypted at rest.
type ServiceData struct {
	CustomerID string     `json:"customer_id,omitempty"`
	Charge     *ChargeRef `json:"charge,omitempty"`
}

// HasCustomer reports whether a processor customer is attached.
func (d ServiceData) HasCustomer() bool {
	return d.CustomerID != ""
}

// IsZero reports whether no metadata is set.
func (d ServiceData) IsZero() bool {
	return d.CustomerID == "" && d.Charge == nil
}

// Cipher encrypts and decrypts metadata blobs. Key management is the
// implementation's concern.
type Cipher interface {
	Encrypt(plaintext []byte) (string, error)
	Decrypt(ciphertext string) ([]byte, error)
}

// SealServiceData encodes and encrypts d.
func SealServiceData(c Cipher, d ServiceData) (string, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encode service data: %w", err)
	}
	return c.Encrypt(raw)
}

// OpenServiceData decrypts and decodes a blob written by SealServiceData.
// An empty blob yields empty metadata.
func OpenServiceData(c Cipher, blob string) (ServiceData, error) {
	var d ServiceData
	if blob == "" {
		return d, nil
	}
	raw, err := c.Decrypt(blob)
	if err != nil {
		return d, fmt.Errorf("decrypt service data: %w", err)
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return d, fmt.Errorf("decode service data: %w", err)
	}
	return d, nil
}
