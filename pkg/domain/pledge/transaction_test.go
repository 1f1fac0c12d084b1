package pledge

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusCanceled, true},
		{StatusPending, StatusPending, true},
		{StatusCanceled, StatusCanceled, true},
		{StatusCanceled, StatusCompleted, false},
		{StatusCompleted, StatusCanceled, false},
		{StatusCompleted, StatusPending, false},
	}
	for _, tc := range tests {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestTransaction_SetStatus(t *testing.T) {
	txn := &Transaction{Status: StatusCompleted}
	err := txn.SetStatus(StatusCanceled)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransition))
	assert.Equal(t, StatusCompleted, txn.Status)

	txn = &Transaction{Status: StatusPending}
	require.NoError(t, txn.SetStatus(StatusCompleted))
	assert.True(t, txn.IsCompleted())
}

func TestNewTxnID(t *testing.T) {
	seen := make(map[string]struct{})
	for range 100 {
		id, err := NewTxnID()
		require.NoError(t, err)
		assert.True(t, IsTxnID(id), id)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 100)
	assert.False(t, IsTxnID("STXNabc"))
}

func TestTransaction_AddExtraData(t *testing.T) {
	txn := &Transaction{}
	require.NoError(t, txn.AddExtraData(map[string]any{"id": "ch_1"}))
	require.NoError(t, txn.AddExtraData(map[string]any{"id": "ch_2"}))
	require.NotNil(t, txn.ExtraData)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(*txn.ExtraData), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "ch_2", entries[1]["id"])
}

func TestEncodeExtraData_EmptyIsNil(t *testing.T) {
	blob, err := EncodeExtraData(map[string]any{})
	require.NoError(t, err)
	assert.Nil(t, blob)

	blob, err = EncodeExtraData(nil)
	require.NoError(t, err)
	assert.Nil(t, blob)
}

type base64Cipher struct{}

func (base64Cipher) Encrypt(p []byte) (string, error) {
	return base64.StdEncoding.EncodeToString(p), nil
}

func (base64Cipher) Decrypt(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

func TestServiceData_SealOpen(t *testing.T) {
	in := ServiceData{CustomerID: "cus_123"}
	blob, err := SealServiceData(base64Cipher{}, in)
	require.NoError(t, err)

	out, err := OpenServiceData(base64Cipher{}, blob)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.True(t, out.HasCustomer())

	empty, err := OpenServiceData(base64Cipher{}, "")
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}

func TestReward_Available(t *testing.T) {
	r := &Reward{ID: 1, Number: 3, Distributed: 1, Published: true}
	assert.True(t, r.IsLimited())
	assert.Equal(t, 2, r.Available())

	r.Distributed = 5
	assert.Equal(t, 0, r.Available())

	unlimited := &Reward{ID: 2, Published: true}
	assert.False(t, unlimited.IsLimited())
}

func TestPayout_TokenExpired(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	p := &Payout{ID: 1, AccessToken: "tok", TokenExpiresAt: now.Add(time.Hour)}
	assert.False(t, p.TokenExpired(now))
	assert.True(t, p.TokenExpired(now.Add(2*time.Hour)))

	p.AccessToken = ""
	assert.True(t, p.TokenExpired(now))
}

func TestPaymentSession_EffectiveRewardID(t *testing.T) {
	s := &PaymentSession{RewardID: 9}
	assert.Equal(t, int64(9), s.EffectiveRewardID())
	s.Anonymous = true
	assert.Equal(t, int64(0), s.EffectiveRewardID())
}
