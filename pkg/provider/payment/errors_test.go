package payment

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsCardError(t *testing.T) {
	wrapped := fmt.Errorf("create customer: %w", &CardError{Code: "card_declined", Message: "Your card was declined."})
	ce, ok := AsCardError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "Your card was declined.", ce.Message)

	_, ok = AsCardError(errors.New("boom"))
	assert.False(t, ok)
}

func TestCharge_AuditFields(t *testing.T) {
	c := &Charge{ID: "ch_1", Object: "charge", Captured: true, Created: 42}
	fields := c.AuditFields()
	assert.Equal(t, "true", fields["captured"])
	assert.Equal(t, int64(42), fields["created"])
}
