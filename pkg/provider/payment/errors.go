package payment

import (
	"errors"
	"fmt"
)

// ErrGateway marks a processor or transport failure that is not user-actionable.
var ErrGateway = errors.New("payment gateway error")

// CardError is a card-specific failure. Its message is written for the
// card holder and may be shown verbatim.
type CardError struct {
	Code    string
	Message string
}

func (e *CardError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("card error (%s): %s", e.Code, e.Message)
	}
	return "card error: " + e.Message
}

// AsCardError reports whether err is a card failure and returns it.
func AsCardError(err error) (*CardError, bool) {
	var ce *CardError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
