package pledge

import "fmt"

// Reason is the code logged for a rejected or failed pledge operation.
type Reason string

const (
	ReasonInvalidRequestMethod  Reason = "INVALID_REQUEST_METHOD"
	ReasonInvalidToken          Reason = "INVALID_TOKEN"
	ReasonInvalidTransaction    Reason = "INVALID_TRANSACTION_DATA"
	ReasonInvalidProject        Reason = "INVALID_PROJECT"
	ReasonInvalidReward         Reason = "INVALID_REWARD"
	ReasonInvalidCustomerObject Reason = "INVALID_CUSTOMER_OBJECT"
	ReasonCardError             Reason = "CARD_ERROR"
	ReasonSystemError           Reason = "SYSTEM_ERROR"
	ReasonTransactionNotFound   Reason = "TRANSACTION_NOT_FOUND"
	ReasonStoringTransaction    Reason = "STORING_TRANSACTION"
	ReasonDuplicateSubmission   Reason = "DUPLICATE_SUBMISSION"
	ReasonNoPayoutOptions       Reason = "NO_PAYOUT_OPTIONS"
	ReasonConfiguration         Reason = "CONFIGURATION"
	ReasonCustomerID            Reason = "CUSTOMER_ID"
	ReasonCapture               Reason = "DOCAPTURE"
	ReasonVoid                  Reason = "DOVOID"
)

// MessageCannotProcessCheckout is the generic message shown to a backer.
const MessageCannotProcessCheckout = "We could not process your pledge. Please try again or contact us."

// CheckoutFailure is returned by Checkout. Message is safe to show to the
// user; the wrapped error carries the internal detail.
type CheckoutFailure struct {
	Reason      Reason
	Message     string
	RedirectURL string
	Err         error
}

func (f *CheckoutFailure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("checkout rejected (%s): %v", f.Reason, f.Err)
	}
	return fmt.Sprintf("checkout rejected (%s)", f.Reason)
}

func (f *CheckoutFailure) Unwrap() error {
	return f.Err
}

// ResultKind classifies the outcome of an administrative operation.
type ResultKind string

const (
	ResultMessage ResultKind = "message"
	ResultWarning ResultKind = "warning"
	ResultError   ResultKind = "error"
)

// Result is what Capture and Void report to the operator.
type Result struct {
	Kind   ResultKind `json:"type"`
	Text   string     `json:"text"`
	Reason Reason     `json:"reason,omitempty"`
	Status Status     `json:"status,omitempty"`
}

// OK reports whether the operation succeeded.
func (r Result) OK() bool {
	return r.Kind == ResultMessage
}
