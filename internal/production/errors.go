package production

import (
	"errors"
	"fmt"
)

// ErrRecordNotFound indicates the record is not in the unverified set.
var ErrRecordNotFound = errors.New("record not found")

// PartialSettlementError reports that a record was moved to the verified
// store but the ledger credit failed afterwards. The record is NOT rolled
// back; operators must reconcile the missing credits manually, so this must
// never be collapsed into a generic failure.
type PartialSettlementError struct {
	RecordID string
	PAN      string
	Err      error
}

func (e *PartialSettlementError) Error() string {
	return fmt.Sprintf("record %s verified but uncredited on ledger: %v", e.RecordID, e.Err)
}

func (e *PartialSettlementError) Unwrap() error {
	return e.Err
}
