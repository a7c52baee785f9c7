package transaction

import (
	"sync/atomic"

	"mit.edu/dsg/simpledb/common"
)

var nextTxnID atomic.Uint64

// NewTransactionID allocates a fresh transaction identifier. Identifiers are
// process-wide unique and never reused; id 0 is reserved as the invalid
// sentinel.
func NewTransactionID() common.TransactionID {
	return common.TransactionID(nextTxnID.Add(1))
}
