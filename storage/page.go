package storage

import (
	"mit.edu/dsg/simpledb/common"
)

// Page is the unit of caching, locking, and I/O managed by the buffer pool.
//
// A page carries a before-image: a copy of its serialized bytes captured at
// construction and re-captured after commit. The log writer pairs it with
// the current contents to form UPDATE records.
type Page interface {
	// ID returns the identity of the page.
	ID() common.PageID

	// Serialize produces the exact common.PageSize on-disk image of the page.
	Serialize() []byte

	// IsDirty returns the id of the transaction that last dirtied the page,
	// or common.InvalidTransactionID if the page is clean.
	IsDirty() common.TransactionID

	// MarkDirty flags the page dirty on behalf of tid, or clears the flag
	// when dirty is false.
	MarkDirty(dirty bool, tid common.TransactionID)

	// BeforeImage returns the page image as of the last commit (or load).
	BeforeImage() []byte

	// SetBeforeImage rebinds the before-image to the current serialized
	// contents. Called when the dirtying transaction commits.
	SetBeforeImage()
}
