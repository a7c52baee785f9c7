package transaction

import (
	"sync"

	"mit.edu/dsg/simpledb/common"
)

// LockMode represents the type of access a transaction is requesting on a
// page.
type LockMode int8

const (
	// LockShared allows reading a page. Multiple transactions can hold
	// shared locks on the same page simultaneously.
	LockShared LockMode = iota
	// LockExclusive allows modification. It is incompatible with every
	// other lock on the page.
	LockExclusive
)

func (m LockMode) String() string {
	if m == LockExclusive {
		return "X"
	}
	return "S"
}

// ModeFor maps a permission request to the lock mode that protects it.
func ModeFor(perm common.Permissions) LockMode {
	if perm == common.ReadWrite {
		return LockExclusive
	}
	return LockShared
}

type lockEntry struct {
	tid  common.TransactionID
	mode LockMode
}

// LockManager grants and releases page-granularity S/X locks under strict
// two-phase locking. Acquire is non-blocking; blocking behavior is built by
// the caller retrying in a bounded loop (the buffer pool's getPage).
//
// A single coarse mutex protects the lock table. Lock-striping would scale
// better, but the table is consulted only once per page access and the
// critical sections are short.
type LockManager struct {
	mu        sync.Mutex
	pageLocks map[common.PageID][]lockEntry
	held      map[common.TransactionID]map[common.PageID]LockMode
}

func NewLockManager() *LockManager {
	return &LockManager{
		pageLocks: make(map[common.PageID][]lockEntry),
		held:      make(map[common.TransactionID]map[common.PageID]LockMode),
	}
}

// Acquire attempts to take a lock of the given mode on pid for tid. It
// returns true if the lock is held by tid on return.
//
// Re-requests are no-ops. A transaction that is the sole holder of a shared
// lock may upgrade it to exclusive in place; this admits the common
// read-then-write pattern without self-deadlock.
func (lm *LockManager) Acquire(tid common.TransactionID, pid common.PageID, mode LockMode) bool {
	common.Assert(tid != common.InvalidTransactionID, "invalid transaction id")
	lm.mu.Lock()
	defer lm.mu.Unlock()

	locks := lm.pageLocks[pid]
	for i := range locks {
		if locks[i].tid != tid {
			continue
		}
		// Already hold a lock on this page.
		if locks[i].mode == LockExclusive || locks[i].mode == mode {
			return true
		}
		// Held S, requesting X: upgrade in place iff sole holder.
		if len(locks) == 1 {
			locks[i].mode = LockExclusive
			lm.held[tid][pid] = LockExclusive
			return true
		}
		return false
	}

	for i := range locks {
		if locks[i].mode == LockExclusive {
			return false
		}
	}
	if mode == LockExclusive && len(locks) > 0 {
		return false
	}

	lm.pageLocks[pid] = append(locks, lockEntry{tid: tid, mode: mode})
	if lm.held[tid] == nil {
		lm.held[tid] = make(map[common.PageID]LockMode)
	}
	lm.held[tid][pid] = mode
	return true
}

// Release drops tid's lock on pid, if any.
func (lm *LockManager) Release(tid common.TransactionID, pid common.PageID) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.releaseLocked(tid, pid)
}

func (lm *LockManager) releaseLocked(tid common.TransactionID, pid common.PageID) {
	locks := lm.pageLocks[pid]
	for i := range locks {
		if locks[i].tid == tid {
			locks = append(locks[:i], locks[i+1:]...)
			break
		}
	}
	if len(locks) == 0 {
		delete(lm.pageLocks, pid)
	} else {
		lm.pageLocks[pid] = locks
	}
	if held := lm.held[tid]; held != nil {
		delete(held, pid)
		if len(held) == 0 {
			delete(lm.held, tid)
		}
	}
}

// ReleaseAll drops every lock held by tid. Called at commit or abort.
func (lm *LockManager) ReleaseAll(tid common.TransactionID) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	for pid := range lm.held[tid] {
		lm.releaseLocked(tid, pid)
	}
}

// HoldsLock reports whether tid holds any lock on pid.
func (lm *LockManager) HoldsLock(tid common.TransactionID, pid common.PageID) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	_, ok := lm.held[tid][pid]
	return ok
}

// HeldLocks returns a snapshot of the pages tid holds locks on, with the
// mode of each.
func (lm *LockManager) HeldLocks(tid common.TransactionID) map[common.PageID]LockMode {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	result := make(map[common.PageID]LockMode, len(lm.held[tid]))
	for pid, mode := range lm.held[tid] {
		result[pid] = mode
	}
	return result
}
