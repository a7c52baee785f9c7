package storage

import (
	"math/rand"
	"sync"
	"time"

	"mit.edu/dsg/simpledb/common"
	"mit.edu/dsg/simpledb/transaction"
)

// DefaultPages is the buffer pool capacity used when callers do not pass
// their own.
const DefaultPages = 50

// retryInterval is how long getPage sleeps between lock attempts.
const retryInterval = 2 * time.Millisecond

// BufferPool is a bounded cache of pages and the single gate for page
// access: every read and write of table data passes through GetPage, which
// couples the lookup with strict two-phase S/X locking at page granularity.
//
// Writes are deferred: modified pages sit dirty in the cache until the
// owning transaction commits (or a flush is forced). Eviction is NO-STEAL —
// a dirty page is never a victim — because the log protocol has no undo:
// uncommitted bytes must not reach disk.
//
// A single coarse mutex protects the cache table; page contents themselves
// are protected by the page locks, not by the mutex.
type BufferPool struct {
	capacity int
	resolver TableResolver
	logger   UpdateLogger
	locks    *transaction.LockManager

	mu    sync.Mutex
	pages map[common.PageID]Page
}

// NewBufferPool creates a BufferPool that caches up to capacity pages,
// loading misses through resolver and writing WAL records through logger.
func NewBufferPool(capacity int, resolver TableResolver, logger UpdateLogger) *BufferPool {
	common.Assert(capacity > 0, "buffer pool capacity must be positive")
	return &BufferPool{
		capacity: capacity,
		resolver: resolver,
		logger:   logger,
		locks:    transaction.NewLockManager(),
		pages:    make(map[common.PageID]Page, capacity),
	}
}

// GetPage retrieves the page identified by pid on behalf of tid, first
// acquiring the lock implied by perm (shared for reads, exclusive for
// writes).
//
// The acquire loop retries with a randomized per-request timeout between one
// and three seconds; exceeding it fails with TransactionAborted. The timeout
// is the sole deadlock-avoidance mechanism, so the caller must roll the
// transaction back with TransactionComplete(tid, false).
func (bp *BufferPool) GetPage(tid common.TransactionID, pid common.PageID, perm common.Permissions) (Page, error) {
	mode := transaction.ModeFor(perm)
	timeout := time.Duration(1000+rand.Intn(2000)) * time.Millisecond
	deadline := time.Now().Add(timeout)
	for !bp.locks.Acquire(tid, pid, mode) {
		if time.Now().After(deadline) {
			return nil, common.NewError(common.TransactionAborted,
				"txn %d timed out waiting for %s lock on %s", tid, mode, pid)
		}
		time.Sleep(retryInterval)
	}

	bp.mu.Lock()
	defer bp.mu.Unlock()

	if p, ok := bp.pages[pid]; ok {
		return p, nil
	}

	if len(bp.pages) >= bp.capacity {
		if err := bp.evictLocked(); err != nil {
			return nil, err
		}
	}

	file, err := bp.resolver.DatabaseFile(pid.Table)
	if err != nil {
		return nil, err
	}
	p, err := file.ReadPage(pid)
	if err != nil {
		return nil, err
	}
	bp.pages[pid] = p
	return p, nil
}

// ReleasePage drops tid's lock on pid without completing the transaction.
//
// Calling this is risky: releasing mid-transaction forfeits strict 2PL for
// that page. The one caller is HeapFile's insert scan, which releases full
// pages it did not modify.
func (bp *BufferPool) ReleasePage(tid common.TransactionID, pid common.PageID) {
	bp.locks.Release(tid, pid)
}

// HoldsLock reports whether tid holds a lock on pid.
func (bp *BufferPool) HoldsLock(tid common.TransactionID, pid common.PageID) bool {
	return bp.locks.HoldsLock(tid, pid)
}

// InsertTuple adds t to the named table on behalf of tid. The owning file
// takes write locks through this same pool; every page it reports modified
// is marked dirty with tid and (re)inserted into the cache so later reads
// see the update.
func (bp *BufferPool) InsertTuple(tid common.TransactionID, tableID common.TableID, t *Tuple) error {
	file, err := bp.resolver.DatabaseFile(tableID)
	if err != nil {
		return err
	}
	modified, err := file.InsertTuple(tid, t)
	if err != nil {
		return err
	}
	return bp.admitDirty(tid, modified)
}

// DeleteTuple removes t from its table on behalf of tid. The table is
// resolved from the tuple's RecordID.
func (bp *BufferPool) DeleteTuple(tid common.TransactionID, t *Tuple) error {
	rid := t.RecordID()
	if rid == nil {
		return common.NewError(common.NotOnPage, "tuple has no record id")
	}
	file, err := bp.resolver.DatabaseFile(rid.Table)
	if err != nil {
		return err
	}
	modified, err := file.DeleteTuple(tid, t)
	if err != nil {
		return err
	}
	return bp.admitDirty(tid, modified)
}

func (bp *BufferPool) admitDirty(tid common.TransactionID, modified []Page) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for _, p := range modified {
		if _, cached := bp.pages[p.ID()]; !cached && len(bp.pages) >= bp.capacity {
			if err := bp.evictLocked(); err != nil {
				return err
			}
		}
		p.MarkDirty(true, tid)
		bp.pages[p.ID()] = p
	}
	return nil
}

// TransactionComplete ends tid, committing or aborting it.
//
// On commit every page tid wrote is flushed (WAL record first) and its
// before-image rebound to the freshly flushed contents. On abort every such
// page is discarded from the cache without touching disk, so a re-read sees
// the pre-transaction image. Shared-locked pages need no I/O either way.
// Finally all of tid's locks are released.
func (bp *BufferPool) TransactionComplete(tid common.TransactionID, commit bool) error {
	var firstErr error
	for pid, mode := range bp.locks.HeldLocks(tid) {
		if mode != transaction.LockExclusive {
			continue
		}
		bp.mu.Lock()
		p, cached := bp.pages[pid]
		if !cached {
			bp.mu.Unlock()
			continue
		}
		if commit {
			if err := bp.flushPageLocked(pid); err != nil {
				if firstErr == nil {
					firstErr = err
				}
			} else {
				// The flushed contents become the before-image for the next
				// transaction that modifies this page.
				p.SetBeforeImage()
			}
		} else {
			delete(bp.pages, pid)
		}
		bp.mu.Unlock()
	}
	bp.locks.ReleaseAll(tid)
	return firstErr
}

// FlushAllPages writes every dirty page to disk. Breaks NO-STEAL if dirty
// pages belong to in-flight transactions; meant for shutdown and tests.
func (bp *BufferPool) FlushAllPages() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for pid := range bp.pages {
		if err := bp.flushPageLocked(pid); err != nil {
			return err
		}
	}
	return nil
}

// FlushPages writes every page dirtied by tid to disk.
func (bp *BufferPool) FlushPages(tid common.TransactionID) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for pid, p := range bp.pages {
		if p.IsDirty() == tid {
			if err := bp.flushPageLocked(pid); err != nil {
				return err
			}
		}
	}
	return nil
}

// DiscardPage removes pid from the cache without writing it. Used to drop
// rolled-back pages.
func (bp *BufferPool) DiscardPage(pid common.PageID) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	delete(bp.pages, pid)
}

// flushPageLocked writes pid to disk if dirty, preceding the write with a
// forced WAL UPDATE record carrying the page's before- and after-images.
// The before-image is NOT rebound here — only commit does that — so a
// steal-free flush between commits preserves the undo information the log
// protocol assumes.
func (bp *BufferPool) flushPageLocked(pid common.PageID) error {
	p, ok := bp.pages[pid]
	if !ok {
		return common.NewError(common.InvalidPage, "%s is not cached", pid)
	}
	tid := p.IsDirty()
	if tid == common.InvalidTransactionID {
		return nil
	}
	if err := bp.logger.LogWrite(tid, pid, p.BeforeImage(), p.Serialize()); err != nil {
		return err
	}
	if err := bp.logger.Force(); err != nil {
		return err
	}
	file, err := bp.resolver.DatabaseFile(pid.Table)
	if err != nil {
		return err
	}
	if err := file.WritePage(p); err != nil {
		return err
	}
	p.MarkDirty(false, common.InvalidTransactionID)
	return nil
}

// evictLocked discards the first clean page the cache scan finds. If every
// cached page is dirty the pool is wedged until some transaction completes,
// and the caller fails with BufferFull: writing a dirty page out would leak
// uncommitted data to disk.
func (bp *BufferPool) evictLocked() error {
	for pid, p := range bp.pages {
		if p.IsDirty() == common.InvalidTransactionID {
			delete(bp.pages, pid)
			return nil
		}
	}
	return common.NewError(common.BufferFull, "every cached page is dirty")
}
