package storage

import (
	"mit.edu/dsg/simpledb/common"
)

// HeapPage is the fixed-size on-disk page of a heap file.
//
// Layout:
//
//	header  ceil(N/8) bytes, one bit per slot (bit i of byte k -> slot 8k+i);
//	        bit set means the slot holds a tuple
//	slots   N tuple images of fixed width W, back to back
//	pad     zero bytes to common.PageSize
//
// where N = floor(PageSize*8 / (W*8 + 1)). Unused slots are ignored on read
// and written as zeros on serialize.
//
// Pages are not internally synchronized; callers protect page contents with
// the S/X lock acquired through the buffer pool.
type HeapPage struct {
	pid      common.PageID
	desc     *TupleDesc
	numSlots int
	header   []byte
	tuples   []*Tuple

	dirtier     common.TransactionID
	beforeImage []byte
}

// SlotsPerPage returns the number of tuple slots a page holds for the given
// schema: each slot costs its tuple width in bytes plus one header bit.
func SlotsPerPage(desc *TupleDesc) int {
	return (common.PageSize * 8) / (desc.Size()*8 + 1)
}

func headerBytes(numSlots int) int {
	return (numSlots + 7) / 8
}

// EmptyPageData returns the image of a page with no used slots.
func EmptyPageData() []byte {
	return make([]byte, common.PageSize)
}

// NewHeapPage deserializes a page from its on-disk image. The before-image
// is bound to a copy of data.
func NewHeapPage(pid common.PageID, data []byte, desc *TupleDesc) (*HeapPage, error) {
	if len(data) != common.PageSize {
		return nil, common.NewError(common.InvalidPage, "page image is %d bytes, want %d", len(data), common.PageSize)
	}
	numSlots := SlotsPerPage(desc)
	hdrLen := headerBytes(numSlots)

	p := &HeapPage{
		pid:      pid,
		desc:     desc,
		numSlots: numSlots,
		header:   make([]byte, hdrLen),
		tuples:   make([]*Tuple, numSlots),
		dirtier:  common.InvalidTransactionID,
	}
	copy(p.header, data[:hdrLen])

	used := AsBitmap(p.header, numSlots)
	width := desc.Size()
	for slot := 0; slot < numSlots; slot++ {
		if !used.LoadBit(slot) {
			continue
		}
		t, err := ReadTuple(desc, data[hdrLen+slot*width:])
		if err != nil {
			return nil, err
		}
		rid := common.RecordID{PageID: pid, Slot: int32(slot)}
		t.SetRecordID(&rid)
		p.tuples[slot] = t
	}

	p.beforeImage = make([]byte, common.PageSize)
	copy(p.beforeImage, data)
	return p, nil
}

// ID returns the identity of the page.
func (p *HeapPage) ID() common.PageID {
	return p.pid
}

// TupleDesc returns the schema of the tuples stored on this page.
func (p *HeapPage) TupleDesc() *TupleDesc {
	return p.desc
}

// NumSlots returns the total number of tuple slots on the page.
func (p *HeapPage) NumSlots() int {
	return p.numSlots
}

// NumEmptySlots returns the number of slots whose header bit is clear.
func (p *HeapPage) NumEmptySlots() int {
	return p.numSlots - AsBitmap(p.header, p.numSlots).Count()
}

// SlotUsed reports whether the header bit for slot i is set.
func (p *HeapPage) SlotUsed(i int) bool {
	return AsBitmap(p.header, p.numSlots).LoadBit(i)
}

// Serialize produces the exact PageSize on-disk image of the page. Unused
// slots and trailing padding are zero-filled.
func (p *HeapPage) Serialize() []byte {
	data := make([]byte, common.PageSize)
	copy(data, p.header)

	used := AsBitmap(p.header, p.numSlots)
	width := p.desc.Size()
	hdrLen := len(p.header)
	for slot := 0; slot < p.numSlots; slot++ {
		if used.LoadBit(slot) {
			p.tuples[slot].WriteTo(data[hdrLen+slot*width:])
		}
	}
	return data
}

// InsertTuple stores t in the lowest-index empty slot, sets the slot bit,
// and assigns t's RecordID.
func (p *HeapPage) InsertTuple(t *Tuple) error {
	if !t.Desc().Equals(p.desc) {
		return common.NewError(common.SchemaMismatch,
			"tuple schema (%s) does not match page schema (%s)", t.Desc(), p.desc)
	}
	used := AsBitmap(p.header, p.numSlots)
	slot := used.FindFirstZero()
	if slot == -1 {
		return common.NewError(common.PageFull, "no empty slots on %s", p.pid)
	}
	used.SetBit(slot, true)
	p.tuples[slot] = t
	rid := common.RecordID{PageID: p.pid, Slot: int32(slot)}
	t.SetRecordID(&rid)
	return nil
}

// DeleteTuple clears the slot bit for t. The slot bytes are left in place in
// memory; serialization zeroes them. t's RecordID is cleared.
func (p *HeapPage) DeleteTuple(t *Tuple) error {
	rid := t.RecordID()
	if rid == nil || rid.PageID != p.pid {
		return common.NewError(common.NotOnPage, "tuple does not live on %s", p.pid)
	}
	slot := int(rid.Slot)
	if slot < 0 || slot >= p.numSlots {
		return common.NewError(common.NotOnPage, "slot %d out of range on %s", slot, p.pid)
	}
	used := AsBitmap(p.header, p.numSlots)
	if !used.LoadBit(slot) {
		return common.NewError(common.SlotEmpty, "slot %d on %s is already empty", slot, p.pid)
	}
	used.SetBit(slot, false)
	t.SetRecordID(nil)
	return nil
}

// UsedTuples returns the tuples in used slots in ascending slot order. The
// result is a snapshot of the header taken at call time; behavior under
// concurrent modification is undefined (callers hold the page lock).
func (p *HeapPage) UsedTuples() []*Tuple {
	used := AsBitmap(p.header, p.numSlots)
	result := make([]*Tuple, 0, p.numSlots-p.NumEmptySlots())
	for slot := 0; slot < p.numSlots; slot++ {
		if used.LoadBit(slot) {
			result = append(result, p.tuples[slot])
		}
	}
	return result
}

// IsDirty returns the transaction that dirtied the page, or
// common.InvalidTransactionID if the page is clean.
func (p *HeapPage) IsDirty() common.TransactionID {
	return p.dirtier
}

// MarkDirty records tid as the dirtying transaction, or clears the flag.
func (p *HeapPage) MarkDirty(dirty bool, tid common.TransactionID) {
	if dirty {
		p.dirtier = tid
	} else {
		p.dirtier = common.InvalidTransactionID
	}
}

// BeforeImage returns the page image as of the last commit (or load).
func (p *HeapPage) BeforeImage() []byte {
	return p.beforeImage
}

// SetBeforeImage rebinds the before-image to the current contents.
func (p *HeapPage) SetBeforeImage() {
	p.beforeImage = p.Serialize()
}
