package optimizer

import (
	"math"

	"github.com/puzpuzpuz/xsync/v3"

	"mit.edu/dsg/simpledb/catalog"
	"mit.edu/dsg/simpledb/common"
	"mit.edu/dsg/simpledb/storage"
	"mit.edu/dsg/simpledb/transaction"
)

// IOCostPerPage is the cost the planner charges for reading one page. Scans
// make no distinction between sequential I/O and seeks.
const IOCostPerPage = 1000

// NumHistBins is the bucket count for per-column histograms.
const NumHistBins = 100

// TableStats holds per-column histograms and cardinality for one base
// table, built by two passes over the data: the first learns each integer
// column's (min, max) so buckets can be allocated, the second populates the
// histograms.
type TableStats struct {
	ioCostPerPage int
	numPages      int
	totalTuples   int
	intHists      map[int]*IntHistogram
	strHists      map[int]*StringHistogram
}

// NewTableStats scans file and computes statistics for every column. The
// scan runs under its own read-only transaction, committed (and its locks
// released) before returning.
func NewTableStats(file storage.DbFile, pool *storage.BufferPool, ioCostPerPage int) (*TableStats, error) {
	desc := file.TupleDesc()
	stats := &TableStats{
		ioCostPerPage: ioCostPerPage,
		intHists:      make(map[int]*IntHistogram),
		strHists:      make(map[int]*StringHistogram),
	}

	tid := transaction.NewTransactionID()
	defer pool.TransactionComplete(tid, true)

	mins := make([]int32, desc.NumFields())
	maxs := make([]int32, desc.NumFields())
	for i := range mins {
		mins[i] = math.MaxInt32
		maxs[i] = math.MinInt32
	}

	it := file.Iterator(tid)
	if err := it.Open(); err != nil {
		return nil, err
	}
	for {
		ok, err := it.HasNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		t, err := it.Next()
		if err != nil {
			return nil, err
		}
		for i := 0; i < desc.NumFields(); i++ {
			if f, ok := t.Field(i).(common.IntField); ok {
				mins[i] = min(mins[i], f.Value)
				maxs[i] = max(maxs[i], f.Value)
			}
		}
		stats.totalTuples++
	}

	for i := 0; i < desc.NumFields(); i++ {
		switch desc.FieldType(i) {
		case common.IntType:
			lo, hi := mins[i], maxs[i]
			if lo > hi {
				// Empty table; give the histogram a degenerate range.
				lo, hi = 0, 0
			}
			stats.intHists[i] = NewIntHistogram(NumHistBins, lo, hi)
		case common.StringType:
			stats.strHists[i] = NewStringHistogram(NumHistBins)
		}
	}

	if err := it.Rewind(); err != nil {
		return nil, err
	}
	for {
		ok, err := it.HasNext()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		t, err := it.Next()
		if err != nil {
			return nil, err
		}
		for i := 0; i < desc.NumFields(); i++ {
			switch f := t.Field(i).(type) {
			case common.IntField:
				if err := stats.intHists[i].AddValue(f.Value); err != nil {
					return nil, err
				}
			case common.StringField:
				if err := stats.strHists[i].AddValue(f.Value); err != nil {
					return nil, err
				}
			}
		}
	}
	it.Close()

	stats.numPages = file.NumPages()
	return stats, nil
}

// EstimateScanCost returns the cost of a full sequential scan: every page,
// partial or not, costs ioCostPerPage.
func (s *TableStats) EstimateScanCost() float64 {
	return float64(s.numPages) * float64(s.ioCostPerPage)
}

// EstimateTableCardinality returns the expected number of tuples a scan
// with the given predicate selectivity yields.
func (s *TableStats) EstimateTableCardinality(selectivity float64) int {
	return int(float64(s.totalTuples) * selectivity)
}

// EstimateSelectivity estimates the fraction of the table satisfying
// `field op constant`, dispatching to the column's histogram by the type of
// the constant.
func (s *TableStats) EstimateSelectivity(field int, op common.Op, constant common.Field) float64 {
	switch f := constant.(type) {
	case common.IntField:
		return s.intHists[field].EstimateSelectivity(op, f.Value)
	case common.StringField:
		return s.strHists[field].EstimateSelectivity(op, f.Value)
	}
	panic("unknown constant type")
}

// AvgSelectivity is the expected selectivity of `field op ?` with an
// unknown operand. The join heuristics elsewhere treat it as opaque.
func (s *TableStats) AvgSelectivity(field int, op common.Op) float64 {
	return 1.0
}

// TotalTuples returns the number of tuples in the table at scan time.
func (s *TableStats) TotalTuples() int {
	return s.totalTuples
}

// StatsRegistry is the process-wide mapping from table name to statistics,
// populated once at startup.
type StatsRegistry struct {
	stats *xsync.MapOf[string, *TableStats]
}

func NewStatsRegistry() *StatsRegistry {
	return &StatsRegistry{stats: xsync.NewMapOf[string, *TableStats]()}
}

// Get returns the statistics for the named table, or nil if none computed.
func (r *StatsRegistry) Get(tableName string) *TableStats {
	s, _ := r.stats.Load(tableName)
	return s
}

// Set installs statistics for the named table.
func (r *StatsRegistry) Set(tableName string, s *TableStats) {
	r.stats.Store(tableName, s)
}

// ComputeStatistics builds statistics for every table in the catalog.
func (r *StatsRegistry) ComputeStatistics(cat *catalog.Catalog, pool *storage.BufferPool) error {
	for _, id := range cat.TableIDs() {
		file, err := cat.DatabaseFile(id)
		if err != nil {
			return err
		}
		name, err := cat.TableName(id)
		if err != nil {
			return err
		}
		stats, err := NewTableStats(file, pool, IOCostPerPage)
		if err != nil {
			return err
		}
		r.Set(name, stats)
	}
	return nil
}
