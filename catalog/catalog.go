package catalog

import (
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/tidwall/btree"

	"mit.edu/dsg/simpledb/common"
	"mit.edu/dsg/simpledb/storage"
)

// Table groups a heap file with its user-visible name and primary-key
// column.
type Table struct {
	File       storage.DbFile
	Name       string
	PrimaryKey string
}

// Catalog maps table identifiers to their files, schemas, and names. It is
// populated at startup (or by CREATE TABLE elsewhere) and consulted on every
// buffer-pool miss, so lookups use concurrent maps rather than a mutex.
//
// Registering a name that is already bound replaces the older binding; the
// older table's id stops resolving.
type Catalog struct {
	tables *xsync.MapOf[common.TableID, *Table]
	byName *xsync.MapOf[string, common.TableID]
	ids    *btree.BTreeG[common.TableID]
}

func NewCatalog() *Catalog {
	return &Catalog{
		tables: xsync.NewMapOf[common.TableID, *Table](),
		byName: xsync.NewMapOf[string, common.TableID](),
		ids:    btree.NewBTreeG[common.TableID](func(a, b common.TableID) bool { return a < b }),
	}
}

// AddTable registers file under the given name. pkey names the primary-key
// column (may be empty).
func (c *Catalog) AddTable(file storage.DbFile, name, pkey string) {
	id := file.ID()
	if oldID, ok := c.byName.Load(name); ok && oldID != id {
		c.tables.Delete(oldID)
		c.ids.Delete(oldID)
	}
	c.tables.Store(id, &Table{File: file, Name: name, PrimaryKey: pkey})
	c.byName.Store(name, id)
	c.ids.Set(id)
}

// DatabaseFile returns the file storing the table with the given id.
// Implements storage.TableResolver for the buffer pool.
func (c *Catalog) DatabaseFile(id common.TableID) (storage.DbFile, error) {
	t, ok := c.tables.Load(id)
	if !ok {
		return nil, common.NewError(common.NoSuchObject, "no table with id %d", id)
	}
	return t.File, nil
}

// TupleDesc returns the schema of the table with the given id.
func (c *Catalog) TupleDesc(id common.TableID) (*storage.TupleDesc, error) {
	f, err := c.DatabaseFile(id)
	if err != nil {
		return nil, err
	}
	return f.TupleDesc(), nil
}

// TableName returns the name of the table with the given id.
func (c *Catalog) TableName(id common.TableID) (string, error) {
	t, ok := c.tables.Load(id)
	if !ok {
		return "", common.NewError(common.NoSuchObject, "no table with id %d", id)
	}
	return t.Name, nil
}

// PrimaryKey returns the primary-key column name of the table with the
// given id.
func (c *Catalog) PrimaryKey(id common.TableID) (string, error) {
	t, ok := c.tables.Load(id)
	if !ok {
		return "", common.NewError(common.NoSuchObject, "no table with id %d", id)
	}
	return t.PrimaryKey, nil
}

// TableID returns the id of the table with the given name.
func (c *Catalog) TableID(name string) (common.TableID, error) {
	id, ok := c.byName.Load(name)
	if !ok {
		return common.InvalidTableID, common.NewError(common.NoSuchObject, "no table named '%s'", name)
	}
	return id, nil
}

// TableIDs returns every registered table id in ascending order.
func (c *Catalog) TableIDs() []common.TableID {
	result := make([]common.TableID, 0, c.ids.Len())
	c.ids.Scan(func(id common.TableID) bool {
		result = append(result, id)
		return true
	})
	return result
}

// Clear removes every table. Tests use this to simulate a restart.
func (c *Catalog) Clear() {
	c.tables.Clear()
	c.byName.Clear()
	c.ids = btree.NewBTreeG[common.TableID](func(a, b common.TableID) bool { return a < b })
}
