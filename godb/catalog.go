package godb

// catalog.go is the thin table-name/table-id/DBFile registry the rest of the
// core treats as a collaborator rather than implements itself: PageID only
// carries a table id, so anything that needs the backing DBFile for a page
// (BufferPool.GetPage, LogFile's page-image codec, query construction) goes
// through a Catalog. Grounded in the GetTableInfoId/GetTableInfoDBFile calls
// the log file's teaching-lineage sibling makes against its own Catalog.

import (
	"fmt"
	"sync"
)

type Catalog struct {
	mu     sync.Mutex
	byID   map[int32]DBFile
	byName map[string]DBFile
	nameOf map[int32]string
}

func NewCatalog() *Catalog {
	return &Catalog{
		byID:   make(map[int32]DBFile),
		byName: make(map[string]DBFile),
		nameOf: make(map[int32]string),
	}
}

// AddTable registers file under name. The file's own id() (a hash of its
// backing path) is the stable identifier embedded in every PageID it mints.
func (c *Catalog) AddTable(name string, file DBFile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byName[name] = file
	c.byID[file.id()] = file
	c.nameOf[file.id()] = name
}

// GetDBFile resolves a table id, as found on a PageID, to its DBFile.
func (c *Catalog) GetDBFile(tableID int32) (DBFile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.byID[tableID]
	if !ok {
		return nil, newGoDBError(NoSuchTableError, fmt.Sprintf("no table registered with id %d", tableID))
	}
	return f, nil
}

// GetDBFileByName resolves a table by the name it was registered under.
func (c *Catalog) GetDBFileByName(name string) (DBFile, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f, ok := c.byName[name]
	if !ok {
		return nil, newGoDBError(NoSuchTableError, fmt.Sprintf("no table named %q", name))
	}
	return f, nil
}

// TableName returns the name tableID was registered under.
func (c *Catalog) TableName(tableID int32) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name, ok := c.nameOf[tableID]
	if !ok {
		return "", newGoDBError(NoSuchTableError, fmt.Sprintf("no table registered with id %d", tableID))
	}
	return name, nil
}
