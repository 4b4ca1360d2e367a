package godb

// transaction.go is the thin coordinator a driver (the CLI, a test) uses
// instead of juggling BufferPool and LogFile calls itself: NewTransaction logs a
// BEGIN record, Commit runs the buffer pool's commit path (which forces
// every dirtied page's UPDATE record) followed by the log's COMMIT record,
// and Abort runs the log's physical rollback followed by the buffer pool's
// own in-memory discard, matching the order section 4.5 implies (rollback
// must fix up any page already flushed to disk before the pool's abort path
// re-reads it).

type Transaction struct {
	tid TransactionID
	bp  *BufferPool
	lf  *LogFile
}

// NewTransaction begins a fresh transaction against bp and lf.
func NewTransaction(bp *BufferPool, lf *LogFile) (*Transaction, error) {
	tx := &Transaction{tid: NewTID(), bp: bp, lf: lf}
	if err := lf.LogBegin(tx.tid); err != nil {
		return nil, err
	}
	return tx, nil
}

// ID returns the transaction's id, for passing to Operator/DBFile methods
// that take a TransactionID directly.
func (tx *Transaction) ID() TransactionID {
	return tx.tid
}

// Commit forces every page tx dirtied to the log and releases tx's locks
// (both in the buffer pool's commit path), then appends the COMMIT record.
func (tx *Transaction) Commit() error {
	if err := tx.bp.TransactionComplete(tx.tid, true); err != nil {
		return err
	}
	return tx.lf.LogCommit(tx.tid)
}

// Abort physically rolls back every page tx dirtied (via the log, which
// covers pages already evicted to disk), then discards any of tx's pages
// still resident, then releases tx's locks.
func (tx *Transaction) Abort() error {
	if err := tx.lf.LogAbort(tx.tid); err != nil {
		return err
	}
	return tx.bp.TransactionComplete(tx.tid, false)
}
