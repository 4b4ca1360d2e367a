package godb

// log_file.go implements LogFile: an append-only, big-endian binary write-
// ahead log plus ARIES-style recovery. The on-disk layout, the forward-scan
// classify/redo/undo recovery shape, and the rollback-by-reverse-replay of
// before-images are grounded in this package's teaching-lineage sibling's
// log_file.go and buffer_pool "Rollback"/"Recover" additions; the page/id
// "class tag" scheme is this package's answer to design note 9's call to
// replace reflective class tags with a small tagged variant plus a
// per-variant decoder table, while still writing a UTF tag on disk.

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
)

type logRecordType int32

const (
	abortRecordType      logRecordType = 1
	commitRecordType     logRecordType = 2
	updateRecordType     logRecordType = 3
	beginRecordType      logRecordType = 4
	checkpointRecordType logRecordType = 5
)

// checkpointTidSlot is the sentinel tid field value for a CHECKPOINT record.
const checkpointTidSlot = TransactionID(-1)

// heapPageClassTag and pageIDClassTag are the on-disk "reflective" tags
// recorded for every before/after image. Today there is exactly one page
// kind and one page-id kind, each with a pure fromInts-style decoder, so the
// tag is really just a sanity check against a corrupt log.
const (
	heapPageClassTag = "heapPage"
	pageIDClassTag   = "pageId"
)

type logRecord struct {
	offset int64
	typ    logRecordType
	tid    TransactionID

	beforePID PageID
	before    Page
	afterPID  PageID
	after     Page

	checkpointTids map[TransactionID]int64
}

// LogFile is the write-ahead log backing one BufferPool's tables. Every
// append is serialized on mu; rollback (LogAbort, rollback), checkpoint and
// recovery touch the buffer pool and heap files, and are the only methods
// that acquire bp's monitor -- always before their own, per the fixed
// monitor order in section 5.
type LogFile struct {
	mu   sync.Mutex
	file *os.File

	bufferPool *BufferPool
	catalog    *Catalog

	checkpointOffset    int64
	tidToFirstLogRecord map[TransactionID]int64
}

// NewLogFile opens (creating if necessary) the log backed by path, wiring it
// to bp (for rollback/recovery/checkpoint) and cat (to resolve a page's
// table to its TupleDesc when decoding an image).
func NewLogFile(path string, bp *BufferPool, cat *Catalog) (*LogFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, &IoError{Op: "open log file", Err: err}
	}
	lf := &LogFile{
		file:                f,
		bufferPool:          bp,
		catalog:             cat,
		tidToFirstLogRecord: make(map[TransactionID]int64),
	}

	fi, err := f.Stat()
	if err != nil {
		return nil, &IoError{Op: "stat log file", Err: err}
	}
	if fi.Size() == 0 {
		lf.checkpointOffset = -1
		if err := lf.writeHeader(); err != nil {
			return nil, err
		}
	} else {
		if err := lf.readHeader(); err != nil {
			return nil, err
		}
	}
	return lf, nil
}

func (lf *LogFile) writeHeader() error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(lf.checkpointOffset))
	if _, err := lf.file.WriteAt(buf[:], 0); err != nil {
		return &IoError{Op: "write log header", Err: err}
	}
	return nil
}

func (lf *LogFile) readHeader() error {
	var buf [8]byte
	if _, err := lf.file.ReadAt(buf[:], 0); err != nil {
		return &IoError{Op: "read log header", Err: err}
	}
	lf.checkpointOffset = int64(binary.BigEndian.Uint64(buf[:]))
	return nil
}

// Force flushes the log's in-kernel buffers to stable storage.
func (lf *LogFile) Force() error {
	if err := lf.file.Sync(); err != nil {
		return &IoError{Op: "force log", Err: err}
	}
	return nil
}

func writeUTF(buf *bytes.Buffer, s string) error {
	if len(s) > 1<<16-1 {
		return fmt.Errorf("string too long for UTF encoding: %d bytes", len(s))
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	buf.WriteString(s)
	return nil
}

func readUTF(r io.Reader) (string, error) {
	var l uint16
	if err := binary.Read(r, binary.BigEndian, &l); err != nil {
		return "", err
	}
	data := make([]byte, l)
	if _, err := io.ReadFull(r, data); err != nil {
		return "", err
	}
	return string(data), nil
}

// encodePage appends p's class tag, id tag, id args and raw bytes to buf.
func encodePage(buf *bytes.Buffer, p Page) error {
	if err := writeUTF(buf, heapPageClassTag); err != nil {
		return err
	}
	if err := writeUTF(buf, pageIDClassTag); err != nil {
		return err
	}
	ids := p.pageID().toInts()
	if err := binary.Write(buf, binary.BigEndian, int32(len(ids))); err != nil {
		return err
	}
	for _, v := range ids {
		if err := binary.Write(buf, binary.BigEndian, v); err != nil {
			return err
		}
	}
	data, err := p.toBuffer()
	if err != nil {
		return err
	}
	if err := binary.Write(buf, binary.BigEndian, int32(len(data))); err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

// decodePage reads one page image written by encodePage, resolving its
// TupleDesc via lf.catalog.
func (lf *LogFile) decodePage(r io.Reader) (Page, PageID, error) {
	pageClass, err := readUTF(r)
	if err != nil {
		return nil, PageID{}, err
	}
	if pageClass != heapPageClassTag {
		return nil, PageID{}, &IllegalStateError{Msg: fmt.Sprintf("unknown page class tag %q in log", pageClass)}
	}
	idClass, err := readUTF(r)
	if err != nil {
		return nil, PageID{}, err
	}
	if idClass != pageIDClassTag {
		return nil, PageID{}, &IllegalStateError{Msg: fmt.Sprintf("unknown page id class tag %q in log", idClass)}
	}
	var argc int32
	if err := binary.Read(r, binary.BigEndian, &argc); err != nil {
		return nil, PageID{}, err
	}
	ids := make([]int32, argc)
	for i := range ids {
		if err := binary.Read(r, binary.BigEndian, &ids[i]); err != nil {
			return nil, PageID{}, err
		}
	}
	pid, err := pageIDFromInts(ids)
	if err != nil {
		return nil, PageID{}, err
	}
	var blen int32
	if err := binary.Read(r, binary.BigEndian, &blen); err != nil {
		return nil, PageID{}, err
	}
	data := make([]byte, blen)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, PageID{}, err
	}
	file, err := lf.catalog.GetDBFile(pid.TableID)
	if err != nil {
		return nil, PageID{}, err
	}
	hf, ok := file.(*HeapFile)
	if !ok {
		return nil, PageID{}, &IllegalStateError{Msg: "logged page's table is not a heap file"}
	}
	pg, err := newHeapPageFromBytes(pid, hf.Descriptor(), hf, data)
	if err != nil {
		return nil, PageID{}, err
	}
	return pg, pid, nil
}

// countingReader wraps an io.Reader, tallying bytes consumed so the caller
// can locate the next record without re-parsing.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// appendRecord serializes typ/tid, the type-specific payload built by
// payload, and the backward recordStartOffset pointer, writing the whole
// record at the current end of file. lf.mu must be held.
func (lf *LogFile) appendRecord(typ logRecordType, tid TransactionID, payload func(*bytes.Buffer) error) (int64, error) {
	startOffset, err := lf.file.Seek(0, io.SeekEnd)
	if err != nil {
		return 0, &IoError{Op: "seek log end", Err: err}
	}

	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.BigEndian, int32(typ)); err != nil {
		return 0, err
	}
	if err := binary.Write(buf, binary.BigEndian, int64(tid)); err != nil {
		return 0, err
	}
	if payload != nil {
		if err := payload(buf); err != nil {
			return 0, err
		}
	}
	if err := binary.Write(buf, binary.BigEndian, startOffset); err != nil {
		return 0, err
	}

	if _, err := lf.file.WriteAt(buf.Bytes(), startOffset); err != nil {
		return 0, &IoError{Op: "append log record", Err: err}
	}
	return startOffset, nil
}

// LogBegin records tid's first appearance in the log.
func (lf *LogFile) LogBegin(tid TransactionID) error {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	start, err := lf.appendRecord(beginRecordType, tid, nil)
	if err != nil {
		return err
	}
	lf.tidToFirstLogRecord[tid] = start
	return nil
}

// logWrite appends an UPDATE record carrying before's and after's images.
// Does not force; the caller (BufferPool, already holding its own monitor)
// decides when to force.
func (lf *LogFile) logWrite(tid TransactionID, before, after Page) error {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	_, err := lf.appendRecord(updateRecordType, tid, func(buf *bytes.Buffer) error {
		if err := encodePage(buf, before); err != nil {
			return err
		}
		return encodePage(buf, after)
	})
	return err
}

// LogCommit appends a COMMIT record, forces the log, and forgets tid.
func (lf *LogFile) LogCommit(tid TransactionID) error {
	lf.mu.Lock()
	if _, err := lf.appendRecord(commitRecordType, tid, nil); err != nil {
		lf.mu.Unlock()
		return err
	}
	delete(lf.tidToFirstLogRecord, tid)
	lf.mu.Unlock()
	return lf.Force()
}

// LogAbort rolls tid's updates back (restoring before-images directly to
// their home files and evicting the affected pages from the pool), appends
// an ABORT record, forces the log, and forgets tid. Takes the buffer pool's
// monitor before its own, per the fixed monitor order -- rollback discards
// pages via the already-locked path rather than re-entering bp.mu.
func (lf *LogFile) LogAbort(tid TransactionID) error {
	lf.bufferPool.mu.Lock()
	defer lf.bufferPool.mu.Unlock()

	lf.mu.Lock()
	defer lf.mu.Unlock()

	if err := lf.rollbackLocked(tid); err != nil {
		return err
	}
	if _, err := lf.appendRecord(abortRecordType, tid, nil); err != nil {
		return err
	}
	delete(lf.tidToFirstLogRecord, tid)
	return lf.forceLocked()
}

func (lf *LogFile) forceLocked() error {
	if err := lf.file.Sync(); err != nil {
		return &IoError{Op: "force log", Err: err}
	}
	return nil
}

// rollback restores every UPDATE before-image tid wrote, newest first.
// Exposed separately from LogAbort for callers that want the physical undo
// without also appending an ABORT record.
func (lf *LogFile) rollback(tid TransactionID) error {
	lf.bufferPool.mu.Lock()
	defer lf.bufferPool.mu.Unlock()

	lf.mu.Lock()
	defer lf.mu.Unlock()
	return lf.rollbackLocked(tid)
}

func (lf *LogFile) rollbackLocked(tid TransactionID) error {
	start, ok := lf.tidToFirstLogRecord[tid]
	if !ok {
		return &NoSuchElementError{Tid: tid}
	}

	end, err := lf.file.Seek(0, io.SeekEnd)
	if err != nil {
		return &IoError{Op: "seek log end", Err: err}
	}

	var befores []Page
	offset := start
	for offset < end {
		rec, next, err := lf.readRecordAt(offset)
		if err != nil {
			return err
		}
		if rec.typ == updateRecordType && rec.tid == tid {
			befores = append(befores, rec.before)
		}
		offset = next
	}

	for i := len(befores) - 1; i >= 0; i-- {
		before := befores[i]
		file, err := lf.catalog.GetDBFile(before.pageID().TableID)
		if err != nil {
			return err
		}
		if err := file.writePage(before); err != nil {
			return err
		}
		if lf.bufferPool != nil {
			lf.bufferPool.discardPageLocked(before.pageID())
		}
	}
	return nil
}

// readRecordAt parses the record starting at offset, returning the offset
// immediately after it (the next record, or EOF).
func (lf *LogFile) readRecordAt(offset int64) (logRecord, int64, error) {
	if _, err := lf.file.Seek(offset, io.SeekStart); err != nil {
		return logRecord{}, 0, &IoError{Op: "seek log record", Err: err}
	}
	cr := &countingReader{r: lf.file}

	var typRaw int32
	if err := binary.Read(cr, binary.BigEndian, &typRaw); err != nil {
		return logRecord{}, 0, &IllegalStateError{Msg: "truncated log record type"}
	}
	var tidRaw int64
	if err := binary.Read(cr, binary.BigEndian, &tidRaw); err != nil {
		return logRecord{}, 0, &IllegalStateError{Msg: "truncated log record tid"}
	}

	rec := logRecord{offset: offset, typ: logRecordType(typRaw), tid: TransactionID(tidRaw)}

	switch rec.typ {
	case abortRecordType, commitRecordType, beginRecordType:
		// no payload
	case updateRecordType:
		before, beforePID, err := lf.decodePage(cr)
		if err != nil {
			return logRecord{}, 0, err
		}
		after, afterPID, err := lf.decodePage(cr)
		if err != nil {
			return logRecord{}, 0, err
		}
		rec.before, rec.beforePID = before, beforePID
		rec.after, rec.afterPID = after, afterPID
	case checkpointRecordType:
		var count int32
		if err := binary.Read(cr, binary.BigEndian, &count); err != nil {
			return logRecord{}, 0, err
		}
		rec.checkpointTids = make(map[TransactionID]int64, count)
		for i := int32(0); i < count; i++ {
			var ctid, coffset int64
			if err := binary.Read(cr, binary.BigEndian, &ctid); err != nil {
				return logRecord{}, 0, err
			}
			if err := binary.Read(cr, binary.BigEndian, &coffset); err != nil {
				return logRecord{}, 0, err
			}
			rec.checkpointTids[TransactionID(ctid)] = coffset
		}
	default:
		return logRecord{}, 0, &IllegalStateError{Msg: fmt.Sprintf("unknown log record type %d at offset %d", typRaw, offset)}
	}

	var footer int64
	if err := binary.Read(cr, binary.BigEndian, &footer); err != nil {
		return logRecord{}, 0, &IllegalStateError{Msg: "truncated log record footer"}
	}
	if footer != offset {
		return logRecord{}, 0, &IllegalStateError{Msg: fmt.Sprintf("log record footer %d does not match start offset %d", footer, offset)}
	}

	return rec, offset + cr.n, nil
}

// LogCheckpoint forces the log, flushes every dirty resident page, writes a
// CHECKPOINT enumerating every transaction still live, repoints the header
// at it, and truncates everything before the oldest record still needed
// (the CHECKPOINT itself or a live transaction's first record). Holds the
// buffer pool's monitor for its duration; its own monitor is taken after
// the flush, since each flushed page's UPDATE record goes through logWrite,
// which takes lf.mu itself.
func (lf *LogFile) LogCheckpoint() error {
	lf.bufferPool.mu.Lock()
	defer lf.bufferPool.mu.Unlock()

	if err := lf.Force(); err != nil {
		return err
	}
	for _, pg := range lf.bufferPool.pages {
		if _, dirty := pg.isDirty(); !dirty {
			continue
		}
		if err := lf.bufferPool.flushPageLocked(pg); err != nil {
			return err
		}
	}

	lf.mu.Lock()
	defer lf.mu.Unlock()

	snapshot := make(map[TransactionID]int64, len(lf.tidToFirstLogRecord))
	for tid, off := range lf.tidToFirstLogRecord {
		snapshot[tid] = off
	}

	start, err := lf.appendRecord(checkpointRecordType, checkpointTidSlot, func(buf *bytes.Buffer) error {
		if err := binary.Write(buf, binary.BigEndian, int32(len(snapshot))); err != nil {
			return err
		}
		for tid, off := range snapshot {
			if err := binary.Write(buf, binary.BigEndian, int64(tid)); err != nil {
				return err
			}
			if err := binary.Write(buf, binary.BigEndian, off); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	lf.checkpointOffset = start
	if err := lf.writeHeader(); err != nil {
		return err
	}
	return lf.logTruncateLocked(snapshot)
}

// logTruncate drops every record before the oldest still-needed one. Not
// wired to any external caller today -- LogCheckpoint is the only path that
// truncates, immediately after writing its own CHECKPOINT -- but kept
// callable on its own for tests that want to check truncation in isolation.
func (lf *LogFile) logTruncate() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	return lf.logTruncateLocked(lf.tidToFirstLogRecord)
}

func (lf *LogFile) logTruncateLocked(live map[TransactionID]int64) error {
	minRecord := lf.checkpointOffset
	for _, off := range live {
		if minRecord < 0 || off < minRecord {
			minRecord = off
		}
	}
	if minRecord <= 8 {
		return nil
	}

	end, err := lf.file.Seek(0, io.SeekEnd)
	if err != nil {
		return &IoError{Op: "seek log end", Err: err}
	}
	if minRecord >= end {
		return nil
	}

	tail := make([]byte, end-minRecord)
	if _, err := lf.file.ReadAt(tail, minRecord); err != nil {
		return &IoError{Op: "read log tail for truncation", Err: err}
	}

	newPath := lf.file.Name() + ".truncating"
	newFile, err := os.OpenFile(newPath, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return &IoError{Op: "create truncated log", Err: err}
	}

	shift := minRecord - 8
	rewritten, err := rewriteOffsets(tail, shift)
	if err != nil {
		newFile.Close()
		return err
	}

	var header [8]byte
	newCheckpoint := lf.checkpointOffset
	if newCheckpoint >= 0 {
		newCheckpoint -= shift
	}
	binary.BigEndian.PutUint64(header[:], uint64(newCheckpoint))
	if _, err := newFile.WriteAt(header[:], 0); err != nil {
		newFile.Close()
		return &IoError{Op: "write truncated log header", Err: err}
	}
	if _, err := newFile.WriteAt(rewritten, 8); err != nil {
		newFile.Close()
		return &IoError{Op: "write truncated log body", Err: err}
	}
	if err := newFile.Sync(); err != nil {
		newFile.Close()
		return &IoError{Op: "force truncated log", Err: err}
	}
	newFile.Close()

	oldPath := lf.file.Name()
	if err := lf.file.Close(); err != nil {
		return &IoError{Op: "close old log", Err: err}
	}
	if err := os.Rename(newPath, oldPath); err != nil {
		return &IoError{Op: "install truncated log", Err: err}
	}
	reopened, err := os.OpenFile(oldPath, os.O_RDWR, 0644)
	if err != nil {
		return &IoError{Op: "reopen truncated log", Err: err}
	}
	lf.file = reopened
	lf.checkpointOffset = newCheckpoint
	for tid, off := range live {
		lf.tidToFirstLogRecord[tid] = off - shift
	}
	return nil
}

// rewriteOffsets re-parses every record in a byte range copied verbatim from
// the live log (offsets relative to the original file) and rewrites its
// trailing backward pointer (and, for a CHECKPOINT, its per-tid offsets) to
// the coordinates of the new, truncated file.
func rewriteOffsets(data []byte, shift int64) ([]byte, error) {
	out := make([]byte, len(data))
	copy(out, data)

	pos := int64(0)
	for pos < int64(len(data)) {
		r := bytes.NewReader(data[pos:])
		cr := &countingReader{r: r}

		var typRaw int32
		if err := binary.Read(cr, binary.BigEndian, &typRaw); err != nil {
			return nil, &IllegalStateError{Msg: "truncated record while rewriting log"}
		}
		var tidRaw int64
		if err := binary.Read(cr, binary.BigEndian, &tidRaw); err != nil {
			return nil, &IllegalStateError{Msg: "truncated record while rewriting log"}
		}

		switch logRecordType(typRaw) {
		case abortRecordType, commitRecordType, beginRecordType:
		case updateRecordType:
			if err := skipEncodedPage(cr); err != nil {
				return nil, err
			}
			if err := skipEncodedPage(cr); err != nil {
				return nil, err
			}
		case checkpointRecordType:
			var count int32
			if err := binary.Read(cr, binary.BigEndian, &count); err != nil {
				return nil, err
			}
			for i := int32(0); i < count; i++ {
				var ctid int64
				if err := binary.Read(cr, binary.BigEndian, &ctid); err != nil {
					return nil, err
				}
				entryOffset := pos + cr.n
				var coffset int64
				if err := binary.Read(cr, binary.BigEndian, &coffset); err != nil {
					return nil, err
				}
				binary.BigEndian.PutUint64(out[entryOffset:], uint64(coffset-shift))
			}
		default:
			return nil, &IllegalStateError{Msg: "unknown record type while rewriting log"}
		}

		// pos is this record's offset relative to the tail (i.e. relative to
		// the old minRecord); the new file's body starts 8 bytes in, so the
		// record's new absolute offset is simply pos+8.
		footerOffset := pos + cr.n
		binary.BigEndian.PutUint64(out[footerOffset:], uint64(pos+8))
		pos = footerOffset + 8
	}
	return out, nil
}

func skipEncodedPage(r io.Reader) error {
	if _, err := readUTF(r); err != nil {
		return err
	}
	if _, err := readUTF(r); err != nil {
		return err
	}
	var argc int32
	if err := binary.Read(r, binary.BigEndian, &argc); err != nil {
		return err
	}
	for i := int32(0); i < argc; i++ {
		var v int32
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return err
		}
	}
	var blen int32
	if err := binary.Read(r, binary.BigEndian, &blen); err != nil {
		return err
	}
	buf := make([]byte, blen)
	_, err := io.ReadFull(r, buf)
	return err
}

// Recover runs ARIES-style recovery: a single forward classify pass over the
// whole log building the loser set and remembering every UPDATE's position,
// a forward redo pass applying every UPDATE's after-image, and a reverse
// undo pass applying losers' before-images (skipping any page a later
// committed UPDATE already overwrote). Safe to call on a log holding only
// the header (a no-op) and idempotent: Recover appends nothing to the log,
// so a second call classifies the same losers, repeats the same redo and
// undo, and leaves the same on-disk state.
func (lf *LogFile) Recover() error {
	lf.bufferPool.mu.Lock()
	defer lf.bufferPool.mu.Unlock()
	lf.mu.Lock()
	defer lf.mu.Unlock()

	end, err := lf.file.Seek(0, io.SeekEnd)
	if err != nil {
		return &IoError{Op: "seek log end", Err: err}
	}
	if end <= 8 {
		return nil
	}

	losers := make(map[TransactionID]struct{})
	var updates []logRecord

	offset := int64(8)
	for offset < end {
		rec, next, err := lf.readRecordAt(offset)
		if err != nil {
			return err
		}
		switch rec.typ {
		case beginRecordType:
			losers[rec.tid] = struct{}{}
		case commitRecordType, abortRecordType:
			delete(losers, rec.tid)
		case checkpointRecordType:
			for tid := range rec.checkpointTids {
				losers[tid] = struct{}{}
			}
		case updateRecordType:
			updates = append(updates, rec)
		}
		offset = next
	}

	// Redo pass: apply every after-image, forward, regardless of tid.
	pageLastCommittedWriter := make(map[PageID]int)
	for i, rec := range updates {
		file, err := lf.catalog.GetDBFile(rec.afterPID.TableID)
		if err != nil {
			return err
		}
		if err := file.writePage(rec.after); err != nil {
			return err
		}
		lf.bufferPool.discardPageLocked(rec.afterPID)
		if _, isLoser := losers[rec.tid]; !isLoser {
			pageLastCommittedWriter[rec.afterPID] = i
		}
	}

	// Undo pass: apply losers' before-images, reverse, unless a later
	// committed UPDATE to the same page would be clobbered.
	for i := len(updates) - 1; i >= 0; i-- {
		rec := updates[i]
		if _, isLoser := losers[rec.tid]; !isLoser {
			continue
		}
		if lastCommitted, ok := pageLastCommittedWriter[rec.beforePID]; ok && lastCommitted > i {
			lf.bufferPool.discardPageLocked(rec.beforePID)
			continue
		}
		file, err := lf.catalog.GetDBFile(rec.beforePID.TableID)
		if err != nil {
			return err
		}
		if err := file.writePage(rec.before); err != nil {
			return err
		}
		lf.bufferPool.discardPageLocked(rec.beforePID)
	}

	return nil
}
