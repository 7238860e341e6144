// The depdb (§4.6): an on-disk, line-oriented auxiliary database a
// recipe consults to decide whether its previously recorded inputs
// still match reality. Grounded on the teacher's incrementality.go
// (a persisted hash of a target's inputs compared against the current
// build to decide up-to-date-ness) and its cache.go (content-addressed
// persisted state), narrowed to the spec's line-oriented streaming
// format rather than please's content-addressed blob store.

package core

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/djherbis/atime"
	"github.com/google/renameio"
)

// depdbFormatVersion is written verbatim as the first line of every
// depdb file (build2/depdb.cxx writes the bare char '1', not a semver
// string). A file whose first line doesn't match exactly is treated as
// corrupt, the same as a missing end marker.
const depdbFormatVersion = "1"

const depdbEndMarker = 0x00

type depdbMode int

const (
	depdbRead depdbMode = iota
	depdbWrite
)

// DepDB is one open line-oriented dependency file (§4.6). Not safe for
// concurrent use: a recipe owns one depdb for the duration of its run.
type DepDB struct {
	path    string
	version string

	mode    depdbMode
	lines   []string // lines read from the file, in file order
	served  int       // count of lines handed out by Read so far
	corrupt bool      // true if the file lacked a trailing NUL or had a bad version line
	eof     bool      // true once Read has reported the end of the lines in read mode

	out   []string // accumulated lines once in write mode
	Touch bool      // if true, Close touches the file's mtime (atime-guarded, see flush)
}

// OpenDepDB opens the depdb at path. A missing file opens in write mode
// with no prior lines, matching §4.6's "file absent or corrupt" case.
func OpenDepDB(path string) (*DepDB, error) {
	db := &DepDB{path: path, version: depdbFormatVersion}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		db.mode = depdbWrite
		return db, nil
	}
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		db.mode = depdbWrite
		db.corrupt = true
		return db, nil
	}

	sawEnd := raw[len(raw)-1] == depdbEndMarker
	body := raw
	if sawEnd {
		body = raw[:len(raw)-1]
	}
	text := strings.TrimSuffix(string(body), "\n")
	all := strings.Split(text, "\n")

	versionLine := all[0]
	rest := all[1:]
	if len(all) == 1 {
		rest = nil
	}

	versionOK := versionLine == depdbFormatVersion

	db.mode = depdbRead
	db.lines = rest
	if !sawEnd || !versionOK {
		db.corrupt = true
	}
	return db, nil
}

// Read yields the next line in order, or ("", false) once the db has
// nothing more to offer (§4.6 "read() -> Option<&line>"). Once in write
// mode, Read always returns false.
func (d *DepDB) Read() (string, bool) {
	if d.mode == depdbWrite {
		return "", false
	}
	if d.served < len(d.lines) {
		line := d.lines[d.served]
		d.served++
		return line, true
	}
	if d.corrupt {
		// Reached EOF without ever finding the NUL end marker (or found
		// an incompatible version): transparently continue in write
		// mode from here, keeping everything legitimately read so far.
		d.mode = depdbWrite
		d.out = append([]string{}, d.lines...)
	}
	d.eof = true
	return "", false
}

// Write switches to write mode if not already there, truncating at the
// start of the last line Read returned (discarding it and everything
// after), or at the end of the file once Read has reported there is
// nothing more (keeping every line), then appends line.
func (d *DepDB) Write(line string) {
	if d.mode == depdbRead {
		truncateAt := d.served - 1
		if d.eof {
			truncateAt = d.served
		}
		if truncateAt < 0 {
			truncateAt = 0
		}
		d.out = append([]string{}, d.lines[:truncateAt]...)
		d.mode = depdbWrite
	}
	d.out = append(d.out, line)
}

// Expect is the canonical step (§4.6): read the next line; if it
// matches line, do nothing and return ("", false); otherwise write line
// in its place and return the line that was there before, if any.
func (d *DepDB) Expect(line string) (old string, hadOld bool) {
	if got, ok := d.Read(); ok {
		if got == line {
			return "", false
		}
		old, hadOld = got, true
	}
	d.Write(line)
	return old, hadOld
}

// Close finalizes the depdb. If it was read in full, unmodified, with a
// valid end marker, it's left untouched on disk (other than an optional
// mtime touch); otherwise the unread tail is discarded and a fresh file
// (version line + recorded lines + NUL) is written atomically.
func (d *DepDB) Close() error {
	if d.mode == depdbRead && !d.corrupt && d.served == len(d.lines) {
		if d.Touch {
			return d.touchMtime()
		}
		return nil
	}

	lines := d.out
	if d.mode == depdbRead {
		// Never explicitly written, but the caller stopped reading
		// before the end: the unread tail is discarded.
		lines = append([]string{}, d.lines[:d.served]...)
	}
	return d.flush(lines)
}

func (d *DepDB) flush(lines []string) error {
	var buf bytes.Buffer
	buf.WriteString(d.version)
	buf.WriteByte('\n')
	for _, l := range lines {
		buf.WriteString(l)
		buf.WriteByte('\n')
	}
	buf.WriteByte(depdbEndMarker)

	before := time.Now()
	if err := renameio.WriteFile(d.path, buf.Bytes(), 0644); err != nil {
		return err
	}
	if d.Touch {
		return d.guardMtime(before)
	}
	return nil
}

// touchMtime bumps an unmodified depdb's mtime forward to now, used by
// callers that want a fresh depdb to look recently-validated even though
// nothing in it changed.
func (d *DepDB) touchMtime() error {
	now := time.Now()
	return os.Chtimes(d.path, now, now)
}

// guardMtime protects against filesystems whose mtime resolution is
// coarse enough that a rewritten file's mtime can land at or before a
// timestamp recorded just before the write (§4.6 "post-close mtime
// check"). If the file's modification time, or its access time (as
// reported by djherbis/atime, which knows the per-platform stat field to
// read), is not after `before`, both are nudged forward explicitly.
func (d *DepDB) guardMtime(before time.Time) error {
	info, err := os.Stat(d.path)
	if err != nil {
		return err
	}
	at := atime.Get(info)
	if !info.ModTime().After(before) || !at.After(before) {
		now := before.Add(time.Second)
		return os.Chtimes(d.path, now, now)
	}
	return nil
}
