package ledger

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hazyhaar/lessico/pkg/dict"
)

const backupStamp = "20060102T150405.000000000"

// replace writes t to a temporary sibling and renames it over the table file,
// so readers see either the old or the new table, never a partial one.
func (l *Ledger) replace(t *dict.Table) error {
	path := l.spec.Path
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return dict.IOErr("mkdir", dir, err)
	}

	mode := os.FileMode(0o644)
	if st, err := os.Stat(path); err == nil {
		mode = st.Mode().Perm()
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return dict.IOErr("create temp for", path, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if err := dict.WriteTable(tmp, t, l.format); err != nil {
		if dict.KindName(err) != "" {
			return err
		}
		return dict.IOErr("write", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		return dict.IOErr("sync", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return dict.IOErr("close", tmpName, err)
	}
	if err := os.Chmod(tmpName, mode); err != nil {
		return dict.IOErr("chmod", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return dict.IOErr("rename", tmpName, err)
	}
	committed = true
	return nil
}

// backup copies the current table file to a timestamped sibling and applies
// the retention policy. It returns the backup path, or "" when disabled.
func (l *Ledger) backup() (string, error) {
	if l.spec.Backup.Disabled {
		return "", nil
	}
	src := l.spec.Path
	dir := l.backupDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", dict.IOErr("mkdir", dir, err)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", dict.IOErr("open", src, err)
	}
	defer in.Close()

	base := filepath.Join(dir, filepath.Base(src)+"."+l.now().UTC().Format(backupStamp))
	var out *os.File
	var dst string
	for n := 0; ; n++ {
		dst = base + ".bak"
		if n > 0 {
			dst = fmt.Sprintf("%s_%d.bak", base, n)
		}
		out, err = os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) || n > 100 {
			return "", dict.IOErr("create backup", dst, err)
		}
	}

	_, copyErr := io.Copy(out, in)
	syncErr := out.Sync()
	closeErr := out.Close()
	if err := errors.Join(copyErr, syncErr, closeErr); err != nil {
		os.Remove(dst)
		return "", dict.IOErr("write backup", dst, err)
	}

	if err := l.prune(); err != nil {
		l.logger.Warn("backup retention failed", "dir", dir, "error", err)
	}
	return dst, nil
}

func (l *Ledger) backupDir() string {
	if l.spec.Backup.Dir != "" {
		return l.spec.Backup.Dir
	}
	return filepath.Dir(l.spec.Path)
}

// Backups lists this table's backups, oldest first.
func (l *Ledger) Backups() ([]string, error) {
	dir := l.backupDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, dict.IOErr("read dir", dir, err)
	}
	prefix := filepath.Base(l.spec.Path) + "."
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".bak") {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	slices.Sort(out)
	return out, nil
}

// prune keeps the Keep newest backups. Keep 0 keeps everything.
func (l *Ledger) prune() error {
	keep := l.spec.Backup.Keep
	if keep <= 0 {
		return nil
	}
	all, err := l.Backups()
	if err != nil {
		return err
	}
	var errs []error
	for _, p := range all[:max(len(all)-keep, 0)] {
		if err := os.Remove(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// appendRows appends encoded records to the table file, adding a line break
// first when the file does not end with one.
func (l *Ledger) appendRows(t *dict.Table, recs []dict.Record) error {
	if len(recs) == 0 {
		return nil
	}
	var buf []byte
	for _, r := range recs {
		line, err := dict.EncodeRow(t, r, l.format)
		if err != nil {
			return dict.IOErr("encode row for", l.spec.Path, err)
		}
		buf = append(buf, line...)
	}

	f, err := os.OpenFile(l.spec.Path, os.O_RDWR|os.O_APPEND, 0)
	if err != nil {
		return dict.IOErr("open", l.spec.Path, err)
	}
	needsBreak, err := endsWithoutNewline(f)
	if err != nil {
		f.Close()
		return dict.IOErr("read tail of", l.spec.Path, err)
	}
	if needsBreak {
		buf = append([]byte("\n"), buf...)
	}
	_, werr := f.Write(buf)
	serr := f.Sync()
	cerr := f.Close()
	if err := errors.Join(werr, serr, cerr); err != nil {
		return dict.IOErr("append", l.spec.Path, err)
	}
	return nil
}

func endsWithoutNewline(f *os.File) (bool, error) {
	st, err := f.Stat()
	if err != nil {
		return false, err
	}
	if st.Size() == 0 {
		return false, nil
	}
	var last [1]byte
	if _, err := f.ReadAt(last[:], st.Size()-1); err != nil {
		return false, err
	}
	return last[0] != '\n', nil
}
