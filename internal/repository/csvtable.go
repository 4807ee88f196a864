package repository

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
)

// readTable loads every record of a CSV table.  A missing file is treated
// as an empty table so first writes do not need a separate create path.
func readTable(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // historical tables are not strictly rectangular
	return r.ReadAll()
}

// writeTable rewrites a CSV table in full.  The rows are written to a
// temporary file in the same directory and renamed over the target, so a
// reader never observes a partially written table.  Concurrent writers from
// other processes are still unsupported; in-process callers serialize
// through their repository mutex.
func writeTable(path string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// CSV cells store booleans as yes/no, matching the historical tables.
func yn(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func isYes(s string) bool { return s == "yes" }

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func cellInt(row []string, i int) int {
	n, _ := strconv.Atoi(cell(row, i))
	return n
}
