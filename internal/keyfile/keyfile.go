// Package keyfile reads and writes the key CSV file that maps
// synthetic case IDs to accession numbers and study metadata. It is
// written after each successful load and read beforehand to determine
// the next case ID and to detect accessions already on disk.
package keyfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Entry is one row of the key file.
type Entry struct {
	CaseID      string
	Accession   string
	StudyDate   string
	Modality    string
	Description string
	SeriesCount int
	ImageCount  int
}

var fieldNames = []string{
	"case_id",
	"accession",
	"study_date",
	"modality",
	"description",
	"series_count",
	"image_count",
}

// Read loads an existing key.csv. A missing file is not an error; it
// yields an empty slice, matching a project's first load.
func Read(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open key file %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read key file %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	header := rows[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}

	get := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}
	getInt := func(row []string, name string) int {
		v := get(row, name)
		if v == "" {
			return 0
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0
		}
		return n
	}

	entries := make([]Entry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		entries = append(entries, Entry{
			CaseID:      get(row, "case_id"),
			Accession:   get(row, "accession"),
			StudyDate:   get(row, "study_date"),
			Modality:    get(row, "modality"),
			Description: get(row, "description"),
			SeriesCount: getInt(row, "series_count"),
			ImageCount:  getInt(row, "image_count"),
		})
	}
	return entries, nil
}

// Write rewrites key.csv in full with the given entries, creating
// parent directories as needed. It writes to a temporary file in the
// same directory and renames it into place, so a reader never observes
// a partially-written key file.
func Write(path string, entries []Entry) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create key file directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp key file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := csv.NewWriter(tmp)
	if err := w.Write(fieldNames); err != nil {
		tmp.Close()
		return fmt.Errorf("write key file header: %w", err)
	}
	for _, e := range entries {
		row := []string{
			e.CaseID,
			e.Accession,
			e.StudyDate,
			e.Modality,
			e.Description,
			strconv.Itoa(e.SeriesCount),
			strconv.Itoa(e.ImageCount),
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("write key file row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush key file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp key file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename key file into place: %w", err)
	}
	return nil
}

// NextCaseID returns the synthetic case ID to assign to the next
// study loaded, one past the highest numeric suffix among existing
// "caseNNNN" entries. The first ever case is "case0001".
func NextCaseID(entries []Entry) string {
	maxNum := 0
	for _, e := range entries {
		if !strings.HasPrefix(e.CaseID, "case") {
			continue
		}
		n, err := strconv.Atoi(e.CaseID[4:])
		if err != nil {
			continue
		}
		if n > maxNum {
			maxNum = n
		}
	}
	return fmt.Sprintf("case%04d", maxNum+1)
}
