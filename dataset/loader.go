package dataset

import (
	"encoding/csv"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/liftlab/harlift/pkg/errors"
	"github.com/liftlab/harlift/pkg/log"
)

// Missing-value tokens recognized in the raw CSV files. All of them are
// normalized to "" during parsing.
var missingTokens = map[string]bool{
	"":        true,
	"NA":      true,
	"#DIV/0!": true,
}

// ReadCSV parses a comma-separated table with a header row. The name is
// used in error messages only.
func ReadCSV(r io.Reader, name string) (*Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err != nil {
		return nil, errors.NewDataError(name, "missing header row", err)
	}
	columns := make([]string, len(header))
	copy(columns, header)

	var cells [][]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.NewDataError(name, "malformed csv record", err)
		}
		row := make([]string, len(record))
		for j, cell := range record {
			if missingTokens[cell] {
				row[j] = ""
			} else {
				row[j] = cell
			}
		}
		cells = append(cells, row)
	}
	if len(cells) == 0 {
		return nil, errors.NewDataError(name, "table has no data rows", nil)
	}
	return &Table{Name: name, Columns: columns, Cells: cells}, nil
}

// LoadTable reads and parses a CSV file from disk.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewDataError(path, "cannot open table file", err)
	}
	defer func() { _ = f.Close() }()
	return ReadCSV(f, filepath.Base(path))
}

// EnsureLocal downloads url into path unless the file already exists.
// Download failures are data-availability errors and abort the run.
func EnsureLocal(url, path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	logger := log.GetLoggerWithName("dataset.loader")
	logger.Info("downloading table", "url", url, "path", path)

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Get(url)
	if err != nil {
		return errors.NewDataError(url, "download failed", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return errors.NewDataError(url, "unexpected status "+resp.Status, nil)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.NewDataError(path, "cannot create data directory", err)
		}
	}
	tmp := path + ".partial"
	f, err := os.Create(tmp)
	if err != nil {
		return errors.NewDataError(path, "cannot create table file", err)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return errors.NewDataError(url, "download interrupted", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return errors.NewDataError(path, "cannot finalize table file", err)
	}
	return os.Rename(tmp, path)
}
