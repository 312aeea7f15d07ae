// Package batchfile streams phone numbers out of CSV and XLSX batch files.
package batchfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Format is a supported batch file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the format from the file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", eris.Errorf("batchfile: unsupported file type %q", filepath.Ext(path))
	}
}

// phoneHeaders are the header names recognized when no column is given.
var phoneHeaders = []string{"phone", "phone_number", "phonenumber", "phone number", "number", "telephone", "tel"}

// Options configures Stream.
type Options struct {
	// Column is the header naming the phone column. Empty means detect.
	Column string
	// Sheet selects an XLSX worksheet by name. Empty means the first sheet.
	Sheet string
}

// Entry is one phone number and the 1-based row it came from.
type Entry struct {
	Row   int
	Phone string
}

// Stream reads path and sends every non-blank phone value on the entry
// channel. The first row is treated as a header when it names the phone
// column; otherwise the file is read as headerless with phones in the first
// column. Both channels are closed when processing completes.
func Stream(ctx context.Context, path string, opts Options) (<-chan Entry, <-chan error) {
	entryCh := make(chan Entry, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(entryCh)
		defer close(errCh)

		rows, rowErrs, closeFn, err := openRows(ctx, path, opts)
		if err != nil {
			errCh <- err
			return
		}
		defer closeFn()

		col := -1
		rowNum := 0
		for row := range rows {
			rowNum++
			if col < 0 {
				idx, isHeader, err := phoneColumn(row, opts.Column)
				if err != nil {
					errCh <- err
					drain(rows)
					return
				}
				col = idx
				if isHeader {
					continue
				}
			}

			if col >= len(row) {
				continue
			}
			phone := strings.TrimSpace(row[col])
			if phone == "" {
				continue
			}

			select {
			case entryCh <- Entry{Row: rowNum, Phone: phone}:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "batchfile: context cancelled")
				drain(rows)
				return
			}
		}

		if err := <-rowErrs; err != nil {
			errCh <- err
		}
	}()

	return entryCh, errCh
}

func openRows(ctx context.Context, path string, opts Options) (<-chan []string, <-chan error, func(), error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, nil, nil, err
	}

	if format == FormatXLSX {
		rows, errs := StreamXLSX(ctx, path, XLSXOptions{SheetName: opts.Sheet})
		return rows, errs, func() {}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, eris.Wrap(err, "batchfile: open file")
	}
	rows, errs := StreamCSV(ctx, f, CSVOptions{TrimSpace: true, LazyQuotes: true})
	return rows, errs, func() { _ = f.Close() }, nil
}

// phoneColumn finds the phone column in the first row. It reports whether
// that row is a header.
func phoneColumn(first []string, want string) (int, bool, error) {
	if want != "" {
		for i, h := range first {
			if strings.EqualFold(strings.TrimSpace(h), want) {
				return i, true, nil
			}
		}
		return 0, false, eris.Errorf("batchfile: column %q not found in header", want)
	}

	for _, name := range phoneHeaders {
		for i, h := range first {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i, true, nil
			}
		}
	}
	return 0, false, nil
}

func drain(rows <-chan []string) {
	for range rows {
	}
}
