package batchfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "phones.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// streamAll runs Stream over path and collects every entry and the first error.
func streamAll(t *testing.T, path string, opts Options) ([]Entry, error) {
	t.Helper()
	entryCh, errCh := Stream(context.Background(), path, opts)
	return collectEntries(t, entryCh, errCh)
}

func collectEntries(t *testing.T, entryCh <-chan Entry, errCh <-chan error) ([]Entry, error) {
	t.Helper()
	var entries []Entry
	for e := range entryCh {
		entries = append(entries, e)
	}
	for err := range errCh {
		if err != nil {
			return entries, err
		}
	}
	return entries, nil
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"leads.csv", FormatCSV, false},
		{"LEADS.CSV", FormatCSV, false},
		{"leads.txt", FormatCSV, false},
		{"leads.xlsx", FormatXLSX, false},
		{"leads.json", "", true},
		{"leads", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := DetectFormat(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "unsupported file type")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStream_CSVWithHeader(t *testing.T) {
	path := writeCSV(t, "name,Phone Number,city\nGlobex, (775) 555-0123 ,Reno\nInitech,,Austin\nHooli,+1 301 555 1234,\n")

	entries, err := streamAll(t, path, Options{})
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Row: 2, Phone: "(775) 555-0123"},
		{Row: 4, Phone: "+1 301 555 1234"},
	}, entries)
}

func TestStream_Headerless(t *testing.T) {
	path := writeCSV(t, "7755550123\n\n3015551234\n")

	entries, err := streamAll(t, path, Options{})
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{Row: 1, Phone: "7755550123"},
		{Row: 2, Phone: "3015551234"},
	}, entries)
}

func TestStream_ExplicitColumn(t *testing.T) {
	path := writeCSV(t, "phone,mobile\n1111111111,7755550123\n2222222222\n")

	entries, err := streamAll(t, path, Options{Column: "MOBILE"})
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Row: 2, Phone: "7755550123"}}, entries)
}

func TestStream_MissingColumn(t *testing.T) {
	path := writeCSV(t, "phone\n7755550123\n")

	_, err := streamAll(t, path, Options{Column: "mobile"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `column "mobile" not found`)
}

func TestStream_XLSX(t *testing.T) {
	path := createTestXLSX(t, map[string][][]string{
		"Leads": {
			{"Company", "Tel"},
			{"Globex", "7755550123"},
			{"Initech", " "},
		},
	})

	entries, err := streamAll(t, path, Options{Sheet: "Leads"})
	require.NoError(t, err)
	assert.Equal(t, []Entry{{Row: 2, Phone: "7755550123"}}, entries)
}

func TestStream_Errors(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{"unsupported type", "phones.json", "unsupported file type"},
		{"missing csv", filepath.Join(t.TempDir(), "missing.csv"), "batchfile: open file"},
		{"missing xlsx", filepath.Join(t.TempDir(), "missing.xlsx"), "xlsx: open file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := streamAll(t, tt.path, Options{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Empty(t, entries)
		})
	}
}
