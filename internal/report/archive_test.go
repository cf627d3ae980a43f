package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ScanID  string `json:"scanId"`
	Root    string `json:"root"`
	Summary struct {
		Failed int `json:"failed"`
	} `json:"summary"`
}

func TestCompressionFor(t *testing.T) {
	assert.Equal(t, CompressionZstd, CompressionFor("out/report.json.zst"))
	assert.Equal(t, CompressionZstd, CompressionFor("report.ZSTD"))
	assert.Equal(t, CompressionGzip, CompressionFor("report.json.gz"))
	assert.Equal(t, CompressionNone, CompressionFor("report.json"))
}

func TestWriteFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	v := sample{ScanID: "abc", Root: "/repo"}
	v.Summary.Failed = 2

	plain, err := Encode(v)
	require.NoError(t, err)

	for _, name := range []string{"report.json", "nested/report.json.zst", "report.json.gz"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, WriteFile(path, v))

			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			if CompressionFor(name) != CompressionNone {
				assert.NotEqual(t, plain, raw, "archive should be compressed")
			}

			got, err := ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, plain, got)
		})
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".report-", "temporary files are cleaned up")
	}
}

func TestReadFileCorruptArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json.gz")
	require.NoError(t, os.WriteFile(path, []byte("not gzip"), 0644))

	_, err := ReadFile(path)
	assert.Error(t, err)
}

func TestCompareIgnoresVolatileFields(t *testing.T) {
	a := []byte(`{"scanId":"1","startedAt":"2024-01-01T00:00:00Z","summary":{"failed":1}}`)
	b := []byte(`{"summary":{"failed":1},"scanId":"2","startedAt":"2025-01-01T00:00:00Z"}`)
	c := []byte(`{"scanId":"3","summary":{"failed":0}}`)

	equal, msg := Compare(a, b)
	assert.True(t, equal, msg)

	equal, msg = Compare(a, c)
	assert.False(t, equal)
	assert.Equal(t, "reports differ", msg)

	equal, msg = Compare(a, []byte("{"))
	assert.False(t, equal)
	assert.Contains(t, msg, "second report")
}
