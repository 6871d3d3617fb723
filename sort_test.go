package extsort

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosort/extsort/record"
)

func writeRecords(t *testing.T, path string, values []int64) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	var buf bytes.Buffer
	w := record.NewWriter(&buf)
	require.NoError(t, w.WriteAll(values))
	require.NoError(t, w.Flush())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func readRecords(t *testing.T, path string) []int64 {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	r := record.NewReader(bytes.NewReader(data))
	var out []int64
	for {
		v, err := r.Next()
		if err != nil {
			break
		}
		out = append(out, v)
	}
	return out
}

func isSorted(values []int64) bool {
	for i := 1; i < len(values); i++ {
		if values[i-1] > values[i] {
			return false
		}
	}
	return true
}

func TestSortSmallMultiFileInput(t *testing.T) {
	root := t.TempDir()
	writeRecords(t, filepath.Join(root, "in", "a.bin"), []int64{5, 1, 9})
	writeRecords(t, filepath.Join(root, "in", "b.bin"), []int64{3, 3, -2})
	out := filepath.Join(root, "out.bin")

	cfg := Config{InputDir: filepath.Join(root, "in"), OutputPath: out}
	require.NoError(t, Sort(context.Background(), cfg))

	got := readRecords(t, out)
	assert.Equal(t, []int64{-2, 1, 3, 3, 5, 9}, got)
}

func TestSortEmptyInputDirectoryProducesEmptyOutput(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "in"), 0o755))
	out := filepath.Join(root, "out.bin")

	cfg := Config{InputDir: filepath.Join(root, "in"), OutputPath: out}
	require.NoError(t, Sort(context.Background(), cfg))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Zero(t, info.Size())
}

func TestSortAllEmptyFilesProducesEmptyOutput(t *testing.T) {
	root := t.TempDir()
	writeRecords(t, filepath.Join(root, "in", "a.bin"), nil)
	writeRecords(t, filepath.Join(root, "in", "b.bin"), nil)
	out := filepath.Join(root, "out.bin")

	cfg := Config{InputDir: filepath.Join(root, "in"), OutputPath: out}
	require.NoError(t, Sort(context.Background(), cfg))

	assert.Empty(t, readRecords(t, out))
}

func TestSortSingleFileInputPreservesValuesAndTies(t *testing.T) {
	root := t.TempDir()
	writeRecords(t, filepath.Join(root, "in", "a.bin"), []int64{4, 4, 1, 4})
	out := filepath.Join(root, "out.bin")

	cfg := Config{InputDir: filepath.Join(root, "in"), OutputPath: out}
	require.NoError(t, Sort(context.Background(), cfg))

	assert.Equal(t, []int64{1, 4, 4, 4}, readRecords(t, out))
}

func TestSortNestedDirectoriesAreWalked(t *testing.T) {
	root := t.TempDir()
	writeRecords(t, filepath.Join(root, "in", "a.bin"), []int64{10})
	writeRecords(t, filepath.Join(root, "in", "nested", "b.bin"), []int64{-5})
	writeRecords(t, filepath.Join(root, "in", "nested", "deeper", "c.bin"), []int64{0})
	out := filepath.Join(root, "out.bin")

	cfg := Config{InputDir: filepath.Join(root, "in"), OutputPath: out}
	require.NoError(t, Sort(context.Background(), cfg))

	assert.Equal(t, []int64{-5, 0, 10}, readRecords(t, out))
}

func TestSortForcesMultipleMergeRounds(t *testing.T) {
	root := t.TempDir()
	for i := 0; i < 12; i++ {
		writeRecords(t, filepath.Join(root, "in", "f"+string(rune('a'+i))+".bin"), []int64{int64(12 - i), int64(-i)})
	}
	out := filepath.Join(root, "out.bin")

	cfg := Config{
		InputDir:    filepath.Join(root, "in"),
		OutputPath:  out,
		MemoryBytes: 64, // 8 records worth, 4 per worker: each 2-record file is one run, 12 runs in all
		Workers:     2,
	}
	require.NoError(t, Sort(context.Background(), cfg, WithFanIn(2)))

	got := readRecords(t, out)
	assert.Len(t, got, 24)
	assert.True(t, isSorted(got))
}

func TestSortRejectsScratchDirOverlappingInput(t *testing.T) {
	root := t.TempDir()
	writeRecords(t, filepath.Join(root, "in", "a.bin"), []int64{1})
	out := filepath.Join(root, "out.bin")

	cfg := Config{InputDir: filepath.Join(root, "in"), OutputPath: out}
	err := Sort(context.Background(), cfg, WithScratchDir(filepath.Join(root, "in", "scratch")))
	assert.ErrorIs(t, err, ErrScratchOverlapsInput)
}

func TestSortRejectsMalformedInputFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "in"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "in", "bad.bin"), []byte{1, 2, 3}, 0o644))
	out := filepath.Join(root, "out.bin")

	cfg := Config{InputDir: filepath.Join(root, "in"), OutputPath: out}
	err := Sort(context.Background(), cfg)
	require.Error(t, err)

	var sortErr *SortError
	require.ErrorAs(t, err, &sortErr)
	assert.Equal(t, KindFormat, sortErr.Kind)

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSortIsIdempotentOnAlreadySortedInput(t *testing.T) {
	root := t.TempDir()
	writeRecords(t, filepath.Join(root, "in", "a.bin"), []int64{1, 2, 3, 4, 5})
	out := filepath.Join(root, "out.bin")

	cfg := Config{InputDir: filepath.Join(root, "in"), OutputPath: out}
	require.NoError(t, Sort(context.Background(), cfg))
	first := readRecords(t, out)

	cfg2 := Config{InputDir: filepath.Join(root, "out-dir-input"), OutputPath: out}
	writeRecords(t, filepath.Join(root, "out-dir-input", "a.bin"), first)
	require.NoError(t, Sort(context.Background(), cfg2))

	assert.Equal(t, first, readRecords(t, out))
}

func TestSortCollectsMetricsAndLogs(t *testing.T) {
	root := t.TempDir()
	writeRecords(t, filepath.Join(root, "in", "a.bin"), []int64{2, 1})
	out := filepath.Join(root, "out.bin")

	mc := &BasicMetricsCollector{}
	cfg := Config{InputDir: filepath.Join(root, "in"), OutputPath: out}
	require.NoError(t, Sort(context.Background(), cfg, WithMetricsCollector(mc), WithLogger(NoopLogger())))

	stats := mc.GetStats()
	assert.Equal(t, int64(1), stats.JobCount)
	assert.Equal(t, int64(0), stats.JobErrors)
	assert.GreaterOrEqual(t, stats.RunsProduced, int64(1))
}

func TestSortNoInputsLeavesScratchClean(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "in"), 0o755))
	out := filepath.Join(root, "out.bin")

	cfg := Config{InputDir: filepath.Join(root, "in"), OutputPath: out}
	require.NoError(t, Sort(context.Background(), cfg))

	entries, err := os.ReadDir(filepath.Join(root, ".extsort-scratch"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}
