package hashstore

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/dflemstr/sparkey-go/logstore"
	"github.com/dflemstr/sparkey-go/sparkeyerr"
)

func isFileIdentifierMismatch(err error) bool {
	return sparkeyerr.Is(err, sparkeyerr.FileIdentifierMismatch)
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", path, err)
	}
	return b
}

func buildLog(t *testing.T, dir string, compression logstore.CompressionType, puts map[string]string, deletes []string) *logstore.Reader {
	t.Helper()
	logPath := filepath.Join(dir, "test.spl")
	blockSize := uint32(0)
	if compression == logstore.CompressionSnappy {
		blockSize = 64
	}
	w, err := logstore.Create(logPath, compression, blockSize)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for k, v := range puts {
		if err := w.Put([]byte(k), []byte(v)); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	for _, k := range deletes {
		if err := w.Delete([]byte(k)); err != nil {
			t.Fatalf("Delete: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	r, err := logstore.Open(logPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func buildIndex(t *testing.T, dir string, log *logstore.Reader, seed uint32) *Reader {
	t.Helper()
	hashPath := filepath.Join(dir, "test.spi")
	if err := Build(log, hashPath, BuildOptions{Algorithm: Murmur3_64, Seed: seed}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	r, err := Open(hashPath, log)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { r.Close() })
	return r
}

func TestGetCorrectness(t *testing.T) {
	dir := t.TempDir()
	puts := map[string]string{"alpha": "1", "beta": "2", "gamma": "3"}
	log := buildLog(t, dir, logstore.CompressionNone, puts, []string{"gamma"})
	idx := buildIndex(t, dir, log, 42)

	for k, v := range map[string]string{"alpha": "1", "beta": "2"} {
		got, found, err := idx.Get([]byte(k))
		if err != nil {
			t.Fatalf("Get(%q): %v", k, err)
		}
		if !found || string(got) != v {
			t.Errorf("Get(%q) = %q, %v; want %q, true", k, got, found, v)
		}
	}

	if _, found, err := idx.Get([]byte("gamma")); err != nil || found {
		t.Errorf("Get(deleted key) = found=%v err=%v; want not found", found, err)
	}
	if _, found, err := idx.Get([]byte("never-existed")); err != nil || found {
		t.Errorf("Get(missing key) = found=%v err=%v; want not found", found, err)
	}
	if idx.NumEntries() != 2 {
		t.Errorf("NumEntries() = %d, want 2", idx.NumEntries())
	}
}

func TestGetCorrectnessSnappy(t *testing.T) {
	dir := t.TempDir()
	puts := map[string]string{}
	for i := 0; i < 40; i++ {
		puts[fmt.Sprintf("key-%02d", i)] = fmt.Sprintf("value-%02d", i)
	}
	log := buildLog(t, dir, logstore.CompressionSnappy, puts, nil)
	idx := buildIndex(t, dir, log, 7)

	for k, v := range puts {
		got, found, err := idx.Get([]byte(k))
		if err != nil || !found || string(got) != v {
			t.Fatalf("Get(%q) = %q, %v, %v; want %q, true, nil", k, got, found, err, v)
		}
	}
}

func TestLastWriteWins(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "test.spl")
	w, err := logstore.Create(logPath, logstore.CompressionNone, 0)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := w.Put([]byte("k"), []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := w.Put([]byte("k"), []byte("second")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	log, err := logstore.Open(logPath)
	if err != nil {
		t.Fatal(err)
	}
	defer log.Close()
	idx := buildIndex(t, dir, log, 1)

	got, found, err := idx.Get([]byte("k"))
	if err != nil || !found || string(got) != "second" {
		t.Fatalf("Get(k) = %q, %v, %v; want \"second\", true, nil", got, found, err)
	}
}

func TestFileIdentifierMismatch(t *testing.T) {
	dir1 := t.TempDir()
	log1 := buildLog(t, dir1, logstore.CompressionNone, map[string]string{"k": "v"}, nil)

	dir2 := t.TempDir()
	log2 := buildLog(t, dir2, logstore.CompressionNone, map[string]string{"k": "v"}, nil)
	hashPath := filepath.Join(dir2, "test.spi")
	if err := Build(log2, hashPath, BuildOptions{Algorithm: Murmur3_64, Seed: 1}); err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, err := Open(hashPath, log1); err == nil {
		t.Fatal("Open with mismatched log did not fail")
	} else if !isFileIdentifierMismatch(err) {
		t.Fatalf("Open error = %v, want FileIdentifierMismatch", err)
	}
}

func TestBuildIdempotent(t *testing.T) {
	dir := t.TempDir()
	puts := map[string]string{"a": "1", "b": "2", "c": "3", "d": "4", "e": "5"}
	log := buildLog(t, dir, logstore.CompressionNone, puts, []string{"c"})

	pathA := filepath.Join(dir, "a.spi")
	pathB := filepath.Join(dir, "b.spi")
	opts := BuildOptions{Algorithm: Murmur3_64, Seed: 99}
	if err := Build(log, pathA, opts); err != nil {
		t.Fatalf("Build a: %v", err)
	}
	if err := Build(log, pathB, opts); err != nil {
		t.Fatalf("Build b: %v", err)
	}

	bytesA := readFile(t, pathA)
	bytesB := readFile(t, pathB)
	if string(bytesA) != string(bytesB) {
		t.Fatal("two builds with the same seed produced different .spi contents")
	}
}

func TestRobinHoodDisplacementBound(t *testing.T) {
	dir := t.TempDir()
	puts := map[string]string{}
	for i := 0; i < 200; i++ {
		puts[fmt.Sprintf("k%d", i)] = "v"
	}
	log := buildLog(t, dir, logstore.CompressionNone, puts, nil)
	idx := buildIndex(t, dir, log, 3)

	if idx.MaxDisplacement() == 0 && idx.NumEntries() > 1 {
		t.Log("max displacement is zero; acceptable but unusual for this table size")
	}
	// A probe sequence for a missing key must never run further than
	// max_displacement+1 slots; Get enforces this internally and returns
	// HashHeaderCorrupt rather than looping forever if it would.
	if _, found, err := idx.Get([]byte("definitely-absent-key")); err != nil || found {
		t.Fatalf("Get(absent) = found=%v err=%v", found, err)
	}
}
