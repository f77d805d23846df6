package sparkey

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/sync/errgroup"

	"github.com/dflemstr/sparkey-go/hashstore"
	"github.com/dflemstr/sparkey-go/logstore"
)

func writeAndIndex(t *testing.T, path string, entries []struct {
	key, value string
	delete     bool
}) {
	t.Helper()
	w, err := Create(path, WriterOptions{
		Compression: logstore.CompressionNone,
		AutoIndex:   true,
		Algorithm:   hashstore.Murmur3_64,
		Seed:        123,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for _, e := range entries {
		if e.delete {
			if err := w.Delete([]byte(e.key)); err != nil {
				t.Fatalf("Delete: %v", err)
			}
			continue
		}
		if err := w.Put([]byte(e.key), []byte(e.value)); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestWriterReaderRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.spl")
	writeAndIndex(t, path, []struct {
		key, value string
		delete     bool
	}{
		{key: "a", value: "1"},
		{key: "b", value: "2"},
		{key: "a", value: "3"},
		{key: "c", value: "4", delete: true},
	})

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	got, found, err := r.Get([]byte("a"))
	if err != nil || !found || string(got) != "3" {
		t.Fatalf("Get(a) = %q, %v, %v; want \"3\", true, nil", got, found, err)
	}
	if _, found, err := r.Get([]byte("c")); err != nil || found {
		t.Fatalf("Get(c) = found=%v err=%v; want not found", found, err)
	}
	if r.NumEntries() != 2 {
		t.Fatalf("NumEntries() = %d, want 2", r.NumEntries())
	}
}

func TestEntriesKeysValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.spl")
	writeAndIndex(t, path, []struct {
		key, value string
		delete     bool
	}{
		{key: "alpha", value: "1"},
		{key: "beta", value: "2"},
		{key: "alpha", value: "5"},
		{key: "gamma", value: "3"},
		{key: "gamma", value: "", delete: true},
	})

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	type kv struct{ key, value string }
	var got []kv
	if err := r.Entries(func(key, value []byte) error {
		got = append(got, kv{string(key), string(value)})
		return nil
	}); err != nil {
		t.Fatalf("Entries: %v", err)
	}
	want := []kv{{"alpha", "5"}, {"beta", "2"}}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(kv{})); diff != "" {
		t.Fatalf("Entries() mismatch (-want +got):\n%s", diff)
	}

	var keys []string
	if err := r.Keys(func(key []byte) error { keys = append(keys, string(key)); return nil }); err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if diff := cmp.Diff([]string{"alpha", "beta"}, keys); diff != "" {
		t.Fatalf("Keys() mismatch (-want +got):\n%s", diff)
	}

	var values []string
	if err := r.Values(func(value []byte) error { values = append(values, string(value)); return nil }); err != nil {
		t.Fatalf("Values: %v", err)
	}
	if diff := cmp.Diff([]string{"5", "2"}, values); diff != "" {
		t.Fatalf("Values() mismatch (-want +got):\n%s", diff)
	}
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "store.spl")
	outPath := filepath.Join(dir, "pruned.spl")

	writeAndIndex(t, logPath, []struct {
		key, value string
		delete     bool
	}{
		{key: "k1", value: "v1"},
		{key: "k2", value: "v2"},
		{key: "k1", value: "v1b"},
		{key: "k3", value: "v3"},
		{key: "k3", value: "", delete: true},
	})

	if err := Prune(logPath, outPath, WriterOptions{
		Compression: logstore.CompressionNone,
		AutoIndex:   true,
		Algorithm:   hashstore.Murmur3_64,
		Seed:        7,
	}); err != nil {
		t.Fatalf("Prune: %v", err)
	}

	pruned, err := Open(outPath)
	if err != nil {
		t.Fatalf("Open(pruned): %v", err)
	}
	defer pruned.Close()

	if pruned.NumEntries() != 2 {
		t.Fatalf("NumEntries() = %d, want 2", pruned.NumEntries())
	}

	var keys []string
	if err := pruned.Keys(func(key []byte) error { keys = append(keys, string(key)); return nil }); err != nil {
		t.Fatalf("Keys: %v", err)
	}
	sort.Strings(keys)
	if diff := cmp.Diff([]string{"k1", "k2"}, keys); diff != "" {
		t.Fatalf("pruned keys mismatch (-want +got):\n%s", diff)
	}

	got, found, err := pruned.Get([]byte("k1"))
	if err != nil || !found || string(got) != "v1b" {
		t.Fatalf("Get(k1) = %q, %v, %v; want \"v1b\", true, nil", got, found, err)
	}
	if _, found, _ := pruned.Get([]byte("k3")); found {
		t.Fatal("pruned log still contains a tombstoned key")
	}
}

func TestConcurrentReaders(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "store.spl")

	var entries []struct {
		key, value string
		delete     bool
	}
	for i := 0; i < 500; i++ {
		entries = append(entries, struct {
			key, value string
			delete     bool
		}{key: fmt.Sprintf("key-%d", i), value: fmt.Sprintf("value-%d", i)})
	}
	writeAndIndex(t, path, entries)

	const numReaders = 8
	var eg errgroup.Group
	for g := 0; g < numReaders; g++ {
		g := g
		eg.Go(func() error {
			r, err := Open(path)
			if err != nil {
				return fmt.Errorf("reader %d: Open: %w", g, err)
			}
			defer r.Close()

			rnd := rand.New(rand.NewSource(int64(g)))
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("key-%d", rnd.Intn(len(entries)))
				value, found, err := r.Get([]byte(key))
				if err != nil {
					return fmt.Errorf("reader %d: Get(%s): %w", g, key, err)
				}
				if !found {
					return fmt.Errorf("reader %d: Get(%s) not found", g, key)
				}
				want := "value-" + key[len("key-"):]
				if string(value) != want {
					return fmt.Errorf("reader %d: Get(%s) = %q, want %q", g, key, value, want)
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		t.Fatal(err)
	}
}
