package easyterm

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestInitialiseRequiresInput(t *testing.T) {
	var pt Terminal
	if err := pt.Initialise(nil); err == nil {
		t.Fatal("Initialise(nil) succeeded")
	}
}

func TestInitialiseRejectsRegularFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "keys"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	var pt Terminal
	if err := pt.Initialise(f); err == nil {
		t.Fatal("Initialise on a regular file succeeded")
	}
	// never switched, so there is nothing to restore
	if err := pt.CanonicalMode(); err != nil {
		t.Fatalf("CanonicalMode() = %v", err)
	}
}

func TestKeysClosesAtEndOfInput(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pt := Terminal{input: r}
	keys := pt.Keys(ctx)

	if _, err := w.Write([]byte("aq")); err != nil {
		t.Fatal(err)
	}
	w.Close()

	var got []byte
	for b := range keys {
		got = append(got, b)
	}
	if string(got) != "aq" {
		t.Fatalf("keys = %q, want %q", got, "aq")
	}
}
