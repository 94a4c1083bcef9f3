package store

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// nopStore satisfies Store by embedding the interface; only Close is called.
type nopStore struct {
	Store
	closed bool
}

func (n *nopStore) Close() error {
	n.closed = true
	return nil
}

func TestRegistryOpen(t *testing.T) {
	r := NewRegistry()
	var gotOpts Options
	r.RegisterDriver("fake", func(_ context.Context, opts Options) (Store, error) {
		gotOpts = opts
		return &nopStore{}, nil
	})

	s, err := r.Open(context.Background(), Options{Driver: "fake", DSN: "x"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s == nil {
		t.Fatal("expected store")
	}
	if gotOpts.DSN != "x" {
		t.Errorf("DSN = %q, want x", gotOpts.DSN)
	}
}

func TestRegistryUnsupportedDriver(t *testing.T) {
	r := NewRegistry()
	r.RegisterDriver("memory", func(context.Context, Options) (Store, error) { return &nopStore{}, nil })

	_, err := r.Open(context.Background(), Options{Driver: "oracle"})
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if !strings.Contains(err.Error(), "memory") {
		t.Errorf("error should list available drivers: %v", err)
	}
}

func TestRegistryFactoryError(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")
	r.RegisterDriver("bad", func(context.Context, Options) (Store, error) { return nil, boom })

	_, err := r.Open(context.Background(), Options{Driver: "bad"})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want wrapping boom", err)
	}
}

func TestRegistryDriversSorted(t *testing.T) {
	r := NewRegistry()
	for _, d := range []string{"sqlite", "memory", "postgres"} {
		r.RegisterDriver(d, nil)
	}
	got := strings.Join(r.Drivers(), ",")
	if got != "memory,postgres,sqlite" {
		t.Errorf("Drivers() = %s", got)
	}
}
