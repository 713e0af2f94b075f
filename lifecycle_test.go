package offlinecache

import (
	"context"
	"sort"
	"testing"
)

func TestInstallPrecachesAllAssets(t *testing.T) {
	e, st, f := newTestEngine(t)
	f.Respond("/", 200, nil, []byte("root"))
	f.Respond("/offline.html", 200, nil, []byte("offline"))
	f.Respond("/styles/main.css", 200, nil, []byte("css"))

	if err := e.Install(context.Background()); err != nil {
		t.Fatal(err)
	}
	count, err := st.Count("main-v2")
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Fatalf("precached %d assets", count)
	}
}

func TestInstallIsAllOrNothing(t *testing.T) {
	e, _, f := newTestEngine(t)
	f.Respond("/", 200, nil, []byte("root"))
	f.Respond("/offline.html", 200, nil, []byte("offline"))
	// /styles/main.css is not registered and 404s

	if err := e.Install(context.Background()); err == nil {
		t.Fatal("expected installation to fail")
	}
}

func TestActivateSweepsStaleNamespaces(t *testing.T) {
	e, st, _ := newTestEngine(t)
	for _, ns := range []string{"main-v1", "api-v1", "sync-v1", "main-v2", "api-v2"} {
		if err := st.Put(ns, "/x", []byte("x")); err != nil {
			t.Fatal(err)
		}
	}

	if err := e.Activate(); err != nil {
		t.Fatal(err)
	}

	names, err := st.Namespaces()
	if err != nil {
		t.Fatal(err)
	}
	sort.Strings(names)
	if len(names) != 2 || names[0] != "api-v2" || names[1] != "main-v2" {
		t.Fatalf("namespaces after activation: %v", names)
	}
}

func TestActivateWithEmptyStoreIsNoop(t *testing.T) {
	e, _, _ := newTestEngine(t)
	if err := e.Activate(); err != nil {
		t.Fatal(err)
	}
}
