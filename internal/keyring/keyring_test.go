package keyring

import (
	"testing"

	"github.com/zalando/go-keyring"
)

func TestKeyring_PutGetDelete(t *testing.T) {
	keyring.MockInit()
	k := New("")

	if err := k.Put("alpha", []byte(`{"kty":"oct"}`)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	data, found, err := k.Get("alpha")
	if err != nil || !found {
		t.Fatalf("Get failed: found=%v err=%v", found, err)
	}
	if string(data) != `{"kty":"oct"}` {
		t.Errorf("Get = %q", data)
	}

	if err := k.Delete("alpha"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found, _ := k.Get("alpha"); found {
		t.Error("Entry still present after delete")
	}
	if err := k.Delete("alpha"); err != nil {
		t.Errorf("Deleting unknown id should be a no-op, got %v", err)
	}
}

func TestKeyring_GetUnknown(t *testing.T) {
	keyring.MockInit()
	k := New("pdfseal-test")

	data, found, err := k.Get("missing")
	if err != nil {
		t.Fatalf("Get of unknown id should not fail: %v", err)
	}
	if found || data != nil {
		t.Error("Unknown id reported as found")
	}
}

func TestKeyring_List(t *testing.T) {
	keyring.MockInit()
	k := New("pdfseal-test")

	for _, id := range []string{"b", "a", "c"} {
		if err := k.Put(id, []byte(id)); err != nil {
			t.Fatalf("Put %s failed: %v", id, err)
		}
	}
	if err := k.Delete("c"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	ids, err := k.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("List = %v, want [a b]", ids)
	}
}

func TestKeyring_ReservedID(t *testing.T) {
	keyring.MockInit()
	k := New("")

	if err := k.Put(indexUser, []byte("x")); err != ErrReservedID {
		t.Errorf("Put of index id = %v, want ErrReservedID", err)
	}
}

func TestKeyring_PutUndoneWhenIndexFails(t *testing.T) {
	keyring.MockInit()
	k := New("pdfseal-test")

	if err := k.Put("alpha", []byte("v1")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := keyring.Set("pdfseal-test", indexUser, "{not json"); err != nil {
		t.Fatalf("Failed to corrupt index: %v", err)
	}

	if err := k.Put("beta", []byte("new")); err == nil {
		t.Fatal("Expected Put to fail with an unreadable index")
	}
	if _, found, _ := k.Get("beta"); found {
		t.Error("New entry left behind after index failure")
	}

	if err := k.Put("alpha", []byte("v2")); err == nil {
		t.Fatal("Expected overwrite to fail with an unreadable index")
	}
	data, found, err := k.Get("alpha")
	if err != nil || !found {
		t.Fatalf("Previous entry lost: found=%v err=%v", found, err)
	}
	if string(data) != "v1" {
		t.Errorf("Previous value not restored: got %q", data)
	}
}

func TestKeyring_DeleteUndoneWhenIndexFails(t *testing.T) {
	keyring.MockInit()
	k := New("pdfseal-test")

	if err := k.Put("alpha", []byte("v1")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := keyring.Set("pdfseal-test", indexUser, "{not json"); err != nil {
		t.Fatalf("Failed to corrupt index: %v", err)
	}

	if err := k.Delete("alpha"); err == nil {
		t.Fatal("Expected Delete to fail with an unreadable index")
	}
	data, found, err := k.Get("alpha")
	if err != nil || !found || string(data) != "v1" {
		t.Errorf("Entry not restored: found=%v data=%q err=%v", found, data, err)
	}
}
