package resolver

import (
	"errors"
	"testing"
)

func TestRegistryByServiceID(t *testing.T) {
	a := &fakeAdapter{service: "tube"}
	b := &fakeAdapter{service: "vid"}
	r := NewRegistry(a, b)

	got, err := r.ByServiceID("vid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != Adapter(b) {
		t.Error("wrong adapter returned")
	}

	if _, err := r.ByServiceID("nope"); !errors.Is(err, ErrUnresolvable) {
		t.Errorf("missing service should be ErrUnresolvable, got %v", err)
	}
}

func TestRegistryByURLPriorityOrder(t *testing.T) {
	// Both adapters claim URLs containing "tube"; the registry must pick
	// the first configured one.
	first := &fakeAdapter{service: "tube"}
	shadow := &fakeAdapter{service: "tube-clips"}
	r := NewRegistry(first, shadow)

	got, err := r.ByURL("https://tube.example.com/watch?v=abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ServiceID() != "tube" {
		t.Errorf("expected first configured adapter, got %q", got.ServiceID())
	}

	if _, err := r.ByURL("https://unrelated.example.com/"); !errors.Is(err, ErrUnresolvable) {
		t.Errorf("unmatched URL should be ErrUnresolvable, got %v", err)
	}
}

func TestRegistryServiceIDs(t *testing.T) {
	r := NewRegistry(&fakeAdapter{service: "tube"}, &fakeAdapter{service: "vid"})
	ids := r.ServiceIDs()
	if len(ids) != 2 || ids[0] != "tube" || ids[1] != "vid" {
		t.Errorf("ServiceIDs() = %v", ids)
	}
}
