package manager

import (
	"testing"
	"time"

	"github.com/opendbg/netdbg-mcp/internal/session"
	"github.com/opendbg/netdbg-mcp/pkg/types"
)

func TestDeriveIDKnownSuffix(t *testing.T) {
	cases := map[string]string{
		"Orders.Api":       "api",
		"Billing.Worker":   "worker",
		"Frontend.Web":     "web",
		"Payments.Service": "service",
	}
	for in, want := range cases {
		got := DeriveID(in, map[string]bool{})
		if got != want {
			t.Errorf("DeriveID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDeriveIDKebabCasesUnknownName(t *testing.T) {
	got := DeriveID("OrdersBackend", map[string]bool{})
	if got != "orders-backend" {
		t.Fatalf("DeriveID(OrdersBackend) = %q, want orders-backend", got)
	}

	got = DeriveID("orders_backend", map[string]bool{})
	if got != "orders-backend" {
		t.Fatalf("DeriveID(orders_backend) = %q, want orders-backend", got)
	}
}

func TestDeriveIDCollisionSuffix(t *testing.T) {
	existing := map[string]bool{"api": true, "api-2": true}
	got := DeriveID("Orders.Api", existing)
	if got != "api-3" {
		t.Fatalf("DeriveID with collisions = %q, want api-3", got)
	}
}

func TestDeriveIDFromFullPath(t *testing.T) {
	got := DeriveID("/proj/Orders.Api/bin/Debug/net8.0/Orders.Api.dll", map[string]bool{})
	if got != "api" {
		t.Fatalf("DeriveID(path) = %q, want api", got)
	}
}

func newTestSession(t *testing.T, id string) *session.Session {
	t.Helper()
	return session.New(id, types.SessionConfig{Mode: types.ModeLaunch}, nil, nil, 0)
}

func TestManagerAddGetDefaultPromotion(t *testing.T) {
	m := New(10, time.Hour)

	if id := m.DefaultID(); id != "" {
		t.Fatalf("expected no default on empty manager, got %q", id)
	}

	a := newTestSession(t, "a")
	if err := m.Add(a); err != nil {
		t.Fatalf("Add(a): %v", err)
	}
	if m.DefaultID() != "a" {
		t.Fatalf("expected 'a' to become default, got %q", m.DefaultID())
	}

	b := newTestSession(t, "b")
	if err := m.Add(b); err != nil {
		t.Fatalf("Add(b): %v", err)
	}
	if m.DefaultID() != "a" {
		t.Fatalf("expected default to remain 'a' after adding 'b', got %q", m.DefaultID())
	}

	if _, err := m.Get(""); err != nil {
		t.Fatalf("Get(\"\") should resolve default: %v", err)
	}
	got, err := m.Get("b")
	if err != nil || got != b {
		t.Fatalf("Get(b) = %v, %v, want b session", got, err)
	}
}

func TestManagerAddDuplicateID(t *testing.T) {
	m := New(10, time.Hour)
	a := newTestSession(t, "dup")
	if err := m.Add(a); err != nil {
		t.Fatalf("Add: %v", err)
	}
	b := newTestSession(t, "dup")
	if err := m.Add(b); err == nil {
		t.Fatal("expected error adding duplicate session id")
	}
}

func TestManagerSessionLimit(t *testing.T) {
	m := New(1, time.Hour)
	if err := m.Add(newTestSession(t, "a")); err != nil {
		t.Fatalf("Add(a): %v", err)
	}
	if err := m.Add(newTestSession(t, "b")); err == nil {
		t.Fatal("expected session limit error")
	}
}

func TestManagerGetMissingReturnsAvailable(t *testing.T) {
	m := New(10, time.Hour)
	_ = m.Add(newTestSession(t, "a"))

	_, err := m.Get("missing")
	if err == nil {
		t.Fatal("expected error for missing session")
	}
}

func TestManagerSelectDefault(t *testing.T) {
	m := New(10, time.Hour)
	_ = m.Add(newTestSession(t, "a"))
	_ = m.Add(newTestSession(t, "b"))

	if err := m.SelectDefault("b"); err != nil {
		t.Fatalf("SelectDefault(b): %v", err)
	}
	if m.DefaultID() != "b" {
		t.Fatalf("expected default 'b', got %q", m.DefaultID())
	}

	if err := m.SelectDefault("nope"); err == nil {
		t.Fatal("expected error selecting unknown session")
	}
}

func TestManagerRemovePromotesAnotherDefault(t *testing.T) {
	m := New(10, time.Hour)
	_ = m.Add(newTestSession(t, "a"))
	_ = m.Add(newTestSession(t, "b"))

	if err := m.Remove("a", false); err != nil {
		t.Fatalf("Remove(a): %v", err)
	}
	if m.DefaultID() != "b" {
		t.Fatalf("expected 'b' promoted to default, got %q", m.DefaultID())
	}

	if err := m.Remove("b", false); err != nil {
		t.Fatalf("Remove(b): %v", err)
	}
	if m.DefaultID() != "" {
		t.Fatalf("expected empty default after removing last session, got %q", m.DefaultID())
	}
	if len(m.List()) != 0 {
		t.Fatalf("expected empty session list, got %d", len(m.List()))
	}
}

func TestManagerRemoveUnknown(t *testing.T) {
	m := New(10, time.Hour)
	if err := m.Remove("missing", false); err == nil {
		t.Fatal("expected error removing unknown session")
	}
}
