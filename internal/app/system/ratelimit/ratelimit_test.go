package ratelimit_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/studyhub/internal/app/system/ratelimit"
)

func TestLimiter_BurstThenBlock(t *testing.T) {
	l := ratelimit.New(1, 3)

	for i := 0; i < 3; i++ {
		if !l.Allow("k") {
			t.Fatalf("attempt %d: expected allowed", i+1)
		}
	}
	if l.Allow("k") {
		t.Error("expected fourth attempt to be blocked")
	}
	if !l.Allow("other") {
		t.Error("expected a different key to be allowed")
	}
}

func TestLimiter_Reset(t *testing.T) {
	l := ratelimit.New(1, 1)
	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("expected block before reset")
	}
	l.Reset("k")
	if !l.Allow("k") {
		t.Error("expected allow after reset")
	}
}

func TestLimiter_Sweep(t *testing.T) {
	l := ratelimit.New(60, 5)
	l.Allow("a")
	l.Allow("b")

	if n := l.Sweep(time.Hour); n != 0 {
		t.Errorf("Sweep(1h): got %d, want 0", n)
	}
	time.Sleep(2 * time.Millisecond)
	if n := l.Sweep(time.Millisecond); n != 2 {
		t.Errorf("Sweep(1ms): got %d, want 2", n)
	}
	if n := l.Len(); n != 0 {
		t.Errorf("Len: got %d, want 0", n)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:5555"
	if ip := ratelimit.ClientIP(req); ip != "10.0.0.1" {
		t.Errorf("RemoteAddr: got %q, want %q", ip, "10.0.0.1")
	}

	req.Header.Set("X-Real-IP", "10.0.0.2")
	if ip := ratelimit.ClientIP(req); ip != "10.0.0.2" {
		t.Errorf("X-Real-IP: got %q, want %q", ip, "10.0.0.2")
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.3")
	if ip := ratelimit.ClientIP(req); ip != "203.0.113.9" {
		t.Errorf("X-Forwarded-For: got %q, want %q", ip, "203.0.113.9")
	}
}

func TestLoginLimiter_PerAccount(t *testing.T) {
	ll := ratelimit.NewLoginLimiter(1, 4) // account burst is 2

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest("POST", "/login", nil)
		req.RemoteAddr = "192.0.2.1:1"
		if ok, _ := ll.Check(req, "Ada@Example.com"); !ok {
			t.Fatalf("attempt %d: expected allowed", i+1)
		}
	}

	req := httptest.NewRequest("POST", "/login", nil)
	req.RemoteAddr = "192.0.2.2:1"
	ok, reason := ll.Check(req, "ada@example.com ")
	if ok {
		t.Fatal("expected account limit to apply across IPs")
	}
	if reason == "" {
		t.Error("expected a reason")
	}

	ll.ResetEmail("ADA@example.com")
	if ok, _ := ll.Check(req, "ada@example.com"); !ok {
		t.Error("expected allow after ResetEmail")
	}
}
