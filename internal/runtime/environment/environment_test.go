package environment

import (
	"errors"
	"os"
	"testing"
	"time"
)

func TestResolveHostnameReplacesPlaceholder(t *testing.T) {
	env := Static{FQDNValue: PlaceholderFQDN, HostnameValue: "sensor01"}
	got, err := ResolveHostname(env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "sensor01" {
		t.Fatalf("expected unqualified host name, got %q", got)
	}
}

func TestResolveHostnameKeepsFQDN(t *testing.T) {
	env := Static{FQDNValue: "sensor01.corp.example.com", HostnameValue: "sensor01"}
	got, err := ResolveHostname(env)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "sensor01.corp.example.com" {
		t.Fatalf("expected fqdn, got %q", got)
	}
}

func TestResolveHostnamePropagatesErrors(t *testing.T) {
	boom := errors.New("no hostname")
	if _, err := ResolveHostname(Static{Err: boom}); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
}

func TestStaticClock(t *testing.T) {
	fixed := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	env := Static{Clock: func() time.Time { return fixed }}
	if !env.Now().Equal(fixed) {
		t.Fatalf("expected fixed clock, got %v", env.Now())
	}
}

func TestSystemProcessFacts(t *testing.T) {
	sys := System{}
	if sys.PID() != os.Getpid() {
		t.Fatal("expected pid to match os.Getpid")
	}
	name, err := sys.ProcessName()
	if err != nil || name == "" {
		t.Fatalf("expected process name, got %q (%v)", name, err)
	}
	if loc := sys.Now().Location(); loc != time.UTC {
		t.Fatalf("expected UTC clock, got %v", loc)
	}
	host, err := sys.Hostname()
	if err != nil || host == "" {
		t.Fatalf("expected host name, got %q (%v)", host, err)
	}
	if _, err := sys.FQDN(); err != nil {
		t.Fatalf("unexpected fqdn error: %v", err)
	}
}
