// Package environment exposes the host and process facts used to default
// message fields. Message construction takes an Environment explicitly so
// defaults are deterministic in tests and never depend on mutating process
// state such as TZ.
package environment

import (
	"context"
	"net"
	"os"
	"strings"
	"time"
)

// PlaceholderFQDN is reported by misconfigured hosts instead of a real name.
const PlaceholderFQDN = "localhost.localdomain"

// Environment answers questions about the host and the running process.
type Environment interface {
	// FQDN returns the fully qualified host name.
	FQDN() (string, error)
	// Hostname returns the unqualified host name.
	Hostname() (string, error)
	// PID returns the current process id.
	PID() int
	// ProcessName returns the invoking program name.
	ProcessName() (string, error)
	// Now returns the current instant.
	Now() time.Time
}

// System reads from the operating system. Resolver is used for reverse
// lookups when computing the FQDN and defaults to net.DefaultResolver.
type System struct {
	Resolver *net.Resolver
}

// Default is the Environment used when none is supplied.
var Default Environment = System{}

func (s System) Hostname() (string, error) {
	return os.Hostname()
}

// FQDN mirrors the classic getfqdn lookup: resolve the host name, reverse
// resolve each address and pick the first dotted name. It falls back to the
// plain host name when no qualified name is found.
func (s System) FQDN() (string, error) {
	host, err := os.Hostname()
	if err != nil {
		return "", err
	}
	if strings.Contains(host, ".") {
		return host, nil
	}

	resolver := s.Resolver
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if cname, err := resolver.LookupCNAME(ctx, host); err == nil {
		if name := strings.TrimSuffix(cname, "."); strings.Contains(name, ".") {
			return name, nil
		}
	}

	addrs, err := resolver.LookupHost(ctx, host)
	if err != nil {
		return host, nil
	}
	for _, addr := range addrs {
		names, err := resolver.LookupAddr(ctx, addr)
		if err != nil {
			continue
		}
		for _, name := range names {
			if name = strings.TrimSuffix(name, "."); strings.Contains(name, ".") {
				return name, nil
			}
		}
	}
	return host, nil
}

func (s System) PID() int {
	return os.Getpid()
}

func (s System) ProcessName() (string, error) {
	if len(os.Args) == 0 || os.Args[0] == "" {
		return os.Executable()
	}
	return os.Args[0], nil
}

func (s System) Now() time.Time {
	return time.Now().UTC()
}

// Static is a fixed Environment, mostly useful in tests.
type Static struct {
	FQDNValue        string
	HostnameValue    string
	PIDValue         int
	ProcessNameValue string
	Clock            func() time.Time
	Err              error
}

func (s Static) FQDN() (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return s.FQDNValue, nil
}

func (s Static) Hostname() (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return s.HostnameValue, nil
}

func (s Static) PID() int {
	return s.PIDValue
}

func (s Static) ProcessName() (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return s.ProcessNameValue, nil
}

func (s Static) Now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now().UTC()
}

// ResolveHostname returns the FQDN, substituting the unqualified host name
// when the FQDN is the localhost.localdomain placeholder.
func ResolveHostname(env Environment) (string, error) {
	fqdn, err := env.FQDN()
	if err != nil {
		return "", err
	}
	if fqdn == PlaceholderFQDN {
		return env.Hostname()
	}
	return fqdn, nil
}
