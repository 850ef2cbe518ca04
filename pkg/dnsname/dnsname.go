// Package dnsname normalizes and validates DNS names used as record names and
// CNAME targets.
//
// Every name written to or compared against a provider goes through Normalize,
// which guarantees a trailing root-label dot. Comparison after normalization is
// exact: no case folding and no other canonicalization is applied.
package dnsname

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/miekg/dns"
)

// MaxNameLength is the maximum presentation length of a fully qualified name.
const MaxNameLength = 254

// Validation errors.
var (
	// ErrEmpty indicates an empty name.
	ErrEmpty = errors.New("name is empty")

	// ErrTooLong indicates the name exceeds MaxNameLength.
	ErrTooLong = errors.New("name exceeds 254 characters")

	// ErrInvalid indicates the name is not a syntactically valid domain name.
	ErrInvalid = errors.New("not a valid domain name")

	// ErrIPAddress indicates an IP address was given where a hostname is required.
	ErrIPAddress = errors.New("IP address is not a valid CNAME target")

	// ErrWhitespace indicates the name contains embedded whitespace.
	ErrWhitespace = errors.New("name contains whitespace")
)

// ValidationError provides detail about a rejected name.
type ValidationError struct {
	Name string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid name %q: %v", e.Name, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Normalize trims surrounding whitespace and appends the root-label dot if
// missing. An empty input stays empty.
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return dns.Fqdn(name)
}

// Equal reports whether a and b are the same name once normalized.
// "cdn.example.net" and "cdn.example.net." are equal; case differences are not.
func Equal(a, b string) bool {
	return Normalize(a) == Normalize(b)
}

// Validate checks that name is usable as a CNAME target or record name.
// Labels are limited to ASCII letters, digits, hyphen and underscore.
func Validate(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return &ValidationError{Name: name, Err: ErrEmpty}
	}
	if strings.ContainsAny(trimmed, " \t\r\n") {
		return &ValidationError{Name: name, Err: ErrWhitespace}
	}
	if net.ParseIP(strings.TrimSuffix(trimmed, ".")) != nil {
		return &ValidationError{Name: name, Err: ErrIPAddress}
	}

	for i := 0; i < len(trimmed); i++ {
		if !isNameByte(trimmed[i]) {
			return &ValidationError{Name: name, Err: ErrInvalid}
		}
	}

	fqdn := dns.Fqdn(trimmed)
	if len(fqdn) > MaxNameLength {
		return &ValidationError{Name: name, Err: ErrTooLong}
	}
	if fqdn == "." {
		return &ValidationError{Name: name, Err: ErrInvalid}
	}
	if _, ok := dns.IsDomainName(fqdn); !ok {
		return &ValidationError{Name: name, Err: ErrInvalid}
	}
	for _, label := range dns.SplitDomainName(fqdn) {
		if label == "" || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return &ValidationError{Name: name, Err: ErrInvalid}
		}
	}
	return nil
}

// isNameByte reports whether c may appear in a host name: ASCII letters,
// digits, hyphen, underscore and the label separator.
func isNameByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.'
}

// InZone reports whether name is the zone apex or a name below it.
// The check is case-insensitive, as DNS names are.
func InZone(name, zone string) bool {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(zone) == "" {
		return false
	}
	return dns.IsSubDomain(dns.CanonicalName(Normalize(zone)), dns.CanonicalName(Normalize(name)))
}
