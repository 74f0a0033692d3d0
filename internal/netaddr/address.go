// Package netaddr implements the parsed host:port address type shared
// by destination sets, bind configuration and the connect procedure.
package netaddr

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Protocol selects the default port used when an Address omits one.
type Protocol int

const (
	// ProtocolClassic is the per-packet-sequence-numbered wire protocol.
	ProtocolClassic Protocol = iota
	// ProtocolExtended is the length-prefixed wire protocol.
	ProtocolExtended
)

const (
	// DefaultClassicPort is the well-known port for the classic protocol.
	DefaultClassicPort uint16 = 3306
	// DefaultExtendedPort is the well-known port for the extended protocol.
	DefaultExtendedPort uint16 = 33060
)

// DefaultPort returns the well-known port for p.
func (p Protocol) DefaultPort() uint16 {
	if p == ProtocolExtended {
		return DefaultExtendedPort
	}
	return DefaultClassicPort
}

// Address is a parsed host/port pair. The zero value is not a valid
// Address; use Parse or New.
type Address struct {
	Host string
	Port uint16
}

// New builds an Address from already-validated parts. It is used by
// callers that already hold a trusted host and port (e.g. a peer
// address read back from a socket).
func New(host string, port uint16) Address {
	return Address{Host: host, Port: port}
}

// Equal reports structural equality, per spec: (host, port) pairs.
func (a Address) Equal(o Address) bool {
	return a.Host == o.Host && a.Port == o.Port
}

// IsIPv6 reports whether Host is a literal IPv6 address, so callers
// that must pick an address family (Open's Family argument) can do so
// per-candidate instead of assuming AF_INET.
func (a Address) IsIPv6() bool {
	ip := net.ParseIP(a.Host)
	return ip != nil && ip.To4() == nil
}

// String renders "host:port", bracketing literal IPv6 hosts.
func (a Address) String() string {
	if strings.Contains(a.Host, ":") {
		return fmt.Sprintf("[%s]:%d", a.Host, a.Port)
	}
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// WithDefaultPort returns a copy of a with Port filled in from proto's
// default when a.Port is zero (the parse-time "unset" sentinel).
func (a Address) WithDefaultPort(proto Protocol) Address {
	if a.Port != 0 {
		return a
	}
	a.Port = proto.DefaultPort()
	return a
}

// Parse accepts "host", "host:port" or "[v6]:port". Port 0 means
// "unset"; callers resolve it with WithDefaultPort. Parse rejects an
// empty host, trailing junk after the port, a port above 65535, and a
// host that looks like a dotted-decimal IPv4 literal but has the wrong
// octet count (e.g. "127.0.0.1.2").
func Parse(raw string) (Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Address{}, errors.New("empty address")
	}

	host, portStr, err := splitHostPort(raw)
	if err != nil {
		return Address{}, err
	}

	if host == "" {
		return Address{}, errors.New("empty host in address")
	}
	if err := validateHost(host); err != nil {
		return Address{}, errors.Wrapf(err, "invalid host %q", host)
	}

	var port uint16
	if portStr != "" {
		n, err := strconv.ParseUint(portStr, 10, 32)
		if err != nil {
			return Address{}, errors.Wrapf(err, "invalid port %q", portStr)
		}
		if n == 0 || n > 65535 {
			return Address{}, errors.Errorf("port %d out of range", n)
		}
		port = uint16(n)
	}

	return Address{Host: host, Port: port}, nil
}

// splitHostPort understands the three accepted forms without relying
// on net.SplitHostPort, which rejects a bare host with no port.
func splitHostPort(raw string) (host, port string, err error) {
	if strings.HasPrefix(raw, "[") {
		end := strings.IndexByte(raw, ']')
		if end < 0 {
			return "", "", errors.New("unterminated '[' in address")
		}
		host = raw[1:end]
		rest := raw[end+1:]
		switch {
		case rest == "":
			return host, "", nil
		case strings.HasPrefix(rest, ":"):
			p := rest[1:]
			if p == "" || strings.ContainsAny(p, ":") {
				return "", "", errors.Errorf("malformed port in %q", raw)
			}
			return host, p, nil
		default:
			return "", "", errors.Errorf("trailing junk after ']' in %q", raw)
		}
	}

	// No brackets: at most one colon is a host:port separator. More
	// than one colon with no brackets is an (unbracketed) IPv6
	// literal, which this form does not support.
	if strings.Count(raw, ":") > 1 {
		return "", "", errors.Errorf("ambiguous address %q; bracket IPv6 literals", raw)
	}

	idx := strings.IndexByte(raw, ':')
	if idx < 0 {
		return raw, "", nil
	}
	if idx == len(raw)-1 {
		return "", "", errors.Errorf("malformed port in %q", raw)
	}
	return raw[:idx], raw[idx+1:], nil
}

// validateHost rejects malformed dotted-decimal literals masquerading
// as DNS names (e.g. "127.0.0.1.2") and empty/invalid DNS labels. An
// IPv6 literal (anything containing ':', already unwrapped from its
// brackets by splitHostPort) skips the dotted-label charset checks
// entirely and is validated with net.ParseIP instead.
func validateHost(host string) error {
	if strings.Contains(host, ":") {
		if net.ParseIP(host) == nil {
			return errors.Errorf("invalid IPv6 literal %q", host)
		}
		return nil
	}

	labels := strings.Split(host, ".")
	allNumeric := true
	for _, l := range labels {
		if l == "" {
			return errors.New("empty label")
		}
		for _, r := range l {
			if r < '0' || r > '9' {
				allNumeric = false
			}
		}
	}

	if allNumeric {
		if len(labels) != 4 {
			return errors.Errorf("malformed IPv4 literal: %d octets", len(labels))
		}
		for _, l := range labels {
			n, err := strconv.Atoi(l)
			if err != nil || n < 0 || n > 255 {
				return errors.Errorf("octet %q out of range", l)
			}
		}
		return nil
	}

	for _, l := range labels {
		for _, r := range l {
			if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
				return errors.Errorf("invalid character %q in label %q", r, l)
			}
		}
	}
	return nil
}
