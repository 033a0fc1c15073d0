package wake

import (
	"fmt"
	"net/netip"

	"github.com/pkg/errors"
)

var (
	// ErrNoDefault is returned when no target was given and the lookup table
	// has no entry to fall back to.
	ErrNoDefault = errors.New("no target given and lookup table is empty")
	// ErrZeroPort is returned for a destination on UDP port 0.
	ErrZeroPort = errors.New("destination port 0 is not a Wake-on-LAN port")
)

// FormatError reports a malformed hardware address string.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid hardware address '%s': %s", e.Input, e.Reason)
}

// ResolutionError reports a lookup name that has no entry in the table.
type ResolutionError struct {
	Name string
	Err  error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to resolve lookup target '%s': %v", e.Name, e.Err)
	}
	return fmt.Sprintf("failed to resolve lookup target '%s'", e.Name)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// TransmitError reports a failure to put a magic packet on the wire. Op is
// one of "listen", "send" or "write".
type TransmitError struct {
	Addr HardwareAddr
	Dest netip.AddrPort
	Op   string
	Err  error
}

func (e *TransmitError) Error() string {
	return fmt.Sprintf("failed to %s magic packet for %s to %s: %v", e.Op, e.Addr, e.Dest, e.Err)
}

func (e *TransmitError) Unwrap() error { return e.Err }

func (e *TransmitError) Cause() error { return e.Err }

// ConfigError reports a configuration directory or file that could not be
// created or read.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config '%s': %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Cause() error { return e.Err }
