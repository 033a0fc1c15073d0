package wake

import (
	"strconv"
	"strings"
)

// HardwareAddrDelimiter separates the six groups of a hardware address.
const HardwareAddrDelimiter = "-"

// HardwareAddr is a 6 octet Ethernet hardware address.
type HardwareAddr [6]byte

// ParseHardwareAddr parses six two-digit hex groups separated by '-'.
// Hex digits are accepted in either case.
func ParseHardwareAddr(s string) (HardwareAddr, error) {
	var hw HardwareAddr
	fields := strings.Split(s, HardwareAddrDelimiter)
	if len(fields) != len(hw) {
		return hw, &FormatError{Input: s, Reason: "expected " + strconv.Itoa(len(hw)) + " groups, got " + strconv.Itoa(len(fields))}
	}
	for i, f := range fields {
		if len(f) != 2 {
			return hw, &FormatError{Input: s, Reason: "group '" + f + "' is not a two digit hex byte"}
		}
		b, err := strconv.ParseUint(f, 16, 8)
		if err != nil {
			return hw, &FormatError{Input: s, Reason: "group '" + f + "' is not a hex byte"}
		}
		hw[i] = byte(b)
	}
	return hw, nil
}

// String returns the canonical uppercase form, e.g. FF-FF-FF-FF-FF-FF.
func (hw HardwareAddr) String() string {
	const digits = "0123456789ABCDEF"
	buf := make([]byte, 0, len(hw)*3-1)
	for i, b := range hw {
		if i > 0 {
			buf = append(buf, HardwareAddrDelimiter...)
		}
		buf = append(buf, digits[b>>4], digits[b&0x0F])
	}
	return string(buf)
}
