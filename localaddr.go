package wake

import (
	"net"
	"net/netip"

	"github.com/pkg/errors"
)

// LocalIPv4 returns the first IPv4 address of an interface that is up and
// not a loopback.
func LocalIPv4() (netip.Addr, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return netip.Addr{}, errors.Wrapf(err, "failed to list interfaces")
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		if addr, ok := firstIPv4(addrs); ok {
			return addr, nil
		}
	}
	return netip.Addr{}, errors.New("no active non-loopback IPv4 address")
}

func firstIPv4(addrs []net.Addr) (netip.Addr, bool) {
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		addr, ok := netip.AddrFromSlice(ipnet.IP.To4())
		if !ok || addr.IsLoopback() || addr.IsLinkLocalUnicast() {
			continue
		}
		return addr, true
	}
	return netip.Addr{}, false
}
