package wake

import (
	"bytes"
	"context"
	"net"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/tomb.v2"
)

var syncStream = []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

// ParseMagicPacket returns the address a magic packet is meant for. Trailing
// bytes after the 16th repetition are ignored.
func ParseMagicPacket(b []byte) (HardwareAddr, bool) {
	var hw HardwareAddr
	if len(b) < MagicPacketSize || !bytes.HasPrefix(b, syncStream) {
		return hw, false
	}
	copy(hw[:], b[6:12])
	for i := 1; i < 16; i++ {
		off := 6 + i*6
		if !bytes.Equal(b[off:off+6], hw[:]) {
			return HardwareAddr{}, false
		}
	}
	return hw, true
}

// Received is a magic packet seen on the wire.
type Received struct {
	From   string
	Target HardwareAddr
}

// Receiver reads magic packets from a UDP socket.
type Receiver struct {
	conn net.PacketConn
	stop func() bool
}

// ListenMagic opens a UDP socket on addr. The socket is closed when ctx is
// done or Close is called.
func ListenMagic(ctx context.Context, addr string) (*Receiver, error) {
	listener := &net.ListenConfig{}
	conn, err := listener.ListenPacket(ctx, "udp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to listen for UDP on '%s'", addr)
	}
	return &Receiver{
		conn: conn,
		stop: context.AfterFunc(ctx, func() { conn.Close() }),
	}, nil
}

func (r *Receiver) Addr() net.Addr { return r.conn.LocalAddr() }

// Next blocks until a magic packet arrives. Other datagrams are skipped.
func (r *Receiver) Next() (Received, error) {
	buf := make([]byte, 1500)
	for {
		n, from, err := r.conn.ReadFrom(buf)
		if err != nil {
			return Received{}, errors.Wrapf(err, "failed to read UDP message")
		}
		hw, ok := ParseMagicPacket(buf[:n])
		if !ok {
			continue
		}
		return Received{From: from.String(), Target: hw}, nil
	}
}

func (r *Receiver) Close() error {
	r.stop()
	return r.conn.Close()
}

var errPacketFound = errors.New("packet found")

// Wait listens on every IP address of the named interface and returns the
// first magic packet received on any of them.
func Wait(ctx context.Context, ifaceName string, udpPort int) (Received, error) {
	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return Received{}, errors.Wrapf(err, "failed to find interface '%s'", ifaceName)
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return Received{}, errors.Wrapf(err, "failed to get addresses for interface '%s'", ifaceName)
	}
	if len(addrs) == 0 {
		return Received{}, errors.Errorf("interface '%s' has no addresses", ifaceName)
	}
	var udpAddrs []*net.UDPAddr
	for _, addr := range addrs {
		if !strings.Contains(addr.Network(), "ip") {
			continue
		}
		ip, _, err := net.ParseCIDR(addr.String())
		if err != nil {
			continue
		}
		udpAddrs = append(udpAddrs, &net.UDPAddr{IP: ip, Port: udpPort, Zone: zoneOf(ip, iface)})
	}
	if len(udpAddrs) == 0 {
		return Received{}, errors.Errorf("interface '%s' has no IP addresses", ifaceName)
	}
	t, ctx := tomb.WithContext(ctx)
	results := make(chan Received, len(udpAddrs))
	for _, udpAddr := range udpAddrs {
		t.Go(func() error {
			r, err := ListenMagic(ctx, udpAddr.String())
			if err != nil {
				return err
			}
			defer r.Close()
			got, err := r.Next()
			if err != nil {
				return err
			}
			results <- got
			return errPacketFound
		})
	}
	err = t.Wait()
	close(results)
	if err == errPacketFound {
		got, ok := <-results
		if !ok {
			return Received{}, errors.Errorf("no result in response")
		}
		return got, nil
	}
	if err != nil {
		return Received{}, errors.Wrapf(err, "failed to wait for packet")
	}
	return Received{}, errors.Errorf("invalid response from wait process")
}

func zoneOf(ip net.IP, iface *net.Interface) string {
	if ip.To4() == nil && ip.IsLinkLocalUnicast() {
		return iface.Name
	}
	return ""
}
