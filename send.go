package wake

import (
	"context"
	"net"
	"net/netip"
	"syscall"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"
)

const (
	// DefaultPort is the conventional Wake-on-LAN UDP port.
	DefaultPort = 9
	// MagicPacketSize is 6 bytes of 0xFF followed by 16 copies of the address.
	MagicPacketSize = 6 + 16*6
)

// DefaultDestination is the limited broadcast address on the Wake-on-LAN port.
var DefaultDestination = netip.AddrPortFrom(netip.AddrFrom4([4]byte{255, 255, 255, 255}), DefaultPort)

// MagicPacket is the payload of a Wake-on-LAN datagram.
type MagicPacket []byte

// NewMagicPacket builds the packet that wakes hw.
func NewMagicPacket(hw HardwareAddr) MagicPacket {
	b := make([]byte, 0, MagicPacketSize)
	b = append(b, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)
	for i := 0; i < 16; i++ {
		b = append(b, hw[:]...)
	}
	return b
}

// Transmitter sends a magic packet for one address.
type Transmitter interface {
	Send(ctx context.Context, hw HardwareAddr) error
}

// Sender broadcasts magic packets over UDP. Every Send uses its own socket.
type Sender struct {
	dest      netip.AddrPort
	bind      netip.Addr
	localAddr bool
	log       logr.Logger

	localIPv4 func() (netip.Addr, error)
	listen    func(ctx context.Context, laddr string) (net.PacketConn, error)
}

// SenderOption configures a Sender.
type SenderOption func(*Sender)

// WithDestination sets where packets are sent. The default is
// 255.255.255.255:9. IPv4-mapped IPv6 addresses are unmapped.
func WithDestination(dest netip.AddrPort) SenderOption {
	return func(s *Sender) { s.dest = netip.AddrPortFrom(dest.Addr().Unmap(), dest.Port()) }
}

// WithBindAddr binds the sending socket to addr instead of 0.0.0.0.
func WithBindAddr(addr netip.Addr) SenderOption {
	return func(s *Sender) { s.bind = addr.Unmap() }
}

// WithLocalAddr binds the sending socket to the first active non-loopback
// IPv4 address, looked up at send time.
func WithLocalAddr() SenderOption {
	return func(s *Sender) { s.localAddr = true }
}

func WithLogger(log logr.Logger) SenderOption {
	return func(s *Sender) { s.log = log }
}

// NewSender returns a Sender. Destinations that are not IPv4 or use port 0
// are rejected.
func NewSender(opts ...SenderOption) (*Sender, error) {
	s := &Sender{
		dest:      DefaultDestination,
		bind:      netip.IPv4Unspecified(),
		log:       logr.Discard(),
		localIPv4: LocalIPv4,
		listen:    listenBroadcast,
	}
	for _, opt := range opts {
		opt(s)
	}
	if !s.dest.IsValid() {
		return nil, errors.Errorf("invalid destination '%s'", s.dest)
	}
	if !s.dest.Addr().Is4() {
		return nil, errors.Errorf("destination '%s' is not IPv4", s.dest)
	}
	if s.dest.Port() == 0 {
		return nil, errors.Wrapf(ErrZeroPort, "destination '%s'", s.dest)
	}
	if !s.bind.Is4() {
		return nil, errors.Errorf("bind address '%s' is not IPv4", s.bind)
	}
	return s, nil
}

func (s *Sender) Destination() netip.AddrPort { return s.dest }

// Send writes one magic packet for hw. The socket is closed before Send
// returns. All failures are *TransmitError.
func (s *Sender) Send(ctx context.Context, hw HardwareAddr) error {
	bind := s.bind
	if s.localAddr {
		addr, err := s.localIPv4()
		if err != nil {
			return &TransmitError{Addr: hw, Dest: s.dest, Op: "listen", Err: err}
		}
		bind = addr
	}
	conn, err := s.listen(ctx, netip.AddrPortFrom(bind, 0).String())
	if err != nil {
		return &TransmitError{Addr: hw, Dest: s.dest, Op: "listen", Err: err}
	}
	defer conn.Close()
	s.log.V(1).Info("socket open", "local", conn.LocalAddr().String(), "destination", s.dest.String())

	packet := NewMagicPacket(hw)
	n, err := conn.WriteTo(packet, net.UDPAddrFromAddrPort(s.dest))
	if err != nil {
		return &TransmitError{Addr: hw, Dest: s.dest, Op: "send", Err: err}
	}
	if n != len(packet) {
		return &TransmitError{Addr: hw, Dest: s.dest, Op: "write", Err: errors.Errorf("invalid number of bytes written %d", n)}
	}
	s.log.V(1).Info("magic packet sent", "hwaddr", hw.String(), "bytes", n)
	return nil
}

// listenBroadcast opens a UDP socket on laddr with SO_BROADCAST set before
// bind.
func listenBroadcast(ctx context.Context, laddr string) (net.PacketConn, error) {
	lc := net.ListenConfig{
		Control: func(_, _ string, c syscall.RawConn) error {
			var sockErr error
			if err := c.Control(func(fd uintptr) {
				sockErr = setBroadcast(fd)
			}); err != nil {
				return err
			}
			return errors.Wrapf(sockErr, "failed to enable broadcast")
		},
	}
	return lc.ListenPacket(ctx, "udp4", laddr)
}

// Send parses hwStr and sends one magic packet for it. Without options the
// packet goes to 255.255.255.255:9.
func Send(ctx context.Context, hwStr string, opts ...SenderOption) error {
	hw, err := ParseHardwareAddr(hwStr)
	if err != nil {
		return err
	}
	s, err := NewSender(opts...)
	if err != nil {
		return err
	}
	return s.Send(ctx, hw)
}
