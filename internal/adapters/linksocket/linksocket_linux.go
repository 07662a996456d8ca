//go:build linux

package linksocket

import (
	"fmt"
	"net"

	"github.com/lcalzada-xor/eapolsupd/internal/core/domain"
	"golang.org/x/sys/unix"
)

// htons converts a host-order uint16 to network byte order, as required
// for the protocol argument to AF_PACKET sockets and for PacketMreq.
func htons(v uint16) uint16 {
	return (v << 8) | (v >> 8)
}

type linuxSocket struct {
	fd      int
	ifIndex int
}

// Open binds a non-blocking AF_PACKET/SOCK_DGRAM socket to cfg.IfName. On
// a wired interface it joins the EAPOL multicast group and binds to a
// single EtherType; on wireless it binds to both EAPOL and pre-auth
// EtherTypes and never joins multicast (§4.2). Any sub-step failure
// closes the socket and returns the OS error.
func Open(cfg Config) (Socket, error) {
	netIface, err := net.InterfaceByName(cfg.IfName)
	if err != nil {
		return nil, fmt.Errorf("linksocket: resolve interface %s: %w", cfg.IfName, err)
	}
	iface := netIface.Index

	// Wireless binds ETH_P_ALL so both EAPOL and pre-auth EtherTypes
	// arrive; wired binds the single EAPOL protocol. The demux layer
	// filters by EtherType either way.
	proto := htons(uint16(domain.EtherTypeEAPOL))
	if cfg.Wireless {
		proto = htons(unix.ETH_P_ALL)
	}

	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_DGRAM, int(proto))
	if err != nil {
		return nil, fmt.Errorf("linksocket: socket: %w", err)
	}

	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("linksocket: set nonblocking: %w", err)
	}

	sa := &unix.SockaddrLinklayer{
		Protocol: proto,
		Ifindex:  iface,
	}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("linksocket: bind %s: %w", cfg.IfName, err)
	}

	if !cfg.Wireless {
		mreq := unix.PacketMreq{
			Ifindex: int32(iface),
			Type:    unix.PACKET_MR_MULTICAST,
			Alen:    6,
		}
		copy(mreq.Address[:6], domain.EAPOLMulticast[:])
		if err := unix.SetsockoptPacketMreq(fd, unix.SOL_PACKET, unix.PACKET_ADD_MEMBERSHIP, &mreq); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("linksocket: join multicast: %w", err)
		}
	}

	return &linuxSocket{fd: fd, ifIndex: iface}, nil
}

func (s *linuxSocket) Receive(buf []byte) (int, error) {
	n, _, err := unix.Recvfrom(s.fd, buf, 0)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, ErrWouldBlock
		}
		return 0, fmt.Errorf("linksocket: recvfrom: %w", err)
	}
	if n == 0 {
		return 0, nil
	}
	return n, nil
}

func (s *linuxSocket) Send(frame []byte) error {
	sa := &unix.SockaddrLinklayer{Ifindex: s.ifIndex}
	n, err := unix.SendmsgN(s.fd, frame, nil, sa, 0)
	if err != nil {
		return fmt.Errorf("linksocket: sendto: %w", err)
	}
	if n < len(frame) {
		return domain.ErrShortSend
	}
	return nil
}

func (s *linuxSocket) Fd() int {
	return s.fd
}

func (s *linuxSocket) Close() error {
	return unix.Close(s.fd)
}
