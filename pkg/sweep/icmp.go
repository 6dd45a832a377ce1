package sweep

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync/atomic"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// ICMPProber probes targets with raw ICMP echo requests over one shared
// socket. It is write-only: replies are left to the kernel, which records
// the answering peer in its neighbor cache. Requires raw-socket privileges
// on most systems.
type ICMPProber struct {
	conn net.PacketConn
	id   int
	seq  atomic.Int32
}

// NewICMPProber opens the shared IPv4 ICMP socket.
func NewICMPProber() (*ICMPProber, error) {
	conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		return nil, fmt.Errorf("failed to create shared ICMP connection: %w", err)
	}
	return &ICMPProber{
		conn: conn,
		id:   os.Getpid() & 0xffff,
	}, nil
}

// Probe sends one echo request to ip without waiting for a reply.
func (p *ICMPProber) Probe(ctx context.Context, ip net.IP) error {
	msg := &icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   p.id,
			Seq:  int(p.seq.Add(1)) & 0xffff,
			Data: []byte("HELLO-R-U-THERE"),
		},
	}

	msgBytes, err := msg.Marshal(nil)
	if err != nil {
		return fmt.Errorf("failed to marshal ICMP message: %w", err)
	}

	if _, err := p.conn.WriteTo(msgBytes, &net.IPAddr{IP: ip}); err != nil {
		return fmt.Errorf("icmp echo %s: %w", ip, err)
	}
	return nil
}

// Close releases the shared socket.
func (p *ICMPProber) Close() error {
	return p.conn.Close()
}
