package netsrc

import (
	"net"

	"github.com/btcsuite/go-socks/socks"
)

// dialer returns the function used to open the TCP connection to a
// peer: a plain net.Dial normally, or a SOCKS5 proxy dial when proxy
// is non-empty, letting the node reach peers over Tor the same way
// any Bitcoin-family node can.
func dialer(proxy string) func(network, addr string) (net.Conn, error) {
	if proxy == "" {
		return net.Dial
	}
	p := &socks.Proxy{Addr: proxy}
	return p.Dial
}
