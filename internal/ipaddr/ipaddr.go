// Package ipaddr discovers the addresses a greeting server can be
// reached on: the one inside the current network (LocalIP) and the one
// the rest of the internet sees (Resolver.GlobalIP).
package ipaddr

import (
	"net"

	herrors "hellosrv/internal/errors"
)

// routeAddr is only used to make the kernel pick a route; UDP connect
// sends no packet.
const routeAddr = "192.0.2.1:9"

// LocalIP returns the address this host uses for outbound traffic,
// falling back to the first non-loopback IPv4 interface address when no
// route exists.
func LocalIP() (net.IP, error) {
	if conn, err := net.Dial("udp", routeAddr); err == nil {
		defer conn.Close()
		if ua, ok := conn.LocalAddr().(*net.UDPAddr); ok && !ua.IP.IsUnspecified() {
			return ua.IP, nil
		}
	}
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil, herrors.Wrap("interfaces", "local", err)
	}
	return pickLocal(addrs)
}

// pickLocal prefers the first global-unicast IPv4 address, then any
// non-loopback address.
func pickLocal(addrs []net.Addr) (net.IP, error) {
	var fallback net.IP
	for _, a := range addrs {
		ipn, ok := a.(*net.IPNet)
		if !ok || ipn.IP.IsLoopback() || ipn.IP.IsLinkLocalUnicast() {
			continue
		}
		if v4 := ipn.IP.To4(); v4 != nil {
			return v4, nil
		}
		if fallback == nil {
			fallback = ipn.IP
		}
	}
	if fallback != nil {
		return fallback, nil
	}
	return nil, herrors.ErrNoAddress
}
