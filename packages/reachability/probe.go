package reachability

import (
	"context"
	"net"
	"strings"
	"time"
)

// Status is the classified connectivity state
type Status int

const (
	StatusUnknown Status = iota
	StatusNotReachable
	StatusReachableEthernetOrWiFi
	StatusReachableCellular
)

func (s Status) String() string {
	switch s {
	case StatusNotReachable:
		return "not reachable"
	case StatusReachableEthernetOrWiFi:
		return "reachable via ethernet or WiFi"
	case StatusReachableCellular:
		return "reachable via cellular"
	default:
		return "unknown"
	}
}

// Reachable is true for ethernet/WiFi and cellular; unknown counts as unreachable.
func (s Status) Reachable() bool {
	return s == StatusReachableEthernetOrWiFi || s == StatusReachableCellular
}

// Prober performs one connectivity check.
type Prober interface {
	Probe(ctx context.Context) Status
}

// ProberFunc adapts a function to Prober
type ProberFunc func(ctx context.Context) Status

func (f ProberFunc) Probe(ctx context.Context) Status {
	return f(ctx)
}

const (
	DefaultProbeAddress = "1.1.1.1:443"
	DefaultProbeTimeout = 3 * time.Second
)

// cellularPrefixes match interface names used by mobile data links
var cellularPrefixes = []string{"pdp_ip", "rmnet", "wwan", "ccmni", "usb_rmnet"}

// DialProber checks reachability by opening a TCP connection and classifies the
// link by the name of the interface that owns the local address.
type DialProber struct {
	Address string
	Timeout time.Duration
}

func NewDialProber(address string) *DialProber {
	if address == "" {
		address = DefaultProbeAddress
	}
	return &DialProber{Address: address, Timeout: DefaultProbeTimeout}
}

func (p *DialProber) Probe(ctx context.Context) Status {
	dialer := net.Dialer{Timeout: p.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", p.Address)
	if err != nil {
		return StatusNotReachable
	}
	defer conn.Close()

	local, ok := conn.LocalAddr().(*net.TCPAddr)
	if !ok {
		return StatusReachableEthernetOrWiFi
	}
	return ClassifyInterface(interfaceForIP(local.IP))
}

// ClassifyInterface maps an interface name to a reachable status
func ClassifyInterface(name string) Status {
	for _, prefix := range cellularPrefixes {
		if strings.HasPrefix(name, prefix) {
			return StatusReachableCellular
		}
	}
	return StatusReachableEthernetOrWiFi
}

func interfaceForIP(ip net.IP) string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipNet, ok := addr.(*net.IPNet); ok && ipNet.IP.Equal(ip) {
				return iface.Name
			}
		}
	}
	return ""
}
