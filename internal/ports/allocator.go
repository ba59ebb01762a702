// Package ports assigns collision-free local ports to orbit panes.
//
// Assignment is advisory bookkeeping: a declared port keeps its value when it
// is free both in the registry and at the OS level, and is bumped upwards
// otherwise. The OS probe is a time-of-check snapshot; another process can
// still grab a port between the probe and the pane binding it.
package ports

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	"orbit/pkg/logging"
)

// MaxPort is the highest valid TCP port.
const MaxPort = 65535

// ErrPortRangeExhausted is returned when no free port exists at or above a
// declared port.
var ErrPortRangeExhausted = errors.New("port range exhausted")

// Prober reports whether a port can currently be bound on the local host.
type Prober interface {
	Available(port int) bool
}

// ProberFunc adapts a plain function to the Prober interface.
type ProberFunc func(port int) bool

// Available calls f(port).
func (f ProberFunc) Available(port int) bool { return f(port) }

// TCPProber probes by binding a TCP listener on Host.
type TCPProber struct {
	Host string
}

// NewTCPProber returns a prober bound to the loopback interface.
func NewTCPProber() TCPProber {
	return TCPProber{Host: "127.0.0.1"}
}

// Available binds and immediately releases host:port.
func (p TCPProber) Available(port int) bool {
	host := p.Host
	if host == "" {
		host = "127.0.0.1"
	}
	l, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	_ = l.Close()
	return true
}

// Allocator assigns ports for one launch.
type Allocator struct {
	Prober Prober
}

// NewAllocator returns an Allocator using prober, or a TCPProber when nil.
func NewAllocator(prober Prober) *Allocator {
	if prober == nil {
		prober = NewTCPProber()
	}
	return &Allocator{Prober: prober}
}

// Assign maps each declared port, in order, to the lowest port at or above it
// that is not in claimed, is bindable right now, and was not handed out
// earlier in the same call. A port declared twice keeps its first mapping.
func (a *Allocator) Assign(declared []int, claimed map[int]struct{}) (Map, error) {
	var out Map
	taken := make(map[int]struct{}, len(declared))

	for _, port := range declared {
		if port < 1 || port > MaxPort {
			return Map{}, fmt.Errorf("declared port %d out of range 1-%d", port, MaxPort)
		}
		if _, seen := out.Get(port); seen {
			continue
		}

		candidate := port
		for a.unusable(candidate, claimed, taken) {
			candidate++
			if candidate > MaxPort {
				return Map{}, fmt.Errorf("%w: no free port at or above %d", ErrPortRangeExhausted, port)
			}
		}
		if candidate != port {
			logging.Debug("Ports", "port %d unavailable, assigned %d", port, candidate)
		}

		out.Set(port, candidate)
		taken[candidate] = struct{}{}
	}
	return out, nil
}

func (a *Allocator) unusable(port int, claimed, taken map[int]struct{}) bool {
	if _, ok := claimed[port]; ok {
		return true
	}
	if _, ok := taken[port]; ok {
		return true
	}
	return !a.Prober.Available(port)
}
