// Package port picks a listen address when the configured one is taken.
package port

import (
	"errors"
	"net"
	"strconv"
)

// ScanLimit is how many ports after the requested one FreeAddr tries.
const ScanLimit = 1024

var ErrNoFreePort = errors.New("no free port found")

// FreeAddr returns addr unchanged when it can be listened on. Otherwise it
// tries the next ScanLimit ports on the same host, then lets the kernel pick.
// A port of 0 is returned as is.
func FreeAddr(addr string) (string, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", err
	}
	start, err := strconv.Atoi(portStr)
	if err != nil {
		return "", err
	}
	if start == 0 {
		return addr, nil
	}

	for p := start; p < start+ScanLimit && p <= 65535; p++ {
		candidate := net.JoinHostPort(host, strconv.Itoa(p))
		if Available(candidate) {
			return candidate, nil
		}
	}

	p, err := randomFreePort(host)
	if err != nil {
		return "", errors.Join(ErrNoFreePort, err)
	}
	return net.JoinHostPort(host, strconv.Itoa(p)), nil
}

func Available(addr string) bool {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return false
	}
	ln.Close()
	return true
}

func randomFreePort(host string) (int, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, err
	}
	defer ln.Close()
	return ln.Addr().(*net.TCPAddr).Port, nil
}
