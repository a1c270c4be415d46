package compose

import (
	"fmt"
	"net"
	"strconv"
)

// AllocatePorts replaces every port default in ports with a free host port.
// All listeners are held until every port is chosen so no two variables get
// the same port.
func AllocatePorts(ports *EnvVars) (*EnvVars, error) {
	out := NewEnvVars()
	var listeners []net.Listener
	defer func() {
		for _, l := range listeners {
			_ = l.Close()
		}
	}()

	for _, key := range ports.Keys() {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, fmt.Errorf("allocating port for %s: %w", key, err)
		}
		listeners = append(listeners, l)
		out.Set(key, strconv.Itoa(l.Addr().(*net.TCPAddr).Port))
	}
	return out, nil
}
