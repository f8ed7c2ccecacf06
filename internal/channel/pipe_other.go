//go:build !windows

package channel

import (
	"errors"
	"net"
)

var errPipeUnsupported = errors.New("named pipes are only available on windows")

func listen(network, address string) (net.Listener, error) {
	if network == "pipe" {
		return nil, errPipeUnsupported
	}
	return listenSocket(network, address)
}

func dial(network, address string) (net.Conn, error) {
	if network == "pipe" {
		return nil, errPipeUnsupported
	}
	return net.Dial(network, address)
}
