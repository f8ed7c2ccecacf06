//go:build windows

package channel

import (
	"net"

	winio "github.com/tailscale/go-winio"
)

func listen(network, address string) (net.Listener, error) {
	if network == "pipe" {
		return winio.ListenPipe(address, &winio.PipeConfig{
			MessageMode:      false,
			InputBufferSize:  512,
			OutputBufferSize: 512,
		})
	}
	return listenSocket(network, address)
}

func dial(network, address string) (net.Conn, error) {
	if network == "pipe" {
		return winio.DialPipe(address, nil)
	}
	return net.Dial(network, address)
}
