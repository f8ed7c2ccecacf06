// Command pipecat connects to the bridge output channel as a consumer and
// prints every decoded packet.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"runtime"

	"github.com/ayusman/posebridge/internal/channel"
	"github.com/ayusman/posebridge/internal/wire"
)

func main() {
	defaultNetwork, defaultAddress := "unix", "/tmp/posebridge.sock"
	if runtime.GOOS == "windows" {
		defaultNetwork, defaultAddress = "pipe", channel.DefaultPipeName
	}

	network := flag.String("network", defaultNetwork, "channel network: pipe, unix or tcp")
	address := flag.String("address", defaultAddress, "channel address")
	count := flag.Int("count", 0, "stop after this many packets (0 reads forever)")
	flag.Parse()

	conn, err := channel.Dial(*network, *address)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	for n := 0; *count == 0 || n < *count; n++ {
		p, err := wire.ReadPacket(conn)
		if errors.Is(err, io.EOF) {
			log.Println("Bridge closed the channel")
			return
		}
		if err != nil {
			log.Fatalf("Failed to read packet: %v", err)
		}
		printPacket(n, p)
	}
}

func printPacket(n int, p wire.Packet) {
	switch p := p.(type) {
	case *wire.LegacyPacket:
		fmt.Printf("#%d v1 head=%v hand=%v\n", n, p.Head, p.Hand)
	case *wire.ExtendedPacket:
		fmt.Printf("#%d v2 t=%.3f flags=%#x head=%v@%v hand=%v@%v rel=%v\n",
			n, p.Timestamp, p.Flags,
			p.HeadOrientation, p.HeadPosition,
			p.HandOrientation, p.HandPosition,
			p.RelativePosition)
	}
}
