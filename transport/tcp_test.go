package transport_test

import (
	"net"
	"time"

	"github.com/indigo-web/microrest/config"
)

func configNET() config.NET {
	cfg := config.Default().NET
	cfg.AcceptPollPeriod = 10 * time.Millisecond
	cfg.ReadTimeout = 50 * time.Millisecond

	return cfg
}

func dialTCP(addr string) (net.Conn, error) {
	return net.DialTimeout("tcp", addr, time.Second)
}
