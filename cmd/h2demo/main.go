// Command h2demo runs a minimal HTTP/2 (and h2c/HTTP-1.1-upgrade) echo
// server on top of the engine package, the way the teacher's demo server
// wired fasthttp around the old goroutine-and-channel Conn: one goroutine
// per socket, looping reads into the engine and writes back out, except
// the loop now drives the synchronous h2.Connection from the outside
// instead of the connection driving its own goroutines.
package main

import (
	"crypto/tls"
	"flag"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"
	"golang.org/x/crypto/acme"
	"golang.org/x/crypto/acme/autocert"

	"github.com/quillh2/engine/h2"
	"github.com/quillh2/engine/h2log"
	"github.com/quillh2/engine/metrics"
)

var (
	addrArg     = flag.String("addr", ":8443", "listen address")
	metricsArg  = flag.String("metrics-addr", ":9100", "Prometheus /metrics listen address")
	hostArg     = flag.String("host", "", "hostname to request an autocert certificate for; empty disables TLS")
	logFileArg  = flag.String("log-file", "", "log file path; empty logs to stdout")
	logLevelArg = flag.String("log-level", "info", "debug, info, warn or error")
)

func main() {
	flag.Parse()
	maxprocs.Set()

	logger := h2log.New(h2log.Options{
		Stdout:     *logFileArg == "",
		Filename:   *logFileArg,
		Level:      *logLevelArg,
		MaxSizeMB:  100,
		MaxAgeDays: 28,
		MaxBackups: 3,
	})
	defer logger.Sync()

	reg := prometheus.NewRegistry()
	mx := metrics.New(reg)
	go serveMetrics(reg, *metricsArg, logger)

	var ln net.Listener
	var err error
	var direct bool

	if *hostArg != "" {
		ln, err = listenTLS(*hostArg, *addrArg)
		direct = true
	} else {
		ln, err = net.Listen("tcp", *addrArg)
	}
	if err != nil {
		logger.Error("listen failed", zap.Error(err))
		return
	}
	logger.Info("listening", zap.String("addr", *addrArg), zap.Bool("tls", *hostArg != ""))

	for {
		conn, err := ln.Accept()
		if err != nil {
			logger.Error("accept failed", zap.Error(err))
			continue
		}
		go serve(conn, direct, logger, mx)
	}
}

func listenTLS(host, addr string) (net.Listener, error) {
	m := &autocert.Manager{
		Prompt:     autocert.AcceptTOS,
		HostPolicy: autocert.HostWhitelist(host),
		Cache:      autocert.DirCache("./certs"),
	}
	cfg := &tls.Config{
		GetCertificate: m.GetCertificate,
		NextProtos:     []string{"h2", acme.ALPNProto},
	}
	return tls.Listen("tcp", addr, cfg)
}

func serveMetrics(reg *prometheus.Registry, addr string, logger *h2log.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server stopped", zap.Error(err))
	}
}

func serve(conn net.Conn, direct bool, logger *h2log.Logger, mx *metrics.Collector) {
	defer conn.Close()

	sink := &echoSink{logger: logger}
	c := h2.New(h2.RoleServer,
		h2.WithEventSink(sink),
		h2.WithLogger(logger),
		h2.WithMetrics(mx),
	)
	sink.engine = c
	c.OnConnect(direct)

	buf := make([]byte, 64*1024)
	conn.SetReadDeadline(time.Now().Add(2 * time.Minute))

	for {
		n, err := conn.Read(buf)
		if n > 0 {
			_, cerr := c.ConsumeBytes(buf[:n])
			if out := c.Flush(); len(out) > 0 {
				conn.Write(out)
			}
			if cerr != nil {
				logger.Debug("connection error", h2log.Err(cerr))
				return
			}
		}
		if err != nil {
			c.ConnectionLost()
			return
		}
		conn.SetReadDeadline(time.Now().Add(2 * time.Minute))
	}
}

