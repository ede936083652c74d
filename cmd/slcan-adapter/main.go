package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/tinycan/slcan-adapter/internal/bridge"
	"github.com/tinycan/slcan-adapter/internal/canframe"
	"github.com/tinycan/slcan-adapter/internal/iostream"
	"github.com/tinycan/slcan-adapter/internal/metrics"
	"github.com/tinycan/slcan-adapter/internal/netstatus"
	"github.com/tinycan/slcan-adapter/internal/relay"
	"github.com/tinycan/slcan-adapter/internal/sdlog"
)

func main() {
	cfg, showVersion := parseFlags()
	if cfg == nil && !showVersion {
		os.Exit(1)
	}
	if showVersion {
		fmt.Printf("slcan-adapter %s (commit %s, built %s)\n", version, commit, date)
		return
	}

	l := setupLogger(cfg.logFormat, cfg.logLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var wg sync.WaitGroup

	var apStatus *netstatus.Reporter
	if cfg.apSSID != "" {
		apStatus = netstatus.New(netstatus.Config{SSID: cfg.apSSID, Channel: cfg.apChannel, MaxStations: cfg.apMaxStations})
	}

	startMetricsLogger(ctx, cfg.logMetricsEvery, l, apStatus, &wg)

	port, err := openTransport(cfg)
	if err != nil {
		l.Error("transport_open_error", "error", err)
		return
	}
	defer port.Close()

	// br is assigned once the Bridge exists; the session's receive-pump
	// hook closes over this pointer since the session must be constructed
	// (and its hooks fixed) before the Bridge that wraps it.
	var br *bridge.Bridge
	sess := initSession(cfg, l, func(f canframe.Frame) {
		if br != nil {
			br.FrameReceived(f)
		}
	})

	egressHooks := iostream.Hooks{
		OnWriteError: func(err error) { l.Warn("egress_write_error", "error", err) },
		OnFrameDrop: func() {
			metrics.IncFrameDrop()
			l.Warn("frame_line_dropped", "reason", "egress_queue_full")
		},
	}
	egress := iostream.NewEgress(port, egressHooks)
	wg.Add(1)
	go func() { defer wg.Done(); egress.Run(ctx) }()
	defer egress.Close()

	br = bridge.New(bridge.Config{WithTimestamp: cfg.withTimestamp, SerialID: serialIDFromMAC()}, sess, egress, l)

	// sinks collects every extra frame observer (sdlog, relay) configured
	// below; Bridge.OnFrame accepts only one callback, so they are composed
	// into a single fan-out func once all are known.
	var sinks []func(canframe.Frame)

	if cfg.sdlogPath != "" {
		f, err := os.OpenFile(cfg.sdlogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			l.Warn("sdlog_open_failed", "error", err)
		} else {
			logger, err := sdlog.New(f)
			if err != nil {
				l.Warn("sdlog_init_failed", "error", err)
				_ = f.Close()
			} else {
				defer f.Close()
				sinks = append(sinks, func(cf canframe.Frame) {
					if err := logger.Log(cf); err != nil {
						l.Debug("sdlog_write_error", "error", err)
					}
				})
			}
		}
	}

	var relaySrv *relay.Server
	if cfg.relayAddr != "" {
		hub := relay.New()
		hub.OutBufSize = cfg.relayBuffer
		relaySrv = relay.NewServer(cfg.relayAddr, hub, cfg.relayMax, l)
		sinks = append(sinks, hub.Broadcast)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := relaySrv.Serve(ctx); err != nil {
				l.Error("relay_server_error", "error", err)
				cancel()
			}
		}()
	}

	if len(sinks) > 0 {
		br.OnFrame(func(cf canframe.Frame) {
			for _, sink := range sinks {
				sink(cf)
			}
		})
	}

	wg.Add(1)
	go func() { defer wg.Done(); sess.Run(ctx) }()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := br.RunIngress(ctx, port); err != nil {
			l.Warn("ingress_closed", "error", err)
			cancel()
		}
	}()

	if cfg.mdnsEnable && relaySrv != nil {
		go func() {
			addr := relaySrv.Addr()
			_, p, err := net.SplitHostPort(addr)
			var portNum int
			if err == nil {
				portNum, _ = strconv.Atoi(p)
			} else if idx := strings.LastIndex(addr, ":"); idx >= 0 {
				portNum, _ = strconv.Atoi(addr[idx+1:])
			}
			cleanup, err := startMDNS(ctx, cfg, portNum)
			if err != nil {
				l.Warn("mdns_start_failed", "error", err)
				return
			}
			go func() { <-ctx.Done(); cleanup() }()
		}()
	}

	metrics.SetReadinessFunc(func() bool {
		if ctx.Err() != nil {
			return false
		}
		return apStatus == nil || apStatus.Ready()
	})
	if cfg.metricsAddr != "" {
		metrics.InitBuildInfo(version, commit, date)
		srvHTTP := metrics.StartHTTP(cfg.metricsAddr)
		defer func() { _ = srvHTTP.Shutdown(context.Background()) }()
	}

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigCh
	l.Info("shutdown_signal", "signal", s.String())
	cancel()
	if relaySrv != nil {
		_ = relaySrv.Shutdown(context.Background())
	}
	wg.Wait()
}
