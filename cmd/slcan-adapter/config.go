package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// appConfig is the adapter's full runtime configuration, grounded on the
// teacher's cmd/can-server/config.go flag+env layering.
type appConfig struct {
	transport       string // "uart" or "bluetooth"
	serialDev       string
	baud            int
	serialReadTO    time.Duration
	canInterface    string
	logFormat       string
	logLevel        string
	metricsAddr     string
	logMetricsEvery time.Duration

	relayAddr    string
	relayMax     int
	relayBuffer  int
	handshakeTO  time.Duration
	mdnsEnable   bool
	mdnsName     string

	withTimestamp bool
	sdlogPath     string

	apSSID        string
	apChannel     int
	apMaxStations int
}

func parseFlags() (*appConfig, bool) {
	cfg := &appConfig{}
	transportKind := flag.String("transport", "uart", "Serial transport: uart|bluetooth")
	serialDev := flag.String("serial", "/dev/ttyUSB0", "Serial device path (uart transport)")
	baud := flag.Int("baud", 115200, "Serial baud rate")
	serialReadTO := flag.Duration("serial-read-timeout", 50*time.Millisecond, "Serial read timeout")
	canIf := flag.String("can-if", "can0", "SocketCAN interface bound by the Driver")
	logFormat := flag.String("log-format", "text", "Log format: text|json")
	logLevel := flag.String("log-level", "info", "Log level: debug|info|warn|error")
	metricsAddr := flag.String("metrics-addr", "", "Metrics HTTP listen address (e.g., :9100); empty disables")
	logMetricsEvery := flag.Duration("log-metrics-interval", 0, "If >0, periodically log metrics counters")
	relayAddr := flag.String("relay-addr", "", "Relay TCP listen address for read-only monitoring clients; empty disables")
	relayMax := flag.Int("relay-max-clients", 0, "Maximum simultaneous relay clients (0 = unlimited)")
	relayBuffer := flag.Int("relay-buffer", 256, "Per-client relay outbound buffer (frames)")
	handshakeTO := flag.Duration("handshake-timeout", 3*time.Second, "Relay client handshake timeout")
	mdnsEnable := flag.Bool("mdns-enable", false, "Enable mDNS advertisement of the relay port")
	mdnsName := flag.String("mdns-name", "", "mDNS instance name (default slcan-adapter-<hostname>)")
	withTimestamp := flag.Bool("with-timestamp", false, "Append a millisecond timestamp to outbound frame lines")
	sdlogPath := flag.String("sdlog-path", "", "CSV frame log file path; empty disables")
	apSSID := flag.String("ap-ssid", "", "Access-point SSID to report via netstatus; empty disables AP status reporting")
	apChannel := flag.Int("ap-channel", 1, "Access-point channel reported by netstatus")
	apMaxStations := flag.Int("ap-max-stations", 4, "Access-point station capacity reported by netstatus (0 = unbounded)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	setFlags := map[string]struct{}{}
	flag.Visit(func(f *flag.Flag) { setFlags[f.Name] = struct{}{} })

	cfg.transport = *transportKind
	cfg.serialDev = *serialDev
	cfg.baud = *baud
	cfg.serialReadTO = *serialReadTO
	cfg.canInterface = *canIf
	cfg.logFormat = *logFormat
	cfg.logLevel = *logLevel
	cfg.metricsAddr = *metricsAddr
	cfg.logMetricsEvery = *logMetricsEvery
	cfg.relayAddr = *relayAddr
	cfg.relayMax = *relayMax
	cfg.relayBuffer = *relayBuffer
	cfg.handshakeTO = *handshakeTO
	cfg.mdnsEnable = *mdnsEnable
	cfg.mdnsName = *mdnsName
	cfg.withTimestamp = *withTimestamp
	cfg.sdlogPath = *sdlogPath
	cfg.apSSID = *apSSID
	cfg.apChannel = *apChannel
	cfg.apMaxStations = *apMaxStations

	if err := applyEnvOverrides(cfg, setFlags); err != nil {
		fmt.Printf("environment override error: %v\n", err)
		return nil, *showVersion
	}
	if err := cfg.validate(); err != nil {
		fmt.Printf("configuration error: %v\n", err)
		return nil, *showVersion
	}
	return cfg, *showVersion
}

// validate performs semantic range checks only; it never touches hardware.
func (c *appConfig) validate() error {
	if c == nil {
		return errors.New("nil config")
	}
	switch c.transport {
	case "uart", "bluetooth":
	default:
		return fmt.Errorf("invalid transport: %s", c.transport)
	}
	switch c.logFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log-format: %s", c.logFormat)
	}
	switch c.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level: %s", c.logLevel)
	}
	if c.baud <= 0 {
		return fmt.Errorf("baud must be > 0 (got %d)", c.baud)
	}
	if c.serialReadTO <= 0 {
		return fmt.Errorf("serial-read-timeout must be > 0")
	}
	if c.relayMax < 0 {
		return fmt.Errorf("relay-max-clients must be >= 0")
	}
	if c.relayBuffer <= 0 {
		return fmt.Errorf("relay-buffer must be > 0")
	}
	if c.handshakeTO <= 0 {
		return fmt.Errorf("handshake-timeout must be > 0")
	}
	if c.apMaxStations < 0 {
		return fmt.Errorf("ap-max-stations must be >= 0")
	}
	return nil
}

// applyEnvOverrides maps SLCAN_ADAPTER_* environment variables onto cfg,
// skipping any field whose flag was explicitly set (flag wins).
func applyEnvOverrides(c *appConfig, set map[string]struct{}) error {
	var firstErr error
	get := func(k string) (string, bool) { v, ok := os.LookupEnv(k); return strings.TrimSpace(v), ok }

	if _, ok := set["transport"]; !ok {
		if v, ok := get("SLCAN_ADAPTER_TRANSPORT"); ok && v != "" {
			c.transport = v
		}
	}
	if _, ok := set["serial"]; !ok {
		if v, ok := get("SLCAN_ADAPTER_SERIAL"); ok && v != "" {
			c.serialDev = v
		}
	}
	if _, ok := set["baud"]; !ok {
		if v, ok := get("SLCAN_ADAPTER_BAUD"); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				c.baud = n
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid SLCAN_ADAPTER_BAUD: %w", err)
			}
		}
	}
	if _, ok := set["can-if"]; !ok {
		if v, ok := get("SLCAN_ADAPTER_CAN_IF"); ok && v != "" {
			c.canInterface = v
		}
	}
	if _, ok := set["log-format"]; !ok {
		if v, ok := get("SLCAN_ADAPTER_LOG_FORMAT"); ok && v != "" {
			c.logFormat = v
		}
	}
	if _, ok := set["log-level"]; !ok {
		if v, ok := get("SLCAN_ADAPTER_LOG_LEVEL"); ok && v != "" {
			c.logLevel = v
		}
	}
	if _, ok := set["metrics-addr"]; !ok {
		if v, ok := get("SLCAN_ADAPTER_METRICS"); ok {
			c.metricsAddr = v
		}
	}
	if _, ok := set["relay-addr"]; !ok {
		if v, ok := get("SLCAN_ADAPTER_RELAY_ADDR"); ok {
			c.relayAddr = v
		}
	}
	if _, ok := set["relay-max-clients"]; !ok {
		if v, ok := get("SLCAN_ADAPTER_RELAY_MAX_CLIENTS"); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				c.relayMax = n
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid SLCAN_ADAPTER_RELAY_MAX_CLIENTS: %w", err)
			}
		}
	}
	if _, ok := set["mdns-enable"]; !ok {
		if v, ok := get("SLCAN_ADAPTER_MDNS_ENABLE"); ok && v != "" {
			switch strings.ToLower(v) {
			case "1", "true", "yes", "on":
				c.mdnsEnable = true
			case "0", "false", "no", "off":
				c.mdnsEnable = false
			}
		}
	}
	if _, ok := set["mdns-name"]; !ok {
		if v, ok := get("SLCAN_ADAPTER_MDNS_NAME"); ok && v != "" {
			c.mdnsName = v
		}
	}
	if _, ok := set["with-timestamp"]; !ok {
		if v, ok := get("SLCAN_ADAPTER_WITH_TIMESTAMP"); ok && v != "" {
			switch strings.ToLower(v) {
			case "1", "true", "yes", "on":
				c.withTimestamp = true
			case "0", "false", "no", "off":
				c.withTimestamp = false
			}
		}
	}
	if _, ok := set["sdlog-path"]; !ok {
		if v, ok := get("SLCAN_ADAPTER_SDLOG_PATH"); ok {
			c.sdlogPath = v
		}
	}
	if _, ok := set["ap-ssid"]; !ok {
		if v, ok := get("SLCAN_ADAPTER_AP_SSID"); ok {
			c.apSSID = v
		}
	}
	if _, ok := set["ap-max-stations"]; !ok {
		if v, ok := get("SLCAN_ADAPTER_AP_MAX_STATIONS"); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				c.apMaxStations = n
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid SLCAN_ADAPTER_AP_MAX_STATIONS: %w", err)
			}
		}
	}
	if _, ok := set["log-metrics-interval"]; !ok {
		if v, ok := get("SLCAN_ADAPTER_LOG_METRICS_INTERVAL"); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil && d >= 0 {
				c.logMetricsEvery = d
			} else if err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid SLCAN_ADAPTER_LOG_METRICS_INTERVAL: %w", err)
			}
		}
	}
	return firstErr
}
