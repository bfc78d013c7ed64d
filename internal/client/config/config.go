// Package config handles configuration for the client component, including
// defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the simplesocial client.
//
// Fields:
//   - ServerEndpointAddr: host:port of the server's TCP request endpoint.
//   - NotifyURL: websocket URL of the server's notification endpoint.
//   - KeepAliveGroup: multicast group:port the server probes on.
//   - KeepAliveReplyAddr: host:port the server listens on for probe replies.
//   - ListenPort: local TCP port advertised at login for incoming friend
//     requests; 0 picks an ephemeral port.
//   - ConnTimeout: dial and I/O deadline for each request connection.
type Config struct {
	ServerEndpointAddr string
	NotifyURL          string
	KeepAliveGroup     string
	KeepAliveReplyAddr string
	ListenPort         int
	ConnTimeout        time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:11234"
	c.NotifyURL = "ws://127.0.0.1:11237/v1/notifications"
	c.KeepAliveGroup = "239.255.123.43:11235"
	c.KeepAliveReplyAddr = "127.0.0.1:11236"
	c.ListenPort = 0
	c.ConnTimeout = 5 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
