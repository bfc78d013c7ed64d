// Package config handles configuration for the server component, including
// defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the simplesocial server.
//
// Fields:
//   - EndpointAddr: bind address for the TCP request endpoint.
//   - NotifyAddr: bind address for the websocket notification endpoint.
//   - KeepAliveGroup: multicast group:port for liveness probes.
//   - KeepAliveReplyAddr: unicast bind address for probe replies.
//   - KeepAliveInterval: delay between liveness probes.
//   - ActiveWindow: how recent a session's last action must be for its user
//     to count as "online".
//   - MaxSessionDuration: maximum session lifetime before eviction.
//   - MaxFriendRequestAge: how long a pending friend request stays valid.
//   - ConnTimeout: read/write deadline applied to every request connection.
//   - BackupEnabled / BackupPath / BackupInterval: periodic social-graph
//     snapshot settings.
type Config struct {
	EndpointAddr        string
	NotifyAddr          string
	KeepAliveGroup      string
	KeepAliveReplyAddr  string
	KeepAliveInterval   time.Duration
	ActiveWindow        time.Duration
	MaxSessionDuration  time.Duration
	MaxFriendRequestAge time.Duration
	ConnTimeout         time.Duration
	BackupEnabled       bool
	BackupPath          string
	BackupInterval      time.Duration
}

// LoadDefaults populates Config with the stock deployment values.
func (c *Config) LoadDefaults() {
	c.EndpointAddr = ":11234"
	c.NotifyAddr = ":11237"
	c.KeepAliveGroup = "239.255.123.43:11235"
	c.KeepAliveReplyAddr = ":11236"
	c.KeepAliveInterval = 10 * time.Second
	c.ActiveWindow = 10 * time.Second
	c.MaxSessionDuration = 24 * time.Hour
	c.MaxFriendRequestAge = 3 * 24 * time.Hour
	c.ConnTimeout = 5 * time.Second
	c.BackupEnabled = true
	c.BackupPath = "socialgraph.snap"
	c.BackupInterval = 2 * time.Minute
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
