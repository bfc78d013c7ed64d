package config

import (
	"flag"
	"os"
	"time"

	"github.com/simplesocial/simplesocial/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   TCP request endpoint (e.g., ":11234")
//	-n string   websocket notification endpoint
//	-g string   keep-alive multicast group:port
//	-r string   keep-alive reply bind address
//	-k int      keep-alive interval, seconds
//	-w int      active-presence window, seconds
//	-t int      maximum session lifetime, minutes
//	-f int      maximum friend-request age, hours
//	-o int      per-connection read/write timeout, seconds
//	-p string   social-graph backup path
//	-i int      backup interval, seconds
//	-e bool     enable backups (use -e=false to disable)
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:],
		[]string{"-a", "-n", "-g", "-r", "-k", "-w", "-t", "-f", "-o", "-p", "-i", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddr, "a", config.EndpointAddr, "address and port to run server")
	fs.StringVar(&config.NotifyAddr, "n", config.NotifyAddr, "notification endpoint address")
	fs.StringVar(&config.KeepAliveGroup, "g", config.KeepAliveGroup, "keep-alive multicast group")
	fs.StringVar(&config.KeepAliveReplyAddr, "r", config.KeepAliveReplyAddr, "keep-alive reply address")

	keepAliveInterval := fs.Int("k", int(config.KeepAliveInterval.Seconds()), "keep-alive interval (in seconds)")
	activeWindow := fs.Int("w", int(config.ActiveWindow.Seconds()), "active window (in seconds)")
	maxSessionDuration := fs.Int("t", int(config.MaxSessionDuration.Minutes()), "max session duration (in minutes)")
	maxFriendRequestAge := fs.Int("f", int(config.MaxFriendRequestAge.Hours()), "max friend request age (in hours)")
	connTimeout := fs.Int("o", int(config.ConnTimeout.Seconds()), "connection timeout (in seconds)")

	fs.StringVar(&config.BackupPath, "p", config.BackupPath, "backup file path")
	backupInterval := fs.Int("i", int(config.BackupInterval.Seconds()), "backup interval (in seconds)")
	fs.BoolVar(&config.BackupEnabled, "e", config.BackupEnabled, "enable backups")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.KeepAliveInterval = time.Duration(*keepAliveInterval) * time.Second
	config.ActiveWindow = time.Duration(*activeWindow) * time.Second
	config.MaxSessionDuration = time.Duration(*maxSessionDuration) * time.Minute
	config.MaxFriendRequestAge = time.Duration(*maxFriendRequestAge) * time.Hour
	config.ConnTimeout = time.Duration(*connTimeout) * time.Second
	config.BackupInterval = time.Duration(*backupInterval) * time.Second
}
