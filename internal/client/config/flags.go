package config

import (
	"flag"
	"os"
	"time"

	"github.com/simplesocial/simplesocial/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   address and port of the server request endpoint
//	-n string   websocket URL of the notification endpoint
//	-g string   multicast group:port for keep-alive probes
//	-r string   address and port for keep-alive replies
//	-p int      local port advertised for incoming friend requests
//	-o int      connection timeout in seconds
//
// Note: The function filters os.Args to only include the flags it knows about,
// using flagx.FilterArgs, to avoid interference with other components.
func parseFlags(cfg *Config) {
	// Filter args to include only those handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-n", "-g", "-r", "-p", "-o"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port of the server request endpoint")
	fs.StringVar(&cfg.NotifyURL, "n", cfg.NotifyURL, "websocket URL of the notification endpoint")
	fs.StringVar(&cfg.KeepAliveGroup, "g", cfg.KeepAliveGroup, "multicast group and port for keep-alive probes")
	fs.StringVar(&cfg.KeepAliveReplyAddr, "r", cfg.KeepAliveReplyAddr, "address and port for keep-alive replies")
	fs.IntVar(&cfg.ListenPort, "p", cfg.ListenPort, "local port for incoming friend requests (0 = ephemeral)")
	connTimeout := fs.Int("o", int(cfg.ConnTimeout.Seconds()), "connection timeout (in seconds)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.ConnTimeout = time.Duration(*connTimeout) * time.Second
}
