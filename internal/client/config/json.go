package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/simplesocial/simplesocial/internal/flagx"
	"github.com/simplesocial/simplesocial/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "5s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr"`
	NotifyURL          string         `json:"notify_url"`
	KeepAliveGroup     string         `json:"keepalive_group"`
	KeepAliveReplyAddr string         `json:"keepalive_reply_addr"`
	ListenPort         int            `json:"listen_port"`
	ConnTimeout        timex.Duration `json:"conn_timeout"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// Lookup order for the JSON file path:
//  1. Command-line flags (-c or -config) via flagx.JsonConfigFlags().
//  2. If empty, no JSON is loaded and the function returns.
//
// Behavior:
//   - Reads and unmarshals the JSON into JsonConfig.
//   - Copies known fields into the provided Config.
//   - Panics on read or unmarshal errors (caller should recover if desired).
//
// Intended usage is: defaults -> parseJson -> parseFlags, where later stages
// override earlier ones.
func parseJson(cfg *Config) {
	// Resolve file path from flags.
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	cfg.NotifyURL = jc.NotifyURL
	cfg.KeepAliveGroup = jc.KeepAliveGroup
	cfg.KeepAliveReplyAddr = jc.KeepAliveReplyAddr
	cfg.ListenPort = jc.ListenPort
	cfg.ConnTimeout = time.Duration(jc.ConnTimeout.Duration)
}
