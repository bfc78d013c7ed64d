package config

import (
	"encoding/json"
	"os"

	"github.com/simplesocial/simplesocial/internal/flagx"
	"github.com/simplesocial/simplesocial/internal/timex"
)

// JsonConfig is the intermediate DTO for reading JSON configuration files.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "10s" and integer nanoseconds. After unmarshalling,
// its fields are copied into the runtime Config struct.
type JsonConfig struct {
	EndpointAddr        string         `json:"endpoint_addr"`
	NotifyAddr          string         `json:"notify_addr"`
	KeepAliveGroup      string         `json:"keep_alive_group"`
	KeepAliveReplyAddr  string         `json:"keep_alive_reply_addr"`
	KeepAliveInterval   timex.Duration `json:"keep_alive_interval"`
	ActiveWindow        timex.Duration `json:"active_window"`
	MaxSessionDuration  timex.Duration `json:"max_session_duration"`
	MaxFriendRequestAge timex.Duration `json:"max_friend_request_age"`
	ConnTimeout         timex.Duration `json:"conn_timeout"`
	BackupEnabled       bool           `json:"backup_enabled"`
	BackupPath          string         `json:"backup_path"`
	BackupInterval      timex.Duration `json:"backup_interval"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags into the provided Config. If neither flag is set, no file
// is loaded. An unreadable or invalid file panics: a deployment that asks
// for a config file and cannot use it should not start half-configured.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.EndpointAddr = c.EndpointAddr
	config.NotifyAddr = c.NotifyAddr
	config.KeepAliveGroup = c.KeepAliveGroup
	config.KeepAliveReplyAddr = c.KeepAliveReplyAddr
	config.KeepAliveInterval = c.KeepAliveInterval.Duration
	config.ActiveWindow = c.ActiveWindow.Duration
	config.MaxSessionDuration = c.MaxSessionDuration.Duration
	config.MaxFriendRequestAge = c.MaxFriendRequestAge.Duration
	config.ConnTimeout = c.ConnTimeout.Duration
	config.BackupEnabled = c.BackupEnabled
	config.BackupPath = c.BackupPath
	config.BackupInterval = c.BackupInterval.Duration
}
