package client

import "time"

// Config configures a dispatcher connection: a plain struct with yaml
// tags plus a defaulting method, loaded via cmd/zkdispatch-ping's
// loadConfig helper.
type Config struct {
	Addr           string        `yaml:"addr"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	SessionTimeout time.Duration `yaml:"session_timeout"`
	// SocketTimeout bounds how long a single read or write on the
	// underlying transport may block before the read loop wakes back up
	// to reassess (a dead peer never sends another byte, so without a
	// deadline a blocking Read would never return). Defaults to twice
	// SessionTimeout, the same ratio ZooKeeper clients use to derive a
	// socket timeout from the negotiated session timeout.
	SocketTimeout time.Duration       `yaml:"socket_timeout"`
	Log           LogConfig           `yaml:"log"`
	WatchDispatch WatchDispatchConfig `yaml:"watch_dispatch"`
	Metrics       MetricsConfig       `yaml:"metrics"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

func (c *Config) SetDefaults() {
	if c.Addr == "" {
		c.Addr = "127.0.0.1:2181"
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10 * time.Second
	}
	if c.SessionTimeout == 0 {
		c.SessionTimeout = 30 * time.Second
	}
	if c.SocketTimeout == 0 {
		c.SocketTimeout = 2 * c.SessionTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = "INFO"
	}
	c.WatchDispatch.setDefaults()
}
