package utils

import "time"

type Config struct {
	Mode        string        `json:"mode,omitempty"`
	Port        string        `json:"port,omitempty"`
	Source      string        `json:"source,omitempty"`
	Output      string        `json:"output,omitempty"`
	OutputFile  string        `json:"output_file,omitempty"`
	Quiet       bool          `json:"quiet,omitempty"`
	Debug       bool          `json:"debug,omitempty"`
	RateLimitMs int           `json:"ratelimit_ms"`
	APIURL      string        `json:"api_url,omitempty"`
	Timeout     time.Duration `json:"timeout,omitempty"`
	FailFast    bool          `json:"fail_fast,omitempty"`
	Progress    bool          `json:"progress,omitempty"`
}

// RateLimit is the pause taken after every request to the trust API.
func (c Config) RateLimit() time.Duration {
	return time.Duration(c.RateLimitMs) * time.Millisecond
}

const (
	ModeLocal      = "local"
	ModeHTTPServer = "http-server"
	JSONOutput     = "json"
	YAMLOutput     = "yaml"
	TableOutput    = "table"
	StdinSource    = "-"
)

const (
	DefaultAPIURL      = "https://api.trustypkg.dev/v2/pkg"
	DefaultRateLimitMs = 500
	DefaultTimeout     = 30 * time.Second
	DefaultPort        = "8080"
)
