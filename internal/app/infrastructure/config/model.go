package config

type Config struct {
	App     App      `json:"app" yaml:"app"`
	Twitch  Twitch   `json:"twitch" yaml:"twitch"`
	Proxy   *Proxy   `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	Emotes  Emotes   `json:"emotes" yaml:"emotes"`
	Storage Storage  `json:"storage" yaml:"storage"`
	HTTP    HTTP     `json:"http" yaml:"http"`
	Session Session  `json:"session" yaml:"session"`
	Log     LogFiles `json:"log" yaml:"log"`
}

type App struct {
	LogLevel string `json:"log_level" yaml:"log_level"`
	GinMode  string `json:"gin_mode" yaml:"gin_mode"`
}

type Twitch struct {
	Server    string   `json:"server" yaml:"server"`
	OAuth     string   `json:"oauth" yaml:"oauth"`
	ClientID  string   `json:"client_id" yaml:"client_id"`
	Nick      string   `json:"nick" yaml:"nick"`
	Channels  []string `json:"channels" yaml:"channels"`
	Reconnect bool     `json:"reconnect" yaml:"reconnect"`
}

type Proxy struct {
	Address string `json:"address" yaml:"address"`
	Port    int    `json:"port" yaml:"port"`
}

type Emotes struct {
	BTTVBaseURL  string `json:"bttv_base_url" yaml:"bttv_base_url"`
	FFZBaseURL   string `json:"ffz_base_url" yaml:"ffz_base_url"`
	HelixBaseURL string `json:"helix_base_url" yaml:"helix_base_url"`
	// CacheTTL is a duration string such as "30m".
	CacheTTL Duration `json:"cache_ttl" yaml:"cache_ttl"`
	// HelixRPS limits requests per second to the Helix API.
	HelixRPS float64 `json:"helix_rps" yaml:"helix_rps"`
}

type Storage struct {
	PreferencesFile string `json:"preferences_file" yaml:"preferences_file"`
}

type HTTP struct {
	Listen    string `json:"listen" yaml:"listen"`
	AuthToken string `json:"auth_token" yaml:"auth_token"`
}

type Session struct {
	MaxMessages int `json:"max_messages" yaml:"max_messages"`
}

type LogFiles struct {
	File       string `json:"file" yaml:"file"`
	MaxSizeMB  int    `json:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `json:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" yaml:"max_age_days"`
}
