package bridge

import (
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"
)

// RestartPolicy governs what happens when the tool provider process dies
// unexpectedly. The zero value never restarts: the bridge stays down and
// every call fails fast until Start is invoked again.
type RestartPolicy struct {
	// MaxRestarts bounds automatic restart attempts per Start; zero
	// disables restarting.
	MaxRestarts int `yaml:"maxRestarts" json:"maxRestarts,omitempty" env:"BRIDGE_MAX_RESTARTS"`
	// Backoff is the delay before the first restart attempt; each further
	// attempt doubles it.
	Backoff time.Duration `yaml:"backoff" json:"backoff,omitempty" env:"BRIDGE_RESTART_BACKOFF"`
}

// Options configures a bridge instance.
type Options struct {
	// Name and Version identify this client in the initialize handshake.
	Name    string `yaml:"name" json:"name,omitempty" env:"BRIDGE_NAME"`
	Version string `yaml:"version" json:"version,omitempty" env:"BRIDGE_VERSION"`
	// ProtocolVersion overrides the MCP protocol revision to negotiate.
	ProtocolVersion string `yaml:"protocolVersion" json:"protocolVersion,omitempty" env:"BRIDGE_PROTOCOL_VERSION"`

	// Command launches the tool provider; Arguments, Env and Dir shape
	// the child process.
	Command   string   `yaml:"command" json:"command" env:"BRIDGE_COMMAND"`
	Arguments []string `yaml:"arguments" json:"arguments,omitempty" env:"BRIDGE_ARGUMENTS"`
	Env       []string `yaml:"env" json:"env,omitempty" env:"BRIDGE_ENV"`
	Dir       string   `yaml:"dir" json:"dir,omitempty" env:"BRIDGE_DIR"`

	// GracePeriod is how long to wait after spawning before the
	// initialize handshake, giving slow interpreters time to come up.
	GracePeriod time.Duration `yaml:"gracePeriod" json:"gracePeriod,omitempty" env:"BRIDGE_GRACE_PERIOD"`
	// RequestTimeout is the per-request deadline (default 30s).
	RequestTimeout time.Duration `yaml:"requestTimeout" json:"requestTimeout,omitempty" env:"BRIDGE_REQUEST_TIMEOUT"`
	// PingInterval enables a keepalive ping loop when positive; a failed
	// ping is treated like a process failure.
	PingInterval time.Duration `yaml:"pingInterval" json:"pingInterval,omitempty" env:"BRIDGE_PING_INTERVAL"`

	Restart RestartPolicy `yaml:"restart" json:"restart,omitempty"`

	// HistoryCapacity bounds execution records retained per conversation.
	HistoryCapacity int `yaml:"historyCapacity" json:"historyCapacity,omitempty" env:"BRIDGE_HISTORY_CAPACITY"`
}

// yamlOptions mirrors Options with durations spelled the way config
// files write them ("30s", "300ms").
type yamlOptions struct {
	Name            string   `yaml:"name"`
	Version         string   `yaml:"version"`
	ProtocolVersion string   `yaml:"protocolVersion"`
	Command         string   `yaml:"command"`
	Arguments       []string `yaml:"arguments"`
	Env             []string `yaml:"env"`
	Dir             string   `yaml:"dir"`
	GracePeriod     string   `yaml:"gracePeriod"`
	RequestTimeout  string   `yaml:"requestTimeout"`
	PingInterval    string   `yaml:"pingInterval"`
	Restart         struct {
		MaxRestarts int    `yaml:"maxRestarts"`
		Backoff     string `yaml:"backoff"`
	} `yaml:"restart"`
	HistoryCapacity int `yaml:"historyCapacity"`
}

// UnmarshalYAML decodes options from a config document, parsing duration
// strings.
func (o *Options) UnmarshalYAML(node *yaml.Node) error {
	raw := yamlOptions{}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	o.Name = raw.Name
	o.Version = raw.Version
	o.ProtocolVersion = raw.ProtocolVersion
	o.Command = raw.Command
	o.Arguments = raw.Arguments
	o.Env = raw.Env
	o.Dir = raw.Dir
	o.HistoryCapacity = raw.HistoryCapacity
	o.Restart.MaxRestarts = raw.Restart.MaxRestarts
	var err error
	if o.GracePeriod, err = parseDuration("gracePeriod", raw.GracePeriod); err != nil {
		return err
	}
	if o.RequestTimeout, err = parseDuration("requestTimeout", raw.RequestTimeout); err != nil {
		return err
	}
	if o.PingInterval, err = parseDuration("pingInterval", raw.PingInterval); err != nil {
		return err
	}
	if o.Restart.Backoff, err = parseDuration("restart.backoff", raw.Restart.Backoff); err != nil {
		return err
	}
	return nil
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", field, err)
	}
	return parsed, nil
}

// Init applies defaults for unset options.
func (o *Options) Init() {
	if o.Name == "" {
		o.Name = "office-bridge"
	}
	if o.Version == "" {
		o.Version = "0.1.0"
	}
	if o.GracePeriod <= 0 {
		o.GracePeriod = 300 * time.Millisecond
	}
	if o.Restart.MaxRestarts > 0 && o.Restart.Backoff <= 0 {
		o.Restart.Backoff = time.Second
	}
}

// Option customises a bridge beyond its Options.
type Option func(s *Service)

// WithLogger sets the structured logger shared by the bridge, the
// transport and the execution engine.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNotificationListener observes notifications from the tool provider.
func WithNotificationListener(listener func(method string, params []byte)) Option {
	return func(s *Service) {
		s.onNotification = listener
	}
}
