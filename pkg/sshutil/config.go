// Package sshutil reads remote files over SFTP for sftp:// target sources.
//
// Connection settings come from environment variables (with the _FILE secret
// pattern) and may be partially overridden by the source URL, which carries
// the host, port, user and path:
//
//	sftp://deploy@origin.example.net:2222/srv/linesync/dianxin.txt
//
// Host keys are verified against a known_hosts file unless
// LINESYNC_SFTP_INSECURE_IGNORE_HOST_KEY is set.
package sshutil

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default SSH client configuration values.
const (
	DefaultSSHPort    = 22
	DefaultSSHTimeout = 10 * time.Second
)

// ErrNotSFTPURL is returned when a source URL does not use the sftp scheme.
var ErrNotSFTPURL = errors.New("not an sftp:// URL")

// Config holds SSH connection configuration.
type Config struct {
	Host string
	Port int
	User string

	// Exactly one of KeyFile, KeyData or Password is normally set.
	KeyFile       string
	KeyData       string
	KeyPassphrase string
	Password      string

	// KnownHostsFile is used for host key verification.
	// Defaults to ~/.ssh/known_hosts when empty.
	KnownHostsFile string

	// InsecureIgnoreHostKey disables host key verification.
	InsecureIgnoreHostKey bool

	Timeout time.Duration
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []string

	if c.Host == "" {
		errs = append(errs, "host is required")
	}
	if c.User == "" {
		errs = append(errs, "user is required")
	}
	if c.KeyFile == "" && c.KeyData == "" && c.Password == "" {
		errs = append(errs, "an authentication method is required (key_file, key_data or password)")
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, "port must be between 0 and 65535")
	}
	if c.Timeout < 0 {
		errs = append(errs, "timeout must be non-negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("ssh config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Address returns the SSH server address in host:port form.
func (c *Config) Address() string {
	port := c.Port
	if port == 0 {
		port = DefaultSSHPort
	}
	return net.JoinHostPort(c.Host, strconv.Itoa(port))
}

// GetTimeout returns the configured timeout or the default.
func (c *Config) GetTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultSSHTimeout
}

// WithURL returns a copy of c with host, port and user taken from an
// sftp:// URL where present, plus the remote path the URL names.
func (c Config) WithURL(raw string) (Config, string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return c, "", fmt.Errorf("parsing source URL: %w", err)
	}
	if !strings.EqualFold(u.Scheme, "sftp") {
		return c, "", ErrNotSFTPURL
	}
	if u.Hostname() == "" {
		return c, "", fmt.Errorf("sftp URL %q has no host", u.Redacted())
	}
	if u.Path == "" || u.Path == "/" {
		return c, "", fmt.Errorf("sftp URL %q has no path", u.Redacted())
	}

	c.Host = u.Hostname()
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return c, "", fmt.Errorf("invalid port %q in sftp URL: %w", p, err)
		}
		c.Port = port
	}
	if u.User != nil && u.User.Username() != "" {
		c.User = u.User.Username()
	}
	return c, u.Path, nil
}

// LoadConfig reads SSH settings from environment variables named
// {prefix}{setting}. Host and user are optional here because sftp:// URLs
// usually supply them; call Validate after WithURL.
//
// Supported settings: HOST, PORT, USER, KEY_FILE, KEY_DATA, KEY_PASSPHRASE,
// PASSWORD, KNOWN_HOSTS, INSECURE_IGNORE_HOST_KEY, TIMEOUT (seconds).
// Secret settings also accept a {setting}_FILE variant.
func LoadConfig(prefix string) (Config, error) {
	cfg := Config{
		Host:           os.Getenv(prefix + "HOST"),
		User:           os.Getenv(prefix + "USER"),
		KeyFile:        os.Getenv(prefix + "KEY_FILE"),
		KeyData:        getEnvOrFile(prefix + "KEY_DATA"),
		KeyPassphrase:  getEnvOrFile(prefix + "KEY_PASSPHRASE"),
		Password:       getEnvOrFile(prefix + "PASSWORD"),
		KnownHostsFile: os.Getenv(prefix + "KNOWN_HOSTS"),
		Port:           DefaultSSHPort,
	}

	if v := os.Getenv(prefix + "PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %sPORT value %q: %w", prefix, v, err)
		}
		cfg.Port = port
	}

	if v := os.Getenv(prefix + "TIMEOUT"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %sTIMEOUT value %q: %w", prefix, v, err)
		}
		cfg.Timeout = time.Duration(secs) * time.Second
	}

	if v := os.Getenv(prefix + "INSECURE_IGNORE_HOST_KEY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %sINSECURE_IGNORE_HOST_KEY value %q: %w", prefix, v, err)
		}
		cfg.InsecureIgnoreHostKey = b
	}

	return cfg, nil
}

// getEnvOrFile returns the contents of the file named by key+"_FILE" if set
// and readable, else the value of key.
func getEnvOrFile(key string) string {
	if path := os.Getenv(key + "_FILE"); path != "" {
		if content, err := os.ReadFile(path); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return os.Getenv(key)
}
