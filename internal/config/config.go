package config

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Mailbox kinds.
const (
	MailboxIMAP = "imap"
	MailboxDir  = "dir"
)

// Config holds application configuration.
type Config struct {
	// MaxCache is the digest cache capacity of a session
	MaxCache int `json:"max_cache"`

	// MaxHistory is the number of user/agent exchanges a session keeps
	MaxHistory int `json:"max_history"`

	// LogLevel is one of debug, info, warn, error.
	// MULL_LOG_LEVEL overrides it.
	LogLevel string `json:"log_level,omitempty"`

	// Mailbox selects and configures the mailbox provider.
	Mailbox MailboxConfig `json:"mailbox"`

	// AgentCommand is the external reasoning command (argv). The prompt is
	// written to its stdin. Empty disables ask/chat.
	AgentCommand []string `json:"agent_command,omitempty"`

	// HTTPBind and HTTPPort configure the web transport.
	HTTPBind string `json:"http_bind,omitempty"`
	HTTPPort int    `json:"http_port,omitempty"`

	// DBMaxOpenConns limits the maximum number of open ledger connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle ledger connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes is a list of tool type prefixes to disable entirely
	// ("email", "context", "triage").
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// MailboxConfig configures the mailbox provider.
type MailboxConfig struct {
	// Kind is "imap" or "dir". Empty means no mailbox.
	Kind string `json:"kind,omitempty"`

	// Dir is the message directory for the dir provider.
	Dir string `json:"dir,omitempty"`

	IMAPHost string `json:"imap_host,omitempty"`
	IMAPPort string `json:"imap_port,omitempty"`
	SMTPHost string `json:"smtp_host,omitempty"`
	SMTPPort string `json:"smtp_port,omitempty"`
	Username string `json:"username,omitempty"`

	// TLS selects implicit TLS; otherwise STARTTLS is used.
	TLS bool `json:"tls,omitempty"`

	// Folder is the IMAP mailbox to read (default INBOX).
	Folder string `json:"folder,omitempty"`

	// ArchiveFolders are tried in order by archive.
	ArchiveFolders []string `json:"archive_folders,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxCache:   50,
		MaxHistory: 10,
		LogLevel:   "info",
		HTTPBind:   "127.0.0.1",
		HTTPPort:   8765,
		Mailbox: MailboxConfig{
			IMAPPort: "993",
			SMTPPort: "587",
			TLS:      true,
			Folder:   "INBOX",
		},
	}
}

// Load loads configuration from baseDir/config.json merged over the
// defaults, then applies environment overrides.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.mull.
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	merged := Merge(DefaultConfig(), cfg)
	applyEnv(merged)
	return merged, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if lvl := strings.TrimSpace(os.Getenv("MULL_LOG_LEVEL")); lvl != "" {
		cfg.LogLevel = lvl
	}
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated,
// except AgentCommand, which is an argv and is replaced as a whole.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		MaxCache:       firstNonZero(overlay.MaxCache, base.MaxCache),
		MaxHistory:     firstNonZero(overlay.MaxHistory, base.MaxHistory),
		LogLevel:       firstNonEmpty(overlay.LogLevel, base.LogLevel),
		HTTPBind:       firstNonEmpty(overlay.HTTPBind, base.HTTPBind),
		HTTPPort:       firstNonZero(overlay.HTTPPort, base.HTTPPort),
		DBMaxOpenConns: firstNonZero(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns: firstNonZero(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
		Mailbox:        mergeMailbox(base.Mailbox, overlay.Mailbox),
	}

	result.AgentCommand = base.AgentCommand
	if len(overlay.AgentCommand) > 0 {
		result.AgentCommand = overlay.AgentCommand
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func mergeMailbox(base, overlay MailboxConfig) MailboxConfig {
	return MailboxConfig{
		Kind:     firstNonEmpty(overlay.Kind, base.Kind),
		Dir:      firstNonEmpty(overlay.Dir, base.Dir),
		IMAPHost: firstNonEmpty(overlay.IMAPHost, base.IMAPHost),
		IMAPPort: firstNonEmpty(overlay.IMAPPort, base.IMAPPort),
		SMTPHost: firstNonEmpty(overlay.SMTPHost, base.SMTPHost),
		SMTPPort: firstNonEmpty(overlay.SMTPPort, base.SMTPPort),
		Username: firstNonEmpty(overlay.Username, base.Username),
		// Booleans: overlay wins if true, else base
		TLS:            base.TLS || overlay.TLS,
		Folder:         firstNonEmpty(overlay.Folder, base.Folder),
		ArchiveFolders: mergeStringSlice(base.ArchiveFolders, overlay.ArchiveFolders),
	}
}

// SlogLevel maps LogLevel to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func firstNonZero(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
