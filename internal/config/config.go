// Package config loads the standalone/CLI-run configuration file: the
// project-pair list, Host Contract fields, and engine option toggles
// that a production host would otherwise pass directly to Setup. It has
// no bearing on production embedding — there, the host is the sole
// source of truth for credentials and calls Setup directly — but
// cmd/synccli and local/out-of-process testing need a file-backed
// equivalent, the same relationship the teacher's yaml_config.go has
// between config.yaml and its SQLite-backed runtime config.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"

	"github.com/hubforge/sync-core/internal/mapping"
	"github.com/hubforge/sync-core/internal/types"
)

// ProjectPair is the TOML shape of one administratively configured Hub/
// Tracker project pair (spec.md §3).
type ProjectPair struct {
	HubProjectID      int    `mapstructure:"hub_project_id" toml:"hub_project_id"`
	TrackerProjectKey string `mapstructure:"tracker_project_key" toml:"tracker_project_key"`
}

// MappingStore is the TOML shape of the SQL-backed mapping-table
// connection, mirroring mapping.Config field-for-field.
type MappingStore struct {
	Path     string `mapstructure:"path" toml:"path"`
	Database string `mapstructure:"database" toml:"database"`

	ServerMode     bool   `mapstructure:"server_mode" toml:"server_mode"`
	ServerHost     string `mapstructure:"server_host" toml:"server_host"`
	ServerPort     int    `mapstructure:"server_port" toml:"server_port"`
	ServerUser     string `mapstructure:"server_user" toml:"server_user"`
	ServerPassword string `mapstructure:"server_password" toml:"server_password"`
	ServerTLS      bool   `mapstructure:"server_tls" toml:"server_tls"`
}

func (m MappingStore) toMappingConfig() *mapping.Config {
	return &mapping.Config{
		Path:           m.Path,
		Database:       m.Database,
		ServerMode:     m.ServerMode,
		ServerHost:     m.ServerHost,
		ServerPort:     m.ServerPort,
		ServerUser:     m.ServerUser,
		ServerPassword: m.ServerPassword,
		ServerTLS:      m.ServerTLS,
	}
}

// File is the decoded shape of a synccore TOML configuration file:
// everything spec.md §6.1's Setup call needs, plus the project-pair list
// and mapping-store connection settings that a production host supplies
// through its own mechanism instead.
type File struct {
	DataSyncSystemID int  `mapstructure:"data_sync_system_id" toml:"data_sync_system_id"`
	TraceLogging     bool `mapstructure:"trace_logging" toml:"trace_logging"`

	HubBaseURL string `mapstructure:"hub_base_url" toml:"hub_base_url"`
	HubUser    string `mapstructure:"hub_user" toml:"hub_user"`
	HubPass    string `mapstructure:"hub_pass" toml:"hub_pass"`

	TrackerBaseURL string `mapstructure:"tracker_base_url" toml:"tracker_base_url"`
	TrackerUser    string `mapstructure:"tracker_user" toml:"tracker_user"`
	TrackerPass    string `mapstructure:"tracker_pass" toml:"tracker_pass"`

	OffsetHours  int  `mapstructure:"offset_hours" toml:"offset_hours"`
	AutoMapUsers bool `mapstructure:"auto_map_users" toml:"auto_map_users"`

	Custom01 string `mapstructure:"custom01" toml:"custom01"`
	Custom02 string `mapstructure:"custom02" toml:"custom02"`
	Custom03 string `mapstructure:"custom03" toml:"custom03"`
	Custom04 string `mapstructure:"custom04" toml:"custom04"`
	Custom05 string `mapstructure:"custom05" toml:"custom05"`

	Projects     []ProjectPair `mapstructure:"projects" toml:"projects"`
	MappingStore MappingStore  `mapstructure:"mapping_store" toml:"mapping_store"`
}

// Load reads a TOML configuration file with viper, the teacher's loader
// of choice (cmd/bd/config.go, internal/labelmutex/policy.go) generalized
// from config.yaml to config.toml.
func Load(path string) (*File, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	return &f, nil
}

// ValidateNoUnknownKeys strict-decodes path with BurntSushi/toml and
// reports any key the File struct doesn't declare. viper's Unmarshal
// silently drops keys it doesn't recognize; this surfaces operator
// typos (e.g. "hub_baseurl" instead of "hub_base_url") that would
// otherwise fail only at Setup time with a confusing empty-credential
// error.
func ValidateNoUnknownKeys(path string) error {
	var f File
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unrecognized config key(s) in %s: %s", path, strings.Join(keys, ", "))
	}
	return nil
}

// ProjectPairs converts the TOML project list into engine-ready pairs.
func (f *File) ProjectPairs() []types.ProjectPair {
	out := make([]types.ProjectPair, len(f.Projects))
	for i, p := range f.Projects {
		out[i] = types.ProjectPair{HubProjectID: p.HubProjectID, TrackerProjectKey: p.TrackerProjectKey}
	}
	return out
}

// MappingConfig returns the mapping store connection settings, or nil
// when the file declares none (the caller falls back to an in-memory
// store, e.g. for --dry-run).
func (f *File) MappingConfig() *mapping.Config {
	if f.MappingStore == (MappingStore{}) {
		return nil
	}
	return f.MappingStore.toMappingConfig()
}

// ParseRequirementIssueTypes splits custom04's comma-separated Tracker
// issue-type id list (spec.md §6.1) into the set form engine.Options
// wants.
func ParseRequirementIssueTypes(custom04 string) map[string]bool {
	out := make(map[string]bool)
	for _, id := range strings.Split(custom04, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			out[id] = true
		}
	}
	return out
}

// ParseBoolOption parses a Host Contract custom-option boolean
// (spec.md §6.1: `"true"` case-insensitive enables; anything else
// disables) rather than using strconv.ParseBool's stricter grammar,
// which would reject the empty string most unset options arrive as.
func ParseBoolOption(value string) bool {
	return strings.EqualFold(strings.TrimSpace(value), "true")
}

// ParseIntOption parses a decimal custom-option (custom01's Tracker
// field id), returning 0 (meaning "disabled") for an empty or
// unparsable value rather than an error — an operator leaving custom01
// blank is the documented way to disable severity mirroring, not a
// malformed config.
func ParseIntOption(value string) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return n
}
