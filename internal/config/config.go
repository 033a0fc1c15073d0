// Package config locates and loads the files wake reads at startup: the
// lookup table and the optional sender settings.
package config

import (
	"net/netip"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"

	"github.com/PieterD/wake"
)

const (
	// AppName is the directory created under the user config directory.
	AppName = "wake"
	// LookupFile holds "name : address" lines.
	LookupFile = "MAC.config"
	// SettingsFile holds optional sender settings.
	SettingsFile = "wake.yaml"

	// BindAuto selects the first local IPv4 address as bind address.
	BindAuto = "auto"
)

// Settings control how packets are sent.
type Settings struct {
	Port      int    `koanf:"port"`
	Broadcast string `koanf:"broadcast"`
	Bind      string `koanf:"bind"`
}

// DefaultSettings broadcast to 255.255.255.255:9 from the wildcard address.
func DefaultSettings() Settings {
	return Settings{
		Port:      wake.DefaultPort,
		Broadcast: wake.DefaultDestination.Addr().String(),
		Bind:      netip.IPv4Unspecified().String(),
	}
}

// Dir returns the per-user configuration directory for wake.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", &wake.ConfigError{Path: AppName, Err: err}
	}
	return filepath.Join(base, AppName), nil
}

// EnsureLookupFile creates dir and an empty lookup file in it if they do not
// exist, and returns the lookup file path.
func EnsureLookupFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &wake.ConfigError{Path: dir, Err: errors.Wrapf(err, "failed to create config directory")}
	}
	path := filepath.Join(dir, LookupFile)
	f, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE, 0o644)
	if err != nil {
		return "", &wake.ConfigError{Path: path, Err: errors.Wrapf(err, "failed to create lookup file")}
	}
	if err := f.Close(); err != nil {
		return "", &wake.ConfigError{Path: path, Err: err}
	}
	return path, nil
}

// LoadLookupTable reads the lookup file at path.
func LoadLookupTable(path string) (*wake.LookupTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &wake.ConfigError{Path: path, Err: errors.Wrapf(err, "failed to open lookup file")}
	}
	defer f.Close()
	table, err := wake.ParseLookupTable(f)
	if err != nil {
		return nil, &wake.ConfigError{Path: path, Err: err}
	}
	return table, nil
}

// LoadSettings reads the settings file in dir over DefaultSettings. A
// missing file yields the defaults.
func LoadSettings(dir string) (Settings, error) {
	settings := DefaultSettings()
	path := filepath.Join(dir, SettingsFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return settings, nil
	}
	if err != nil {
		return settings, &wake.ConfigError{Path: path, Err: errors.Wrapf(err, "failed to read settings")}
	}
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return settings, &wake.ConfigError{Path: path, Err: errors.Wrapf(err, "failed to parse settings")}
	}
	if err := k.Unmarshal("", &settings); err != nil {
		return settings, &wake.ConfigError{Path: path, Err: errors.Wrapf(err, "failed to decode settings")}
	}
	return settings, nil
}

// SenderOptions converts settings into options for wake.NewSender.
func (s Settings) SenderOptions() ([]wake.SenderOption, error) {
	if s.Port == 0 {
		return nil, wake.ErrZeroPort
	}
	if s.Port < 0 || s.Port > 0xFFFF {
		return nil, errors.Errorf("port %d out of range", s.Port)
	}
	bcast, err := netip.ParseAddr(strings.TrimSpace(s.Broadcast))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid broadcast address '%s'", s.Broadcast)
	}
	bcast = bcast.Unmap()
	if !bcast.Is4() {
		return nil, errors.Errorf("broadcast address '%s' is not IPv4", s.Broadcast)
	}
	opts := []wake.SenderOption{wake.WithDestination(netip.AddrPortFrom(bcast, uint16(s.Port)))}
	bind := strings.TrimSpace(s.Bind)
	switch bind {
	case "":
	case BindAuto:
		opts = append(opts, wake.WithLocalAddr())
	default:
		addr, err := netip.ParseAddr(bind)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid bind address '%s'", s.Bind)
		}
		opts = append(opts, wake.WithBindAddr(addr))
	}
	return opts, nil
}
