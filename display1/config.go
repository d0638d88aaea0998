// SPDX-FileCopyrightText: 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display1

import (
	"os"
	"path/filepath"

	"github.com/godbus/dbus/v5"
	"github.com/linuxdeepin/go-lib/xdg/basedir"
	"github.com/xfce-mirror/xfce4-settings/common/xfconf"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

const (
	StoreXfconf = "xfconf"
	StoreFile   = "file"

	defaultChannel = "displays"
)

// ~/.config/xfce4/xfsettingsd/display.yaml
var configFile = filepath.Join(getCfgDir(), "display.yaml")

func DefaultConfigFile() string {
	return configFile
}

func getCfgDir() string {
	return filepath.Join(basedir.GetUserConfigDir(), "xfce4/xfsettingsd")
}

type Config struct {
	// where the profiles are kept, "xfconf" or "file"
	Store   string `yaml:"store"`
	Channel string `yaml:"channel"`
	// used when Store is "file"
	StoreFile string `yaml:"storeFile"`
	// apply the matching profile when outputs are plugged or unplugged
	AutoEnableProfiles  bool `yaml:"autoEnableProfiles"`
	ApplyDefaultOnStart bool `yaml:"applyDefaultOnStart"`
}

func defaultConfig() *Config {
	return &Config{
		Store:               StoreXfconf,
		Channel:             defaultChannel,
		StoreFile:           filepath.Join(getCfgDir(), "displays.yaml"),
		AutoEnableProfiles:  true,
		ApplyDefaultOnStart: true,
	}
}

// LoadConfig returns the defaults when filename does not exist.
func LoadConfig(filename string) (*Config, error) {
	cfg := defaultConfig()
	// #nosec G304
	content, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	err = yaml.Unmarshal(content, cfg)
	if err != nil {
		return nil, xerrors.Errorf("failed to parse %s: %w", filename, err)
	}
	if cfg.Channel == "" {
		cfg.Channel = defaultChannel
	}
	switch cfg.Store {
	case StoreXfconf, StoreFile:
	case "":
		cfg.Store = StoreXfconf
	default:
		return nil, xerrors.Errorf("invalid store %q in %s", cfg.Store, filename)
	}
	if cfg.StoreFile == "" {
		cfg.StoreFile = defaultConfig().StoreFile
	}
	return cfg, nil
}

// OpenChannel opens the store selected by cfg. The returned function
// releases it.
func OpenChannel(cfg *Config, sessionBus *dbus.Conn) (xfconf.Channel, func(), error) {
	switch cfg.Store {
	case StoreFile:
		ch, err := xfconf.NewFileChannel(cfg.Channel, cfg.StoreFile)
		if err != nil {
			return nil, nil, err
		}
		err = ch.Watch()
		if err != nil {
			logger.Warning("watch store file failed:", err)
		}
		return ch, func() {
			err := ch.Close()
			if err != nil {
				logger.Warning(err)
			}
		}, nil
	default:
		if sessionBus == nil {
			return nil, nil, xerrors.New("no session bus for the xfconf store")
		}
		ch, err := xfconf.NewDBusChannel(sessionBus, cfg.Channel)
		if err != nil {
			return nil, nil, err
		}
		return ch, ch.Close, nil
	}
}
