// SPDX-FileCopyrightText: 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/godbus/dbus/v5"
	. "github.com/linuxdeepin/go-lib/gettext"
	"github.com/linuxdeepin/go-lib/log"
	"github.com/spf13/cobra"
	"github.com/xfce-mirror/xfce4-settings/common/xfconf"
	"github.com/xfce-mirror/xfce4-settings/display1"
)

var logger = log.NewLogger("xfce4-display-settings")

var (
	debug      bool
	configPath string

	rootCmd = &cobra.Command{
		Use:               "xfce4-display-settings",
		Short:             "Configure the outputs of the X screen",
		PersistentPreRun:  setupLogger,
		SilenceErrors:     true,
		SilenceUsage:      true,
		DisableAutoGenTag: true,
	}
)

func setupLogger(cmd *cobra.Command, args []string) {
	if debug {
		logger.SetLogLevel(log.LevelDebug)
		display1.SetLogLevel(log.LevelDebug)
	}
}

// session is what every command works on: the display model and the
// channel holding the profiles.
type session struct {
	conn    display1.Conn
	randr   *display1.Randr
	legacy  *display1.RandrLegacy
	channel xfconf.Channel

	closeChannel func()
}

func openSession() (*session, error) {
	cfg, err := display1.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	var sessionBus *dbus.Conn
	if cfg.Store == display1.StoreXfconf {
		sessionBus, err = dbus.SessionBus()
		if err != nil {
			return nil, err
		}
	}
	channel, closeChannel, err := display1.OpenChannel(cfg, sessionBus)
	if err != nil {
		return nil, err
	}

	conn, err := display1.NewXConn()
	if err != nil {
		closeChannel()
		return nil, err
	}

	s := &session{
		conn:         conn,
		channel:      channel,
		closeChannel: closeChannel,
	}
	s.randr, err = display1.NewRandr(conn)
	if err != nil {
		if !errors.Is(err, display1.ErrOutputsUnsupported) && !errors.Is(err, display1.ErrRandrMissing) {
			s.close()
			return nil, err
		}
		logger.Debug("use the legacy model:", err)
		s.randr = nil
		s.legacy, err = display1.NewRandrLegacy(conn)
		if err != nil {
			s.close()
			return nil, err
		}
	}
	return s, nil
}

func (s *session) close() {
	if s.randr != nil {
		s.randr.Close()
	}
	if s.legacy != nil {
		s.legacy.Close()
	}
	s.conn.Close()
	s.closeChannel()
}

// withSession opens a session for the duration of fn.
func withSession(fn func(cmd *cobra.Command, s *session, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.close()
		return fn(cmd, s, args)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", display1.DefaultConfigFile(),
		"Path to the configuration file")
}

func main() {
	InitI18n()
	BindTextdomainCodeset("xfce4-settings", "UTF-8")
	Textdomain("xfce4-settings")

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
