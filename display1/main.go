// SPDX-FileCopyrightText: 2025 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display1

import (
	"os"

	"github.com/godbus/dbus/v5"
	"github.com/linuxdeepin/go-lib/log"
	"github.com/xfce-mirror/xfce4-settings/loader"
)

var logger = log.NewLogger("xfsettingsd/display")

type daemon struct {
	*loader.ModuleBase
	manager      *Manager
	closeChannel func()
}

func SetLogLevel(pri log.Priority) {
	logger.SetLogLevel(pri)
}

func init() {
	loader.Register(NewModule(logger))
}

func NewModule(logger *log.Logger) *daemon {
	var d = new(daemon)
	d.ModuleBase = loader.NewModuleBase("display", d, logger)
	return d
}

func (*daemon) GetDependencies() []string {
	return []string{}
}

func (d *daemon) Start() error {
	if os.Getenv("WAYLAND_DISPLAY") != "" {
		logger.Warning("wayland session, the display module needs X11")
		return nil
	}

	service := loader.GetService()

	cfg, err := LoadConfig(configFile)
	if err != nil {
		logger.Warning("load config failed, use defaults:", err)
		cfg = defaultConfig()
	}

	conn, err := NewXConn()
	if err != nil {
		return err
	}

	channel, closeChannel, err := OpenChannel(cfg, service.Conn())
	if err != nil {
		conn.Close()
		return err
	}

	m, err := newManager(service, conn, channel, cfg)
	if err != nil {
		closeChannel()
		conn.Close()
		return err
	}
	m.init()

	sysBus, err := dbus.SystemBus()
	if err != nil {
		logger.Warning("failed to connect to the system bus:", err)
	} else {
		err = m.listenPrepareForSleep(sysBus)
		if err != nil {
			logger.Warning("failed to connect signal PrepareForSleep:", err)
		}
	}

	err = service.Export(dbusPath, m)
	if err != nil {
		m.destroy()
		closeChannel()
		return err
	}
	err = service.RequestName(dbusServiceName)
	if err != nil {
		m.destroy()
		closeChannel()
		return err
	}

	d.manager = m
	d.closeChannel = closeChannel
	return nil
}

func (d *daemon) Stop() error {
	if d.manager == nil {
		return nil
	}
	d.manager.destroy()
	d.closeChannel()
	d.manager = nil
	return nil
}
