// SPDX-FileCopyrightText: 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display1

import (
	"github.com/godbus/dbus/v5"
	login1 "github.com/linuxdeepin/go-dbus-factory/system/org.freedesktop.login1"
	"github.com/linuxdeepin/go-lib/dbusutil"
	"github.com/linuxdeepin/go-lib/dbusutil/proxy"
)

// listenPrepareForSleep probes the outputs again after a resume, monitors
// may have been plugged while the machine was asleep.
func (m *Manager) listenPrepareForSleep(sysBus *dbus.Conn) error {
	m.sysSigLoop = dbusutil.NewSignalLoop(sysBus, 10)
	m.sysSigLoop.Start()

	m.loginManager = login1.NewManager(sysBus)
	m.loginManager.InitSignalExt(m.sysSigLoop, true)
	_, err := m.loginManager.ConnectPrepareForSleep(func(start bool) {
		if start {
			return
		}
		logger.Debug("resumed, probe the outputs")
		err := m.reload()
		if err != nil {
			logger.Warning(err)
		}
	})
	return err
}

func (m *Manager) stopListenPrepareForSleep() {
	if m.loginManager != nil {
		m.loginManager.RemoveHandler(proxy.RemoveAllHandlers)
		m.loginManager = nil
	}
	if m.sysSigLoop != nil {
		m.sysSigLoop.Stop()
		m.sysSigLoop = nil
	}
}
