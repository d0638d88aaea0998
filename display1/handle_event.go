// SPDX-FileCopyrightText: 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display1

func (m *Manager) handleXEvent(ev EventType) {
	switch ev {
	case EventScreenChanged, EventOutputChanged:
		logger.Debug("randr event", ev)
		err := m.reload()
		if err != nil {
			logger.Warning(err)
		}
	}
}

// handlePropertyChanged reacts to a scheme name written to /Schemes/Apply.
func (m *Manager) handlePropertyChanged(property string, value interface{}) {
	if property != propSchemesApply {
		return
	}
	name, _ := value.(string)
	if name == "" {
		return
	}
	// the writer may hold m.mu
	go m.handleSchemesApply(name)
}

func (m *Manager) handleSchemesApply(name string) {
	logger.Debug("apply scheme requested:", name)
	err := m.applyScheme(name)
	if err != nil {
		logger.Warningf("apply scheme %s failed: %v", name, err)
	}
	err = m.channel.ResetProperty(propSchemesApply, false)
	if err != nil {
		logger.Warning(err)
	}
}
