// SPDX-FileCopyrightText: 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display1

import (
	"encoding/json"

	"github.com/godbus/dbus/v5"
	"github.com/linuxdeepin/go-lib/dbusutil"
)

func (m *Manager) GetInterfaceName() string {
	return dbusInterface
}

func (m *Manager) ListProfiles() (profiles []string, busErr *dbus.Error) {
	logger.Debug("dbus call ListProfiles")
	return m.listProfiles(), nil
}

func (m *Manager) ApplyProfile(name string) *dbus.Error {
	logger.Debug("dbus call ApplyProfile", name)
	err := m.applyScheme(name)
	return dbusutil.ToError(err)
}

func (m *Manager) SaveProfile(id, displayName string) *dbus.Error {
	logger.Debug("dbus call SaveProfile", id, displayName)
	err := m.saveProfile(id, displayName)
	return dbusutil.ToError(err)
}

func (m *Manager) DeleteProfile(name string) *dbus.Error {
	logger.Debug("dbus call DeleteProfile", name)
	err := DeleteProfile(name, m.channel)
	return dbusutil.ToError(err)
}

func (m *Manager) Reload() *dbus.Error {
	logger.Debug("dbus call Reload")
	err := m.reload()
	return dbusutil.ToError(err)
}

type outputJSON struct {
	Name         string
	FriendlyName string
	Enabled      bool
	Primary      bool
	Width        uint16
	Height       uint16
	RefreshRate  float64
	Rotation     int
	Reflection   string
	Rotations    []int
	Reflections  []string
	X            int16
	Y            int16
	EDID         string
	Modes        []string
}

func toOutputJSON(output *Output) outputJSON {
	mode := output.activeModeInfo()
	result := outputJSON{
		Name:         output.Name,
		FriendlyName: output.FriendlyName,
		Enabled:      output.Enabled(),
		Primary:      output.Status == OutputStatusPrimary,
		Width:        mode.Width,
		Height:       mode.Height,
		RefreshRate:  mode.Rate,
		Rotation:     rotationToDegrees(output.Rotation),
		Reflection:   reflectionToString(output.Rotation),
		X:            output.X,
		Y:            output.Y,
		EDID:         outputIdentity(output.EDID),
	}
	for _, rotation := range getRotations(output.Rotations) {
		result.Rotations = append(result.Rotations, rotationToDegrees(rotation))
	}
	for _, reflect := range getReflects(output.Rotations) {
		result.Reflections = append(result.Reflections, reflectionToString(reflect))
	}
	for _, m := range output.Modes {
		result.Modes = append(result.Modes, m.String())
	}
	return result
}

// GetOutputs returns the connected outputs as a JSON array.
func (m *Manager) GetOutputs() (outputs string, busErr *dbus.Error) {
	var list []outputJSON
	for _, output := range m.getOutputs() {
		list = append(list, toOutputJSON(output))
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", dbusutil.ToError(err)
	}
	return string(data), nil
}
