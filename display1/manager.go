// SPDX-FileCopyrightText: 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display1

import (
	"errors"
	"sort"
	"strings"
	"sync"

	login1 "github.com/linuxdeepin/go-dbus-factory/system/org.freedesktop.login1"
	"github.com/linuxdeepin/go-lib/dbusutil"
	"github.com/linuxdeepin/go-lib/strv"
	"github.com/xfce-mirror/xfce4-settings/common/xfconf"
	"golang.org/x/xerrors"
)

const (
	dbusServiceName = "org.xfce.SettingsDaemon.Display1"
	dbusInterface   = "org.xfce.SettingsDaemon.Display1"
	dbusPath        = "/org/xfce/SettingsDaemon/Display1"
)

// Manager keeps the display model of the session up to date and applies
// the profiles stored in the channel.
type Manager struct {
	service    *dbusutil.Service
	conn       Conn
	capability Capability
	cfg        *Config
	channel    xfconf.Channel

	// mu guards the models, X events and D-Bus calls arrive on
	// different goroutines
	mu        sync.Mutex
	randr     *Randr
	legacy    *RandrLegacy
	outputsId string

	channelHandlerId xfconf.HandlerId

	sysSigLoop   *dbusutil.SignalLoop
	loginManager login1.Manager

	//nolint
	signals *struct {
		ProfileApplied struct {
			name string
		}
		OutputsChanged struct{}
	}
}

func newManager(service *dbusutil.Service, conn Conn, channel xfconf.Channel, cfg *Config) (*Manager, error) {
	capability, err := NegotiateCapability(conn)
	if err != nil {
		return nil, err
	}
	logger.Info("randr capability:", capability)

	m := &Manager{
		service:    service,
		conn:       conn,
		capability: capability,
		cfg:        cfg,
		channel:    channel,
	}

	if capability != CapabilityLegacyOnly {
		m.randr, err = newRandr(conn, capability)
		if err != nil {
			if !errors.Is(err, ErrOutputsUnsupported) {
				return nil, err
			}
			logger.Info("driver has no outputs support, use the legacy model")
			m.randr = nil
		}
	}
	if m.randr == nil {
		m.legacy = &RandrLegacy{conn: conn}
		err = m.legacy.populate()
		if err != nil {
			return nil, err
		}
	} else {
		m.outputsId = getOutputsId(m.randr)
	}
	return m, nil
}

func (m *Manager) init() {
	m.channelHandlerId = m.channel.ConnectPropertyChanged(m.handlePropertyChanged)

	if m.cfg.ApplyDefaultOnStart && schemeExists(DefaultScheme, m.channel) {
		m.mu.Lock()
		err := m.applySchemeNoLock(DefaultScheme)
		m.mu.Unlock()
		if err != nil {
			logger.Warning("apply default scheme failed:", err)
		}
	}

	err := m.conn.ListenEvents(m.handleXEvent)
	if err != nil {
		logger.Warning(err)
	}
}

func (m *Manager) destroy() {
	m.stopListenPrepareForSleep()
	m.channel.DisconnectPropertyChanged(m.channelHandlerId)
	if m.service != nil {
		err := m.service.StopExport(m)
		if err != nil {
			logger.Warning(err)
		}
	}
	m.mu.Lock()
	if m.randr != nil {
		m.randr.Close()
	}
	if m.legacy != nil {
		m.legacy.Close()
	}
	m.mu.Unlock()
	m.conn.Close()
}

// getOutputsId identifies the set of connected monitors.
func getOutputsId(r *Randr) string {
	ids := make([]string, len(r.Outputs))
	for i, output := range r.Outputs {
		ids[i] = output.Name + ":" + outputIdentity(output.EDID)
	}
	sort.Strings(ids)
	return strings.Join(ids, ",")
}

// chooseProfile picks the profile to enable among the matching ones, the
// active profile is kept when it still matches.
func chooseProfile(profiles []string, activeProfile string) string {
	if len(profiles) == 0 {
		return ""
	}
	if activeProfile != "" && strv.Strv(profiles).Contains(activeProfile) {
		return activeProfile
	}
	return profiles[0]
}

func (m *Manager) applySchemeNoLock(name string) error {
	var err error
	if m.randr != nil {
		err = ApplyScheme(m.randr, name, m.channel)
		if err == nil {
			m.outputsId = getOutputsId(m.randr)
		}
	} else {
		err = ApplyLegacyScheme(m.legacy, name, m.channel)
	}
	if err != nil {
		return err
	}
	logger.Info("applied scheme", name)

	if name != DefaultScheme {
		setProperty(m.channel, propActiveProfile, name)
	}
	if m.service != nil {
		err = m.service.Emit(m, "ProfileApplied", name)
		if err != nil {
			logger.Warning(err)
		}
	}
	return nil
}

func (m *Manager) applyScheme(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applySchemeNoLock(name)
}

func (m *Manager) autoEnableProfilesEnabled() bool {
	return m.cfg.AutoEnableProfiles &&
		xfconf.GetBool(m.channel, propAutoEnableProfiles, true)
}

// reload probes the outputs again. When the connected monitors changed, the
// matching profile is applied.
func (m *Manager) reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.randr == nil {
		return m.legacy.Reload()
	}

	err := m.randr.Reload()
	if err != nil {
		return xerrors.Errorf("failed to reload outputs: %w", err)
	}
	outputsId := getOutputsId(m.randr)
	if outputsId == m.outputsId {
		return nil
	}
	logger.Debugf("outputs changed: %q -> %q", m.outputsId, outputsId)
	m.outputsId = outputsId

	if m.service != nil {
		err = m.service.Emit(m, "OutputsChanged")
		if err != nil {
			logger.Warning(err)
		}
	}

	if !m.autoEnableProfilesEnabled() {
		return nil
	}
	profiles := ListProfiles(m.randr.DisplayInfos(), m.channel)
	name := chooseProfile(profiles, xfconf.GetString(m.channel, propActiveProfile, ""))
	if name == "" {
		logger.Info("no profile matches the connected outputs")
		return nil
	}
	logger.Debugf("matching profiles: %v, enable %s", profiles, name)
	return m.applySchemeNoLock(name)
}

func (m *Manager) getOutputs() []*Output {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.randr == nil {
		return nil
	}
	outputs := make([]*Output, len(m.randr.Outputs))
	for i, output := range m.randr.Outputs {
		outputCp := *output
		outputs[i] = &outputCp
	}
	return outputs
}

func (m *Manager) listProfiles() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.randr == nil {
		return nil
	}
	return ListProfiles(m.randr.DisplayInfos(), m.channel)
}

func (m *Manager) saveProfile(id, displayName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.randr == nil {
		m.legacy.Save(id, m.channel)
		return nil
	}
	if displayName == "" {
		displayName = id
	}
	if !ProfileExists(id, m.channel) && !IsProfileNameAvailable(displayName, m.channel) {
		return xerrors.Errorf("profile name %q is already used", displayName)
	}
	return SaveProfile(m.randr, id, displayName, m.channel)
}
