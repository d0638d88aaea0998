// SPDX-FileCopyrightText: 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display1

import (
	"fmt"

	"github.com/xfce-mirror/xfce4-settings/common/xfconf"
)

func errReservedProfileName(name string) error {
	return fmt.Errorf("%q is a reserved name", name)
}

func setProperty(ch xfconf.Channel, property string, value interface{}) {
	err := ch.SetProperty(property, value)
	if err != nil {
		logger.Warningf("set property %s failed: %v", property, err)
	}
}

// SaveOutput writes the state of the output at index idx under scheme.
func SaveOutput(r *Randr, idx int, scheme string, ch xfconf.Channel) {
	if idx < 0 || idx >= len(r.Outputs) {
		logger.Warning("invalid output index", idx)
		return
	}
	output := r.Outputs[idx]
	base := xfconf.JoinPath(scheme, output.Name)

	setProperty(ch, base, output.FriendlyName)
	setProperty(ch, base+"/EDID", outputIdentity(output.EDID))

	mode := output.activeModeInfo()
	if mode.isZero() {
		setProperty(ch, base+"/Active", false)
		return
	}
	setProperty(ch, base+"/Active", true)

	setProperty(ch, base+"/Resolution", formatResolution(mode.Width, mode.Height))
	setProperty(ch, base+"/RefreshRate", mode.Rate)
	setProperty(ch, base+"/Rotation", rotationToDegrees(output.Rotation))
	setProperty(ch, base+"/Reflection", reflectionToString(output.Rotation))
	if r.HasPrimary() {
		setProperty(ch, base+"/Primary", output.Status == OutputStatusPrimary)
	}

	// negative positions can not be stored
	posX, posY := int(output.X), int(output.Y)
	if posX < 0 {
		posX = 0
	}
	if posY < 0 {
		posY = 0
	}
	setProperty(ch, base+"/Position/X", posX)
	setProperty(ch, base+"/Position/Y", posY)
}

func SaveAll(r *Randr, scheme string, ch xfconf.Channel) {
	for idx := range r.Outputs {
		SaveOutput(r, idx, scheme, ch)
	}
}

// SaveProfile stores all outputs as profile id, named displayName.
func SaveProfile(r *Randr, id, displayName string, ch xfconf.Channel) error {
	if id == "" {
		return fmt.Errorf("empty profile name")
	}
	if reservedProfileNames.Contains(id) {
		return errReservedProfileName(id)
	}
	// drop outputs stored by an earlier save
	err := ch.ResetProperty(xfconf.JoinPath(id), true)
	if err != nil {
		logger.Warning(err)
	}
	if displayName == "" {
		displayName = id
	}
	setProperty(ch, xfconf.JoinPath(id), displayName)
	SaveAll(r, id, ch)
	return nil
}

// Apply asks the settings daemon to apply scheme.
func Apply(scheme string, ch xfconf.Channel) {
	setProperty(ch, propSchemesApply, scheme)
}
