// SPDX-FileCopyrightText: 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display1

import (
	"sort"

	"github.com/linuxdeepin/go-lib/strv"
	"github.com/xfce-mirror/xfce4-settings/common/edid"
	"github.com/xfce-mirror/xfce4-settings/common/xfconf"
)

const (
	propSchemesApply       = "/Schemes/Apply"
	propActiveProfile      = "/ActiveProfile"
	propAutoEnableProfiles = "/AutoEnableProfiles"

	DefaultScheme = "Default"
)

// top level keys of the channel which are not profiles
var reservedProfileNames = strv.Strv{
	"Notify",
	DefaultScheme,
	"Schemes",
	"ActiveProfile",
	"AutoEnableProfiles",
}

func outputIdentity(edidData []byte) string {
	return edid.Identity(edidData)
}

func sortedKeys(props map[string]interface{}) []string {
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// profileRoots returns the names of the top level groups, "/Work" gives
// "Work".
func profileRoots(ch xfconf.Channel) (map[string]interface{}, error) {
	props, err := ch.GetAllProperties("/")
	if err != nil {
		return nil, err
	}
	result := make(map[string]interface{})
	for key, value := range props {
		elems := xfconf.SplitPath(key)
		if len(elems) != 2 || elems[1] == "" {
			continue
		}
		if reservedProfileNames.Contains(elems[1]) {
			continue
		}
		result[elems[1]] = value
	}
	return result, nil
}

// ListProfiles returns the profiles that match the connected outputs, whose
// identities are displayInfos.
func ListProfiles(displayInfos []string, ch xfconf.Channel) []string {
	roots, err := profileRoots(ch)
	if err != nil {
		logger.Warning("list profiles failed:", err)
		return nil
	}
	var profiles strv.Strv
	for _, name := range sortedKeys(roots) {
		if profiles.Contains(name) {
			continue
		}
		if ProfileMatches(name, displayInfos, ch) {
			profiles = append(profiles, name)
		}
	}
	return profiles
}

// ListAllProfiles returns every profile with its display name.
func ListAllProfiles(ch xfconf.Channel) map[string]string {
	roots, err := profileRoots(ch)
	if err != nil {
		logger.Warning("list profiles failed:", err)
		return nil
	}
	result := make(map[string]string, len(roots))
	for name, value := range roots {
		displayName, _ := value.(string)
		result[name] = displayName
	}
	return result
}

// ProfileMatches reports whether the profile holds exactly one entry per
// connected output and the monitor of each entry is connected.
func ProfileMatches(name string, displayInfos []string, ch xfconf.Channel) bool {
	props, err := ch.GetAllProperties(xfconf.JoinPath(name))
	if err != nil {
		logger.Warningf("get properties of profile %s failed: %v", name, err)
		return false
	}
	identities := strv.Strv(displayInfos)

	numOutputs := 0
	for _, key := range sortedKeys(props) {
		// "/<profile>/<output>"
		if len(xfconf.SplitPath(key)) != 3 {
			continue
		}
		numOutputs++
		if numOutputs > len(displayInfos) {
			return false
		}

		edidProp := key + "/EDID"
		if !xfconf.HasProperty(ch, edidProp) {
			return false
		}
		if !identities.Contains(xfconf.GetString(ch, edidProp, "")) {
			return false
		}
	}
	return numOutputs == len(displayInfos)
}

// IsProfileNameAvailable reports whether no profile uses name as its display
// name yet.
func IsProfileNameAvailable(name string, ch xfconf.Channel) bool {
	roots, err := profileRoots(ch)
	if err != nil {
		logger.Warning(err)
		return false
	}
	for _, value := range roots {
		if str, ok := value.(string); ok && str == name {
			return false
		}
	}
	return true
}

func ProfileExists(name string, ch xfconf.Channel) bool {
	return xfconf.HasProperty(ch, xfconf.JoinPath(name))
}

func DeleteProfile(name string, ch xfconf.Channel) error {
	if reservedProfileNames.Contains(name) {
		return errReservedProfileName(name)
	}
	return ch.ResetProperty(xfconf.JoinPath(name), true)
}
