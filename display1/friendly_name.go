// SPDX-FileCopyrightText: 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display1

import (
	"strings"

	"github.com/linuxdeepin/go-lib/gettext"
	"github.com/xfce-mirror/xfce4-settings/common/edid"
)

func isLaptopPanel(name string) bool {
	return strings.HasPrefix(name, "LVDS") || name == "PANEL"
}

// FriendlyName returns a name for the output a user can recognize. Laptop
// panels are always called "Laptop", otherwise the monitor name from the
// EDID is used, then a name guessed from the connector type.
func FriendlyName(connector string, edidData []byte) string {
	if isLaptopPanel(connector) {
		return gettext.Tr("Laptop")
	}

	if len(edidData) > 0 {
		info, err := edid.Decode(edidData)
		if err != nil {
			logger.Debugf("decode edid of %s failed: %v", connector, err)
		} else if name := info.DisplayName(); name != "" {
			return name
		}
	}

	switch {
	case strings.HasPrefix(connector, "VGA"), strings.HasPrefix(connector, "Analog"):
		return gettext.Tr("Monitor")
	case strings.HasPrefix(connector, "TV"), connector == "S-video":
		return gettext.Tr("Television")
	case strings.HasPrefix(connector, "TMDS"), strings.HasPrefix(connector, "DVI"),
		strings.HasPrefix(connector, "Digital"):
		return gettext.Tr("Digital display")
	}
	return connector
}
