// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package xfce4settings

//go:generate go build -o target/ github.com/xfce-mirror/xfce4-settings/bin/xfsettingsd
//go:generate go build -o target/ github.com/xfce-mirror/xfce4-settings/bin/xfce4-display-settings
