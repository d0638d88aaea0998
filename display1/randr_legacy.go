// SPDX-FileCopyrightText: 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display1

import (
	"fmt"

	"github.com/linuxdeepin/go-x11-client/ext/randr"
	"github.com/xfce-mirror/xfce4-settings/common/xfconf"
	"golang.org/x/xerrors"
)

const legacyLayout = "Screens"

// LegacyScreen is the configuration of one logical screen. Resolution is an
// index into Sizes.
type LegacyScreen struct {
	Sizes      []LegacySize
	Resolution int
	Rate       uint16
	Rotation   uint16
	Rotations  uint16

	info *LegacyScreenInfo
}

func (s *LegacyScreen) clampedResolution() int {
	idx := s.Resolution
	if idx >= len(s.Sizes) {
		idx = len(s.Sizes) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}

// RandrLegacy is the model used when the server has no RandR 1.2 outputs:
// one configuration per screen, without positions.
type RandrLegacy struct {
	conn    Conn
	Screens []*LegacyScreen
}

func NewRandrLegacy(conn Conn) (*RandrLegacy, error) {
	_, err := NegotiateCapability(conn)
	if err != nil {
		return nil, err
	}
	l := &RandrLegacy{conn: conn}
	err = l.populate()
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (l *RandrLegacy) populate() error {
	n := l.conn.NumScreens()
	screens := make([]*LegacyScreen, 0, n)
	for i := 0; i < n; i++ {
		info, err := l.conn.GetScreenInfo(i)
		if err != nil {
			return xerrors.Errorf("failed to get config of screen %d: %w", i, err)
		}
		screens = append(screens, &LegacyScreen{
			Sizes:      info.Sizes,
			Resolution: info.SizeID,
			Rate:       info.Rate,
			Rotation:   info.Rotation,
			Rotations:  info.Rotations,
			info:       info,
		})
	}
	l.Screens = screens
	return nil
}

// Reload fetches the screen configurations again, the selected values are
// kept.
func (l *RandrLegacy) Reload() error {
	for i, screen := range l.Screens {
		info, err := l.conn.GetScreenInfo(i)
		if err != nil {
			return xerrors.Errorf("failed to get config of screen %d: %w", i, err)
		}
		screen.info = info
		screen.Sizes = info.Sizes
		screen.Rotations = info.Rotations
	}
	return nil
}

func (l *RandrLegacy) screen(idx int) (*LegacyScreen, error) {
	if idx < 0 || idx >= len(l.Screens) {
		return nil, fmt.Errorf("invalid screen %d", idx)
	}
	return l.Screens[idx], nil
}

func (l *RandrLegacy) SetResolution(screenIdx, sizeIdx int) error {
	screen, err := l.screen(screenIdx)
	if err != nil {
		return err
	}
	if sizeIdx < 0 || sizeIdx >= len(screen.Sizes) {
		return fmt.Errorf("invalid size %d for screen %d", sizeIdx, screenIdx)
	}
	screen.Resolution = sizeIdx
	return nil
}

func (l *RandrLegacy) SetRate(screenIdx int, rate uint16) error {
	screen, err := l.screen(screenIdx)
	if err != nil {
		return err
	}
	screen.Rate = rate
	return nil
}

func (l *RandrLegacy) SetRotation(screenIdx int, rotation uint16) error {
	screen, err := l.screen(screenIdx)
	if err != nil {
		return err
	}
	if rotation&screen.Rotations != rotation {
		return fmt.Errorf("rotation %d not supported by screen %d", rotation, screenIdx)
	}
	screen.Rotation = rotation
	return nil
}

// Save writes every screen under scheme and asks the daemon to apply it.
func (l *RandrLegacy) Save(scheme string, ch xfconf.Channel) {
	for i, screen := range l.Screens {
		if len(screen.Sizes) == 0 {
			logger.Warningf("screen %d has no sizes", i)
			continue
		}
		size := screen.Sizes[screen.clampedResolution()]
		base := xfconf.JoinPath(scheme, fmt.Sprintf("Screen_%d", i))
		setProperty(ch, base+"/Resolution", formatResolution(size.Width, size.Height))
		setProperty(ch, base+"/RefreshRate", int(screen.Rate))
		setProperty(ch, base+"/Rotation", rotationToDegrees(screen.Rotation))
	}

	setProperty(ch, xfconf.JoinPath(scheme, "Layout"), legacyLayout)
	setProperty(ch, xfconf.JoinPath(scheme, "NumScreens"), len(l.Screens))

	Apply(scheme, ch)
}

// Load does nothing, the legacy layout is only written.
func (l *RandrLegacy) Load(scheme string, ch xfconf.Channel) {
}

func (l *RandrLegacy) Close() {
	l.Screens = nil
}

func legacySizeIndex(sizes []LegacySize, width, height uint16) int {
	for i, size := range sizes {
		if size.Width == width && size.Height == height {
			return i
		}
	}
	return -1
}

// applyScreen sets the configuration of screen idx.
func (l *RandrLegacy) applyScreen(idx int, sizeID int, rotation, rate uint16) error {
	screen, err := l.screen(idx)
	if err != nil {
		return err
	}
	if rotation&screen.Rotations == 0 {
		rotation = randr.RotationRotate0
	}
	err = l.conn.SetScreenConfig(idx, screen.info, sizeID, rotation, rate)
	if err != nil {
		return err
	}
	screen.Resolution = sizeID
	screen.Rotation = rotation
	screen.Rate = rate
	return nil
}
