// SPDX-FileCopyrightText: 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display1

import (
	"errors"
	"testing"

	"github.com/linuxdeepin/go-x11-client/ext/randr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNegotiateCapability(t *testing.T) {
	tests := []struct {
		major, minor uint32
		want         Capability
		wantErr      bool
	}{
		{1, 0, 0, true},
		{1, 1, CapabilityLegacyOnly, false},
		{1, 2, CapabilityModern, false},
		{1, 3, CapabilityModernWithPrimary, false},
		{1, 6, CapabilityModernWithPrimary, false},
		{2, 0, CapabilityModernWithPrimary, false},
	}
	for _, tt := range tests {
		conn := newFakeConn()
		conn.major, conn.minor = tt.major, tt.minor
		got, err := NegotiateCapability(conn)
		if tt.wantErr {
			assert.True(t, errors.Is(err, ErrRandrMissing), "version %d.%d", tt.major, tt.minor)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, tt.want, got, "version %d.%d", tt.major, tt.minor)
	}

	conn := newFakeConn()
	conn.versionErr = errors.New("no extension")
	_, err := NegotiateCapability(conn)
	assert.True(t, errors.Is(err, ErrRandrMissing))
}

func TestNewRandr(t *testing.T) {
	conn := newFakeConn()
	r, err := NewRandr(conn)
	require.NoError(t, err)
	assert.Equal(t, CapabilityModernWithPrimary, r.Capability())

	// DP-1 is disconnected
	require.Len(t, r.Outputs, 2)
	vga, hdmi := r.Outputs[0], r.Outputs[1]

	assert.Equal(t, "VGA-0", vga.Name)
	assert.Equal(t, "DELL U2412M", vga.FriendlyName)
	assert.Equal(t, uint32(modeFHD), vga.ActiveMode)
	assert.Equal(t, uint16(randr.RotationRotate0), vga.Rotation)
	assert.Equal(t, uint16(allRotationBits), vga.Rotations)
	assert.Equal(t, OutputStatusPrimary, vga.Status)
	assert.Len(t, vga.Modes, 2)
	assert.Equal(t, int16(0), vga.X)

	assert.Equal(t, "HDMI-1", hdmi.Name)
	assert.Equal(t, "LG Electronics W2442", hdmi.FriendlyName)
	assert.Equal(t, uint32(modeXGA), hdmi.ActiveMode)
	assert.Equal(t, OutputStatusSecondary, hdmi.Status)
	assert.Equal(t, int16(1920), hdmi.X)
	assert.Equal(t, int16(0), hdmi.Y)

	assert.Equal(t, []uint32{uint32(modeXGA)}, r.CloneModes)
	assert.InDelta(t, 60.0, vga.Modes[0].Rate, 0.01)
	assert.Equal(t, 1, conn.resourcesCalls)
}

func TestNewRandrRequiresModernVersion(t *testing.T) {
	conn := newFakeConn()
	conn.major, conn.minor = 1, 1
	_, err := NewRandr(conn)
	assert.True(t, errors.Is(err, ErrRandrMissing))
}

func TestNewRandrDefaultOutput(t *testing.T) {
	conn := newFakeConn()
	conn.outputInfos[outputVGA].Name = "default"
	_, err := NewRandr(conn)
	assert.Equal(t, ErrOutputsUnsupported, err)

	// only the first output is checked
	conn = newFakeConn()
	conn.outputInfos[outputHDMI].Name = "default"
	_, err = NewRandr(conn)
	assert.NoError(t, err)
}

func TestNoPrimaryCapability(t *testing.T) {
	conn := newFakeConn()
	conn.major, conn.minor = 1, 2
	r, err := NewRandr(conn)
	require.NoError(t, err)
	for _, output := range r.Outputs {
		assert.Equal(t, OutputStatusSecondary, output.Status)
	}
	assert.Equal(t, 0, conn.primaryCalls)
}

func TestDisabledOutputRotations(t *testing.T) {
	conn := newFakeConn()
	// VGA-0 disabled, it can be driven by crtc1 and crtc3
	conn.outputInfos[outputVGA].Crtc = 0
	conn.outputInfos[outputVGA].Crtcs = []randr.Crtc{crtc1, crtc3}
	conn.crtcInfos[crtc1].Outputs = nil

	r, err := NewRandr(conn)
	require.NoError(t, err)
	vga := r.GetOutputByName("VGA-0")
	require.NotNil(t, vga)
	assert.Equal(t, uint32(0), vga.ActiveMode)
	assert.False(t, vga.Enabled())
	assert.Equal(t, uint16(randr.RotationRotate0), vga.Rotation)
	assert.Equal(t, uint16(randr.RotationRotate0|randr.RotationRotate180), vga.Rotations)
}

func TestDisabledOutputWithoutCrtcs(t *testing.T) {
	conn := newFakeConn()
	conn.outputInfos[outputVGA].Crtc = 0
	conn.outputInfos[outputVGA].Crtcs = nil

	r, err := NewRandr(conn)
	require.NoError(t, err)
	vga := r.GetOutputByName("VGA-0")
	assert.Equal(t, uint16(randr.RotationRotate0), vga.Rotations)
}

func TestUnreadableCrtc(t *testing.T) {
	conn := newFakeConn()
	// crtc 99 is listed but can not be read
	conn.crtcIds = append(conn.crtcIds, 99)
	conn.outputInfos[outputHDMI].Crtc = 99
	conn.outputInfos[outputHDMI].Crtcs = []randr.Crtc{crtc2, 99}

	r, err := NewRandr(conn)
	require.NoError(t, err)
	hdmi := r.GetOutputByName("HDMI-1")
	require.NotNil(t, hdmi)
	assert.False(t, hdmi.Enabled())
	assert.Equal(t, uint16(randr.RotationRotate0), hdmi.Rotation)
	assert.Equal(t, uint16(randr.RotationRotate0), hdmi.Rotations)
}

func TestCloneModes(t *testing.T) {
	conn := newFakeConn()
	// disjoint mode lists
	conn.outputInfos[outputHDMI].Modes = []randr.Mode{modeSXGA}
	r, err := NewRandr(conn)
	require.NoError(t, err)
	assert.Empty(t, r.CloneModes)

	// global mode order is kept
	conn = newFakeConn()
	conn.outputInfos[outputVGA].Modes = []randr.Mode{modeXGA, modeSXGA, modeFHD}
	conn.outputInfos[outputHDMI].Modes = []randr.Mode{modeSXGA, modeXGA, modeFHD}
	r, err = NewRandr(conn)
	require.NoError(t, err)
	assert.Equal(t, []uint32{uint32(modeFHD), uint32(modeXGA), uint32(modeSXGA)}, r.CloneModes)

	// a single output shares every mode with itself
	conn = newFakeConn()
	conn.unplug(outputHDMI)
	r, err = NewRandr(conn)
	require.NoError(t, err)
	assert.Equal(t, []uint32{uint32(modeFHD), uint32(modeXGA)}, r.CloneModes)

	assert.Empty(t, getCloneModes(r.modes, nil))
}

func TestReload(t *testing.T) {
	conn := newFakeConn()
	r, err := NewRandr(conn)
	require.NoError(t, err)

	conn.unplug(outputHDMI)
	require.NoError(t, r.Reload())
	assert.Equal(t, 1, conn.currentResourcesCalls)
	require.Len(t, r.Outputs, 1)
	assert.Equal(t, "VGA-0", r.Outputs[0].Name)
	assert.Equal(t, []uint32{uint32(modeFHD), uint32(modeXGA)}, r.CloneModes)

	conn.plug(outputHDMI)
	require.NoError(t, r.Reload())
	require.Len(t, r.Outputs, 2)
	assert.False(t, r.Outputs[1].Enabled())
}

func TestReloadWithoutCurrentResources(t *testing.T) {
	conn := newFakeConn()
	conn.major, conn.minor = 1, 2
	r, err := NewRandr(conn)
	require.NoError(t, err)
	require.NoError(t, r.Reload())
	assert.Equal(t, 0, conn.currentResourcesCalls)
	assert.Equal(t, 2, conn.resourcesCalls)
}

func TestPreferredMode(t *testing.T) {
	modes := []ModeInfo{
		{Id: 1, Width: 1024, Height: 768},
		{Id: 2, Width: 1920, Height: 1080},
		{Id: 3, Width: 1280, Height: 1024},
	}
	screen := ScreenSize{Width: 1920, Height: 1080, MmWidth: 508, MmHeight: 285}

	// the driver preferred mode wins
	assert.Equal(t, uint32(1), getPreferredMode(modes, 1, 299, screen))

	// closest DPI: 1000*1080/285 = 3789, 1000*1080/299 = 3612
	assert.Equal(t, uint32(2), getPreferredMode(modes, 0, 299, screen))

	// no physical size, closest height
	assert.Equal(t, uint32(2), getPreferredMode(modes, 0, 0, screen))
	screen.Height = 1000
	assert.Equal(t, uint32(3), getPreferredMode(modes, 0, 0, screen))

	// no screen size in mm
	screen = ScreenSize{Width: 1024, Height: 768}
	assert.Equal(t, uint32(1), getPreferredMode(modes, 0, 299, screen))

	// first wins on ties
	same := []ModeInfo{
		{Id: 7, Width: 1920, Height: 1080, Rate: 60},
		{Id: 8, Width: 1920, Height: 1080, Rate: 50},
	}
	assert.Equal(t, uint32(7), getPreferredMode(same, 0, 0, screen))
	assert.Equal(t, uint32(7), getPreferredMode(same, 2, 0, screen))

	assert.Equal(t, uint32(0), getPreferredMode(nil, 0, 0, screen))
}

func TestRandrPreferredMode(t *testing.T) {
	conn := newFakeConn()
	r, err := NewRandr(conn)
	require.NoError(t, err)
	assert.Equal(t, uint32(modeFHD), r.PreferredMode(r.Outputs[0]))
	assert.Equal(t, uint32(0), r.PreferredMode(&Output{}))
}

func TestDisplayInfos(t *testing.T) {
	conn := newFakeConn()
	conn.edids[outputHDMI] = nil
	r, err := NewRandr(conn)
	require.NoError(t, err)
	infos := r.DisplayInfos()
	require.Len(t, infos, 2)
	assert.Len(t, infos[0], 40)
	assert.Equal(t, "", infos[1])
}

func TestCalcModeRate(t *testing.T) {
	info := randr.ModeInfo{DotClock: 148500000, HTotal: 2200, VTotal: 1125}
	assert.InDelta(t, 60.0, calcModeRate(info), 1e-9)

	info.ModeFlags = randr.ModeFlagInterlace
	assert.InDelta(t, 120.0, calcModeRate(info), 1e-9)

	info.ModeFlags = randr.ModeFlagDoubleScan
	assert.InDelta(t, 30.0, calcModeRate(info), 1e-9)

	info.HTotal = 0
	assert.Equal(t, 0.0, calcModeRate(info))
}
