// SPDX-FileCopyrightText: 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xfce-mirror/xfce4-settings/display1"
)

type fakeLayout struct {
	outputs    []*display1.Output
	preferred  map[string]uint32
	hasPrimary bool
}

func (l *fakeLayout) GetOutputByName(name string) *display1.Output {
	for _, output := range l.outputs {
		if output.Name == name {
			return output
		}
	}
	return nil
}

func (l *fakeLayout) PreferredMode(output *display1.Output) uint32 {
	return l.preferred[output.Name]
}

func (l *fakeLayout) HasPrimary() bool {
	return l.hasPrimary
}

// newFakeLayout returns VGA-0 enabled at 1920x1080 as primary and a
// disabled HDMI-1.
func newFakeLayout() *fakeLayout {
	return &fakeLayout{
		outputs: []*display1.Output{
			{
				Name: "VGA-0",
				Modes: []display1.ModeInfo{
					{Id: 1, Width: 1920, Height: 1080, Rate: 60},
					{Id: 2, Width: 1024, Height: 768, Rate: 60.004},
					{Id: 3, Width: 1024, Height: 768, Rate: 75.029},
				},
				ActiveMode: 1,
				Rotation:   display1.Rotation(0, "0"),
				Rotations:  display1.Rotation(0, "0") | display1.Rotation(90, "X"),
				Status:     display1.OutputStatusPrimary,
			},
			{
				Name: "HDMI-1",
				Modes: []display1.ModeInfo{
					{Id: 2, Width: 1024, Height: 768, Rate: 60.004},
				},
				Rotation:  display1.Rotation(0, "0"),
				Rotations: display1.Rotation(0, "0"),
				Status:    display1.OutputStatusSecondary,
			},
		},
		preferred:  map[string]uint32{"VGA-0": 1, "HDMI-1": 2},
		hasPrimary: true,
	}
}

func parseSetFlags(t *testing.T, args ...string) *pflag.FlagSet {
	flags := pflag.NewFlagSet("set", pflag.ContinueOnError)
	addSetFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func configure(t *testing.T, l *fakeLayout, name string, args ...string) error {
	return configureOutput(parseSetFlags(t, args...), l, l.outputs, name)
}

func TestConfigureOutputMode(t *testing.T) {
	l := newFakeLayout()
	vga := l.outputs[0]

	require.NoError(t, configure(t, l, "VGA-0", "--mode", "1024x768"))
	assert.Equal(t, uint32(2), vga.ActiveMode)

	require.NoError(t, configure(t, l, "VGA-0", "--mode", "1024x768", "--rate", "75.03"))
	assert.Equal(t, uint32(3), vga.ActiveMode)

	assert.Error(t, configure(t, l, "VGA-0", "--mode", "800x600"))
	assert.Error(t, configure(t, l, "VGA-0", "--mode", "1920x1080", "--rate", "75"))
	assert.Equal(t, uint32(3), vga.ActiveMode)

	assert.Error(t, configure(t, l, "DP-1", "--mode", "1024x768"))
}

func TestConfigureOutputRotation(t *testing.T) {
	l := newFakeLayout()
	vga := l.outputs[0]

	require.NoError(t, configure(t, l, "VGA-0", "--rotate", "90", "--reflect", "X"))
	assert.Equal(t, display1.Rotation(90, "X"), vga.Rotation)

	require.NoError(t, configure(t, l, "VGA-0", "--rotate", "90"))
	assert.Equal(t, display1.Rotation(90, "0"), vga.Rotation)

	for _, args := range [][]string{
		{"--rotate", "45"},
		{"--reflect", "Z"},
		{"--rotate", "180"},
		{"--reflect", "Y"},
	} {
		assert.Error(t, configure(t, l, "VGA-0", args...), args)
	}
	assert.Equal(t, display1.Rotation(90, "0"), vga.Rotation)
}

func TestConfigureOutputOnOff(t *testing.T) {
	l := newFakeLayout()
	vga, hdmi := l.outputs[0], l.outputs[1]

	require.NoError(t, configure(t, l, "HDMI-1", "--on"))
	assert.Equal(t, uint32(2), hdmi.ActiveMode)

	// an enabled output keeps its mode
	require.NoError(t, configure(t, l, "VGA-0", "--mode", "1024x768"))
	require.NoError(t, configure(t, l, "VGA-0", "--on"))
	assert.Equal(t, uint32(2), vga.ActiveMode)

	require.NoError(t, configure(t, l, "VGA-0", "--off"))
	assert.False(t, vga.Enabled())

	assert.Error(t, configure(t, l, "HDMI-1", "--on", "--off"))
	assert.True(t, hdmi.Enabled())
}

func TestConfigureOutputPosition(t *testing.T) {
	l := newFakeLayout()
	hdmi := l.outputs[1]

	require.NoError(t, configure(t, l, "HDMI-1", "--x", "1920", "--y", "0"))
	assert.Equal(t, int16(1920), hdmi.X)
	assert.Equal(t, int16(0), hdmi.Y)

	assert.Error(t, configure(t, l, "HDMI-1", "--x", "40000"))
	assert.Error(t, configure(t, l, "HDMI-1", "--y=-1"))
	assert.Error(t, configure(t, l, "HDMI-1", "--on", "--x", "32768"))
	assert.Equal(t, int16(1920), hdmi.X)
	assert.False(t, hdmi.Enabled())

	require.NoError(t, configure(t, l, "HDMI-1", "--x", "32767"))
	assert.Equal(t, int16(32767), hdmi.X)
}

func TestConfigureOutputPrimary(t *testing.T) {
	l := newFakeLayout()
	vga, hdmi := l.outputs[0], l.outputs[1]

	require.NoError(t, configure(t, l, "HDMI-1", "--primary"))
	assert.Equal(t, display1.OutputStatusSecondary, vga.Status)
	assert.Equal(t, display1.OutputStatusPrimary, hdmi.Status)

	// without the capability the statuses are left alone
	l.hasPrimary = false
	require.NoError(t, configure(t, l, "VGA-0", "--primary"))
	assert.Equal(t, display1.OutputStatusSecondary, vga.Status)
}

func TestCommandTree(t *testing.T) {
	for _, name := range []string{"list", "profiles", "save", "apply", "delete", "set"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
		assert.NotNil(t, cmd.RunE, name)
	}

	for _, name := range []string{"on", "off", "primary", "mode", "rate", "rotate", "reflect", "x", "y"} {
		assert.NotNil(t, setCmd.Flags().Lookup(name), name)
	}
}
