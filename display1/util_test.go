// SPDX-FileCopyrightText: 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display1

import (
	"testing"

	"github.com/linuxdeepin/go-x11-client/ext/randr"
	"github.com/stretchr/testify/assert"
)

func Test_getRotations(t *testing.T) {
	testdata := []struct {
		origin    uint16
		rotations []uint16
	}{
		{
			origin: randr.RotationRotate0,
			rotations: []uint16{
				randr.RotationRotate0,
			},
		},
		{
			origin: randr.RotationRotate90,
			rotations: []uint16{
				randr.RotationRotate90,
			},
		},
		{
			origin: randr.RotationRotate180,
			rotations: []uint16{
				randr.RotationRotate180,
			},
		},
		{
			origin: randr.RotationRotate270,
			rotations: []uint16{
				randr.RotationRotate270,
			},
		},
		{
			origin: randr.RotationRotate0 | randr.RotationRotate90,
			rotations: []uint16{
				randr.RotationRotate0,
				randr.RotationRotate90,
			},
		},
		{
			origin: randr.RotationRotate90 | randr.RotationRotate180,
			rotations: []uint16{
				randr.RotationRotate90,
				randr.RotationRotate180,
			},
		},
		{
			origin: 0xff,
			rotations: []uint16{
				randr.RotationRotate0,
				randr.RotationRotate90,
				randr.RotationRotate180,
				randr.RotationRotate270,
			},
		},
	}

	for _, v := range testdata {
		assert.ElementsMatch(t, getRotations(v.origin), v.rotations)
	}

}

func Test_getReflects(t *testing.T) {
	testdata := []struct {
		origin   uint16
		reflects []uint16
	}{
		{
			origin: randr.RotationReflectX,
			reflects: []uint16{
				0,
				randr.RotationReflectX,
			},
		},
		{
			origin: randr.RotationReflectY,
			reflects: []uint16{
				0,
				randr.RotationReflectY,
			},
		},
		{
			origin: 0xff,
			reflects: []uint16{
				0,
				randr.RotationReflectX,
				randr.RotationReflectY,
				randr.RotationReflectX | randr.RotationReflectY,
			},
		},
	}

	for _, v := range testdata {
		assert.ElementsMatch(t, getReflects(v.origin), v.reflects)
	}
}

func Test_parseCrtcRotation(t *testing.T) {
	testdata := []struct {
		origin   uint16
		rotation uint16
		reflect  uint16
	}{
		{
			origin:   randr.RotationRotate0 | randr.RotationReflectX,
			rotation: randr.RotationRotate0,
			reflect:  randr.RotationReflectX,
		},
		{
			origin:   randr.RotationRotate90 | randr.RotationReflectY,
			rotation: randr.RotationRotate90,
			reflect:  randr.RotationReflectY,
		},
		{
			origin:   randr.RotationRotate180 | randr.RotationReflectX | randr.RotationReflectY,
			rotation: randr.RotationRotate180,
			reflect:  randr.RotationReflectX | randr.RotationReflectY,
		},
		{
			origin:   randr.RotationRotate180 | randr.RotationRotate270 | randr.RotationReflectY,
			rotation: randr.RotationRotate0,
			reflect:  randr.RotationReflectY,
		},
	}

	for _, v := range testdata {
		rotation, reflect := parseCrtcRotation(v.origin)
		assert.Equal(t, rotation, v.rotation)
		assert.Equal(t, reflect, v.reflect)
	}
}

func Test_rotationDegrees(t *testing.T) {
	testdata := []struct {
		rotation uint16
		degrees  int
	}{
		{randr.RotationRotate0, 0},
		{randr.RotationRotate90, 90},
		{randr.RotationRotate180 | randr.RotationReflectY, 180},
		{randr.RotationRotate270, 270},
		// two rotation bits are invalid
		{randr.RotationRotate90 | randr.RotationRotate180, 0},
	}

	for _, v := range testdata {
		assert.Equal(t, v.degrees, rotationToDegrees(v.rotation))
	}

	assert.Equal(t, uint16(randr.RotationRotate270), degreesToRotation(270))
	assert.Equal(t, uint16(randr.RotationRotate0), degreesToRotation(45))
}

func Test_reflection(t *testing.T) {
	testdata := []struct {
		rotation uint16
		str      string
	}{
		{randr.RotationRotate0, "0"},
		{randr.RotationRotate90 | randr.RotationReflectX, "X"},
		{randr.RotationReflectY, "Y"},
		{randr.RotationReflectX | randr.RotationReflectY, "XY"},
	}

	for _, v := range testdata {
		assert.Equal(t, v.str, reflectionToString(v.rotation))
		assert.Equal(t, v.rotation&reflectMask, stringToReflection(v.str))
	}
	assert.Equal(t, uint16(0), stringToReflection("Z"))
}

func Test_parseResolution(t *testing.T) {
	w, h, ok := parseResolution("1920x1080")
	assert.True(t, ok)
	assert.Equal(t, uint16(1920), w)
	assert.Equal(t, uint16(1080), h)

	for _, str := range []string{"", "1920", "x1080", "0x768", "-1x768", "70000x10"} {
		_, _, ok = parseResolution(str)
		assert.False(t, ok, str)
	}

	assert.Equal(t, "1024x768", formatResolution(1024, 768))
	assert.Equal(t, "60.00", formatRate(60.004))
}

func Test_FriendlyName(t *testing.T) {
	testdata := []struct {
		connector string
		edid      []byte
		name      string
	}{
		{"LVDS-1", makeEdid("DEL", "DELL U2412M"), "Laptop"},
		{"LVDS", nil, "Laptop"},
		{"PANEL", nil, "Laptop"},
		{"eDP-1", nil, "eDP-1"},
		{"HDMI-1", makeEdid("DEL", "DELL U2412M"), "DELL U2412M"},
		{"HDMI-1", makeEdid("GSM", "W2442"), "LG Electronics W2442"},
		{"VGA-0", nil, "Monitor"},
		{"Analog-1", []byte{1, 2, 3}, "Monitor"},
		{"TV-1", nil, "Television"},
		{"S-video", nil, "Television"},
		{"DVI-I-1", nil, "Digital display"},
		{"TMDS-1", nil, "Digital display"},
		{"Digital-0", nil, "Digital display"},
		{"DP-2", nil, "DP-2"},
	}

	for _, v := range testdata {
		assert.Equal(t, v.name, FriendlyName(v.connector, v.edid), v.connector)
		// same input, same output
		assert.Equal(t, FriendlyName(v.connector, v.edid), FriendlyName(v.connector, v.edid))
	}
}
