// SPDX-FileCopyrightText: 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display1

import (
	"strconv"

	"github.com/linuxdeepin/go-x11-client/ext/randr"
)

const (
	rotationMask = randr.RotationRotate0 | randr.RotationRotate90 |
		randr.RotationRotate180 | randr.RotationRotate270
	reflectMask     = randr.RotationReflectX | randr.RotationReflectY
	allRotationBits = rotationMask | reflectMask
)

func getRotations(origin uint16) []uint16 {
	var ret []uint16

	if origin&randr.RotationRotate0 == randr.RotationRotate0 {
		ret = append(ret, randr.RotationRotate0)
	}
	if origin&randr.RotationRotate90 == randr.RotationRotate90 {
		ret = append(ret, randr.RotationRotate90)
	}
	if origin&randr.RotationRotate180 == randr.RotationRotate180 {
		ret = append(ret, randr.RotationRotate180)
	}
	if origin&randr.RotationRotate270 == randr.RotationRotate270 {
		ret = append(ret, randr.RotationRotate270)
	}
	return ret
}

func getReflects(origin uint16) []uint16 {
	var ret = []uint16{0}

	if origin&randr.RotationReflectX == randr.RotationReflectX {
		ret = append(ret, randr.RotationReflectX)
	}
	if origin&randr.RotationReflectY == randr.RotationReflectY {
		ret = append(ret, randr.RotationReflectY)
	}
	if len(ret) == 3 {
		ret = append(ret, randr.RotationReflectX|randr.RotationReflectY)
	}
	return ret
}

func parseCrtcRotation(origin uint16) (rotation, reflect uint16) {
	rotation = origin & rotationMask
	reflect = origin & reflectMask

	switch rotation {
	case randr.RotationRotate0, randr.RotationRotate90,
		randr.RotationRotate180, randr.RotationRotate270:
		break
	default:
		// invalid rotation value
		rotation = randr.RotationRotate0
	}
	return
}

// rotationToDegrees drops the reflection bits.
func rotationToDegrees(rotation uint16) int {
	rotation, _ = parseCrtcRotation(rotation)
	switch rotation {
	case randr.RotationRotate90:
		return 90
	case randr.RotationRotate180:
		return 180
	case randr.RotationRotate270:
		return 270
	}
	return 0
}

func degreesToRotation(degrees int) uint16 {
	switch degrees {
	case 90:
		return randr.RotationRotate90
	case 180:
		return randr.RotationRotate180
	case 270:
		return randr.RotationRotate270
	}
	return randr.RotationRotate0
}

func reflectionToString(rotation uint16) string {
	_, reflect := parseCrtcRotation(rotation)
	switch reflect {
	case randr.RotationReflectX:
		return "X"
	case randr.RotationReflectY:
		return "Y"
	case randr.RotationReflectX | randr.RotationReflectY:
		return "XY"
	}
	return "0"
}

func stringToReflection(str string) uint16 {
	switch str {
	case "X":
		return randr.RotationReflectX
	case "Y":
		return randr.RotationReflectY
	case "XY":
		return randr.RotationReflectX | randr.RotationReflectY
	}
	return 0
}

func needSwapWidthHeight(rotation uint16) bool {
	return rotation&randr.RotationRotate90 != 0 ||
		rotation&randr.RotationRotate270 != 0
}

func swapWidthHeightWithRotation(rotation uint16, pWidth, pHeight *uint16) {
	if needSwapWidthHeight(rotation) {
		*pWidth, *pHeight = *pHeight, *pWidth
	}
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func outputSliceContains(outputs []randr.Output, output randr.Output) bool {
	for _, o := range outputs {
		if o == output {
			return true
		}
	}
	return false
}

func crtcSliceContains(crtcs []randr.Crtc, crtc randr.Crtc) bool {
	for _, c := range crtcs {
		if c == crtc {
			return true
		}
	}
	return false
}

// Rotation returns the RandR rotation bits for a rotation in degrees and a
// reflection of "0", "X", "Y" or "XY".
func Rotation(degrees int, reflection string) uint16 {
	return degreesToRotation(degrees) | stringToReflection(reflection)
}
