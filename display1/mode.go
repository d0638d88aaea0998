// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display1

import (
	"fmt"
	"math"

	"github.com/linuxdeepin/go-x11-client/ext/randr"
)

type ModeInfo struct {
	Id     uint32
	name   string
	Width  uint16
	Height uint16
	Rate   float64
}

func (mi ModeInfo) isZero() bool {
	return mi == ModeInfo{}
}

func (mi ModeInfo) String() string {
	return fmt.Sprintf("%dx%d@%.2f", mi.Width, mi.Height, mi.Rate)
}

func toModeInfo(info randr.ModeInfo) ModeInfo {
	return ModeInfo{
		Id:     info.Id,
		name:   info.Name,
		Width:  info.Width,
		Height: info.Height,
		Rate:   calcModeRate(info),
	}
}

func toModeInfoList(modes []randr.ModeInfo) []ModeInfo {
	result := make([]ModeInfo, len(modes))
	for i, mode := range modes {
		result[i] = toModeInfo(mode)
	}
	return result
}

func calcModeRate(info randr.ModeInfo) float64 {
	vTotal := float64(info.VTotal)
	if (info.ModeFlags & randr.ModeFlagDoubleScan) != 0 {
		/* doublescan doubles the number of lines */
		vTotal *= 2
	}
	if (info.ModeFlags & randr.ModeFlagInterlace) != 0 {
		/* interlace splits the frame into two fields */
		/* the field rate is what is typically reported by monitors */
		vTotal /= 2
	}

	if info.HTotal == 0 || vTotal == 0 {
		return 0
	} else {
		return float64(info.DotClock) / (float64(info.HTotal) * vTotal)
	}
}

// toModeInfos resolves the mode ids of an output against the global mode
// list, keeping the order of modeIds.
func toModeInfos(modes []ModeInfo, modeIds []randr.Mode) (modeInfos []ModeInfo) {
	for _, id := range modeIds {
		modeInfo := findMode(modes, uint32(id))
		if !modeInfo.isZero() {
			modeInfos = append(modeInfos, modeInfo)
		}
	}
	return
}

func findMode(modes []ModeInfo, modeId uint32) ModeInfo {
	for _, modeInfo := range modes {
		if modeInfo.Id == modeId {
			return modeInfo
		}
	}
	return ModeInfo{}
}

func hasMode(modes []ModeInfo, modeId uint32) bool {
	return !findMode(modes, modeId).isZero()
}

func getFirstModeBySize(modes []ModeInfo, width, height uint16) ModeInfo {
	for _, modeInfo := range modes {
		if modeInfo.Width == width && modeInfo.Height == height {
			return modeInfo
		}
	}
	return ModeInfo{}
}

func getFirstModeBySizeRate(modes []ModeInfo, width, height uint16, rate float64) ModeInfo {
	roundedRate := math.Round(rate * 100)
	for _, modeInfo := range modes {
		if modeInfo.Width == width && modeInfo.Height == height &&
			math.Round(modeInfo.Rate*100) == roundedRate {
			return modeInfo
		}
	}
	return ModeInfo{}
}

// getCloneModes returns the ids of the modes, in the order of allModes,
// that every output supports.
func getCloneModes(allModes []ModeInfo, outputs []*Output) []uint32 {
	if len(outputs) == 0 {
		return nil
	}
	var result []uint32
	for _, mode := range allModes {
		common := true
		for _, output := range outputs {
			if !hasMode(output.Modes, mode.Id) {
				common = false
				break
			}
		}
		if common {
			result = append(result, mode.Id)
		}
	}
	return result
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// getPreferredMode picks the mode closest to the DPI of the screen. The first
// numPreferred modes are the ones the driver prefers and always win.
func getPreferredMode(modes []ModeInfo, numPreferred int, mmHeight uint32, screen ScreenSize) uint32 {
	var best uint32
	bestDist := -1
	for i, mode := range modes {
		var dist int
		if i < numPreferred {
			dist = 0
		} else if mmHeight != 0 && screen.MmHeight != 0 {
			dist = abs(1000*int(screen.Height)/int(screen.MmHeight) -
				1000*int(mode.Height)/int(mmHeight))
		} else {
			dist = abs(int(screen.Height) - int(mode.Height))
		}
		if bestDist < 0 || dist < bestDist {
			best = mode.Id
			bestDist = dist
		}
	}
	return best
}

func parseResolution(str string) (width, height uint16, ok bool) {
	var w, h int
	n, err := fmt.Sscanf(str, "%dx%d", &w, &h)
	if err != nil || n != 2 || w <= 0 || h <= 0 || w > math.MaxUint16 || h > math.MaxUint16 {
		return 0, 0, false
	}
	return uint16(w), uint16(h), true
}

func formatResolution(width, height uint16) string {
	return fmt.Sprintf("%dx%d", width, height)
}
