// SPDX-FileCopyrightText: 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display1

import (
	"errors"
	"fmt"
	"math"

	"github.com/davecgh/go-spew/spew"
	"github.com/linuxdeepin/go-lib/log"
	"github.com/linuxdeepin/go-x11-client/ext/randr"
	"github.com/xfce-mirror/xfce4-settings/common/xfconf"
	"golang.org/x/xerrors"
)

var (
	errNoOutputEnabled = errors.New("the scheme does not enable any output")
	errLegacyScheme    = errors.New("the scheme has the legacy screens layout")
)

// pixels per millimeter used for the physical size of the screen
const screenDPMM = 3.792

type outputTarget struct {
	output   *Output
	enabled  bool
	mode     ModeInfo
	rotation uint16
	x        int16
	y        int16
	primary  bool
}

func schemeExists(scheme string, ch xfconf.Channel) bool {
	props, err := ch.GetAllProperties(xfconf.JoinPath(scheme))
	if err != nil {
		logger.Warning(err)
		return false
	}
	return len(props) > 0
}

func IsLegacyScheme(scheme string, ch xfconf.Channel) bool {
	return xfconf.GetString(ch, xfconf.JoinPath(scheme, "Layout"), "") == legacyLayout
}

func clampInt16(v int) int16 {
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < 0 {
		return 0
	}
	return int16(v)
}

// readOutputTarget reads the saved state of output, ok is false when the
// scheme does not mention it.
func (r *Randr) readOutputTarget(output *Output, scheme string, ch xfconf.Channel) (outputTarget, bool) {
	base := xfconf.JoinPath(scheme, output.Name)
	target := outputTarget{output: output}
	if !xfconf.HasProperty(ch, base+"/Active") {
		return target, false
	}
	target.enabled = xfconf.GetBool(ch, base+"/Active", false)
	if !target.enabled {
		return target, true
	}

	var mode ModeInfo
	width, height, ok := parseResolution(xfconf.GetString(ch, base+"/Resolution", ""))
	if ok {
		rate := xfconf.GetDouble(ch, base+"/RefreshRate", 0)
		mode = getFirstModeBySizeRate(output.Modes, width, height, rate)
		if mode.isZero() {
			mode = getFirstModeBySize(output.Modes, width, height)
		}
	}
	if mode.isZero() {
		logger.Warningf("mode of output %s not found, use the preferred mode", output.Name)
		mode = findMode(output.Modes, r.PreferredMode(output))
	}
	if mode.isZero() {
		logger.Warningf("output %s has no mode, disable it", output.Name)
		target.enabled = false
		return target, true
	}
	target.mode = mode

	target.rotation = degreesToRotation(xfconf.GetInt(ch, base+"/Rotation", 0)) |
		stringToReflection(xfconf.GetString(ch, base+"/Reflection", "0"))
	target.x = clampInt16(xfconf.GetInt(ch, base+"/Position/X", 0))
	target.y = clampInt16(xfconf.GetInt(ch, base+"/Position/Y", 0))
	target.primary = xfconf.GetBool(ch, base+"/Primary", false)
	return target, true
}

// ApplyScheme configures the outputs as stored in scheme. Outputs the scheme
// does not mention are left alone.
func ApplyScheme(r *Randr, scheme string, ch xfconf.Channel) error {
	if !schemeExists(scheme, ch) {
		return fmt.Errorf("scheme %q not found", scheme)
	}
	if IsLegacyScheme(scheme, ch) {
		return errLegacyScheme
	}

	var targets []outputTarget
	for _, output := range r.Outputs {
		target, ok := r.readOutputTarget(output, scheme, ch)
		if !ok {
			logger.Debugf("output %s not in scheme %s", output.Name, scheme)
			target = outputTarget{
				output:   output,
				enabled:  output.Enabled(),
				mode:     output.activeModeInfo(),
				rotation: output.Rotation,
				x:        output.X,
				y:        output.Y,
				primary:  output.Status == OutputStatusPrimary,
			}
		}
		targets = append(targets, target)
	}

	crtcCfgs, err := r.getCrtcConfigs(targets)
	if err != nil {
		return err
	}
	screenSize := getScreenSize(targets)
	if screenSize.Width == 0 || screenSize.Height == 0 {
		return errNoOutputEnabled
	}
	if logger.GetLogLevel() == log.LevelDebug {
		logger.Debug("crtcCfgs:", spew.Sdump(crtcCfgs))
	}
	logger.Debugf("screen size after apply: %+v", screenSize)

	err = r.apply(crtcCfgs, screenSize, targets)
	if err != nil {
		return xerrors.Errorf("failed to apply scheme %s: %w", scheme, err)
	}
	return r.Reload()
}

func (r *Randr) getFreeCrtcMap(targets []outputTarget) map[randr.Crtc]bool {
	result := make(map[randr.Crtc]bool)
	for crtc, crtcInfo := range r.crtcs {
		if len(crtcInfo.Outputs) == 0 {
			result[crtc] = true
		}
	}
	for _, target := range targets {
		if !target.enabled && target.output.crtc != 0 {
			result[target.output.crtc] = true
		}
	}
	return result
}

func (r *Randr) findFreeCrtc(output *Output, freeCrtcs map[randr.Crtc]bool) randr.Crtc {
	for _, crtc := range r.crtcIds {
		crtcInfo := r.crtcs[crtc]
		if crtcInfo == nil || !freeCrtcs[crtc] {
			continue
		}
		if crtcSliceContains(output.crtcs, crtc) || outputSliceContains(crtcInfo.PossibleOutputs, output.ID) {
			freeCrtcs[crtc] = false
			return crtc
		}
	}
	return 0
}

// crtcRotation resets rotation to normal when crtc cannot do it.
func (r *Randr) crtcRotation(crtc randr.Crtc, rotation uint16) uint16 {
	if crtcInfo := r.crtcs[crtc]; crtcInfo != nil && rotation&crtcInfo.Rotations != rotation {
		logger.Warningf("rotation %d not supported by crtc %v, reset it", rotation, crtc)
		return randr.RotationRotate0
	}
	return rotation
}

func (r *Randr) getCrtcConfigs(targets []outputTarget) (map[randr.Crtc]crtcConfig, error) {
	freeCrtcs := r.getFreeCrtcMap(targets)
	crtcCfgs := make(map[randr.Crtc]crtcConfig)
	for _, target := range targets {
		if !target.enabled {
			continue
		}
		crtc := target.output.crtc
		rotation := r.crtcRotation(crtc, target.rotation)
		if cfg, ok := crtcCfgs[crtc]; ok && crtc != 0 {
			// a mirrored output keeps sharing the CRTC when the layout still matches
			if cfg.mode == randr.Mode(target.mode.Id) && cfg.x == target.x &&
				cfg.y == target.y && cfg.rotation == rotation {
				cfg.outputs = append(cfg.outputs, target.output.ID)
				crtcCfgs[crtc] = cfg
				continue
			}
			crtc = 0
		}
		if crtc == 0 {
			crtc = r.findFreeCrtc(target.output, freeCrtcs)
			if crtc == 0 {
				return nil, fmt.Errorf("failed to find free crtc for output %s", target.output.Name)
			}
			rotation = r.crtcRotation(crtc, target.rotation)
		}
		freeCrtcs[crtc] = false
		crtcCfgs[crtc] = crtcConfig{
			crtc:     crtc,
			x:        target.x,
			y:        target.y,
			mode:     randr.Mode(target.mode.Id),
			rotation: rotation,
			outputs:  []randr.Output{target.output.ID},
		}
	}

	for crtc, isFree := range freeCrtcs {
		if isFree {
			crtcInfo := r.crtcs[crtc]
			if crtcInfo != nil && len(crtcInfo.Outputs) == 0 && crtcInfo.Mode == 0 {
				// already disabled
				continue
			}
			crtcCfgs[crtc] = crtcConfig{
				crtc:     crtc,
				rotation: randr.RotationRotate0,
			}
		}
	}
	return crtcCfgs, nil
}

// getScreenSize computes the screen size the enabled outputs need.
func getScreenSize(targets []outputTarget) ScreenSize {
	var w, h int
	for _, target := range targets {
		if !target.enabled {
			continue
		}
		width := target.mode.Width
		height := target.mode.Height
		swapWidthHeightWithRotation(target.rotation, &width, &height)

		w1 := int(target.x) + int(width)
		h1 := int(target.y) + int(height)
		if w < w1 {
			w = w1
		}
		if h < h1 {
			h = h1
		}
	}
	if w > math.MaxUint16 {
		w = math.MaxUint16
	}
	if h > math.MaxUint16 {
		h = math.MaxUint16
	}
	return ScreenSize{
		Width:    uint16(w),
		Height:   uint16(h),
		MmWidth:  uint32(float64(w) / screenDPMM),
		MmHeight: uint32(float64(h) / screenDPMM),
	}
}

func crtcConfigMatches(cfg crtcConfig, info *CrtcInfo) bool {
	if cfg.x != info.X || cfg.y != info.Y || cfg.mode != info.Mode ||
		cfg.rotation != info.Rotation || len(cfg.outputs) != len(info.Outputs) {
		return false
	}
	for _, output := range cfg.outputs {
		if !outputSliceContains(info.Outputs, output) {
			return false
		}
	}
	return true
}

func (r *Randr) apply(crtcCfgs map[randr.Crtc]crtcConfig, screenSize ScreenSize, targets []outputTarget) error {
	r.conn.GrabServer()
	defer func() {
		err := r.conn.UngrabServer()
		if err != nil {
			logger.Warning(err)
		}
	}()

	// CRTCs that change or would not fit into the new screen are disabled
	// before the screen is resized.
	for _, crtc := range r.crtcIds {
		crtcInfo := r.crtcs[crtc]
		if crtcInfo == nil || len(crtcInfo.Outputs) == 0 {
			continue
		}
		rect := crtcInfo.getRect()
		shouldDisable := int(rect.X)+int(rect.Width) > int(screenSize.Width) ||
			int(rect.Y)+int(rect.Height) > int(screenSize.Height)
		if cfg, ok := crtcCfgs[crtc]; ok && !crtcConfigMatches(cfg, crtcInfo) {
			shouldDisable = true
		}
		if !shouldDisable {
			continue
		}
		logger.Debugf("disable crtc %v, it's outputs: %v", crtc, crtcInfo.Outputs)
		err := r.conn.SetCrtcConfig(crtcConfig{
			crtc:     crtc,
			rotation: randr.RotationRotate0,
		}, r.cfgTs)
		if err != nil {
			return err
		}
	}

	err := r.conn.SetScreenSize(screenSize)
	if err != nil {
		return err
	}
	r.screenSize = screenSize

	for _, crtc := range r.crtcIds {
		cfg, ok := crtcCfgs[crtc]
		if !ok {
			continue
		}
		err := r.conn.SetCrtcConfig(cfg, r.cfgTs)
		if err != nil {
			logger.Warning("set crtcConfig failed:", cfg, err)
		}
	}

	if r.HasPrimary() {
		for _, target := range targets {
			if target.enabled && target.primary {
				err := r.conn.SetOutputPrimary(target.output.ID)
				if err != nil {
					logger.Warning("set output primary failed:", err)
				}
				break
			}
		}
	}
	return nil
}

// ApplyLegacyScheme applies a scheme written by RandrLegacy.Save.
func ApplyLegacyScheme(l *RandrLegacy, scheme string, ch xfconf.Channel) error {
	if !IsLegacyScheme(scheme, ch) {
		return fmt.Errorf("scheme %q has no legacy layout", scheme)
	}
	numScreens := xfconf.GetInt(ch, xfconf.JoinPath(scheme, "NumScreens"), 0)
	if numScreens > len(l.Screens) {
		numScreens = len(l.Screens)
	}

	var lastErr error
	for i := 0; i < numScreens; i++ {
		screen := l.Screens[i]
		base := xfconf.JoinPath(scheme, fmt.Sprintf("Screen_%d", i))
		width, height, ok := parseResolution(xfconf.GetString(ch, base+"/Resolution", ""))
		if !ok {
			logger.Warningf("invalid resolution for screen %d", i)
			continue
		}
		sizeID := legacySizeIndex(screen.Sizes, width, height)
		if sizeID < 0 {
			logger.Warningf("size %dx%d not available on screen %d", width, height, i)
			continue
		}
		rate := xfconf.GetInt(ch, base+"/RefreshRate", int(screen.Rate))
		if rate < 0 || rate > math.MaxUint16 {
			rate = int(screen.Rate)
		}
		rotation := degreesToRotation(xfconf.GetInt(ch, base+"/Rotation", 0))

		err := l.applyScreen(i, sizeID, rotation, uint16(rate))
		if err != nil {
			logger.Warningf("apply screen %d failed: %v", i, err)
			lastErr = err
		}
	}
	return lastErr
}
