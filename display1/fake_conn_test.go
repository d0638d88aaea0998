// SPDX-FileCopyrightText: 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display1

import (
	"errors"
	"fmt"

	x "github.com/linuxdeepin/go-x11-client"
	"github.com/linuxdeepin/go-x11-client/ext/randr"
)

type fakeConn struct {
	major, minor uint32
	versionErr   error

	cfgTs   x.Timestamp
	modes   []randr.ModeInfo
	outputs []randr.Output
	crtcIds []randr.Crtc

	outputInfos map[randr.Output]*OutputInfo
	crtcInfos   map[randr.Crtc]*CrtcInfo
	edids       map[randr.Output][]byte
	primary     randr.Output
	screenSize  ScreenSize

	screens []*LegacyScreenInfo

	resourcesCalls        int
	currentResourcesCalls int
	primaryCalls          int
	grabCount             int
	ungrabCount           int
	crtcConfigs           []crtcConfig
	screenSizes           []ScreenSize
	setPrimary            randr.Output
	screenConfigs         []screenConfigCall

	eventHandler func(ev EventType)
}

type screenConfigCall struct {
	screen   int
	sizeID   int
	rotation uint16
	rate     uint16
}

const (
	modeFHD  randr.Mode = 1
	modeXGA  randr.Mode = 2
	modeSXGA randr.Mode = 3

	outputVGA  randr.Output = 101
	outputHDMI randr.Output = 102
	outputDP   randr.Output = 103

	crtc1 randr.Crtc = 11
	crtc2 randr.Crtc = 12
	crtc3 randr.Crtc = 13
)

// newFakeConn returns the two-output layout: VGA-0 at 1920x1080 primary,
// HDMI-1 at 1024x768 right of it and a disconnected DP-1.
func newFakeConn() *fakeConn {
	return &fakeConn{
		major: 1,
		minor: 5,
		cfgTs: 100,
		modes: []randr.ModeInfo{
			// 148.5 MHz / (2200 * 1125) = 60 Hz
			{Id: uint32(modeFHD), Name: "1920x1080", Width: 1920, Height: 1080,
				DotClock: 148500000, HTotal: 2200, VTotal: 1125},
			// 65 MHz / (1344 * 806) = 60.004 Hz
			{Id: uint32(modeXGA), Name: "1024x768", Width: 1024, Height: 768,
				DotClock: 65000000, HTotal: 1344, VTotal: 806},
			// 108 MHz / (1688 * 1066) = 60.02 Hz
			{Id: uint32(modeSXGA), Name: "1280x1024", Width: 1280, Height: 1024,
				DotClock: 108000000, HTotal: 1688, VTotal: 1066},
		},
		outputs: []randr.Output{outputVGA, outputHDMI, outputDP},
		crtcIds: []randr.Crtc{crtc1, crtc2, crtc3},
		outputInfos: map[randr.Output]*OutputInfo{
			outputVGA: {
				Name:         "VGA-0",
				Connected:    true,
				Crtc:         crtc1,
				Crtcs:        []randr.Crtc{crtc1, crtc2},
				Modes:        []randr.Mode{modeFHD, modeXGA},
				NumPreferred: 1,
				MmWidth:      531,
				MmHeight:     299,
			},
			outputHDMI: {
				Name:         "HDMI-1",
				Connected:    true,
				Crtc:         crtc2,
				Crtcs:        []randr.Crtc{crtc1, crtc2},
				Modes:        []randr.Mode{modeXGA},
				NumPreferred: 1,
				MmWidth:      300,
				MmHeight:     230,
			},
			outputDP: {
				Name:  "DP-1",
				Crtcs: []randr.Crtc{crtc1, crtc2, crtc3},
			},
		},
		crtcInfos: map[randr.Crtc]*CrtcInfo{
			crtc1: {
				Width: 1920, Height: 1080,
				Mode:            modeFHD,
				Rotation:        randr.RotationRotate0,
				Rotations:       allRotationBits,
				Outputs:         []randr.Output{outputVGA},
				PossibleOutputs: []randr.Output{outputVGA, outputHDMI, outputDP},
			},
			crtc2: {
				X: 1920, Width: 1024, Height: 768,
				Mode:            modeXGA,
				Rotation:        randr.RotationRotate0,
				Rotations:       randr.RotationRotate0 | randr.RotationRotate90 | randr.RotationReflectX,
				Outputs:         []randr.Output{outputHDMI},
				PossibleOutputs: []randr.Output{outputVGA, outputHDMI, outputDP},
			},
			crtc3: {
				Rotation:        randr.RotationRotate0,
				Rotations:       randr.RotationRotate0 | randr.RotationRotate180,
				PossibleOutputs: []randr.Output{outputDP},
			},
		},
		edids: map[randr.Output][]byte{
			outputVGA:  makeEdid("DEL", "DELL U2412M"),
			outputHDMI: makeEdid("GSM", "W2442"),
		},
		primary: outputVGA,
		screenSize: ScreenSize{
			Width: 2944, Height: 1080,
			MmWidth: 776, MmHeight: 285,
		},
	}
}

// makeEdid returns a valid base EDID block with a monitor name descriptor.
func makeEdid(vendor, productName string) []byte {
	b := make([]byte, 128)
	copy(b, []byte{0x00, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x00})
	v := uint16(vendor[0]-'A'+1)<<10 | uint16(vendor[1]-'A'+1)<<5 | uint16(vendor[2]-'A'+1)
	b[8] = byte(v >> 8)
	b[9] = byte(v)
	b[16], b[17] = 1, 30
	b[18], b[19] = 1, 4
	b[21], b[22] = 53, 30

	d := b[72:90]
	d[3] = 0xfc
	for i := 5; i < 18; i++ {
		d[i] = ' '
	}
	copy(d[5:], productName+"\n")

	var sum byte
	for _, v := range b[:127] {
		sum += v
	}
	b[127] = byte(0x100 - int(sum)&0xff)
	return b
}

func (c *fakeConn) QueryVersion() (major, minor uint32, err error) {
	return c.major, c.minor, c.versionErr
}

func (c *fakeConn) GetScreenResources(current bool) (*ScreenResources, error) {
	if current {
		c.currentResourcesCalls++
	} else {
		c.resourcesCalls++
	}
	return &ScreenResources{
		ConfigTimestamp: c.cfgTs,
		Modes:           append([]randr.ModeInfo(nil), c.modes...),
		Outputs:         append([]randr.Output(nil), c.outputs...),
		Crtcs:           append([]randr.Crtc(nil), c.crtcIds...),
	}, nil
}

func (c *fakeConn) GetOutputInfo(output randr.Output, cfgTs x.Timestamp) (*OutputInfo, error) {
	info, ok := c.outputInfos[output]
	if !ok {
		return nil, fmt.Errorf("bad output %d", output)
	}
	infoCp := *info
	return &infoCp, nil
}

func (c *fakeConn) GetCrtcInfo(crtc randr.Crtc, cfgTs x.Timestamp) (*CrtcInfo, error) {
	info, ok := c.crtcInfos[crtc]
	if !ok {
		return nil, fmt.Errorf("bad crtc %d", crtc)
	}
	infoCp := *info
	return &infoCp, nil
}

func (c *fakeConn) GetOutputEdid(output randr.Output) ([]byte, error) {
	return c.edids[output], nil
}

func (c *fakeConn) GetOutputPrimary() (randr.Output, error) {
	c.primaryCalls++
	return c.primary, nil
}

func (c *fakeConn) SetOutputPrimary(output randr.Output) error {
	c.setPrimary = output
	c.primary = output
	return nil
}

func (c *fakeConn) GetScreenSize() ScreenSize {
	return c.screenSize
}

func (c *fakeConn) SetScreenSize(ss ScreenSize) error {
	c.screenSizes = append(c.screenSizes, ss)
	c.screenSize = ss
	return nil
}

// SetCrtcConfig updates the fake state like the server would.
func (c *fakeConn) SetCrtcConfig(cfg crtcConfig, cfgTs x.Timestamp) error {
	c.crtcConfigs = append(c.crtcConfigs, cfg)
	info, ok := c.crtcInfos[cfg.crtc]
	if !ok {
		return errors.New("bad crtc")
	}
	for _, output := range info.Outputs {
		c.outputInfos[output].Crtc = 0
	}
	info.X, info.Y = cfg.x, cfg.y
	info.Mode = cfg.mode
	info.Rotation = cfg.rotation
	info.Outputs = append([]randr.Output(nil), cfg.outputs...)
	info.Width, info.Height = 0, 0
	for _, mode := range c.modes {
		if mode.Id == uint32(cfg.mode) {
			info.Width, info.Height = mode.Width, mode.Height
		}
	}
	for _, output := range cfg.outputs {
		c.outputInfos[output].Crtc = cfg.crtc
	}
	c.cfgTs++
	return nil
}

func (c *fakeConn) GrabServer() {
	c.grabCount++
}

func (c *fakeConn) UngrabServer() error {
	c.ungrabCount++
	return nil
}

func (c *fakeConn) NumScreens() int {
	return len(c.screens)
}

func (c *fakeConn) GetScreenInfo(screen int) (*LegacyScreenInfo, error) {
	if screen < 0 || screen >= len(c.screens) {
		return nil, fmt.Errorf("bad screen %d", screen)
	}
	infoCp := *c.screens[screen]
	return &infoCp, nil
}

func (c *fakeConn) SetScreenConfig(screen int, info *LegacyScreenInfo, sizeID int, rotation, rate uint16) error {
	c.screenConfigs = append(c.screenConfigs, screenConfigCall{
		screen:   screen,
		sizeID:   sizeID,
		rotation: rotation,
		rate:     rate,
	})
	s := c.screens[screen]
	s.SizeID = sizeID
	s.Rotation = rotation
	s.Rate = rate
	return nil
}

func (c *fakeConn) ListenEvents(handler func(ev EventType)) error {
	c.eventHandler = handler
	return nil
}

func (c *fakeConn) Close() {
}

// unplug disconnects output and frees its CRTC.
func (c *fakeConn) unplug(output randr.Output) {
	info := c.outputInfos[output]
	if info.Crtc != 0 {
		crtc := c.crtcInfos[info.Crtc]
		crtc.Outputs = nil
		crtc.Mode = 0
		crtc.Width, crtc.Height = 0, 0
	}
	info.Connected = false
	info.Crtc = 0
	c.cfgTs++
}

func (c *fakeConn) plug(output randr.Output) {
	c.outputInfos[output].Connected = true
	c.cfgTs++
}

func newLegacyFakeConn() *fakeConn {
	c := newFakeConn()
	c.major, c.minor = 1, 1
	c.screens = []*LegacyScreenInfo{
		{
			Sizes: []LegacySize{
				{Width: 1920, Height: 1080, MmWidth: 531, MmHeight: 299},
				{Width: 1280, Height: 1024, MmWidth: 338, MmHeight: 270},
			},
			SizeID:    0,
			Rotation:  randr.RotationRotate0,
			Rotations: randr.RotationRotate0 | randr.RotationRotate90,
			Rate:      60,
		},
	}
	return c
}

// mirror drives VGA-0 and HDMI-1 from crtc1 at 1024x768.
func (c *fakeConn) mirror() {
	c.crtcInfos[crtc1].Mode = modeXGA
	c.crtcInfos[crtc1].Width, c.crtcInfos[crtc1].Height = 1024, 768
	c.crtcInfos[crtc1].Outputs = []randr.Output{outputVGA, outputHDMI}
	c.outputInfos[outputHDMI].Crtc = crtc1

	crtc := c.crtcInfos[crtc2]
	crtc.X = 0
	crtc.Mode = 0
	crtc.Width, crtc.Height = 0, 0
	crtc.Outputs = nil
	c.screenSize = ScreenSize{Width: 1024, Height: 768, MmWidth: 270, MmHeight: 202}
}
