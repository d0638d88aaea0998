// SPDX-FileCopyrightText: 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display1

import (
	"errors"

	"github.com/davecgh/go-spew/spew"
	"github.com/linuxdeepin/go-lib/log"
	x "github.com/linuxdeepin/go-x11-client"
	"github.com/linuxdeepin/go-x11-client/ext/randr"
	"golang.org/x/xerrors"
)

var (
	ErrRandrMissing = errors.New("RandR extension is missing or too old")
	// ErrOutputsUnsupported means the driver exposes a single placeholder
	// output, the legacy model has to be used instead.
	ErrOutputsUnsupported = errors.New("driver does not support RandR outputs")
)

// name of the only output of drivers without RandR 1.2 support
const defaultOutputName = "default"

// Capability is the RandR feature level of the running server.
type Capability int

const (
	CapabilityLegacyOnly Capability = iota
	CapabilityModern
	CapabilityModernWithPrimary
)

func (c Capability) String() string {
	switch c {
	case CapabilityLegacyOnly:
		return "legacy"
	case CapabilityModern:
		return "modern"
	case CapabilityModernWithPrimary:
		return "modern with primary"
	}
	return "unknown"
}

func versionAtLeast(major, minor, wantMajor, wantMinor uint32) bool {
	return major > wantMajor || (major == wantMajor && minor >= wantMinor)
}

func NegotiateCapability(conn Conn) (Capability, error) {
	major, minor, err := conn.QueryVersion()
	if err != nil {
		return 0, xerrors.Errorf("%w: %v", ErrRandrMissing, err)
	}
	logger.Debugf("randr version %d.%d", major, minor)
	switch {
	case versionAtLeast(major, minor, 1, 3):
		return CapabilityModernWithPrimary, nil
	case versionAtLeast(major, minor, 1, 2):
		return CapabilityModern, nil
	case versionAtLeast(major, minor, 1, 1):
		return CapabilityLegacyOnly, nil
	}
	return 0, xerrors.Errorf("%w: version %d.%d", ErrRandrMissing, major, minor)
}

type OutputStatus int

const (
	OutputStatusNone OutputStatus = iota
	OutputStatusPrimary
	OutputStatusSecondary
)

func (s OutputStatus) String() string {
	switch s {
	case OutputStatusPrimary:
		return "primary"
	case OutputStatusSecondary:
		return "secondary"
	}
	return "none"
}

// Output is one connected connector.
type Output struct {
	ID           randr.Output
	Name         string
	FriendlyName string
	Modes        []ModeInfo
	// 0 when the output is disabled
	ActiveMode uint32
	Rotation   uint16
	Rotations  uint16
	X          int16
	Y          int16
	Status     OutputStatus
	EDID       []byte
	MmWidth    uint32
	MmHeight   uint32

	crtc         randr.Crtc
	crtcs        []randr.Crtc
	numPreferred int
}

func (o *Output) Enabled() bool {
	return o.ActiveMode != 0
}

func (o *Output) activeModeInfo() ModeInfo {
	return findMode(o.Modes, o.ActiveMode)
}

// Randr is a snapshot of the outputs of the screen. It is rebuilt as a whole
// by Reload.
type Randr struct {
	conn       Conn
	capability Capability

	cfgTs      x.Timestamp
	modes      []ModeInfo
	crtcIds    []randr.Crtc
	crtcs      map[randr.Crtc]*CrtcInfo
	screenSize ScreenSize

	Outputs    []*Output
	CloneModes []uint32
}

func NewRandr(conn Conn) (*Randr, error) {
	capability, err := NegotiateCapability(conn)
	if err != nil {
		return nil, err
	}
	if capability == CapabilityLegacyOnly {
		return nil, xerrors.Errorf("%w: version 1.2 is required", ErrRandrMissing)
	}
	return newRandr(conn, capability)
}

func newRandr(conn Conn, capability Capability) (*Randr, error) {
	r := &Randr{
		conn:       conn,
		capability: capability,
	}
	err := r.populate(false)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Randr) Capability() Capability {
	return r.capability
}

func (r *Randr) HasPrimary() bool {
	return r.capability == CapabilityModernWithPrimary
}

func (r *Randr) ScreenSize() ScreenSize {
	return r.screenSize
}

func (r *Randr) populate(current bool) error {
	resources, err := r.conn.GetScreenResources(current)
	if err != nil {
		return xerrors.Errorf("failed to get screen resources: %w", err)
	}
	r.cfgTs = resources.ConfigTimestamp
	r.modes = toModeInfoList(resources.Modes)
	r.screenSize = r.conn.GetScreenSize()

	r.crtcIds = resources.Crtcs
	r.crtcs = make(map[randr.Crtc]*CrtcInfo, len(resources.Crtcs))
	for _, crtc := range resources.Crtcs {
		info, err := r.conn.GetCrtcInfo(crtc, r.cfgTs)
		if err != nil {
			logger.Warningf("get crtc %v info failed: %v", crtc, err)
			continue
		}
		r.crtcs[crtc] = info
	}

	var outputs []*Output
	for idx, outputId := range resources.Outputs {
		info, err := r.conn.GetOutputInfo(outputId, r.cfgTs)
		if err != nil {
			logger.Warningf("get output %v info failed: %v", outputId, err)
			continue
		}
		if idx == 0 && info.Name == defaultOutputName {
			return ErrOutputsUnsupported
		}
		if !info.Connected {
			continue
		}
		outputs = append(outputs, r.newOutput(outputId, info))
	}

	if r.HasPrimary() {
		primary, err := r.conn.GetOutputPrimary()
		if err != nil {
			logger.Warning("get output primary failed:", err)
		}
		for _, output := range outputs {
			if output.ID == primary {
				output.Status = OutputStatusPrimary
			} else {
				output.Status = OutputStatusSecondary
			}
		}
	} else {
		for _, output := range outputs {
			output.Status = OutputStatusSecondary
		}
	}

	r.Outputs = outputs
	r.CloneModes = getCloneModes(r.modes, outputs)

	if logger.GetLogLevel() == log.LevelDebug {
		logger.Debug("outputs:", spew.Sdump(outputs))
	}
	return nil
}

func (r *Randr) newOutput(id randr.Output, info *OutputInfo) *Output {
	output := &Output{
		ID:           id,
		Name:         info.Name,
		Modes:        toModeInfos(r.modes, info.Modes),
		MmWidth:      info.MmWidth,
		MmHeight:     info.MmHeight,
		crtcs:        info.Crtcs,
		numPreferred: info.NumPreferred,
	}

	var err error
	output.EDID, err = r.conn.GetOutputEdid(id)
	if err != nil {
		logger.Warningf("get output %v edid failed: %v", info.Name, err)
	}
	output.FriendlyName = FriendlyName(info.Name, output.EDID)

	var crtcInfo *CrtcInfo
	if info.Crtc != 0 {
		crtcInfo = r.crtcs[info.Crtc]
		if crtcInfo == nil {
			logger.Warningf("crtc %v of output %v can not be read, treat output as disabled",
				info.Crtc, info.Name)
		}
	}

	if crtcInfo != nil {
		output.crtc = info.Crtc
		output.ActiveMode = uint32(crtcInfo.Mode)
		output.Rotation = crtcInfo.Rotation
		output.Rotations = crtcInfo.Rotations
		output.X = crtcInfo.X
		output.Y = crtcInfo.Y
	} else {
		output.ActiveMode = 0
		output.Rotation = randr.RotationRotate0
		output.Rotations = r.disabledOutputRotations(info.Crtcs)
	}
	return output
}

// disabledOutputRotations returns the rotations every CRTC able to drive the
// output supports.
func (r *Randr) disabledOutputRotations(crtcs []randr.Crtc) uint16 {
	if len(crtcs) == 0 {
		return randr.RotationRotate0
	}
	rotations := uint16(allRotationBits)
	for _, crtc := range crtcs {
		crtcInfo := r.crtcs[crtc]
		if crtcInfo == nil {
			rotations &= randr.RotationRotate0
			continue
		}
		rotations &= crtcInfo.Rotations
	}
	return rotations
}

// Reload probes the screen again and replaces the whole snapshot.
func (r *Randr) Reload() error {
	r.Outputs = nil
	r.CloneModes = nil
	r.crtcs = nil
	r.modes = nil
	return r.populate(r.capability == CapabilityModernWithPrimary)
}

func (r *Randr) Close() {
	r.Outputs = nil
	r.CloneModes = nil
	r.crtcs = nil
	r.crtcIds = nil
	r.modes = nil
}

// PreferredMode returns 0 when the output has no modes.
func (r *Randr) PreferredMode(output *Output) uint32 {
	return getPreferredMode(output.Modes, output.numPreferred, output.MmHeight, r.screenSize)
}

func (r *Randr) GetOutputByName(name string) *Output {
	for _, output := range r.Outputs {
		if output.Name == name {
			return output
		}
	}
	return nil
}

func (r *Randr) Mode(id uint32) ModeInfo {
	return findMode(r.modes, id)
}

// DisplayInfos returns the identities of the connected outputs, in the
// format the profiles store them.
func (r *Randr) DisplayInfos() []string {
	result := make([]string, len(r.Outputs))
	for i, output := range r.Outputs {
		result[i] = outputIdentity(output.EDID)
	}
	return result
}
