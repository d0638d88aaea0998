// SPDX-FileCopyrightText: 2018 - 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package display1

import (
	"fmt"
	"sync"

	x "github.com/linuxdeepin/go-x11-client"
	"github.com/linuxdeepin/go-x11-client/ext/randr"
)

type ScreenSize struct {
	Width    uint16
	Height   uint16
	MmWidth  uint32
	MmHeight uint32
}

type ScreenResources struct {
	ConfigTimestamp x.Timestamp
	Modes           []randr.ModeInfo
	Outputs         []randr.Output
	Crtcs           []randr.Crtc
}

type OutputInfo struct {
	Name      string
	Connected bool
	Crtc      randr.Crtc
	// every CRTC able to drive this output
	Crtcs []randr.Crtc
	Modes []randr.Mode
	// the first NumPreferred entries of Modes are preferred by the driver
	NumPreferred int
	MmWidth      uint32
	MmHeight     uint32
}

type CrtcInfo struct {
	X               int16
	Y               int16
	Width           uint16
	Height          uint16
	Mode            randr.Mode
	Rotation        uint16
	Rotations       uint16
	Outputs         []randr.Output
	PossibleOutputs []randr.Output
}

func (ci *CrtcInfo) getRect() x.Rectangle {
	rect := x.Rectangle{
		X:      ci.X,
		Y:      ci.Y,
		Width:  ci.Width,
		Height: ci.Height,
	}
	swapWidthHeightWithRotation(ci.Rotation, &rect.Width, &rect.Height)
	return rect
}

type LegacySize struct {
	Width    uint16
	Height   uint16
	MmWidth  uint16
	MmHeight uint16
}

// LegacyScreenInfo is the RandR 1.1 configuration of one logical screen.
type LegacyScreenInfo struct {
	Sizes           []LegacySize
	SizeID          int
	Rotation        uint16
	Rotations       uint16
	Rate            uint16
	Timestamp       x.Timestamp
	ConfigTimestamp x.Timestamp
}

type crtcConfig struct {
	crtc    randr.Crtc
	outputs []randr.Output

	x        int16
	y        int16
	rotation uint16
	mode     randr.Mode
}

type EventType int

const (
	EventScreenChanged EventType = iota
	EventOutputChanged
	EventCrtcChanged
	EventOutputPropertyChanged
)

func (ev EventType) String() string {
	switch ev {
	case EventScreenChanged:
		return "screen changed"
	case EventOutputChanged:
		return "output changed"
	case EventCrtcChanged:
		return "crtc changed"
	case EventOutputPropertyChanged:
		return "output property changed"
	}
	return "unknown"
}

// Conn is the live display connection the models are built from.
type Conn interface {
	QueryVersion() (major, minor uint32, err error)

	GetScreenResources(current bool) (*ScreenResources, error)
	GetOutputInfo(output randr.Output, cfgTs x.Timestamp) (*OutputInfo, error)
	GetCrtcInfo(crtc randr.Crtc, cfgTs x.Timestamp) (*CrtcInfo, error)
	GetOutputEdid(output randr.Output) ([]byte, error)
	GetOutputPrimary() (randr.Output, error)
	SetOutputPrimary(output randr.Output) error
	GetScreenSize() ScreenSize
	SetScreenSize(ss ScreenSize) error
	SetCrtcConfig(cfg crtcConfig, cfgTs x.Timestamp) error
	GrabServer()
	UngrabServer() error

	NumScreens() int
	GetScreenInfo(screen int) (*LegacyScreenInfo, error)
	SetScreenConfig(screen int, info *LegacyScreenInfo, sizeID int, rotation, rate uint16) error

	ListenEvents(handler func(ev EventType)) error
	Close()
}

type xConn struct {
	conn     *x.Conn
	root     x.Window
	atomEDID x.Atom

	mu         sync.Mutex
	screenSize ScreenSize
}

// NewXConn opens the default X display.
func NewXConn() (Conn, error) {
	conn, err := x.NewConn()
	if err != nil {
		return nil, err
	}
	return newXConn(conn), nil
}

func newXConn(conn *x.Conn) *xConn {
	screen := conn.GetDefaultScreen()
	return &xConn{
		conn: conn,
		root: screen.Root,
		screenSize: ScreenSize{
			Width:    screen.WidthInPixels,
			Height:   screen.HeightInPixels,
			MmWidth:  uint32(screen.WidthInMillimeters),
			MmHeight: uint32(screen.HeightInMillimeters),
		},
	}
}

func (c *xConn) QueryVersion() (major, minor uint32, err error) {
	reply, err := randr.QueryVersion(c.conn, randr.MajorVersion, randr.MinorVersion).Reply(c.conn)
	if err != nil {
		return 0, 0, err
	}
	return reply.ServerMajorVersion, reply.ServerMinorVersion, nil
}

func (c *xConn) GetScreenResources(current bool) (*ScreenResources, error) {
	if current {
		reply, err := randr.GetScreenResourcesCurrent(c.conn, c.root).Reply(c.conn)
		if err != nil {
			return nil, err
		}
		return &ScreenResources{
			ConfigTimestamp: reply.ConfigTimestamp,
			Modes:           reply.Modes,
			Outputs:         reply.Outputs,
			Crtcs:           reply.Crtcs,
		}, nil
	}
	reply, err := randr.GetScreenResources(c.conn, c.root).Reply(c.conn)
	if err != nil {
		return nil, err
	}
	return &ScreenResources{
		ConfigTimestamp: reply.ConfigTimestamp,
		Modes:           reply.Modes,
		Outputs:         reply.Outputs,
		Crtcs:           reply.Crtcs,
	}, nil
}

func (c *xConn) GetOutputInfo(output randr.Output, cfgTs x.Timestamp) (*OutputInfo, error) {
	reply, err := randr.GetOutputInfo(c.conn, output, cfgTs).Reply(c.conn)
	if err != nil {
		return nil, err
	}
	if reply.Status != randr.StatusSuccess {
		return nil, fmt.Errorf("status is not success, is %v", reply.Status)
	}
	return &OutputInfo{
		Name:         reply.Name,
		Connected:    reply.Connection == randr.ConnectionConnected,
		Crtc:         reply.Crtc,
		Crtcs:        reply.Crtcs,
		Modes:        reply.Modes,
		NumPreferred: int(reply.NumPreferred),
		MmWidth:      reply.MmWidth,
		MmHeight:     reply.MmHeight,
	}, nil
}

func (c *xConn) GetCrtcInfo(crtc randr.Crtc, cfgTs x.Timestamp) (*CrtcInfo, error) {
	reply, err := randr.GetCrtcInfo(c.conn, crtc, cfgTs).Reply(c.conn)
	if err != nil {
		return nil, err
	}
	if reply.Status != randr.StatusSuccess {
		return nil, fmt.Errorf("status is not success, is %v", reply.Status)
	}
	return &CrtcInfo{
		X:               reply.X,
		Y:               reply.Y,
		Width:           reply.Width,
		Height:          reply.Height,
		Mode:            reply.Mode,
		Rotation:        reply.Rotation,
		Rotations:       reply.Rotations,
		Outputs:         reply.Outputs,
		PossibleOutputs: reply.PossibleOutputs,
	}, nil
}

func (c *xConn) GetOutputEdid(output randr.Output) ([]byte, error) {
	if c.atomEDID == 0 {
		atom, err := c.conn.GetAtom("EDID")
		if err != nil {
			return nil, err
		}
		c.atomEDID = atom
	}

	reply, err := randr.GetOutputProperty(c.conn, output,
		c.atomEDID, x.AtomInteger,
		0, 32, false, false).Reply(c.conn)
	if err != nil {
		return nil, err
	}
	return reply.Value, nil
}

func (c *xConn) GetOutputPrimary() (randr.Output, error) {
	reply, err := randr.GetOutputPrimary(c.conn, c.root).Reply(c.conn)
	if err != nil {
		return 0, err
	}
	return reply.Output, nil
}

func (c *xConn) SetOutputPrimary(output randr.Output) error {
	logger.Debug("set output primary", output)
	return randr.SetOutputPrimaryChecked(c.conn, c.root, output).Check(c.conn)
}

func (c *xConn) GetScreenSize() ScreenSize {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.screenSize
}

func (c *xConn) SetScreenSize(ss ScreenSize) error {
	err := randr.SetScreenSizeChecked(c.conn, c.root, ss.Width, ss.Height, ss.MmWidth,
		ss.MmHeight).Check(c.conn)
	logger.Debugf("set screen size %dx%d, mm: %dx%d",
		ss.Width, ss.Height, ss.MmWidth, ss.MmHeight)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.screenSize = ss
	c.mu.Unlock()
	return nil
}

func (c *xConn) SetCrtcConfig(cfg crtcConfig, cfgTs x.Timestamp) error {
	logger.Debugf("setCrtcConfig crtc: %v, cfgTs: %v, x: %v, y: %v,"+
		" mode: %v, rotation|reflect: %v, outputs: %v",
		cfg.crtc, cfgTs, cfg.x, cfg.y, cfg.mode, cfg.rotation, cfg.outputs)
	setCfg, err := randr.SetCrtcConfig(c.conn, cfg.crtc, 0, cfgTs,
		cfg.x, cfg.y, cfg.mode, cfg.rotation,
		cfg.outputs).Reply(c.conn)
	if err != nil {
		return err
	}
	if setCfg.Status != randr.SetConfigSuccess {
		return fmt.Errorf("failed to configure crtc %v: %v",
			cfg.crtc, getRandrStatusStr(setCfg.Status))
	}
	return nil
}

func getRandrStatusStr(status uint8) string {
	switch status {
	case randr.SetConfigSuccess:
		return "success"
	case randr.SetConfigFailed:
		return "failed"
	case randr.SetConfigInvalidConfigTime:
		return "invalid config time"
	case randr.SetConfigInvalidTime:
		return "invalid time"
	default:
		return fmt.Sprintf("unknown status %d", status)
	}
}

func (c *xConn) GrabServer() {
	logger.Debug("grab server")
	x.GrabServer(c.conn)
}

func (c *xConn) UngrabServer() error {
	logger.Debug("ungrab server")
	return x.UngrabServerChecked(c.conn).Check(c.conn)
}

func (c *xConn) NumScreens() int {
	return len(c.conn.GetSetup().Roots)
}

func (c *xConn) screenRoot(screen int) (x.Window, error) {
	roots := c.conn.GetSetup().Roots
	if screen < 0 || screen >= len(roots) {
		return 0, fmt.Errorf("invalid screen %d", screen)
	}
	return roots[screen].Root, nil
}

func (c *xConn) GetScreenInfo(screen int) (*LegacyScreenInfo, error) {
	root, err := c.screenRoot(screen)
	if err != nil {
		return nil, err
	}
	reply, err := randr.GetScreenInfo(c.conn, root).Reply(c.conn)
	if err != nil {
		return nil, err
	}
	info := &LegacyScreenInfo{
		SizeID:          int(reply.SizeID),
		Rotation:        uint16(reply.Rotation),
		Rotations:       uint16(reply.Rotations),
		Rate:            reply.Rate,
		Timestamp:       reply.Timestamp,
		ConfigTimestamp: reply.ConfigTimestamp,
	}
	for _, size := range reply.Sizes {
		info.Sizes = append(info.Sizes, LegacySize{
			Width:    size.Width,
			Height:   size.Height,
			MmWidth:  size.MWidth,
			MmHeight: size.MHeight,
		})
	}
	return info, nil
}

func (c *xConn) SetScreenConfig(screen int, info *LegacyScreenInfo, sizeID int, rotation, rate uint16) error {
	root, err := c.screenRoot(screen)
	if err != nil {
		return err
	}
	reply, err := randr.SetScreenConfig(c.conn, root, info.Timestamp, info.ConfigTimestamp,
		uint16(sizeID), rotation, rate).Reply(c.conn)
	if err != nil {
		return err
	}
	if reply.Status != randr.SetConfigSuccess {
		return fmt.Errorf("failed to configure screen %d: %v", screen,
			getRandrStatusStr(reply.Status))
	}
	return nil
}

func (c *xConn) ListenEvents(handler func(ev EventType)) error {
	eventChan := c.conn.MakeAndAddEventChan(50)
	// 选择监听哪些 randr 事件
	err := randr.SelectInputChecked(c.conn, c.root,
		randr.NotifyMaskOutputChange|randr.NotifyMaskOutputProperty|
			randr.NotifyMaskCrtcChange|randr.NotifyMaskScreenChange).Check(c.conn)
	if err != nil {
		return fmt.Errorf("failed to select randr event: %w", err)
	}

	rrExtData := c.conn.GetExtensionData(randr.Ext())

	go func() {
		for ev := range eventChan {
			switch ev.GetEventCode() {
			case randr.NotifyEventCode + rrExtData.FirstEvent:
				event, _ := randr.NewNotifyEvent(ev)
				switch event.SubCode {
				case randr.NotifyOutputChange:
					handler(EventOutputChanged)
				case randr.NotifyCrtcChange:
					handler(EventCrtcChanged)
				case randr.NotifyOutputProperty:
					handler(EventOutputPropertyChanged)
				}

			case randr.ScreenChangeNotifyEventCode + rrExtData.FirstEvent:
				event, _ := randr.NewScreenChangeNotifyEvent(ev)
				c.mu.Lock()
				c.screenSize = ScreenSize{
					Width:    event.Width,
					Height:   event.Height,
					MmWidth:  uint32(event.MmWidth),
					MmHeight: uint32(event.MmHeight),
				}
				c.mu.Unlock()
				handler(EventScreenChanged)
			}
		}
	}()
	return nil
}

func (c *xConn) Close() {
	c.conn.Close()
}
