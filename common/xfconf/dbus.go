// SPDX-FileCopyrightText: 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package xfconf

import (
	"errors"

	"github.com/godbus/dbus/v5"
	"github.com/linuxdeepin/go-lib/dbusutil"
	"golang.org/x/xerrors"
)

const (
	dbusServiceName = "org.xfce.Xfconf"
	dbusPath        = "/org/xfce/Xfconf"
	dbusInterface   = "org.xfce.Xfconf"

	errNamePropertyNotFound = "org.xfce.Xfconf.Error.PropertyNotFound"
)

// DBusChannel talks to the xfconfd daemon on the session bus.
type DBusChannel struct {
	name     string
	obj      dbus.BusObject
	sigLoop  *dbusutil.SignalLoop
	handlers handlers
}

func NewDBusChannel(conn *dbus.Conn, name string) (*DBusChannel, error) {
	c := &DBusChannel{
		name: name,
		obj:  conn.Object(dbusServiceName, dbusPath),
	}

	err := c.obj.AddMatchSignal(dbusInterface, "PropertyChanged").Err
	if err != nil {
		return nil, xerrors.Errorf("failed to match PropertyChanged: %w", err)
	}
	err = c.obj.AddMatchSignal(dbusInterface, "PropertyRemoved").Err
	if err != nil {
		return nil, xerrors.Errorf("failed to match PropertyRemoved: %w", err)
	}

	c.sigLoop = dbusutil.NewSignalLoop(conn, 10)
	c.sigLoop.Start()
	c.sigLoop.AddHandler(&dbusutil.SignalRule{
		Name: dbusInterface + ".PropertyChanged",
	}, func(sig *dbus.Signal) {
		if len(sig.Body) < 3 {
			return
		}
		channel, _ := sig.Body[0].(string)
		property, _ := sig.Body[1].(string)
		if channel != c.name {
			return
		}
		value, ok := sig.Body[2].(dbus.Variant)
		if !ok {
			logger.Warning("invalid PropertyChanged value for", property)
			return
		}
		c.handlers.emit(property, value.Value())
	})
	c.sigLoop.AddHandler(&dbusutil.SignalRule{
		Name: dbusInterface + ".PropertyRemoved",
	}, func(sig *dbus.Signal) {
		if len(sig.Body) < 2 {
			return
		}
		channel, _ := sig.Body[0].(string)
		property, _ := sig.Body[1].(string)
		if channel != c.name {
			return
		}
		c.handlers.emit(property, nil)
	})
	return c, nil
}

func (c *DBusChannel) Name() string {
	return c.name
}

func (c *DBusChannel) method(name string) string {
	return dbusInterface + "." + name
}

func toChannelError(err error) error {
	var dbusErr dbus.Error
	if errors.As(err, &dbusErr) && dbusErr.Name == errNamePropertyNotFound {
		return ErrPropertyNotFound
	}
	return err
}

func (c *DBusChannel) GetProperty(property string) (interface{}, error) {
	var value dbus.Variant
	err := c.obj.Call(c.method("GetProperty"), 0, c.name, property).Store(&value)
	if err != nil {
		return nil, toChannelError(err)
	}
	return value.Value(), nil
}

func (c *DBusChannel) SetProperty(property string, value interface{}) error {
	value = normalizeValue(value)
	return c.obj.Call(c.method("SetProperty"), 0, c.name, property,
		dbus.MakeVariant(value)).Err
}

func (c *DBusChannel) PropertyExists(property string) (bool, error) {
	var exists bool
	err := c.obj.Call(c.method("PropertyExists"), 0, c.name, property).Store(&exists)
	return exists, err
}

func (c *DBusChannel) GetAllProperties(base string) (map[string]interface{}, error) {
	if base == "" {
		base = "/"
	}
	var props map[string]dbus.Variant
	err := c.obj.Call(c.method("GetAllProperties"), 0, c.name, base).Store(&props)
	if err != nil {
		err = toChannelError(err)
		if err == ErrPropertyNotFound {
			return map[string]interface{}{}, nil
		}
		return nil, err
	}
	result := make(map[string]interface{}, len(props))
	for k, v := range props {
		result[k] = v.Value()
	}
	return result, nil
}

func (c *DBusChannel) ResetProperty(base string, recursive bool) error {
	err := c.obj.Call(c.method("ResetProperty"), 0, c.name, base, recursive).Err
	if toChannelError(err) == ErrPropertyNotFound {
		return nil
	}
	return err
}

func (c *DBusChannel) ConnectPropertyChanged(fn PropertyChangedFunc) HandlerId {
	return c.handlers.connect(fn)
}

func (c *DBusChannel) DisconnectPropertyChanged(id HandlerId) {
	c.handlers.disconnect(id)
}

func (c *DBusChannel) Close() {
	c.sigLoop.Stop()
}
