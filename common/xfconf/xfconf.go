// SPDX-FileCopyrightText: 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package xfconf provides access to a hierarchical settings channel: property
// paths are "/" separated and every change is announced to the connected
// handlers. Channels are backed by the Xfconf daemon over D-Bus, by a YAML
// file, or by memory.
package xfconf

import (
	"errors"
	"strconv"
	"strings"
)

var ErrPropertyNotFound = errors.New("xfconf: property not found")

// PropertyChangedFunc is called with a nil value when a property is removed.
type PropertyChangedFunc func(property string, value interface{})

type HandlerId int

type Channel interface {
	Name() string
	GetProperty(property string) (interface{}, error)
	SetProperty(property string, value interface{}) error
	PropertyExists(property string) (bool, error)
	// GetAllProperties returns every property under base ("" or "/" for the
	// whole channel), keyed by full path.
	GetAllProperties(base string) (map[string]interface{}, error)
	ResetProperty(base string, recursive bool) error
	ConnectPropertyChanged(fn PropertyChangedFunc) HandlerId
	DisconnectPropertyChanged(id HandlerId)
}

// SplitPath splits a property path the way the channel keys are counted:
// the leading empty root element is kept, so "/Work/VGA-0" has 3 segments.
func SplitPath(property string) []string {
	return strings.Split(property, "/")
}

// JoinPath builds "/a/b/c" from its elements.
func JoinPath(elem ...string) string {
	return "/" + strings.Join(elem, "/")
}

func isUnder(property, base string) bool {
	base = strings.TrimSuffix(base, "/")
	if base == "" {
		return true
	}
	return property == base || strings.HasPrefix(property, base+"/")
}

func HasProperty(ch Channel, property string) bool {
	ok, err := ch.PropertyExists(property)
	if err != nil {
		logger.Warningf("check property %s of channel %s failed: %v", property, ch.Name(), err)
		return false
	}
	return ok
}

func GetString(ch Channel, property, defaultValue string) string {
	v, err := ch.GetProperty(property)
	if err != nil {
		return defaultValue
	}
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	}
	return defaultValue
}

func GetBool(ch Channel, property string, defaultValue bool) bool {
	v, err := ch.GetProperty(property)
	if err != nil {
		return defaultValue
	}
	switch val := v.(type) {
	case bool:
		return val
	case string:
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return defaultValue
}

func GetInt(ch Channel, property string, defaultValue int) int {
	v, err := ch.GetProperty(property)
	if err != nil {
		return defaultValue
	}
	if i, ok := toInt(v); ok {
		return i
	}
	return defaultValue
}

func GetDouble(ch Channel, property string, defaultValue float64) float64 {
	v, err := ch.GetProperty(property)
	if err != nil {
		return defaultValue
	}
	switch val := v.(type) {
	case float64:
		return val
	case float32:
		return float64(val)
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	if i, ok := toInt(v); ok {
		return float64(i)
	}
	return defaultValue
}

func toInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int32:
		return int(val), true
	case int64:
		return int(val), true
	case uint32:
		return int(val), true
	case uint64:
		return int(val), true
	case int16:
		return int(val), true
	case uint16:
		return int(val), true
	case uint8:
		return int(val), true
	case string:
		i, err := strconv.Atoi(val)
		if err == nil {
			return i, true
		}
	}
	return 0, false
}

// normalizeValue maps Go values to the types Xfconf stores.
func normalizeValue(value interface{}) interface{} {
	switch val := value.(type) {
	case int:
		return int32(val)
	case int64:
		return int32(val)
	case int16:
		return int32(val)
	case uint16:
		return uint32(val)
	case float32:
		return float64(val)
	}
	return value
}
