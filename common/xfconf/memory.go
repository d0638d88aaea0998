// SPDX-FileCopyrightText: 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package xfconf

import (
	"reflect"
	"sort"
	"sync"

	"github.com/linuxdeepin/go-lib/log"
)

var logger = log.NewLogger("xfconf")

type handlers struct {
	mu     sync.Mutex
	nextId HandlerId
	fns    map[HandlerId]PropertyChangedFunc
}

func (h *handlers) connect(fn PropertyChangedFunc) HandlerId {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fns == nil {
		h.fns = make(map[HandlerId]PropertyChangedFunc)
	}
	h.nextId++
	h.fns[h.nextId] = fn
	return h.nextId
}

func (h *handlers) disconnect(id HandlerId) {
	h.mu.Lock()
	delete(h.fns, id)
	h.mu.Unlock()
}

func (h *handlers) emit(property string, value interface{}) {
	h.mu.Lock()
	ids := make([]int, 0, len(h.fns))
	for id := range h.fns {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	fns := make([]PropertyChangedFunc, 0, len(ids))
	for _, id := range ids {
		fns = append(fns, h.fns[HandlerId(id)])
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(property, value)
	}
}

// MemoryChannel keeps the properties in a map. It is used by the tests and
// as the store of the headless tools when no Xfconf daemon is running.
type MemoryChannel struct {
	name     string
	mu       sync.RWMutex
	props    map[string]interface{}
	handlers handlers
}

func NewMemoryChannel(name string) *MemoryChannel {
	return &MemoryChannel{
		name:  name,
		props: make(map[string]interface{}),
	}
}

func (c *MemoryChannel) Name() string {
	return c.name
}

func (c *MemoryChannel) GetProperty(property string) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.props[property]
	if !ok {
		return nil, ErrPropertyNotFound
	}
	return v, nil
}

func (c *MemoryChannel) SetProperty(property string, value interface{}) error {
	value = normalizeValue(value)
	c.mu.Lock()
	old, ok := c.props[property]
	c.props[property] = value
	c.mu.Unlock()

	if !ok || !reflect.DeepEqual(old, value) {
		c.handlers.emit(property, value)
	}
	return nil
}

func (c *MemoryChannel) PropertyExists(property string) (bool, error) {
	c.mu.RLock()
	_, ok := c.props[property]
	c.mu.RUnlock()
	return ok, nil
}

func (c *MemoryChannel) GetAllProperties(base string) (map[string]interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make(map[string]interface{})
	for k, v := range c.props {
		if isUnder(k, base) {
			result[k] = v
		}
	}
	return result, nil
}

func (c *MemoryChannel) ResetProperty(base string, recursive bool) error {
	var removed []string
	c.mu.Lock()
	for k := range c.props {
		if k == base || (recursive && isUnder(k, base)) {
			delete(c.props, k)
			removed = append(removed, k)
		}
	}
	c.mu.Unlock()

	sort.Strings(removed)
	for _, k := range removed {
		c.handlers.emit(k, nil)
	}
	return nil
}

func (c *MemoryChannel) ConnectPropertyChanged(fn PropertyChangedFunc) HandlerId {
	return c.handlers.connect(fn)
}

func (c *MemoryChannel) DisconnectPropertyChanged(id HandlerId) {
	c.handlers.disconnect(id)
}

// Load replaces the whole content without emitting change notifications.
func (c *MemoryChannel) Load(props map[string]interface{}) {
	c.mu.Lock()
	c.props = make(map[string]interface{}, len(props))
	for k, v := range props {
		c.props[k] = normalizeValue(v)
	}
	c.mu.Unlock()
}
