// SPDX-FileCopyrightText: 2022 UnionTech Software Technology Co., Ltd.
//
// SPDX-License-Identifier: GPL-3.0-or-later

package xfconf

import (
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"sync"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v3"
)

// FileChannel keeps a channel in a YAML file, one entry per property path.
// Changes made to the file by other processes are picked up by a watcher and
// announced like local changes.
type FileChannel struct {
	name     string
	filename string

	mu       sync.Mutex
	mem      *MemoryChannel
	watcher  *fsnotify.Watcher
	quit     chan struct{}
	handlers handlers
}

func NewFileChannel(name, filename string) (*FileChannel, error) {
	c := &FileChannel{
		name:     name,
		filename: filename,
		mem:      NewMemoryChannel(name),
	}
	props, err := readChannelFile(filename)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	c.mem.Load(props)
	return c, nil
}

func readChannelFile(filename string) (map[string]interface{}, error) {
	// #nosec G304
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	props := make(map[string]interface{})
	err = yaml.Unmarshal(data, &props)
	if err != nil {
		return nil, xerrors.Errorf("failed to parse %s: %w", filename, err)
	}
	return props, nil
}

func (c *FileChannel) save() error {
	props, _ := c.mem.GetAllProperties("")
	data, err := yaml.Marshal(props)
	if err != nil {
		return err
	}
	dir := filepath.Dir(c.filename)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(c.filename)+".tmp-")
	if err != nil {
		return err
	}
	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), c.filename)
}

func (c *FileChannel) Name() string {
	return c.name
}

func (c *FileChannel) GetProperty(property string) (interface{}, error) {
	return c.mem.GetProperty(property)
}

func (c *FileChannel) SetProperty(property string, value interface{}) error {
	value = normalizeValue(value)
	c.mu.Lock()
	old, getErr := c.mem.GetProperty(property)
	_ = c.mem.SetProperty(property, value)
	err := c.save()
	c.mu.Unlock()
	if err != nil {
		return xerrors.Errorf("failed to save channel %s: %w", c.name, err)
	}
	if getErr != nil || !reflect.DeepEqual(old, value) {
		c.handlers.emit(property, value)
	}
	return nil
}

func (c *FileChannel) PropertyExists(property string) (bool, error) {
	return c.mem.PropertyExists(property)
}

func (c *FileChannel) GetAllProperties(base string) (map[string]interface{}, error) {
	return c.mem.GetAllProperties(base)
}

func (c *FileChannel) ResetProperty(base string, recursive bool) error {
	c.mu.Lock()
	before, _ := c.mem.GetAllProperties(base)
	_ = c.mem.ResetProperty(base, recursive)
	after, _ := c.mem.GetAllProperties(base)
	err := c.save()
	c.mu.Unlock()
	if err != nil {
		return xerrors.Errorf("failed to save channel %s: %w", c.name, err)
	}

	var removed []string
	for k := range before {
		if _, ok := after[k]; !ok {
			removed = append(removed, k)
		}
	}
	sort.Strings(removed)
	for _, k := range removed {
		c.handlers.emit(k, nil)
	}
	return nil
}

func (c *FileChannel) ConnectPropertyChanged(fn PropertyChangedFunc) HandlerId {
	return c.handlers.connect(fn)
}

func (c *FileChannel) DisconnectPropertyChanged(id HandlerId) {
	c.handlers.disconnect(id)
}

// Watch starts following changes made to the file by other processes.
func (c *FileChannel) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	dir := filepath.Dir(c.filename)
	err = os.MkdirAll(dir, 0755)
	if err != nil {
		_ = watcher.Close()
		return err
	}
	// the directory is watched because saving replaces the file
	err = watcher.Add(dir)
	if err != nil {
		_ = watcher.Close()
		return err
	}
	c.watcher = watcher
	c.quit = make(chan struct{})
	go c.handleWatcherEvents(watcher, c.quit)
	return nil
}

func (c *FileChannel) handleWatcherEvents(watcher *fsnotify.Watcher, quit chan struct{}) {
	for {
		select {
		case <-quit:
			return
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warning("channel file watcher error:", err)
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if ev.Name != c.filename {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			logger.Debug("channel file changed:", ev)
			c.reload()
		}
	}
}

func (c *FileChannel) reload() {
	props, err := readChannelFile(c.filename)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warning(err)
			return
		}
		props = map[string]interface{}{}
	}
	for k, v := range props {
		props[k] = normalizeValue(v)
	}

	c.mu.Lock()
	old, _ := c.mem.GetAllProperties("")
	c.mem.Load(props)
	c.mu.Unlock()

	changed := make([]string, 0)
	for k, v := range props {
		if ov, ok := old[k]; !ok || !reflect.DeepEqual(ov, v) {
			changed = append(changed, k)
		}
	}
	var removed []string
	for k := range old {
		if _, ok := props[k]; !ok {
			removed = append(removed, k)
		}
	}
	sort.Strings(changed)
	sort.Strings(removed)
	for _, k := range changed {
		c.handlers.emit(k, props[k])
	}
	for _, k := range removed {
		c.handlers.emit(k, nil)
	}
}

func (c *FileChannel) Close() error {
	if c.watcher == nil {
		return nil
	}
	close(c.quit)
	err := c.watcher.Close()
	c.watcher = nil
	return err
}
