package core

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/sliink/extloader/internal/model"
)

// EnvPrefix is the prefix of environment variables overriding configuration keys.
// EXTLOADER_LOADER_CONCURRENCY overrides loader.concurrency.
const EnvPrefix = "EXTLOADER"

// ConfigManager handles loading, storing, and accessing configuration
type ConfigManager struct {
	v        *viper.Viper
	watchers map[string][]func(interface{})
	mutex    sync.RWMutex

	fileWatcher *fsnotify.Watcher

	BaseComponent
}

// NewConfigManager creates a new configuration manager with defaults applied
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		v:             newViper(),
		watchers:      make(map[string][]func(interface{})),
		BaseComponent: NewBaseComponent("config_manager", "Configuration Manager"),
	}
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.debug", false)
	v.SetDefault("api.enabled", true)
	v.SetDefault("api.host", "localhost")
	v.SetDefault("api.port", 8080)
	v.SetDefault("loader.concurrency", 4)
	v.SetDefault("loader.preload_ttl", time.Duration(0))
	v.SetDefault("loader.timeout", time.Duration(0))
	v.SetDefault("loader.strict_meta", false)
	v.SetDefault("config.watch", false)
	return v
}

// Initialize prepares the configuration manager for operation
func (m *ConfigManager) Initialize() bool {
	m.SetStatus(model.StatusInitialized)
	return true
}

// Start begins configuration manager operation
func (m *ConfigManager) Start() bool {
	m.SetStatus(model.StatusRunning)
	return true
}

// Stop halts configuration manager operation
func (m *ConfigManager) Stop() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.watchers = make(map[string][]func(interface{}))
	if m.fileWatcher != nil {
		m.fileWatcher.Close()
		m.fileWatcher = nil
	}

	m.SetStatus(model.StatusStopped)
	return true
}

// LoadConfig loads configuration from a file. The format follows the file
// extension (yaml, json, toml).
func (m *ConfigManager) LoadConfig(configFile string) error {
	v := newViper()
	v.SetConfigFile(configFile)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file %s: %w", configFile, err)
	}

	m.mutex.Lock()
	m.v = v
	notify := m.pendingNotificationsLocked(nil)
	m.mutex.Unlock()

	m.log.Info("Loaded configuration", "file", configFile)
	notify()
	return nil
}

// ConfigFile returns the file the configuration was loaded from, if any
func (m *ConfigManager) ConfigFile() string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.v.ConfigFileUsed()
}

// SaveConfig saves the current configuration to a file
func (m *ConfigManager) SaveConfig(configFile string) error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	// If no file specified, use the one we loaded from
	if configFile == "" {
		configFile = m.v.ConfigFileUsed()
	}

	if configFile == "" {
		return fmt.Errorf("no config file specified")
	}

	if err := m.v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// GetConfig retrieves a configuration value by dotted path.
// An empty path returns the entire configuration.
func (m *ConfigManager) GetConfig(path string, defaultValue interface{}) interface{} {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.getLocked(path, defaultValue)
}

func (m *ConfigManager) getLocked(path string, defaultValue interface{}) interface{} {
	if path == "" {
		return m.v.AllSettings()
	}
	if !m.v.IsSet(path) {
		return defaultValue
	}
	return m.v.Get(path)
}

// GetInt retrieves an integer configuration value
func (m *ConfigManager) GetInt(path string) int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.v.GetInt(path)
}

// GetBool retrieves a boolean configuration value
func (m *ConfigManager) GetBool(path string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.v.GetBool(path)
}

// GetString retrieves a string configuration value
func (m *ConfigManager) GetString(path string) string {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.v.GetString(path)
}

// GetDuration retrieves a duration configuration value
func (m *ConfigManager) GetDuration(path string) time.Duration {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	return m.v.GetDuration(path)
}

// UnmarshalKey decodes the value at path into out
func (m *ConfigManager) UnmarshalKey(path string, out interface{}) error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if err := m.v.UnmarshalKey(path, out); err != nil {
		return fmt.Errorf("error decoding config key %q: %w", path, err)
	}
	return nil
}

// SetConfig sets a configuration value. An empty path replaces the entire
// configuration with the given map.
func (m *ConfigManager) SetConfig(path string, value interface{}) error {
	m.mutex.Lock()

	if path == "" {
		newConfig, ok := value.(map[string]interface{})
		if !ok {
			m.mutex.Unlock()
			return fmt.Errorf("cannot set root config to non-map value")
		}

		v := newViper()
		if err := v.MergeConfigMap(newConfig); err != nil {
			m.mutex.Unlock()
			return fmt.Errorf("error applying config: %w", err)
		}
		v.SetConfigFile(m.v.ConfigFileUsed())
		m.v = v

		notify := m.pendingNotificationsLocked(nil)
		m.mutex.Unlock()
		notify()
		return nil
	}

	m.v.Set(path, value)
	notify := m.pendingNotificationsLocked(strings.Split(path, "."))
	m.mutex.Unlock()

	notify()
	return nil
}

// pendingNotificationsLocked collects the watcher callbacks affected by a change
// at the given path parts together with their current values. A nil path notifies
// every watcher. The returned func runs the callbacks and must be called without
// holding the lock.
func (m *ConfigManager) pendingNotificationsLocked(parts []string) func() {
	type pending struct {
		callback func(interface{})
		value    interface{}
	}
	var calls []pending

	if parts == nil {
		for path, watchers := range m.watchers {
			value := m.getLocked(path, nil)
			for _, callback := range watchers {
				calls = append(calls, pending{callback, value})
			}
		}
	} else {
		// The changed path and all of its parents
		for i := 0; i <= len(parts); i++ {
			subPath := strings.Join(parts[:i], ".")
			watchers, exists := m.watchers[subPath]
			if !exists {
				continue
			}
			value := m.getLocked(subPath, nil)
			for _, callback := range watchers {
				calls = append(calls, pending{callback, value})
			}
		}
	}

	return func() {
		for _, call := range calls {
			go call.callback(call.value)
		}
	}
}

// WatchConfig registers a callback for configuration changes at path.
// The callback is invoked right away with the current value.
func (m *ConfigManager) WatchConfig(path string, callback func(interface{})) {
	m.mutex.Lock()
	m.watchers[path] = append(m.watchers[path], callback)
	current := m.getLocked(path, nil)
	m.mutex.Unlock()

	go callback(current)
}

// OnChange registers a callback for configuration changes at path without
// invoking it for the current value.
func (m *ConfigManager) OnChange(path string, callback func(interface{})) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.watchers[path] = append(m.watchers[path], callback)
}

// WatchFile re-reads the configuration file whenever it changes on disk and
// notifies every watcher. It is a no-op when no file was loaded or the file
// is already watched.
func (m *ConfigManager) WatchFile() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	file := m.v.ConfigFileUsed()
	if file == "" || m.fileWatcher != nil {
		return nil
	}
	file, err := filepath.Abs(file)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating config watcher: %w", err)
	}
	// Editors replace files by renaming, so the directory is watched
	if err := w.Add(filepath.Dir(file)); err != nil {
		w.Close()
		return fmt.Errorf("error watching %s: %w", file, err)
	}

	m.fileWatcher = w
	go m.watchFile(w, file)
	return nil
}

func (m *ConfigManager) watchFile(w *fsnotify.Watcher, file string) {
	for {
		select {
		case event, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != file || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			m.reloadFile(file, event)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			m.log.Error(err, "Configuration watcher error")
		}
	}
}

// reloadFile reads the file into a fresh viper and swaps it in. Empty or
// unparsable contents, as seen halfway through a write, keep the current
// configuration.
func (m *ConfigManager) reloadFile(file string, event fsnotify.Event) {
	data, err := os.ReadFile(file)
	if err != nil || len(bytes.TrimSpace(data)) == 0 {
		return
	}

	v := newViper()
	v.SetConfigFile(file)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		m.log.Error(err, "Failed to re-read configuration file", "file", file)
		return
	}

	m.mutex.Lock()
	if m.fileWatcher == nil {
		m.mutex.Unlock()
		return
	}
	m.v = v
	notify := m.pendingNotificationsLocked(nil)
	m.mutex.Unlock()

	m.log.Info("Configuration file changed", "file", event.Name, "op", event.Op.String())
	notify()
}
