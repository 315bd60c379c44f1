package main

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/readaloud/tts"
)

// settingsApplier is the part of the controller a config reload touches.
type settingsApplier interface {
	ApplySettings(tts.SettingsUpdate)
}

// configWatcher applies speech settings edited in the config file while
// playing. Other options need a restart.
type configWatcher struct {
	player settingsApplier
	notify func(string)
	load   func() (tts.Config, error)

	mu   sync.Mutex
	last tts.Config
}

// watchConfig starts watching the config file in use, if any.
func watchConfig(player settingsApplier, cfg tts.Config, notify func(string)) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	w := &configWatcher{
		player: player,
		notify: notify,
		load:   tts.LoadConfigFromViper,
		last:   cfg,
	}
	viper.OnConfigChange(w.changed)
	viper.WatchConfig()
	log.Debug("Watching configuration file", "path", viper.ConfigFileUsed())
}

func (w *configWatcher) changed(e fsnotify.Event) {
	if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
		return
	}
	cfg, err := w.load()
	if err != nil {
		log.Warn("Ignoring invalid configuration", "path", e.Name, "error", err)
		w.notify("Config error: " + err.Error())
		return
	}

	w.mu.Lock()
	u := settingsChange(w.last, cfg)
	w.last = cfg
	w.mu.Unlock()

	if u.IsEmpty() {
		log.Debug("Configuration changed, nothing to apply", "path", e.Name)
		return
	}
	log.Info("Applying reloaded configuration", "path", e.Name)
	w.player.ApplySettings(u)
	w.notify("Config reloaded")
}

// settingsChange returns an update holding the speech settings that differ
// between old and updated.
func settingsChange(old, updated tts.Config) tts.SettingsUpdate {
	var u tts.SettingsUpdate
	if updated.Rate != old.Rate {
		u.Rate = &updated.Rate
	}
	if updated.Pitch != old.Pitch {
		u.Pitch = &updated.Pitch
	}
	if updated.VoiceIndex != old.VoiceIndex {
		u.VoiceIndex = &updated.VoiceIndex
	}
	return u
}
