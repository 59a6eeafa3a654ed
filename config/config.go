// Package config loads the wearhome yaml configuration.
package config

import (
	"fmt"
	"io"
	"os"
	"path"
	"time"

	"gopkg.in/yaml.v2"
)

// Duration wraps time.Duration for yaml parsing ("250ms", "1.25s").
type Duration struct {
	Duration time.Duration
}

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	val, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration: %q", s)
	}
	d.Duration = val
	return nil
}

type EndpointsConf struct {
	Mqtt struct {
		Broker string
	}
	Api string
}

// WearableConf describes the IMU transport.
type WearableConf struct {
	Protocol string   // "ble" or "serial"
	Mac      string   `yaml:"mac"`
	Notify   []string `yaml:"notify"` // characteristic uuids, tried in order
	Device   string   // serial device path
	Baud     int
	Source   string // source id on published events, eg "wt901.wrist"
}

// GesturesConf is the tuning surface of the gesture engine. Every threshold
// is hand-tuned per physical unit, so everything is a yaml field; missing
// fields keep the canonical defaults.
type GesturesConf struct {
	FlickThreshold  float64  `yaml:"flick_threshold"`
	FlickWindow     Duration `yaml:"flick_window"`
	FlickRefractory Duration `yaml:"flick_refractory"`
	DoubleFlickSpan Duration `yaml:"double_flick_span"`

	ReadyDelay      Duration `yaml:"ready_delay"`
	RearmReadyDelay Duration `yaml:"rearm_ready_delay"`
	CommandTimeout  Duration `yaml:"command_timeout"`
	Cooldown        Duration `yaml:"cooldown"`
	RearmDelay      Duration `yaml:"rearm_delay"`

	GestureWindow  Duration `yaml:"gesture_window"`
	HistoryHorizon Duration `yaml:"history_horizon"`

	TwistThreshold       float64 `yaml:"twist_threshold"`
	TwistRightPositiveGY bool    `yaml:"twist_right_positive_gy"`

	SwipeThreshold       float64 `yaml:"swipe_threshold"`
	SwipeRejectThreshold float64 `yaml:"swipe_reject_threshold"`
	SwipeUpPositiveDAZ   bool    `yaml:"swipe_up_positive_daz"`
	BaselineSamples      int     `yaml:"baseline_samples"`
}

// DefaultGestures carries the canonical WT901 BLE tuning.
var DefaultGestures = GesturesConf{
	FlickThreshold:  750,
	FlickWindow:     Duration{250 * time.Millisecond},
	FlickRefractory: Duration{200 * time.Millisecond},
	DoubleFlickSpan: Duration{850 * time.Millisecond},

	ReadyDelay:      Duration{1250 * time.Millisecond},
	RearmReadyDelay: Duration{800 * time.Millisecond},
	CommandTimeout:  Duration{5 * time.Second},
	Cooldown:        Duration{400 * time.Millisecond},
	RearmDelay:      Duration{250 * time.Millisecond},

	GestureWindow:  Duration{600 * time.Millisecond},
	HistoryHorizon: Duration{2 * time.Second},

	TwistThreshold:       180,
	TwistRightPositiveGY: false,

	SwipeThreshold:       0.55,
	SwipeRejectThreshold: 260,
	SwipeUpPositiveDAZ:   true,
	BaselineSamples:      6,
}

// Configuration structure
type Config struct {
	Endpoints EndpointsConf
	Wearable  WearableConf
	Gestures  GesturesConf
}

// Open configuration from disk.
func Open() (*Config, error) {
	file, err := os.Open(ConfigPath("wearhome.yml"))
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return OpenReader(file)
}

// Open configuration from a reader.
func OpenReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return OpenRaw(data)
}

// Open configuration from []byte.
func OpenRaw(data []byte) (*Config, error) {
	// seed defaults - yaml leaves absent fields untouched
	self := &Config{Gestures: DefaultGestures}
	if err := yaml.Unmarshal(data, self); err != nil {
		return nil, err
	}
	if self.Wearable.Protocol == "" {
		self.Wearable.Protocol = "ble"
	}
	if self.Wearable.Source == "" {
		self.Wearable.Source = "wt901"
	}
	return self, nil
}

// Resolve a configuration file under .config/wearhome
func ConfigPath(p string) string {
	config := os.Getenv("XDG_CONFIG_HOME")
	if config == "" {
		config = path.Join(os.Getenv("HOME"), ".config")
	}
	return path.Join(config, "wearhome", p)
}
