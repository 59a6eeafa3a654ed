package config

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ExampleOpenRaw() {
	config, _ := OpenRaw([]byte(ExampleYaml))
	fmt.Println(config.Wearable.Protocol)
	fmt.Println(config.Wearable.Mac)
	// Output:
	// ble
	// D9:41:48:15:5E:FB
}

func TestExampleConfig(t *testing.T) {
	assert.NotNil(t, ExampleConfig)
	assert.Equal(t, "wt901.wrist", ExampleConfig.Wearable.Source)
	assert.Len(t, ExampleConfig.Wearable.Notify, 2)
	assert.Equal(t, ":8723", ExampleConfig.Endpoints.Api)
}

func TestGestureDefaults(t *testing.T) {
	config, err := OpenRaw([]byte("endpoints:\n  mqtt:\n    broker: tcp://localhost:1883\n"))
	assert.NoError(t, err)
	assert.Equal(t, 750.0, config.Gestures.FlickThreshold)
	assert.Equal(t, 1250*time.Millisecond, config.Gestures.ReadyDelay.Duration)
	assert.Equal(t, 6, config.Gestures.BaselineSamples)
	assert.True(t, config.Gestures.SwipeUpPositiveDAZ)
	assert.Equal(t, "ble", config.Wearable.Protocol)
}

func TestGestureOverrides(t *testing.T) {
	yml := `
gestures:
  flick_threshold: 600
  rearm_ready_delay: 900ms
  twist_right_positive_gy: true
`
	config, err := OpenRaw([]byte(yml))
	assert.NoError(t, err)
	assert.Equal(t, 600.0, config.Gestures.FlickThreshold)
	assert.Equal(t, 900*time.Millisecond, config.Gestures.RearmReadyDelay.Duration)
	assert.True(t, config.Gestures.TwistRightPositiveGY)
	// untouched fields keep defaults
	assert.Equal(t, 850*time.Millisecond, config.Gestures.DoubleFlickSpan.Duration)
}

func TestBadDuration(t *testing.T) {
	_, err := OpenRaw([]byte("gestures:\n  cooldown: xyz\n"))
	assert.Error(t, err)
}

func TestSerialWearable(t *testing.T) {
	yml := `
wearable:
  protocol: serial
  device: /dev/ttyUSB0
  baud: 115200
`
	config, err := OpenRaw([]byte(yml))
	assert.NoError(t, err)
	assert.Equal(t, "serial", config.Wearable.Protocol)
	assert.Equal(t, 115200, config.Wearable.Baud)
	assert.Equal(t, "wt901", config.Wearable.Source)
}
