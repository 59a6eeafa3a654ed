package wearable

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wearhome/wearhome/config"
	"github.com/wearhome/wearhome/pubsub/dummy"
	"github.com/wearhome/wearhome/services"
	"github.com/wearhome/wearhome/wt901"
)

func frame(vals ...int16) []byte {
	b := make([]byte, wt901.FrameLength)
	b[0] = wt901.SyncByte
	b[1] = wt901.TagMotion
	for i, v := range vals {
		binary.LittleEndian.PutUint16(b[2+2*i:], uint16(v))
	}
	return b
}

// raw counts: 2048 = 1g vertical, 16384 = 1000dps about z
func stillFrame() []byte {
	return frame(0, 0, 2048, 0, 0, 0)
}

func flickFrame() []byte {
	return frame(0, 0, 2048, 0, 0, 16384)
}

func testSession(t *testing.T) (*session, *dummy.Publisher, func(time.Duration)) {
	t.Helper()
	conf, err := config.OpenRaw([]byte("wearable:\n  source: wt901.test\n"))
	assert.NoError(t, err)
	publisher := &dummy.Publisher{}
	s := newSession(*conf, publisher)
	base := time.Now()
	now := base
	s.engine.SetClock(func() time.Time { return now })
	advance := func(d time.Duration) { now = base.Add(d) }
	return s, publisher, advance
}

func TestIngestDoubleFlick(t *testing.T) {
	s, publisher, at := testSession(t)

	at(0)
	s.ingest(flickFrame())
	at(500 * time.Millisecond)
	s.ingest(flickFrame())

	if assert.Len(t, publisher.Events, 1) {
		ev := publisher.Events[0]
		assert.Equal(t, "gesture", ev.Topic)
		assert.Equal(t, "ENTER_COMMAND_MODE", ev.StringField("command"))
		assert.Equal(t, "mode", ev.StringField("kind"))
		assert.Equal(t, "wt901.test", ev.StringField("source"))
	}
	assert.Equal(t, 2, s.frames)
	assert.Equal(t, 1, s.events)
}

func TestIngestSplitChunks(t *testing.T) {
	s, publisher, at := testSession(t)

	// two flick frames with line noise in between, delivered one byte at
	// a time like a worst-case BLE notification stream
	at(0)
	stream := append([]byte{0x00, 0x13}, flickFrame()...)
	stream = append(stream, 0xff)
	for _, b := range stream {
		s.ingest([]byte{b})
	}
	at(500 * time.Millisecond)
	for _, b := range flickFrame() {
		s.ingest([]byte{b})
	}

	assert.Equal(t, 2, s.frames)
	if assert.Len(t, publisher.Events, 1) {
		assert.Equal(t, "ENTER_COMMAND_MODE", publisher.Events[0].StringField("command"))
	}
}

func TestIngestIgnoresQuietStream(t *testing.T) {
	s, publisher, at := testSession(t)

	for i := 0; i < 50; i++ {
		at(time.Duration(i) * 100 * time.Millisecond)
		s.ingest(stillFrame())
	}

	assert.Equal(t, 50, s.frames)
	assert.Empty(t, publisher.Events)
}

func TestQueryMode(t *testing.T) {
	svc := &Service{}
	mode := svc.QueryHandlers()["mode"]
	assert.Equal(t, "disconnected", mode(services.Question{}).Text)

	s, _, _ := testSession(t)
	svc.setSession(s, true)
	assert.Equal(t, "IDLE", mode(services.Question{}).Text)
}

func TestTuningFromConfig(t *testing.T) {
	conf, err := config.OpenRaw([]byte("gestures:\n  flick_threshold: 600\n  ready_delay: 2s\n"))
	assert.NoError(t, err)

	tun := tuning(conf.Gestures)
	assert.Equal(t, 600.0, tun.FlickThreshold)
	assert.Equal(t, 2*time.Second, tun.ReadyDelay)
	// untouched fields keep the canonical values
	assert.Equal(t, 850*time.Millisecond, tun.DoubleFlickSpan)
	assert.Equal(t, 6, tun.BaselineSamples)
}
