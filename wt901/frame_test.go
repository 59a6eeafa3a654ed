package wt901

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
)

func motionFrame(vals ...int16) []byte {
	frame := make([]byte, FrameLength)
	frame[0] = SyncByte
	frame[1] = TagMotion
	for i, v := range vals {
		binary.LittleEndian.PutUint16(frame[2+2*i:], uint16(v))
	}
	return frame
}

func decodeAll(frames [][]byte) []Sample {
	var samples []Sample
	for _, frame := range frames {
		if s, ok := Decode(frame); ok {
			samples = append(samples, s)
		}
	}
	return samples
}

func TestDecodeUnits(t *testing.T) {
	// 2048 = 1g, 16384 = 1000dps, -32768 = -180°
	frame := motionFrame(2048, -2048, 4096, 16384, -16384, 0, -32768, 16384, 0)
	s, ok := Decode(frame)
	assert.True(t, ok)
	assert.InDelta(t, 1.0, s.AX, 1e-9)
	assert.InDelta(t, -1.0, s.AY, 1e-9)
	assert.InDelta(t, 2.0, s.AZ, 1e-9)
	assert.InDelta(t, 1000.0, s.GX, 1e-9)
	assert.InDelta(t, -1000.0, s.GY, 1e-9)
	assert.InDelta(t, 0.0, s.GZ, 1e-9)
	assert.InDelta(t, -180.0, s.Roll, 1e-9)
	assert.InDelta(t, 90.0, s.Pitch, 1e-9)
}

func TestDecodeRejects(t *testing.T) {
	_, ok := Decode(nil)
	assert.False(t, ok)
	_, ok = Decode(make([]byte, FrameLength))
	assert.False(t, ok)
	// valid sync, unsupported tag: silently dropped
	frame := motionFrame(1, 2, 3)
	frame[1] = 0x51
	_, ok = Decode(frame)
	assert.False(t, ok)
	// wrong length
	_, ok = Decode(motionFrame(1)[:19])
	assert.False(t, ok)
}

func TestPartialFrameSafety(t *testing.T) {
	d := &Deframer{}
	frames := d.Feed([]byte{SyncByte, TagMotion, 1, 2, 3})
	assert.Empty(t, frames)
	assert.Equal(t, 5, d.Buffered())
}

func TestResync(t *testing.T) {
	d := &Deframer{}
	junk := []byte{0x00, 0xff, 0x13, 0x37}
	frames := d.Feed(append(junk, motionFrame(2048)...))
	assert.Len(t, frames, 1)
	samples := decodeAll(frames)
	assert.Len(t, samples, 1)
	assert.InDelta(t, 1.0, samples[0].AX, 1e-9)
	// garbage prefix discarded, nothing pending
	assert.Equal(t, 0, d.Buffered())
}

func TestSplitFeedingEquivalence(t *testing.T) {
	// interleave junk and frames, then compare one-shot vs byte-at-a-time
	var stream []byte
	stream = append(stream, 0x12, 0x34)
	stream = append(stream, motionFrame(100, 200, 300)...)
	stream = append(stream, 0x55) // lone sync byte, absorbed into junk scan
	stream = append(stream, 0x99, 0x00)
	stream = append(stream, motionFrame(400, 500, 600)...)
	stream = append(stream, motionFrame(700, 800, 900)...)

	one := &Deframer{}
	wholeSamples := decodeAll(one.Feed(stream))

	split := &Deframer{}
	var splitSamples []Sample
	for _, b := range stream {
		splitSamples = append(splitSamples, decodeAll(split.Feed([]byte{b}))...)
	}

	assert.Equal(t, wholeSamples, splitSamples)
	// the lone sync byte swallows a misaligned candidate across the second
	// frame; the first and third still decode
	assert.Len(t, wholeSamples, 2)
	assert.InDelta(t, float64(700)*accelScale, wholeSamples[1].AX, 1e-9)
}

func TestNonMotionFramesDropped(t *testing.T) {
	d := &Deframer{}
	angle := motionFrame(1, 2, 3)
	angle[1] = 0x53
	stream := append(angle, motionFrame(2048)...)
	samples := decodeAll(d.Feed(stream))
	assert.Len(t, samples, 1)
	assert.InDelta(t, 1.0, samples[0].AX, 1e-9)
}
