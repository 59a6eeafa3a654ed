// Package wt901 deframes and decodes the streaming byte protocol of the
// WT901 wearable inertial sensor.
//
// The transport (bluetooth notifications or a serial link) delivers bytes in
// arbitrary-sized chunks with no alignment guarantee - frames arrive split,
// merged, or preceded by garbage after a reconnect. The Deframer tolerates
// all of that: bad bytes are protocol noise to be skipped, never an error.
package wt901

import (
	"encoding/binary"
	"math"
)

const (
	// SyncByte starts every frame on the wire.
	SyncByte = 0x55
	// FrameLength is the fixed frame size.
	FrameLength = 20
	// TagMotion marks frames carrying the accel+gyro+angle payload. Other
	// tags are valid frames the sensor can emit, but carry nothing we use.
	TagMotion = 0x61
)

// Sample is one decoded motion frame in physical units.
type Sample struct {
	AX, AY, AZ       float64 // linear acceleration, g
	GX, GY, GZ       float64 // angular rate, degrees/second
	Roll, Pitch, Yaw float64 // orientation, degrees
}

// GyroMagnitude returns the magnitude of the 3-axis angular rate vector.
func (s Sample) GyroMagnitude() float64 {
	return math.Sqrt(s.GX*s.GX + s.GY*s.GY + s.GZ*s.GZ)
}

// Deframer accumulates transport chunks and extracts complete frames aligned
// to the sync byte. Bytes before the first discovered frame are discarded
// once scanned and never re-examined; a trailing partial frame is kept until
// more data arrives.
type Deframer struct {
	buf []byte
}

// Feed appends a chunk and returns any complete candidate frames found.
// Resynchronisation is byte-at-a-time: a non-sync byte advances the scan by
// one, a sync byte consumes a whole frame with no overlap.
func (d *Deframer) Feed(chunk []byte) [][]byte {
	d.buf = append(d.buf, chunk...)
	var frames [][]byte
	i := 0
	for i+FrameLength <= len(d.buf) {
		if d.buf[i] != SyncByte {
			i++
			continue
		}
		frame := make([]byte, FrameLength)
		copy(frame, d.buf[i:i+FrameLength])
		frames = append(frames, frame)
		i += FrameLength
	}
	d.buf = d.buf[:copy(d.buf, d.buf[i:])]
	return frames
}

// Buffered returns the number of bytes held back awaiting a complete frame.
func (d *Deframer) Buffered() int {
	return len(d.buf)
}

const (
	accelScale = 16.0 / 32768.0   // ±16g over int16
	gyroScale  = 2000.0 / 32768.0 // ±2000dps over int16
	angleScale = 180.0 / 32768.0  // ±180° over int16
)

// Decode turns a motion frame into a physical-unit sample. Frames with the
// wrong length, sync byte or tag decode to no sample - that is normal
// protocol traffic, not an error.
func Decode(frame []byte) (Sample, bool) {
	if len(frame) != FrameLength || frame[0] != SyncByte || frame[1] != TagMotion {
		return Sample{}, false
	}
	var v [9]int16
	for i := range v {
		v[i] = int16(binary.LittleEndian.Uint16(frame[2+2*i : 4+2*i]))
	}
	return Sample{
		AX:    float64(v[0]) * accelScale,
		AY:    float64(v[1]) * accelScale,
		AZ:    float64(v[2]) * accelScale,
		GX:    float64(v[3]) * gyroScale,
		GY:    float64(v[4]) * gyroScale,
		GZ:    float64(v[5]) * gyroScale,
		Roll:  float64(v[6]) * angleScale,
		Pitch: float64(v[7]) * angleScale,
		Yaw:   float64(v[8]) * angleScale,
	}, true
}
