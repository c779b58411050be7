// Package timecode converts second offsets to and from subtitle timestamps.
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Format selects the separator between seconds and milliseconds.
type Format int

const (
	// SRT renders HH:MM:SS,mmm.
	SRT Format = iota
	// VTT renders HH:MM:SS.mmm.
	VTT
)

func (f Format) separator() byte {
	if f == VTT {
		return '.'
	}
	return ','
}

func (f Format) String() string {
	if f == VTT {
		return "vtt"
	}
	return "srt"
}

// Encode renders seconds rounded to the nearest millisecond. Hours are not
// bounded, so offsets of a day or more keep every digit. Input is clamped as
// in Milliseconds.
func Encode(seconds float64, format Format) string {
	ms := Milliseconds(seconds)
	hours := ms / 3_600_000
	ms %= 3_600_000
	minutes := ms / 60_000
	ms %= 60_000
	secs := ms / 1_000
	millis := ms % 1_000
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", hours, minutes, secs, format.separator(), millis)
}

// MaxMilliseconds is the largest offset Milliseconds returns. Every integer up
// to it is exact in a float64.
const MaxMilliseconds int64 = 1 << 53

// Milliseconds returns round(seconds*1000), clamped to [0, MaxMilliseconds].
// NaN and negative input give zero; +Inf gives MaxMilliseconds.
func Milliseconds(seconds float64) int64 {
	if seconds <= 0 || math.IsNaN(seconds) {
		return 0
	}
	ms := math.Round(seconds * 1000)
	if math.IsInf(ms, 1) || ms >= float64(MaxMilliseconds) {
		return MaxMilliseconds
	}
	return int64(ms)
}

// Decode parses a timestamp produced by Encode in the same format.
func Decode(value string, format Format) (float64, error) {
	value = strings.TrimSpace(value)
	sep := strings.LastIndexByte(value, format.separator())
	if sep < 0 {
		return 0, fmt.Errorf("invalid %s timestamp %q", format, value)
	}
	hms := strings.Split(value[:sep], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid %s timestamp %q", format, value)
	}
	fraction := value[sep+1:]
	if len(fraction) != 3 || len(hms[1]) != 2 || len(hms[2]) != 2 || len(hms[0]) < 2 {
		return 0, fmt.Errorf("invalid %s timestamp %q", format, value)
	}
	hours, errH := strconv.ParseInt(hms[0], 10, 64)
	minutes, errM := strconv.ParseInt(hms[1], 10, 64)
	secs, errS := strconv.ParseInt(hms[2], 10, 64)
	millis, errMS := strconv.ParseInt(fraction, 10, 64)
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid %s timestamp %q", format, value)
	}
	if hours < 0 || minutes < 0 || minutes > 59 || secs < 0 || secs > 59 || millis < 0 {
		return 0, fmt.Errorf("invalid %s timestamp %q", format, value)
	}
	total := ((hours*60+minutes)*60+secs)*1000 + millis
	return float64(total) / 1000, nil
}
