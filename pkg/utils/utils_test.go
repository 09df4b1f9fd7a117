package utils

import (
	"os"
	"testing"
	"time"
)

func TestFromEnv(t *testing.T) {
	os.Setenv("PROFILED_TEST_VAR", "value")
	defer os.Unsetenv("PROFILED_TEST_VAR")

	Assert("value", FromEnv("PROFILED_TEST_VAR", "default"), t)
	Assert("default", FromEnv("PROFILED_TEST_MISSING", "default"), t)
}

func TestDurationFromEnv(t *testing.T) {
	defer os.Unsetenv("PROFILED_TEST_DURATION")

	os.Setenv("PROFILED_TEST_DURATION", "250ms")
	Assert(250*time.Millisecond, DurationFromEnv("PROFILED_TEST_DURATION", time.Second), t)

	os.Setenv("PROFILED_TEST_DURATION", "garbage")
	Assert(time.Second, DurationFromEnv("PROFILED_TEST_DURATION", time.Second), t)

	os.Setenv("PROFILED_TEST_DURATION", "-5s")
	Assert(time.Second, DurationFromEnv("PROFILED_TEST_DURATION", time.Second), t)
}

func TestWatchIntervalPositive(t *testing.T) {
	defer os.Unsetenv(watchIntervalVar)

	for _, raw := range []string{"0", "0s", "-1s", "soon"} {
		os.Setenv(watchIntervalVar, raw)
		Assert(DefaultWatch, WatchInterval(), t)
	}
	os.Setenv(watchIntervalVar, "300ms")
	Assert(300*time.Millisecond, WatchInterval(), t)
}

func TestParseSampleDuration(t *testing.T) {
	d, err := ParseSampleDuration("1.5s")
	Assert(nil, err, t)
	Assert(1500*time.Millisecond, d, t)

	d, err = ParseSampleDuration("2500")
	Assert(nil, err, t)
	Assert(2500*time.Nanosecond, d, t)

	_, err = ParseSampleDuration("-1s")
	Assert(true, err != nil, t)

	_, err = ParseSampleDuration("-10")
	Assert(true, err != nil, t)

	_, err = ParseSampleDuration("soon")
	Assert(true, err != nil, t)
}

func TestCompatibleVersion(t *testing.T) {
	ok, err := CompatibleVersion("1.9.3")
	Assert(nil, err, t)
	Assert(true, ok, t)

	ok, err = CompatibleVersion("2.0.0")
	Assert(nil, err, t)
	Assert(false, ok, t)

	_, err = CompatibleVersion("not-a-version")
	Assert(true, err != nil, t)
}

func TestCheckVersion(t *testing.T) {
	Assert(nil, CheckVersion(VersionStr), t)
	Assert(true, CheckVersion("new") != nil, t)
}

func TestRequestCache(t *testing.T) {
	disabled := NewRequestCache(0)
	disabled.Set("k", []byte("v"))
	_, found := disabled.Get("k")
	Assert(false, found, t)

	c := NewRequestCache(time.Minute)
	c.Set("k", []byte("v"))
	v, found := c.Get("k")
	Assert(true, found, t)
	Assert([]byte("v"), v, t)
}
