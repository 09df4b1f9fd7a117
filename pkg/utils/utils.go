package utils

import (
	"fmt"
	"os"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Masterminds/semver"
)

const (
	ApiVersion        = "v1"
	ApiPrefix         = "/profiler/" + ApiVersion
	debug             = "DEBUG"
	logLevel          = "LOG_LEVEL"
	portVar           = "PROFILED_HTTP_PORT"
	PortGrpcVar       = "PROFILED_GRPC_PORT"
	prettyPrintVar    = "PRETTY_PRINT"
	watchIntervalVar  = "WATCH_INTERVAL"
	reportCacheTTLVar = "REPORT_CACHE_TTL"
	internalKeyVar    = "INTERNAL_KEY"
	defaultPort       = "8082"
	defaultGrpcPort   = "8085"
	DefaultWatch      = time.Second
)

var VersionStr = "1.2.0"

func DebugEnabled() bool {
	debug := os.Getenv(debug)
	if strings.ToLower(debug) == "true" {
		return true
	}
	return false
}

func PrettyPrintEnabled() bool {
	pp := os.Getenv(prettyPrintVar)
	return strings.ToLower(pp) == "true"
}

func LogLevel() string {
	return os.Getenv(logLevel)
}

func HttpPort() string {
	return FromEnv(portVar, defaultPort)
}

func GrpcPort() string {
	return FromEnv(PortGrpcVar, defaultGrpcPort)
}

// WatchInterval is the websocket publish period. Zero is not a valid period
// and falls back to DefaultWatch like any other invalid value.
func WatchInterval() time.Duration {
	d := DurationFromEnv(watchIntervalVar, DefaultWatch)
	if d <= 0 {
		return DefaultWatch
	}
	return d
}

func ReportCacheTTL() time.Duration {
	return DurationFromEnv(reportCacheTTLVar, 0)
}

func InternalKey() string {
	return os.Getenv(internalKeyVar)
}

func FromEnv(varName, defaultVal string) string {
	val := os.Getenv(varName)
	if val == "" {
		val = defaultVal
	}
	return val
}

func DurationFromEnv(varName string, defaultVal time.Duration) time.Duration {
	raw := os.Getenv(varName)
	if raw == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return defaultVal
	}
	return d
}

func PrintEnvInfo() {
	fmt.Printf("DEBUG = %v\n", DebugEnabled())
	fmt.Printf("LOG_LEVEL = %q\n", LogLevel())
	fmt.Printf("HTTP_PORT = %q\n", HttpPort())
	fmt.Printf("GRPC_PORT = %q\n", GrpcPort())
	fmt.Printf("WATCH_INTERVAL = %v\n", WatchInterval())
	fmt.Printf("REPORT_CACHE_TTL = %v\n", ReportCacheTTL())
}

// ParseSampleDuration parses a duration given either as a Go duration string
// ("1.5s") or as a plain number of nanoseconds.
func ParseSampleDuration(raw string) (time.Duration, error) {
	d, err := time.ParseDuration(raw)
	if err != nil {
		ns, nsErr := strconv.ParseInt(raw, 10, 64)
		if nsErr != nil {
			return 0, fmt.Errorf("invalid duration %q: %v", raw, err)
		}
		d = time.Duration(ns)
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must not be negative: %v", d)
	}
	return d, nil
}

func Assert(want, got interface{}, t *testing.T) {
	if want == nil && got == nil {
		return
	}
	if !reflect.DeepEqual(want, got) {
		_, file, line, _ := runtime.Caller(1)
		splitted := strings.Split(file, string(os.PathSeparator))
		t.Fatalf("%v:%v: Failed: got %v, want %v", splitted[len(splitted)-1], line, got, want)
	}
}

func CheckVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		reg := "version examples: 1.0.1, 1.5.0-dev, 1.8.1-alpha.1"
		return fmt.Errorf("%v: %v; %v", version, err.Error(), reg)
	}
	if v.String() != version {
		return fmt.Errorf("Version must be a valid semantic version. Given %v, expected %v", version, v.String())
	}
	return nil
}

// CompatibleVersion reports whether version shares the major version of VersionStr.
func CompatibleVersion(version string) (bool, error) {
	own, err := semver.NewVersion(VersionStr)
	if err != nil {
		return false, err
	}
	c, err := semver.NewConstraint(fmt.Sprintf("^%d", own.Major()))
	if err != nil {
		return false, err
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, err
	}
	return c.Check(v), nil
}
