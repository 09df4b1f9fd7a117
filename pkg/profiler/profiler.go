// Package profiler accumulates execution time of named routines.
//
// Every sample recorded under a name is merged into a single aggregate holding
// the total elapsed time and the number of calls. Aggregates are never reset
// or removed while the process is alive.
package profiler

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// ProfileData is the aggregate kept for one name.
type ProfileData struct {
	TotalDuration time.Duration `json:"total_duration"`
	Count         uint64        `json:"count"`
}

// Add returns d with one more sample merged in.
func (d ProfileData) Add(sample time.Duration) ProfileData {
	d.TotalDuration += sample
	d.Count++
	return d
}

// Mean returns the average duration of a call, or zero if nothing was recorded.
func (d ProfileData) Mean() time.Duration {
	if d.Count == 0 {
		return 0
	}
	return time.Duration(int64(d.TotalDuration) / int64(d.Count))
}

// Entry is a named aggregate as returned by Snapshot.
type Entry struct {
	Name string `json:"name"`
	ProfileData
}

type Profiler struct {
	lock    sync.RWMutex
	timeMap map[string]ProfileData
	clock   clockwork.Clock
}

type Option func(p *Profiler)

// WithClock sets the clock used by Start and the Run helpers.
func WithClock(c clockwork.Clock) Option {
	return func(p *Profiler) {
		p.clock = c
	}
}

func NewProfiler(opts ...Option) *Profiler {
	p := &Profiler{
		timeMap: make(map[string]ProfileData),
		clock:   clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Record merges one sample into the aggregate for name.
// It panics if name is empty or d is negative.
func (p *Profiler) Record(name string, d time.Duration) {
	if name == "" {
		panic("profiler: record with empty name")
	}
	if d < 0 {
		panic(fmt.Sprintf("profiler: negative duration %v recorded for %q", d, name))
	}

	p.lock.Lock()
	defer p.lock.Unlock()
	p.timeMap[name] = p.timeMap[name].Add(d)
}

// Snapshot returns a copy of all aggregates ordered by ascending total
// duration. Equal totals are ordered by call count; the order of entries equal
// in both is unspecified.
func (p *Profiler) Snapshot() []Entry {
	p.lock.RLock()
	entries := make([]Entry, 0, len(p.timeMap))
	for name, data := range p.timeMap {
		entries = append(entries, Entry{Name: name, ProfileData: data})
	}
	p.lock.RUnlock()

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalDuration != entries[j].TotalDuration {
			return entries[i].TotalDuration < entries[j].TotalDuration
		}
		return entries[i].Count < entries[j].Count
	})
	return entries
}

// Get returns the aggregate for name and whether it was ever recorded.
func (p *Profiler) Get(name string) (ProfileData, bool) {
	p.lock.RLock()
	defer p.lock.RUnlock()
	data, ok := p.timeMap[name]
	return data, ok
}

func (p *Profiler) Len() int {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return len(p.timeMap)
}

func (p *Profiler) String() string {
	s := strings.Builder{}
	s.WriteString("Profiler:\n")
	for _, e := range p.Snapshot() {
		s.WriteString(fmt.Sprintf("%v = %v (%v calls)\n", e.Name, e.TotalDuration, e.Count))
	}
	return s.String()
}
