package profiler

import (
	"net/http"
	"sync"
)

// Start begins timing a call of name. The returned func stops the timer and
// records the elapsed time; calling it more than once records only once.
//
//	defer p.Start("load_config")()
func (p *Profiler) Start(name string) func() {
	start := p.clock.Now()
	once := sync.Once{}
	return func() {
		once.Do(func() {
			p.Record(name, p.clock.Since(start))
		})
	}
}

// Run times fn under name. If fn panics the call is still recorded and the
// panic continues unchanged.
func (p *Profiler) Run(name string, fn func()) {
	defer p.Start(name)()
	fn()
}

// RunE times fn under name and returns its error as is.
func (p *Profiler) RunE(name string, fn func() error) error {
	defer p.Start(name)()
	return fn()
}

// Wrap returns fn instrumented under name.
func (p *Profiler) Wrap(name string, fn func()) func() {
	return func() {
		p.Run(name, fn)
	}
}

// Call times fn under name and forwards its result.
func Call[T any](p *Profiler, name string, fn func() (T, error)) (T, error) {
	defer p.Start(name)()
	return fn()
}

// Handler times every request served by h under name.
func (p *Profiler) Handler(name string, h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer p.Start(name)()
		h.ServeHTTP(w, r)
	})
}
