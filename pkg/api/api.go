package api

import (
	"context"
	"net/http"
	"time"

	"github.com/emicklei/go-restful"
	"github.com/gorilla/mux"
	"github.com/kuberlab/profiled/pkg/config"
	"github.com/kuberlab/profiled/pkg/profiler"
	"github.com/kuberlab/profiled/pkg/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type API struct {
	prof     *profiler.Profiler
	cfg      *config.ProfiledConfig
	cache    *utils.RequestCache
	hub      *Hub
	registry *prometheus.Registry
}

func NewAPI(p *profiler.Profiler, cfg *config.ProfiledConfig) *API {
	registry := prometheus.NewRegistry()
	registry.MustRegister(profiler.NewCollector(p, cfg.MetricsNamespace))
	return &API{
		prof:     p,
		cfg:      cfg,
		cache:    utils.NewRequestCache(cfg.ReportCacheTTL),
		hub:      NewHub(),
		registry: registry,
	}
}

// Build returns the root handler serving the API, metrics and probe.
func (api *API) Build() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = NotFoundHandler()

	apiContainer := NewApiContainer(api, utils.ApiPrefix)
	r.PathPrefix(utils.ApiPrefix).Handler(apiContainer)

	r.Path("/metrics").Handler(promhttp.HandlerFor(api.registry, promhttp.HandlerOpts{}))
	r.Path("/probe").HandlerFunc(
		func(resp http.ResponseWriter, req *http.Request) {
			resp.Write([]byte("Ok\n"))
		},
	)
	return WrapLogger(r)
}

func NewApiContainer(api *API, prefix string) *restful.Container {
	container := restful.NewContainer()
	container.EnableContentEncoding(false)
	ws := new(restful.WebService)
	ws.Path(prefix)
	ws.ApiVersion(utils.ApiVersion)
	ws.Produces(restful.MIME_JSON)
	ws.Route(ws.GET("/snapshot").To(api.profiled("snapshot", api.snapshot)))
	ws.Route(ws.GET("/entry").To(api.profiled("entry", api.entry)))
	ws.Route(ws.POST("/samples").Filter(api.AuthHook).To(api.profiled("samples", api.recordSample)))
	ws.Route(ws.GET("/version").To(api.version))

	// Live snapshots.
	ws.Route(ws.GET("/watch").To(api.websocket))
	ws.Route(ws.GET("/watch/connections").To(api.wsConnections))
	container.Add(ws)
	return container
}

// profiled instruments a route under "api.<name>" when request profiling is on.
func (api *API) profiled(name string, f restful.RouteFunction) restful.RouteFunction {
	if !api.cfg.ProfileRequests {
		return f
	}
	name = "api." + name
	return func(req *restful.Request, resp *restful.Response) {
		defer api.prof.Start(name)()
		f(req, resp)
	}
}

func (api *API) AuthHook(req *restful.Request, resp *restful.Response, filter *restful.FilterChain) {
	if api.cfg.InternalKey == "" || req.HeaderParameter("Internal") == api.cfg.InternalKey {
		filter.ProcessFilter(req, resp)
		return
	}
	WriteErrorString(resp, http.StatusUnauthorized, "Unauthorized.")
}

// Start serves the API at addr until ctx is done. Snapshots are published to
// websocket watchers every cfg.WatchInterval.
func (api *API) Start(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: api.Build()}
	go api.hub.Publish(ctx, api.prof, api.cfg.WatchInterval)

	errCh := make(chan error, 1)
	go func() {
		logrus.Infof("Listen at %v", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logrus.Info("Shutting down http server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	api.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
