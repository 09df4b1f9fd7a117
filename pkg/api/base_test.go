package api

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/kuberlab/profiled/pkg/config"
	"github.com/kuberlab/profiled/pkg/profiler"
	"github.com/kuberlab/profiled/pkg/utils"
	"github.com/sirupsen/logrus"
)

var (
	// server is a test HTTP server used to provide mock API responses.
	server *httptest.Server

	// client is needed to make request to the server.
	client *http.Client

	testAPI  *API
	testProf *profiler.Profiler
)

func setup(mutators ...func(cfg *config.ProfiledConfig)) {
	cfg := config.Default()
	cfg.InternalKey = ""
	cfg.ReportCacheTTL = 0
	for _, m := range mutators {
		m(cfg)
	}
	logrus.SetLevel(logrus.DebugLevel)
	testProf = profiler.NewProfiler()
	testAPI = NewAPI(testProf, cfg)
	server = httptest.NewServer(testAPI.Build())
	client = &http.Client{Timeout: time.Second * 10}
}

// teardown closes the test HTTP server.
func teardown() {
	testAPI.hub.Close()
	server.Close()
}

func buildURL(urlStr string) string {
	urlStr = strings.TrimPrefix(urlStr, "/")
	return fmt.Sprintf("%v%v/%v", server.URL, utils.ApiPrefix, urlStr)
}

func mustRead(r io.ReadCloser) string {
	data, _ := io.ReadAll(r)
	r.Close()
	return string(data)
}
