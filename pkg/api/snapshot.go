package api

import (
	"bytes"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/emicklei/go-restful"
	"github.com/kuberlab/profiled/pkg/profiler"
	"github.com/kuberlab/profiled/pkg/report"
	"github.com/kuberlab/profiled/pkg/utils"
)

type EntryList struct {
	Items []profiler.Entry `json:"items"`
}

// Sample is one remotely reported observation. Duration is in nanoseconds;
// DurationStr takes precedence when set and accepts Go duration strings.
type Sample struct {
	Name        string `json:"name"`
	Duration    int64  `json:"duration"`
	DurationStr string `json:"duration_str,omitempty"`
}

func (s *Sample) parse() (time.Duration, error) {
	if s.Name == "" {
		return 0, fmt.Errorf("Sample name must not be empty")
	}
	if s.DurationStr != "" {
		return utils.ParseSampleDuration(s.DurationStr)
	}
	if s.Duration < 0 {
		return 0, fmt.Errorf("duration must not be negative: %v", time.Duration(s.Duration))
	}
	return time.Duration(s.Duration), nil
}

type VersionInfo struct {
	Version string `json:"version"`
	Go      string `json:"go"`
}

func (api *API) snapshot(req *restful.Request, resp *restful.Response) {
	format := req.QueryParameter("format")
	if format == "" || format == report.FormatJSON {
		resp.WriteEntity(EntryList{Items: api.prof.Snapshot()})
		return
	}
	if err := report.CheckFormat(format); err != nil {
		WriteStatusError(resp, http.StatusBadRequest, err)
		return
	}

	data, ok := api.cache.Get(format)
	if !ok {
		buf := &bytes.Buffer{}
		if err := report.Render(buf, format, api.prof.Snapshot(), false); err != nil {
			WriteError(resp, err)
			return
		}
		data = buf.Bytes()
		api.cache.Set(format, data)
	}
	resp.AddHeader("Content-Type", report.ContentType(format))
	resp.WriteHeader(http.StatusOK)
	resp.Write(data)
}

func (api *API) entry(req *restful.Request, resp *restful.Response) {
	name := req.QueryParameter("name")
	if name == "" {
		WriteErrorString(resp, http.StatusBadRequest, "Query parameter 'name' is required")
		return
	}
	data, ok := api.prof.Get(name)
	if !ok {
		WriteStatusError(resp, http.StatusNotFound, NotFoundError(name))
		return
	}
	resp.WriteEntity(profiler.Entry{Name: name, ProfileData: data})
}

func (api *API) recordSample(req *restful.Request, resp *restful.Response) {
	sample := Sample{}
	if err := json.NewDecoder(req.Request.Body).Decode(&sample); err != nil {
		WriteErrorString(resp, http.StatusBadRequest, fmt.Sprintf("Invalid sample: %v", err))
		return
	}
	d, err := sample.parse()
	if err != nil {
		WriteStatusError(resp, http.StatusBadRequest, err)
		return
	}

	api.prof.Record(sample.Name, d)
	data, _ := api.prof.Get(sample.Name)
	resp.WriteHeaderAndEntity(http.StatusCreated, profiler.Entry{Name: sample.Name, ProfileData: data})
}

func (api *API) version(req *restful.Request, resp *restful.Response) {
	resp.WriteEntity(VersionInfo{Version: utils.VersionStr, Go: runtime.Version()})
}
