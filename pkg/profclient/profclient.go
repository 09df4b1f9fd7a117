package profclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	liberrs "github.com/kuberlab/lib/pkg/errors"
	"github.com/kuberlab/profiled/pkg/api"
	"github.com/kuberlab/profiled/pkg/profiler"
	"github.com/kuberlab/profiled/pkg/utils"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Client struct {
	Client    *http.Client
	BaseURL   *url.URL
	UserAgent string

	opts *Options
}

type Options struct {
	InternalKey        string
	InsecureSkipVerify bool
}

func NewClient(baseURL string, opts *Options) (*Client, error) {
	if opts == nil {
		opts = &Options{}
	}
	baseURL = strings.TrimSuffix(baseURL, "/")
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("Invalid profiled URL %q", baseURL)
	}
	if len(base.Path) < 2 {
		base.Path = utils.ApiPrefix
	}
	var transport = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if base.Scheme == "https" {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: opts.InsecureSkipVerify}
	}

	return &Client{
		BaseURL:   base,
		Client:    &http.Client{Timeout: time.Minute, Transport: transport},
		UserAgent: "go-profclient/1",
		opts:      opts,
	}, nil
}

func (c *Client) NewRequest(method, urlStr string, body interface{}) (*http.Request, error) {
	u := strings.TrimSuffix(c.BaseURL.String(), "/") + urlStr

	var reqBody io.Reader
	if body != nil {
		if rd, ok := body.(io.Reader); ok {
			reqBody = rd
		} else {
			buf := new(bytes.Buffer)
			if err := json.NewEncoder(buf).Encode(body); err != nil {
				return nil, err
			}
			reqBody = buf
		}
	}

	req, err := http.NewRequest(method, u, reqBody)
	if err != nil {
		return nil, err
	}
	c.setNeededHeaders(req)
	return req, nil
}

func (c *Client) setNeededHeaders(req *http.Request) {
	for k, v := range c.authHeaders() {
		req.Header.Set(k, v[0])
	}
	if req.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
}

func (c *Client) authHeaders() http.Header {
	h := make(http.Header)
	if c.opts.InternalKey != "" {
		h.Set("Internal", c.opts.InternalKey)
	}
	return h
}

// Snapshot fetches the remote snapshot, ordered by total duration then count.
func (c *Client) Snapshot() ([]profiler.Entry, error) {
	req, err := c.NewRequest("GET", "/snapshot", nil)
	if err != nil {
		return nil, err
	}
	res := new(api.EntryList)
	if _, err = c.Do(req, res); err != nil {
		return nil, err
	}
	return res.Items, nil
}

// Report fetches the snapshot rendered server-side in the given format.
func (c *Client) Report(format string) (string, error) {
	req, err := c.NewRequest("GET", "/snapshot?format="+url.QueryEscape(format), nil)
	if err != nil {
		return "", err
	}
	buf := new(bytes.Buffer)
	if _, err = c.Do(req, buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (c *Client) Get(name string) (*profiler.Entry, error) {
	req, err := c.NewRequest("GET", "/entry?name="+url.QueryEscape(name), nil)
	if err != nil {
		return nil, err
	}
	res := new(profiler.Entry)
	if _, err = c.Do(req, res); err != nil {
		return nil, err
	}
	return res, nil
}

// RecordSample reports one observation to the remote registry and returns
// the updated aggregate.
func (c *Client) RecordSample(name string, d time.Duration) (*profiler.Entry, error) {
	req, err := c.NewRequest("POST", "/samples", api.Sample{Name: name, Duration: int64(d)})
	if err != nil {
		return nil, err
	}
	res := new(profiler.Entry)
	if _, err = c.Do(req, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (c *Client) Version() (*api.VersionInfo, error) {
	req, err := c.NewRequest("GET", "/version", nil)
	if err != nil {
		return nil, err
	}
	res := new(api.VersionInfo)
	if _, err = c.Do(req, res); err != nil {
		return nil, err
	}
	return res, nil
}

// CheckVersion fails when the server runs an incompatible major version.
func (c *Client) CheckVersion() (*api.VersionInfo, error) {
	v, err := c.Version()
	if err != nil {
		return nil, err
	}
	ok, err := utils.CompatibleVersion(v.Version)
	if err != nil {
		return v, err
	}
	if !ok {
		return v, fmt.Errorf("Server version %v is not compatible with client version %v", v.Version, utils.VersionStr)
	}
	return v, nil
}

func (c *Client) watchURL() string {
	scheme := "ws"
	if c.BaseURL.Scheme == "https" {
		scheme = "wss"
	}
	u := fmt.Sprintf("%v://%v/%v", scheme, c.BaseURL.Host, strings.TrimPrefix(c.BaseURL.Path, "/"))
	return strings.TrimSuffix(u, "/") + "/watch"
}

type snapshotMessage struct {
	Type    string        `json:"type"`
	ID      string        `json:"id"`
	Content api.EntryList `json:"content"`
}

// Watch streams snapshots from the server to fn until ctx is done, fn returns
// an error or the connection drops. A cancelled ctx is not an error.
func (c *Client) Watch(ctx context.Context, fn func([]profiler.Entry) error) error {
	dialer := websocket.Dialer{HandshakeTimeout: 30 * time.Second}
	if c.BaseURL.Scheme == "https" {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: c.opts.InsecureSkipVerify}
	}
	u := c.watchURL()
	logrus.Debugf("Connect to %v", u)
	conn, _, err := dialer.DialContext(ctx, u, c.authHeaders())
	if err != nil {
		return err
	}
	defer conn.Close()

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-stop:
		}
	}()

	for {
		msg := snapshotMessage{}
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if msg.Type != api.SnapshotMessage {
			continue
		}
		if err := fn(msg.Content.Items); err != nil {
			return err
		}
	}
}

func (c *Client) Do(req *http.Request, v interface{}) (*http.Response, error) {
	logrus.Debugf("[go-profclient] %v %v", req.Method, req.URL)
	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		// Drain up to 512 bytes and close the body to let the Transport reuse the connection
		io.CopyN(io.Discard, resp.Body, 512)
		resp.Body.Close()
	}()

	if resp, err = checkResponse(resp); err != nil {
		return resp, err
	}
	if v != nil {
		if w, ok := v.(io.Writer); ok {
			_, err = io.Copy(w, resp.Body)
		} else {
			err = json.NewDecoder(resp.Body).Decode(v)
			if err == io.EOF {
				err = nil
			}
		}
	}
	return resp, err
}

func checkResponse(resp *http.Response) (*http.Response, error) {
	if resp.StatusCode < 400 {
		return resp, nil
	}
	messageBytes, _ := io.ReadAll(resp.Body)
	e := &liberrs.Error{}
	if err := json.Unmarshal(messageBytes, e); err != nil || e.Message == "" {
		return resp, errors.New(strconv.Itoa(resp.StatusCode) + ": " + string(messageBytes))
	}
	// Include reason in message if any
	if e.Reason != "" {
		e.Message += "; " + string(e.Reason)
		e.Reason = ""
	}
	return resp, e
}
