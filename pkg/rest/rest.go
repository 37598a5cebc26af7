package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/iot-lab/iotlab-cli/pkg/models"
	"github.com/iot-lab/iotlab-cli/pkg/utils"
	"github.com/sirupsen/logrus"
	"gopkg.in/resty.v1"
)

// debugLog sends resty's own logging to utils.Log. WriterLevel starts a
// goroutine and a pipe, so all clients share one.
var debugLog = utils.Log.WriterLevel(logrus.DebugLevel)

// Client talks to the IoT-LAB REST API.
type Client struct {
	http     *resty.Client
	username string
}

// NewClient returns a client for apiURL. Empty credentials produce
// unauthenticated requests, which is enough for public resources.
func NewClient(apiURL string, creds models.Credentials) *Client {
	if apiURL == "" {
		apiURL = models.DefaultAPIURL
	}

	client := resty.New()
	client.SetHostURL(strings.TrimRight(apiURL, "/"))
	client.SetLogger(debugLog)
	client.SetHeader("Accept", "application/json")
	if !creds.Empty() {
		client.SetBasicAuth(creds.Username, creds.Password)
	}

	return &Client{http: client, username: creds.Username}
}

// SetProxy routes requests through proxyURL. Useful for debugging.
func (c *Client) SetProxy(proxyURL string) {
	if proxyURL != "" {
		c.http.SetProxy(proxyURL)
	}
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx)
}

// do runs the request and turns non 2xx answers into *models.HTTPError.
func (c *Client) do(req *resty.Request, method, path string) ([]byte, error) {
	utils.Log.Debugf("%s %s", method, path)

	resp, err := req.Execute(method, path)
	if err != nil {
		utils.Log.WithError(err).Debug("error doing request")
		return nil, err
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		utils.Log.Debugf("%s %s: %s", method, path, resp.Status())
		return nil, &models.HTTPError{
			Code:   resp.StatusCode(),
			Status: resp.Status(),
			Body:   resp.Body(),
		}
	}
	return resp.Body(), nil
}

func (c *Client) getJSON(ctx context.Context, path string) (json.RawMessage, error) {
	body, err := c.do(c.request(ctx), http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	return asJSON(body)
}

func asJSON(body []byte) (json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("invalid JSON answer: %q", body)
	}
	return json.RawMessage(body), nil
}

// GetSites lists the testbed sites. Does not need authentication.
func (c *Client) GetSites(ctx context.Context) (json.RawMessage, error) {
	return c.getJSON(ctx, "experiments?sites")
}

// GetCircuits returns the robots circuits grouped by site.
func (c *Client) GetCircuits(ctx context.Context) (json.RawMessage, error) {
	return c.getJSON(ctx, "robots/circuits")
}

// CheckCredential tells if the client credentials are accepted.
func (c *Client) CheckCredential(ctx context.Context) (bool, error) {
	_, err := c.getJSON(ctx, fmt.Sprintf("users/%s?login", url.PathEscape(c.username)))
	if models.IsUnauthorized(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetResources returns testbed nodes, or their ids in short format
// '1-34+72' when listID is set.
func (c *Client) GetResources(ctx context.Context, listID bool, site string) (json.RawMessage, error) {
	path := "experiments?resources"
	if listID {
		path = "experiments?id"
	}
	if site != "" {
		path += "&site=" + url.QueryEscape(site)
	}
	return c.getJSON(ctx, path)
}

// GetExperiments lists the user experiments. An empty state means all
// states and a zero limit means no limit.
func (c *Client) GetExperiments(ctx context.Context, state string, limit, offset int) (json.RawMessage, error) {
	query := url.Values{}
	query.Set("state", state)
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))
	return c.getJSON(ctx, "experiments?"+query.Encode())
}

// GetExperimentInfo returns an experiment description, or one of its
// details with option ('resources', 'id', 'state', 'start').
func (c *Client) GetExperimentInfo(ctx context.Context, expID int, option string) (json.RawMessage, error) {
	path := fmt.Sprintf("experiments/%d", expID)
	if option != "" {
		path += "?" + option
	}
	return c.getJSON(ctx, path)
}

// GetExperimentArchive returns the experiment tar.gz archive with its
// description and firmwares.
func (c *Client) GetExperimentArchive(ctx context.Context, expID int) ([]byte, error) {
	return c.do(c.request(ctx), http.MethodGet, fmt.Sprintf("experiments/%d?data", expID))
}

// SubmitExperiment posts files as a multipart form, one part per file named
// after the file.
func (c *Client) SubmitExperiment(ctx context.Context, files map[string][]byte) (json.RawMessage, error) {
	return c.postFiles(ctx, "experiments", files)
}

func (c *Client) StopExperiment(ctx context.Context, expID int) (json.RawMessage, error) {
	body, err := c.do(c.request(ctx), http.MethodDelete, fmt.Sprintf("experiments/%d", expID))
	if err != nil {
		return nil, err
	}
	return asJSON(body)
}

// ReloadExperiment submits again a previous experiment, values in expJSON
// override the original duration and reservation.
func (c *Client) ReloadExperiment(ctx context.Context, expID int, expJSON map[string]string) (json.RawMessage, error) {
	if expJSON == nil {
		expJSON = map[string]string{}
	}
	return c.postJSON(ctx, fmt.Sprintf("experiments/%d?reload", expID), expJSON)
}

// NodeCommand runs command (start, stop, reset) on nodes. An empty nodes
// list targets all the experiment nodes.
func (c *Client) NodeCommand(ctx context.Context, expID int, command string, nodes []string) (json.RawMessage, error) {
	if nodes == nil {
		nodes = []string{}
	}
	return c.postJSON(ctx, fmt.Sprintf("experiments/%d/nodes?%s", expID, url.QueryEscape(command)), nodes)
}

// UpdateFirmware flashes the firmware in files on the nodes described by
// the 'nodes.json' entry of files.
func (c *Client) UpdateFirmware(ctx context.Context, expID int, files map[string][]byte) (json.RawMessage, error) {
	return c.postFiles(ctx, fmt.Sprintf("experiments/%d/nodes?update", expID), files)
}

func (c *Client) postJSON(ctx context.Context, path string, payload interface{}) (json.RawMessage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req := c.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(data)
	body, err := c.do(req, http.MethodPost, path)
	if err != nil {
		return nil, err
	}
	return asJSON(body)
}

func (c *Client) postFiles(ctx context.Context, path string, files map[string][]byte) (json.RawMessage, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("no files to send to %s", path)
	}

	// stable parts order
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	req := c.request(ctx)
	for _, name := range names {
		req.SetFileReader(name, name, bytes.NewReader(files[name]))
	}

	body, err := c.do(req, http.MethodPost, path)
	if err != nil {
		return nil, err
	}
	return asJSON(body)
}
