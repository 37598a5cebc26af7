package rest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/iot-lab/iotlab-cli/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method   string
	host     string
	path     string
	rawQuery string
	user     string
	password string
	hasAuth  bool
	body     []byte
	files    map[string]string
}

// newTestServer answers every request with status and body and records it.
func newTestServer(t *testing.T, status int, body string) (*httptest.Server, *recordedRequest) {
	t.Helper()
	rec := &recordedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.host = r.Host
		rec.path = r.URL.Path
		rec.rawQuery = r.URL.RawQuery
		rec.user, rec.password, rec.hasAuth = r.BasicAuth()

		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			if err := r.ParseMultipartForm(1 << 20); err == nil {
				rec.files = map[string]string{}
				for name, headers := range r.MultipartForm.File {
					f, err := headers[0].Open()
					if err != nil {
						t.Error(err)
						continue
					}
					data, _ := io.ReadAll(f)
					f.Close()
					rec.files[name] = string(data)
				}
			}
		} else {
			rec.body, _ = io.ReadAll(r.Body)
		}

		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

var testCreds = models.Credentials{Username: "alice", Password: "secret"}

func TestClientsShareLogWriter(t *testing.T) {
	first := NewClient("", models.Credentials{})
	second := NewClient("http://localhost/", models.Credentials{Username: "alice", Password: "secret"})
	assert.Same(t, debugLog, first.http.Log.Writer())
	assert.Same(t, debugLog, second.http.Log.Writer())
}

func TestGetSites(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{"items": [{"site": "grenoble"}]}`)
	client := NewClient(srv.URL+"/rest/", models.Credentials{})

	sites, err := client.GetSites(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"items": [{"site": "grenoble"}]}`, string(sites))
	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/rest/experiments", rec.path)
	assert.Equal(t, "sites", rec.rawQuery)
	assert.False(t, rec.hasAuth)
}

func TestBasicAuth(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{}`)
	client := NewClient(srv.URL, testCreds)

	_, err := client.GetExperimentInfo(context.Background(), 42, "state")
	require.NoError(t, err)
	assert.True(t, rec.hasAuth)
	assert.Equal(t, "alice", rec.user)
	assert.Equal(t, "secret", rec.password)
	assert.Equal(t, "/experiments/42", rec.path)
	assert.Equal(t, "state", rec.rawQuery)
}

func TestGetResources(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{"items": []}`)
	client := NewClient(srv.URL, testCreds)

	_, err := client.GetResources(context.Background(), false, "")
	require.NoError(t, err)
	assert.Equal(t, "resources", rec.rawQuery)

	_, err = client.GetResources(context.Background(), true, "lille")
	require.NoError(t, err)
	assert.Equal(t, "id&site=lille", rec.rawQuery)
}

func TestGetExperiments(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{"items": []}`)
	client := NewClient(srv.URL, testCreds)

	_, err := client.GetExperiments(context.Background(), "Running,Waiting", 10, 5)
	require.NoError(t, err)
	assert.Equal(t, "/experiments", rec.path)
	assert.Equal(t, "limit=10&offset=5&state=Running%2CWaiting", rec.rawQuery)
}

func TestHTTPError(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusUnauthorized, `Unauthorized`)
	client := NewClient(srv.URL, testCreds)

	_, err := client.StopExperiment(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, models.IsUnauthorized(err))

	var httpErr *models.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, "Unauthorized", string(httpErr.Body))
}

func TestInvalidJSON(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `not json`)
	client := NewClient(srv.URL, testCreds)

	_, err := client.GetSites(context.Background())
	assert.Error(t, err)
}

func TestCheckCredential(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{}`)
	ok, err := NewClient(srv.URL, testCreds).CheckCredential(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/users/alice", rec.path)
	assert.Equal(t, "login", rec.rawQuery)

	srv, _ = newTestServer(t, http.StatusUnauthorized, ``)
	ok, err = NewClient(srv.URL, testCreds).CheckCredential(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	srv, _ = newTestServer(t, http.StatusInternalServerError, ``)
	_, err = NewClient(srv.URL, testCreds).CheckCredential(context.Background())
	assert.Error(t, err)
}

func TestStopExperiment(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{"id": 12, "status": "Delete request registered"}`)
	client := NewClient(srv.URL, testCreds)

	res, err := client.StopExperiment(context.Background(), 12)
	require.NoError(t, err)
	assert.Equal(t, http.MethodDelete, rec.method)
	assert.Equal(t, "/experiments/12", rec.path)
	assert.JSONEq(t, `{"id": 12, "status": "Delete request registered"}`, string(res))
}

func TestReloadExperiment(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{"id": 13}`)
	client := NewClient(srv.URL, testCreds)

	_, err := client.ReloadExperiment(context.Background(), 12, map[string]string{"duration": "20"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/experiments/12", rec.path)
	assert.Equal(t, "reload", rec.rawQuery)
	assert.JSONEq(t, `{"duration": "20"}`, string(rec.body))

	_, err = client.ReloadExperiment(context.Background(), 12, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(rec.body))
}

func TestNodeCommand(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{"0": ["m3-1.grenoble.iot-lab.info"]}`)
	client := NewClient(srv.URL, testCreds)

	_, err := client.NodeCommand(context.Background(), 7, "reset", []string{"m3-1.grenoble.iot-lab.info"})
	require.NoError(t, err)
	assert.Equal(t, "/experiments/7/nodes", rec.path)
	assert.Equal(t, "reset", rec.rawQuery)

	var nodes []string
	require.NoError(t, json.Unmarshal(rec.body, &nodes))
	assert.Equal(t, []string{"m3-1.grenoble.iot-lab.info"}, nodes)

	_, err = client.NodeCommand(context.Background(), 7, "start", nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(rec.body))
}

func TestSubmitExperiment(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{"id": 65535}`)
	client := NewClient(srv.URL, testCreds)

	res, err := client.SubmitExperiment(context.Background(), map[string][]byte{
		"new_exp.json": []byte(`{"name": "test"}`),
		"tutorial.elf": []byte("ELF"),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id": 65535}`, string(res))
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/experiments", rec.path)
	assert.Equal(t, map[string]string{
		"new_exp.json": `{"name": "test"}`,
		"tutorial.elf": "ELF",
	}, rec.files)

	_, err = client.SubmitExperiment(context.Background(), nil)
	assert.Error(t, err)
}

func TestGetExperimentArchive(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, "\x1f\x8b binary")
	client := NewClient(srv.URL, testCreds)

	data, err := client.GetExperimentArchive(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "\x1f\x8b binary", string(data))
	assert.Equal(t, "data", rec.rawQuery)
}

func TestGetCircuits(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{"grenoble": [{"trajectory_name": "square"}]}`)
	client := NewClient(srv.URL, models.Credentials{})

	res, err := client.GetCircuits(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"grenoble": [{"trajectory_name": "square"}]}`, string(res))
	assert.Equal(t, http.MethodGet, rec.method)
	assert.Equal(t, "/robots/circuits", rec.path)
	assert.Empty(t, rec.rawQuery)
}

func TestUpdateFirmware(t *testing.T) {
	srv, rec := newTestServer(t, http.StatusOK, `{"0": ["m3-1.grenoble.iot-lab.info"], "1": []}`)
	client := NewClient(srv.URL, testCreds)

	res, err := client.UpdateFirmware(context.Background(), 9, map[string][]byte{
		"tutorial.elf": []byte("ELF"),
		"nodes.json":   []byte(`["m3-1.grenoble.iot-lab.info"]`),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"0": ["m3-1.grenoble.iot-lab.info"], "1": []}`, string(res))
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/experiments/9/nodes", rec.path)
	assert.Equal(t, "update", rec.rawQuery)
	assert.True(t, rec.hasAuth)
	assert.Equal(t, map[string]string{
		"tutorial.elf": "ELF",
		"nodes.json":   `["m3-1.grenoble.iot-lab.info"]`,
	}, rec.files)
}

func TestSetProxy(t *testing.T) {
	proxy, rec := newTestServer(t, http.StatusOK, `{"items": []}`)
	client := NewClient("http://www.iot-lab.invalid/rest/", models.Credentials{})

	client.SetProxy("")
	assert.False(t, client.http.IsProxySet())

	client.SetProxy(proxy.URL)
	require.True(t, client.http.IsProxySet())
	_, err := client.GetSites(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "www.iot-lab.invalid", rec.host)
	assert.Equal(t, "/rest/experiments", rec.path)
	assert.Equal(t, "sites", rec.rawQuery)
}
