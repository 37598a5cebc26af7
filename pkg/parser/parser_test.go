package parser

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/iot-lab/iotlab-cli/pkg/experiment"
	"github.com/iot-lab/iotlab-cli/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	sitesCalls int
	sitesErr   error
	resources  json.RawMessage
	circuits   json.RawMessage
}

func (f *fakeAPI) GetSites(context.Context) (json.RawMessage, error) {
	f.sitesCalls++
	if f.sitesErr != nil {
		return nil, f.sitesErr
	}
	return json.RawMessage(`{"items": [{"site": "grenoble"}, {"site": "strasbourg"}]}`), nil
}

func (f *fakeAPI) GetCircuits(context.Context) (json.RawMessage, error) {
	return f.circuits, nil
}

func (f *fakeAPI) GetExperimentInfo(_ context.Context, _ int, option string) (json.RawMessage, error) {
	return f.resources, nil
}

func TestExpandShortNodesList(t *testing.T) {
	nodes, err := ExpandShortNodesList("1-4+6+7-8")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 6, 7, 8}, nodes)

	for _, invalid := range []string{"1-4-5", "3-3", "3-2", "a-b", "", "1+"} {
		_, err := ExpandShortNodesList(invalid)
		require.Error(t, err, invalid)
		assert.Equal(t, "Invalid nodes list: "+invalid+" ([0-9+-])", err.Error())
	}
}

func TestNodesListFromInfo(t *testing.T) {
	nodes, err := NodesListFromInfo("grenoble", "m3", "1-2+4")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"m3-1.grenoble.iot-lab.info",
		"m3-2.grenoble.iot-lab.info",
		"m3-4.grenoble.iot-lab.info",
	}, nodes)

	_, err = NodesListFromInfo("grenoble", "inval_arch", "1-2")
	require.Error(t, err)
	assert.Equal(t, `Invalid node archi: "inval_arch" not in ['wsn430', 'm3', 'a8']`, err.Error())

	_, err = NodesListFromInfo("grenoble", "wsn430", "a-b")
	assert.Error(t, err)
}

func TestCheckSite(t *testing.T) {
	api := &fakeAPI{}
	p := New(api)

	require.NoError(t, p.CheckSite(context.Background(), "grenoble"))
	err := p.CheckSite(context.Background(), "unknown")
	require.Error(t, err)
	assert.Equal(t, `Unknown site name "unknown"`, err.Error())
	assert.Equal(t, 1, api.sitesCalls)

	p = NewWithSites(api, []string{"lille"})
	require.NoError(t, p.CheckSite(context.Background(), "lille"))
	assert.Equal(t, 1, api.sitesCalls)

	failing := &fakeAPI{sitesErr: errors.New("connection refused")}
	err = New(failing).CheckSite(context.Background(), "grenoble")
	assert.EqualError(t, err, "connection refused")
}

func TestNodesListFromStr(t *testing.T) {
	p := New(&fakeAPI{})

	nodes, err := p.NodesListFromStr(context.Background(), "strasbourg,a8,3-4")
	require.NoError(t, err)
	assert.Equal(t, []string{"a8-3.strasbourg.iot-lab.info", "a8-4.strasbourg.iot-lab.info"}, nodes)

	_, err = p.NodesListFromStr(context.Background(), "grenoble,m3")
	require.Error(t, err)
	assert.Equal(t, `Invalid number of argument in nodes list: "grenoble,m3"`, err.Error())

	_, err = p.NodesListFromStr(context.Background(), "paris,m3,1")
	assert.Error(t, err)
}

func TestResourcesFromStrPhysical(t *testing.T) {
	p := New(&fakeAPI{})

	res, err := p.ResourcesFromStr(context.Background(), "grenoble,m3,1-2,tuto.elf,battery")
	require.NoError(t, err)
	assert.Equal(t, experiment.TypePhysical, res.Type)
	assert.Equal(t, []string{"m3-1.grenoble.iot-lab.info", "m3-2.grenoble.iot-lab.info"}, res.Nodes)
	assert.Equal(t, "tuto.elf", res.Firmware)
	assert.Equal(t, "battery", res.Profile)

	res, err = p.ResourcesFromStr(context.Background(), "grenoble,m3,1")
	require.NoError(t, err)
	assert.Empty(t, res.Firmware)
	assert.Empty(t, res.Profile)

	_, err = p.ResourcesFromStr(context.Background(), "grenoble,m3,1,fw,prof,extra")
	assert.Error(t, err)
}

func TestResourcesFromStrAlias(t *testing.T) {
	p := NewWithSites(&fakeAPI{}, nil)

	res, err := p.ResourcesFromStr(context.Background(), "5,archi=m3:at86rf231+site=grenoble+mobile=true,tuto.elf")
	require.NoError(t, err)
	assert.Equal(t, experiment.TypeAlias, res.Type)
	require.NotNil(t, res.Alias)
	assert.Equal(t, 5, res.Alias.NbNodes)
	assert.Equal(t, experiment.AliasProperties{Archi: "m3:at86rf231", Site: "grenoble", Mobile: true}, res.Alias.Properties)
	assert.Equal(t, "tuto.elf", res.Firmware)

	_, err = p.ResourcesFromStr(context.Background(), "5,archi=m3:at86rf231")
	assert.Error(t, err)

	_, err = p.ResourcesFromStr(context.Background(), "5,archi=m3:at86rf231+site=grenoble+color=red")
	assert.Error(t, err)

	_, err = p.ResourcesFromStr(context.Background(), "5,archi=m3:bad+site=grenoble")
	var argErr *models.ArgumentError
	assert.True(t, errors.As(err, &argErr))
}

func TestListNodes(t *testing.T) {
	api := &fakeAPI{resources: json.RawMessage(`{"items": [
		{"network_address": "m3-3.grenoble.iot-lab.info"},
		{"network_address": "m3-1.grenoble.iot-lab.info"},
		{"network_address": "m3-2.grenoble.iot-lab.info"}
	]}`)}
	p := New(api)
	ctx := context.Background()

	nodes, err := p.ListNodes(ctx, 12, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{}, nodes)

	nodes, err = p.ListNodes(ctx, 12, [][]string{
		{"m3-10.grenoble.iot-lab.info"},
		{"m3-9.grenoble.iot-lab.info"},
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"m3-9.grenoble.iot-lab.info", "m3-10.grenoble.iot-lab.info"}, nodes)

	nodes, err = p.ListNodes(ctx, 12, nil, [][]string{{"m3-2.grenoble.iot-lab.info"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"m3-1.grenoble.iot-lab.info", "m3-3.grenoble.iot-lab.info"}, nodes)
}

func TestGetCircuit(t *testing.T) {
	api := &fakeAPI{circuits: json.RawMessage(`{"grenoble": [
		{"trajectory_name": "square", "points": []},
		{"trajectory_name": "line", "points": [1]}
	]}`)}
	p := New(api)
	ctx := context.Background()

	circuit, err := p.GetCircuit(ctx, "grenoble,line")
	require.NoError(t, err)
	assert.JSONEq(t, `{"trajectory_name": "line", "points": [1]}`, string(circuit))

	_, err = p.GetCircuit(ctx, "grenoble,circle")
	require.Error(t, err)
	assert.Equal(t, `Circuit "circle" not found in ['square', 'line']`, err.Error())

	_, err = p.GetCircuit(ctx, "strasbourg,line")
	require.Error(t, err)
	assert.Equal(t, `No circuits for site "strasbourg"`, err.Error())

	_, err = p.GetCircuit(ctx, "grenoble")
	assert.Error(t, err)
}
