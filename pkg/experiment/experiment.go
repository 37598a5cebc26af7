package experiment

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/iot-lab/iotlab-cli/pkg/models"
	"github.com/iot-lab/iotlab-cli/pkg/utils"
	"github.com/tidwall/gjson"
)

// ExpFilename is the name of the description part of a submission. The
// server renames it.
const ExpFilename = "new_exp.json"

// GetOptions restrict what Get returns.
var GetOptions = []string{"", "resources", "id", "state", "start", "data"}

// API is the part of the REST client experiments need.
type API interface {
	SubmitExperiment(ctx context.Context, files map[string][]byte) (json.RawMessage, error)
	StopExperiment(ctx context.Context, expID int) (json.RawMessage, error)
	GetExperiments(ctx context.Context, state string, limit, offset int) (json.RawMessage, error)
	GetExperimentInfo(ctx context.Context, expID int, option string) (json.RawMessage, error)
	GetExperimentArchive(ctx context.Context, expID int) ([]byte, error)
	ReloadExperiment(ctx context.Context, expID int, expJSON map[string]string) (json.RawMessage, error)
	GetResources(ctx context.Context, listID bool, site string) (json.RawMessage, error)
}

// Build creates the experiment description and the files to upload with it.
func Build(name string, duration int, resources []Resources, startTime *int64) (*Experiment, FilesDict, error) {
	if len(resources) == 0 {
		return nil, nil, models.Argumentf("Empty resources")
	}

	exp := NewExperiment(name, duration, startTime)
	files := FilesDict{}
	for _, res := range resources {
		if err := exp.AddResources(res); err != nil {
			return nil, nil, err
		}
		if err := files.AddFile(res.Firmware); err != nil {
			return nil, nil, err
		}
	}
	return exp, files, nil
}

// Submit sends a new experiment with its firmwares.
func Submit(ctx context.Context, api API, name string, duration int, resources []Resources, startTime *int64) (json.RawMessage, error) {
	exp, files, err := Build(name, duration, resources, startTime)
	if err != nil {
		return nil, err
	}

	desc, err := utils.JSONDumps(exp)
	if err != nil {
		return nil, err
	}
	if err := files.Set(ExpFilename, []byte(desc)); err != nil {
		return nil, err
	}

	utils.Log.Infof("Submitting experiment %q with %d file(s)", name, len(files))
	return api.SubmitExperiment(ctx, files)
}

func Stop(ctx context.Context, api API, expID int) (json.RawMessage, error) {
	return api.StopExperiment(ctx, expID)
}

// List returns the user experiments in state, a comma separated list.
func List(ctx context.Context, api API, state string, limit, offset int) (json.RawMessage, error) {
	state, err := models.CheckStates(state)
	if err != nil {
		return nil, err
	}
	return api.GetExperiments(ctx, state, limit, offset)
}

// Get returns the experiment description restricted by option:
//   - "":          experiment submission
//   - "resources": resources list
//   - "id":        resources id list in '1-34+72' format
//   - "state":     experiment state
//   - "start":     expected start time
//   - "data":      writes the experiment archive to '<id>.tar.gz'
func Get(ctx context.Context, api API, expID int, option string) (interface{}, error) {
	if !validOption(option) {
		return nil, models.Argumentf("Invalid option %q, should be in %s", option, models.QuoteList(GetOptions))
	}

	if option == "data" {
		data, err := api.GetExperimentArchive(ctx, expID)
		if err != nil {
			return nil, err
		}
		if err := writeArchive(expID, data); err != nil {
			return nil, err
		}
		return "Written", nil
	}
	return api.GetExperimentInfo(ctx, expID, option)
}

func validOption(option string) bool {
	for _, opt := range GetOptions {
		if opt == option {
			return true
		}
	}
	return false
}

func writeArchive(expID int, data []byte) error {
	return os.WriteFile(fmt.Sprintf("%d.tar.gz", expID), data, 0o644)
}

// State returns the current experiment state.
func State(ctx context.Context, api API, expID int) (string, error) {
	res, err := api.GetExperimentInfo(ctx, expID, "state")
	if err != nil {
		return "", err
	}
	state := gjson.GetBytes(res, "state")
	if !state.Exists() {
		return "", fmt.Errorf("no state in answer for experiment %d", expID)
	}
	return state.String(), nil
}

// Active returns the active experiments ids by state:
// {"Running": [12], "Waiting": [13, 14]}. With runningOnly only the
// 'Running' state is looked up.
func Active(ctx context.Context, api API, runningOnly bool) (map[string][]int, error) {
	states := models.ActiveStates
	if runningOnly {
		states = []string{"Running"}
	}
	return byStates(ctx, api, states)
}

func byStates(ctx context.Context, api API, states []string) (map[string][]int, error) {
	res, err := api.GetExperiments(ctx, strings.Join(states, ","), 0, 0)
	if err != nil {
		return nil, err
	}

	exps := map[string][]int{}
	gjson.GetBytes(res, "items").ForEach(func(_, item gjson.Result) bool {
		state := item.Get("state").String()
		exps[state] = append(exps[state], int(item.Get("id").Int()))
		return true
	})
	for state := range exps {
		sort.Ints(exps[state])
	}
	return exps, nil
}

// Current returns expID when set, else the id of the only active
// experiment. It fails when there is none or several.
func Current(ctx context.Context, api API, expID int, runningOnly bool) (int, error) {
	if expID != 0 {
		return expID, nil
	}

	exps, err := Active(ctx, api, runningOnly)
	if err != nil {
		return 0, err
	}

	var ids []int
	for _, stateIDs := range exps {
		ids = append(ids, stateIDs...)
	}
	sort.Ints(ids)

	kind := "active"
	if runningOnly {
		kind = "running"
	}
	switch len(ids) {
	case 0:
		return 0, &models.ArgumentError{
			Msg: fmt.Sprintf("You have no %s experiment", kind),
			Err: models.ErrNoExperiment,
		}
	case 1:
		utils.Log.Debugf("Using %s experiment %d", kind, ids[0])
		return ids[0], nil
	default:
		return 0, models.Argumentf("You have several %s experiments %v, select one with --id", kind, ids)
	}
}

// Load submits the experiment described in the JSON file descPath.
// Firmwares are read from the current directory unless a path with the
// same basename is given in firmwares.
func Load(ctx context.Context, api API, descPath string, firmwares []string) (json.RawMessage, error) {
	data, err := utils.ReadFile(descPath)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(data) {
		return nil, models.Argumentf("Invalid JSON experiment description: %s", descPath)
	}

	desc, err := utils.JSONDumps(json.RawMessage(data))
	if err != nil {
		return nil, err
	}
	files := FilesDict{}
	if err := files.Set(ExpFilename, []byte(desc)); err != nil {
		return nil, err
	}

	names := map[string]bool{}
	gjson.GetBytes(data, "firmwareassociations.#.firmwarename").ForEach(func(_, name gjson.Result) bool {
		names[name.String()] = true
		return true
	})

	for _, path := range firmwares {
		base := filepath.Base(path)
		if !names[base] {
			return nil, models.Argumentf("Firmware %q is not in experiment: %s", base, descPath)
		}
		delete(names, base)
		names[path] = true
	}

	paths := make([]string, 0, len(names))
	for path := range names {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		if err := files.AddFile(path); err != nil {
			return nil, err
		}
	}

	return api.SubmitExperiment(ctx, files)
}

// Reload submits expID again. A nil duration keeps the original one and a
// nil startTime means as soon as possible.
func Reload(ctx context.Context, api API, expID int, duration *int, startTime *int64) (json.RawMessage, error) {
	expJSON := map[string]string{}
	if duration != nil {
		expJSON["duration"] = strconv.Itoa(*duration)
	}
	if startTime != nil {
		expJSON["reservation"] = strconv.FormatInt(*startTime, 10)
	}
	return api.ReloadExperiment(ctx, expID, expJSON)
}

// Info returns the testbed resources, or their ids in '3-12+42' format
// when listID is set. site restricts to one site.
func Info(ctx context.Context, api API, listID bool, site string) (json.RawMessage, error) {
	return api.GetResources(ctx, listID, site)
}
