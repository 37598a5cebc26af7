package node

import (
	"context"
	"encoding/json"

	"github.com/iot-lab/iotlab-cli/pkg/experiment"
	"github.com/iot-lab/iotlab-cli/pkg/models"
	"github.com/iot-lab/iotlab-cli/pkg/utils"
)

// NodesFilename is the name of the nodes list part of a firmware update.
const NodesFilename = "nodes.json"

// Commands accepted by Command.
var Commands = []string{"start", "stop", "reset"}

type API interface {
	NodeCommand(ctx context.Context, expID int, command string, nodes []string) (json.RawMessage, error)
	UpdateFirmware(ctx context.Context, expID int, files map[string][]byte) (json.RawMessage, error)
}

// Command runs command on nodes of experiment expID. An empty nodes list
// means all the experiment nodes.
func Command(ctx context.Context, api API, expID int, command string, nodes []string) (json.RawMessage, error) {
	valid := false
	for _, c := range Commands {
		if c == command {
			valid = true
		}
	}
	if !valid {
		return nil, models.Argumentf("Invalid node command %q, should be in %s", command, models.QuoteList(Commands))
	}

	utils.Log.Infof("Sending %s to %d node(s) of experiment %d", command, len(nodes), expID)
	return api.NodeCommand(ctx, expID, command, nodes)
}

// UpdateFirmware flashes the firmware at path on nodes.
func UpdateFirmware(ctx context.Context, api API, expID int, path string, nodes []string) (json.RawMessage, error) {
	if path == "" {
		return nil, models.Argumentf("Firmware path required")
	}
	if nodes == nil {
		nodes = []string{}
	}

	files := experiment.FilesDict{}
	if err := files.AddFile(path); err != nil {
		return nil, err
	}
	nodesJSON, err := json.Marshal(nodes)
	if err != nil {
		return nil, err
	}
	if err := files.Set(NodesFilename, nodesJSON); err != nil {
		return nil, err
	}

	utils.Log.Infof("Updating firmware of %d node(s) of experiment %d", len(nodes), expID)
	return api.UpdateFirmware(ctx, expID, files)
}
