package parser

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/iot-lab/iotlab-cli/pkg/models"
	"github.com/tidwall/gjson"
)

// GetCircuit returns the robot circuit selected by 'site,circuit_name'.
func (p *Parser) GetCircuit(ctx context.Context, circuitStr string) (json.RawMessage, error) {
	parts := strings.Split(circuitStr, ",")
	if len(parts) != 2 {
		return nil, models.Argumentf("Invalid circuit %q, expected site,circuit_name", circuitStr)
	}
	site, name := parts[0], parts[1]

	if err := p.CheckSite(ctx, site); err != nil {
		return nil, err
	}

	res, err := p.api.GetCircuits(ctx)
	if err != nil {
		return nil, err
	}

	circuits := gjson.GetBytes(res, site)
	if !circuits.Exists() {
		return nil, models.Argumentf("No circuits for site %q", site)
	}

	var trajectories []string
	var found json.RawMessage
	circuits.ForEach(func(_, circuit gjson.Result) bool {
		traj := circuit.Get("trajectory_name").String()
		trajectories = append(trajectories, traj)
		if traj == name {
			found = json.RawMessage(circuit.Raw)
			return false
		}
		return true
	})
	if found == nil {
		return nil, models.Argumentf("Circuit %q not found in %s", name, models.QuoteList(trajectories))
	}
	return found, nil
}
