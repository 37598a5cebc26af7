package parser

import (
	"context"
	"strconv"
	"strings"

	"github.com/iot-lab/iotlab-cli/pkg/experiment"
	"github.com/iot-lab/iotlab-cli/pkg/models"
)

// ResourcesFromStr parses an experiment resources selection:
//
//	physical: site,archi,nodes[,firmware[,profile]]   grenoble,m3,1-5+8,tuto.elf,battery
//	alias:    nb,properties[,firmware[,profile]]      5,archi=m3:at86rf231+site=grenoble,tuto.elf
//
// Alias properties are '+' separated key=value pairs among archi, site and
// mobile.
func (p *Parser) ResourcesFromStr(ctx context.Context, resStr string) (experiment.Resources, error) {
	parts := strings.Split(resStr, ",")

	if len(parts) >= 2 && isNumber(parts[0]) && strings.Contains(parts[1], "=") {
		return aliasResourcesFromParts(resStr, parts)
	}
	return p.physicalResourcesFromParts(ctx, resStr, parts)
}

func isNumber(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

func (p *Parser) physicalResourcesFromParts(ctx context.Context, resStr string, parts []string) (experiment.Resources, error) {
	if len(parts) < 3 || len(parts) > 5 {
		return experiment.Resources{}, models.Argumentf(
			"Invalid number of argument in experiment resources: %q, expected site,archi,nodes[,firmware[,profile]]", resStr)
	}

	nodes, err := p.NodesListFromStr(ctx, strings.Join(parts[:3], ","))
	if err != nil {
		return experiment.Resources{}, err
	}
	firmware, profile := optionalParts(parts[3:])
	return experiment.PhysicalResources(nodes, firmware, profile, nil), nil
}

func aliasResourcesFromParts(resStr string, parts []string) (experiment.Resources, error) {
	if len(parts) > 4 {
		return experiment.Resources{}, models.Argumentf(
			"Invalid number of argument in experiment resources: %q, expected nb,properties[,firmware[,profile]]", resStr)
	}

	nbnodes, _ := strconv.Atoi(parts[0])
	props, err := parseProperties(parts[1])
	if err != nil {
		return experiment.Resources{}, err
	}

	mobile := false
	if value, ok := props["mobile"]; ok {
		mobile, err = strconv.ParseBool(value)
		if err != nil {
			return experiment.Resources{}, models.Argumentf("Invalid mobile property: %q", value)
		}
	}
	if props["archi"] == "" || props["site"] == "" {
		return experiment.Resources{}, models.Argumentf("Alias properties require archi and site: %q", parts[1])
	}

	alias, err := experiment.NewAliasNodes(nbnodes, props["site"], props["archi"], mobile)
	if err != nil {
		return experiment.Resources{}, err
	}
	firmware, profile := optionalParts(parts[2:])
	return experiment.AliasResources(alias, firmware, profile, nil), nil
}

func parseProperties(propsStr string) (map[string]string, error) {
	props := map[string]string{}
	for _, prop := range strings.Split(propsStr, "+") {
		kv := strings.SplitN(prop, "=", 2)
		if len(kv) != 2 {
			return nil, models.Argumentf("Invalid property %q, expected key=value", prop)
		}
		switch kv[0] {
		case "archi", "site", "mobile":
			props[kv[0]] = kv[1]
		default:
			return nil, models.Argumentf("Invalid property %q, should be in ['archi', 'site', 'mobile']", kv[0])
		}
	}
	return props, nil
}

// optionalParts returns firmware and profile, empty when absent.
func optionalParts(parts []string) (firmware, profile string) {
	if len(parts) > 0 {
		firmware = parts[0]
	}
	if len(parts) > 1 {
		profile = parts[1]
	}
	return firmware, profile
}
