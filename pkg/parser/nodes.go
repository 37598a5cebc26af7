package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/iot-lab/iotlab-cli/pkg/models"
	"github.com/iot-lab/iotlab-cli/pkg/utils"
	"github.com/tidwall/gjson"
)

const DomainDNS = "iot-lab.info"

// Archis are the architectures of physical nodes.
var Archis = []string{"wsn430", "m3", "a8"}

// API is what node parsing needs from the REST client.
type API interface {
	GetSites(ctx context.Context) (json.RawMessage, error)
	GetCircuits(ctx context.Context) (json.RawMessage, error)
	GetExperimentInfo(ctx context.Context, expID int, option string) (json.RawMessage, error)
}

// Parser turns command line node selections into nodes lists. The sites
// list is fetched once from the server, on first use.
type Parser struct {
	api API

	sitesOnce sync.Once
	sites     []string
	sitesErr  error
}

func New(api API) *Parser {
	return &Parser{api: api}
}

// NewWithSites uses a fixed sites list and never queries the server for it.
func NewWithSites(api API, sites []string) *Parser {
	p := &Parser{api: api, sites: sites}
	p.sitesOnce.Do(func() {})
	return p
}

// Sites returns the testbed sites names.
func (p *Parser) Sites(ctx context.Context) ([]string, error) {
	p.sitesOnce.Do(func() {
		res, err := p.api.GetSites(ctx)
		if err != nil {
			p.sitesErr = err
			return
		}
		for _, site := range gjson.GetBytes(res, "items.#.site").Array() {
			p.sites = append(p.sites, site.String())
		}
	})
	return p.sites, p.sitesErr
}

// CheckSite fails if site is not a testbed site.
func (p *Parser) CheckSite(ctx context.Context, site string) error {
	sites, err := p.Sites(ctx)
	if err != nil {
		return err
	}
	for _, s := range sites {
		if s == site {
			return nil
		}
	}
	return models.Argumentf("Unknown site name %q", site)
}

// ExpandShortNodesList expands '1-5+6+8-12' to a list of node numbers.
func ExpandShortNodesList(nodesStr string) ([]int, error) {
	invalid := models.Argumentf("Invalid nodes list: %s ([0-9+-])", nodesStr)

	var nodes []int
	for _, part := range strings.Split(nodesStr, "+") {
		bounds := strings.Split(part, "-")
		switch len(bounds) {
		case 1:
			num, err := strconv.Atoi(bounds[0])
			if err != nil {
				return nil, invalid
			}
			nodes = append(nodes, num)
		case 2:
			first, err := strconv.Atoi(bounds[0])
			if err != nil {
				return nil, invalid
			}
			last, err := strconv.Atoi(bounds[1])
			if err != nil {
				return nil, invalid
			}
			// a range has at least two nodes
			if last <= first {
				return nil, invalid
			}
			for num := first; num <= last; num++ {
				nodes = append(nodes, num)
			}
		default:
			return nil, invalid
		}
	}
	return nodes, nil
}

// CheckArchi fails if archi is not a physical node architecture.
func CheckArchi(archi string) error {
	for _, a := range Archis {
		if a == archi {
			return nil
		}
	}
	return models.Argumentf("Invalid node archi: %q not in %s", archi, models.QuoteList(Archis))
}

// NodesIDList expands ('m3', '1-3') to ['m3-1', 'm3-2', 'm3-3'].
func NodesIDList(archi, nodesStr string) ([]string, error) {
	nums, err := ExpandShortNodesList(nodesStr)
	if err != nil {
		return nil, err
	}
	nodes := make([]string, len(nums))
	for i, num := range nums {
		nodes[i] = fmt.Sprintf("%s-%d", archi, num)
	}
	return nodes, nil
}

// NodesListFromInfo checks archi and nodesStr and returns the nodes
// network addresses.
//
//	NodesListFromInfo("grenoble", "m3", "1-2+4")
//	=> [m3-1.grenoble.iot-lab.info m3-2.grenoble.iot-lab.info m3-4.grenoble.iot-lab.info]
func NodesListFromInfo(site, archi, nodesStr string) ([]string, error) {
	if err := CheckArchi(archi); err != nil {
		return nil, err
	}
	ids, err := NodesIDList(archi, nodesStr)
	if err != nil {
		return nil, err
	}
	urls := make([]string, len(ids))
	for i, id := range ids {
		urls[i] = fmt.Sprintf("%s.%s.%s", id, site, DomainDNS)
	}
	return urls, nil
}

// NodesListFromStr converts 'grenoble,m3,1-34+72' to nodes addresses after
// checking the site exists.
func (p *Parser) NodesListFromStr(ctx context.Context, nodesListStr string) ([]string, error) {
	parts := strings.Split(nodesListStr, ",")
	if len(parts) != 3 {
		return nil, models.Argumentf("Invalid number of argument in nodes list: %q", nodesListStr)
	}
	site, archi, nodesStr := parts[0], parts[1], parts[2]

	if err := p.CheckSite(ctx, site); err != nil {
		return nil, err
	}
	return NodesListFromInfo(site, archi, nodesStr)
}

// ListNodes returns the nodes a command applies to. With nodesLists, their
// nodes. With excludeLists, the experiment nodes minus the excluded ones.
// Without both, an empty list, meaning all nodes.
func (p *Parser) ListNodes(ctx context.Context, expID int, nodesLists, excludeLists [][]string) ([]string, error) {
	var nodes []string

	switch {
	case nodesLists != nil:
		for _, list := range nodesLists {
			nodes = append(nodes, list...)
		}
	case excludeLists != nil:
		excluded := map[string]bool{}
		for _, list := range excludeLists {
			for _, node := range list {
				excluded[node] = true
			}
		}
		expNodes, err := p.experimentNodes(ctx, expID)
		if err != nil {
			return nil, err
		}
		for _, node := range expNodes {
			if !excluded[node] {
				nodes = append(nodes, node)
			}
		}
	default:
		return []string{}, nil
	}

	return utils.UniqueSortedNodes(nodes), nil
}

func (p *Parser) experimentNodes(ctx context.Context, expID int) ([]string, error) {
	res, err := p.api.GetExperimentInfo(ctx, expID, "resources")
	if err != nil {
		return nil, err
	}
	var nodes []string
	for _, addr := range gjson.GetBytes(res, "items.#.network_address").Array() {
		nodes = append(nodes, addr.String())
	}
	return nodes, nil
}
