package experiment

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/iot-lab/iotlab-cli/pkg/models"
	"github.com/iot-lab/iotlab-cli/pkg/utils"
)

const (
	TypePhysical = "physical"
	TypeAlias    = "alias"
)

// AliasArchis are the architectures accepted for alias nodes. 'custom:'
// accepts anything after it.
var AliasArchis = []string{
	"wsn430:cc1101", "wsn430:cc2420",
	"m3:at86rf231", "a8:at86rf231",
	"des:wifi-cc1100", "custom:.*",
}

var aliasArchiRe = func() *regexp.Regexp {
	groups := make([]string, len(AliasArchis))
	for i, archi := range AliasArchis {
		groups[i] = "(" + archi + ")"
	}
	return regexp.MustCompile("^(" + strings.Join(groups, "|") + ")")
}()

// ValidAliasArchi tells if archi is an accepted alias architecture.
func ValidAliasArchi(archi string) bool {
	return aliasArchiRe.MatchString(archi)
}

type AliasProperties struct {
	Archi  string `json:"archi"`
	Mobile bool   `json:"mobile"`
	Site   string `json:"site"`
}

// AliasNodes selects NbNodes nodes by properties instead of by name.
type AliasNodes struct {
	Alias      string          `json:"alias"`
	NbNodes    int             `json:"nbnodes"`
	Properties AliasProperties `json:"properties"`
}

// NewAliasNodes validates archi and nbnodes. The alias identifier is left
// empty and assigned when added to an Experiment.
func NewAliasNodes(nbnodes int, site, archi string, mobile bool) (*AliasNodes, error) {
	if !ValidAliasArchi(archi) {
		return nil, models.Argumentf("%q not in %s", archi, models.QuoteList(AliasArchis))
	}
	if nbnodes <= 0 {
		return nil, models.Argumentf("Invalid number of nodes: %d", nbnodes)
	}
	return &AliasNodes{
		NbNodes: nbnodes,
		Properties: AliasProperties{
			Archi:  archi,
			Site:   site,
			Mobile: mobile,
		},
	}, nil
}

// Resources is one group of nodes sharing the same firmware, profile and
// other associations.
type Resources struct {
	Type         string
	Nodes        []string
	Alias        *AliasNodes
	Firmware     string
	Profile      string
	Associations map[string]string
}

// PhysicalResources selects nodes by their network address.
func PhysicalResources(nodes []string, firmware, profile string, associations map[string]string) Resources {
	return Resources{
		Type:         TypePhysical,
		Nodes:        nodes,
		Firmware:     firmware,
		Profile:      profile,
		Associations: associations,
	}
}

// AliasResources selects nodes by properties.
func AliasResources(alias *AliasNodes, firmware, profile string, associations map[string]string) Resources {
	return Resources{
		Type:         TypeAlias,
		Alias:        alias,
		Firmware:     firmware,
		Profile:      profile,
		Associations: associations,
	}
}

// Association binds a value, like a firmware name, to nodes.
type Association struct {
	Type  string
	Value string
	Nodes []string
}

// MarshalJSON renders {"<type>name": value, "nodes": [...]}.
func (a *Association) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		a.Type + "name": a.Value,
		"nodes":         a.Nodes,
	})
}

func (a *Association) extend(nodes []string) {
	a.Nodes = utils.UniqueSortedNodes(append(a.Nodes, nodes...))
}

// addAssociation merges into an existing association with the same value,
// or inserts a new one keeping the list sorted by value.
func addAssociation(list []*Association, assoc *Association) []*Association {
	for _, existing := range list {
		if existing.Value == assoc.Value {
			existing.extend(assoc.Nodes)
			return list
		}
	}
	list = append(list, assoc)
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Value < list[j].Value
	})
	return list
}

// Experiment is the description sent to the scheduler.
type Experiment struct {
	Name        string
	Duration    int
	Reservation *int64
	Type        string

	physicalNodes []string
	aliasNodes    []*AliasNodes

	FirmwareAssociations []*Association
	ProfileAssociations  []*Association
	Associations         map[string][]*Association
}

// NewExperiment creates an empty description. A nil start time means as
// soon as possible.
func NewExperiment(name string, duration int, startTime *int64) *Experiment {
	return &Experiment{
		Name:        name,
		Duration:    duration,
		Reservation: startTime,
	}
}

func (e *Experiment) setType(expType string) error {
	if e.Type != "" && e.Type != expType {
		return models.Argumentf("Invalid experiment, should be only physical or only alias")
	}
	e.Type = expType
	return nil
}

// AddResources registers nodes and their associations.
func (e *Experiment) AddResources(res Resources) error {
	var assocNodes []string

	switch res.Type {
	case TypePhysical:
		if err := e.SetPhysicalNodes(res.Nodes); err != nil {
			return err
		}
		assocNodes = res.Nodes
	case TypeAlias:
		if res.Alias == nil {
			return models.Argumentf("Invalid alias resources: no alias nodes")
		}
		if err := e.SetAliasNodes(res.Alias); err != nil {
			return err
		}
		assocNodes = []string{res.Alias.Alias}
	default:
		return models.Argumentf("Invalid resources type %q", res.Type)
	}

	if res.Firmware != "" {
		e.addAssociation("firmware", filepath.Base(res.Firmware), assocNodes, false)
	}
	if res.Profile != "" {
		e.addAssociation("profile", res.Profile, assocNodes, false)
	}
	for assocType, value := range res.Associations {
		if value != "" {
			e.addAssociation(assocType, value, assocNodes, true)
		}
	}
	return nil
}

// SetPhysicalNodes adds nodes, which must not already be in the experiment.
func (e *Experiment) SetPhysicalNodes(nodes []string) error {
	if len(nodes) == 0 {
		return models.ErrEmptyNodes
	}
	if err := e.setType(TypePhysical); err != nil {
		return err
	}

	current := make(map[string]bool, len(e.physicalNodes))
	for _, node := range e.physicalNodes {
		current[node] = true
	}
	var intersect []string
	for _, node := range nodes {
		if current[node] {
			intersect = append(intersect, node)
		}
	}
	if len(intersect) > 0 {
		intersect = utils.UniqueSortedNodes(intersect)
		return models.Argumentf("Nodes specified multiple times %s", models.QuoteList(intersect))
	}

	e.physicalNodes = utils.UniqueSortedNodes(append(e.physicalNodes, nodes...))
	return nil
}

// SetAliasNodes adds alias. Its identifier is assigned from the number of
// aliases already present when empty.
func (e *Experiment) SetAliasNodes(alias *AliasNodes) error {
	if err := e.setType(TypeAlias); err != nil {
		return err
	}
	if alias.Alias == "" {
		alias.Alias = strconv.Itoa(len(e.aliasNodes) + 1)
	}
	e.aliasNodes = append(e.aliasNodes, alias)
	return nil
}

// Nodes returns the physical nodes addresses.
func (e *Experiment) Nodes() []string {
	return e.physicalNodes
}

// Aliases returns the alias nodes selections.
func (e *Experiment) Aliases() []*AliasNodes {
	return e.aliasNodes
}

func (e *Experiment) addAssociation(assocType, value string, nodes []string, optional bool) {
	assoc := &Association{
		Type:  assocType,
		Value: value,
		Nodes: utils.UniqueSortedNodes(nodes),
	}

	switch {
	case optional:
		if e.Associations == nil {
			e.Associations = map[string][]*Association{}
		}
		e.Associations[assocType] = addAssociation(e.Associations[assocType], assoc)
	case assocType == "firmware":
		e.FirmwareAssociations = addAssociation(e.FirmwareAssociations, assoc)
	case assocType == "profile":
		e.ProfileAssociations = addAssociation(e.ProfileAssociations, assoc)
	}
}

// Fields are declared in alphabetical order so the output matches sorted
// keys.
type experimentJSON struct {
	Associations         map[string][]*Association `json:"associations"`
	Duration             int                       `json:"duration"`
	FirmwareAssociations []*Association            `json:"firmwareassociations"`
	Name                 interface{}               `json:"name"`
	Nodes                interface{}               `json:"nodes"`
	ProfileAssociations  []*Association            `json:"profileassociations"`
	Reservation          *int64                    `json:"reservation"`
	Type                 interface{}               `json:"type"`
}

func (e *Experiment) MarshalJSON() ([]byte, error) {
	out := experimentJSON{
		Associations:         e.Associations,
		Duration:             e.Duration,
		FirmwareAssociations: e.FirmwareAssociations,
		ProfileAssociations:  e.ProfileAssociations,
		Reservation:          e.Reservation,
	}
	if e.Name != "" {
		out.Name = e.Name
	}
	if e.Type != "" {
		out.Type = e.Type
	}

	switch e.Type {
	case TypeAlias:
		out.Nodes = e.aliasNodes
	default:
		nodes := e.physicalNodes
		if nodes == nil {
			nodes = []string{}
		}
		out.Nodes = nodes
	}

	buf := &bytes.Buffer{}
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// FilesDict holds the files of a multipart upload by name.
type FilesDict map[string][]byte

// Set stores data under name. Storing different data under an existing
// name fails.
func (f FilesDict) Set(name string, data []byte) error {
	if existing, ok := f[name]; ok && !bytes.Equal(existing, data) {
		return models.Argumentf("Has different values for same key %q", name)
	}
	f[name] = data
	return nil
}

// AddFile reads path and stores it under its basename. An empty path is
// ignored.
func (f FilesDict) AddFile(path string) error {
	if path == "" {
		return nil
	}
	data, err := utils.ReadFile(path)
	if err != nil {
		return err
	}
	return f.Set(filepath.Base(path), data)
}
