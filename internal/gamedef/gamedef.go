// Package gamedef loads game definitions: a game.hcl file naming a compiled-in
// game implementation together with its name, seat cap and zone layout.
package gamedef

import (
	"errors"
	"fmt"
	"maps"
	rand "math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/deckr/internal/game"
	"github.com/lox/deckr/internal/randutil"
)

// ErrInvalidDefinition is returned for unreadable or incomplete definitions.
var ErrInvalidDefinition = errors.New("Invalid game definition")

// DefaultName is used when a definition does not name its game.
const DefaultName = "Unnamed Game"

// FileName is the definition file looked up inside a definition directory.
const FileName = "game.hcl"

// Constructor builds a fresh game instance from its configuration and a
// private random source.
type Constructor func(cfg game.Config, rng *rand.Rand) (*game.Game, error)

// Catalog maps the game key of a definition to its implementation.
type Catalog map[string]Constructor

// Names returns the catalog keys, sorted.
func (c Catalog) Names() []string {
	return slices.Sorted(maps.Keys(c))
}

// File is the decoded form of game.hcl.
type File struct {
	Name        string      `hcl:"name,optional"`
	Game        string      `hcl:"game,optional"`
	MaxPlayers  int         `hcl:"max_players,optional"`
	Zones       []ZoneBlock `hcl:"zone,block"`
	PlayerZones []ZoneBlock `hcl:"player_zone,block"`
}

// ZoneBlock describes one zone of a definition.
type ZoneBlock struct {
	Name         string         `hcl:"name,label"`
	Multiplicity int            `hcl:"multiplicity,optional"`
	Attributes   hcl.Expression `hcl:"attributes,optional"`
}

// Definition is a loaded game type. The registry only reads Name and calls
// Factory.
type Definition struct {
	Name    string
	Path    string
	Game    string
	Config  game.Config
	Factory func() (*game.Game, error)
}

// Loader resolves definitions against a catalog and hands every instance its
// own random source derived from Seed.
type Loader struct {
	catalog Catalog

	mu  sync.Mutex
	rng *rand.Rand
}

// NewLoader creates a loader. Instances created from the same seed shuffle
// identically.
func NewLoader(catalog Catalog, seed int64) *Loader {
	return &Loader{catalog: catalog, rng: randutil.New(seed)}
}

// Catalog returns the catalog the loader resolves against.
func (l *Loader) Catalog() Catalog {
	return l.catalog
}

// Load reads the definition at path: a directory containing game.hcl or the
// file itself.
func (l *Loader) Load(path string) (*Definition, error) {
	filename := path
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	if info.IsDir() {
		filename = filepath.Join(path, FileName)
	}
	src, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDefinition, err)
	}
	def, err := l.Parse(src, filename)
	if err != nil {
		return nil, err
	}
	def.Path = path
	return def, nil
}

// Parse decodes a definition from HCL source.
func (l *Loader) Parse(src []byte, filename string) (*Definition, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDefinition, diags.Error())
	}

	var f File
	if diags := gohcl.DecodeBody(file.Body, nil, &f); diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDefinition, diags.Error())
	}

	if f.Game == "" {
		return nil, fmt.Errorf("%w: missing required attribute \"game\"", ErrInvalidDefinition)
	}
	ctor, ok := l.catalog[f.Game]
	if !ok {
		return nil, fmt.Errorf("%w: unknown game %q", ErrInvalidDefinition, f.Game)
	}
	if f.MaxPlayers < 0 {
		return nil, fmt.Errorf("%w: max_players must not be negative", ErrInvalidDefinition)
	}
	if f.Name == "" {
		f.Name = DefaultName
	}

	gameZones, err := zoneSpecs(f.Zones)
	if err != nil {
		return nil, err
	}
	playerZones, err := zoneSpecs(f.PlayerZones)
	if err != nil {
		return nil, err
	}
	cfg := game.Config{
		MaxPlayers:  f.MaxPlayers,
		GameZones:   gameZones,
		PlayerZones: playerZones,
	}

	return &Definition{
		Name:   f.Name,
		Game:   f.Game,
		Config: cfg,
		Factory: func() (*game.Game, error) {
			return ctor(cfg, l.newRand())
		},
	}, nil
}

func (l *Loader) newRand() *rand.Rand {
	l.mu.Lock()
	defer l.mu.Unlock()
	return randutil.New(l.rng.Int64())
}

func zoneSpecs(blocks []ZoneBlock) ([]game.ZoneSpec, error) {
	specs := make([]game.ZoneSpec, 0, len(blocks))
	seen := make(map[string]bool, len(blocks))
	for _, b := range blocks {
		if seen[b.Name] {
			return nil, fmt.Errorf("%w: duplicate zone %q", ErrInvalidDefinition, b.Name)
		}
		seen[b.Name] = true
		if b.Multiplicity < 0 {
			return nil, fmt.Errorf("%w: zone %q: multiplicity must not be negative", ErrInvalidDefinition, b.Name)
		}
		attrs, err := zoneAttributes(b)
		if err != nil {
			return nil, err
		}
		specs = append(specs, game.ZoneSpec{
			Name:         b.Name,
			Multiplicity: b.Multiplicity,
			Attributes:   attrs,
		})
	}
	return specs, nil
}

func zoneAttributes(b ZoneBlock) (map[string]any, error) {
	if b.Attributes == nil {
		return nil, nil
	}
	val, diags := b.Attributes.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: zone %q: %s", ErrInvalidDefinition, b.Name, diags.Error())
	}
	if val.IsNull() {
		return nil, nil
	}
	converted, err := fromCty(val)
	if err != nil {
		return nil, fmt.Errorf("%w: zone %q: %v", ErrInvalidDefinition, b.Name, err)
	}
	attrs, ok := converted.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: zone %q: attributes must be an object", ErrInvalidDefinition, b.Name)
	}
	return attrs, nil
}
