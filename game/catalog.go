package game

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/abilities.yaml
var defaultCatalogYAML []byte

type catalogFile struct {
	Abilities []Ability `yaml:"abilities"`
}

// Catalog 只读技能目录，按 ID 查找
type Catalog struct {
	byID  map[string]*Ability
	order []string
}

// DefaultCatalog 加载内置的技能目录
func DefaultCatalog() (*Catalog, error) {
	return LoadCatalog(bytes.NewReader(defaultCatalogYAML))
}

// LoadCatalogFile 从 YAML 文件加载技能目录
func LoadCatalogFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	defer f.Close()
	c, err := LoadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// LoadCatalog 解码并校验技能目录：ID 唯一、效果必填、种族技能必须声明种族
func LoadCatalog(r io.Reader) (*Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if len(file.Abilities) == 0 {
		return nil, fmt.Errorf("catalog has no abilities")
	}

	c := &Catalog{byID: make(map[string]*Ability, len(file.Abilities))}
	for i := range file.Abilities {
		a := file.Abilities[i]
		a.ID = strings.TrimSpace(a.ID)
		if a.ID == "" {
			return nil, fmt.Errorf("ability #%d missing 'id'", i)
		}
		if _, exists := c.byID[a.ID]; exists {
			return nil, fmt.Errorf("duplicate ability id '%s'", a.ID)
		}
		if a.Effect.Effect == nil {
			return nil, fmt.Errorf("ability '%s' missing 'effect'", a.ID)
		}
		if len(a.Targets) == 0 {
			return nil, fmt.Errorf("ability '%s' declares no targets", a.ID)
		}
		switch a.Category {
		case CategoryAttack, CategoryHeal, CategoryDefense, CategorySpecial:
			if len(a.Classes) == 0 {
				return nil, fmt.Errorf("ability '%s' has no classes", a.ID)
			}
			for _, cl := range a.Classes {
				if _, ok := classTraits[cl]; !ok {
					return nil, fmt.Errorf("ability '%s': unknown class '%s'", a.ID, cl)
				}
			}
		case CategoryRacial:
			if _, ok := raceTraits[a.Race]; !ok {
				return nil, fmt.Errorf("racial ability '%s': unknown race '%s'", a.ID, a.Race)
			}
		default:
			return nil, fmt.Errorf("ability '%s': unknown category '%s'", a.ID, a.Category)
		}
		if a.UnlockLevel < 1 {
			a.UnlockLevel = 1
		}
		if a.Name == "" {
			a.Name = a.ID
		}
		c.byID[a.ID] = &a
		c.order = append(c.order, a.ID)
	}
	return c, nil
}

// Get 按 ID 查找技能
func (c *Catalog) Get(id string) (*Ability, bool) {
	a, ok := c.byID[id]
	return a, ok
}

// All 按目录声明顺序返回全部技能
func (c *Catalog) All() []*Ability {
	out := make([]*Ability, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// UnlockedFor 返回职业在指定等级可用的职业技能 ID（按解锁等级、ID 排序）
func (c *Catalog) UnlockedFor(class Class, level int) []string {
	var list []*Ability
	for _, id := range c.order {
		a := c.byID[id]
		if a.IsRacial() || !a.AvailableTo(class) || a.UnlockLevel > level {
			continue
		}
		list = append(list, a)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].UnlockLevel < list[j].UnlockLevel })
	ids := make([]string, 0, len(list))
	for _, a := range list {
		ids = append(ids, a.ID)
	}
	return ids
}

// RacialFor 返回种族技能
func (c *Catalog) RacialFor(race Race) (*Ability, bool) {
	for _, id := range c.order {
		a := c.byID[id]
		if a.IsRacial() && a.Race == race {
			return a, true
		}
	}
	return nil, false
}

func marshalWithKind(kind string, v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	fields["kind"] = kind
	return json.Marshal(fields)
}
