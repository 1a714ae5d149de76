package game

import "strings"

// PlayerID 表示玩家唯一标识
type PlayerID string

// MonsterID 怪物在目标选择中的固定标识
const MonsterID = "monster"

// Race 玩家种族，决定基础属性与种族技能
type Race string

const (
	RaceHuman    Race = "human"
	RaceDwarf    Race = "dwarf"
	RaceElf      Race = "elf"
	RaceOrc      Race = "orc"
	RaceSatyr    Race = "satyr"
	RaceSkeleton Race = "skeleton"
)

// Class 玩家职业，决定可解锁的职业技能
type Class string

const (
	ClassWarrior    Class = "warrior"
	ClassPyromancer Class = "pyromancer"
	ClassWizard     Class = "wizard"
	ClassAssassin   Class = "assassin"
	ClassPriest     Class = "priest"
	ClassAlchemist  Class = "alchemist"
)

// Traits 种族或职业对基础属性的修正
type Traits struct {
	HP     float64 // 生命上限倍率
	Armor  int     // 护甲加成
	Damage float64 // 伤害倍率
}

var raceTraits = map[Race]Traits{
	RaceHuman:    {HP: 1.0, Armor: 0, Damage: 1.0},
	RaceDwarf:    {HP: 1.1, Armor: 1, Damage: 0.9},
	RaceElf:      {HP: 0.9, Armor: 0, Damage: 1.1},
	RaceOrc:      {HP: 1.2, Armor: 0, Damage: 1.0},
	RaceSatyr:    {HP: 1.0, Armor: 0, Damage: 1.0},
	RaceSkeleton: {HP: 0.9, Armor: 1, Damage: 1.0},
}

var classTraits = map[Class]Traits{
	ClassWarrior:    {HP: 1.2, Armor: 2, Damage: 1.0},
	ClassPyromancer: {HP: 0.9, Armor: 0, Damage: 1.2},
	ClassWizard:     {HP: 0.9, Armor: 0, Damage: 1.1},
	ClassAssassin:   {HP: 1.0, Armor: 0, Damage: 1.2},
	ClassPriest:     {HP: 1.0, Armor: 1, Damage: 0.8},
	ClassAlchemist:  {HP: 1.0, Armor: 0, Damage: 1.0},
}

// ParseRace 解析客户端传入的种族名（忽略大小写）
func ParseRace(s string) (Race, bool) {
	r := Race(strings.ToLower(strings.TrimSpace(s)))
	_, ok := raceTraits[r]
	return r, ok
}

// ParseClass 解析客户端传入的职业名（忽略大小写）
func ParseClass(s string) (Class, bool) {
	c := Class(strings.ToLower(strings.TrimSpace(s)))
	_, ok := classTraits[c]
	return c, ok
}

func RaceTraits(r Race) Traits   { return raceTraits[r] }
func ClassTraits(c Class) Traits { return classTraits[c] }

// Vitals 玩家与怪物共享的生命体征与状态效果
type Vitals struct {
	HP      int
	MaxHP   int
	Armor   int
	Alive   bool
	Effects StatusMap
}

// Combatant 可作为技能目标的实体（玩家或怪物）
type Combatant interface {
	TargetID() string
	Label() string
	State() *Vitals
}

// RacialState 种族技能的使用记录
type RacialState struct {
	Uses     int // 本局已使用次数
	Cooldown int // 剩余冷却回合
}

// Player 房间内的玩家实体（服务端权威状态）
type Player struct {
	ID   PlayerID
	Name string
	Vitals

	Race      Race
	Class     Class
	Level     int
	IsWarlock bool

	DamageMod float64
	Abilities []string       // 当前等级已解锁的职业技能
	Cooldowns map[string]int // 技能 ID -> 剩余冷却回合
	Racial    RacialState

	Pending       *PendingAction // 本回合提交的职业行动
	PendingRacial *PendingAction // 本回合提交的种族行动
}

// NewPlayer 创建玩家，初始化所有 map，避免 nil map 写入
func NewPlayer(id PlayerID, name string, race Race, class Class) *Player {
	if name == "" {
		name = string(id)
	}
	return &Player{
		ID:        id,
		Name:      name,
		Vitals:    Vitals{Alive: true, Effects: make(StatusMap)},
		Race:      race,
		Class:     class,
		Level:     1,
		DamageMod: 1,
		Cooldowns: make(map[string]int),
	}
}

func (p *Player) TargetID() string { return string(p.ID) }
func (p *Player) Label() string    { return p.Name }
func (p *Player) State() *Vitals   { return &p.Vitals }

// HasAbility 技能是否已解锁
func (p *Player) HasAbility(id string) bool {
	for _, a := range p.Abilities {
		if a == id {
			return true
		}
	}
	return false
}

// Monster 全体玩家共同面对的怪物
type Monster struct {
	Vitals
	Level  int
	Age    int // 自上次重生以来存活的回合数
	Damage int // 当前等级的基础伤害
}

func (m *Monster) TargetID() string { return MonsterID }
func (m *Monster) Label() string    { return "Monster" }
func (m *Monster) State() *Vitals   { return &m.Vitals }

// PendingAction 玩家在本回合选择的技能与目标，结算后销毁
type PendingAction struct {
	ActorID   PlayerID
	AbilityID string
	TargetID  string
	Seq       int  // 提交顺序，同优先级时用于稳定排序
	Racial    bool // 经种族槽位提交
}
