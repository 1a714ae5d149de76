package game

// StatusName 状态效果名称，同一实体上每个名称至多一个实例
type StatusName string

const (
	StatusShielded     StatusName = "shielded"     // Amount: 额外护甲
	StatusProtected    StatusName = "protected"    // Percent: 伤害减免比例
	StatusPoisoned     StatusName = "poisoned"     // Amount: 每回合伤害
	StatusRegenerating StatusName = "regenerating" // Amount: 每回合治疗
	StatusInvisible    StatusName = "invisible"
	StatusStunned      StatusName = "stunned"
	StatusEnraged      StatusName = "enraged" // Multiplier: 伤害倍率
	StatusUndying      StatusName = "undying" // Amount: 复活后的生命值
)

// StatusType 增益或减益
type StatusType string

const (
	Buff   StatusType = "buff"
	Debuff StatusType = "debuff"
)

// StatusEffect 挂在玩家或怪物身上的计时效果
type StatusEffect struct {
	Name       StatusName `json:"name"`
	Type       StatusType `json:"type"`
	Turns      int        `json:"turns"`
	Amount     int        `json:"amount,omitempty"`
	Percent    float64    `json:"percent,omitempty"`
	Multiplier float64    `json:"multiplier,omitempty"`
	SourceID   string     `json:"sourceId,omitempty"`
}

// StatusMap 以效果名为键，保证同名效果唯一
type StatusMap map[StatusName]*StatusEffect

// Has 效果是否处于激活状态
func (m StatusMap) Has(name StatusName) bool {
	e, ok := m[name]
	return ok && e.Turns > 0
}

// Snapshot 返回效果副本，便于广播给客户端
func (m StatusMap) Snapshot() []StatusEffect {
	out := make([]StatusEffect, 0, len(m))
	for _, name := range statusOrder {
		if e, ok := m[name]; ok {
			out = append(out, *e)
		}
	}
	return out
}

// statusOrder 固定遍历顺序，保证结算与广播的确定性
var statusOrder = []StatusName{
	StatusShielded,
	StatusProtected,
	StatusPoisoned,
	StatusRegenerating,
	StatusInvisible,
	StatusStunned,
	StatusEnraged,
	StatusUndying,
}

// StatusOrder 返回效果名的确定性遍历顺序
func StatusOrder() []StatusName { return statusOrder }
