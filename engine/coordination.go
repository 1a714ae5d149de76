package engine

import "warlockarena/game"

// CoordinationKind 协同按伤害与治疗分别统计
type CoordinationKind string

const (
	CoordinateDamage  CoordinationKind = "damage"
	CoordinateHealing CoordinationKind = "healing"
)

// CoordinationInfo 同一回合内针对同一目标的协同情况
type CoordinationInfo struct {
	TargetID   string           `json:"targetId"`
	Kind       CoordinationKind `json:"kind"`
	Actors     []game.PlayerID  `json:"actors"`
	Multiplier float64          `json:"multiplier"`
}

// Coordinated 至少两名玩家参与才算协同
func (c CoordinationInfo) Coordinated() bool { return len(c.Actors) >= 2 }

// Coordination 以 目标|类别 为键
type Coordination map[string]CoordinationInfo

func coordKey(target string, kind CoordinationKind) string { return target + "|" + string(kind) }

// Bonus 返回某目标某类别的倍率，未协同时为 1
func (c Coordination) Bonus(target string, kind CoordinationKind) float64 {
	if info, ok := c[coordKey(target, kind)]; ok && info.Coordinated() {
		return info.Multiplier
	}
	return 1
}

func coordinationKind(e game.Effect) (CoordinationKind, bool) {
	switch e.(type) {
	case game.Damage, game.Poison:
		return CoordinateDamage, true
	case game.Heal:
		return CoordinateHealing, true
	}
	return "", false
}

// ComputeCoordination 在任何行动生效前一次性计算协同倍率：
// n 名不同玩家作用于同一目标时，倍率为 1 + perExtra×(n-1)，所有参与者相同
func ComputeCoordination(g *game.Game, catalog *game.Catalog, actions []game.PendingAction, perExtra float64) Coordination {
	coord := make(Coordination)
	seen := make(map[string]map[game.PlayerID]bool)
	for _, a := range actions {
		actor, ok := g.Player(a.ActorID)
		if !ok || !actor.Alive {
			continue
		}
		ability, ok := catalog.Get(a.AbilityID)
		if !ok || ability.IsRacial() {
			continue
		}
		kind, ok := coordinationKind(ability.Effect.Effect)
		if !ok {
			continue
		}
		target := a.TargetID
		if target == "" {
			target = string(actor.ID)
		}
		key := coordKey(target, kind)
		if seen[key] == nil {
			seen[key] = make(map[game.PlayerID]bool)
		}
		if seen[key][actor.ID] {
			continue
		}
		seen[key][actor.ID] = true
		info := coord[key]
		info.TargetID, info.Kind = target, kind
		info.Actors = append(info.Actors, actor.ID)
		coord[key] = info
	}
	for key, info := range coord {
		info.Multiplier = 1 + perExtra*float64(len(info.Actors)-1)
		coord[key] = info
	}
	return coord
}
