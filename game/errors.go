package game

// Reason 行动失败原因，写入日志条目 details.reason
type Reason string

const (
	ReasonInvalidActor       Reason = "invalid_actor"
	ReasonActorDead          Reason = "actor_dead"
	ReasonStunned            Reason = "stunned"
	ReasonUnknownAbility     Reason = "unknown_ability"
	ReasonAbilityLocked      Reason = "ability_locked"
	ReasonOnCooldown         Reason = "on_cooldown"
	ReasonInvalidTarget      Reason = "invalid_target"
	ReasonTargetDead         Reason = "target_dead"
	ReasonWrongTargetKind    Reason = "wrong_target_kind"
	ReasonWrongRace          Reason = "wrong_race"
	ReasonNoUsesLeft         Reason = "no_uses_left"
	ReasonInsufficientHealth Reason = "insufficient_health"
	ReasonEvaded             Reason = "evaded"
	ReasonInternal           Reason = "internal_error"
)

// ActionError 带原因码的行动错误，按 Reason 比较
type ActionError struct {
	Reason  Reason
	Message string
}

func (e *ActionError) Error() string {
	if e.Message == "" {
		return string(e.Reason)
	}
	return string(e.Reason) + ": " + e.Message
}

func (e *ActionError) Is(target error) bool {
	if t, ok := target.(*ActionError); ok {
		return e.Reason == t.Reason
	}
	return false
}

// Fail 构造行动错误
func Fail(reason Reason, message string) *ActionError {
	return &ActionError{Reason: reason, Message: message}
}

var (
	ErrTargetDead = Fail(ReasonTargetDead, "")
	ErrEvaded     = Fail(ReasonEvaded, "")
)
