package events

import (
	"go.uber.org/zap"

	"github.com/nathoo/arena/engine/state"
)

// LogObserver writes every outcome to a zap logger at debug level.
type LogObserver struct {
	log *zap.Logger
}

// NewLogObserver wraps log. A nil logger discards everything.
func NewLogObserver(log *zap.Logger) *LogObserver {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogObserver{log: log.Named("fight")}
}

func (l *LogObserver) OnFight(attacker *state.NPC, attackRoll int, defender *state.NPC, defenseRoll int, win bool) {
	if ce := l.log.Check(zap.DebugLevel, "fight resolved"); ce != nil {
		a, d := attacker.Snapshot(), defender.Snapshot()
		ce.Write(
			zap.Int("attacker", a.ID),
			zap.Stringer("attacker_kind", a.Kind),
			zap.Int("attack_roll", attackRoll),
			zap.Int("defender", d.ID),
			zap.Stringer("defender_kind", d.Kind),
			zap.Int("defense_roll", defenseRoll),
			zap.Bool("win", win),
		)
	}
}
