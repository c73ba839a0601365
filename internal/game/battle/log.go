package battle

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/geom"
)

// Action names the kind of event a log entry records.
type Action string

const (
	ActDeploy           Action = "deploy"
	ActStranded         Action = "stranded"
	ActJam              Action = "jam"
	ActBuff             Action = "buff"
	ActAttack           Action = "attack"
	ActMelee            Action = "melee"
	ActGrenade          Action = "grenade"
	ActSplash           Action = "splash"
	ActReload           Action = "reload"
	ActSwitch           Action = "switch"
	ActMove             Action = "move"
	ActRetreat          Action = "retreat"
	ActReposition       Action = "reposition"
	ActWait             Action = "wait"
	ActHeal             Action = "heal"
	ActDamage           Action = "damage"
	ActDisarm           Action = "disarm"
	ActStatus           Action = "status"
	ActStatusEnd        Action = "status_end"
	ActSkill            Action = "skill"
	ActRevive           Action = "revive"
	ActVehicleDestroyed Action = "vehicle_destroyed"
	ActDeath            Action = "death"
)

// Entry is one immutable record of the battle log. Time is the tick the
// event happened on. Entries that change a unit's equipped weapon or its ammo
// carry WeaponID.
type Entry struct {
	Time       int               `json:"time"`
	ActorID    string            `json:"actorId"`
	ActorName  string            `json:"actorName"`
	Action     Action            `json:"action"`
	TargetID   string            `json:"targetId,omitempty"`
	TargetName string            `json:"targetName,omitempty"`
	Damage     int               `json:"damage,omitempty"`
	Heal       int               `json:"heal,omitempty"`
	TargetPos  *geom.Vec2        `json:"targetPosition,omitempty"`
	Crit       bool              `json:"crit,omitempty"`
	Miss       bool              `json:"miss,omitempty"`
	WeaponID   string            `json:"weaponId,omitempty"`
	Message    string            `json:"message,omitempty"`
	Data       map[string]string `json:"data,omitempty"`
}

// String renders the entry as one human-readable line.
func (e Entry) String() string {
	s := fmt.Sprintf("[%5d] %s %s", e.Time, e.ActorName, e.Action)
	if e.TargetName != "" {
		s += " -> " + e.TargetName
	}
	if e.WeaponID != "" {
		s += " (" + e.WeaponID + ")"
	}
	switch {
	case e.Miss:
		s += " miss"
	case e.Damage > 0:
		s += fmt.Sprintf(" %d dmg", e.Damage)
	}
	if e.Crit {
		s += " CRIT"
	}
	if e.Heal > 0 {
		s += fmt.Sprintf(" +%d hp", e.Heal)
	}
	if e.Message != "" {
		s += ": " + e.Message
	}
	return s
}

// Log is the append-only, time-ordered record of a battle.
type Log struct {
	entries []Entry
	logger  *zap.Logger
}

// NewLog returns an empty Log that mirrors every append to logger at debug level.
func NewLog(logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{logger: logger}
}

// Append records e.
//
// Precondition: e.Time is not lower than the last appended entry's Time.
func (l *Log) Append(e Entry) {
	if n := len(l.entries); n > 0 && e.Time < l.entries[n-1].Time {
		panic(fmt.Sprintf("battle: Log.Append: time went backwards (%d after %d)", e.Time, l.entries[n-1].Time))
	}
	l.entries = append(l.entries, e)
	l.logger.Debug("battle event",
		zap.Int("time", e.Time),
		zap.String("actor", e.ActorID),
		zap.String("action", string(e.Action)),
		zap.String("target", e.TargetID),
		zap.String("weapon", e.WeaponID),
		zap.Int("damage", e.Damage),
		zap.Int("heal", e.Heal),
	)
}

// Len returns the number of entries.
func (l *Log) Len() int { return len(l.entries) }

// Entries returns a copy of the recorded entries.
func (l *Log) Entries() []Entry {
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}
