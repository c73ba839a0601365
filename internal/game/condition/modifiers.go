package condition

// AimModifier returns the net aim change from all active conditions:
// bonuses minus penalties, each scaled by stack count.
func AimModifier(s *ActiveSet) int {
	total := 0
	for _, ac := range s.conditions {
		total += (ac.Def.AimBonus - ac.Def.AimPenalty) * ac.Stacks
	}
	return total
}

// DodgePenalty returns the total dodge reduction. Postcondition: >= 0.
func DodgePenalty(s *ActiveSet) int {
	total := 0
	for _, ac := range s.conditions {
		total += ac.Def.DodgePenalty * ac.Stacks
	}
	return total
}

// SpeedPenalty returns the total reduction applied to action-timer accumulation.
// Postcondition: >= 0.
func SpeedPenalty(s *ActiveSet) int {
	total := 0
	for _, ac := range s.conditions {
		total += ac.Def.SpeedPenalty * ac.Stacks
	}
	return total
}

// PulseDamage returns the damage-over-time owed at a pulse.
func PulseDamage(s *ActiveSet) int {
	total := 0
	for _, ac := range s.conditions {
		total += ac.Def.DamagePerPulse * ac.Stacks
	}
	return total
}

// PulseHeal returns the healing-over-time owed at a pulse.
func PulseHeal(s *ActiveSet) int {
	total := 0
	for _, ac := range s.conditions {
		total += ac.Def.HealPerPulse * ac.Stacks
	}
	return total
}

// SkipsTurn reports whether any active condition forfeits the unit's turn.
func SkipsTurn(s *ActiveSet) bool {
	for _, ac := range s.conditions {
		if ac.Def.SkipTurn {
			return true
		}
	}
	return false
}
