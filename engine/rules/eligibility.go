// Package rules holds the static combat tables: which kind may attack
// which, and the per-kind movement and detection constants.
package rules

import "github.com/nathoo/arena/types"

// pairing is keyed defender first, attacker second.
type pairing struct {
	defender types.Kind
	attacker types.Kind
}

// eligible lists every legal (defender, attacker) pairing. Anything
// absent is illegal.
var eligible = map[pairing]bool{
	{types.Dragon, types.Dragon}: true,
	{types.Dragon, types.Elf}:    true,
	{types.Dragon, types.Knight}: true,
	{types.Elf, types.Knight}:    true,
	{types.Knight, types.Dragon}: true,
	{types.Knight, types.Elf}:    true,
}

// MayFight reports whether an attacker of the given kind may legally
// start a fight against a defender of the given kind. It says nothing
// about who wins.
func MayFight(defender, attacker types.Kind) bool {
	return eligible[pairing{defender: defender, attacker: attacker}]
}
