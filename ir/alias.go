package ir

// AliasResult is spec.md §6's alias(...) return type.
type AliasResult int8

const (
	NoAlias AliasResult = iota
	MayAlias
)

// Alias is the conservative alias oracle spec.md §1 calls an external
// collaborator ("alias analysis (we call it)"). This is intentionally
// simple: two accesses are NoAlias only when their addresses are two
// distinct Param values, or two constant addresses whose byte ranges
// [addr, addr+size) do not overlap. Every other pair is MayAlias.
func Alias(addr1 *Value, size1 int64, addr2 *Value, size2 int64) AliasResult {
	if addr1 == addr2 {
		return MayAlias
	}
	if addr1 == nil || addr2 == nil {
		return MayAlias
	}
	// Two distinct Param values (distinct stack/register locations by
	// construction) never alias.
	if addr1.Op == OpParam && addr2.Op == OpParam {
		return NoAlias
	}
	// Two constant addresses alias only if their byte ranges overlap.
	if addr1.Op == OpConst && addr2.Op == OpConst {
		lo1, hi1 := addr1.AuxInt, addr1.AuxInt+size1
		lo2, hi2 := addr2.AuxInt, addr2.AuxInt+size2
		if hi1 <= lo2 || hi2 <= lo1 {
			return NoAlias
		}
	}
	return MayAlias
}
