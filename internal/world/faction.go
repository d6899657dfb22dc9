package world

// Faction 陣營關係。Creatures carry a numeric faction id in static data
// which is mapped onto one of these symbols at load time.
type Faction uint8

const (
	FactionExile Faction = iota
	FactionDominion
	FactionHostile
	FactionNeutral
	FactionFriendly
)

func (f Faction) String() string {
	switch f {
	case FactionExile:
		return "exile"
	case FactionDominion:
		return "dominion"
	case FactionHostile:
		return "hostile"
	case FactionNeutral:
		return "neutral"
	case FactionFriendly:
		return "friendly"
	}
	return "unknown"
}

// IsHostile 判斷兩陣營是否敵對。neutral 與 friendly 對任何陣營皆不敵對；
// hostile 對 hostile 也敵對（野怪互咬是合法狀態）。
func IsHostile(a, b Faction) bool {
	switch a {
	case FactionExile:
		return b == FactionDominion || b == FactionHostile
	case FactionDominion:
		return b == FactionExile || b == FactionHostile
	case FactionHostile:
		return b == FactionExile || b == FactionDominion || b == FactionHostile
	}
	return false
}
