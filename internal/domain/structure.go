package domain

import "sort"

const (
	// StrontiumClathratesTypeID lives in the same bay as fuel blocks
	// but is burned only by reinforcement, never by normal operation.
	StrontiumClathratesTypeID int32 = 16275

	// FuelBlocksPerHour is the burn rate of the single supported
	// tower class.
	FuelBlocksPerHour int64 = 10
)

// FuelBayItem is one stack in a starbase fuel bay as reported by ESI.
type FuelBayItem struct {
	TypeID   int32 `json:"type_id"`
	Quantity int64 `json:"quantity"`
}

// Structure is one monitored starbase for a single run. Structures are
// rebuilt from provider data every run; only StarbaseID -> state
// survives between runs.
type Structure struct {
	StarbaseID  int64
	SystemID    int32
	TypeID      int32
	DisplayName string
	FuelBlocks  int64
}

// NewStructure builds a Structure from raw provider data. The fuel
// count is taken from the first bay stack that is not strontium; an
// empty or strontium-only bay means zero fuel.
func NewStructure(starbaseID int64, systemID, typeID int32, displayName string, bay []FuelBayItem) Structure {
	var blocks int64
	for _, item := range bay {
		if item.TypeID == StrontiumClathratesTypeID {
			continue
		}
		blocks = item.Quantity
		break
	}
	return Structure{
		StarbaseID:  starbaseID,
		SystemID:    systemID,
		TypeID:      typeID,
		DisplayName: displayName,
		FuelBlocks:  blocks,
	}
}

// HoursRemaining is whole hours of fuel left, floored.
func (s Structure) HoursRemaining() int64 {
	return s.FuelBlocks / FuelBlocksPerHour
}

// DaysRemaining is HoursRemaining as fractional days, not rounded.
func (s Structure) DaysRemaining() float64 {
	return float64(s.HoursRemaining()) / 24.0
}

// FuelState classifies the structure's remaining fuel.
func (s Structure) FuelState(t Thresholds) State {
	return t.Classify(s.DaysRemaining())
}

// StateChange records one starbase whose state moved since the last
// persisted observation.
type StateChange struct {
	Structure Structure
	Previous  State
	Current   State
}

// SortByName orders structures lexically by display name.
func SortByName(structures []Structure) {
	sort.SliceStable(structures, func(i, j int) bool {
		return structures[i].DisplayName < structures[j].DisplayName
	})
}

// SortByHoursRemaining orders structures soonest-to-run-out first.
// Stable, so equal-fuel structures keep their name order.
func SortByHoursRemaining(structures []Structure) {
	sort.SliceStable(structures, func(i, j int) bool {
		return structures[i].HoursRemaining() < structures[j].HoursRemaining()
	})
}
