package enums

import (
	"fmt"
	"time"
)

// ItemStatus maps to the flash_sale_item_status enum in Postgres.
type ItemStatus string

const (
	ItemStatusNotStarted ItemStatus = "not_started"
	ItemStatusOngoing    ItemStatus = "ongoing"
	ItemStatusEnded      ItemStatus = "ended"
)

var validItemStatuses = []ItemStatus{
	ItemStatusNotStarted,
	ItemStatusOngoing,
	ItemStatusEnded,
}

// IsValid checks whether the given status matches the canonical enum.
func (s ItemStatus) IsValid() bool {
	for _, candidate := range validItemStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseItemStatus converts raw strings into ItemStatus.
func ParseItemStatus(value string) (ItemStatus, error) {
	for _, candidate := range validItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item status %q", value)
}

// DeriveItemStatus computes the time-driven status of a sale window.
// A forced end pins the stored status to ended regardless of time, so
// callers must only apply this to items that were not force-ended.
func DeriveItemStatus(now, startTime, endTime time.Time) ItemStatus {
	switch {
	case now.Before(startTime):
		return ItemStatusNotStarted
	case now.After(endTime):
		return ItemStatusEnded
	default:
		return ItemStatusOngoing
	}
}
