package domain

import (
	"fmt"
	"time"
)

// Snapshot is the cached state of one game's lists for one list resource.
type Snapshot struct {
	Resource string    `json:"resource"`
	GameID   int       `json:"game_id"`
	Lists    []List    `json:"lists"`
	SavedAt  time.Time `json:"saved_at"`
}

// SnapshotKey identifies a cached snapshot, e.g. "shopping_lists:32".
func SnapshotKey(resource string, gameID int) string {
	return fmt.Sprintf("%s:%d", resource, gameID)
}
