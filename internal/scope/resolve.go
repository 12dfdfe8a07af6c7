// Package scope decides which game is active and reloads the lists store
// whenever that decision changes.
package scope

import (
	"strconv"
	"strings"

	"sim-sync/internal/domain"
)

// Resolve picks the active game: the requested id when it is a positive
// integer, else the first game once games have loaded, else none.
func Resolve(requested string, games []domain.Game, loaded bool) (int, bool) {
	if id, err := strconv.Atoi(strings.TrimSpace(requested)); err == nil && id > 0 {
		return id, true
	}
	if loaded && len(games) > 0 {
		return games[0].ID, true
	}
	return 0, false
}
