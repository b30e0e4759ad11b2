package roles

import (
	"fmt"

	"github.com/mcoot/impostor/internal/dependencies/random"
	"github.com/mcoot/impostor/internal/model"
)

// MaxImpostors returns the largest impostor count offered for a roster of n players
func MaxImpostors(n int) int {
	return max(1, (n-1)/2)
}

// ImpostorOptions lists the selectable impostor counts for a roster of n players
func ImpostorOptions(n int) []int {
	options := make([]int, 0, MaxImpostors(n))
	for k := 1; k <= MaxImpostors(n); k++ {
		options = append(options, k)
	}
	return options
}

// Assign picks exactly impostorCount distinct indices in [0, playerCount).
// Every subset of that size is equally likely given a uniform rnd.
func Assign(rnd random.Random, playerCount, impostorCount int) ([]int, error) {
	if impostorCount < 1 || impostorCount >= playerCount {
		return nil, model.ErrImpostorCountOutOfRange
	}

	indices := make([]int, playerCount)
	for i := range indices {
		indices[i] = i
	}

	// Partial Fisher-Yates: only the first impostorCount slots are needed
	for i := 0; i < impostorCount; i++ {
		j := i + rnd.Intn(playerCount-i)
		indices[i], indices[j] = indices[j], indices[i]
	}

	return indices[:impostorCount], nil
}

// Apply sets IsImpostor on every player according to the chosen indices.
// Players are left untouched if any index falls outside the roster.
func Apply(players []model.Player, impostors []int) error {
	for _, idx := range impostors {
		if idx < 0 || idx >= len(players) {
			return fmt.Errorf("impostor index %d out of range for %d players", idx, len(players))
		}
	}

	for i := range players {
		players[i].IsImpostor = false
	}
	for _, idx := range impostors {
		players[idx].IsImpostor = true
	}
	return nil
}
