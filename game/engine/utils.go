package engine

// ManhattanDistance calculates the Manhattan distance between two positions
func ManhattanDistance(from, to Position) int {
	dx := from.X - to.X
	if dx < 0 {
		dx = -dx
	}
	dy := from.Y - to.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// FindNearestFood finds the closest food cell and returns its position and distance
func FindNearestFood(b *Board, from Position) (Position, int, bool) {
	minDistance := -1
	var nearestPos Position
	found := false

	for x := 0; x < b.Width(); x++ {
		for y := 0; y < b.Height(); y++ {
			pos := Position{X: x, Y: y}
			if b.at(pos) != Food {
				continue
			}
			distance := ManhattanDistance(from, pos)
			if minDistance == -1 || distance < minDistance {
				minDistance = distance
				nearestPos = pos
				found = true
			}
		}
	}

	return nearestPos, minDistance, found
}

// AnalyzeEnergyRisk assesses how close an agent is to starving, based on its
// energy and the distance to the nearest remaining food
func AnalyzeEnergyRisk(b *Board, agent Agent) string {
	if !agent.Alive {
		return "DEAD"
	}
	if agent.Energy <= 0 {
		return "CRITICAL: No energy left, the next move is fatal"
	}

	_, distance, found := FindNearestFood(b, agent.Position)
	if !found {
		return "WARNING: No food left on the board"
	}

	// A move only succeeds while energy stays positive afterwards.
	if agent.Energy <= distance {
		return "DANGER: Insufficient energy to reach the nearest food"
	} else if agent.Energy <= distance+2 {
		return "CAUTION: Low energy, head for food"
	} else if agent.Energy <= DefaultEnergy/3 {
		return "LOW: Consider foraging soon"
	}

	return "SAFE: Energy sufficient"
}
