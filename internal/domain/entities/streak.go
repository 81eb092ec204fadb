package entities

// CurrentStreak counts the most recent consecutive days that reached goal.
// progress is ordered from the oldest day to the most recent one.
func CurrentStreak(progress []int, goal int) int {
	if goal <= 0 || len(progress) == 0 {
		return 0
	}

	streak := 0
	for i := len(progress) - 1; i >= 0; i-- {
		if progress[i] < goal {
			break
		}
		streak++
	}

	return streak
}

// MaxStreak returns the longest run of consecutive days that reached goal.
func MaxStreak(progress []int, goal int) int {
	if goal <= 0 {
		return 0
	}

	best, run := 0, 0
	for _, done := range progress {
		if done < goal {
			run = 0
			continue
		}
		run++
		best = max(best, run)
	}

	return best
}
