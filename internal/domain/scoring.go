package domain

// ScoreFunc computes the award for a correct answer
type ScoreFunc func(baseAward, timeLeftSeconds int) int

// FlatScore awards the base amount regardless of time
func FlatScore(baseAward, _ int) int {
	return baseAward
}

// TimeBonusScore adds one point for every three seconds left on the clock
func TimeBonusScore(baseAward, timeLeftSeconds int) int {
	if timeLeftSeconds < 0 {
		timeLeftSeconds = 0
	}
	return baseAward + timeLeftSeconds/3
}
