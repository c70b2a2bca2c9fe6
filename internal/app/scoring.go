package app

import (
	"math"
	"strings"
	"time"

	"quizwhiz-service/internal/domain"
)

const (
	maxPoints      = 100
	minPoints      = 20
	decayPerSecond = 6
)

// Points awards a correct answer given after elapsed: 100 at once, minus 6 per second, never below 20.
func Points(elapsed time.Duration) int {
	secs := elapsed.Seconds()
	if secs < 0 {
		secs = 0
	}
	points := int(math.Floor(maxPoints - decayPerSecond*secs))
	if points < minPoints {
		return minPoints
	}
	return points
}

// rankBefore orders by score descending, then total answer time ascending, then name ignoring case.
// Names are unique among connected participants, so the order is total.
func rankBefore(a, b *domain.Participant) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.TotalAnswerTime != b.TotalAnswerTime {
		return a.TotalAnswerTime < b.TotalAnswerTime
	}
	an, bn := strings.ToLower(a.DisplayName), strings.ToLower(b.DisplayName)
	if an != bn {
		return an < bn
	}
	return a.ConnectionID < b.ConnectionID
}
