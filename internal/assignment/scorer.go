// Package assignment ranks barbers for a booking.
package assignment

import (
	"math"
	"sort"

	"barbersched/pkg/model"
)

const (
	RatingWeight     = 0.4
	WorkloadWeight   = 0.3
	ExperienceWeight = 0.2
	VolumeWeight     = 0.1

	maxRating          = 5.0
	experienceCapYears = 10.0
	volumeCapBookings  = 1000.0
)

// Candidate is an eligible barber with the booking counts scoring needs.
type Candidate struct {
	Barber          *model.Barber
	DailyBookings   int
	MonthlyBookings int
}

// Score computes the weighted score of one candidate.
func Score(c Candidate) model.CandidateScore {
	b := c.Barber

	rating := math.Min(math.Max(b.Rating, 0), maxRating) / maxRating

	var workload float64
	if b.MaxDailyBookings > 0 {
		workload = float64(b.MaxDailyBookings-c.DailyBookings) / float64(b.MaxDailyBookings)
		workload = math.Max(workload, 0)
	}

	experience := math.Min(float64(b.ExperienceYears)/experienceCapYears, 1)
	volume := math.Max(0, 1-float64(b.TotalBookings)/volumeCapBookings)

	return model.CandidateScore{
		BarberID:         b.ID,
		Name:             b.Name,
		RatingScore:      rating,
		WorkloadScore:    workload,
		ExperienceScore:  experience,
		VolumeScore:      volume,
		FinalScore:       RatingWeight*rating + WorkloadWeight*workload + ExperienceWeight*experience + VolumeWeight*volume,
		DailyBookings:    c.DailyBookings,
		MonthlyBookings:  c.MonthlyBookings,
		MaxDailyBookings: b.MaxDailyBookings,
	}
}

// Rank orders candidates for selection. When monthly booking counts differ,
// only the candidates with the fewest bookings this month are kept, so load
// balance decides before quality. The rest are ordered by score. Ties fall
// back to barber ID to keep the order stable.
func Rank(candidates []Candidate) (ranked []model.CandidateScore, loadBalanced bool) {
	if len(candidates) == 0 {
		return nil, false
	}

	minMonthly, maxMonthly := candidates[0].MonthlyBookings, candidates[0].MonthlyBookings
	for _, c := range candidates[1:] {
		minMonthly = min(minMonthly, c.MonthlyBookings)
		maxMonthly = max(maxMonthly, c.MonthlyBookings)
	}
	loadBalanced = minMonthly != maxMonthly

	for _, c := range candidates {
		if loadBalanced && c.MonthlyBookings != minMonthly {
			continue
		}
		ranked = append(ranked, Score(c))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].FinalScore != ranked[j].FinalScore {
			return ranked[i].FinalScore > ranked[j].FinalScore
		}
		return ranked[i].BarberID < ranked[j].BarberID
	})
	return ranked, loadBalanced
}

// Select splits a ranking into the winner and up to maxAlternatives
// runners-up.
func Select(ranked []model.CandidateScore, maxAlternatives int) (model.CandidateScore, []model.CandidateScore, bool) {
	if len(ranked) == 0 {
		return model.CandidateScore{}, nil, false
	}
	alternatives := ranked[1:]
	if len(alternatives) > maxAlternatives {
		alternatives = alternatives[:maxAlternatives]
	}
	return ranked[0], append([]model.CandidateScore{}, alternatives...), true
}
