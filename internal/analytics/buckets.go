package analytics

import (
	"github.com/2beens/activitystats/internal/activities"
)

const (
	IntensityEasy      = "Easy"
	IntensityTempo     = "Tempo"
	IntensityThreshold = "Threshold"
	IntensityMaxEffort = "Max Effort"

	DistanceShort  = "Short (<5km)"
	DistanceMedium = "Medium (5-10km)"
	DistanceLong   = "Long (>10km)"
)

var intensityLabels = [...]string{IntensityEasy, IntensityTempo, IntensityThreshold, IntensityMaxEffort}

// IntensityBuckets classifies runs by average HR relative to maxHeartRate.
// Other activity types get no buckets; runs below 65% are left out.
func IntensityBuckets(acts []activities.Activity, typ activities.Type, maxHeartRate float64) []Bucket {
	if typ != activities.TypeRun || maxHeartRate <= 0 {
		return []Bucket{}
	}

	var counts [len(intensityLabels)]int
	for _, a := range acts {
		if a.AvgHeartRate == nil || *a.AvgHeartRate <= 0 {
			continue
		}
		ratio := *a.AvgHeartRate / maxHeartRate
		switch {
		case ratio >= 0.92:
			counts[3]++
		case ratio >= 0.85:
			counts[2]++
		case ratio >= 0.75:
			counts[1]++
		case ratio >= 0.65:
			counts[0]++
		}
	}

	return nonEmpty(intensityLabels[:], counts[:])
}

// DistanceDistribution splits activities into short/medium/long by distance;
// a missing distance counts as 0.
func DistanceDistribution(acts []activities.Activity) []Bucket {
	var short, medium, long int
	for _, a := range acts {
		switch d := a.DistanceOrZero(); {
		case d < 5:
			short++
		case d < 10:
			medium++
		default:
			long++
		}
	}
	return nonEmpty(
		[]string{DistanceShort, DistanceMedium, DistanceLong},
		[]int{short, medium, long},
	)
}

func nonEmpty(labels []string, counts []int) []Bucket {
	buckets := make([]Bucket, 0, len(labels))
	for i, label := range labels {
		if counts[i] > 0 {
			buckets = append(buckets, Bucket{Label: label, Count: counts[i]})
		}
	}
	return buckets
}
