package domain

// SeriesTotal is the series name of the all-origins counter in a time summary.
const SeriesTotal = "total"

// TimeBucket is a single aggregate point of a summary query.
type TimeBucket struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// TimeSummary is the per-hour event count of a source, split by origin.
type TimeSummary struct {
	Buckets       []TimeBucket `json:"buckets"`
	AmazonBuckets []TimeBucket `json:"amazonBuckets"`
	GoogleBuckets []TimeBucket `json:"googleBuckets"`
}

// IntentBucket counts how often an intent was requested on one origin.
type IntentBucket struct {
	Name   string `json:"name"`
	Count  int64  `json:"count"`
	Origin Origin `json:"origin"`
}

// IntentSummary lists intent counts of a source.
type IntentSummary struct {
	Count []IntentBucket `json:"count"`
}

// TotalStat aggregates users, exceptions and events.
type TotalStat struct {
	TotalUsers      int64 `json:"totalUsers"`
	TotalExceptions int64 `json:"totalExceptions"`
	TotalEvents     int64 `json:"totalEvents"`
}

// SourceStats holds overall and per-origin totals of a source.
type SourceStats struct {
	Source      string    `json:"source"`
	Stats       TotalStat `json:"stats"`
	AmazonAlexa TotalStat `json:"Amazon.Alexa"`
	GoogleHome  TotalStat `json:"Google.Home"`
	Unknown     TotalStat `json:"Unknown"`
}
