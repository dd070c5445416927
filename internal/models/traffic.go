package models

// TrafficSample is one speed observation in a cell.
type TrafficSample struct {
	Time  int64   `json:"time"`  // Unix milliseconds
	Speed float32 `json:"speed"` // meters per second
}

// CellTraffic summarizes the recent window of one H3 cell.
type CellTraffic struct {
	Cell           string          `json:"cell"`
	BucketIndex    int             `json:"bucketIndex"`
	Lat            float64         `json:"lat"`
	Lon            float64         `json:"lon"`
	Distance       float64         `json:"distance"` // meters from the query point
	SampleCount    int             `json:"sampleCount"`
	MeanSpeed      float64         `json:"meanSpeed"`
	LastUpdateTime int64           `json:"lastUpdateTime"`
	Samples        []TrafficSample `json:"samples"`
}

// HasSamples reports whether any observation survived filtering.
func (c CellTraffic) HasSamples() bool {
	return c.SampleCount > 0
}
