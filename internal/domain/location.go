package domain

// Raw device signals used to decide whether the user is indoors.
// Both fields are optional; nil means the client did not report it.
type IndoorSignal struct {
	GPSAccuracyMeters      *float64 `json:"gps_accuracy_m,omitempty"`
	StayingDurationSeconds *int     `json:"staying_duration_s,omitempty"`
}

// Result of one indoor/outdoor classification. Produced once per query.
type LocationClassification struct {
	Indoor       bool    `json:"indoor"`
	BuildingName *string `json:"building_name,omitempty"`
	Address      string  `json:"address"`
}
