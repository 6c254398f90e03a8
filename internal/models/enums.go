package models

// WaterSource is where the patient's drinking water comes from.
type WaterSource string

const (
	WaterWell      WaterSource = "Well"
	WaterRiver     WaterSource = "River"
	WaterPond      WaterSource = "Pond"
	WaterMunicipal WaterSource = "Municipal"
	WaterBorewell  WaterSource = "Borewell"
	WaterTap       WaterSource = "Tap Water"
	WaterRainwater WaterSource = "Rainwater"
	WaterOther     WaterSource = "Other"
)

var waterSources = map[WaterSource]struct{}{
	WaterWell: {}, WaterRiver: {}, WaterPond: {}, WaterMunicipal: {},
	WaterBorewell: {}, WaterTap: {}, WaterRainwater: {}, WaterOther: {},
}

func (w WaterSource) Valid() bool {
	_, ok := waterSources[w]
	return ok
}

// Severity grades how serious a case is. High severity counts as critical.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Status is the treatment state of a case. Any status may follow any other.
type Status string

const (
	StatusActive         Status = "Active"
	StatusRecovered      Status = "Recovered"
	StatusUnderTreatment Status = "Under Treatment"
)

func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusRecovered, StatusUnderTreatment:
		return true
	}
	return false
}
