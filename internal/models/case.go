package models

import (
	"encoding/json"
	"strings"
	"time"
)

// DefaultReporter is stored when a case does not name who reported it.
const DefaultReporter = "Unknown"

// ShortDateLayout renders the human readable date snapshot, e.g. "Mar 7".
const ShortDateLayout = "Jan 2"

// Case defines the structure for reported patient case records.
type Case struct {
	ID          string      `json:"_id" gorm:"primaryKey;size:64"`
	Name        string      `json:"name" gorm:"not null"`
	Age         int         `json:"age"`
	Location    string      `json:"location"`
	Lat         *float64    `json:"lat"`
	Lng         *float64    `json:"lng"`
	Symptoms    string      `json:"symptoms"`
	WaterSource WaterSource `json:"waterSource" gorm:"size:32"`
	Severity    Severity    `json:"severity" gorm:"size:16;index"`
	Status      Status      `json:"status" gorm:"size:32;index"`
	Date        string      `json:"date"`
	Timestamp   time.Time   `json:"timestamp" gorm:"index"`
	Synced      bool        `json:"synced"`
	UserID      *string     `json:"userId"`
	ReportedBy  string      `json:"reportedBy"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (Case) TableName() string { return "cases" }

// CaseInput is a client supplied case payload, used for create, sync and
// as the merge target of updates.
type CaseInput struct {
	ID          string              `json:"_id" validate:"omitempty,max=64"`
	Name        string              `json:"name" validate:"required"`
	Age         FlexNumber[int]     `json:"age" validate:"required,min=0,max=150"`
	Location    string              `json:"location" validate:"required"`
	Lat         FlexNumber[float64] `json:"lat"`
	Lng         FlexNumber[float64] `json:"lng"`
	Symptoms    string              `json:"symptoms" validate:"required"`
	WaterSource WaterSource         `json:"waterSource" validate:"required,watersource"`
	Severity    Severity            `json:"severity" validate:"required,severity"`
	Status      Status              `json:"status" validate:"omitempty,casestatus"`
	Date        string              `json:"date"`
	Timestamp   *FlexTime           `json:"timestamp"`
	UserID      *string             `json:"userId"`
	ReportedBy  string              `json:"reportedBy"`
}

// Normalize trims free text fields.
func (in *CaseInput) Normalize() {
	in.ID = strings.TrimSpace(in.ID)
	in.Name = strings.TrimSpace(in.Name)
	in.Location = strings.TrimSpace(in.Location)
	in.Symptoms = strings.TrimSpace(in.Symptoms)
	in.ReportedBy = strings.TrimSpace(in.ReportedBy)
}

// ToCase builds a record from a validated input, filling the defaults for
// status, date, timestamp and reporter. now is the creation time.
func (in *CaseInput) ToCase(now time.Time) *Case {
	c := &Case{
		ID:          in.ID,
		Name:        in.Name,
		Location:    in.Location,
		Age:         in.Age.Value,
		Lat:         in.Lat.Ptr(),
		Lng:         in.Lng.Ptr(),
		Symptoms:    in.Symptoms,
		WaterSource: in.WaterSource,
		Severity:    in.Severity,
		Status:      in.Status,
		Date:        in.Date,
		Timestamp:   now,
		Synced:      true,
		UserID:      in.UserID,
		ReportedBy:  in.ReportedBy,
	}
	if in.Timestamp != nil && !in.Timestamp.IsZero() {
		c.Timestamp = in.Timestamp.Time
	}
	if c.Status == "" {
		c.Status = StatusActive
	}
	if c.Date == "" {
		c.Date = now.Format(ShortDateLayout)
	}
	if c.ReportedBy == "" {
		c.ReportedBy = DefaultReporter
	}
	return c
}

// InputFromCase returns the editable fields of c as an input, so that a
// partial payload can be merged on top of it.
func InputFromCase(c *Case) CaseInput {
	return CaseInput{
		ID:          c.ID,
		Name:        c.Name,
		Age:         NumberOf(c.Age),
		Location:    c.Location,
		Lat:         NumberFrom(c.Lat),
		Lng:         NumberFrom(c.Lng),
		Symptoms:    c.Symptoms,
		WaterSource: c.WaterSource,
		Severity:    c.Severity,
		Status:      c.Status,
		Date:        c.Date,
		Timestamp:   &FlexTime{Time: c.Timestamp},
		UserID:      c.UserID,
		ReportedBy:  c.ReportedBy,
	}
}

// ApplyInput overwrites the editable fields of c with in. Identity, sync
// flag and bookkeeping timestamps are left alone.
func (c *Case) ApplyInput(in *CaseInput) {
	updated := in.ToCase(c.Timestamp)
	updated.ID = c.ID
	updated.CreatedAt = c.CreatedAt
	updated.UpdatedAt = c.UpdatedAt
	if in.Date == "" {
		updated.Date = c.Date
	}
	*c = *updated
}

// RawCase is an undecoded JSON object of case fields. Applied to an input,
// only the fields present in the object change and an explicit null clears
// nullable fields.
type RawCase json.RawMessage

func (p *RawCase) UnmarshalJSON(b []byte) error {
	*p = append((*p)[:0], b...)
	return nil
}

func (p RawCase) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

func (p RawCase) ApplyTo(in *CaseInput) error {
	if len(p) == 0 {
		return nil
	}
	return json.Unmarshal(p, in)
}

// Name returns the "name" member of the object when it is a string. It is
// used to label elements that fail to decode.
func (p RawCase) Name() string {
	var probe struct {
		Name json.RawMessage `json:"name"`
	}
	if json.Unmarshal(p, &probe) != nil {
		return ""
	}
	var name string
	if json.Unmarshal(probe.Name, &name) != nil {
		return ""
	}
	return name
}

// SyncError reports one sync element that could not be stored.
type SyncError struct {
	Case  string `json:"case,omitempty"`
	Error string `json:"error"`
}

// SyncResult is the outcome of a bulk sync: the stored or already present
// records, and the elements that failed.
type SyncResult struct {
	Cases  []Case
	Errors []SyncError
}

// CaseStats holds the aggregate case counts.
type CaseStats struct {
	Total     int64 `json:"total"`
	Active    int64 `json:"active"`
	Recovered int64 `json:"recovered"`
	Critical  int64 `json:"critical"`
}
