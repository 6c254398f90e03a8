package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

var flexLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// FlexTime accepts the timestamp shapes offline clients send: RFC 3339
// strings, bare dates, or epoch milliseconds. null, "", 0 and false mean
// "not provided" and leave the time zero.
type FlexTime struct {
	time.Time
}

func (t *FlexTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch string(b) {
	case "null", `""`, "0", "false":
		t.Time = time.Time{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		for _, layout := range flexLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				t.Time = parsed.UTC()
				return nil
			}
		}
		return fmt.Errorf("timestamp: cannot parse %q", s)
	}
	var ms float64
	if err := json.Unmarshal(b, &ms); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	if ms == 0 {
		t.Time = time.Time{}
		return nil
	}
	t.Time = time.UnixMilli(int64(ms)).UTC()
	return nil
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Time)
}
