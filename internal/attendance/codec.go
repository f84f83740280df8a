package attendance

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ParseClasses decodes an attendanceData document. The top level must be
// a JSON object; anything below it is normalized:
//   - a subject value that is not an object, or whose records is missing or
//     not an array, gets an empty record list
//   - records with a bad date or an unknown status are dropped
//   - a repeated date keeps its first position and takes the later status
//   - names are trimmed; empty names are dropped and equal names merged
func ParseClasses(data []byte) (Classes, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: top level is not an object", ErrInvalidImport)
	}

	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	classes := make(Classes, len(raw))
	for _, k := range keys {
		name := strings.TrimSpace(k)
		if name == "" {
			continue
		}
		subject, ok := classes[name]
		if !ok {
			subject = &Subject{Records: []Record{}}
			classes[name] = subject
		}
		for _, r := range parseRecords(raw[k]) {
			subject.put(r)
		}
	}
	return classes, nil
}

func parseRecords(value json.RawMessage) []Record {
	var body struct {
		Records json.RawMessage `json:"records"`
	}
	if err := json.Unmarshal(value, &body); err != nil || len(body.Records) == 0 {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body.Records, &items); err != nil {
		return nil
	}

	records := make([]Record, 0, len(items))
	for _, item := range items {
		var r struct {
			Date   string `json:"date"`
			Status string `json:"status"`
		}
		if err := json.Unmarshal(item, &r); err != nil {
			continue
		}
		if ValidateDate(r.Date) != nil {
			continue
		}
		status, err := ParseStatus(r.Status)
		if err != nil {
			continue
		}
		records = append(records, Record{Date: r.Date, Status: status})
	}
	return records
}

// put sets the status for r.Date, appending when the date is new.
func (s *Subject) put(r Record) {
	if i := s.indexOf(r.Date); i >= 0 {
		s.Records[i].Status = r.Status
		return
	}
	s.Records = append(s.Records, r)
}

// ParseDaily decodes a dailyAttendance document, keeping only entries
// with a valid date and status.
func ParseDaily(data []byte) (DailyMap, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("top level is not an object")
	}

	daily := make(DailyMap, len(raw))
	for date, v := range raw {
		s, ok := v.(string)
		if !ok || ValidateDate(date) != nil {
			continue
		}
		status, err := ParseStatus(s)
		if err != nil {
			continue
		}
		daily[date] = status
	}
	return daily, nil
}
