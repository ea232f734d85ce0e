package scorito

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/JakeFAU/rider-enricher/internal/enricher"
)

// Record field names used by the game API.
const (
	fieldFirstName    = "FirstName"
	fieldLastName     = "LastName"
	fieldQualities    = "Qualities"
	fieldType         = "Type"
	fieldStatus       = "Status"
	fieldTeamID       = "TeamId"
	fieldTeam         = "Team"
	fieldEventRiderID = "EventRiderId"
	fieldRiderID      = "RiderId"

	activeStatus = 1
)

// QualityColumns names the rating columns by quality type.
var QualityColumns = []string{
	"Scorito GC",
	"Scorito Climb",
	"Scorito Time trial",
	"Scorito Sprint",
	"Scorito Punch",
	"Scorito Hill",
	"Scorito Cobbles",
}

// RiderTypes labels the rider type codes.
var RiderTypes = map[int]string{
	1: "GC",
	2: "Climber",
	3: "TT",
	4: "Sprinter",
	5: "Attacker",
	6: "Support",
}

// FilterActive keeps records whose Status is 1.
func FilterActive(records []*enricher.Fields) []*enricher.Fields {
	out := make([]*enricher.Fields, 0, len(records))
	for _, r := range records {
		v, _ := r.Get(fieldStatus)
		if n, ok := asInt(v); ok && n == activeStatus {
			out = append(out, r)
		}
	}
	return out
}

// FormatQualities replaces the Qualities list with one column per quality,
// defaulting to 0.
func FormatQualities(r *enricher.Fields) {
	v, _ := r.Get(fieldQualities)
	r.Delete(fieldQualities)
	for _, col := range QualityColumns {
		r.Set(col, 0)
	}
	list, _ := v.([]any)
	for _, item := range list {
		q, ok := item.(map[string]any)
		if !ok {
			continue
		}
		t, ok := asInt(q["Type"])
		if !ok || t < 0 || t >= len(QualityColumns) {
			continue
		}
		r.Set(QualityColumns[t], q["Value"])
	}
}

// FormatType replaces the Type code with its label. Unknown codes are kept.
func FormatType(r *enricher.Fields) {
	v, ok := r.Get(fieldType)
	if !ok {
		return
	}
	if n, ok := asInt(v); ok {
		if label, ok := RiderTypes[n]; ok {
			r.Set(fieldType, label)
		}
	}
}

// FormatTeam adds the Team name matching TeamId.
func FormatTeam(r *enricher.Fields, teams []Team) {
	v, ok := r.Get(fieldTeamID)
	if !ok {
		return
	}
	id := fmt.Sprint(v)
	for _, t := range teams {
		if t.ID.String() == id {
			r.Set(fieldTeam, t.Name)
		}
	}
}

// FilterColumns drops the identifier and status columns.
func FilterColumns(r *enricher.Fields) {
	for _, name := range []string{fieldEventRiderID, fieldStatus, fieldTeamID, fieldRiderID} {
		r.Delete(name)
	}
}

// FormatGrandTour applies the grand tour pipeline: active riders only,
// qualities, type, team, then column filtering.
func FormatGrandTour(records []*enricher.Fields, teams []Team) []*enricher.Fields {
	active := FilterActive(records)
	for _, r := range active {
		FormatQualities(r)
		FormatType(r)
		FormatTeam(r, teams)
		FilterColumns(r)
	}
	return active
}

// Riders wraps records as enricher riders, reading the name fields.
func Riders(records []*enricher.Fields) []enricher.Rider {
	out := make([]enricher.Rider, 0, len(records))
	for _, r := range records {
		out = append(out, enricher.Rider{
			FirstName: stringField(r, fieldFirstName),
			LastName:  stringField(r, fieldLastName),
			Fields:    r,
		})
	}
	return out
}

func stringField(r *enricher.Fields, name string) string {
	v, ok := r.Get(name)
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := strconv.Atoi(n.String())
		return i, err == nil
	case int:
		return n, true
	case float64:
		return int(n), n == float64(int(n))
	case string:
		i, err := strconv.Atoi(n)
		return i, err == nil
	default:
		return 0, false
	}
}
