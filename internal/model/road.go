package model

import "strings"

type RoadStatus string

const (
	StatusPlanned           RoadStatus = "planned"
	StatusUnderConstruction RoadStatus = "under_construction"
	StatusMaintaining       RoadStatus = "maintaining"
	StatusCompleted         RoadStatus = "completed"
)

var Statuses = []RoadStatus{StatusPlanned, StatusUnderConstruction, StatusMaintaining, StatusCompleted}

// LookupStatus resolves the spellings the backend and the forms use.
func LookupStatus(s string) (RoadStatus, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer(" ", "_", "-", "_").Replace(key)
	switch key {
	case "planned":
		return StatusPlanned, true
	case "under_construction", "construction":
		return StatusUnderConstruction, true
	case "maintaining", "maintained", "maintenance":
		return StatusMaintaining, true
	case "completed", "complete":
		return StatusCompleted, true
	}
	return "", false
}

// ParseStatus is LookupStatus with planned as the fallback.
func ParseStatus(s string) RoadStatus {
	if st, ok := LookupStatus(s); ok {
		return st
	}
	return StatusPlanned
}

// StatusNames lists the known statuses, comma separated.
func StatusNames() string {
	names := make([]string, len(Statuses))
	for i, s := range Statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// Label is the human readable form, e.g. "under construction".
func (s RoadStatus) Label() string {
	return strings.ReplaceAll(string(s), "_", " ")
}

// RoadRecord is a road as persisted by the backend.
type RoadRecord struct {
	RoadID            int64      `json:"road_id"`
	Name              string     `json:"name,omitempty"`
	Polyline          Path       `json:"polyline"`
	BuilderID         int64      `json:"builder_id,omitempty"`
	InspectorAssigned int64      `json:"inspector_assigned,omitempty"`
	MaintainedBy      int64      `json:"maintained_by,omitempty"`
	Cost              float64    `json:"cost"`
	StartedDate       string     `json:"started_date,omitempty"`
	EndedDate         *string    `json:"ended_date,omitempty"`
	Status            RoadStatus `json:"status"`
	// RawStatus is the status string exactly as the backend sent it.
	RawStatus     string   `json:"raw_status,omitempty"`
	ChiefEngineer *string  `json:"chief_engineer,omitempty"`
	DateVerified  *string  `json:"date_verified,omitempty"`
	AverageRating *float64 `json:"average_rating,omitempty"`
}

// RoadForm holds the metadata form fields as typed by the user.
type RoadForm struct {
	BuilderID         string `json:"builder_id" validate:"required,number"`
	InspectorAssigned string `json:"inspector_assigned" validate:"required,number"`
	Cost              string `json:"cost" validate:"required,numeric"`
	StartedDate       string `json:"started_date" validate:"required,datetime=2006-01-02"`
	EndedDate         string `json:"ended_date" validate:"omitempty,datetime=2006-01-02"`
	Status            string `json:"status"`
}

// DefaultRoadForm is the form as shown when it opens.
func DefaultRoadForm() RoadForm {
	return RoadForm{Status: string(StatusPlanned)}
}

// RoadPayload is the body of the road creation request.
type RoadPayload struct {
	Polyline          Path       `json:"polyline"`
	BuilderID         int        `json:"builder_id"`
	InspectorAssigned int        `json:"inspector_assigned"`
	Cost              float64    `json:"cost"`
	StartedDate       string     `json:"started_date"`
	EndedDate         *string    `json:"ended_date"`
	Status            RoadStatus `json:"status"`
}

// RoadUpdate is the partial update builders and inspectors may send.
type RoadUpdate struct {
	Status        *RoadStatus `json:"status,omitempty"`
	ChiefEngineer *string     `json:"chief_engineer,omitempty"`
	DateVerified  *string     `json:"date_verified,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

func (u RoadUpdate) Empty() bool {
	return u.Status == nil && u.ChiefEngineer == nil && u.DateVerified == nil
}
