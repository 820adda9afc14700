package drawing

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bwise1/roadwatch/internal/model"
	"github.com/bwise1/roadwatch/util"
)

// ValidationError lists the form fields that failed, keyed by field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = name + " " + e.Fields[name]
	}
	return "invalid road details: " + strings.Join(parts, "; ")
}

// BuildPayload turns a draft path and the typed form into the road creation
// body. Numbers that do not parse are field errors, never zero.
func BuildPayload(path model.Path, form model.RoadForm) (model.RoadPayload, error) {
	form = model.RoadForm{
		BuilderID:         strings.TrimSpace(form.BuilderID),
		InspectorAssigned: strings.TrimSpace(form.InspectorAssigned),
		Cost:              strings.TrimSpace(form.Cost),
		StartedDate:       strings.TrimSpace(form.StartedDate),
		EndedDate:         strings.TrimSpace(form.EndedDate),
		Status:            strings.TrimSpace(form.Status),
	}

	fields := map[string]string{}
	if err := util.ValidateStruct(form); err != nil {
		fe := util.FieldErrors(err)
		if fe == nil {
			return model.RoadPayload{}, err
		}
		for k, v := range fe {
			fields[k] = v
		}
	}

	status := model.StatusPlanned
	if form.Status != "" {
		st, ok := model.LookupStatus(form.Status)
		if !ok {
			fields["status"] = "must be one of: " + model.StatusNames()
		}
		status = st
	}

	payload := model.RoadPayload{
		Polyline:    path.Clone(),
		StartedDate: form.StartedDate,
		Status:      status,
	}

	if _, bad := fields["builder_id"]; !bad {
		id, err := strconv.Atoi(form.BuilderID)
		if err != nil {
			fields["builder_id"] = "must be a whole number"
		}
		payload.BuilderID = id
	}
	if _, bad := fields["inspector_assigned"]; !bad {
		id, err := strconv.Atoi(form.InspectorAssigned)
		if err != nil {
			fields["inspector_assigned"] = "must be a whole number"
		}
		payload.InspectorAssigned = id
	}
	if _, bad := fields["cost"]; !bad {
		cost, err := strconv.ParseFloat(form.Cost, 64)
		switch {
		case err != nil:
			fields["cost"] = "must be a number"
		case cost < 0:
			fields["cost"] = "must not be negative"
		}
		payload.Cost = cost
	}

	if form.EndedDate != "" {
		ended := form.EndedDate
		payload.EndedDate = &ended
		_, badStart := fields["started_date"]
		_, badEnd := fields["ended_date"]
		if !badStart && !badEnd && ended < form.StartedDate {
			fields["ended_date"] = fmt.Sprintf("must not be before %s", form.StartedDate)
		}
	}

	if len(path) == 0 {
		fields["polyline"] = "must have at least one point"
	}

	if len(fields) > 0 {
		return model.RoadPayload{}, &ValidationError{Fields: fields}
	}
	return payload, nil
}
