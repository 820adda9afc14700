package model

import (
	"encoding/json"
	"testing"
)

func TestParseStatus(t *testing.T) {
	testCases := []struct {
		in   string
		want RoadStatus
	}{
		{"planned", StatusPlanned},
		{"under_construction", StatusUnderConstruction},
		{"under construction", StatusUnderConstruction},
		{"Under Construction", StatusUnderConstruction},
		{"maintaining", StatusMaintaining},
		{"maintained", StatusMaintaining},
		{"completed", StatusCompleted},
		{"xyz", StatusPlanned},
		{"", StatusPlanned},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			if got := ParseStatus(tc.in); got != tc.want {
				t.Errorf("ParseStatus(%q) = %q; want %q", tc.in, got, tc.want)
			}
		})
	}

	if _, ok := LookupStatus("xyz"); ok {
		t.Error("LookupStatus(xyz) should not resolve")
	}
	if got := StatusUnderConstruction.Label(); got != "under construction" {
		t.Errorf("Label() = %q", got)
	}
}

func TestParseRole(t *testing.T) {
	testCases := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"manager", RoleManager, false},
		{" Inspector ", RoleInspector, false},
		{"", RoleCitizen, false},
		{"admin", "", true},
	}

	for _, tc := range testCases {
		got, err := ParseRole(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseRole(%q) error = %v; wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseRole(%q) = %q; want %q", tc.in, got, tc.want)
		}
	}

	if !RoleManager.CanDraw() || RoleBuilder.CanDraw() {
		t.Error("only the manager role may draw")
	}
}

func TestFlexFloat(t *testing.T) {
	testCases := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{`1000`, 1000, false},
		{`"1000.50"`, 1000.5, false},
		{`null`, 0, false},
		{`""`, 0, false},
		{`"abc"`, 0, false},
		{`"None"`, 0, false},
		{`" 12 "`, 12, false},
		{`{}`, 0, true},
	}

	for _, tc := range testCases {
		var f FlexFloat
		err := json.Unmarshal([]byte(tc.in), &f)
		if (err != nil) != tc.wantErr {
			t.Errorf("Unmarshal(%s) error = %v; wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if !tc.wantErr && float64(f) != tc.want {
			t.Errorf("Unmarshal(%s) = %v; want %v", tc.in, f, tc.want)
		}
	}
}

func TestPathClone(t *testing.T) {
	p := Path{{Lat: 1, Lng: 2}, {Lat: 3, Lng: 4}}
	c := p.Clone()
	c[0].Lat = 9

	if p[0].Lat != 1 {
		t.Error("Clone shares backing storage")
	}
	if !p.Equal(PathFromCoords(p.Coords())) {
		t.Error("Coords round trip changed the path")
	}
}
