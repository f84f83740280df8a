package attendance

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klabast/wb-services/attendance/internal/events"
)

func TestExportImportRoundTrip(t *testing.T) {
	reg, _, _, clock := newTestRegistry(t, "2024-03-01")
	for _, name := range []string{"Math", "Physics", "Empty"} {
		_, err := reg.AddSubject(name)
		require.NoError(t, err)
	}
	for i, status := range []Status{StatusPresent, StatusAbsent, StatusPresent} {
		require.NoError(t, reg.SetTodayStatus("Math", status))
		if i%2 == 0 {
			require.NoError(t, reg.SetTodayStatus("Physics", StatusAbsent))
		}
		clock.t = clock.t.AddDate(0, 0, 1)
	}

	original, err := reg.Classes()
	require.NoError(t, err)

	exported, err := reg.ExportAll()
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(exported), "\n  \"Empty\": {"), "export should be pretty-printed")

	other, _, _, _ := newTestRegistry(t, "2024-03-10")
	n, err := other.ImportAll(exported)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	imported, err := other.Classes()
	require.NoError(t, err)
	if diff := cmp.Diff(original, imported); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestImportNormalizesMalformedSubjects(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    Classes
	}{
		{
			name:    "records not an array",
			payload: `{"Phys": {"records": "not-an-array"}}`,
			want:    Classes{"Phys": {Records: []Record{}}},
		},
		{
			name:    "records missing",
			payload: `{"Phys": {}}`,
			want:    Classes{"Phys": {Records: []Record{}}},
		},
		{
			name:    "subject not an object",
			payload: `{"Phys": 42, "Chem": null}`,
			want:    Classes{"Phys": {Records: []Record{}}, "Chem": {Records: []Record{}}},
		},
		{
			name:    "bad records dropped",
			payload: `{"Math": {"records": [{"date":"2024-03-01","status":"present"},{"date":"03/02/2024","status":"present"},{"date":"2024-03-03","status":"late"},7]}}`,
			want:    Classes{"Math": {Records: []Record{{Date: "2024-03-01", Status: StatusPresent}}}},
		},
		{
			name:    "status casing normalized",
			payload: `{"Math": {"records": [{"date":"2024-03-01","status":"Absent"}]}}`,
			want:    Classes{"Math": {Records: []Record{{Date: "2024-03-01", Status: StatusAbsent}}}},
		},
		{
			name:    "duplicate date keeps position, takes later status",
			payload: `{"Math": {"records": [{"date":"2024-03-01","status":"present"},{"date":"2024-03-02","status":"present"},{"date":"2024-03-01","status":"absent"}]}}`,
			want: Classes{"Math": {Records: []Record{
				{Date: "2024-03-01", Status: StatusAbsent},
				{Date: "2024-03-02", Status: StatusPresent},
			}}},
		},
		{
			name:    "blank name dropped",
			payload: `{"  ": {"records": []}, "Art": {"records": []}}`,
			want:    Classes{"Art": {Records: []Record{}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, _, _, _ := newTestRegistry(t, "2024-03-01")
			_, err := reg.ImportAll([]byte(tt.payload))
			require.NoError(t, err)

			got, err := reg.Classes()
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("import mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestImportRejectsNonObject(t *testing.T) {
	reg, _, bus, _ := newTestRegistry(t, "2024-03-01")
	_, err := reg.AddSubject("Math")
	require.NoError(t, err)
	require.NoError(t, reg.SetTodayStatus("Math", StatusPresent))
	before, err := reg.ExportAll()
	require.NoError(t, err)

	changes := 0
	bus.Subscribe(func(events.Change) { changes++ })

	for _, payload := range []string{``, `null`, `[]`, `"Math"`, `{"Math":`, `42`} {
		_, err := reg.ImportAll([]byte(payload))
		assert.ErrorIs(t, err, ErrInvalidImport, "payload %q", payload)
	}

	after, err := reg.ExportAll()
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
	assert.Equal(t, 0, changes)
}

func TestImportReplacesRegistry(t *testing.T) {
	reg, _, _, _ := newTestRegistry(t, "2024-03-01")
	_, err := reg.AddSubject("Old")
	require.NoError(t, err)

	_, err = reg.ImportAll([]byte(`{"New": {"records": []}}`))
	require.NoError(t, err)

	classes, err := reg.Classes()
	require.NoError(t, err)
	assert.Equal(t, []string{"New"}, classes.Names())
}

func TestExportEmptyRegistry(t *testing.T) {
	reg, _, _, _ := newTestRegistry(t, "2024-03-01")
	data, err := reg.ExportAll()
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestStoredShape(t *testing.T) {
	reg, store, _, _ := newTestRegistry(t, "2024-03-01")
	_, err := reg.AddSubject("Math")
	require.NoError(t, err)
	require.NoError(t, reg.SetTodayStatus("Math", StatusAbsent))

	raw, ok, err := store.Get(KeyClasses)
	require.NoError(t, err)
	require.True(t, ok)

	var decoded map[string]map[string][]map[string]string
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, []map[string]string{{"date": "2024-03-01", "status": "absent"}}, decoded["Math"]["records"])
}

func TestParseDaily(t *testing.T) {
	got, err := ParseDaily([]byte(`{"2024-03-01":"Present","2024-03-02":"absent","2024-03-03":"maybe","bogus":"present","2024-03-04":1}`))
	require.NoError(t, err)
	assert.Equal(t, DailyMap{"2024-03-01": StatusPresent, "2024-03-02": StatusAbsent}, got)

	_, err = ParseDaily([]byte(`[]`))
	assert.Error(t, err)
	_, err = ParseDaily([]byte(`null`))
	assert.Error(t, err)
}
