package report

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractedReportToleratesPartialData(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"empty", `{}`},
		{"header only", `{"patient_name":"Jane Doe","lab_name":"Acme Labs"}`},
		{"lipid only", `{"lipid_panel":{"hdl_cholesterol":{"value":52.1,"unit":"mg/dL"}}}`},
		{"empty panels", `{"lipid_panel":{},"thyroid_profile":{},"urine_analysis":{},"nutritional_deficiency":{}}`},
		{"flag without value", `{"thyroid_profile":{"tsh":{"flag":"H","reference_range":"0.4-4.0"}}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var r ExtractedReport
			require.NoError(t, json.Unmarshal([]byte(tc.raw), &r))

			// Absent fields stay absent through a round trip
			out, err := json.Marshal(r)
			require.NoError(t, err)
			var again ExtractedReport
			require.NoError(t, json.Unmarshal(out, &again))
			assert.Equal(t, r, again)
		})
	}
}

func TestExtractedReportOmitsAbsentFields(t *testing.T) {
	out, err := json.Marshal(ExtractedReport{})
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(out))
}

func TestBiomarkerAbnormal(t *testing.T) {
	high := FlagHigh
	low := FlagLow

	var nilMarker *Biomarker
	assert.False(t, nilMarker.Abnormal())
	assert.False(t, (&Biomarker{}).Abnormal())
	assert.True(t, (&Biomarker{Flag: &high}).Abnormal())
	assert.True(t, (&Biomarker{Flag: &low}).Abnormal())
}
