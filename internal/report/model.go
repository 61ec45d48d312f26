package report

// Extracted lab-report schema. Extraction upstream is best-effort, so
// every field is optional and any subset may be absent.

// Biomarker flags as they appear on lab reports
const (
	FlagHigh = "H"
	FlagLow  = "L"
)

// Biomarker is one lab measurement
type Biomarker struct {
	Value          *float64 `json:"value,omitempty"`
	Unit           *string  `json:"unit,omitempty"`
	Flag           *string  `json:"flag,omitempty"` // FlagHigh, FlagLow, or absent for normal
	ReferenceRange *string  `json:"reference_range,omitempty"`
}

// Abnormal reports whether the measurement was flagged high or low
func (b *Biomarker) Abnormal() bool {
	if b == nil || b.Flag == nil {
		return false
	}
	return *b.Flag == FlagHigh || *b.Flag == FlagLow
}

// LipidPanel holds lipid profile / cholesterol test results
type LipidPanel struct {
	TotalCholesterol *Biomarker `json:"total_cholesterol,omitempty"`
	Triglycerides    *Biomarker `json:"triglycerides,omitempty"`
	HDLCholesterol   *Biomarker `json:"hdl_cholesterol,omitempty"`
	LDLCholesterol   *Biomarker `json:"ldl_cholesterol,omitempty"`
	VLDLCholesterol  *Biomarker `json:"vldl_cholesterol,omitempty"`
	TCHDLRatio       *float64   `json:"tc_hdl_ratio,omitempty"`
}

// ThyroidProfile holds thyroid function test results
type ThyroidProfile struct {
	TSH     *Biomarker `json:"tsh,omitempty"`
	T3Total *Biomarker `json:"t3_total,omitempty"`
	T4Total *Biomarker `json:"t4_total,omitempty"`
	FreeT3  *Biomarker `json:"free_t3,omitempty"`
	FreeT4  *Biomarker `json:"free_t4,omitempty"`
}

// UrineAnalysis holds urinalysis / urine routine test results.
// These are qualitative, so values are plain strings and numbers.
type UrineAnalysis struct {
	Color           *string  `json:"color,omitempty"`
	Appearance      *string  `json:"appearance,omitempty"`
	PH              *float64 `json:"ph,omitempty"`
	SpecificGravity *float64 `json:"specific_gravity,omitempty"`
	Protein         *string  `json:"protein,omitempty"`
	Glucose         *string  `json:"glucose,omitempty"`
	Ketones         *string  `json:"ketones,omitempty"`
	Blood           *string  `json:"blood,omitempty"`
	Nitrite         *string  `json:"nitrite,omitempty"`
	RBC             *string  `json:"rbc,omitempty"` // per HPF
	WBC             *string  `json:"wbc,omitempty"` // per HPF
	EpithelialCells *string  `json:"epithelial_cells,omitempty"`
}

// NutritionalDeficiency holds vitamin and mineral test results
type NutritionalDeficiency struct {
	VitaminD   *Biomarker `json:"vitamin_d,omitempty"`
	VitaminB12 *Biomarker `json:"vitamin_b12,omitempty"`
	Iron       *Biomarker `json:"iron,omitempty"`
	Ferritin   *Biomarker `json:"ferritin,omitempty"`
	Calcium    *Biomarker `json:"calcium,omitempty"`
	Hemoglobin *Biomarker `json:"hemoglobin,omitempty"`
}

// ExtractedReport aggregates whatever panels could be read from a report
type ExtractedReport struct {
	PatientName           *string                `json:"patient_name,omitempty"`
	ReportDate            *string                `json:"report_date,omitempty"`
	LabName               *string                `json:"lab_name,omitempty"`
	LipidPanel            *LipidPanel            `json:"lipid_panel,omitempty"`
	ThyroidProfile        *ThyroidProfile        `json:"thyroid_profile,omitempty"`
	UrineAnalysis         *UrineAnalysis         `json:"urine_analysis,omitempty"`
	NutritionalDeficiency *NutritionalDeficiency `json:"nutritional_deficiency,omitempty"`
}
