package models

// Metric names produced for every cell.
const (
	MetricSessionMinutes = "session_minutes"
	MetricCompleted      = "completed_count"
	MetricBinge          = "binge_count"
	MetricRecommended    = "is_recommended_count"
)

// Schema names the input columns that carry a role in the cube.
type Schema struct {
	EntityField      string `json:"entity_field"`
	TimeField        string `json:"time_field"`
	CategoryField    string `json:"category_field"`
	DurationField    string `json:"duration_field"`
	CompletedField   string `json:"completed_field"`
	BingeField       string `json:"binge_field"`
	RecommendedField string `json:"recommended_field"`
}

// DefaultSchema matches the session export format:
// user_id,hour,day_type,device,content_type,session_minutes,recommended,completed,is_binge
func DefaultSchema() Schema {
	return Schema{
		EntityField:      "user_id",
		TimeField:        "hour",
		CategoryField:    "content_type",
		DurationField:    "session_minutes",
		CompletedField:   "completed",
		BingeField:       "is_binge",
		RecommendedField: "recommended",
	}
}

// WithDefaults fills empty field names from DefaultSchema.
func (s Schema) WithDefaults() Schema {
	d := DefaultSchema()
	if s.EntityField == "" {
		s.EntityField = d.EntityField
	}
	if s.TimeField == "" {
		s.TimeField = d.TimeField
	}
	if s.CategoryField == "" {
		s.CategoryField = d.CategoryField
	}
	if s.DurationField == "" {
		s.DurationField = d.DurationField
	}
	if s.CompletedField == "" {
		s.CompletedField = d.CompletedField
	}
	if s.BingeField == "" {
		s.BingeField = d.BingeField
	}
	if s.RecommendedField == "" {
		s.RecommendedField = d.RecommendedField
	}
	return s
}

// AlwaysText reports whether a field is an identifier that must never be
// coerced to a number.
func (s Schema) AlwaysText(field string) bool {
	return field == s.EntityField || field == s.TimeField
}
