package domain

// FieldMeta is the per-path interaction record for a single field.
// Absent paths imply DefaultFieldMeta(), so the metas map only holds
// fields that were actually touched.
type FieldMeta struct {
	Touched  bool `json:"touched"`
	Dirty    bool `json:"dirty"`
	Loading  bool `json:"loading"`
	Disabled bool `json:"disabled"`
	ReadOnly bool `json:"readOnly"`
	Show     bool `json:"show"`
}

// DefaultFieldMeta returns the meta record implied by an absent path:
// visible, otherwise untouched.
func DefaultFieldMeta() FieldMeta {
	return FieldMeta{Show: true}
}

// FormStatus tracks the form-level in-flight operations. The booleans are
// independent: overlapping calls may set several at once.
type FormStatus struct {
	Initializing bool `json:"initializing"`
	Submitting   bool `json:"submitting"`
	Validating   bool `json:"validating"`
	SettingState bool `json:"settingState"`
	SettingMeta  bool `json:"settingMeta"`
}

// FieldStatus tracks in-flight operations scoped to a single path.
type FieldStatus struct {
	SettingValue bool `json:"isSettingValue"`
	SettingMeta  bool `json:"isSettingMeta"`
}

// Errors is the published validation outcome. It is rebuilt wholesale on
// every validation pass, never merged incrementally.
type Errors struct {
	// FieldErrors maps a dotted path to its ordered messages.
	FieldErrors map[string][]string `json:"fieldErrors"`

	// FormErrors holds messages that do not belong to any single field.
	FormErrors []string `json:"formErrors"`
}

// IsZero reports whether no errors are recorded.
func (e Errors) IsZero() bool {
	return len(e.FieldErrors) == 0 && len(e.FormErrors) == 0
}

// Field returns the messages recorded for a path, or nil.
func (e Errors) Field(path string) []string {
	return e.FieldErrors[path]
}

// Copy returns a deep copy, so callers cannot alter the published outcome.
func (e Errors) Copy() Errors {
	out := Errors{}
	if e.FieldErrors != nil {
		out.FieldErrors = make(map[string][]string, len(e.FieldErrors))
		for p, msgs := range e.FieldErrors {
			out.FieldErrors[p] = append([]string(nil), msgs...)
		}
	}
	if e.FormErrors != nil {
		out.FormErrors = append([]string(nil), e.FormErrors...)
	}
	return out
}

// Report is the result of a validation pass. Valid=false is a first-class
// outcome, not an error: validator infrastructure failures are returned
// separately by Validator.Validate.
type Report struct {
	// Valid indicates the state conforms to the schema.
	Valid bool

	// Data is the coerced/validated state on success. A nil Data on a
	// valid report means the input state passes through unchanged.
	Data any

	FieldErrors map[string][]string
	FormErrors  []string
}

// Errors converts the report into the published Errors shape. A valid
// report yields the zero value.
func (r Report) Errors() Errors {
	if r.Valid {
		return Errors{}
	}
	return Errors{FieldErrors: r.FieldErrors, FormErrors: r.FormErrors}
}

// ValidReport returns a passing report carrying the given data.
func ValidReport(data any) Report {
	return Report{Valid: true, Data: data}
}
