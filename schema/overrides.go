package schema

import "sort"

// ============================================================================
// OVERRIDES — Config-driven column adjustments
// ============================================================================
// Discovery and the step catalog produce a draft Table. Operators can rename
// headers, retype or hide columns, and attach renderers from the config file
// without touching code. The draft is never mutated.
//
// Rules:
//   - Overrides cannot add columns or change keys
//   - Unknown keys are ignored and reported
//   - An invalid Kind leaves the column's kind as it was
// ============================================================================

// ColumnOverride adjusts a single column. Nil/zero fields keep the draft value.
type ColumnOverride struct {
	Header     string `json:"header,omitempty" mapstructure:"header"`
	Kind       Kind   `json:"kind,omitempty" mapstructure:"kind"`
	Sortable   *bool  `json:"sortable,omitempty" mapstructure:"sortable"`
	Filterable *bool  `json:"filterable,omitempty" mapstructure:"filterable"`
	Width      int    `json:"width,omitempty" mapstructure:"width"`
	Render     string `json:"render,omitempty" mapstructure:"render"`
	Hidden     bool   `json:"hidden,omitempty" mapstructure:"hidden"`
}

// ApplyOverrides returns a copy of draft with overrides merged in, plus the
// override keys that matched no column.
func ApplyOverrides(draft Table, overrides map[string]ColumnOverride) (Table, []string) {
	result := Table{Name: draft.Name, Columns: make([]ColumnSpec, 0, len(draft.Columns))}
	matched := make(map[string]bool, len(overrides))

	for _, c := range draft.Columns {
		o, ok := overrides[c.Key]
		if !ok {
			result.Columns = append(result.Columns, c)
			continue
		}
		matched[c.Key] = true
		if o.Hidden {
			continue
		}
		if o.Header != "" {
			c.Header = o.Header
		}
		if o.Kind != "" && o.Kind.Valid() {
			c.Kind = o.Kind
		}
		if o.Sortable != nil {
			c.Sortable = *o.Sortable
		}
		if o.Filterable != nil {
			c.Filterable = *o.Filterable
		}
		if o.Width > 0 {
			c.Width = o.Width
		}
		if o.Render != "" {
			c.Render = o.Render
		}
		result.Columns = append(result.Columns, c)
	}

	var unknown []string
	for key := range overrides {
		if !matched[key] {
			unknown = append(unknown, key)
		}
	}
	sort.Strings(unknown)
	return result, unknown
}
