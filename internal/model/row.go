package model

// Row is one reconciled entry of a partition view
type Row struct {
	Position  int    `json:"position"` // insertion hint, not an identity
	Name      string `json:"name"`
	Avail     string `json:"avail"`      // "up" | "down"
	TimeLimit string `json:"time_limit"` // "infinite" or formatted duration
	NodeCount string `json:"node_count"`
	NodeList  string `json:"node_list"`

	touched bool
}

// Availability labels
const (
	AvailUp   = "up"
	AvailDown = "down"
)

// Touched reports whether the row was seen in the current reconcile cycle
func (r *Row) Touched() bool {
	return r.touched
}

// SetTouched marks or clears the row for the current reconcile cycle
func (r *Row) SetTouched(v bool) {
	r.touched = v
}
