package aggregate

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Pair is the composite key of a Contingency table.
type Pair struct {
	Row string
	Col string
}

// Contingency maps (row, col) pairs to observation counts. Only observed pairs
// are stored; Get returns 0 for anything else.
type Contingency map[Pair]int

func (c Contingency) add(row, col string, n int) {
	c[Pair{Row: row, Col: col}] += n
}

// Get returns the count for (row, col).
func (c Contingency) Get(row, col string) int {
	return c[Pair{Row: row, Col: col}]
}

// Col returns row -> count for one column value.
func (c Contingency) Col(col string) map[string]int {
	out := map[string]int{}
	for p, n := range c {
		if p.Col == col {
			out[p.Row] = n
		}
	}
	return out
}

// Rows returns the distinct row values in ascending order.
func (c Contingency) Rows() []string {
	return sortedKeys(c, func(p Pair) string { return p.Row })
}

// Cols returns the distinct column values in ascending order.
func (c Contingency) Cols() []string {
	return sortedKeys(c, func(p Pair) string { return p.Col })
}

// Total returns the sum of all cells.
func (c Contingency) Total() int {
	t := 0
	for _, n := range c {
		t += n
	}
	return t
}

// MarshalJSON encodes the table as {"row": {"col": n}}.
func (c Contingency) MarshalJSON() ([]byte, error) {
	nested := make(map[string]map[string]int, len(c))
	for p, n := range c {
		m, ok := nested[p.Row]
		if !ok {
			m = map[string]int{}
			nested[p.Row] = m
		}
		m[p.Col] = n
	}
	return json.Marshal(nested)
}

// UnmarshalJSON decodes the nested form written by MarshalJSON.
func (c *Contingency) UnmarshalJSON(b []byte) error {
	var nested map[string]map[string]int
	if err := json.Unmarshal(b, &nested); err != nil {
		return err
	}
	out := Contingency{}
	for row, cols := range nested {
		for col, n := range cols {
			out[Pair{Row: row, Col: col}] = n
		}
	}
	*c = out
	return nil
}

func sortedKeys(c Contingency, key func(Pair) string) []string {
	seen := map[string]struct{}{}
	for p := range c {
		seen[key(p)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// LinkCounts classifies solved rows by evidence presence.
type LinkCounts struct {
	HasLink int `json:"has-link"`
	NoLink  int `json:"no-link"`
}

// Total returns HasLink + NoLink.
func (l LinkCounts) Total() int { return l.HasLink + l.NoLink }

// Bucket is one entry of a Distribution.
type Bucket struct {
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// Distribution maps a coerced rating to the number of rows carrying it.
type Distribution map[float64]int

// Sorted returns the buckets ordered by ascending value.
func (d Distribution) Sorted() []Bucket {
	out := make([]Bucket, 0, len(d))
	for v, n := range d {
		out = append(out, Bucket{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}

// Total returns the sum of all bucket counts.
func (d Distribution) Total() int {
	t := 0
	for _, n := range d {
		t += n
	}
	return t
}

// MarshalJSON encodes the distribution as its ascending bucket list; JSON
// objects cannot carry float keys.
func (d Distribution) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Sorted())
}

// UnmarshalJSON decodes the bucket list written by MarshalJSON.
func (d *Distribution) UnmarshalJSON(b []byte) error {
	var buckets []Bucket
	if err := json.Unmarshal(b, &buckets); err != nil {
		return err
	}
	out := Distribution{}
	for _, bk := range buckets {
		out[bk.Value] += bk.Count
	}
	*d = out
	return nil
}

// ClarityStat accumulates valid clarity scores for one instructor. Shards
// merge by adding Sum and Count; the mean is derived on demand.
type ClarityStat struct {
	Sum   float64 `json:"sum"`
	Count int     `json:"count"`
}

// Mean returns Sum/Count; ok is false when Count is zero.
func (s ClarityStat) Mean() (float64, bool) {
	if s.Count == 0 {
		return 0, false
	}
	return s.Sum / float64(s.Count), true
}

// InstructorClarity maps instructor to accumulated clarity.
type InstructorClarity map[string]ClarityStat

// Averages returns instructor -> mean clarity, unsorted. Instructors without a
// valid clarity value are absent.
func (ic InstructorClarity) Averages() map[string]float64 {
	out := make(map[string]float64, len(ic))
	for name, st := range ic {
		if m, ok := st.Mean(); ok {
			out[name] = m
		}
	}
	return out
}

// SortOrder selects the ordering of SortedAverages.
type SortOrder int

const (
	// Descending orders by highest average first.
	Descending SortOrder = iota
	// Ascending orders by lowest average first.
	Ascending
)

// ParseSortOrder maps "asc"/"ascending" to Ascending and everything else,
// including "", to Descending.
func ParseSortOrder(s string) SortOrder {
	switch s {
	case "asc", "ascending":
		return Ascending
	}
	return Descending
}

// InstructorAverage is one row of SortedAverages.
type InstructorAverage struct {
	Instructor string  `json:"instructor"`
	Average    float64 `json:"average"`
	Count      int     `json:"count"`
}

// SortedAverages returns the averages ordered by average in the given order.
// Equal averages are ordered by instructor name ascending so the result is
// deterministic.
func (ic InstructorClarity) SortedAverages(order SortOrder) []InstructorAverage {
	out := make([]InstructorAverage, 0, len(ic))
	for name, st := range ic {
		m, ok := st.Mean()
		if !ok {
			continue
		}
		out = append(out, InstructorAverage{Instructor: name, Average: m, Count: st.Count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Average != out[j].Average {
			if order == Ascending {
				return out[i].Average < out[j].Average
			}
			return out[i].Average > out[j].Average
		}
		return out[i].Instructor < out[j].Instructor
	})
	return out
}

// Warning codes attached to a Report.
const (
	WarnNegativeWithoutEvidence = "negative_solved_poor_without_evidence"
	WarnUnclassifiedStatus      = "unclassified_status"
)

// Warning flags a data-consistency anomaly. Warnings never fail a pass.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   int    `json:"value"`
}

// Summary is the flat record of scalar metrics. TotalRows, MissingStatus,
// MissingRating and EvidenceCount are accumulated per row; every other field
// is derived from the report tables.
type Summary struct {
	TotalRows                 int `json:"total_rows"`
	TotalGroups               int `json:"total_groups"`
	Solved                    int `json:"solved"`
	FollowUp                  int `json:"follow_up"`
	NotSolved                 int `json:"not_solved"`
	Unclassified              int `json:"unclassified"`
	MissingStatus             int `json:"missing_status"`
	MissingRating             int `json:"missing_rating"`
	PoorFeedback              int `json:"poor_feedback"`
	SolvedPoor                int `json:"solved_poor"`
	LinksAmongPoor            int `json:"links_among_poor"`
	EvidenceCount             int `json:"evidence"`
	SolvedWithLink            int `json:"solved_with_link"`
	SolvedWithoutLink         int `json:"solved_without_link"`
	SolvedPoorWithoutEvidence int `json:"solved_poor_without_evidence"`
}

// Report is the result of one aggregation pass. It is a value: nothing in it
// aliases the input table.
type Report struct {
	// StatusByGroup is (group, status) -> count over recognized statuses.
	StatusByGroup Contingency `json:"status_by_group"`
	// Statuses is normalized status -> count, recognized or not, regardless
	// of group.
	Statuses map[string]int `json:"statuses"`
	// Groups is group -> row count over all rows with a group.
	Groups map[string]int `json:"groups"`
	// Links classifies rows whose status is solved.
	Links LinkCounts `json:"links"`
	// Ratings is the distribution of coerced ratings.
	Ratings Distribution `json:"ratings"`

	PoorFeedbackCount   int `json:"poor_feedback_count"`
	SolvedPoorCount     int `json:"solved_poor_count"`
	LinksAmongPoorCount int `json:"links_among_poor_count"`

	// InstructorClarity and InstructorGroups are empty unless the mapping
	// binds an instructor column.
	InstructorClarity InstructorClarity `json:"instructor_clarity"`
	InstructorGroups  Contingency       `json:"instructor_groups"`

	Summary  Summary   `json:"summary"`
	Warnings []Warning `json:"warnings,omitempty"`
}

func newReport() *Report {
	return &Report{
		StatusByGroup:     Contingency{},
		Statuses:          map[string]int{},
		Groups:            map[string]int{},
		Ratings:           Distribution{},
		InstructorClarity: InstructorClarity{},
		InstructorGroups:  Contingency{},
	}
}

// CountByStatusPerGroup returns group -> count for one status. The argument is
// normalized first, so "Solved " and "solved" are the same query.
func (r *Report) CountByStatusPerGroup(status string) map[string]int {
	s, ok := NormalizeStatus(status)
	if !ok {
		return map[string]int{}
	}
	return r.StatusByGroup.Col(s)
}

// finalize recomputes every derived Summary field and the warnings.
func (r *Report) finalize() {
	s := &r.Summary
	s.TotalGroups = len(r.Groups)
	s.Solved = r.Statuses[StatusSolved]
	s.FollowUp = r.Statuses[StatusFollowUp]
	s.NotSolved = r.Statuses[StatusNotSolved]
	s.Unclassified = 0
	for st, n := range r.Statuses {
		if !IsKnownStatus(st) {
			s.Unclassified += n
		}
	}
	s.PoorFeedback = r.PoorFeedbackCount
	s.SolvedPoor = r.SolvedPoorCount
	s.LinksAmongPoor = r.LinksAmongPoorCount
	s.SolvedWithLink = r.Links.HasLink
	s.SolvedWithoutLink = r.Links.NoLink

	r.Warnings = nil
	if s.Unclassified > 0 {
		r.Warnings = append(r.Warnings, Warning{
			Code:    WarnUnclassifiedStatus,
			Message: fmt.Sprintf("%d rows carry a status outside %v", s.Unclassified, KnownStatuses),
			Value:   s.Unclassified,
		})
	}
	without := s.SolvedPoor - s.LinksAmongPoor
	if without < 0 {
		r.Warnings = append(r.Warnings, Warning{
			Code: WarnNegativeWithoutEvidence,
			Message: fmt.Sprintf("solved poor rows (%d) fewer than poor rows with evidence (%d); clamped to 0",
				s.SolvedPoor, s.LinksAmongPoor),
			Value: without,
		})
		without = 0
	}
	s.SolvedPoorWithoutEvidence = without
}

// Merge combines reports computed over disjoint row sets into a new report.
// Counts are summed per key and clarity is combined as (sum, count) pairs, so
// Merge(Aggregate(a), Aggregate(b)) equals Aggregate(a ∪ b). Nil reports are
// skipped and the inputs are not modified.
func Merge(reports ...*Report) *Report {
	out := newReport()
	for _, r := range reports {
		if r == nil {
			continue
		}
		for p, n := range r.StatusByGroup {
			out.StatusByGroup[p] += n
		}
		for k, n := range r.Statuses {
			out.Statuses[k] += n
		}
		for k, n := range r.Groups {
			out.Groups[k] += n
		}
		out.Links.HasLink += r.Links.HasLink
		out.Links.NoLink += r.Links.NoLink
		for v, n := range r.Ratings {
			out.Ratings[v] += n
		}
		out.PoorFeedbackCount += r.PoorFeedbackCount
		out.SolvedPoorCount += r.SolvedPoorCount
		out.LinksAmongPoorCount += r.LinksAmongPoorCount
		for name, st := range r.InstructorClarity {
			acc := out.InstructorClarity[name]
			acc.Sum += st.Sum
			acc.Count += st.Count
			out.InstructorClarity[name] = acc
		}
		for p, n := range r.InstructorGroups {
			out.InstructorGroups[p] += n
		}
		out.Summary.TotalRows += r.Summary.TotalRows
		out.Summary.MissingStatus += r.Summary.MissingStatus
		out.Summary.MissingRating += r.Summary.MissingRating
		out.Summary.EvidenceCount += r.Summary.EvidenceCount
	}
	out.finalize()
	return out
}
