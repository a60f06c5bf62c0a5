package reconcile

// Snapshot is an immutable, ordered set of rows keyed by student id.
// The zero value is an empty snapshot.
type Snapshot struct {
	order []int64
	rows  map[int64]Row
}

// NewSnapshot builds a snapshot in the given order. A repeated student id
// keeps its first position and its last value.
func NewSnapshot(rows []Row) Snapshot {
	s := Snapshot{
		order: make([]int64, 0, len(rows)),
		rows:  make(map[int64]Row, len(rows)),
	}
	for _, r := range rows {
		if _, seen := s.rows[r.ID()]; !seen {
			s.order = append(s.order, r.ID())
		}
		s.rows[r.ID()] = r
	}
	return s
}

// Len returns the number of rows.
func (s Snapshot) Len() int { return len(s.order) }

// Get returns the row for id.
func (s Snapshot) Get(id int64) (Row, bool) {
	r, ok := s.rows[id]
	return r, ok
}

// Rows returns the rows in display order. The slice is a copy.
func (s Snapshot) Rows() []Row {
	out := make([]Row, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.rows[id])
	}
	return out
}

// With returns a snapshot where the row keyed by r.ID() is replaced by r.
// Rows not already present are not added; ok reports whether a row was
// replaced. The receiver is left untouched.
func (s Snapshot) With(r Row) (Snapshot, bool) {
	if _, ok := s.rows[r.ID()]; !ok {
		return s, false
	}
	next := make(map[int64]Row, len(s.rows))
	for id, row := range s.rows {
		next[id] = row
	}
	next[r.ID()] = r
	return Snapshot{order: s.order, rows: next}, true
}

// Equal reports whether both snapshots hold the same rows in the same order.
func (s Snapshot) Equal(o Snapshot) bool {
	if len(s.order) != len(o.order) {
		return false
	}
	for i, id := range s.order {
		if o.order[i] != id {
			return false
		}
		a, b := s.rows[id], o.rows[id]
		if !rowsEqual(a, b) {
			return false
		}
	}
	return true
}

func rowsEqual(a, b Row) bool {
	return a.Student.ID == b.Student.ID &&
		a.Student.NIS == b.Student.NIS &&
		a.Student.Name == b.Student.Name &&
		a.Student.ClassName == b.Student.ClassName &&
		a.Status == b.Status &&
		a.ScanTime.Equal(b.ScanTime) &&
		a.Manual == b.Manual
}
