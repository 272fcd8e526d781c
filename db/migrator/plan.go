package migrator

import "database/sql"

// NewPlan computes the ordered steps needed to move the schema from the source
// version to the target version. If target is unset, the latest version in
// the sequence is used. A target of -1 reverts all migrations.
//
// Moving up applies the up scripts of source+1 through target, in ascending
// order. Moving down applies the down scripts of source through target+1, in
// descending order.
func NewPlan(seq *Sequence, source int, target sql.Null[int]) (Plan, error) {
	to := seq.Latest()
	if target.Valid {
		to = target.V
	}

	if to < -1 || to > seq.Latest() {
		return Plan{}, UnreachableTargetError{Target: to, Latest: seq.Latest()}
	}

	plan := Plan{Source: source, Target: to}
	switch {
	case source < to:
		for i := source + 1; i <= to; i++ {
			step, err := newStep(seq, i, Up)
			if err != nil {
				return Plan{}, err
			}
			plan.Steps = append(plan.Steps, step)
		}
	case source > to:
		for i := source; i > to; i-- {
			step, err := newStep(seq, i, Down)
			if err != nil {
				return Plan{}, err
			}
			plan.Steps = append(plan.Steps, step)
		}
	}

	return plan, nil
}

func newStep(seq *Sequence, idx int, dir Direction) (Step, error) {
	m, ok := seq.Get(idx)
	if !ok {
		return Step{}, MissingStepError{Index: idx}
	}
	script, path := m.Script(dir)

	return Step{Index: idx, Direction: dir, Script: script, Path: path}, nil
}
