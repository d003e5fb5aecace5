package moderation

import "time"

// Rule is one tier of the escalation table: a report-count threshold over a
// trailing time window. A zero Window means the threshold applies to the
// all-time total.
type Rule struct {
	ID        RuleID
	Threshold int
	Window    time.Duration
	Status    ModerationStatus
}

// RulesBySeverity is the escalation table in evaluation order: most severe
// first, first match wins. A burst that satisfies R4 must never be downgraded
// to a narrower-window tier, so the unbounded rule is checked before the
// windowed ones.
var RulesBySeverity = []Rule{
	{ID: RuleR4, Threshold: 1000, Window: 0, Status: StatusAutoDeletedAbsolute},
	{ID: RuleR3, Threshold: 100, Window: time.Hour, Status: StatusAutoDeletedMassReports},
	{ID: RuleR2, Threshold: 10, Window: 5 * time.Minute, Status: StatusRemovedHighRisk},
	{ID: RuleR1, Threshold: 4, Window: 30 * time.Second, Status: StatusHiddenPendingReview},
}

// RuleByID returns the rule for the given ID, or nil for unknown and manual
// tags.
func RuleByID(id RuleID) *Rule {
	for i := range RulesBySeverity {
		if RulesBySeverity[i].ID == id {
			return &RulesBySeverity[i]
		}
	}
	return nil
}

// Evaluation is the outcome of one rule-engine pass. Rule is empty when no
// tier fired, which is the common case and not an error.
type Evaluation struct {
	Rule            RuleID
	Status          ModerationStatus
	TotalReports    int
	ReportsInWindow int
}

// Evaluate runs the escalation table against the full report history of a
// single confession. timestamps are millisecond report times; nowMs is the
// evaluation time and must be the same value persisted with the triggering
// report, so a report always falls inside its own evaluation window.
//
// Evaluate is pure: no clock, no I/O, never errors. Windows are trailing
// (nowMs - ts <= window), and thresholds are inclusive. The O(n) scan per
// rule is deliberate; per-item report volume is small.
func Evaluate(timestamps []int64, nowMs int64) Evaluation {
	eval := Evaluation{TotalReports: len(timestamps)}

	for _, rule := range RulesBySeverity {
		if rule.Window == 0 {
			if eval.TotalReports >= rule.Threshold {
				eval.Rule = rule.ID
				eval.Status = rule.Status
				return eval
			}
			continue
		}

		n := countInWindow(timestamps, nowMs, rule.Window.Milliseconds())
		if n >= rule.Threshold {
			eval.Rule = rule.ID
			eval.Status = rule.Status
			eval.ReportsInWindow = n
			return eval
		}
	}

	return eval
}

func countInWindow(timestamps []int64, nowMs, windowMs int64) int {
	count := 0
	for _, ts := range timestamps {
		if nowMs-ts <= windowMs {
			count++
		}
	}
	return count
}
