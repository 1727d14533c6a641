package pricing

import (
	"github.com/BurakkYuce/rental-backend/internal/calendar"
	"github.com/BurakkYuce/rental-backend/internal/domain"
)

type span struct {
	rule  domain.SeasonalRule
	start calendar.Date
	end   calendar.Date
	err   error
}

// RuleSet is a read-only snapshot of a car's seasonal rules, in stored order.
type RuleSet struct {
	spans []span
}

func NewRuleSet(rules []domain.SeasonalRule) RuleSet {
	spans := make([]span, 0, len(rules))
	for _, rule := range rules {
		s := span{rule: rule}
		if s.start, s.err = calendar.Parse(rule.StartDate); s.err == nil {
			s.end, s.err = calendar.Parse(rule.EndDate)
		}
		spans = append(spans, s)
	}
	return RuleSet{spans: spans}
}

func (rs RuleSet) Len() int { return len(rs.spans) }

// Cover returns the first rule in stored order whose inclusive range contains
// date. Overlapping rules are not rejected here; the earlier one wins.
func (rs RuleSet) Cover(date calendar.Date) (domain.SeasonalRule, bool) {
	for _, s := range rs.spans {
		if s.err != nil {
			continue
		}
		if date.Within(s.start, s.end) {
			return s.rule, true
		}
	}
	return domain.SeasonalRule{}, false
}

// Overlap names two rules that both cover From..To. First precedes Second in
// stored order, so First shadows Second on those days.
type Overlap struct {
	First  string        `json:"first"`
	Second string        `json:"second"`
	From   calendar.Date `json:"from"`
	To     calendar.Date `json:"to"`
}

func (rs RuleSet) Overlaps() []Overlap {
	var out []Overlap
	for i := 0; i < len(rs.spans); i++ {
		a := rs.spans[i]
		if a.err != nil || a.end.Before(a.start) {
			continue
		}
		for j := i + 1; j < len(rs.spans); j++ {
			b := rs.spans[j]
			if b.err != nil || b.end.Before(b.start) {
				continue
			}
			from, to := a.start, a.end
			if b.start.After(from) {
				from = b.start
			}
			if b.end.Before(to) {
				to = b.end
			}
			if from.After(to) {
				continue
			}
			out = append(out, Overlap{First: a.rule.Name, Second: b.rule.Name, From: from, To: to})
		}
	}
	return out
}

// Problem describes a stored rule that breaks the write-time rules: its dates
// are unreadable or its start is not before its end.
type Problem struct {
	Rule   string `json:"rule"`
	Reason string `json:"reason"`
}

// Problems lists rules with unreadable dates or an empty range. The admin
// write path is expected to reject these; they are reported, not fixed.
func (rs RuleSet) Problems() []Problem {
	var out []Problem
	for _, s := range rs.spans {
		switch {
		case s.err != nil:
			out = append(out, Problem{Rule: s.rule.Name, Reason: s.err.Error()})
		case !s.start.Before(s.end):
			out = append(out, Problem{Rule: s.rule.Name, Reason: "start date must be before end date"})
		}
	}
	return out
}
