package reputation

import (
	"cmp"
	"fmt"
	"slices"

	"reputation-service/internal/models"
)

// CrisisReport builds the operator view of the threats present in items.
func (a *Aggregator) CrisisReport(items []*models.ContentItem) models.CrisisReport {
	rep := models.CrisisReport{
		ThreatCounts:  make(map[models.ThreatLevel]int, len(models.ThreatLevels)),
		Distribution:  make(map[models.ThreatCategory]int, len(models.ThreatCategories)),
		TrendingTerms: []models.TermCount{},
		Alerts:        []models.Alert{},
		ActiveCrises:  []models.ActiveCrisis{},
		GeneratedAt:   a.now(),
	}
	for _, l := range models.ThreatLevels {
		rep.ThreatCounts[l] = 0
	}
	for _, c := range models.ThreatCategories {
		rep.Distribution[c] = 0
	}

	var threatened []*models.ContentItem
	for _, it := range items {
		if it != nil && it.Annotations.Threat.Detected {
			threatened = append(threatened, it)
		}
	}
	rep.TotalThreats = len(threatened)

	terms := make(map[string]int)
	var termOrder []string
	for _, it := range threatened {
		t := it.Annotations.Threat
		rep.ThreatCounts[t.Level]++
		for _, c := range t.Categories {
			rep.Distribution[c]++
		}
		for _, p := range t.MatchedPatterns {
			if _, ok := terms[p]; !ok {
				termOrder = append(termOrder, p)
			}
			terms[p]++
		}
		if t.KeyFigureMentioned {
			rep.KeyFigureItems++
		}
	}

	for _, p := range termOrder {
		rep.TrendingTerms = append(rep.TrendingTerms, models.TermCount{Term: p, Count: terms[p]})
	}
	slices.SortStableFunc(rep.TrendingTerms, func(x, y models.TermCount) int { return y.Count - x.Count })
	if n := a.crisis.TrendingTerms; n > 0 && len(rep.TrendingTerms) > n {
		rep.TrendingTerms = rep.TrendingTerms[:n]
	}

	rep.Velocity = a.velocity(items)
	rep.Status = a.status(rep)
	rep.Alerts = append(rep.Alerts, a.alerts(rep)...)
	rep.ActiveCrises = append(rep.ActiveCrises, a.activeCrises(threatened, rep)...)
	return rep
}

// velocity counts threats among the most recent VelocityWindow items.
func (a *Aggregator) velocity(items []*models.ContentItem) int {
	recent := make([]*models.ContentItem, 0, len(items))
	for _, it := range items {
		if it != nil {
			recent = append(recent, it)
		}
	}
	slices.SortStableFunc(recent, func(x, y *models.ContentItem) int { return x.Timestamp.Compare(y.Timestamp) })
	if w := a.crisis.VelocityWindow; w > 0 && len(recent) > w {
		recent = recent[len(recent)-w:]
	}
	n := 0
	for _, it := range recent {
		if it.Annotations.Threat.Detected {
			n++
		}
	}
	return n
}

func (a *Aggregator) status(rep models.CrisisReport) models.CrisisStatus {
	switch {
	case rep.ThreatCounts[models.ThreatCritical] > 0:
		return models.CrisisCritical
	case rep.ThreatCounts[models.ThreatHigh] >= a.crisis.MultipleHighThreats:
		return models.CrisisHigh
	case rep.TotalThreats >= a.crisis.ElevatedThreats:
		return models.CrisisElevated
	}
	return models.CrisisNormal
}

func (a *Aggregator) alerts(rep models.CrisisReport) []models.Alert {
	var out []models.Alert
	if n := rep.ThreatCounts[models.ThreatCritical]; n > 0 {
		out = append(out, models.Alert{
			Kind:     "critical_threats",
			Severity: models.ThreatCritical.String(),
			Message:  fmt.Sprintf("%d critical threats need immediate response", n),
			Count:    n,
		})
	}
	if rep.TotalThreats >= a.crisis.HighVolumeThreats {
		out = append(out, models.Alert{
			Kind:     "high_volume",
			Severity: models.ThreatHigh.String(),
			Message:  fmt.Sprintf("%d threats detected across the corpus", rep.TotalThreats),
			Count:    rep.TotalThreats,
		})
	}
	if rep.KeyFigureItems > 0 {
		out = append(out, models.Alert{
			Kind:     "key_figure_targeted",
			Severity: models.ThreatHigh.String(),
			Message:  fmt.Sprintf("%d threats mention a key figure", rep.KeyFigureItems),
			Count:    rep.KeyFigureItems,
		})
	}
	return out
}

func (a *Aggregator) activeCrises(threatened []*models.ContentItem, rep models.CrisisReport) []models.ActiveCrisis {
	var critical []*models.ContentItem
	for _, it := range threatened {
		if it.Annotations.Threat.Level == models.ThreatCritical {
			critical = append(critical, it)
		}
	}
	slices.SortStableFunc(critical, func(x, y *models.ContentItem) int {
		if c := cmp.Compare(y.Annotations.Threat.AmplifiedScore, x.Annotations.Threat.AmplifiedScore); c != 0 {
			return c
		}
		return y.Timestamp.Compare(x.Timestamp)
	})
	if len(critical) > a.crisis.TopCrises {
		critical = critical[:a.crisis.TopCrises]
	}

	out := make([]models.ActiveCrisis, 0, len(critical)+1)
	for _, it := range critical {
		t := it.Annotations.Threat
		out = append(out, models.ActiveCrisis{
			ItemID:     it.ID,
			Kind:       "critical_threat",
			Level:      t.Level,
			Score:      t.AmplifiedScore,
			Categories: t.Categories,
			Patterns:   t.MatchedPatterns,
		})
	}
	if n := rep.ThreatCounts[models.ThreatHigh]; n >= a.crisis.MultipleHighThreats {
		out = append(out, models.ActiveCrisis{
			Kind:  "multiple_high_threats",
			Level: models.ThreatHigh,
			Count: n,
		})
	}
	return out
}
