package extract

import (
	"github.com/sells-group/facwatch/internal/model"
)

// mergedPerson tracks, per field, the confidence of the candidate that
// supplied the current value, so a later low-confidence sighting never
// overwrites an earlier high-confidence one.
type mergedPerson struct {
	cand      model.Candidate
	fieldConf map[string]float64
}

// Merge folds candidates from all strategies into one candidate per
// person. Grouping is by exact normalized name. Within a group each
// field independently takes the value from the highest-confidence
// candidate that has it; on equal confidence the earlier candidate wins,
// which with input in strategy order means the earlier strategy wins.
func Merge(cands []model.Candidate) []model.Candidate {
	groups := make(map[string]*mergedPerson)
	var order []string

	for _, c := range cands {
		key := model.NormalizeName(c.Name)
		if key == "" {
			continue
		}

		mp, ok := groups[key]
		if !ok {
			mp = &mergedPerson{cand: c, fieldConf: make(map[string]float64, 8)}
			for _, f := range []string{"name", "title", "email", "phone", "profile_url", "department", "research_interests"} {
				mp.fieldConf[f] = c.Confidence
			}
			groups[key] = mp
			order = append(order, key)
			continue
		}

		mp.take("name", &mp.cand.Name, c.Name, c.Confidence)
		mp.take("title", &mp.cand.Title, c.Title, c.Confidence)
		mp.take("email", &mp.cand.Email, c.Email, c.Confidence)
		mp.take("phone", &mp.cand.Phone, c.Phone, c.Confidence)
		mp.take("profile_url", &mp.cand.ProfileURL, c.ProfileURL, c.Confidence)
		mp.take("department", &mp.cand.Department, c.Department, c.Confidence)
		mp.take("research_interests", &mp.cand.ResearchInterests, c.ResearchInterests, c.Confidence)
		if c.Confidence > mp.cand.Confidence {
			mp.cand.Confidence = c.Confidence
			mp.cand.Strategy = c.Strategy
		}
	}

	out := make([]model.Candidate, 0, len(order))
	for _, key := range order {
		out = append(out, groups[key].cand)
	}
	return out
}

// take fills an empty field, or replaces it when the newcomer is
// strictly more confident than whoever supplied the current value.
func (mp *mergedPerson) take(field string, dst *string, val string, conf float64) {
	if val == "" {
		return
	}
	if *dst == "" || conf > mp.fieldConf[field] {
		*dst = val
		mp.fieldConf[field] = conf
	}
}
