// Package match scores how well a candidate's skills cover a job's required
// skills and ranks jobs for recommendation lists.
//
// Skill labels are compared after trimming surrounding whitespace and
// lowercasing. Nothing else is canonicalized: "ReactJS" and "React" are
// different skills.
package match

import "strings"

// Result is the outcome of scoring one job against one candidate.
type Result struct {
	Score         int      `json:"score" yaml:"score"`
	MatchedSkills []string `json:"matched_skills" yaml:"matched_skills"`
	MissingSkills []string `json:"missing_skills" yaml:"missing_skills"`
}

// Normalize returns the comparison key of a skill label.
func Normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// Compute classifies every required skill as matched or missing and derives
// the percentage score. Labels in the result keep their original form and
// order. Duplicate required labels are classified and counted independently.
func Compute(required, candidate []string) Result {
	have := make(map[string]struct{}, len(candidate))
	for _, skill := range candidate {
		have[Normalize(skill)] = struct{}{}
	}

	res := Result{
		MatchedSkills: make([]string, 0, len(required)),
		MissingSkills: make([]string, 0),
	}

	for _, skill := range required {
		if _, ok := have[Normalize(skill)]; ok {
			res.MatchedSkills = append(res.MatchedSkills, skill)
			continue
		}
		res.MissingSkills = append(res.MissingSkills, skill)
	}

	res.Score = percent(len(res.MatchedSkills), len(required))
	return res
}

// percent rounds 100*part/total half-up without going through floats.
func percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*part + total) / (2 * total)
}
