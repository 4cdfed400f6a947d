package match

import "sort"

// Job is the part of a job posting the scorer needs.
type Job struct {
	ID             string   `json:"id" yaml:"id"`
	Title          string   `json:"title" yaml:"title"`
	Company        string   `json:"company,omitempty" yaml:"company,omitempty"`
	RequiredSkills []string `json:"required_skills" yaml:"required_skills"`
}

// RankedJob is a job annotated with its match score.
type RankedJob struct {
	Job   `yaml:",inline"`
	Score int `json:"score" yaml:"score"`
}

// RankJobs scores every job for the same candidate and orders them by score,
// highest first. Jobs with equal scores keep their input order. No job is
// dropped; thresholds belong to the caller.
func RankJobs(jobs []Job, candidate []string) []RankedJob {
	ranked := make([]RankedJob, 0, len(jobs))
	for _, job := range jobs {
		ranked = append(ranked, RankedJob{
			Job:   job,
			Score: Compute(job.RequiredSkills, candidate).Score,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked
}
