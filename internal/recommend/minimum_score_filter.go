package recommend

import (
	"context"
	"fmt"
	"strconv"
)

type minimumScoreFilter struct {
	enabled bool
	reason  string
	minimum int
}

// NewMinimumScore creates a filter that drops jobs scoring below minimum.
// A zero minimum keeps every job.
func NewMinimumScore(minimum int) Filter {
	return &minimumScoreFilter{enabled: true, minimum: minimum}
}

func (f *minimumScoreFilter) Name() string { return "minimum_score" }

func (f *minimumScoreFilter) Disable(reason string) {
	f.enabled = false
	f.reason = reason
}

func (f *minimumScoreFilter) IsEnabled() bool { return f.enabled }

func (f *minimumScoreFilter) Validate() error {
	if f.minimum < 0 || f.minimum > 100 {
		return fmt.Errorf("minimum score must be between 0 and 100, got %d", f.minimum)
	}
	return nil
}

func (f *minimumScoreFilter) Apply(_ context.Context, r *Recommendations) (*Recommendations, Step, error) {
	initial := r.Len()
	excluded := r.ExcludeFunc(func(item *Item) bool {
		return item.Match.Score < f.minimum
	})

	return r, Step{Initial: initial, Dropped: len(excluded), Left: r.Len()}, nil
}

func (f *minimumScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.enabled,
		Reason:  f.reason,
		Details: map[string]string{"minimum": strconv.Itoa(f.minimum)},
	}
}
