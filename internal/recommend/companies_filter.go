package recommend

import (
	"context"
	"strings"

	"github.com/talentdock/ats-matcher/internal/match"
)

type companiesFilter struct {
	companies []string
}

// NewExcludedCompanies creates a filter that removes jobs posted by the given companies.
// Company names are compared case-insensitively after trimming.
func NewExcludedCompanies(companies []string) Filter {
	return &companiesFilter{companies: companies}
}

func (f *companiesFilter) Name() string { return "companies" }

func (f *companiesFilter) Disable(string) {}

func (f *companiesFilter) IsEnabled() bool { return true }

func (f *companiesFilter) Validate() error { return nil }

func (f *companiesFilter) Apply(_ context.Context, r *Recommendations) (*Recommendations, Step, error) {
	initial := r.Len()
	if len(f.companies) == 0 {
		return r, Step{Initial: initial, Dropped: 0, Left: r.Len()}, nil
	}

	excludedCompanies := make(map[string]struct{}, len(f.companies))
	for _, company := range f.companies {
		excludedCompanies[match.Normalize(company)] = struct{}{}
	}

	excluded := r.ExcludeFunc(func(item *Item) bool {
		_, ok := excludedCompanies[match.Normalize(item.Job.Company)]
		return ok
	})

	return r, Step{Initial: initial, Dropped: len(excluded), Left: r.Len()}, nil
}

func (f *companiesFilter) Status() Status {
	details := map[string]string{}
	if len(f.companies) > 0 {
		details["companies"] = strings.Join(f.companies, ",")
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}
