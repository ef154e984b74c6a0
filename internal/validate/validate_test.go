package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/talent-cli/internal/config"
	"github.com/sells-group/talent-cli/internal/model"
)

func testValidator() *Validator {
	return New(config.ValidateConfig{
		RegionSuffixes:   []string{", nc", ", sc"},
		StaffingAgencies: []string{"Robert Half", "TEKsystems"},
		TitleKeywords:    []string{"Engineer", "Analyst", "Manager", "Architect", "Developer"},
		DefaultTitle:     "Data Engineer",
	})
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		posting model.RawPosting
		want    bool
	}{
		{
			name: "in-region posting accepted",
			posting: model.RawPosting{
				CompanyName: "Acme Corp",
				Title:       "Data Engineer",
				Location:    "Charlotte, NC",
				Description: "build pipelines",
			},
			want: true,
		},
		{
			name: "blank company rejected",
			posting: model.RawPosting{
				CompanyName: "  ",
				Title:       "Data Engineer",
				Location:    "Charlotte, NC",
				Description: "build pipelines",
			},
			want: false,
		},
		{
			name: "blank description rejected",
			posting: model.RawPosting{
				CompanyName: "Acme Corp",
				Title:       "Data Engineer",
				Location:    "Charlotte, NC",
				Description: "",
			},
			want: false,
		},
		{
			name: "remote location rejected",
			posting: model.RawPosting{
				CompanyName: "Acme Corp",
				Title:       "Data Engineer",
				Location:    "Remote",
				Description: "build pipelines",
			},
			want: false,
		},
		{
			name: "hybrid remote rejected case-insensitively",
			posting: model.RawPosting{
				CompanyName: "Acme Corp",
				Title:       "Data Engineer",
				Location:    "Charlotte, NC (REMOTE eligible), NC",
				Description: "build pipelines",
			},
			want: false,
		},
		{
			name: "out-of-region location rejected",
			posting: model.RawPosting{
				CompanyName: "Acme Corp",
				Title:       "Data Engineer",
				Location:    "Austin, TX",
				Description: "build pipelines",
			},
			want: false,
		},
		{
			name: "data center role rejected",
			posting: model.RawPosting{
				CompanyName: "Acme Corp",
				Title:       "Data Center Technician",
				Location:    "Columbia, SC",
				Description: "rack servers",
			},
			want: false,
		},
		{
			name: "staffing agency rejected by substring",
			posting: model.RawPosting{
				CompanyName: "teksystems inc",
				Title:       "Data Engineer",
				Location:    "Raleigh, NC",
				Description: "contract role",
			},
			want: false,
		},
	}

	v := testValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Validate(tt.posting))
		})
	}
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name    string
		posting model.RawPosting
		want    string
	}{
		{
			name:    "blank title uses default",
			posting: model.RawPosting{CompanyName: "Acme Corp", Title: "   "},
			want:    "Data Engineer",
		},
		{
			name:    "title equal to company uses default",
			posting: model.RawPosting{CompanyName: "Acme Corp", Title: "acme corp"},
			want:    "Data Engineer",
		},
		{
			name:    "roman numeral suffix preserved",
			posting: model.RawPosting{CompanyName: "Acme Corp", Title: "Program Manager II"},
			want:    "Program Manager II",
		},
		{
			name:    "truncates at first special character",
			posting: model.RawPosting{CompanyName: "Acme Corp", Title: "Data Engineer (Hybrid)"},
			want:    "Data Engineer",
		},
		{
			name:    "truncates after highest-index keyword",
			posting: model.RawPosting{CompanyName: "Acme Corp", Title: "Senior Data Engineer with Snowflake experience"},
			want:    "Senior Data Engineer",
		},
		{
			name:    "keyword inside later keyword keeps the later one",
			posting: model.RawPosting{CompanyName: "Acme Corp", Title: "Engineering Manager reporting to CTO"},
			want:    "Engineering Manager",
		},
		{
			name:    "no keyword leaves cleaned title",
			posting: model.RawPosting{CompanyName: "Acme Corp", Title: "Head of Data"},
			want:    "Head of Data",
		},
	}

	v := testValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.NormalizeTitle(tt.posting))
		})
	}
}

// Two keywords starting at the same index must resolve to the one listed
// first in configuration.
func TestNormalizeTitle_KeywordTieBreak(t *testing.T) {
	v := New(config.ValidateConfig{
		TitleKeywords: []string{"Data", "Database"},
		DefaultTitle:  "Data Engineer",
	})
	got := v.NormalizeTitle(model.RawPosting{CompanyName: "Acme", Title: "Senior Database Admin"})
	assert.Equal(t, "Senior Data", got)
}

func TestNormalizeTitle_Idempotent(t *testing.T) {
	v := testValidator()
	titles := []string{
		"Senior Data Engineer with Snowflake experience",
		"Data Engineer (Hybrid)",
		"Program Manager II",
		"",
	}
	for _, title := range titles {
		once := v.NormalizeTitle(model.RawPosting{CompanyName: "Acme Corp", Title: title})
		twice := v.NormalizeTitle(model.RawPosting{CompanyName: "Acme Corp", Title: once})
		assert.Equal(t, once, twice, "title %q", title)
	}
}
