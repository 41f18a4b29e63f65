package selection

import (
	"testing"

	"github.com/jonathan/onepage/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleModel() types.ContentModel {
	return types.ContentModel{
		Header: types.Header{Name: "Ada"},
		Sections: []types.Section{
			{
				Kind:  types.SectionExperience,
				Title: "Experience",
				Entries: []types.Entry{
					{
						Heading: "Acme",
						Dates:   types.DateRange{Start: "2022-01", End: "Present"},
						Bullets: []string{
							"Attended weekly meetings",
							"Built Python API serving 2M requests per day",
							"Helped with various tasks",
							"Migrated SQL reports to React dashboards, cutting load time 40%",
						},
					},
					{
						Heading: "Initech",
						Dates:   types.DateRange{Start: "2016-01", End: "2019-06"},
						Bullets: []string{"Built Python API serving 2M requests per day"},
					},
					{
						Heading: "Globex",
						Dates:   types.DateRange{Start: "2020-01", End: "2021-12"},
						Bullets: []string{"Maintained build scripts"},
					},
				},
			},
		},
	}
}

func TestRoleWords(t *testing.T) {
	assert.Equal(t, []string{"backend"}, RoleWords("Senior Backend Engineer"))
	assert.Equal(t, []string{"data", "scientist"}, RoleWords("Data Scientist II"))
	assert.Empty(t, RoleWords(""))
}

func TestCategoryKeywords(t *testing.T) {
	tests := []struct {
		name     string
		role     string
		contains []string
		excludes []string
	}{
		{"default is software", "Product Wizard", []string{"git", "agile"}, []string{"docker"}},
		{"devops", "DevOps Engineer", []string{"kubernetes", "ci/cd"}, []string{"react"}},
		{"frontend", "Frontend Developer", []string{"typescript", "css"}, []string{"terraform"}},
		{"machine learning", "Machine Learning Engineer", []string{"pytorch"}, []string{"css"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kws := CategoryKeywords(tt.role)
			for _, kw := range tt.contains {
				assert.Contains(t, kws, kw)
			}
			for _, kw := range tt.excludes {
				assert.NotContains(t, kws, kw)
			}
		})
	}
}

func TestCategoryKeywords_CombinedFamiliesHaveNoDuplicates(t *testing.T) {
	kws := CategoryKeywords("Backend Data Engineer")
	seen := make(map[string]bool)
	for _, kw := range kws {
		assert.False(t, seen[kw], "duplicate keyword %q", kw)
		seen[kw] = true
	}
	assert.Contains(t, kws, "microservices")
	assert.Contains(t, kws, "pandas")
}

func TestScorer_Recency(t *testing.T) {
	model := sampleModel()
	s := NewScorer(model, "Software Engineer")
	entries := model.Sections[0].Entries

	assert.Equal(t, 1.0, s.Recency(entries[0]), "ongoing entry")
	assert.Equal(t, 1.0, s.Recency(entries[2]), "newest ended entry")
	// 30 months older than the newest ended entry
	assert.InDelta(t, 1.0-30.0/120.0, s.Recency(entries[1]), 1e-9)
	assert.Equal(t, neutralRecency, s.Recency(types.Entry{Bullets: []string{"x"}}))
}

func TestScorer_KeywordOverlap(t *testing.T) {
	s := NewScorer(types.ContentModel{}, "Backend Engineer")
	assert.Equal(t, 0.0, s.KeywordOverlap("Organized team lunches"))
	assert.InDelta(t, 2.0/3.0, s.KeywordOverlap("Designed REST API"), 1e-9)
	assert.Greater(t, s.KeywordOverlap("Built Python microservices on a SQL database"), s.KeywordOverlap("Wrote Python"))
	assert.LessOrEqual(t, s.KeywordOverlap("python java node api database sql microservices rest"), 1.0)
}

func TestScorer_RankEntryIsStableAndDeterministic(t *testing.T) {
	model := sampleModel()
	s := NewScorer(model, "Software Engineer")
	entry := model.Sections[0].Entries[0]

	first := s.RankEntry(entry)
	second := s.RankEntry(entry)
	require.Len(t, first, 4)
	assert.Equal(t, first, second)

	for i := 1; i < len(first); i++ {
		assert.GreaterOrEqual(t, first[i-1].RelevanceScore, first[i].RelevanceScore)
		if first[i-1].RelevanceScore == first[i].RelevanceScore {
			assert.Less(t, first[i-1].Index, first[i].Index)
		}
	}
}

func TestScorer_KeepTop(t *testing.T) {
	model := sampleModel()
	s := NewScorer(model, "Software Engineer")
	entry := model.Sections[0].Entries[0]

	kept := s.KeepTop(entry, 2)
	assert.Equal(t, []string{
		"Built Python API serving 2M requests per day",
		"Migrated SQL reports to React dashboards, cutting load time 40%",
	}, kept)

	assert.Equal(t, entry.Bullets, s.KeepTop(entry, 0))
	assert.Equal(t, entry.Bullets, s.KeepTop(entry, 10))
	assert.Len(t, entry.Bullets, 4, "input untouched")
}

func TestKeepInOriginalOrder(t *testing.T) {
	bullets := []string{"a", "b", "c", "d"}
	kept := []ScoredBullet{{Index: 3}, {Index: 1}}
	assert.Equal(t, []string{"b", "d"}, KeepInOriginalOrder(bullets, kept))
}
