package rewriting

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFacts(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		metrics      []string
		technologies []string
	}{
		{
			name:         "percentage and lexicon terms",
			text:         "Increased throughput by 40% using Kafka and Go",
			metrics:      []string{"40%"},
			technologies: []string{"Go", "kafka"},
		},
		{
			name:         "currency and acronym deduplicated against lexicon",
			text:         "Migrated 12 services to Kubernetes on AWS, cutting costs by $1.2M",
			metrics:      []string{"12", "$1.2M"},
			technologies: []string{"aws", "kubernetes"},
		},
		{
			name:         "symbols in technology names",
			text:         "Built REST APIs in C++ and Node.js",
			technologies: []string{"REST", "c++", "node.js"},
		},
		{
			name: "go-to-market is not the Go language",
			text: "Owned Go-to-market launch for the enterprise tier",
		},
		{
			name:         "mixed case identifiers",
			text:         "Moved reporting from MySQL to PostgreSQL and GitHub Actions",
			technologies: []string{"GitHub", "mysql", "postgresql"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			facts := ExtractFacts(tt.text)
			assert.Equal(t, tt.metrics, facts.Metrics)
			assert.Equal(t, tt.technologies, facts.Technologies)
		})
	}
}

func TestMissingFacts(t *testing.T) {
	source := "Increased throughput by 40% using Kafka"

	tests := []struct {
		name      string
		source    string
		candidate string
		want      []string
	}{
		{"all facts kept", source, "Boosted throughput 40% via Kafka", nil},
		{"metric dropped", source, "Boosted throughput via Kafka", []string{"40%"}},
		{"technology dropped", source, "Boosted throughput by 40%", []string{"kafka"}},
		{"thousands separator ignored", "Served 1,000 users", "Served 1000 users", nil},
		{"plural accepted", "Designed a REST API", "Designed REST APIs", nil},
		{"java is not javascript", "Built Java services", "Built JavaScript services", []string{"java"}},
		{"no facts in source", "Mentored interns", "Coached interns", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MissingFacts(tt.source, tt.candidate))
			assert.Equal(t, len(tt.want) == 0, PreservesFacts(tt.source, tt.candidate))
		})
	}
}

func TestFacts_All(t *testing.T) {
	facts := ExtractFacts("Cut costs 30% with Terraform")
	assert.Equal(t, []string{"30%", "terraform"}, facts.All())
	assert.False(t, facts.Empty())
	assert.True(t, HasFacts("Scaled to 3 regions"))
	assert.False(t, HasFacts("Mentored interns"))
}
