package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerms(t *testing.T) {
	assert.Equal(t, []string{"what's", "stoicism", "really", "about"}, Terms("What's the Stoicism really about? Stoicism!"))
	assert.Empty(t, Terms("the and of"))
	assert.Empty(t, Terms(""))
}

func TestContainsAllTerms(t *testing.T) {
	doc := "So the Stoics believed that virtue is the only good, and everything else is indifferent."

	tests := []struct {
		query string
		want  bool
	}{
		{"stoics virtue", true},
		{"Virtue, indifferent!", true},
		{"stoics pleasure", false},
		{"the and", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsAllTerms(doc, tt.query))
		})
	}
}

func TestMatchedTerms(t *testing.T) {
	assert.Equal(t, []string{"anger"}, MatchedTerms("On anger, a letter", "anger management"))
	assert.Nil(t, MatchedTerms("anything", "the"))
}
