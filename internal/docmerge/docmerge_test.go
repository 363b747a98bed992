package docmerge

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeSubstitutesDeclaredFields(t *testing.T) {
	template := []byte("Kære «Navn», din tid er «Tid» den «Dato».")
	fields := map[string]string{
		"Navn": "Jens Jensen",
		"Tid":  "10:30",
		"Dato": "1. maj",
	}

	got := Merge(template, fields)
	assert.Equal(t, "Kære Jens Jensen, din tid er 10:30 den 1. maj.", string(got))
}

func TestMergeLeavesUnmatchedPlaceholders(t *testing.T) {
	template := []byte("Hej «Navn», mød op «Dato».")

	got := Merge(template, map[string]string{"Navn": "Bo"})
	assert.Equal(t, "Hej Bo, mød op «Dato».", string(got))
}

func TestMergeIgnoresExtraKeys(t *testing.T) {
	template := []byte("Hej «Navn».")
	fields := map[string]string{
		"Navn":    "Bo",
		"Adresse": "never used",
		"Ekstra":  "also unused",
	}

	got := Merge(template, fields)
	assert.Equal(t, "Hej Bo.", string(got))
}

func TestMergeEmptyInputs(t *testing.T) {
	assert.Empty(t, Merge(nil, map[string]string{"a": "b"}))

	template := []byte("no placeholders here")
	assert.Equal(t, template, Merge(template, nil))
	assert.Equal(t, template, Merge(template, map[string]string{}))
}

func TestMergeRepeatedPlaceholder(t *testing.T) {
	template := []byte("«Navn» og «Navn» igen")
	got := Merge(template, map[string]string{"Navn": "Bo"})
	assert.Equal(t, "Bo og Bo igen", string(got))
}

func TestFields(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     []string
	}{
		{
			name:     "sorted and deduplicated",
			template: "«Tid» «Navn» «Tid» «Dato»",
			want:     []string{"Dato", "Navn", "Tid"},
		},
		{
			name:     "none",
			template: "plain text",
			want:     nil,
		},
		{
			name:     "unbalanced guillemets ignored",
			template: "«open only and close» only",
			want:     []string{"open only and close"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Fields([]byte(tt.template)))
		})
	}
}

func TestContainsField(t *testing.T) {
	template := []byte("Hej «Navn».")
	assert.True(t, ContainsField(template, "Navn"))
	assert.False(t, ContainsField(template, "Dato"))
}
