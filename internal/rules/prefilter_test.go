package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrefilter(t *testing.T) {
	tests := []struct {
		name       string
		in         PrefilterInput
		wantKeep   bool
		wantReason string
	}{
		{
			name: "clean funding row",
			in: PrefilterInput{
				Name:     "pilot research grant",
				URLs:     "https://example.org/funding/pilot-grant",
				Blob:     "pilot research grant apply by march 1 award amount 50000",
				Deadline: "march 1",
				Amount:   "50000",
			},
			wantKeep:   true,
			wantReason: PrefilterKeep,
		},
		{
			name: "bad url with no funding evidence",
			in: PrefilterInput{
				Name: "spring newsletter",
				URLs: "https://example.org/newsletter/spring",
				Blob: "our spring newsletter celebrates community highlights",
			},
			wantKeep:   false,
			wantReason: PrefilterDropURLPattern,
		},
		{
			name: "bad url but blob shows application funding",
			in: PrefilterInput{
				Name:     "research grant",
				URLs:     "https://example.org/news/research-grant",
				Blob:     "research grant apply by june 30 funding available",
				Deadline: "june 30",
			},
			wantKeep:   true,
			wantReason: PrefilterURLBadButPositive,
		},
		{
			name: "recognition name with no money",
			in: PrefilterInput{
				Name: "hall of fame",
				URLs: "https://example.org/program",
				Blob: "hall of fame honors distinguished members",
			},
			wantKeep:   false,
			wantReason: PrefilterDropNamePattern,
		},
		{
			name: "recognition name but dollar amount present",
			in: PrefilterInput{
				Name:   "distinguished investigator award",
				URLs:   "https://example.org/program",
				Blob:   "distinguished investigator award includes $50,000 in research support",
				Amount: "$50,000",
			},
			wantKeep:   true,
			wantReason: PrefilterNameBadButPositive,
		},
		{
			name: "recognition language no money no apply",
			in: PrefilterInput{
				Name: "excellence citation",
				URLs: "https://example.org/citation",
				Blob: "this citation recognizes outstanding mentorship with a medal",
			},
			wantKeep:   false,
			wantReason: PrefilterDropRecognitionOnly,
		},
		{
			name: "empty row survives",
			in:   PrefilterInput{},
			wantKeep:   true,
			wantReason: PrefilterKeep,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keep, reason := Prefilter(tt.in)
			assert.Equal(t, tt.wantKeep, keep)
			assert.Equal(t, tt.wantReason, reason)
		})
	}
}

func TestHasPositiveSignal(t *testing.T) {
	assert.True(t, hasPositiveSignal("open for application until june"))
	assert.True(t, hasPositiveSignal("$5,000 available"))
	assert.True(t, hasPositiveSignal("seed funding for pilots"))
	assert.False(t, hasPositiveSignal("we honor our community leaders"))
}
