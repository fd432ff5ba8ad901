package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Wikimedia-Sverige/wle-2020-naturvardsregistret-bot/internal/core/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFreshnessPolicy_MaySupersede(t *testing.T) {
	local := day(2020, 2, 25)
	earlier := day(2019, 1, 1)
	later := day(2021, 6, 1)
	same := day(2020, 2, 25)

	tests := []struct {
		name     string
		remote   *time.Time
		expected bool
	}{
		{name: "no remote date", remote: nil, expected: true},
		{name: "remote older", remote: &earlier, expected: true},
		{name: "same day", remote: &same, expected: true},
		{name: "remote fresher", remote: &later, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FreshnessPolicy{}.MaySupersede(tt.remote, local))
		})
	}
}

func TestPublishedOf(t *testing.T) {
	assert.Nil(t, publishedOf(nil))

	c := &domain.Claim{Property: domain.PropCountry, Value: domain.EntityValue(domain.EntitySweden)}
	assert.Nil(t, publishedOf(c))

	c.References = []domain.Reference{{Snaks: []domain.Snak{
		{Property: domain.PropPublicationDate, Value: domain.DateValue(day(2019, 1, 1))},
	}}}
	got := publishedOf(c)
	if assert.NotNil(t, got) {
		assert.Equal(t, day(2019, 1, 1), *got)
	}
}
