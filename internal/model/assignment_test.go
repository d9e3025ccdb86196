package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }
	ptr := func(tm time.Time) *time.Time { return &tm }

	open := &BedAssignment{AdmissionTime: at(0)}
	closed := &BedAssignment{AdmissionTime: at(0), DischargeTime: ptr(at(10))}

	tests := []struct {
		name string
		a    *BedAssignment
		from time.Time
		to   *time.Time
		want bool
	}{
		{"open-ended vs later open start", open, at(5), nil, true},
		{"open-ended vs earlier window", open, at(-5), ptr(at(-1)), false},
		{"open-ended vs window touching start", open, at(-5), ptr(at(0)), false},
		{"closed vs window inside", closed, at(2), ptr(at(4)), true},
		{"closed vs window after discharge", closed, at(10), ptr(at(12)), false},
		{"closed vs window starting at discharge", closed, at(10), nil, false},
		{"closed vs window ending at admission", closed, at(-2), ptr(at(0)), false},
		{"closed vs overlapping tail", closed, at(9), nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.from, tt.to))
		})
	}
}

func TestActive(t *testing.T) {
	assert.True(t, (&BedAssignment{Status: AssignmentStatusActive}).Active())
	assert.False(t, (&BedAssignment{Status: AssignmentStatusDischarged}).Active())
}
