// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/aina-tui/internal/model"
)

func TestBucketOf(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, loc) // Wednesday

	tests := []struct {
		name string
		ts   time.Time
		want Bucket
	}{
		{"this morning", time.Date(2025, 3, 12, 9, 0, 0, 0, loc), BucketToday},
		{"just after midnight", time.Date(2025, 3, 12, 0, 0, 0, 0, loc), BucketToday},
		{"later today", time.Date(2025, 3, 12, 23, 59, 0, 0, loc), BucketToday},
		{"future", time.Date(2025, 4, 1, 0, 0, 0, 0, loc), BucketToday},
		{"last night", time.Date(2025, 3, 11, 23, 59, 0, 0, loc), BucketYesterday},
		{"yesterday morning", time.Date(2025, 3, 11, 0, 0, 0, 0, loc), BucketYesterday},
		{"two days ago", time.Date(2025, 3, 10, 12, 0, 0, 0, loc), BucketThisWeek},
		{"seven days ago", time.Date(2025, 3, 5, 0, 0, 0, 0, loc), BucketThisWeek},
		{"eight days ago", time.Date(2025, 3, 4, 23, 0, 0, 0, loc), BucketOlder},
		{"last year", time.Date(2024, 3, 12, 9, 0, 0, 0, loc), BucketOlder},
		{"zero", time.Time{}, BucketOlder},
		// 23:30 UTC on the 11th is 00:30 on the 12th in now's zone.
		{"utc converted", time.Date(2025, 3, 11, 23, 30, 0, 0, time.UTC), BucketToday},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, BucketOf(tc.ts, now))
		})
	}
}

func TestGroupByRecency(t *testing.T) {
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)
	day := func(offset int, hour int) time.Time {
		return time.Date(2025, 3, 12+offset, hour, 0, 0, 0, time.UTC)
	}
	summaries := []model.ConversationSummary{
		{ID: "old", LastActivity: day(-30, 8)},
		{ID: "t2", LastActivity: day(0, 8)},
		{ID: "y", LastActivity: day(-1, 20)},
		{ID: "t1", LastActivity: day(0, 14)},
		{ID: "w", LastActivity: day(-3, 10)},
	}

	groups := GroupByRecency(summaries, now)
	require.Len(t, groups, 4)

	got := map[Bucket][]string{}
	for i, g := range groups {
		assert.Equal(t, Buckets[i], g.Bucket)
		for _, s := range g.Summaries {
			got[g.Bucket] = append(got[g.Bucket], s.ID)
		}
	}
	want := map[Bucket][]string{
		BucketToday:     {"t2", "t1"},
		BucketYesterday: {"y"},
		BucketThisWeek:  {"w"},
		BucketOlder:     {"old"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("groups mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, groups, GroupByRecency(summaries, now), "grouping is a pure function")
}

func TestGroupByRecency_Example(t *testing.T) {
	now := time.Date(2025, 3, 12, 15, 0, 0, 0, time.UTC)
	summaries := []model.ConversationSummary{
		{ID: "a", LastActivity: time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)},
	}

	groups := GroupByRecency(summaries, now)
	assert.Equal(t, summaries, groups[BucketToday].Summaries)
	for _, g := range groups[1:] {
		assert.Empty(t, g.Summaries, g.Bucket.String())
	}
}

func TestGroupByRecency_Empty(t *testing.T) {
	groups := GroupByRecency(nil, time.Now())
	require.Len(t, groups, 4)
	for _, g := range groups {
		assert.Empty(t, g.Summaries)
	}
}

func TestBucketString(t *testing.T) {
	assert.Equal(t, "Today", BucketToday.String())
	assert.Equal(t, "Yesterday", BucketYesterday.String())
	assert.Equal(t, "This week", BucketThisWeek.String())
	assert.Equal(t, "Older", BucketOlder.String())
}
