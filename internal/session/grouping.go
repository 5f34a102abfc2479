// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"time"

	"github.com/jeranaias/aina-tui/internal/model"
)

// Bucket is a recency group of the sidebar.
type Bucket int

const (
	BucketToday Bucket = iota
	BucketYesterday
	BucketThisWeek
	BucketOlder
)

// Buckets lists the buckets in display order.
var Buckets = []Bucket{BucketToday, BucketYesterday, BucketThisWeek, BucketOlder}

func (b Bucket) String() string {
	switch b {
	case BucketToday:
		return "Today"
	case BucketYesterday:
		return "Yesterday"
	case BucketThisWeek:
		return "This week"
	default:
		return "Older"
	}
}

// Group is one bucket and its summaries in remote order.
type Group struct {
	Bucket    Bucket
	Summaries []model.ConversationSummary
}

// BucketOf places a timestamp relative to now by calendar day in now's
// location. Future days count as today; the zero time is older.
func BucketOf(ts, now time.Time) Bucket {
	if ts.IsZero() {
		return BucketOlder
	}
	loc := now.Location()
	today := startOfDay(now, loc)
	day := startOfDay(ts, loc)

	switch {
	case !day.Before(today):
		return BucketToday
	case day.Equal(today.AddDate(0, 0, -1)):
		return BucketYesterday
	case !day.Before(today.AddDate(0, 0, -7)):
		return BucketThisWeek
	default:
		return BucketOlder
	}
}

// GroupByRecency partitions summaries into the four buckets, always in
// display order and always all four, keeping the input order inside each.
func GroupByRecency(summaries []model.ConversationSummary, now time.Time) []Group {
	groups := make([]Group, len(Buckets))
	for i, b := range Buckets {
		groups[i].Bucket = b
	}
	for _, s := range summaries {
		b := BucketOf(s.LastActivity, now)
		groups[b].Summaries = append(groups[b].Summaries, s)
	}
	return groups
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
