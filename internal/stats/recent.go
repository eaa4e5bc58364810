package stats

import "sort"

// RecentFeed is the professor's newest-first submission feed. Total is
// the uncapped count so the UI can render "+K more".
type RecentFeed struct {
	Total       int             `json:"total"`
	Submissions []SubmissionRow `json:"submissions"`
}

func RecentSubmissions(rows []SubmissionRow, limit int) RecentFeed {
	sorted := append([]SubmissionRow(nil), rows...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].SubmittedAt.After(sorted[j].SubmittedAt) })
	feed := RecentFeed{Total: len(sorted), Submissions: sorted}
	if limit > 0 && len(feed.Submissions) > limit {
		feed.Submissions = feed.Submissions[:limit]
	}
	return feed
}
