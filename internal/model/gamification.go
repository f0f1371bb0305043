package model

// Point awards for community actions.
const (
	PointsSubmit       = 5  // submitting a snippet
	PointsFork         = 10 // submitting a fork
	PointsForkAccepted = 50 // having a fork accepted by the snippet owner
)

// levelThresholds[i] is the minimum point total for level i+1.
// The table is strictly increasing, which makes LevelForPoints monotonic:
// more points can never yield a lower level.
var levelThresholds = []int{
	0,     // level 1
	100,   // level 2
	250,   // level 3
	500,   // level 4
	1000,  // level 5
	1750,  // level 6
	2750,  // level 7
	4000,  // level 8
	5500,  // level 9
	7500,  // level 10
	10000, // level 11; beyond this, +5000 per level
}

// LevelForPoints maps a cumulative point total to a level.
// Totals beyond the table continue at a flat 5000 points per level.
func LevelForPoints(points int) int {
	if points < 0 {
		return 1
	}
	level := 1
	for i, min := range levelThresholds {
		if points >= min {
			level = i + 1
		}
	}
	if extra := points - levelThresholds[len(levelThresholds)-1]; extra > 0 {
		level += extra / 5000
	}
	return level
}

// Badge is a permanently-earned achievement flag. Once a badge ID appears in
// a user's badge set it is never removed, even if the underlying stat later
// regresses (e.g. snippets are deleted).
type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
	Requirement string `json:"requirement"`
}

// Badge identifiers. The unlock predicates live in the gamification service;
// each is independent of the others.
const (
	BadgeFirstSnippet = "first-snippet"
	BadgeContributor  = "contributor"
	BadgeCodeMaster   = "code-master"
	BadgePopular      = "popular"
	BadgeInfluencer   = "influencer"
	BadgeConsistent   = "consistent"
	BadgeHelpful      = "helpful"
	BadgeRisingStar   = "rising-star"
	BadgeLegend       = "legend"
)

// BadgeCatalog is the fixed set of badges the platform can award.
var BadgeCatalog = []Badge{
	{ID: BadgeFirstSnippet, Name: "First Snippet", Icon: "🎯", Description: "Created your first snippet", Requirement: "1 snippet"},
	{ID: BadgeContributor, Name: "Contributor", Icon: "⭐", Description: "Created 10 snippets", Requirement: "10 snippets"},
	{ID: BadgeCodeMaster, Name: "Code Master", Icon: "🏆", Description: "Created 50 snippets", Requirement: "50 snippets"},
	{ID: BadgePopular, Name: "Popular", Icon: "🔥", Description: "Received 100+ upvotes", Requirement: "100 upvotes"},
	{ID: BadgeInfluencer, Name: "Influencer", Icon: "💎", Description: "Received 1000+ views", Requirement: "1000 views"},
	{ID: BadgeConsistent, Name: "Consistent", Icon: "⚡", Description: "7 day contribution streak", Requirement: "7 day streak"},
	{ID: BadgeHelpful, Name: "Helpful", Icon: "💬", Description: "Made 50+ helpful comments", Requirement: "50 comments"},
	{ID: BadgeRisingStar, Name: "Rising Star", Icon: "🌟", Description: "Reached level 10", Requirement: "Level 10"},
	{ID: BadgeLegend, Name: "Legend", Icon: "👑", Description: "Reached level 50", Requirement: "Level 50"},
}
