package model

// Activity is one bookable experience type. Each activity carries its own
// per-head rate, minimum participant age, and loyalty point award.
type Activity string

const (
	ActivityPaintball    Activity = "paintball"
	ActivityGellyball    Activity = "gellyball"
	ActivityArchery      Activity = "archery"
	ActivityAxeThrowing  Activity = "axe-throwing"
	ActivityCornhole     Activity = "cornhole"
	ActivityPartyPackage Activity = "party-package"
)

// LaneSize is the number of participants covered by one axe-throwing lane.
// Lane count rounds up: 7 players book 2 lanes.
const LaneSize = 6

type activityInfo struct {
	RateCents     int64 // per head, or per lane for axe-throwing
	MinAge        int
	LoyaltyPoints int
	PerLane       bool
}

var activities = map[Activity]activityInfo{
	ActivityPaintball:    {RateCents: 2500, MinAge: 10, LoyaltyPoints: 50},
	ActivityGellyball:    {RateCents: 2000, MinAge: 6, LoyaltyPoints: 30},
	ActivityArchery:      {RateCents: 3000, MinAge: 8, LoyaltyPoints: 40},
	ActivityAxeThrowing:  {RateCents: 6000, MinAge: 18, LoyaltyPoints: 45, PerLane: true},
	ActivityCornhole:     {RateCents: 2500, MinAge: 5, LoyaltyPoints: 20},
	ActivityPartyPackage: {RateCents: 20000, MinAge: 5, LoyaltyPoints: 10},
}

// WaiverActivities is the subset of activities a liability waiver can cover.
var WaiverActivities = []Activity{
	ActivityPaintball, ActivityGellyball, ActivityArchery, ActivityAxeThrowing,
}

func (a Activity) Valid() bool {
	_, ok := activities[a]
	return ok
}

// RateCents returns the unit rate: per head, or per lane when PricedPerLane.
func (a Activity) RateCents() int64 { return activities[a].RateCents }

func (a Activity) PricedPerLane() bool { return activities[a].PerLane }

func (a Activity) MinimumAge() int { return activities[a].MinAge }

// LoyaltyPoints awarded when a booking for this activity completes.
// Unknown activities fall back to the base award of 10.
func (a Activity) LoyaltyPoints() int {
	if info, ok := activities[a]; ok {
		return info.LoyaltyPoints
	}
	return 10
}
