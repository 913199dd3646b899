package model

import "time"

// Defaults applied while normalizing a validated request.
const (
	DefaultSimulationName = "EVCommunities demo"
	DefaultCarModel       = "default"
	DefaultEpochLength    = 3600
	DefaultUserNamePrefix = "User_"
)

// DemoParameters is a validated and normalized simulation request. All
// defaults have been applied and timestamps parsed; nothing is mutated after
// creation.
type DemoParameters struct {
	Name          string
	TotalMaxPower float64
	EpochLength   int
	Users         []UserParameters
	Stations      []StationParameters
}

// UserParameters describes one user of a validated request.
type UserParameters struct {
	UserID              int
	UserName            string
	CarBatteryCapacity  float64
	CarMaxPower         float64
	StateOfCharge       float64
	TargetStateOfCharge float64
	ArrivalTime         time.Time
	TargetTime          time.Time
	StationID           string
}

// StationParameters describes one charging station of a validated request.
type StationParameters struct {
	StationID string
	MaxPower  float64
}

// EarliestArrival returns the earliest user arrival time.
func (p *DemoParameters) EarliestArrival() time.Time {
	earliest := p.Users[0].ArrivalTime
	for _, user := range p.Users[1:] {
		if user.ArrivalTime.Before(earliest) {
			earliest = user.ArrivalTime
		}
	}
	return earliest
}

// LatestLeaving returns the latest user leaving time.
func (p *DemoParameters) LatestLeaving() time.Time {
	latest := p.Users[0].TargetTime
	for _, user := range p.Users[1:] {
		if user.TargetTime.After(latest) {
			latest = user.TargetTime
		}
	}
	return latest
}
