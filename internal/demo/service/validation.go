package service

import (
	"fmt"
	"time"

	"evdemo/internal/demo/model"
	appErr "evdemo/pkg/errors"
)

// Limits for the simulation parameters.
const (
	maximumAllowedValue = 10000
	maxUsers            = 20
	minEpochLength      = 60
	maxEpochLength      = 7200
	maxSimulationLength = 7 * 24 * time.Hour
)

// ValidateRequest checks a demo request against the parameter constraints and
// returns the normalized parameters with all defaults applied. The first
// violated constraint is reported.
func ValidateRequest(req *model.DemoRequest) (*model.DemoParameters, error) {
	if req == nil {
		return nil, missingAttribute(model.AttrTotalMaxPower)
	}
	if req.TotalMaxPower == nil {
		return nil, missingAttribute(model.AttrTotalMaxPower)
	}
	if req.Users == nil {
		return nil, missingAttribute(model.AttrUsers)
	}
	if req.Stations == nil {
		return nil, missingAttribute(model.AttrStations)
	}

	name := model.DefaultSimulationName
	if req.Name != nil {
		name = *req.Name
	}
	if name == "" {
		return nil, appErr.ValidationError(model.AttrName,
			"The simulation name must contain at least one character")
	}

	epochLength := model.DefaultEpochLength
	if req.EpochLength != nil {
		epochLength = *req.EpochLength
	}
	if epochLength < minEpochLength || epochLength > maxEpochLength {
		return nil, appErr.ValidationError(model.AttrEpochLength,
			fmt.Sprintf("Epoch length must be between %d and %d seconds", minEpochLength, maxEpochLength))
	}

	if *req.TotalMaxPower < 0 || *req.TotalMaxPower > maximumAllowedValue {
		return nil, appErr.ValidationError(model.AttrTotalMaxPower,
			fmt.Sprintf("The total maximum power charging power must be positive and at most %d", maximumAllowedValue))
	}

	if len(req.Users) < 1 || len(req.Users) > maxUsers {
		return nil, appErr.ValidationError(model.AttrUsers,
			fmt.Sprintf("There must be at least one user and no more than %d users", maxUsers))
	}
	if len(req.Stations) < 1 || len(req.Stations) > maxUsers {
		return nil, appErr.ValidationError(model.AttrStations,
			fmt.Sprintf("There must be at least one station and no more than %d stations", maxUsers))
	}

	stations, err := validateStations(req.Stations)
	if err != nil {
		return nil, err
	}
	users, err := validateUsers(req.Users)
	if err != nil {
		return nil, err
	}
	if err := validateUserSet(users, stations); err != nil {
		return nil, err
	}

	return &model.DemoParameters{
		Name:          name,
		TotalMaxPower: *req.TotalMaxPower,
		EpochLength:   epochLength,
		Users:         users,
		Stations:      stations,
	}, nil
}

func validateStations(reqs []model.StationRequest) ([]model.StationParameters, error) {
	stations := make([]model.StationParameters, 0, len(reqs))
	seen := make(map[string]struct{}, len(reqs))

	for _, station := range reqs {
		if station.MaxPower == nil {
			return nil, missingAttribute(model.AttrMaxPower)
		}
		if station.StationID == nil {
			return nil, missingAttribute(model.AttrStationID)
		}
		if *station.MaxPower <= 0 || *station.MaxPower > maximumAllowedValue {
			return nil, appErr.ValidationError(model.AttrMaxPower,
				fmt.Sprintf("The max station charging power must be positive and at most %d", maximumAllowedValue))
		}
		if *station.StationID == "" {
			return nil, appErr.ValidationError(model.AttrStationID,
				"The station id must not be empty")
		}
		if _, ok := seen[*station.StationID]; ok {
			return nil, appErr.ValidationError(model.AttrStationID,
				"All stations must have an unique station id")
		}
		seen[*station.StationID] = struct{}{}

		stations = append(stations, model.StationParameters{
			StationID: *station.StationID,
			MaxPower:  *station.MaxPower,
		})
	}
	return stations, nil
}

func validateUsers(reqs []model.UserRequest) ([]model.UserParameters, error) {
	users := make([]model.UserParameters, 0, len(reqs))
	nextDefaultID := 1

	for _, user := range reqs {
		params, err := validateUser(user, nextDefaultID)
		if err != nil {
			return nil, err
		}
		if user.UserID == nil || user.UserName == nil {
			nextDefaultID++
		}
		users = append(users, params)
	}
	return users, nil
}

func validateUser(user model.UserRequest, defaultID int) (model.UserParameters, error) {
	var none model.UserParameters

	for _, required := range []struct {
		name    string
		present bool
	}{
		{model.AttrCarBatteryCapacity, user.CarBatteryCapacity != nil},
		{model.AttrCarMaxPower, user.CarMaxPower != nil},
		{model.AttrStateOfCharge, user.StateOfCharge != nil},
		{model.AttrTargetStateOfCharge, user.TargetStateOfCharge != nil},
		{model.AttrArrivalTime, user.ArrivalTime != nil},
		{model.AttrTargetTime, user.TargetTime != nil},
		{model.AttrStationID, user.StationID != nil},
	} {
		if !required.present {
			return none, missingAttribute(required.name)
		}
	}

	if *user.CarBatteryCapacity <= 0 || *user.CarBatteryCapacity > maximumAllowedValue {
		return none, appErr.ValidationError(model.AttrCarBatteryCapacity,
			fmt.Sprintf("The max battery capacity must be positive and at most %d", maximumAllowedValue))
	}
	if *user.CarMaxPower <= 0 || *user.CarMaxPower > maximumAllowedValue {
		return none, appErr.ValidationError(model.AttrCarMaxPower,
			fmt.Sprintf("The max car charging power must be positive and at most %d", maximumAllowedValue))
	}
	if *user.StateOfCharge < 0 || *user.StateOfCharge > 100 {
		return none, appErr.ValidationError(model.AttrStateOfCharge,
			"The initial state of charge must be between 0 and 100")
	}
	if *user.TargetStateOfCharge < 0 || *user.TargetStateOfCharge > 100 {
		return none, appErr.ValidationError(model.AttrTargetStateOfCharge,
			"The target state of charge must be between 0 and 100")
	}

	arrivalTime, err := model.ToDateTime(*user.ArrivalTime)
	if err != nil {
		return none, appErr.ValidationError(model.AttrArrivalTime,
			"The arrival time must be valid ISO 8601 format datetime string")
	}
	targetTime, err := model.ToDateTime(*user.TargetTime)
	if err != nil {
		return none, appErr.ValidationError(model.AttrTargetTime,
			"The leaving time must be valid ISO 8601 format datetime string")
	}

	charging := targetTime.Sub(arrivalTime)
	if charging <= 0 || charging > maxSimulationLength {
		return none, appErr.ValidationError(model.AttrTargetTime,
			fmt.Sprintf("The leaving time must be between 0 and %d hours later than the arrival time",
				int(maxSimulationLength.Hours())))
	}

	if *user.StationID == "" {
		return none, appErr.ValidationError(model.AttrStationID,
			"The station id for a user must not be empty")
	}

	userID := defaultID
	if user.UserID != nil {
		userID = *user.UserID
	}
	if userID <= 0 {
		return none, appErr.ValidationError(model.AttrUserID,
			"The user id must be a positive integer")
	}

	userName := fmt.Sprintf("%s%d", model.DefaultUserNamePrefix, defaultID)
	if user.UserName != nil {
		userName = *user.UserName
	}
	if userName == "" {
		return none, appErr.ValidationError(model.AttrUserName,
			"The user name must not be empty")
	}

	return model.UserParameters{
		UserID:              userID,
		UserName:            userName,
		CarBatteryCapacity:  *user.CarBatteryCapacity,
		CarMaxPower:         *user.CarMaxPower,
		StateOfCharge:       *user.StateOfCharge,
		TargetStateOfCharge: *user.TargetStateOfCharge,
		ArrivalTime:         arrivalTime,
		TargetTime:          targetTime,
		StationID:           *user.StationID,
	}, nil
}

// validateUserSet checks the constraints spanning the whole user list.
func validateUserSet(users []model.UserParameters, stations []model.StationParameters) error {
	seenIDs := make(map[int]struct{}, len(users))
	seenNames := make(map[string]struct{}, len(users))
	for _, user := range users {
		if _, ok := seenIDs[user.UserID]; ok {
			return appErr.ValidationError(model.AttrUserID,
				"All users must have an unique user id")
		}
		seenIDs[user.UserID] = struct{}{}
		if _, ok := seenNames[user.UserName]; ok {
			return appErr.ValidationError(model.AttrUserName,
				"All users must have an unique user name")
		}
		seenNames[user.UserName] = struct{}{}
	}

	stationIDs := make(map[string]struct{}, len(stations))
	for _, station := range stations {
		stationIDs[station.StationID] = struct{}{}
	}
	for _, user := range users {
		if _, ok := stationIDs[user.StationID]; !ok {
			return appErr.New(appErr.UnknownStation).WithMessage(
				"All stations that users are connected to must be part of the simulation").
				WithDetail("station_id", user.StationID)
		}
	}

	earliest := users[0].ArrivalTime
	latest := users[0].TargetTime
	for _, user := range users[1:] {
		if user.ArrivalTime.Before(earliest) {
			earliest = user.ArrivalTime
		}
		if user.TargetTime.After(latest) {
			latest = user.TargetTime
		}
	}
	if latest.Sub(earliest) > maxSimulationLength {
		return appErr.ValidationError(model.AttrUsers,
			fmt.Sprintf("The maximum length for a simulation is %d hours", int(maxSimulationLength.Hours())))
	}

	for i, user := range users {
		for j, other := range users {
			if i == j || user.StationID != other.StationID {
				continue
			}
			disjoint := !other.ArrivalTime.Before(user.TargetTime) ||
				!other.TargetTime.After(user.ArrivalTime)
			if !disjoint {
				return appErr.New(appErr.StationOccupied).
					WithDetail("station_id", user.StationID)
			}
		}
	}

	return nil
}

func missingAttribute(name string) *appErr.Error {
	return appErr.Newf(appErr.RequiredFieldEmpty, "Missing required attribute: '%s'", name).
		WithDetail("field", name)
}
