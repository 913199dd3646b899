package service_test

import (
	"strings"
	"testing"

	"evdemo/internal/demo/model"
	"evdemo/internal/demo/service"
	pkgerrors "evdemo/pkg/errors"
)

func strPtr(v string) *string   { return &v }
func intPtr(v int) *int         { return &v }
func f64Ptr(v float64) *float64 { return &v }

func validUser(stationID string) model.UserRequest {
	return model.UserRequest{
		CarBatteryCapacity:  f64Ptr(80),
		CarMaxPower:         f64Ptr(20),
		StateOfCharge:       f64Ptr(30),
		TargetStateOfCharge: f64Ptr(80),
		ArrivalTime:         strPtr("2023-01-23T18:00:00Z"),
		TargetTime:          strPtr("2023-01-24T07:00:00Z"),
		StationID:           strPtr(stationID),
	}
}

func validStation(stationID string) model.StationRequest {
	return model.StationRequest{
		StationID: strPtr(stationID),
		MaxPower:  f64Ptr(15),
	}
}

func validRequest() *model.DemoRequest {
	return &model.DemoRequest{
		Name:          strPtr("test simulation"),
		TotalMaxPower: f64Ptr(20),
		EpochLength:   intPtr(3600),
		Users:         []model.UserRequest{validUser("station1")},
		Stations:      []model.StationRequest{validStation("station1")},
	}
}

func TestValidateRequestAcceptsValidRequest(t *testing.T) {
	params, err := service.ValidateRequest(validRequest())
	if err != nil {
		t.Fatalf("ValidateRequest returned error: %v", err)
	}
	if params.Name != "test simulation" {
		t.Fatalf("unexpected name %q", params.Name)
	}
	if params.EpochLength != 3600 {
		t.Fatalf("unexpected epoch length %d", params.EpochLength)
	}
	if len(params.Users) != 1 || len(params.Stations) != 1 {
		t.Fatalf("unexpected user/station counts: %d/%d", len(params.Users), len(params.Stations))
	}
	if params.Users[0].UserID != 1 || params.Users[0].UserName != "User_1" {
		t.Fatalf("default user identity not applied: %d/%q", params.Users[0].UserID, params.Users[0].UserName)
	}
}

func TestValidateRequestAppliesDefaults(t *testing.T) {
	req := validRequest()
	req.Name = nil
	req.EpochLength = nil

	params, err := service.ValidateRequest(req)
	if err != nil {
		t.Fatalf("ValidateRequest returned error: %v", err)
	}
	if params.Name != "EVCommunities demo" {
		t.Fatalf("default name not applied: %q", params.Name)
	}
	if params.EpochLength != 3600 {
		t.Fatalf("default epoch length not applied: %d", params.EpochLength)
	}
}

func TestValidateRequestAllowsTargetBelowInitialCharge(t *testing.T) {
	// Charge ordering is deliberately not constrained; only the ranges are.
	req := validRequest()
	req.Users[0].StateOfCharge = f64Ptr(90)
	req.Users[0].TargetStateOfCharge = f64Ptr(40)

	if _, err := service.ValidateRequest(req); err != nil {
		t.Fatalf("ValidateRequest returned error: %v", err)
	}
}

func TestValidateRequestSequentialDefaultUsers(t *testing.T) {
	req := validRequest()
	req.Stations = []model.StationRequest{validStation("station1"), validStation("station2"), validStation("station3")}
	first := validUser("station1")
	second := validUser("station2")
	second.UserID = intPtr(10)
	second.UserName = strPtr("Alice")
	third := validUser("station3")
	req.Users = []model.UserRequest{first, second, third}

	params, err := service.ValidateRequest(req)
	if err != nil {
		t.Fatalf("ValidateRequest returned error: %v", err)
	}
	if params.Users[0].UserID != 1 || params.Users[0].UserName != "User_1" {
		t.Fatalf("first default user wrong: %d/%q", params.Users[0].UserID, params.Users[0].UserName)
	}
	if params.Users[1].UserID != 10 || params.Users[1].UserName != "Alice" {
		t.Fatalf("explicit user overridden: %d/%q", params.Users[1].UserID, params.Users[1].UserName)
	}
	if params.Users[2].UserID != 2 || params.Users[2].UserName != "User_2" {
		t.Fatalf("second default user wrong: %d/%q", params.Users[2].UserID, params.Users[2].UserName)
	}
}

func TestValidateRequestErrors(t *testing.T) {
	cases := []struct {
		name        string
		mutate      func(req *model.DemoRequest)
		wantCode    pkgerrors.ErrorCode
		wantMessage string
	}{
		{
			name:        "missing total max power",
			mutate:      func(req *model.DemoRequest) { req.TotalMaxPower = nil },
			wantCode:    pkgerrors.RequiredFieldEmpty,
			wantMessage: "Missing required attribute: 'TotalMaxPower'",
		},
		{
			name:        "missing users",
			mutate:      func(req *model.DemoRequest) { req.Users = nil },
			wantCode:    pkgerrors.RequiredFieldEmpty,
			wantMessage: "Missing required attribute: 'Users'",
		},
		{
			name:        "missing stations",
			mutate:      func(req *model.DemoRequest) { req.Stations = nil },
			wantCode:    pkgerrors.RequiredFieldEmpty,
			wantMessage: "Missing required attribute: 'Stations'",
		},
		{
			name:        "empty name",
			mutate:      func(req *model.DemoRequest) { req.Name = strPtr("") },
			wantCode:    pkgerrors.ValidationFailed,
			wantMessage: "The simulation name must contain at least one character",
		},
		{
			name:        "epoch length too short",
			mutate:      func(req *model.DemoRequest) { req.EpochLength = intPtr(30) },
			wantCode:    pkgerrors.ValidationFailed,
			wantMessage: "Epoch length must be between 60 and 7200 seconds",
		},
		{
			name:        "epoch length too long",
			mutate:      func(req *model.DemoRequest) { req.EpochLength = intPtr(10000) },
			wantCode:    pkgerrors.ValidationFailed,
			wantMessage: "Epoch length must be between 60 and 7200 seconds",
		},
		{
			name:        "negative total max power",
			mutate:      func(req *model.DemoRequest) { req.TotalMaxPower = f64Ptr(-1) },
			wantCode:    pkgerrors.ValidationFailed,
			wantMessage: "The total maximum power charging power must be positive and at most 10000",
		},
		{
			name: "too many users",
			mutate: func(req *model.DemoRequest) {
				users := make([]model.UserRequest, 21)
				for i := range users {
					users[i] = validUser("station1")
				}
				req.Users = users
			},
			wantCode:    pkgerrors.ValidationFailed,
			wantMessage: "There must be at least one user and no more than 20 users",
		},
		{
			name:        "empty station list",
			mutate:      func(req *model.DemoRequest) { req.Stations = []model.StationRequest{} },
			wantCode:    pkgerrors.ValidationFailed,
			wantMessage: "There must be at least one station and no more than 20 stations",
		},
		{
			name: "missing station max power",
			mutate: func(req *model.DemoRequest) {
				req.Stations[0].MaxPower = nil
			},
			wantCode:    pkgerrors.RequiredFieldEmpty,
			wantMessage: "Missing required attribute: 'MaxPower'",
		},
		{
			name: "station max power too large",
			mutate: func(req *model.DemoRequest) {
				req.Stations[0].MaxPower = f64Ptr(10001)
			},
			wantCode:    pkgerrors.ValidationFailed,
			wantMessage: "The max station charging power must be positive and at most 10000",
		},
		{
			name: "duplicate station ids",
			mutate: func(req *model.DemoRequest) {
				req.Stations = []model.StationRequest{validStation("station1"), validStation("station1")}
			},
			wantCode:    pkgerrors.ValidationFailed,
			wantMessage: "All stations must have an unique station id",
		},
		{
			name: "missing arrival time",
			mutate: func(req *model.DemoRequest) {
				req.Users[0].ArrivalTime = nil
			},
			wantCode:    pkgerrors.RequiredFieldEmpty,
			wantMessage: "Missing required attribute: 'ArrivalTime'",
		},
		{
			name: "unparseable arrival time",
			mutate: func(req *model.DemoRequest) {
				req.Users[0].ArrivalTime = strPtr("tomorrow")
			},
			wantCode:    pkgerrors.ValidationFailed,
			wantMessage: "The arrival time must be valid ISO 8601 format datetime string",
		},
		{
			name: "state of charge above 100",
			mutate: func(req *model.DemoRequest) {
				req.Users[0].StateOfCharge = f64Ptr(120)
			},
			wantCode:    pkgerrors.ValidationFailed,
			wantMessage: "The initial state of charge must be between 0 and 100",
		},
		{
			name: "leaving before arrival",
			mutate: func(req *model.DemoRequest) {
				req.Users[0].ArrivalTime = strPtr("2023-01-24T07:00:00Z")
				req.Users[0].TargetTime = strPtr("2023-01-23T18:00:00Z")
			},
			wantCode:    pkgerrors.ValidationFailed,
			wantMessage: "The leaving time must be between 0 and 168 hours later than the arrival time",
		},
		{
			name: "charging window too long",
			mutate: func(req *model.DemoRequest) {
				req.Users[0].ArrivalTime = strPtr("2023-01-01T00:00:00Z")
				req.Users[0].TargetTime = strPtr("2023-01-09T00:00:00Z")
			},
			wantCode:    pkgerrors.ValidationFailed,
			wantMessage: "The leaving time must be between 0 and 168 hours later than the arrival time",
		},
		{
			name: "non-positive user id",
			mutate: func(req *model.DemoRequest) {
				req.Users[0].UserID = intPtr(0)
			},
			wantCode:    pkgerrors.ValidationFailed,
			wantMessage: "The user id must be a positive integer",
		},
		{
			name: "duplicate user names",
			mutate: func(req *model.DemoRequest) {
				req.Stations = []model.StationRequest{validStation("station1"), validStation("station2")}
				first := validUser("station1")
				first.UserID = intPtr(1)
				first.UserName = strPtr("Alice")
				second := validUser("station2")
				second.UserID = intPtr(2)
				second.UserName = strPtr("Alice")
				req.Users = []model.UserRequest{first, second}
			},
			wantCode:    pkgerrors.ValidationFailed,
			wantMessage: "All users must have an unique user name",
		},
		{
			name: "unknown station reference",
			mutate: func(req *model.DemoRequest) {
				req.Users[0].StationID = strPtr("missing")
			},
			wantCode:    pkgerrors.UnknownStation,
			wantMessage: "All stations that users are connected to must be part of the simulation",
		},
		{
			name: "simulation span over seven days",
			mutate: func(req *model.DemoRequest) {
				req.Stations = []model.StationRequest{validStation("station1"), validStation("station2")}
				first := validUser("station1")
				first.ArrivalTime = strPtr("2023-01-01T00:00:00Z")
				first.TargetTime = strPtr("2023-01-02T00:00:00Z")
				second := validUser("station2")
				second.ArrivalTime = strPtr("2023-01-08T00:00:00Z")
				second.TargetTime = strPtr("2023-01-09T00:00:00Z")
				req.Users = []model.UserRequest{first, second}
			},
			wantCode:    pkgerrors.ValidationFailed,
			wantMessage: "The maximum length for a simulation is 168 hours",
		},
		{
			name: "overlapping station occupancy",
			mutate: func(req *model.DemoRequest) {
				first := validUser("station1")
				first.ArrivalTime = strPtr("2023-01-23T18:00:00Z")
				first.TargetTime = strPtr("2023-01-24T07:00:00Z")
				second := validUser("station1")
				second.ArrivalTime = strPtr("2023-01-24T06:00:00Z")
				second.TargetTime = strPtr("2023-01-24T12:00:00Z")
				req.Users = []model.UserRequest{first, second}
			},
			wantCode:    pkgerrors.StationOccupied,
			wantMessage: "Multiple users cannot be connected to the same station at the same time",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(req)

			_, err := service.ValidateRequest(req)
			if err == nil {
				t.Fatalf("expected error, got nil")
			}
			if got := pkgerrors.GetCode(err); got != tc.wantCode {
				t.Fatalf("error code = %d, want %d (error: %v)", got, tc.wantCode, err)
			}
			if !strings.Contains(err.Error(), tc.wantMessage) {
				t.Fatalf("error %q does not contain %q", err.Error(), tc.wantMessage)
			}
		})
	}
}

func TestValidateRequestBackToBackWindowsAllowed(t *testing.T) {
	req := validRequest()
	first := validUser("station1")
	first.ArrivalTime = strPtr("2023-01-23T18:00:00Z")
	first.TargetTime = strPtr("2023-01-24T07:00:00Z")
	second := validUser("station1")
	second.ArrivalTime = strPtr("2023-01-24T07:00:00Z")
	second.TargetTime = strPtr("2023-01-24T12:00:00Z")
	req.Users = []model.UserRequest{first, second}

	if _, err := service.ValidateRequest(req); err != nil {
		t.Fatalf("back-to-back windows rejected: %v", err)
	}
}
