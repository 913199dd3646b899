package controller_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"evdemo/internal/common/cache"
	"evdemo/internal/demo/compose"
	"evdemo/internal/demo/controller"
	"evdemo/internal/demo/launch"
	"evdemo/internal/demo/middleware"
	"evdemo/internal/demo/repository"
	"evdemo/internal/demo/service"
	"evdemo/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

const testToken = "test-token"

type fakeRuntime struct {
	launches int
	failWith error
}

func (f *fakeRuntime) Launch(ctx context.Context, spec launch.LaunchSpec) (string, string, error) {
	if f.failWith != nil {
		return "", "", f.failWith
	}
	f.launches++
	return fmt.Sprintf("container-%d", f.launches), fmt.Sprintf("Sim%02d_%s", f.launches-1, spec.ContainerName), nil
}

func (f *fakeRuntime) Close() error { return nil }

type okBody struct {
	Message      string `json:"message"`
	SimulationID string `json:"simulation_id"`
}

type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func newTestRouter(t *testing.T, runtime launch.ContainerRuntime) (http.Handler, *repository.RunRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	composer := compose.NewComposer(compose.Config{
		ConfigurationFolder: t.TempDir(),
		SimulationsFolder:   t.TempDir(),
		EnvFiles:            []string{"common.env"},
	})
	launcher, err := launch.NewLauncher(runtime, launch.Config{
		Image:         "ghcr.io/simcesplatform/platform-manager:latest",
		ContainerName: "platform-manager",
	})
	if err != nil {
		t.Fatalf("NewLauncher returned error: %v", err)
	}
	runRepo, err := repository.NewRunRepository(cache.NewMemoryCache(), time.Hour)
	if err != nil {
		t.Fatalf("NewRunRepository returned error: %v", err)
	}
	demoService, err := service.NewDemoService(service.Config{
		Composer: composer,
		Launcher: launcher,
		Runs:     runRepo,
	})
	if err != nil {
		t.Fatalf("NewDemoService returned error: %v", err)
	}

	router := gin.New()
	demoController := controller.NewDemoController(demoService)
	router.GET("/health", demoController.Health)
	api := router.Group("")
	api.Use(middleware.TokenAuthMiddleware(testToken))
	api.POST("/", demoController.StartSimulation)
	api.GET("/simulations/:id", demoController.GetRun)
	return router, runRepo
}

func performRequest(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(middleware.PrivateTokenHeader, token)
	}
	router.ServeHTTP(rec, req)
	return rec
}

func validBody() string {
	return `{
		"Name": "test simulation",
		"TotalMaxPower": 20,
		"Users": [
			{
				"CarBatteryCapacity": 80,
				"CarMaxPower": 20,
				"StateOfCharge": 30,
				"TargetStateOfCharge": 85,
				"ArrivalTime": "2023-01-23T18:00:00Z",
				"TargetTime": "2023-01-24T07:00:00Z",
				"StationId": "station1"
			}
		],
		"Stations": [
			{"StationId": "station1", "MaxPower": 15}
		]
	}`
}

func TestStartSimulationSuccess(t *testing.T) {
	router, runRepo := newTestRouter(t, &fakeRuntime{})

	rec := performRequest(router, http.MethodPost, "/", testToken, validBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var body okBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body.Message != response.OkMessage {
		t.Fatalf("message = %q", body.Message)
	}
	if body.SimulationID == "" || !strings.HasSuffix(body.SimulationID, "Z") {
		t.Fatalf("simulation id = %q", body.SimulationID)
	}

	run, err := runRepo.Get(context.Background(), body.SimulationID)
	if err != nil {
		t.Fatalf("run not recorded: %v", err)
	}
	if run.ContainerID != "container-1" {
		t.Fatalf("unexpected container id %q", run.ContainerID)
	}
}

func TestStartSimulationAuth(t *testing.T) {
	router, _ := newTestRouter(t, &fakeRuntime{})

	cases := []struct {
		name  string
		token string
	}{
		{name: "missing token", token: ""},
		{name: "wrong token", token: "wrong"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			// The body is invalid JSON on purpose: the token check must
			// reject the request before the body is touched.
			rec := performRequest(router, http.MethodPost, "/", tc.token, "{not json")
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			var body errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("response is not valid JSON: %v", err)
			}
			if body.Message != response.UnauthorizedMessage {
				t.Fatalf("message = %q", body.Message)
			}
		})
	}
}

func TestStartSimulationBadRequest(t *testing.T) {
	router, _ := newTestRouter(t, &fakeRuntime{})

	cases := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "malformed json", body: "{not json"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := performRequest(router, http.MethodPost, "/", testToken, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			var body errorBody
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("response is not valid JSON: %v", err)
			}
			if body.Message != response.BadRequestMessage {
				t.Fatalf("message = %q", body.Message)
			}
		})
	}
}

func TestStartSimulationWrongAttributeType(t *testing.T) {
	router, _ := newTestRouter(t, &fakeRuntime{})

	body := strings.Replace(validBody(), `"TotalMaxPower": 20`, `"TotalMaxPower": "20"`, 1)
	rec := performRequest(router, http.MethodPost, "/", testToken, body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestStartSimulationValidationError(t *testing.T) {
	router, _ := newTestRouter(t, &fakeRuntime{})

	body := strings.Replace(validBody(), `"StationId": "station1",`, `"StationId": "missing",`, 1)
	rec := performRequest(router, http.MethodPost, "/", testToken, body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var respBody errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &respBody); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if respBody.Message != response.InvalidMessage {
		t.Fatalf("message = %q", respBody.Message)
	}
	if !strings.Contains(respBody.Error, "must be part of the simulation") {
		t.Fatalf("error detail = %q", respBody.Error)
	}
}

func TestStartSimulationLaunchFailure(t *testing.T) {
	router, _ := newTestRouter(t, &fakeRuntime{failWith: fmt.Errorf("daemon gone")})

	rec := performRequest(router, http.MethodPost, "/", testToken, validBody())
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if body.Message != response.ServerErrorMessage {
		t.Fatalf("message = %q", body.Message)
	}
}

func TestStartSimulationProductionModeScrubsDetails(t *testing.T) {
	router, _ := newTestRouter(t, &fakeRuntime{})
	response.SetProductionMode(true)
	defer response.SetProductionMode(false)

	body := strings.Replace(validBody(), `"StationId": "station1",`, `"StationId": "missing",`, 1)
	rec := performRequest(router, http.MethodPost, "/", testToken, body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var respBody errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &respBody); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if respBody.Error != "Invalid simulation parameters" {
		t.Fatalf("production error detail = %q", respBody.Error)
	}
}

func TestGetRun(t *testing.T) {
	router, _ := newTestRouter(t, &fakeRuntime{})

	rec := performRequest(router, http.MethodPost, "/", testToken, validBody())
	if rec.Code != http.StatusOK {
		t.Fatalf("start status = %d", rec.Code)
	}
	var started okBody
	if err := json.Unmarshal(rec.Body.Bytes(), &started); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}

	rec = performRequest(router, http.MethodGet, "/simulations/"+started.SimulationID, testToken, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get run status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = performRequest(router, http.MethodGet, "/simulations/2020-01-01T00:00:00.000Z", testToken, "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown run status = %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, &fakeRuntime{})

	rec := performRequest(router, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}
