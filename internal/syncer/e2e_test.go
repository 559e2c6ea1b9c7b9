package syncer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/goodtune/sleepsync/internal/clock"
	"github.com/goodtune/sleepsync/internal/eightsleep"
	"github.com/goodtune/sleepsync/internal/whoop"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder counts requests by "METHOD path" and keeps mutating bodies.
type recorder struct {
	mu      sync.Mutex
	calls   map[string]int
	bodies  map[string][]json.RawMessage
	deleted []string
}

func (r *recorder) record(req *http.Request) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := req.Method + " " + req.URL.Path
	r.calls[key]++
	if req.Method == http.MethodPut || req.Method == http.MethodPost {
		var body json.RawMessage
		_ = json.NewDecoder(req.Body).Decode(&body)
		r.bodies[key] = append(r.bodies[key], body)
	}
	if req.Method == http.MethodDelete {
		r.deleted = append(r.deleted, req.PathValue("id"))
	}
}

func reply(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(body))
	}
}

func TestEndToEndOverHTTP(t *testing.T) {
	rec := &recorder{calls: map[string]int{}, bodies: map[string][]json.RawMessage{}}

	coachMux := http.NewServeMux()
	coachMux.HandleFunc("POST /auth-service/v2/whoop/sign-in",
		reply(`{"access_token":"w","access_token_expires_in":3600000,"refresh_token":"wr","refresh_token_expires_in":86400000}`))
	coachMux.HandleFunc("GET /smart-alarm-service/v1/smartalarm/preferences",
		reply(`{"enabled":true,"upper_time_bound":"07:00:00","time_zone_offset":"-0600"}`))
	coachMux.HandleFunc("GET /coaching-service/v2/sleepneed",
		reply(`{"recommended_time_in_bed_formatted":{"100":{"recommended_time_in_bed_time_string":"8:30","optimal_endpoints_formatted":{"start":"22:00:00","end":"06:30:00"}}}}`))
	coachSrv := httptest.NewServer(coachMux)
	defer coachSrv.Close()

	deviceMux := http.NewServeMux()
	deviceMux.HandleFunc("POST /v1/tokens",
		reply(`{"access_token":"e","expires_in":3600,"refresh_token":"er","userId":"u1"}`))
	deviceMux.HandleFunc("GET /v1/users/me",
		reply(`{"user":{"userId":"u1","currentDevice":{"id":"d1","timeZone":"America/Mexico_City"}}}`))
	deviceMux.HandleFunc("GET /v1/users/u1/temperature/all",
		reply(`{"schedules":[{"id":"S1","enabled":false,"time":"23:00:00","days":["monday"],"startSettings":{"elevationPreset":"relax","bedtime":-10}}]}`))
	deviceMux.HandleFunc("GET /v1/users/u1/alarms",
		reply(`{"alarms":[{"id":"A1","enabled":true,"time":"06:00:00"},{"id":"A2","enabled":false,"time":"09:00:00"}]}`))
	mutating := func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer e" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		rec.record(r)
		_, _ = w.Write([]byte(`{}`))
	}
	deviceMux.HandleFunc("PUT /v1/users/u1/bedtime", mutating)
	deviceMux.HandleFunc("DELETE /v1/users/u1/alarms/{id}", mutating)
	deviceMux.HandleFunc("POST /v1/users/u1/alarms", mutating)
	deviceSrv := httptest.NewServer(deviceMux)
	defer deviceSrv.Close()

	clk := clock.NewTestClock(evening)
	logger := zerolog.Nop()
	coach := whoop.NewClient(whoop.Config{
		BaseURL: coachSrv.URL, Username: "u", Password: "p", Timeout: time.Second, Clock: clk,
	}, logger)
	device := eightsleep.NewClient(eightsleep.Config{
		AuthURL: deviceSrv.URL, ClientURL: deviceSrv.URL, AppURL: deviceSrv.URL,
		ClientID: "c", ClientSecret: "s", Username: "u", Password: "p",
		Timeout: time.Second, Clock: clk,
	}, logger)

	s := New(coach, device, Config{Clock: clk}, logger)
	result, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, rec.calls["PUT /v1/users/u1/bedtime"])
	assert.Equal(t, 1, rec.calls["DELETE /v1/users/u1/alarms/A1"])
	assert.Equal(t, 1, rec.calls["DELETE /v1/users/u1/alarms/A2"])
	assert.Equal(t, 1, rec.calls["POST /v1/users/u1/alarms"])
	sort.Strings(rec.deleted)
	assert.Equal(t, []string{"A1", "A2"}, rec.deleted)

	var put struct {
		Schedules []eightsleep.Schedule `json:"schedules"`
	}
	require.NoError(t, json.Unmarshal(rec.bodies["PUT /v1/users/u1/bedtime"][0], &put))
	require.Len(t, put.Schedules, 1)
	assert.Equal(t, "S1", put.Schedules[0].ID)
	assert.Equal(t, "22:30:00", put.Schedules[0].Time)
	assert.True(t, put.Schedules[0].Enabled)
	assert.Equal(t, []string{"monday", "tuesday", "wednesday", "thursday", "friday"}, put.Schedules[0].Days)
	assert.JSONEq(t, `{"elevationPreset":"sleep","pillowBedtime":0,"bedtime":0}`, string(put.Schedules[0].StartSettings))

	var created eightsleep.Alarm
	require.NoError(t, json.Unmarshal(rec.bodies["POST /v1/users/u1/alarms"][0], &created))
	assert.Equal(t, result.AlarmID, created.ID)
	assert.NotEmpty(t, created.ID)
	assert.NotEqual(t, "A1", created.ID)
	assert.Equal(t, "07:00:00", created.Time)
}
