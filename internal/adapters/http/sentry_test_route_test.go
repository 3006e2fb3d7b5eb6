package http_test

import (
	"net/http/httptest"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handler "github.com/constructtrack/platform/internal/adapters/http"
)

type sentryTestBody struct {
	Success bool   `json:"success"`
	Type    string `json:"type"`
	Message string `json:"message"`
	Error   string `json:"error"`
	EventID string `json:"eventId"`
}

func TestSentryTest_UnknownType(t *testing.T) {
	deps, transport := makeDeps(t)
	app := setupApp(deps)

	var body struct {
		Error      string   `json:"error"`
		ValidTypes []string `json:"validTypes"`
	}
	resp := doJSON(t, app, httptest.NewRequest("GET", "/api/v1/test-sentry?type=unknown", nil), &body)
	require.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, []string{"basic", "async", "custom", "capture", "performance", "feedback"}, body.ValidTypes)
	assert.Empty(t, transport.Events())
}

func TestSentryTest_BasicIsCaughtAndReported(t *testing.T) {
	deps, transport := makeDeps(t)
	app := setupApp(deps)

	var body sentryTestBody
	resp := doJSON(t, app, httptest.NewRequest("GET", "/api/v1/test-sentry?type=basic", nil), &body)
	require.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, body.Message, "error was caught and should be reported to Sentry")
	assert.NotEmpty(t, body.EventID)

	events := transport.Events()
	require.Len(t, events, 1)
	assert.Equal(t, sentry.LevelFatal, events[0].Level)
	assert.Equal(t, body.EventID, string(events[0].EventID))
}

func TestSentryTest_DefaultsToBasic(t *testing.T) {
	deps, _ := makeDeps(t)
	app := setupApp(deps)

	var body sentryTestBody
	resp := doJSON(t, app, httptest.NewRequest("GET", "/api/v1/test-sentry", nil), &body)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "basic", body.Type)
	assert.Contains(t, body.Message, "error was caught")
}

func TestSentryTest_Types(t *testing.T) {
	tests := []struct {
		typ        string
		wantCaught bool
		wantEvents int
		check      func(t *testing.T, events []*sentry.Event)
	}{
		{typ: "async", wantCaught: true, wantEvents: 1},
		{typ: "custom", wantEvents: 1, check: func(t *testing.T, events []*sentry.Event) {
			assert.Equal(t, "TestError", events[0].Tags["error.type"])
			assert.Equal(t, "medium", events[0].Tags["error.severity"])
			assert.Equal(t, sentry.LevelWarning, events[0].Level)
			assert.Contains(t, events[0].Contexts, "report")
		}},
		{typ: "capture", wantEvents: 1, check: func(t *testing.T, events []*sentry.Event) {
			assert.Equal(t, "capture", events[0].Tags["test.type"])
			assert.Contains(t, events[0].Contexts, "test")
		}},
		{typ: "performance", wantEvents: 1, check: func(t *testing.T, events []*sentry.Event) {
			assert.Equal(t, "performance", events[0].Tags["test.type"])
			assert.NotEmpty(t, events[0].Tags["trace_id"])
		}},
		{typ: "feedback", wantEvents: 2, check: func(t *testing.T, events []*sentry.Event) {
			fb := events[1]
			assert.Equal(t, "true", fb.Tags["feedback"])
			assert.Equal(t, string(events[0].EventID), fb.Contexts["feedback"]["associated_event_id"])
		}},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			deps, transport := makeDeps(t)
			app := setupApp(deps)

			var body sentryTestBody
			resp := doJSON(t, app, httptest.NewRequest("GET", "/api/v1/test-sentry?type="+tt.typ, nil), &body)
			require.Equal(t, 200, resp.StatusCode)
			assert.Equal(t, tt.typ, body.Type)
			assert.Equal(t, !tt.wantCaught, body.Success)
			assert.NotEmpty(t, body.EventID)
			if tt.wantCaught {
				assert.Contains(t, body.Message, "error was caught")
			}

			events := transport.Events()
			require.Len(t, events, tt.wantEvents)
			if tt.check != nil {
				tt.check(t, events)
			}
		})
	}
}

func TestSentryTestEvent_ExceptionWithScope(t *testing.T) {
	deps, transport := makeDeps(t)
	app := setupApp(deps)

	req := jsonRequest("POST", "/api/v1/test-sentry",
		`{"message":"crane offline","level":"warning","tags":{"site":"pier-70"},"context":{"crew":"B"}}`)
	var body struct {
		Success bool   `json:"success"`
		Kind    string `json:"kind"`
		EventID string `json:"eventId"`
	}
	resp := doJSON(t, app, req, &body)
	require.Equal(t, 200, resp.StatusCode)
	assert.True(t, body.Success)
	assert.Equal(t, "exception", body.Kind)

	events := transport.Events()
	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, sentry.LevelWarning, ev.Level)
	assert.Equal(t, "pier-70", ev.Tags["site"])
	assert.Equal(t, "B", ev.Contexts["custom"]["crew"])
	require.NotEmpty(t, ev.Exception)
	assert.Equal(t, "crane offline", ev.Exception[len(ev.Exception)-1].Value)
}

func TestSentryTestEvent_PlainMessage(t *testing.T) {
	deps, transport := makeDeps(t)
	app := setupApp(deps)

	var body struct {
		Kind string `json:"kind"`
	}
	resp := doJSON(t, app, jsonRequest("POST", "/api/v1/test-sentry", `{"level":"info"}`), &body)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "message", body.Kind)

	events := transport.Events()
	require.Len(t, events, 1)
	assert.Equal(t, sentry.LevelInfo, events[0].Level)
	assert.Empty(t, events[0].Exception)
}

func TestSentryTestEvent_MalformedJSON(t *testing.T) {
	deps, transport := makeDeps(t)
	app := setupApp(deps)

	resp := doJSON(t, app, jsonRequest("POST", "/api/v1/test-sentry", `{"message":`), nil)
	require.Equal(t, 400, resp.StatusCode)
	assert.Empty(t, transport.Events())
}

func TestSentryTest_NoReporter(t *testing.T) {
	deps, _ := makeDeps(t, func(d *handler.Dependencies) { d.Reporter = nil })
	app := setupApp(deps)

	resp := doJSON(t, app, httptest.NewRequest("GET", "/api/v1/test-sentry?type=capture", nil), nil)
	assert.Equal(t, 503, resp.StatusCode)
}
