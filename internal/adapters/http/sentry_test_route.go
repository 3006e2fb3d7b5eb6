package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/constructtrack/platform/internal/reporting"
)

// SentryTestTypes are the accepted values of the test-sentry type parameter.
var SentryTestTypes = []string{"basic", "async", "custom", "capture", "performance", "feedback"}

const caughtMessage = "error was caught and should be reported to Sentry"

// SentryTestHandler triggers one kind of reporting event per call. Failures
// raised on purpose are recovered, reported, and answered with 200.
func SentryTestHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		typ := utils.CopyString(c.Query("type", "basic"))
		if !slices.Contains(SentryTestTypes, typ) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":      fmt.Sprintf("Invalid test type %q", typ),
				"validTypes": SentryTestTypes,
			})
		}
		if deps.Reporter == nil {
			return errUnavailable(c, "error reporting is not configured")
		}

		ctx := c.UserContext()
		tagType := func(scope *sentry.Scope) { scope.SetTag("test.type", typ) }

		defer func() {
			if rec := recover(); rec != nil {
				id := deps.Reporter.Recover(ctx, rec)
				err = caught(c, typ, fmt.Sprint(rec), id)
			}
		}()

		id, testErr := runSentryTest(ctx, c, deps.Reporter, typ)
		if testErr != nil {
			id = deps.Reporter.Exception(ctx, testErr, tagType)
			return caught(c, typ, testErr.Error(), id)
		}

		return c.JSON(fiber.Map{
			"success": true,
			"type":    typ,
			"message": fmt.Sprintf("Sentry %s test completed", typ),
			"eventId": id,
		})
	}
}

func caught(c *fiber.Ctx, typ, cause string, id *sentry.EventID) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": false,
		"type":    typ,
		"message": "Test " + caughtMessage,
		"error":   cause,
		"eventId": id,
	})
}

func runSentryTest(ctx context.Context, c *fiber.Ctx, r *reporting.Reporter, typ string) (*sentry.EventID, error) {
	switch typ {
	case "basic":
		panic(errors.New("test error from test-sentry (basic)"))

	case "async":
		errCh := make(chan error, 1)
		go func() {
			time.Sleep(10 * time.Millisecond)
			errCh <- errors.New("test error from test-sentry (async)")
		}()
		select {
		case err := <-errCh:
			return nil, err
		case <-ctx.Done():
			return nil, ctx.Err()
		}

	case "custom":
		return r.Report(ctx, errors.New("custom structured test error"),
			reporting.ReportContext{
				Source:    "test-sentry",
				URL:       utils.CopyString(c.OriginalURL()),
				UserAgent: utils.CopyString(c.Get(fiber.HeaderUserAgent)),
				AdditionalData: map[string]any{
					"testType": typ,
					"method":   utils.CopyString(c.Method()),
				},
			},
			reporting.Classification{
				Type:        "TestError",
				Severity:    reporting.SeverityMedium,
				Category:    "testing",
				Recoverable: true,
			}), nil

	case "capture":
		return r.Exception(ctx, errors.New("directly captured test error"), func(scope *sentry.Scope) {
			scope.SetLevel(sentry.LevelWarning)
			scope.SetTags(map[string]string{
				"test.type": typ,
				"section":   "test-sentry",
			})
			scope.SetContext("test", sentry.Context{
				"captured_at": time.Now().UTC().Format(time.RFC3339),
				"path":        utils.CopyString(c.Path()),
			})
		}), nil

	case "performance":
		return performanceTest(ctx, r)

	case "feedback":
		id := r.Exception(ctx, errors.New("test error with user feedback"), func(scope *sentry.Scope) {
			scope.SetTag("test.type", typ)
		})
		if id != nil {
			r.SendFeedback(ctx, reporting.Feedback{
				EventID:  *id,
				Name:     "Test User",
				Email:    "test@example.com",
				Comments: "Simulated feedback from the test-sentry route",
			})
		}
		return id, nil
	}
	return nil, fmt.Errorf("unhandled test type %q", typ)
}

// performanceTest records a transaction with nested spans around a short
// simulated workload.
func performanceTest(ctx context.Context, r *reporting.Reporter) (*sentry.EventID, error) {
	ctx = sentry.SetHubOnContext(ctx, r.HubFromContext(ctx))

	tx := sentry.StartTransaction(ctx, "test-sentry.performance", sentry.WithOpName("test"))
	defer tx.Finish()

	steps := []struct {
		op    string
		delay time.Duration
	}{
		{"db.query", 50 * time.Millisecond},
		{"http.client", 30 * time.Millisecond},
		{"serialize", 10 * time.Millisecond},
	}
	for _, step := range steps {
		span := tx.StartChild(step.op)
		span.Description = "simulated " + step.op
		select {
		case <-time.After(step.delay):
		case <-ctx.Done():
			span.Status = sentry.SpanStatusCanceled
			span.Finish()
			return nil, ctx.Err()
		}
		span.Status = sentry.SpanStatusOK
		span.Finish()
	}

	return r.Message(ctx, "performance test completed", func(scope *sentry.Scope) {
		scope.SetTag("test.type", "performance")
		scope.SetTag("trace_id", tx.TraceID.String())
	}), nil
}

type sentryTestRequest struct {
	Message string            `json:"message"`
	Level   string            `json:"level"`
	Tags    map[string]string `json:"tags"`
	Context map[string]any    `json:"context"`
}

// SentryTestEventHandler captures an event built from the caller's level,
// tags, and context.
func SentryTestEventHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req sentryTestRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   "Invalid JSON body",
				"message": err.Error(),
			})
		}
		if deps.Reporter == nil {
			return errUnavailable(c, "error reporting is not configured")
		}

		level, ok := reporting.ParseLevel(req.Level)
		if !ok {
			level = sentry.LevelError
		}

		configure := func(scope *sentry.Scope) {
			scope.SetLevel(level)
			scope.SetTag("test.type", "manual")
			scope.SetTags(req.Tags)
			if len(req.Context) > 0 {
				scope.SetContext("custom", sentry.Context(req.Context))
			}
		}

		ctx := c.UserContext()
		var id *sentry.EventID
		kind := "message"
		if req.Message != "" {
			kind = "exception"
			id = deps.Reporter.Exception(ctx, errors.New(req.Message), configure)
		} else {
			id = deps.Reporter.Message(ctx, "test message from test-sentry", configure)
		}

		return c.JSON(fiber.Map{
			"success": true,
			"kind":    kind,
			"level":   level,
			"eventId": id,
			"message": "Event sent to Sentry",
		})
	}
}
