// Package integration provides end-to-end tests of the newsletter API and the
// delivery worker against both PostgreSQL and MySQL.
package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/newsletter/internal/app"
	"github.com/allisson/newsletter/internal/config"
	idempotencyDTO "github.com/allisson/newsletter/internal/idempotency/http/dto"
	newsletterDTO "github.com/allisson/newsletter/internal/newsletter/http/dto"
	"github.com/allisson/newsletter/internal/testutil"
)

// integrationTestContext holds all dependencies and state for integration testing.
type integrationTestContext struct {
	container *app.Container
	db        *sql.DB
	server    *httptest.Server
	token     string
	dbDriver  string
}

// makeRequest performs an HTTP request and returns the response and body.
func (ctx *integrationTestContext) makeRequest(
	t *testing.T,
	method, path string,
	body any,
	headers map[string]string,
	useAuth bool,
) (*http.Response, []byte) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ctx.server.URL+path, bodyReader)
	require.NoError(t, err, "failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}
	if useAuth {
		req.Header.Set("Authorization", "Bearer "+ctx.token)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	//nolint:gosec // controlled test environment with localhost URLs
	resp, err := client.Do(req)
	require.NoError(t, err, "failed to perform request")

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	if closeErr := resp.Body.Close(); closeErr != nil {
		t.Logf("Warning: failed to close response body: %v", closeErr)
	}

	return resp, respBody
}

// publish posts an issue under the given idempotency key.
func (ctx *integrationTestContext) publish(
	t *testing.T,
	key string,
	req newsletterDTO.PublishRequest,
) (*http.Response, []byte) {
	t.Helper()
	return ctx.makeRequest(
		t,
		http.MethodPost,
		"/v1/newsletters",
		req,
		map[string]string{"Idempotency-Key": key},
		true,
	)
}

// countRows returns the number of rows of a table.
func (ctx *integrationTestContext) countRows(t *testing.T, table string) int {
	t.Helper()
	var count int
	require.NoError(t, ctx.db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&count))
	return count
}

// setupIntegrationTest initializes all components for integration testing.
func setupIntegrationTest(t *testing.T, dbDriver string) *integrationTestContext {
	t.Helper()

	gin.SetMode(gin.TestMode)

	var db *sql.DB
	var dsn string
	if dbDriver == "postgres" {
		testutil.SkipIfNoPostgres(t)
		db = testutil.SetupPostgresDB(t)
		dsn = testutil.GetPostgresTestDSN()
	} else {
		testutil.SkipIfNoMySQL(t)
		db = testutil.SetupMySQLDB(t)
		dsn = testutil.GetMySQLTestDSN()
	}

	cfg := &config.Config{
		DBDriver:                     dbDriver,
		DBConnectionString:           dsn,
		DBMaxOpenConnections:         10,
		DBMaxIdleConnections:         5,
		DBConnMaxLifetime:            time.Hour,
		ServerHost:                   "localhost",
		ServerPort:                   8080,
		LogLevel:                     "error",
		IdempotencyWaitTimeout:       15 * time.Second,
		IdempotencyPollInterval:      10 * time.Millisecond,
		DeliveryWorkerConcurrency:    1,
		DeliveryPollInterval:         10 * time.Millisecond,
		DeliveryErrorInterval:        10 * time.Millisecond,
		DeliveryMaxAttempts:          3,
		DeliveryMaxConsecutiveErrors: 3,
		DeliverySendTimeout:          time.Second,
		DeliveryRetryBaseDelay:       10 * time.Millisecond,
		DeliveryRetryMaxDelay:        100 * time.Millisecond,
		EmailProvider:                "log",
	}

	container := app.NewContainer(cfg)

	plainToken, tokenHash, err := container.TokenService().GenerateToken()
	require.NoError(t, err, "failed to generate operator token")
	testutil.CreateTestOperator(t, db, dbDriver, "Integration Test Operator", tokenHash)

	httpSrv, err := container.HTTPServer(context.Background())
	require.NoError(t, err, "failed to get HTTP server")

	handler := httpSrv.GetHandler()
	require.NotNil(t, handler, "handler should not be nil after SetupRouter")

	testServer := httptest.NewServer(handler)

	t.Logf("Integration test setup complete for %s", dbDriver)

	return &integrationTestContext{
		container: container,
		db:        db,
		server:    testServer,
		token:     plainToken,
		dbDriver:  dbDriver,
	}
}

// teardownIntegrationTest cleans up all resources.
func teardownIntegrationTest(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	if ctx.server != nil {
		ctx.server.Close()
	}

	if ctx.container != nil {
		if err := ctx.container.Shutdown(context.Background()); err != nil {
			t.Logf("Warning: container shutdown error: %v", err)
		}
	}

	if ctx.db != nil {
		testutil.TeardownDB(t, ctx.db)
	}

	t.Logf("Integration test teardown complete for %s", ctx.dbDriver)
}

var databases = []struct {
	name     string
	dbDriver string
}{
	{"PostgreSQL", "postgres"},
	{"MySQL", "mysql"},
}

// TestIntegration_Health_BasicChecks validates the health and readiness endpoints.
func TestIntegration_Health_BasicChecks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range databases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			resp, body := ctx.makeRequest(t, http.MethodGet, "/health", nil, nil, false)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			var health map[string]string
			require.NoError(t, json.Unmarshal(body, &health))
			assert.Equal(t, "healthy", health["status"])

			resp, body = ctx.makeRequest(t, http.MethodGet, "/ready", nil, nil, false)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			var ready map[string]string
			require.NoError(t, json.Unmarshal(body, &ready))
			assert.Equal(t, "ready", ready["status"])
		})
	}
}

// TestIntegration_Newsletter_PublishAndDeliver walks an issue from publication
// through idempotent replays to delivery by the worker.
func TestIntegration_Newsletter_PublishAndDeliver(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range databases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			for _, address := range []string{"ada@example.com", "grace@example.com", "linus@example.com"} {
				testutil.CreateTestSubscriber(t, ctx.db, tc.dbDriver, address, "confirmed")
			}
			testutil.CreateTestSubscriber(t, ctx.db, tc.dbDriver, "pending@example.com", "pending_confirmation")

			issue := newsletterDTO.PublishRequest{
				Title:       "Weekly digest",
				TextContent: "Plain body",
				HTMLContent: "<p>HTML body</p>",
			}
			key := uuid.Must(uuid.NewV7()).String()

			var issueID string
			var firstBody []byte

			t.Run("01_RequiresAuthentication", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/newsletters", issue, nil, false)
				assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			})

			t.Run("02_Publish", func(t *testing.T) {
				resp, body := ctx.publish(t, key, issue)
				require.Equal(t, http.StatusAccepted, resp.StatusCode, string(body))

				var accepted map[string]string
				require.NoError(t, json.Unmarshal(body, &accepted))
				issueID = accepted["issue_id"]
				require.NotEmpty(t, issueID)
				assert.Equal(t, "/v1/newsletters/"+issueID, resp.Header.Get("Location"))

				firstBody = body
				assert.Equal(t, 1, ctx.countRows(t, "newsletter_issues"))
				assert.Equal(t, 3, ctx.countRows(t, "issue_delivery_queue"))
			})

			t.Run("03_ReplayReturnsSavedResponse", func(t *testing.T) {
				resp, body := ctx.publish(t, key, issue)
				assert.Equal(t, http.StatusAccepted, resp.StatusCode)
				assert.Equal(t, firstBody, body)
				assert.Equal(t, "/v1/newsletters/"+issueID, resp.Header.Get("Location"))

				assert.Equal(t, 1, ctx.countRows(t, "newsletter_issues"))
				assert.Equal(t, 3, ctx.countRows(t, "issue_delivery_queue"))
			})

			t.Run("04_KeyReusedWithDifferentContent", func(t *testing.T) {
				changed := issue
				changed.Title = "Another title"
				resp, _ := ctx.publish(t, key, changed)
				assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
			})

			t.Run("05_HeaderAndBodyKeyMismatch", func(t *testing.T) {
				mismatched := issue
				mismatched.IdempotencyKey = "something-else"
				resp, _ := ctx.publish(t, key, mismatched)
				assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
			})

			t.Run("06_GetIssue", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/newsletters/"+issueID, nil, nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var got newsletterDTO.IssueResponse
				require.NoError(t, json.Unmarshal(body, &got))
				assert.Equal(t, issueID, got.ID)
				assert.Equal(t, issue.Title, got.Title)
			})

			t.Run("07_DeliverQueuedEmails", func(t *testing.T) {
				path := "/v1/newsletters/" + issueID + "/deliveries"

				resp, body := ctx.makeRequest(t, http.MethodGet, path, nil, nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode)
				var status newsletterDTO.DeliveryStatusResponse
				require.NoError(t, json.Unmarshal(body, &status))
				assert.Equal(t, int64(3), status.Pending)

				worker, err := ctx.container.Worker()
				require.NoError(t, err)
				processed, err := worker.RunUntilEmpty(context.Background())
				require.NoError(t, err)
				assert.Equal(t, 3, processed)

				resp, body = ctx.makeRequest(t, http.MethodGet, path, nil, nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode)
				require.NoError(t, json.Unmarshal(body, &status))
				assert.Equal(t, int64(0), status.Pending)
			})

			t.Run("08_ListKeys", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/idempotency-keys", nil, nil, true)
				require.Equal(t, http.StatusOK, resp.StatusCode)

				var list idempotencyDTO.ListKeysResponse
				require.NoError(t, json.Unmarshal(body, &list))
				require.Len(t, list.Data, 1)
				assert.Equal(t, key, list.Data[0].Key)
				assert.True(t, list.Data[0].IsValid)
				require.NotNil(t, list.Data[0].StatusCode)
				assert.Equal(t, http.StatusAccepted, *list.Data[0].StatusCode)
			})

			t.Run("09_RevokedKeyIsRejected", func(t *testing.T) {
				valid := false
				resp, _ := ctx.makeRequest(
					t,
					http.MethodPatch,
					"/v1/idempotency-keys/"+key,
					idempotencyDTO.SetValidityRequest{Valid: &valid},
					nil,
					true,
				)
				require.Equal(t, http.StatusNoContent, resp.StatusCode)

				resp, _ = ctx.publish(t, key, issue)
				assert.Equal(t, http.StatusConflict, resp.StatusCode)
				assert.Equal(t, 1, ctx.countRows(t, "newsletter_issues"))
			})
		})
	}
}

// TestIntegration_Newsletter_ConcurrentPublish fires the same request several
// times at once and checks that a single issue is created.
func TestIntegration_Newsletter_ConcurrentPublish(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range databases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			testutil.CreateTestSubscriber(t, ctx.db, tc.dbDriver, "ada@example.com", "confirmed")
			testutil.CreateTestSubscriber(t, ctx.db, tc.dbDriver, "grace@example.com", "confirmed")

			issue := newsletterDTO.PublishRequest{
				Title:       "Launch",
				TextContent: "Plain body",
				HTMLContent: "<p>HTML body</p>",
			}
			key := uuid.Must(uuid.NewV7()).String()

			const requests = 5
			statuses := make([]int, requests)
			bodies := make([][]byte, requests)

			var wg sync.WaitGroup
			for i := range requests {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					resp, body := ctx.publish(t, key, issue)
					statuses[i] = resp.StatusCode
					bodies[i] = body
				}(i)
			}
			wg.Wait()

			// Losers block on the owner's claim and replay its response.
			for i := range requests {
				require.Equal(t, http.StatusAccepted, statuses[i], string(bodies[i]))
				assert.Equal(t, bodies[0], bodies[i])
			}

			assert.Equal(t, 1, ctx.countRows(t, "newsletter_issues"))
			assert.Equal(t, 2, ctx.countRows(t, "issue_delivery_queue"))
			assert.Equal(t, 1, ctx.countRows(t, "idempotency"))
		})
	}
}
