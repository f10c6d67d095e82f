package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/auth"
	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/database"
	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/metrics"
	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/rooms"
	"github.com/MarcoPoloResearchLab/daypoll/backend/internal/visitors"
	sqlite "github.com/glebarez/sqlite"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const testSigningSecret = "router-test-secret"

var testDatabaseSequence atomic.Int64

type sequenceIDGenerator struct {
	prefix string
	next   atomic.Int64
}

func (g *sequenceIDGenerator) NewID() (string, error) {
	return fmt.Sprintf("%s%03d", g.prefix, g.next.Add(1)), nil
}

type testServer struct {
	handler http.Handler
	tokens  *auth.TokenIssuer
	metrics *metrics.Metrics
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func newTestServer(testContext *testing.T) *testServer {
	testContext.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:daypoll_server_%d_%d?mode=memory&cache=shared", time.Now().UnixNano(), testDatabaseSequence.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.Migrate(db, zap.NewNop()); err != nil {
		testContext.Fatalf("failed to migrate: %v", err)
	}

	clock := func() time.Time { return time.Date(2025, time.February, 1, 9, 0, 0, 0, time.UTC) }
	tokens, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(testSigningSecret),
		Issuer:        auth.DefaultIssuer,
		Audience:      auth.DefaultAudience,
		TokenTTL:      time.Hour,
		Clock:         clock,
	})
	if err != nil {
		testContext.Fatalf("failed to construct token issuer: %v", err)
	}
	visitorService, err := visitors.NewService(visitors.ServiceConfig{
		Database:   db,
		Clock:      clock,
		IDProvider: &sequenceIDGenerator{prefix: "visitor-"},
	})
	if err != nil {
		testContext.Fatalf("failed to construct visitor service: %v", err)
	}
	store, err := rooms.NewGormStore(db, clock)
	if err != nil {
		testContext.Fatalf("failed to construct store: %v", err)
	}
	collectors := metrics.New()
	roomsService, err := rooms.NewService(rooms.ServiceConfig{
		Store:              store,
		Clock:              clock,
		RoomIDs:            &sequenceIDGenerator{prefix: "room"},
		VoteIDs:            &sequenceIDGenerator{prefix: "vote-"},
		ShareBaseURL:       "https://daypoll.test",
		ObserveAggregation: collectors.ObserveAggregation,
	})
	if err != nil {
		testContext.Fatalf("failed to construct rooms service: %v", err)
	}

	handler, err := NewHTTPHandler(Dependencies{
		TokenIssuer:  tokens,
		Visitors:     visitorService,
		RoomsService: roomsService,
		Metrics:      collectors,
		Logger:       zap.NewNop(),
	})
	if err != nil {
		testContext.Fatalf("failed to construct handler: %v", err)
	}
	return &testServer{handler: handler, tokens: tokens, metrics: collectors}
}

func (s *testServer) do(testContext *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	testContext.Helper()
	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			testContext.Fatalf("failed to encode body: %v", err)
		}
	}
	request := httptest.NewRequest(method, path, &payload)
	request.Header.Set("Content-Type", "application/json")
	if token != "" {
		request.Header.Set(auth.HeaderName, token)
	}
	recorder := httptest.NewRecorder()
	s.handler.ServeHTTP(recorder, request)

	var decoded envelope
	if recorder.Body.Len() > 0 {
		if err := json.Unmarshal(recorder.Body.Bytes(), &decoded); err != nil {
			testContext.Fatalf("failed to decode response %q: %v", recorder.Body.String(), err)
		}
	}
	return recorder, decoded
}

func (s *testServer) issueVisitor(testContext *testing.T) (string, string) {
	testContext.Helper()
	recorder, response := s.do(testContext, http.MethodPost, "/api/visitors", "", nil)
	if recorder.Code != http.StatusCreated {
		testContext.Fatalf("expected 201 issuing visitor, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var payload visitorTokenPayload
	if err := json.Unmarshal(response.Data, &payload); err != nil {
		testContext.Fatalf("failed to decode visitor payload: %v", err)
	}
	return payload.VisitorID, payload.VisitorToken
}

func (s *testServer) createRoom(testContext *testing.T, token string) string {
	testContext.Helper()
	recorder, response := s.do(testContext, http.MethodPost, "/api/rooms", token, map[string]any{
		"title":           "Team dinner",
		"hostNickname":    "Host",
		"startDate":       "2025-02-01",
		"endDate":         "2025-02-10",
		"maxParticipants": 5,
	})
	if recorder.Code != http.StatusCreated {
		testContext.Fatalf("expected 201 creating room, got %d: %s", recorder.Code, recorder.Body.String())
	}
	var created rooms.CreatedRoom
	if err := json.Unmarshal(response.Data, &created); err != nil {
		testContext.Fatalf("failed to decode room payload: %v", err)
	}
	return created.RoomID
}
