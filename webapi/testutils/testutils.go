// Package testutils builds an in-memory engine behind the HTTP adapter for
// handler tests.
package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"github.com/ticketcore/promoengine/infra/cache"
	"github.com/ticketcore/promoengine/infra/repository/memory"
	"github.com/ticketcore/promoengine/pkg/app"
	"github.com/ticketcore/promoengine/pkg/audit"
	"github.com/ticketcore/promoengine/pkg/config"
	iso "github.com/ticketcore/promoengine/pkg/currency"
	"github.com/ticketcore/promoengine/webapi"
	"github.com/ticketcore/promoengine/webapi/common"
)

// APITestSuite serves the full route table over a fresh in-memory store for
// every test.
type APITestSuite struct {
	suite.Suite
	App     *fiber.App
	Engine  *app.App
	Audit   *[]audit.Entry
	ActorID uuid.UUID
	OrgID   uuid.UUID
}

// SetupTest builds a new engine so tests never share state.
func (s *APITestSuite) SetupTest() {
	s.App, s.Engine, s.Audit = NewTestApp(nil)
	s.ActorID = uuid.New()
	s.OrgID = uuid.New()
}

// NewTestApp wires the engine on the memory store. A nil cfg gets a generous
// rate limit.
func NewTestApp(cfg *config.App) (*fiber.App, *app.App, *[]audit.Entry) {
	if cfg == nil {
		cfg = &config.App{
			Env:       "test",
			RateLimit: &config.RateLimit{MaxRequests: 10_000, Window: time.Minute},
			Promotion: &config.Promotion{},
		}
	}
	entries := &[]audit.Entry{}
	deps := &app.Deps{
		Uow:         memory.NewUoW(memory.NewStore()),
		Registry:    iso.Default(),
		ConfigCache: cache.NewConfigCache(time.Minute),
		Audit: audit.SinkFunc(func(_ context.Context, e audit.Entry) error {
			*entries = append(*entries, e)
			return nil
		}),
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	engine := app.New(deps, cfg)
	if err := engine.Start(context.Background()); err != nil {
		panic(err)
	}
	return webapi.SetupApp(engine), engine, entries
}

// MakeRequest sends body (marshalled unless already a string) and returns the
// raw response. An empty actor omits the X-Actor-ID header.
func MakeRequest(app *fiber.App, method, path string, body any, actor string) *http.Response {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			panic(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if actor != "" {
		req.Header.Set(common.HeaderActorID, actor)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		panic(err)
	}
	return resp
}

// MakeRequest sends a request as the suite's actor.
func (s *APITestSuite) MakeRequest(method, path string, body any) *http.Response {
	return MakeRequest(s.App, method, path, body, s.ActorID.String())
}

// Decode reads the standard envelope and unmarshals its data into out.
func (s *APITestSuite) Decode(resp *http.Response, out any) common.Response {
	defer resp.Body.Close() //nolint:errcheck
	var env struct {
		common.Response
		Data json.RawMessage `json:"data"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&env))
	if out != nil && len(env.Data) > 0 {
		s.Require().NoError(json.Unmarshal(env.Data, out))
	}
	return env.Response
}

// Problem reads an RFC 9457 problem response.
func (s *APITestSuite) Problem(resp *http.Response) common.ProblemDetails {
	defer resp.Body.Close() //nolint:errcheck
	s.Contains(resp.Header.Get(fiber.HeaderContentType), common.MIMEProblemJSON)
	var pd common.ProblemDetails
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&pd))
	return pd
}
