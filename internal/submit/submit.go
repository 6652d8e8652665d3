// Package submit drives the final submission: serializing the form state,
// posting it to the registry, and mapping the response onto the error
// taxonomy. At most one submission per session is in flight; concurrent
// attempts are refused rather than queued.
package submit

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/curatehq/curate/internal/client"
	"github.com/curatehq/curate/internal/form"
	"github.com/curatehq/curate/model"
)

// statusSessionExpired is the registry's session-expiry convention. It is
// not in net/http's table.
const statusSessionExpired = 419

// Sender posts a serialized payload to the registry.
type Sender interface {
	SubmitResource(ctx context.Context, token string, payload model.Payload) (*client.Result, error)
}

// Service submits form states.
type Service struct {
	engine *form.Engine
	sender Sender
	log    *zap.Logger

	mu       sync.Mutex
	inFlight map[string]bool
}

// NewService creates a submit service.
func NewService(engine *form.Engine, sender Sender, log *zap.Logger) *Service {
	return &Service{
		engine:   engine,
		sender:   sender,
		log:      log.Named("submit"),
		inFlight: make(map[string]bool),
	}
}

// Submit checks readiness, serializes the state, and posts it. The session
// id keys the single-flight guard; a second submit for the same session
// while one is pending is refused with CONFLICT.
func (s *Service) Submit(ctx context.Context, sessionID, token string, state *form.State) (model.SubmitResult, error) {
	if r := s.engine.Evaluate(state); !r.Ready() {
		return model.SubmitResult{}, model.NewConflictError("the record is not ready for submission")
	}

	s.mu.Lock()
	if s.inFlight[sessionID] {
		s.mu.Unlock()
		return model.SubmitResult{}, model.NewConflictError("a submission is already in flight")
	}
	s.inFlight[sessionID] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.inFlight, sessionID)
		s.mu.Unlock()
	}()

	payload := form.BuildPayload(state)
	res, err := s.sender.SubmitResource(ctx, token, payload)
	if err != nil {
		s.log.Warn("submission transport failure",
			zap.String("session", sessionID),
			zap.Error(err))
		return model.SubmitResult{}, err
	}

	return s.interpret(sessionID, res)
}

// interpret maps the registry's response onto the taxonomy.
func (s *Service) interpret(sessionID string, res *client.Result) (model.SubmitResult, error) {
	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		var result model.SubmitResult
		if len(res.Body) > 0 {
			_ = json.Unmarshal(res.Body, &result)
		}
		if result.Message == "" {
			result.Message = "The resource was registered successfully."
		}
		s.log.Info("submission accepted", zap.String("session", sessionID))
		return result, nil

	case res.StatusCode == statusSessionExpired:
		s.log.Info("submission refused, session expired", zap.String("session", sessionID))
		return model.SubmitResult{}, model.NewSessionExpiredError()

	case res.StatusCode == http.StatusUnprocessableEntity, res.StatusCode == http.StatusBadRequest:
		return model.SubmitResult{}, validationEnvelope(res.Body)

	case res.StatusCode == http.StatusUnauthorized, res.StatusCode == http.StatusForbidden:
		return model.SubmitResult{}, model.NewUnauthorizedError("the registry refused the credentials")

	case res.StatusCode >= 500:
		s.log.Warn("registry failure",
			zap.String("session", sessionID),
			zap.Int("status", res.StatusCode))
		return model.SubmitResult{}, model.NewBackendUnavailableError()

	default:
		return model.SubmitResult{}, model.NewInternalError()
	}
}

// validationEnvelope flattens the registry's field-error map into an
// envelope with details ordered by field name, so the message list renders
// deterministically.
func validationEnvelope(body []byte) *model.ErrorEnvelope {
	var response struct {
		Message string              `json:"message"`
		Errors  map[string][]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &response); err != nil || len(response.Errors) == 0 {
		msg := response.Message
		if msg == "" {
			msg = "The registry rejected the submission"
		}
		return model.NewBadRequestError(msg)
	}

	fields := make([]string, 0, len(response.Errors))
	for field := range response.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var details []model.FieldError
	for _, field := range fields {
		for _, msg := range response.Errors[field] {
			details = append(details, model.FieldError{Field: field, Message: msg})
		}
	}
	return model.NewValidationError(details)
}
