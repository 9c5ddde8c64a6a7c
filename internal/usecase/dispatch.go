package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bigbuild/buildwizard/internal/domain"
	"github.com/bigbuild/buildwizard/internal/repository"
)

// DispatchResult describes an accepted dispatch.
type DispatchResult struct {
	EventType  string
	StatusCode int
	ActionsURL string
	Record     domain.DispatchRecord
}

// Dispatcher sends repository_dispatch events and records the accepted ones.
// A dispatch is sent once and never retried.
type Dispatcher struct {
	Client  repository.WorkflowClient
	History repository.HistoryRepository
	Logger  *zap.Logger
	// Timeout bounds the dispatch request.
	Timeout time.Duration
	// Delay is waited after an accepted dispatch so the run shows up before the user looks.
	Delay time.Duration
	Wait  func(ctx context.Context, d time.Duration) error
	Now   func() time.Time
}

// Send dispatches eventType with payload to owner/repo.
func (d *Dispatcher) Send(
	ctx context.Context,
	kind domain.DispatchKind,
	owner, repo, eventType string,
	payload map[string]any,
) (*DispatchResult, error) {
	logger := nopIfNil(d.Logger).With(
		zap.String("owner", owner),
		zap.String("repo", repo),
		zap.String("event_type", eventType),
	)
	reqCtx := ctx
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}
	code, err := d.Client.Dispatch(reqCtx, owner, repo, eventType, payload)
	if err := classifyDispatch(eventType, code, err); err != nil {
		logger.Error("dispatch failed", zap.Int("status", code), zap.Error(err))
		return nil, err
	}
	logger.Info("dispatch accepted", zap.Int("status", code), zap.Any("payload", payload))
	rec := domain.DispatchRecord{
		ID:         uuid.NewString(),
		Kind:       kind,
		Owner:      owner,
		Repo:       repo,
		EventType:  eventType,
		Payload:    payload,
		DispatchAt: d.now().UTC(),
	}
	if d.History != nil {
		if err := d.History.Append(ctx, rec); err != nil {
			logger.Warn("failed to record dispatch history", zap.Error(err))
		}
	}
	if d.Delay > 0 {
		if err := d.wait(ctx, d.Delay); err != nil {
			return nil, err
		}
	}
	return &DispatchResult{
		EventType:  eventType,
		StatusCode: code,
		ActionsURL: fmt.Sprintf("https://github.com/%s/%s/actions", owner, repo),
		Record:     rec,
	}, nil
}

// classifyDispatch maps the dispatch response to an error. Only 204 is success.
func classifyDispatch(eventType string, code int, err error) error {
	op := "dispatch " + eventType
	switch {
	case code == http.StatusNoContent:
		return nil
	case code == http.StatusUnprocessableEntity:
		return fmt.Errorf("%w (event type %s)", domain.ErrEventTypeLimit, eventType)
	case code != 0:
		return &domain.RemoteRequestError{Op: op, StatusCode: code, Err: err}
	case err == nil:
		return &domain.RemoteRequestError{Op: op, Err: errors.New("no response received")}
	case errors.Is(err, domain.ErrConfigurationMissing):
		return err
	default:
		return &domain.RemoteRequestError{Op: op, Err: err}
	}
}

func (d *Dispatcher) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

func (d *Dispatcher) wait(ctx context.Context, delay time.Duration) error {
	if d.Wait != nil {
		return d.Wait(ctx, delay)
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// DispatchISOUseCase dispatches an ISO build.
type DispatchISOUseCase struct {
	Dispatcher *Dispatcher
	// Repo is the workflow repository inside the selected organization.
	Repo string
}

// Execute validates params, stamps the release tag when missing and sends the dispatch.
func (uc *DispatchISOUseCase) Execute(ctx context.Context, params domain.BuildParameters) (*DispatchResult, error) {
	if params.ReleaseTag == "" {
		params.ReleaseTag = domain.ReleaseTag(uc.Dispatcher.now())
	}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid build parameters: %w", err)
	}
	return uc.Dispatcher.Send(ctx, domain.DispatchKindISO, params.Organization, uc.Repo,
		params.EventType(), params.ClientPayload())
}

// DispatchPackageUseCase dispatches a package build.
type DispatchPackageUseCase struct {
	Dispatcher *Dispatcher
	Repo       string
}

// Execute sends build to the package workflow of owner.
func (uc *DispatchPackageUseCase) Execute(
	ctx context.Context,
	owner string,
	build domain.PackageBuild,
) (*DispatchResult, error) {
	if owner == "" {
		return nil, fmt.Errorf("%w: organization", domain.ErrConfigurationMissing)
	}
	if err := build.Validate(); err != nil {
		return nil, fmt.Errorf("invalid package build: %w", err)
	}
	return uc.Dispatcher.Send(ctx, domain.DispatchKindPackage, owner, uc.Repo,
		build.EventType(), build.ClientPayload())
}
