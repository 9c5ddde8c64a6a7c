package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/bigbuild/buildwizard/internal/domain"
)

var dispatchTime = time.Date(2024, 5, 1, 13, 7, 30, 0, time.UTC)

func newTestDispatcher(client *mockWorkflowClient, history *mockHistoryRepository, waited *[]time.Duration) *Dispatcher {
	d := &Dispatcher{
		Client:  client,
		Logger:  zap.NewNop(),
		Timeout: time.Second,
		Delay:   5 * time.Second,
		Wait: func(_ context.Context, d time.Duration) error {
			*waited = append(*waited, d)
			return nil
		},
		Now: func() time.Time { return dispatchTime },
	}
	if history != nil {
		d.History = history
	}
	return d
}

func isoParams() domain.BuildParameters {
	defaults, _ := domain.DefaultsFor("communitybig")
	return defaults.Parameters()
}

func TestDispatchISOUseCase_Execute(t *testing.T) {
	const eventType = "ISO-bigcommunity_STABLE_xfce_2024-05-01_13-07"

	t.Run("Should succeed on 204, record history and wait the advisory delay", func(t *testing.T) {
		client := new(mockWorkflowClient)
		history := new(mockHistoryRepository)
		var waited []time.Duration
		uc := &DispatchISOUseCase{Dispatcher: newTestDispatcher(client, history, &waited), Repo: "build-iso"}
		client.On("Dispatch", mock.Anything, "communitybig", "build-iso", eventType, mock.Anything).
			Return(http.StatusNoContent, nil).Once()
		history.On("Append", mock.Anything, mock.MatchedBy(func(rec domain.DispatchRecord) bool {
			return rec.EventType == eventType && rec.Kind == domain.DispatchKindISO && rec.ID != ""
		})).Return(nil).Once()

		result, err := uc.Execute(context.Background(), isoParams())
		require.NoError(t, err)
		assert.Equal(t, eventType, result.EventType)
		assert.Equal(t, "https://github.com/communitybig/build-iso/actions", result.ActionsURL)
		assert.Equal(t, []time.Duration{5 * time.Second}, waited)
		client.AssertExpectations(t)
		history.AssertExpectations(t)
	})

	t.Run("Should report the event type limit on 422", func(t *testing.T) {
		client := new(mockWorkflowClient)
		history := new(mockHistoryRepository)
		var waited []time.Duration
		uc := &DispatchISOUseCase{Dispatcher: newTestDispatcher(client, history, &waited), Repo: "build-iso"}
		client.On("Dispatch", mock.Anything, "communitybig", "build-iso", eventType, mock.Anything).
			Return(http.StatusUnprocessableEntity, errors.New("Validation Failed"))

		_, err := uc.Execute(context.Background(), isoParams())
		assert.ErrorIs(t, err, domain.ErrEventTypeLimit)
		assert.Contains(t, err.Error(), "event types")
		assert.Empty(t, waited)
		client.AssertNumberOfCalls(t, "Dispatch", 1)
		history.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})

	t.Run("Should carry any other status code", func(t *testing.T) {
		for _, code := range []int{http.StatusOK, http.StatusNotFound, http.StatusInternalServerError} {
			client := new(mockWorkflowClient)
			var waited []time.Duration
			uc := &DispatchISOUseCase{Dispatcher: newTestDispatcher(client, nil, &waited), Repo: "build-iso"}
			client.On("Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
				Return(code, nil)

			_, err := uc.Execute(context.Background(), isoParams())
			var remoteErr *domain.RemoteRequestError
			require.ErrorAs(t, err, &remoteErr)
			assert.Equal(t, code, remoteErr.StatusCode)
		}
	})

	t.Run("Should report transport failures without swallowing them", func(t *testing.T) {
		client := new(mockWorkflowClient)
		var waited []time.Duration
		uc := &DispatchISOUseCase{Dispatcher: newTestDispatcher(client, nil, &waited), Repo: "build-iso"}
		transportErr := errors.New("connection refused")
		client.On("Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(0, transportErr)

		_, err := uc.Execute(context.Background(), isoParams())
		var remoteErr *domain.RemoteRequestError
		require.ErrorAs(t, err, &remoteErr)
		assert.Zero(t, remoteErr.StatusCode)
		assert.ErrorIs(t, err, transportErr)
	})

	t.Run("Should not dispatch incomplete parameters", func(t *testing.T) {
		client := new(mockWorkflowClient)
		var waited []time.Duration
		uc := &DispatchISOUseCase{Dispatcher: newTestDispatcher(client, nil, &waited), Repo: "build-iso"}
		params := isoParams()
		params.Edition = ""

		_, err := uc.Execute(context.Background(), params)
		assert.ErrorIs(t, err, domain.ErrConfigurationMissing)
		client.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Should keep an explicit release tag", func(t *testing.T) {
		client := new(mockWorkflowClient)
		var waited []time.Duration
		uc := &DispatchISOUseCase{Dispatcher: newTestDispatcher(client, nil, &waited), Repo: "build-iso"}
		params := isoParams()
		params.ReleaseTag = "2023-12-24_18-00"
		client.On("Dispatch", mock.Anything, "communitybig", "build-iso",
			"ISO-bigcommunity_STABLE_xfce_2023-12-24_18-00",
			mock.MatchedBy(func(p map[string]any) bool { return p["release_tag"] == "2023-12-24_18-00" }),
		).Return(http.StatusNoContent, nil)

		_, err := uc.Execute(context.Background(), params)
		require.NoError(t, err)
		client.AssertExpectations(t)
	})
}

func TestDispatchPackageUseCase_Execute(t *testing.T) {
	t.Run("Should send the AUR payload shape", func(t *testing.T) {
		client := new(mockWorkflowClient)
		var waited []time.Duration
		uc := &DispatchPackageUseCase{Dispatcher: newTestDispatcher(client, nil, &waited), Repo: "build-package"}
		build := domain.NewAURPackageBuild("aur-google-chrome", domain.PackageBranchTesting)
		client.On("Dispatch", mock.Anything, "communitybig", "build-package", domain.EventTypeAURBuild,
			mock.MatchedBy(func(p map[string]any) bool {
				return p["package_name"] == "google-chrome" &&
					p["aur_url"] == "https://aur.archlinux.org/google-chrome.git"
			}),
		).Return(http.StatusNoContent, nil)

		result, err := uc.Execute(context.Background(), "communitybig", build)
		require.NoError(t, err)
		assert.Equal(t, domain.EventTypeAURBuild, result.EventType)
		client.AssertExpectations(t)
	})

	t.Run("Should require an organization", func(t *testing.T) {
		var waited []time.Duration
		uc := &DispatchPackageUseCase{Dispatcher: newTestDispatcher(new(mockWorkflowClient), nil, &waited)}
		_, err := uc.Execute(context.Background(), "", domain.NewAURPackageBuild("x", domain.PackageBranchStable))
		assert.ErrorIs(t, err, domain.ErrConfigurationMissing)
	})
}
