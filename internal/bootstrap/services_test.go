package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"
	"time"

	"github.com/target/forum-api/config"
	"github.com/target/forum-api/internal/adapters/memory"
)

func TestNewServices_MemoryDeployment(t *testing.T) {
	cfg := &config.AppConfig{
		Auth: config.AuthConfig{
			SessionStore:         config.SessionStoreMemory,
			SessionIdleTimeout:   time.Minute,
			SessionSweepInterval: time.Minute,
			BcryptCost:           4,
		},
	}

	svc, err := NewServices(&ServiceDeps{Config: cfg, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("NewServices() error = %v", err)
	}
	if svc.Auth == nil || svc.Posts == nil || svc.Comments == nil || svc.Likes == nil || svc.Users == nil {
		t.Fatalf("NewServices() left a service unset: %+v", svc)
	}
	if svc.SessionSweeper == nil {
		t.Fatal("memory deployment should expose a session sweeper")
	}
	if svc.Cache != nil {
		t.Fatal("profile cache should be disabled without redis")
	}
	if svc.Observability.MetricsSink != nil {
		t.Fatal("metrics sink should be nil when metrics are disabled")
	}
}

func TestNewServices_RequiresConfig(t *testing.T) {
	if _, err := NewServices(nil); err == nil {
		t.Fatal("NewServices(nil) error = nil, want error")
	}
	if _, err := NewServices(&ServiceDeps{}); err == nil {
		t.Fatal("NewServices(no config) error = nil, want error")
	}
}

func TestBuildBackgroundServices(t *testing.T) {
	tests := []struct {
		name    string
		sweeper bool
		want    []string
	}{
		{name: "redis sessions", want: nil},
		{name: "memory sessions", sweeper: true, want: []string{"session reaper"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			orch := &ServiceOrchestrationConfig{Config: &config.AppConfig{}}
			if tt.sweeper {
				orch.Services.SessionSweeper = memory.NewSessionStore(memory.SessionStoreOptions{})
			}
			deps := &serviceStartupDeps{ctx: context.Background(), cfg: orch, logger: quietLogger()}

			var got []string
			for _, svc := range buildBackgroundServices(deps) {
				got = append(got, svc.name)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("buildBackgroundServices() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLaunchBackground_ReportsFailure(t *testing.T) {
	errCh := make(chan error, 1)
	deps := &serviceStartupDeps{ctx: context.Background(), logger: quietLogger(), errCh: errCh}

	done := launchBackground(deps.ctx, deps, backgroundService{
		name:  "flaky",
		start: func(context.Context) error { return errors.New("boom") },
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("background service did not finish")
	}
	select {
	case err := <-errCh:
		if err == nil || err.Error() != "flaky failed: boom" {
			t.Fatalf("error = %v, want %q", err, "flaky failed: boom")
		}
	default:
		t.Fatal("expected failure on error channel")
	}
}

func TestGracefulStop_CancelsBackgrounds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(done)
	}()

	err := gracefulStop(shutdownConfig{
		cancel:      cancel,
		httpServer:  &http.Server{},
		logger:      quietLogger(),
		backgrounds: []backgroundServiceHandle{{name: "loop", done: done}},
	})
	if err != nil {
		t.Fatalf("gracefulStop() error = %v", err)
	}
	select {
	case <-done:
	default:
		t.Fatal("background loop was not cancelled")
	}
}

func TestBuildHealthChecks(t *testing.T) {
	if got := buildHealthChecks(nil, nil); len(got) != 0 {
		t.Fatalf("buildHealthChecks(nil, nil) = %v, want empty", got)
	}
}

func TestEnabledComponents(t *testing.T) {
	cfg := &config.AppConfig{
		Auth:  config.AuthConfig{SessionStore: config.SessionStoreMemory},
		Cache: config.CacheConfig{ProfilesEnabled: true},
	}
	want := []string{"http", "sessions:memory", "session-reaper", "profile-cache"}
	if got := EnabledComponents(cfg); !reflect.DeepEqual(got, want) {
		t.Fatalf("EnabledComponents() = %v, want %v", got, want)
	}
}
