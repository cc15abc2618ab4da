// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/nnsi/hono-practice-sub008/internal/adapter"
	"github.com/nnsi/hono-practice-sub008/internal/config"
	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/internal/service"
	"github.com/nnsi/hono-practice-sub008/internal/store"
	"github.com/nnsi/hono-practice-sub008/models"
)

// ErrNotLoggedIn is returned by commands that need a stored session.
var ErrNotLoggedIn = errors.New("not logged in, run `login` or `register` first")

// App runs client operations against the wired services and renders their
// results to out.
type App struct {
	services *service.ClientServices
	close    func() error
	out      io.Writer

	logger *logger.Logger
}

// NewApp opens the local store and connects the services to the server
// named in cfg.
func NewApp(ctx context.Context, cfg *config.ClientConfig, out io.Writer, log *logger.Logger) (*App, error) {
	storages, err := store.NewClientStorages(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("create local storage: %w", err)
	}

	serverAdapter, err := adapter.NewHTTPServerAdapter(cfg.Adapter, cfg.App, storages.SessionRepository, log)
	if err != nil {
		storages.Close()
		return nil, fmt.Errorf("create server adapter: %w", err)
	}

	return &App{
		services: service.NewClientServices(storages, serverAdapter, *cfg, log),
		close:    storages.Close,
		out:      out,
		logger:   log,
	}, nil
}

func (a *App) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}

// restoreSession loads the stored session into the transport.
func (a *App) restoreSession(ctx context.Context) error {
	if _, err := a.services.AuthService.RestoreSession(ctx); err != nil {
		if errors.Is(err, service.ErrNotAuthenticated) {
			return ErrNotLoggedIn
		}
		return err
	}
	return nil
}

func (a *App) Register(ctx context.Context, login, password string) error {
	session, err := a.services.AuthService.Register(ctx, models.User{Login: login, Password: password})
	if err != nil {
		return fmt.Errorf("register: %w", err)
	}
	fmt.Fprintln(a.out, renderNotice("registered as "+login, session.UserID))
	return nil
}

func (a *App) Login(ctx context.Context, login, password string) error {
	session, err := a.services.AuthService.Login(ctx, models.User{Login: login, Password: password})
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	fmt.Fprintln(a.out, renderNotice("logged in as "+login, session.UserID))
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.services.AuthService.Logout(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	fmt.Fprintln(a.out, renderNotice("logged out", ""))
	return nil
}

func (a *App) Create(ctx context.Context, entityType models.EntityType, entityID, payload string) error {
	record, err := a.services.EntityService.Create(ctx, entityType, entityID, json.RawMessage(payload))
	if err != nil {
		return fmt.Errorf("create %s: %w", entityType, err)
	}
	fmt.Fprintln(a.out, renderEntities([]models.EntityRecord{record}))
	return nil
}

func (a *App) Update(ctx context.Context, key models.EntityKey, payload string) error {
	record, err := a.services.EntityService.Update(ctx, key, json.RawMessage(payload))
	if err != nil {
		return fmt.Errorf("update %s: %w", key, err)
	}
	fmt.Fprintln(a.out, renderEntities([]models.EntityRecord{record}))
	return nil
}

func (a *App) Delete(ctx context.Context, key models.EntityKey) error {
	if err := a.services.EntityService.Delete(ctx, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	fmt.Fprintln(a.out, renderNotice("archived "+key.String(), ""))
	return nil
}

func (a *App) Get(ctx context.Context, key models.EntityKey) error {
	record, err := a.services.EntityService.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	fmt.Fprintln(a.out, renderEntities([]models.EntityRecord{record}))
	return nil
}

func (a *App) List(ctx context.Context, entityType models.EntityType) error {
	records, err := a.services.EntityService.List(ctx, entityType)
	if err != nil {
		return fmt.Errorf("list %s: %w", entityType, err)
	}
	fmt.Fprintln(a.out, renderEntities(records))
	return nil
}

// Sync runs one manual cycle. The report is shown even when the cycle
// failed part-way.
func (a *App) Sync(ctx context.Context) error {
	report, err := a.services.SyncService.Sync(ctx, models.TriggerManual)
	fmt.Fprintln(a.out, renderCycleReport(report))
	if err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	return nil
}

func (a *App) Status(ctx context.Context) error {
	status, err := a.services.SyncService.Status(ctx)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	fmt.Fprintln(a.out, renderStatus(status))
	return nil
}

func (a *App) Conflicts(ctx context.Context) error {
	conflicts, err := a.services.SyncService.Conflicts(ctx)
	if err != nil {
		return fmt.Errorf("conflicts: %w", err)
	}
	fmt.Fprintln(a.out, renderConflicts(conflicts))
	return nil
}

func (a *App) Resolve(ctx context.Context, clientID string, resolution models.ConflictResolution) error {
	if err := a.services.SyncService.ResolveConflict(ctx, clientID, resolution); err != nil {
		return fmt.Errorf("resolve %s: %w", clientID, err)
	}
	fmt.Fprintln(a.out, renderNotice(fmt.Sprintf("resolved %s with %s", clientID, resolution), ""))
	return nil
}

// Run keeps the background sync job alive until ctx is cancelled or the
// process receives an interrupt.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.services.SyncJob.Start(ctx)
	defer a.services.SyncJob.Stop()

	fmt.Fprintln(a.out, renderNotice("background sync running, press Ctrl+C to stop", ""))
	<-ctx.Done()

	return a.Status(context.WithoutCancel(ctx))
}
