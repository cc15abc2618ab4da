// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/nnsi/hono-practice-sub008/internal/adapter"
	"github.com/nnsi/hono-practice-sub008/internal/logger"
	"github.com/nnsi/hono-practice-sub008/internal/store"
	"github.com/nnsi/hono-practice-sub008/models"
)

// clientPuller applies server changes page by page. The watermark is the
// server's change-log cursor; it only moves after the last page was applied,
// so an interrupted pull is repeated from the old watermark.
type clientPuller struct {
	repository store.LocalSyncRepository
	adapter    adapter.ServerAdapter

	limit       int
	entityTypes []models.EntityType

	now func() time.Time

	logger *logger.Logger
}

func (p *clientPuller) pull(ctx context.Context, userID string) (models.PullReport, error) {
	var report models.PullReport

	watermark, err := p.repository.Watermark(ctx)
	if err != nil {
		return report, fmt.Errorf("load watermark: %w", err)
	}

	req := models.PullRequest{
		EntityTypes: p.entityTypes,
		Limit:       p.limit,
		Cursor:      watermark,
	}
	next := watermark

	for {
		if err = ctx.Err(); err != nil {
			return report, err
		}

		resp, err := p.adapter.Pull(context.WithoutCancel(ctx), req)
		if err != nil {
			return report, mapAdapterError(err)
		}
		report.Pages++

		applied, conflicts, err := p.applyChanges(ctx, userID, resp.Changes)
		report.Applied += applied
		report.Conflicts += conflicts
		if err != nil {
			return report, err
		}

		if resp.NextCursor != "" {
			next = resp.NextCursor
		}

		if !resp.HasMore || resp.NextCursor == "" {
			break
		}
		req.Cursor = resp.NextCursor
	}

	if next != watermark {
		if err = p.repository.SetWatermark(ctx, next); err != nil {
			return report, fmt.Errorf("store watermark: %w", err)
		}
	}
	report.Watermark = next

	p.logger.Debug().
		Int("pages", report.Pages).
		Int("applied", report.Applied).
		Int("conflicts", report.Conflicts).
		Msg("pull finished")

	return report, nil
}

// applyChanges applies changes in order and counts the recorded conflicts
// separately.
func (p *clientPuller) applyChanges(ctx context.Context, userID string, changes []models.EntityChange) (applied, conflicts int, err error) {
	for _, change := range changes {
		conflict, err := p.repository.ApplyServerChange(ctx, change, userID, p.now())
		if err != nil {
			return applied, conflicts, fmt.Errorf("apply change of %s: %w", change.Key(), err)
		}
		if conflict != nil {
			conflicts++
			p.logger.Info().
				Str("client_id", conflict.ClientID).
				Str("entity", conflict.Key().String()).
				Msg("pull conflict recorded")
			continue
		}
		applied++
	}
	return applied, conflicts, nil
}
