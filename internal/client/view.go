// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package client

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nnsi/hono-practice-sub008/models"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	labelStyle = lipgloss.NewStyle().Faint(true).Width(14)
	boxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	faintStyle = lipgloss.NewStyle().Faint(true)
)

const timeLayout = time.RFC3339

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

func renderNotice(msg, detail string) string {
	if detail == "" {
		return okStyle.Render(msg)
	}
	return okStyle.Render(msg) + " " + faintStyle.Render("("+detail+")")
}

func renderStatus(s models.AggregateStatus) string {
	lastSynced := "never"
	if s.LastSyncedAt != nil {
		lastSynced = s.LastSyncedAt.Local().Format(timeLayout)
	}

	percentStyle := okStyle
	switch {
	case s.FailedCount > 0:
		percentStyle = errStyle
	case s.SyncPercentage < 100 && s.TotalCount > 0:
		percentStyle = warnStyle
	}

	lines := []string{
		titleStyle.Render("Sync status"),
		row("synced", percentStyle.Render(strconv.Itoa(s.SyncPercentage)+"%")+faintStyle.Render(fmt.Sprintf(" of %d", s.TotalCount))),
		row("pending", strconv.Itoa(s.PendingCount)),
		row("syncing", strconv.Itoa(s.SyncingCount)),
		row("failed", countStyle(s.FailedCount, errStyle).Render(strconv.Itoa(s.FailedCount))),
		row("last synced", lastSynced),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func renderCycleReport(r models.CycleReport) string {
	out := r.Push.Outcome
	lines := []string{
		titleStyle.Render("Sync cycle") + faintStyle.Render(" ("+string(r.Trigger)+")"),
		row("chunks", strconv.Itoa(r.Push.ChunksSent)),
		row("synced", strconv.Itoa(len(out.SyncedIDs))),
		row("skipped", strconv.Itoa(len(out.SkippedIDs))),
		row("conflicts", countStyle(len(out.ServerWins), warnStyle).Render(strconv.Itoa(len(out.ServerWins)))),
		row("failed", countStyle(len(out.FailedIDs), errStyle).Render(strconv.Itoa(len(out.FailedIDs)))),
		row("held back", strconv.Itoa(len(r.Push.Exhausted))),
		row("pulled", fmt.Sprintf("%d changes in %d pages", r.Pull.Applied, r.Pull.Pages)),
	}
	if r.Pull.Conflicts > 0 {
		lines = append(lines, row("pull conflicts", warnStyle.Render(strconv.Itoa(r.Pull.Conflicts))))
	}
	if r.Push.Buffered {
		lines = append(lines, faintStyle.Render("sent through the server queue"))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		boxStyle.Render(strings.Join(lines, "\n")),
		renderStatus(r.Status),
	)
}

func renderConflicts(conflicts []models.Conflict) string {
	if len(conflicts) == 0 {
		return okStyle.Render("no conflicts")
	}

	blocks := make([]string, 0, len(conflicts))
	for _, c := range conflicts {
		server := string(c.ServerPayload)
		if c.ServerDeleted {
			server = "deleted"
		}
		version := "-"
		if c.ServerVersion != nil {
			version = strconv.FormatInt(*c.ServerVersion, 10)
		}

		lines := []string{
			warnStyle.Render(c.ClientID),
			row("entity", c.Key().String()),
			row("source", string(c.Source)),
			row("local", orDash(string(c.LocalPayload))),
			row("server", orDash(server)),
			row("server ver.", version),
			row("detected", c.DetectedAt.Local().Format(timeLayout)),
		}
		if c.Message != "" {
			lines = append(lines, row("message", c.Message))
		}
		blocks = append(blocks, boxStyle.Render(strings.Join(lines, "\n")))
	}

	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func renderEntities(records []models.EntityRecord) string {
	if len(records) == 0 {
		return faintStyle.Render("nothing stored")
	}

	lines := make([]string, 0, len(records)+1)
	lines = append(lines, titleStyle.Render(fmt.Sprintf("%-36s %-9s %4s  %s", "id", "state", "ver", "payload")))
	for _, r := range records {
		state := string(r.State)
		if r.State == models.EntityStateArchived {
			state = faintStyle.Render(fmt.Sprintf("%-9s", state))
		} else {
			state = fmt.Sprintf("%-9s", state)
		}
		lines = append(lines, fmt.Sprintf("%-36s %s %4d  %s", r.EntityID, state, r.Version, orDash(string(r.Payload))))
	}
	return strings.Join(lines, "\n")
}

func renderBuildInfo(info models.AppBuildInfo) string {
	return boxStyle.Render(strings.Join([]string{
		titleStyle.Render("sync-client"),
		row("version", info.BuildVersion()),
		row("date", info.BuildDate()),
		row("commit", info.BuildCommit()),
	}, "\n"))
}

func countStyle(n int, style lipgloss.Style) lipgloss.Style {
	if n == 0 {
		return lipgloss.NewStyle()
	}
	return style
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
