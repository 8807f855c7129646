// Package session keeps a caller's profile and recent analyses between runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ingredientagent"
)

const (
	DefaultTTL          = 24 * time.Hour
	DefaultHistoryLimit = 10
)

// Store persists profiles and a bounded, newest-first analysis history.
type Store interface {
	SaveProfile(ctx context.Context, sessionID string, profile ingredientagent.UserProfile) error
	// Profile reports false when nothing is saved for sessionID.
	Profile(ctx context.Context, sessionID string) (ingredientagent.UserProfile, bool, error)
	AppendHistory(ctx context.Context, sessionID string, entry HistoryEntry) error
	History(ctx context.Context, sessionID string) ([]HistoryEntry, error)
}

type Options struct {
	TTL          time.Duration
	HistoryLimit int
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = DefaultTTL
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = DefaultHistoryLimit
	}
	return o
}

// HistoryEntry summarizes one finished analysis.
type HistoryEntry struct {
	ProductName        string                  `json:"product_name"`
	OverallRisk        string                  `json:"overall_risk"`
	AverageSafetyScore int                     `json:"average_safety_score"`
	Ingredients        int                     `json:"ingredients"`
	Verdict            ingredientagent.Verdict `json:"verdict,omitempty"`
	Success            bool                    `json:"success"`
	Timestamp          time.Time               `json:"timestamp"`
}

func NewHistoryEntry(res ingredientagent.Result, at time.Time) HistoryEntry {
	return HistoryEntry{
		ProductName:        res.ProductName,
		OverallRisk:        res.OverallRisk,
		AverageSafetyScore: res.AverageSafetyScore,
		Ingredients:        len(res.Ingredients),
		Verdict:            res.Verdict,
		Success:            res.Success,
		Timestamp:          at.UTC(),
	}
}

func NewID() string {
	return uuid.NewString()
}

func profileKey(sessionID string) string { return fmt.Sprintf("session:%s:profile", sessionID) }
func historyKey(sessionID string) string { return fmt.Sprintf("session:%s:history", sessionID) }

// Prepare assigns a session id when req has none and fills an unset skin
// type, expertise or allergy list from the saved profile.
func Prepare(ctx context.Context, store Store, req ingredientagent.AnalysisRequest) (ingredientagent.AnalysisRequest, error) {
	if req.SessionID == "" {
		req.SessionID = NewID()
		return req, nil
	}

	saved, ok, err := store.Profile(ctx, req.SessionID)
	if err != nil {
		return req, fmt.Errorf("load profile: %w", err)
	}
	if !ok {
		return req, nil
	}

	if req.SkinType == "" {
		req.SkinType = string(saved.SkinType)
	}
	if req.Expertise == "" {
		req.Expertise = string(saved.Expertise)
	}
	if len(req.Allergies) == 0 {
		req.Allergies = append([]string(nil), saved.Allergies...)
	}
	slog.Info("SESSION: Restored profile", "session_id", req.SessionID)
	return req, nil
}

// Record saves the run's profile and prepends it to the history. Runs
// that failed validation carry no profile and only add history.
func Record(ctx context.Context, store Store, state ingredientagent.WorkflowState, res ingredientagent.Result, at time.Time) error {
	var errs []error
	if state.Profile.SkinType != "" {
		if err := store.SaveProfile(ctx, state.SessionID, state.Profile); err != nil {
			errs = append(errs, fmt.Errorf("save profile: %w", err))
		}
	}
	if err := store.AppendHistory(ctx, state.SessionID, NewHistoryEntry(res, at)); err != nil {
		errs = append(errs, fmt.Errorf("append history: %w", err))
	}
	return errors.Join(errs...)
}
