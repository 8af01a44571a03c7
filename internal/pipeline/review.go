package pipeline

import (
	"context"
	"fmt"

	"github.com/oharel/talush/internal/payslips"
)

// PageView is one page of a review session as presented to the reviewer.
// Page numbers are one-based to match what the reviewer sees in the
// document.
type PageView struct {
	Page        int    `json:"page"`
	Name        string `json:"name"`
	NationalID  string `json:"national_id"`
	Email       string `json:"email"`
	Month       int    `json:"month,omitempty"`
	Year        int    `json:"year,omitempty"`
	Period      string `json:"period"`
	Filename    string `json:"filename"`
	IsValid     bool   `json:"is_valid"`
	AlreadySent bool   `json:"already_sent"`
}

// ReviewResult is the current state of a session for the review screen.
type ReviewResult struct {
	SessionID string     `json:"session_id"`
	Filename  string     `json:"original_filename"`
	Method    string     `json:"extraction_method"`
	PageCount int        `json:"page_count"`
	Pages     []PageView `json:"pages"`
}

// Review returns the extracted pages of a session for correction.
func (s *System) Review(ctx context.Context, sessionID string) (*ReviewResult, error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}

	return &ReviewResult{
		SessionID: sess.ID,
		Filename:  sess.OriginalFilename,
		Method:    sess.Method,
		PageCount: sess.PageCount,
		Pages:     s.pageViews(ctx, sess.Slips),
	}, nil
}

// PagePreview returns the cached preview image for a one-based page.
func (s *System) PagePreview(sessionID string, page int) ([]byte, error) {
	sess, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	if page < 1 || page > sess.PageCount {
		return nil, ErrPreviewMissing
	}
	data, err := s.render.Preview(sess.PreviewDir, page-1)
	if err != nil {
		return nil, fmt.Errorf("%w: page %d", ErrPreviewMissing, page)
	}
	return data, nil
}

func (s *System) pageViews(ctx context.Context, slips []payslips.Payslip) []PageView {
	views := make([]PageView, len(slips))
	for i, slip := range slips {
		sent, err := s.batches.AlreadyDelivered(ctx, slip.NationalID, slip.Month, slip.Year)
		if err != nil {
			s.logger.Warn("delivery check failed", "page", slip.PageIndex+1, "error", err)
			sent = false
		}
		views[i] = PageView{
			Page:        slip.PageIndex + 1,
			Name:        slip.Name,
			NationalID:  slip.NationalID,
			Email:       slip.Email,
			Month:       slip.Month,
			Year:        slip.Year,
			Period:      slip.Period(),
			Filename:    slip.DisplayFilename(),
			IsValid:     slip.IsComplete(),
			AlreadySent: sent,
		}
	}
	return views
}

// validate collects the reviewer-facing messages for incomplete pages.
func validate(slips []payslips.Payslip) []string {
	var messages []string
	for _, slip := range slips {
		for _, field := range slip.MissingFields() {
			switch field {
			case payslips.FieldName:
				messages = append(messages, fmt.Sprintf("עמוד %d: חסר שם עובד", slip.PageIndex+1))
			case payslips.FieldNationalID:
				messages = append(messages, fmt.Sprintf("עמוד %d: חסר מספר ת.ז", slip.PageIndex+1))
			}
		}
	}
	return messages
}
