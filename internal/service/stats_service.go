package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"exppro-backend/internal/model"
	"exppro-backend/internal/repository"
)

type StatsService interface {
	// GetFootnoteStats is restricted to staff; everyone else gets ErrPermissionDenied.
	GetFootnoteStats(ctx context.Context, requester *model.User) ([]model.FootnoteStat, error)
	// FootnoteStatsReport renders the same rows as a PDF document.
	FootnoteStatsReport(ctx context.Context, requester *model.User) ([]byte, error)
}

type statsService struct {
	trackingRepo repository.TrackingRepository
	now          func() time.Time
}

func NewStatsService(trackingRepo repository.TrackingRepository) StatsService {
	return &statsService{trackingRepo: trackingRepo, now: time.Now}
}

func (s *statsService) GetFootnoteStats(ctx context.Context, requester *model.User) ([]model.FootnoteStat, error) {
	if requester == nil || !requester.IsStaff {
		return nil, ErrPermissionDenied
	}
	stats, err := s.trackingRepo.GetFootnoteStats(ctx)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = []model.FootnoteStat{}
	}
	return stats, nil
}

func (s *statsService) FootnoteStatsReport(ctx context.Context, requester *model.User) ([]byte, error) {
	stats, err := s.GetFootnoteStats(ctx, requester)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Footnote interaction report", true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Footnote interaction report")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 9)
	pdf.Cell(0, 8, "Generated "+s.now().UTC().Format("2006-01-02 15:04 MST"))
	pdf.Ln(12)

	widths := []float64{18, 55, 22, 70, 25}
	headers := []string{"ID", "Video", "Time (s)", "Footnote", "Users"}
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	var total int64
	for _, st := range stats {
		pdf.CellFormat(widths[0], 7, fmt.Sprintf("%d", st.FootnoteID), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[1], 7, tr(truncate(st.VideoTitle, 32)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 7, fmt.Sprintf("%.1f", st.Timestamp), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, tr(truncate(st.Text, 42)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[4], 7, fmt.Sprintf("%d", st.InteractionCount), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
		total += st.InteractionCount
	}
	if len(stats) == 0 {
		pdf.CellFormat(190, 7, "No footnote interactions recorded yet.", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 8, fmt.Sprintf("Footnotes with interactions: %d    Total user interactions: %d", len(stats), total))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render footnote report: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
