package extraction

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/oharel/talush/internal/payslips"
)

// Field patterns for Hebrew payslip layouts. Each list is tried in order
// and the first capture wins. Names are limited to the Hebrew block plus
// spaces and hyphens; identity numbers are 5 to 9 digits.
var (
	idPatterns = []*regexp.Regexp{
		regexp.MustCompile(`ת\.?\s*ז\.?\s*[:\-]?\s*(\d{5,9})`),
		regexp.MustCompile(`תעודת\s+זהות\s*[:\-]?\s*(\d{5,9})`),
		regexp.MustCompile(`מספר\s+זהות\s*[:\-]?\s*(\d{5,9})`),
		regexp.MustCompile(`מס\.?\s*זהות\s*[:\-]?\s*(\d{5,9})`),
		regexp.MustCompile(`(?:ID|id)\s*[:\-]?\s*(\d{5,9})`),
	}

	namePatterns = []*regexp.Regexp{
		regexp.MustCompile(`שם\s+(?:ה)?עובד(?:ת)?\s*[:\-]?\s*([\x{0590}-\x{05FF}\s\-]+)`),
		regexp.MustCompile(`שם\s+מלא\s*[:\-]?\s*([\x{0590}-\x{05FF}\s\-]+)`),
		regexp.MustCompile(`(?:^|\s)שם\s*[:\-]\s*([\x{0590}-\x{05FF}\s\-]+)`),
		regexp.MustCompile(`(?:^|\s)עובד(?:ת)?\s*[:\-]\s*([\x{0590}-\x{05FF}\s\-]+)`),
		regexp.MustCompile(`לכבוד\s+([\x{0590}-\x{05FF}\s\-]+)`),
	}

	emailPatterns = []*regexp.Regexp{
		regexp.MustCompile(`([\w.+\-]+@[\w\-]+(?:\.[\w\-]+)+)`),
	}

	periodPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:חודש|תקופה|לחודש|חודש\s+שכר)\s*[:\-]?\s*(\d{1,2})\s*[/\-.]\s*(\d{4})`),
		regexp.MustCompile(`(?:חודש|תקופה|לחודש)\s*[:\-]?\s*([\x{0590}-\x{05FF}]+)\s+(\d{4})`),
		regexp.MustCompile(`(\d{1,2})\s*/\s*(\d{4})`),
	}
)

// PatternExtractor scans the text layer of each page. It requires no
// external services and serves as the fallback when vision extraction is
// not configured.
type PatternExtractor struct {
	logger *slog.Logger
}

func NewPatternExtractor(logger *slog.Logger) *PatternExtractor {
	return &PatternExtractor{
		logger: logger.With("extractor", "pattern"),
	}
}

func (e *PatternExtractor) Name() string { return "pattern" }

func (e *PatternExtractor) Extract(ctx context.Context, pages []Page) ([]payslips.Payslip, error) {
	slips := make([]payslips.Payslip, 0, len(pages))

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		slip := payslips.Payslip{
			PageIndex:  page.Index,
			Name:       firstMatch(page.Text, namePatterns),
			NationalID: firstMatch(page.Text, idPatterns),
			Email:      firstMatch(page.Text, emailPatterns),
			RawText:    page.Text,
		}
		slip.Month, slip.Year = parsePeriod(page.Text)

		e.logger.Debug("page extracted",
			"page", page.Index,
			"complete", slip.IsComplete())

		slips = append(slips, slip)
	}

	return slips, nil
}

func firstMatch(text string, patterns []*regexp.Regexp) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// parsePeriod tries each period pattern against the text. A match with an
// out-of-range month or year does not stop the scan; later patterns may
// still produce a valid period.
func parsePeriod(text string) (int, int) {
	for _, p := range periodPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		g1 := strings.TrimSpace(m[1])
		g2 := strings.TrimSpace(m[2])

		year, err := strconv.Atoi(g2)
		if err != nil || year < 1900 || year > 2100 {
			continue
		}

		if month, err := strconv.Atoi(g1); err == nil {
			if month >= 1 && month <= 12 {
				return month, year
			}
			continue
		}

		if month := payslips.MonthNumber(g1); month != 0 {
			return month, year
		}
	}

	return 0, 0
}
