package ui

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"goassay/models"
)

// handleRunReport renders the governance forensics of an archived run as an
// HTML page, so "why didn't it commit?" is answerable from a browser.
func (s *Server) handleRunReport(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.writeError(w, http.StatusServiceUnavailable, "run archive not configured")
		return
	}
	rec, err := s.archive.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}

	md := renderRunMarkdown(rec)
	p := parser.NewWithExtensions(parser.CommonExtensions)
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	html := markdown.ToHTML([]byte(md), p, renderer)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(html); err != nil {
		s.log.Error("writing report: %v", err)
	}
}

// renderRunMarkdown builds the forensics report for one run.
func renderRunMarkdown(rec *models.RunRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Search run %s\n\n", rec.ID)
	fmt.Fprintf(&b, "Session `%s`, seed `%d`, recorded %s.\n\n",
		rec.SessionID, rec.Seed, rec.CreatedAt.Format("2006-01-02 15:04 MST"))

	fmt.Fprintf(&b, "## Verdict\n\n")
	fmt.Fprintf(&b, "- **Action**: %s\n", rec.FinalAction)
	if rec.Mechanism != "" {
		fmt.Fprintf(&b, "- **Mechanism**: %s\n", rec.Mechanism)
	}
	fmt.Fprintf(&b, "- **Reason**: %s\n", rec.Reason)
	fmt.Fprintf(&b, "- **Reward**: %.3f\n\n", rec.BestReward)

	fmt.Fprintf(&b, "## Distance to commit\n\n")
	fmt.Fprintf(&b, "| Quantity | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Top posterior probability | %.3f |\n", rec.TopProbability)
	fmt.Fprintf(&b, "| Nuisance probability | %.3f |\n", rec.NuisanceProbability)
	fmt.Fprintf(&b, "| Posterior gap | %.3f |\n", rec.PosteriorGap)
	fmt.Fprintf(&b, "| Nuisance gap | %.3f |\n\n", rec.NuisanceGap)

	fmt.Fprintf(&b, "## Search effort\n\n")
	fmt.Fprintf(&b, "| Counter | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Expanded | %d |\n", rec.Expanded)
	fmt.Fprintf(&b, "| Pruned on budget | %d |\n", rec.PrunedBudget)
	fmt.Fprintf(&b, "| Pruned on viability | %d |\n", rec.PrunedViability)
	fmt.Fprintf(&b, "| Pruned on simulation error | %d |\n", rec.PrunedError)
	fmt.Fprintf(&b, "| Cache hits | %d |\n", rec.CacheHits)
	return b.String()
}
