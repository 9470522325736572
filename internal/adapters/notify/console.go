package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/alejandrodnm/riskgate/internal/domain"
	"github.com/alejandrodnm/riskgate/internal/performance"
	"github.com/alejandrodnm/riskgate/internal/survival"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.AlertNotifier y los reportes de la CLI.
type Console struct {
	out io.Writer
	now func() time.Time
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout, now: time.Now}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w, now: time.Now}
}

// NotifyAlert imprime una alerta en una línea.
func (c *Console) NotifyAlert(_ context.Context, a domain.Alert) error {
	fmt.Fprintf(c.out, "[%s] %s %s: %s\n",
		c.now().Format("15:04:05"), severityIcon(a.Severity), a.Title, a.Message)
	return nil
}

// PrintZones imprime el ledger de zonas de un símbolo.
func (c *Console) PrintZones(symbol string, zones []domain.Zone) {
	if len(zones) == 0 {
		fmt.Fprintf(c.out, "\n  %s: no zones detected\n", symbol)
		return
	}

	active := 0
	for _, z := range zones {
		if !z.Mitigated {
			active++
		}
	}
	fmt.Fprintf(c.out, "\n%s: %d zones (%d active)\n", symbol, len(zones), active)

	table := tablewriter.NewWriter(c.out)
	table.Header("#", "Kind", "Low", "High", "Strength", "Candle", "State")
	for i, z := range zones {
		state := "ACTIVE"
		if z.Mitigated {
			state = "MITIGATED"
		}
		table.Append(
			fmt.Sprintf("%d", i+1),
			string(z.Kind),
			fmt.Sprintf("%.5f", z.PriceLow),
			fmt.Sprintf("%.5f", z.PriceHigh),
			fmt.Sprintf("%.2fx", z.Strength),
			fmt.Sprintf("%d", z.CreatedIndex),
			state,
		)
	}
	table.Render()
}

// PrintAudit imprime la atribución de alpha: edge bruto vs edge sin outliers.
func (c *Console) PrintAudit(a performance.Attribution) {
	fmt.Fprintf(c.out, "\n=== PERFORMANCE AUDIT (%d trades, outlier cap %.1fR) ===\n", a.Raw.Trades, a.Cap)
	if a.Raw.Trades == 0 {
		fmt.Fprintln(c.out, "  No closed trades.")
		return
	}

	table := tablewriter.NewWriter(c.out)
	table.Header("Series", "Win rate", "Avg win R", "Avg loss R", "Expectancy")
	for _, row := range []struct {
		name string
		st   domain.EdgeStatistics
	}{{"raw", a.Raw}, {"base", a.Base}} {
		table.Append(
			row.name,
			fmt.Sprintf("%.1f%%", row.st.WinRate*100),
			fmt.Sprintf("%.2f", row.st.AvgWinR),
			fmt.Sprintf("%.2f", row.st.AvgLossR),
			fmt.Sprintf("%+.3fR", row.st.Expectancy),
		)
	}
	table.Render()

	if len(a.Outliers) == 0 {
		fmt.Fprintln(c.out, "  No outliers: edge is systematic.")
		return
	}
	outs := append([]float64(nil), a.Outliers...)
	sort.Sort(sort.Reverse(sort.Float64Slice(outs)))
	labels := make([]string, len(outs))
	for i, r := range outs {
		labels[i] = fmt.Sprintf("%.1fR", r)
	}
	fmt.Fprintf(c.out, "  Outliers (%d): %s\n", len(outs), strings.Join(labels, " "))
	fmt.Fprintf(c.out, "  Outlier share of expectancy: %.1f%%\n", a.OutlierShare()*100)
	if a.Base.Expectancy <= 0 {
		fmt.Fprintln(c.out, "  >>> EDGE DEPENDS ON OUTLIERS: base expectancy is not positive")
	}
}

// PrintSurvival imprime el resumen Monte Carlo.
func (c *Console) PrintSurvival(p survival.Params, s survival.Summary) {
	fmt.Fprintf(c.out, "\n=== SURVIVAL (%d trials x %d trades, risk %.2f%%/trade) ===\n",
		s.Trials, p.NumTrades, p.RiskPerTradePct*100)
	if s.Trials == 0 {
		fmt.Fprintln(c.out, "  No trials run.")
		return
	}
	fmt.Fprintf(c.out, "  Edge:            win %.1f%%  +%.2fR / -%.2fR\n",
		p.WinRate*100, p.AvgWinR, abs(p.AvgLossR))
	fmt.Fprintf(c.out, "  Ruin probability: %.2f%% (%d/%d)\n", s.RuinProbability*100, s.Ruined, s.Trials)
	fmt.Fprintf(c.out, "  Median equity:    %.2f (start %.2f)\n", s.MedianFinalEquity, p.InitialEquity)
	fmt.Fprintf(c.out, "  Mean equity:      %.2f\n", s.MeanFinalEquity)
	fmt.Fprintf(c.out, "  Worst drawdown:   %.1f%%\n", s.WorstDrawdownPct*100)
}

// PrintVerdict imprime la decisión de un gate.
func (c *Console) PrintVerdict(gate string, v domain.Verdict) {
	fmt.Fprintf(c.out, "[%s] %-8s %s\n", c.now().Format("15:04:05"), gate, v)
}

func severityIcon(s domain.Severity) string {
	switch s {
	case domain.SeverityCritical:
		return "!!"
	case domain.SeverityWarning:
		return "!"
	default:
		return "-"
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
