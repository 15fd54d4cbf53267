package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/quantfold/backtestctl/internal/runner"
)

// View renders the full screen: form, chart, result table, notice line.
func (m Model) View() string {
	var sections []string

	sections = append(sections, titleStyle.Render("backtestctl")+
		dimStyle.Render("  tab: move  enter: submit/view chart  p: export pdf  r: refresh  q: quit"))
	sections = append(sections, "")

	top := lipgloss.JoinHorizontal(lipgloss.Top,
		paneStyle.Render(m.viewForm()),
		" ",
		paneStyle.Render(m.viewChart()),
	)
	sections = append(sections, top)
	sections = append(sections, paneStyle.Render(m.viewTable()))

	if m.notice != "" {
		style := okStyle
		if m.noticeLevel == runner.LevelError {
			style = errStyle
		}
		sections = append(sections, style.Render(m.notice))
	}

	return strings.Join(sections, "\n")
}

func (m Model) viewForm() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Run configuration"))
	b.WriteString("\n\n")

	b.WriteString(m.formLabel("Strategy", fieldStrategy))
	b.WriteString(m.viewStrategySelector())
	b.WriteByte('\n')

	rows := []struct {
		label string
		field int
	}{
		{"Symbol", fieldSymbol},
		{"Start", fieldStart},
		{"End", fieldEnd},
		{"Capital", fieldCapital},
	}
	for _, row := range rows {
		b.WriteString(m.formLabel(row.label, row.field))
		b.WriteString(m.inputs[row.field].View())
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	if m.submitting {
		b.WriteString(m.spin.View() + dimStyle.Render(" submitting..."))
	} else {
		b.WriteString(dimStyle.Render("enter to submit"))
	}
	return b.String()
}

func (m Model) formLabel(label string, field int) string {
	text := fmt.Sprintf("%-9s", label)
	if m.focus == areaForm && m.field == field {
		return focusStyle.Render("> " + text)
	}
	return labelStyle.Render("  " + text)
}

func (m Model) viewStrategySelector() string {
	name := placeholderStrategy
	if m.strategyIdx > 0 && m.strategyIdx <= len(m.strategies) {
		name = m.strategies[m.strategyIdx-1].Name
	}
	if m.focus == areaForm && m.field == fieldStrategy {
		return focusStyle.Render("< " + name + " >")
	}
	return name
}

func (m Model) viewChart() string {
	var b strings.Builder
	title := "Equity curve"
	if id := m.deps.Projector.Selected(); id != "" {
		title += dimStyle.Render("  " + id)
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	w := m.width/2 - 8
	b.WriteString(RenderCurve(m.deps.Projector.Points(), w, 10))
	return b.String()
}

func (m Model) viewTable() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Backtests"))
	b.WriteString("\n\n")

	all := m.deps.Store.All()
	if len(all) == 0 {
		b.WriteString(dimStyle.Render("no backtests yet - submit one above"))
		return b.String()
	}

	header := fmt.Sprintf("%-10s %-23s %9s %9s %7s %7s %9s",
		"SYMBOL", "PERIOD", "RETURN%", "MAXDD%", "SHARPE", "TRADES", "STATUS")
	b.WriteString(labelStyle.Render(header))
	b.WriteByte('\n')

	for i, bt := range all {
		row := fmt.Sprintf("%-10s %-23s %9.2f %9.2f %7.2f %7d %9s",
			bt.Symbol,
			bt.StartDate+" ~ "+bt.EndDate,
			bt.TotalReturn,
			bt.MaxDrawdown,
			bt.SharpeRatio,
			bt.TotalTrades,
			bt.Status)

		switch {
		case m.focus == areaTable && i == m.cursor:
			b.WriteString(selectedRowStyle.Render(row))
		case bt.TotalReturn >= 0:
			b.WriteString(gainStyle.Render(row))
		default:
			b.WriteString(lossStyle.Render(row))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
