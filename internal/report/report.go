// Package report prints the creator leaderboards for a terminal.
package report

import (
	"fmt"
	"io"
	"math/big"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"positionScope/internal/model"
)

var printer = message.NewPrinter(language.English)

type section struct {
	title   string
	entries []model.RankEntry
	lines   []func(*model.CreatorStats) string
}

// PrintTopCreators writes the top n entries of every leaderboard to w.
func PrintTopCreators(w io.Writer, view model.RankingView, n int) error {
	rule := strings.Repeat("=", 80)
	if _, err := fmt.Fprintf(w, "%s\nTOP POSITION CREATORS ANALYSIS\n%s\n", rule, rule); err != nil {
		return err
	}

	sections := []section{
		{"NUMBER OF POSITIONS", view.ByPositions, []func(*model.CreatorStats) string{positions, liquidity, usd, pairs, timeRange}},
		{"USD VALUE", view.ByUSDValue, []func(*model.CreatorStats) string{usd, positions, liquidity, pairs}},
		{"TOTAL LIQUIDITY", view.ByLiquidity, []func(*model.CreatorStats) string{liquidity, positions, usd, pairs}},
		{"UNIQUE PAIRS", view.ByUniquePairs, []func(*model.CreatorStats) string{pairs, positions, usd, pairList}},
	}
	for _, s := range sections {
		if err := s.print(w, n); err != nil {
			return err
		}
	}
	return nil
}

func (s section) print(w io.Writer, n int) error {
	var b strings.Builder
	fmt.Fprintf(&b, "\nTOP %d BY %s:\n%s\n", n, s.title, strings.Repeat("-", 60))
	for i, entry := range s.entries {
		if i >= n {
			break
		}
		fmt.Fprintf(&b, "%2d. %s\n", i+1, entry.Address)
		for _, line := range s.lines {
			fmt.Fprintf(&b, "    %s\n", line(entry.Stats))
		}
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func positions(s *model.CreatorStats) string {
	return printer.Sprintf("Positions: %d", s.TotalPositions)
}

func liquidity(s *model.CreatorStats) string {
	return "Total Liquidity: " + GroupDigits(s.TotalLiquidity)
}

func usd(s *model.CreatorStats) string {
	return printer.Sprintf("USD Value: $%.2f", s.TotalUSDValue)
}

func pairs(s *model.CreatorStats) string {
	return fmt.Sprintf("Unique Pairs: %d", s.UniquePairCount())
}

func pairList(s *model.CreatorStats) string {
	list := s.UniquePairs()
	if len(list) > 3 {
		list = append(list[:3], "...")
	}
	return "Pairs: " + strings.Join(list, ", ")
}

func timeRange(s *model.CreatorStats) string {
	return fmt.Sprintf("Time Range: %s to %s", orNone(s.FirstPositionTime), orNone(s.LastPositionTime))
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}

// GroupDigits renders an integer with comma thousands separators.
func GroupDigits(n *big.Int) string {
	if n == nil {
		return "0"
	}
	digits := n.String()
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}
	if len(digits) <= 3 {
		return sign + digits
	}

	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return sign + b.String()
}
