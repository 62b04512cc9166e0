// Package io renders game records on a terminal.
package io

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	codewords "github.com/bcspragu/Codewords"
)

// Printer writes a record as a colored board plus a status line. The
// spymaster view colors every card, the player view only colors revealed
// ones.
type Printer struct {
	// Out is where the board is written to.
	Out io.Writer
	// Spymaster shows unrevealed card types when set.
	Spymaster bool
}

func (p *Printer) PrintGame(g *codewords.Game) {
	p.printBoard(g)
	p.printStatus(g)
}

func (p *Printer) printBoard(g *codewords.Game) {
	table := tablewriter.NewWriter(p.Out)

	for i := 0; i < codewords.Rows; i++ {
		var row []string
		var colors []tablewriter.Colors
		for j := 0; j < codewords.Columns; j++ {
			card := g.Cards[i*codewords.Columns+j]
			var c tablewriter.Colors
			if card.Revealed || p.Spymaster {
				switch card.Type {
				case codewords.BlueCard:
					c = append(c, tablewriter.FgBlueColor)
				case codewords.RedCard:
					c = append(c, tablewriter.FgHiRedColor)
				case codewords.AssassinCard:
					c = append(c, tablewriter.BgHiRedColor)
				}
			}
			if card.Revealed {
				c = append(c, tablewriter.UnderlineSingle)
			}
			colors = append(colors, c)
			row = append(row, card.Word)
		}
		table.Rich(row, colors)
	}

	table.Render()
}

func (p *Printer) printStatus(g *codewords.Game) {
	fmt.Fprintf(p.Out, "Red %d - Blue %d\n", g.RedRemaining, g.BlueRemaining)

	if g.Winner != nil {
		fmt.Fprintf(p.Out, "%s wins!\n", teamStr(*g.Winner))
		return
	}

	fmt.Fprintf(p.Out, "%s's turn", teamStr(g.CurrentTeam))
	if g.CurrentClue != nil {
		fmt.Fprintf(p.Out, ", clue is '%s'", g.CurrentClue)
	}
	fmt.Fprintln(p.Out)
}

func teamStr(t codewords.Team) string {
	switch t {
	case codewords.RedTeam:
		return "Red"
	case codewords.BlueTeam:
		return "Blue"
	default:
		return "Unknown"
	}
}

// ParseClue parses terminal input like 'muffins 3' into a clue for the given
// team.
func ParseClue(in string, team codewords.Team) (*codewords.Clue, error) {
	fields := strings.Fields(in)
	if len(fields) != 2 {
		return nil, fmt.Errorf("malformed clue %q, want '<word> <number>'", in)
	}

	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 0 {
		return nil, fmt.Errorf("malformed clue number %q", fields[1])
	}

	return &codewords.Clue{Word: fields[0], Number: n, Team: team}, nil
}
