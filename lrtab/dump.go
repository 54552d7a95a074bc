package lrtab

import (
	"fmt"

	"github.com/dekarrin/rosed"

	"github.com/dekarrin/sturgeon/internal/util"
)

// DumpActionGoto renders the action and goto tables side by side as one
// aligned text table, one row per state 0..numStates-1, the way the table
// generator's own LALR(1)/SLR(1)/CLR(1) printers do (InsertTableOpts over a
// header row plus one row per state). Grounded on
// internal/ictiobus/parse/{lalr,slr,clr1}.go's String() methods; this is the
// runtime-side read-only equivalent, useful for dumping a loaded table set
// for debugging without re-deriving it from the source grammar.
func DumpActionGoto(actions ActionTable, gotoT GoToTable, numStates int, grammar Grammar) string {
	terms := util.OrderedIntKeys(grammar.TerminalNames)
	nonterms := util.OrderedIntKeys(grammar.NonTerminalNames)

	header := []string{"state", "|"}
	for _, t := range terms {
		header = append(header, grammar.TerminalHuman(t))
	}
	header = append(header, "|")
	for _, nt := range nonterms {
		header = append(header, grammar.NonTerminalNames[nt])
	}

	data := [][]string{header}
	for s := 0; s < numStates; s++ {
		row := []string{fmt.Sprintf("%d", s), "|"}
		for _, t := range terms {
			row = append(row, actionCell(actions.Action(s, t)))
		}
		row = append(row, "|")
		for _, nt := range nonterms {
			cell := ""
			if target, ok := gotoT.Goto(s, nt); ok {
				cell = fmt.Sprintf("%d", target)
			}
			row = append(row, cell)
		}
		data = append(data, row)
	}

	return rosed.
		Edit("").
		InsertTableOpts(0, data, 10, rosed.Options{
			TableHeaders:             true,
			NoTrailingLineSeparators: true,
		}).
		String()
}

func actionCell(a Action) string {
	switch a.Type {
	case Shift:
		return fmt.Sprintf("s%d", a.Next)
	case Reduce:
		return fmt.Sprintf("r%d", a.Rule)
	case Accept:
		return "acc"
	default:
		return ""
	}
}
