package logging

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"

	"github.com/hassan/ccompiler/internal/diag"
)

var (
	SuccessColorFG = pterm.FgLightGreen
	SuccessStyleBG = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
	WarnColorFG    = pterm.FgYellow
	WarnStyleBG    = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	ErrorColorFG   = pterm.FgRed
	ErrorStyleBG   = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG    = pterm.FgLightCyan
	InfoStyleBG    = pterm.NewStyle(pterm.BgLightCyan, pterm.FgBlack)
)

const bannerWidth = 50

func (l *Logger) print(a ...any) {
	fmt.Fprint(l.out, a...)
}

func (l *Logger) displayError(tag string, err error) {
	l.print(ErrorStyleBG.Sprint(tag), ErrorColorFG.Sprint(" "+err.Error()), "\n")
}

func (l *Logger) displayInfo(tag, msg string) {
	l.print(InfoStyleBG.Sprint(tag), " ", msg, "\n")
}

// displayDiagnostic prints the banner, the headline, the source excerpt with
// its caret highlighted and the suggestion.
func (l *Logger) displayDiagnostic(file string, d diag.Diagnostic) {
	l.displayBanner(file, d)
	l.print(d.Headline(), "\n")

	if d.Excerpt != "" {
		lines := strings.Split(d.Excerpt, "\n")
		l.print(lines[0], "\n")
		if len(lines) > 1 {
			// gutter stays plain, only the caret is coloured
			if i := strings.Index(lines[1], "^"); i >= 0 {
				l.print(lines[1][:i], ErrorColorFG.Sprint(lines[1][i:]), "\n")
			} else {
				l.print(lines[1], "\n")
			}
		}
	}

	if d.Suggestion != "" {
		l.print(InfoColorFG.Sprint("Suggestion: "), d.Suggestion, "\n")
	}
	l.print("\n")
}

func (l *Logger) displayBanner(file string, d diag.Diagnostic) {
	kind := d.Kind.String()
	if d.IsError() {
		kind += " Error"
		l.print("-- ", ErrorStyleBG.Sprint(kind), " ")
	} else {
		kind += " Warning"
		l.print("-- ", WarnStyleBG.Sprint(kind), " ")
	}

	name := filepath.Base(file)
	if file == "" {
		name = "<input>"
	}
	dashes := bannerWidth - len(name) - len(kind) - 1
	if dashes < 2 {
		dashes = 2
	}
	l.print(strings.Repeat("-", dashes), " ", InfoColorFG.Sprint(name), "\n")
}

func (l *Logger) displayHeader(version, target string) {
	l.print("ccompiler ", InfoColorFG.Sprint("v"+version), " -- target: ", InfoColorFG.Sprint(target), "\n")
}

// stage names are padded to the longest pipeline stage
const maxStageLength = len("intermediate code generator")

func (l *Logger) displayStage(name string, ok bool, detail string) {
	pad := "  "
	if n := maxStageLength - len(name) + 2; n > 2 {
		pad = strings.Repeat(" ", n)
	}
	if ok {
		l.print(SuccessStyleBG.Sprint("Done"), " ", name, pad, detail, "\n")
	} else {
		l.print(ErrorStyleBG.Sprint("Fail"), " ", name, pad, detail, "\n")
	}
}

func (l *Logger) displayTable(header []string, rows [][]string) {
	data := pterm.TableData{header}
	data = append(data, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		l.displayError("Table", err)
		return
	}
	l.print(out, "\n")
}

// displayFinished prints the closing summary line.
func (l *Logger) displayFinished(success bool, errorCount, warningCount int) {
	l.print("\n")
	if success {
		l.print(SuccessColorFG.Sprint("All done! "))
	} else {
		l.print(ErrorColorFG.Sprint("Oh no! "))
	}

	l.print("(")
	switch errorCount {
	case 0:
		l.print(SuccessColorFG.Sprint(0), " errors, ")
	case 1:
		l.print(ErrorColorFG.Sprint(1), " error, ")
	default:
		l.print(ErrorColorFG.Sprint(errorCount), " errors, ")
	}

	switch warningCount {
	case 0:
		l.print(SuccessColorFG.Sprint(0), " warnings)\n")
	case 1:
		l.print(WarnColorFG.Sprint(1), " warning)\n")
	default:
		l.print(WarnColorFG.Sprint(warningCount), " warnings)\n")
	}
}
