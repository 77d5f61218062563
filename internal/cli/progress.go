package cli

import (
	"github.com/pterm/pterm"
)

// progressView renders importer progress callbacks as one pterm progress bar
// per multi-step stage. One-shot stages print a single line when they finish.
type progressView struct {
	verbose bool
	stage   string
	bar     *pterm.ProgressbarPrinter
}

func newProgressView(verbose bool) *progressView {
	return &progressView{verbose: verbose}
}

func (p *progressView) Report(stage string, completed, total int) {
	if total <= 1 {
		if p.verbose && total == 1 && completed == total {
			pterm.Info.Printfln("%s done", stage)
		}
		return
	}

	if stage == p.stage && p.bar == nil && completed >= total {
		// The stage already finished its bar.
		return
	}
	if stage != p.stage || p.bar == nil {
		p.Stop()
		bar, err := pterm.DefaultProgressbar.
			WithTotal(total).
			WithTitle(stage).
			WithShowCount(true).
			WithRemoveWhenDone(!p.verbose).
			Start()
		if err != nil {
			return
		}
		p.bar = bar
		p.stage = stage
	}

	if delta := completed - p.bar.Current; delta > 0 {
		p.bar.Add(delta)
	}
	if completed >= total {
		p.Stop()
	}
}

// Stop finishes the active bar, if any.
func (p *progressView) Stop() {
	if p.bar != nil {
		_, _ = p.bar.Stop()
		p.bar = nil
	}
}
