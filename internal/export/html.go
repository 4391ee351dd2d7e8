// File: internal/export/html.go
// Description: HTML and slide-deck renderings of a scenario report, built
// as element trees rather than templates so structure stays inspectable.
package export

import (
	"fmt"
	"io"
	"sort"

	"github.com/beevik/etree"

	"github.com/xkilldash9x/stratagem-cli/api/schemas"
)

const htmlStyle = `body{font-family:Georgia,serif;margin:2rem auto;max-width:60rem;color:#1a1a2e}
h1{border-bottom:2px solid #1a1a2e}h2{margin-top:2rem}
table{border-collapse:collapse;width:100%}
th,td{border:1px solid #8892b0;padding:.4rem .6rem;text-align:left}
th{background:#e8eaf6}.pruned{color:#999;text-decoration:line-through}
.verdict-strong{color:#1b5e20}.verdict-weak{color:#b71c1c}`

const slideStyle = `html,body{margin:0;font-family:Helvetica,Arial,sans-serif}
section.slide{height:100vh;padding:3rem 5rem;box-sizing:border-box;border-bottom:4px double #333;page-break-after:always}
section.slide h1{font-size:2.4rem}section.slide h2{font-size:1.8rem;color:#283593}
ul.facts li{font-size:1.2rem;margin:.5rem 0}`

func (e *Exporter) writeHTML(w io.Writer, report *Report) error {
	doc, body := htmlSkeleton(report.Session.Title+" — After-Action Report", htmlStyle)

	body.CreateElement("h1").SetText(report.Session.Title)
	meta := body.CreateElement("p")
	meta.SetText(fmt.Sprintf("Tier %s · %s · turn %d of %d · generated %s",
		report.Session.Tier, report.Session.Status, report.Session.Turn,
		report.Session.TotalTurns, report.GeneratedAt.Format("2006-01-02 15:04 UTC")))

	body.CreateElement("h2").SetText("Actors")
	actorTable(body, report.Actors)

	body.CreateElement("h2").SetText("Branches")
	branchTable(body, report.Branches)

	if len(report.Injects) > 0 {
		body.CreateElement("h2").SetText("Deployed Injects")
		list := body.CreateElement("ul")
		for _, inj := range report.Injects {
			list.CreateElement("li").SetText(
				fmt.Sprintf("Turn %d — %s (%s)", inj.DeployedTurn, inj.Title, inj.Polarity))
		}
	}

	body.CreateElement("h2").SetText("Turn Ledger")
	ledgerTable(body, report)

	if len(report.Beliefs) > 0 {
		body.CreateElement("h2").SetText("Final Beliefs")
		beliefTable(body, report.Beliefs)
	}

	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return err
}

// writeSlides renders one full-viewport section per turn, suitable for
// print-to-PDF or any scroll-snap presenter.
func (e *Exporter) writeSlides(w io.Writer, report *Report) error {
	doc, body := htmlSkeleton(report.Session.Title+" — Debrief Deck", slideStyle)

	title := body.CreateElement("section")
	title.CreateAttr("class", "slide")
	title.CreateElement("h1").SetText(report.Session.Title)
	sub := title.CreateElement("p")
	sub.SetText(fmt.Sprintf("Decision debrief · tier %s · %d turns played",
		report.Session.Tier, report.Session.Turn))

	for _, snap := range report.Ledger {
		slide := body.CreateElement("section")
		slide.CreateAttr("class", "slide")
		slide.CreateElement("h2").SetText(
			fmt.Sprintf("Turn %d (%s)", snap.Turn, snap.Branch))

		facts := slide.CreateElement("ul")
		facts.CreateAttr("class", "facts")
		for _, actor := range snap.Actors {
			facts.CreateElement("li").SetText(
				fmt.Sprintf("%s: %s", actor.Name, resourceSummary(actor)))
		}
		for _, inj := range snap.ActiveInjects {
			li := facts.CreateElement("li")
			li.SetText(fmt.Sprintf("Inject in play: %s — %s / %s",
				inj.Title, inj.Dilemma.A, inj.Dilemma.B))
		}
	}

	closing := body.CreateElement("section")
	closing.CreateAttr("class", "slide")
	closing.CreateElement("h2").SetText("Status")
	closing.CreateElement("p").SetText(fmt.Sprintf(
		"Session %s finished in state %q on branch %s.",
		report.Session.ID, report.Session.Status, report.Session.ActiveBranch))

	doc.Indent(2)
	_, err := doc.WriteTo(w)
	return err
}

// htmlSkeleton builds the shared document shell and returns the body.
func htmlSkeleton(title, style string) (*etree.Document, *etree.Element) {
	doc := etree.NewDocument()
	doc.CreateDirective("DOCTYPE html")
	html := doc.CreateElement("html")
	html.CreateAttr("lang", "en")

	head := html.CreateElement("head")
	charset := head.CreateElement("meta")
	charset.CreateAttr("charset", "utf-8")
	head.CreateElement("title").SetText(title)
	head.CreateElement("style").SetText(style)

	return doc, html.CreateElement("body")
}

func actorTable(parent *etree.Element, actors []*schemas.Actor) {
	table := parent.CreateElement("table")
	hdr := table.CreateElement("tr")
	for _, h := range []string{"Actor", "Role", "Archetype", "Risk", "Attention", "Resources"} {
		hdr.CreateElement("th").SetText(h)
	}
	for _, a := range actors {
		row := table.CreateElement("tr")
		row.CreateElement("td").SetText(a.Name)
		row.CreateElement("td").SetText(a.Role)
		row.CreateElement("td").SetText(string(a.Archetype))
		row.CreateElement("td").SetText(string(a.Risk.Attitude))
		row.CreateElement("td").SetText(string(a.Attention))
		row.CreateElement("td").SetText(resourceSummary(a))
	}
}

func branchTable(parent *etree.Element, branches []schemas.Branch) {
	table := parent.CreateElement("table")
	hdr := table.CreateElement("tr")
	for _, h := range []string{"Branch", "Forked At", "Current Turn", "Status"} {
		hdr.CreateElement("th").SetText(h)
	}
	for _, b := range branches {
		row := table.CreateElement("tr")
		if b.Status == schemas.BranchPruned {
			row.CreateAttr("class", "pruned")
		}
		row.CreateElement("td").SetText(b.ID)
		row.CreateElement("td").SetText(fmt.Sprintf("turn %d", b.ForkTurn))
		row.CreateElement("td").SetText(fmt.Sprintf("%d", b.CurrentTurn))
		row.CreateElement("td").SetText(string(b.Status))
	}
}

func ledgerTable(parent *etree.Element, report *Report) {
	table := parent.CreateElement("table")
	hdr := table.CreateElement("tr")
	for _, h := range []string{"Turn", "Branch", "Phase", "Active Injects"} {
		hdr.CreateElement("th").SetText(h)
	}
	for _, snap := range report.Ledger {
		row := table.CreateElement("tr")
		row.CreateElement("td").SetText(fmt.Sprintf("%d", snap.Turn))
		row.CreateElement("td").SetText(snap.Branch)
		row.CreateElement("td").SetText(string(snap.Session.Phase))
		names := ""
		for i, inj := range snap.ActiveInjects {
			if i > 0 {
				names += ", "
			}
			names += inj.Title
		}
		row.CreateElement("td").SetText(names)
	}
}

func beliefTable(parent *etree.Element, beliefs []*schemas.Distribution) {
	table := parent.CreateElement("table")
	hdr := table.CreateElement("tr")
	for _, h := range []string{"Holder", "Subject", "Hypothesis", "P"} {
		hdr.CreateElement("th").SetText(h)
	}
	for _, d := range beliefs {
		hyps := make([]string, 0, len(d.P))
		for h := range d.P {
			hyps = append(hyps, h)
		}
		sort.Strings(hyps)
		for _, h := range hyps {
			row := table.CreateElement("tr")
			row.CreateElement("td").SetText(d.Holder)
			row.CreateElement("td").SetText(d.Subject)
			row.CreateElement("td").SetText(h)
			row.CreateElement("td").SetText(fmt.Sprintf("%.2f", d.P[h]))
		}
	}
}

func resourceSummary(a *schemas.Actor) string {
	names := make([]string, 0, len(a.Resources))
	for name := range a.Resources {
		names = append(names, name)
	}
	sort.Strings(names)
	out := ""
	for i, name := range names {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%s %.0f", name, a.Resources[name].Value)
	}
	return out
}
