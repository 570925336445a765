package notice

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Notices the form publishes.
var (
	SubmissionSucceeded = Notice{
		Kind:  KindSuccess,
		Title: "✅ Thank You!",
		Description: "Thank you for registering for Renewing of Minds! Your details have been received successfully.\n" +
			"We await you in THE NOW.",
	}
	SubmissionFailed = Notice{
		Kind:        KindFailure,
		Title:       "⚠️ Submission Failed",
		Description: "Unable to send your form. Please check your connection and try again.",
	}
	FormCleared = Notice{
		Kind:        KindInfo,
		Title:       "Form Cleared",
		Description: "All fields have been reset.",
	}
)

// Action is a choice offered after a successful submission.
type Action string

const (
	ActionRegisterAnother Action = "Register Another"
	ActionReturnHome      Action = "Return Home"
)

// Presenter renders notices for a terminal.
type Presenter struct {
	out     io.Writer
	homeURL string
	title   lipgloss.Style
	body    lipgloss.Style
	box     map[Kind]lipgloss.Style
	dismiss lipgloss.Style
	actions lipgloss.Style
}

// NewPresenter writes to out. homeURL is shown next to ActionReturnHome.
func NewPresenter(out io.Writer, homeURL string) *Presenter {
	base := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	return &Presenter{
		out:     out,
		homeURL: homeURL,
		title:   lipgloss.NewStyle().Bold(true),
		body:    lipgloss.NewStyle(),
		box: map[Kind]lipgloss.Style{
			KindInfo:    base.BorderForeground(lipgloss.Color("#8b4513")),
			KindSuccess: base.BorderForeground(lipgloss.Color("#d4af37")),
			KindFailure: base.BorderForeground(lipgloss.Color("#c0392b")),
		},
		dismiss: lipgloss.NewStyle().Faint(true),
		actions: lipgloss.NewStyle().Italic(true),
	}
}

// Render returns the text for n.
func (p *Presenter) Render(n Notice) string {
	var b strings.Builder
	b.WriteString(p.title.Render(n.Title))
	if n.Description != "" {
		b.WriteString("\n")
		b.WriteString(p.body.Render(n.Description))
	}
	switch n.Kind {
	case KindSuccess:
		if n.PhotoURL != "" {
			b.WriteString("\nPhoto: " + n.PhotoURL)
		}
		home := string(ActionReturnHome)
		if p.homeURL != "" {
			home += " (" + p.homeURL + ")"
		}
		b.WriteString("\n\n" + p.actions.Render(fmt.Sprintf("[%s]  [%s]", ActionRegisterAnother, home)))
	case KindFailure:
		b.WriteString("\n\n" + p.dismiss.Render("Your answers are kept. Fix the problem and submit again."))
	}
	return p.box[n.Kind].Render(b.String())
}

// Show writes a single notice.
func (p *Presenter) Show(n Notice) error {
	_, err := fmt.Fprintln(p.out, p.Render(n))
	return err
}

// Run shows notices from ch until it closes or ctx ends.
func (p *Presenter) Run(ctx context.Context, ch <-chan Notice) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n, ok := <-ch:
			if !ok {
				return nil
			}
			if err := p.Show(n); err != nil {
				return err
			}
		}
	}
}
