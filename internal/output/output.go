// Package output formats meetingctl results for the terminal.
package output

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/aura-meetings/backend/internal/events"
	"github.com/aura-meetings/backend/internal/models"
)

type Formatter struct {
	w io.Writer
}

func NewFormatter(w io.Writer) *Formatter {
	return &Formatter{w: w}
}

func (f *Formatter) Error(msg string) {
	fmt.Fprintf(f.w, "error: %s\n", msg)
}

func (f *Formatter) Info(msg string) {
	fmt.Fprintf(f.w, "%s\n", msg)
}

func (f *Formatter) Success(msg string) {
	fmt.Fprintf(f.w, "ok: %s\n", msg)
}

// MeetingTable prints one row per meeting in the given order.
func (f *Formatter) MeetingTable(views []models.MeetingView, loc *time.Location) {
	tw := tabwriter.NewWriter(f.w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tSTATUS\tSTART\tMIN\tPEOPLE\tTITLE\tID")
	for _, v := range views {
		start := "-"
		if v.StartsAt != nil {
			start = v.StartsAt.In(loc).Format("2006-01-02 15:04")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			v.DerivedStatus, v.Status, start, v.Duration, len(v.Participants), v.Title, v.ID)
	}
	_ = tw.Flush()
}

// Event prints a received meeting event.
func (f *Formatter) Event(m events.Message) {
	fmt.Fprintf(f.w, "%s  %-26s %s\n", time.Unix(m.At, 0).UTC().Format(time.RFC3339), m.Event, string(m.Data))
}
