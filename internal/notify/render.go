package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"retreat/internal/registration"
)

//go:embed templates/registration.html
var templates embed.FS

var registrationTmpl = template.Must(template.ParseFS(templates, "templates/registration.html"))

// DefaultEventName is the heading shown in the notification.
const DefaultEventName = "ELOHIM'S BIBLE STUDY RETREAT: Renewing of Minds"

// TimestampLayout renders like "Monday, January 2, 2006 at 3:04 PM".
const TimestampLayout = "Monday, January 2, 2006 at 3:04 PM"

type row struct {
	Label string
	Value string
}

type document struct {
	EventName   string
	FullName    string
	PhotoURL    string
	Personal    []row
	Spiritual   []row
	Notes       []row
	SubmittedAt string
}

// Renderer builds the HTML notification for a submission.
type Renderer struct {
	EventName string
	Location  *time.Location
}

// NewRenderer returns a renderer that prints timestamps in loc.
func NewRenderer(eventName string, loc *time.Location) *Renderer {
	if eventName == "" {
		eventName = DefaultEventName
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{EventName: eventName, Location: loc}
}

// Render returns the notification document. All submitter text is escaped.
func (r *Renderer) Render(sub registration.Submission, photoURL string, at time.Time) (string, error) {
	doc := document{
		EventName: r.EventName,
		FullName:  sub.FullName,
		PhotoURL:  photoURL,
		Personal: []row{
			{"Full Name:", sub.FullName},
			{"Gender:", sub.Gender},
			{"Age:", strconv.Itoa(sub.Age)},
			{"Phone/WhatsApp:", sub.Phone},
			{"Email:", sub.Email},
			{"Location/City:", sub.Location},
			{"Church/Ministry:", orNA(sub.Church)},
			{"Affiliation:", sub.Affiliation},
		},
		Spiritual: []row{
			{"How did you hear about us?", orNA(sub.HowHeard)},
			{"Serve in Drama Ministry?", orNA(sub.DramaMinistry)},
			{"Worship Minister?", orNA(sub.WorshipMinister)},
		},
		Notes: []row{
			{"Spiritual Expectations:", orNA(sub.Expectations)},
			{"How can we help your coming?", orNA(sub.HelpNeeded)},
			{"Prayer Requests:", orNA(sub.PrayerRequests)},
		},
		SubmittedAt: at.In(r.Location).Format(TimestampLayout),
	}

	var buf bytes.Buffer
	if err := registrationTmpl.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("render notification: %w", err)
	}
	return buf.String(), nil
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}
