// Package site holds the tournament's static page content.
package site

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var defaultContent []byte

// ErrInvalidContent is returned when a content file fails validation
var ErrInvalidContent = errors.New("invalid site content")

const dateLayout = "2006-01-02"

// Content is everything the page renders besides the countdown.
type Content struct {
	Name       string   `yaml:"name" json:"name"`
	Tagline    string   `yaml:"tagline" json:"tagline"`
	Location   string   `yaml:"location" json:"location"`
	Timezone   string   `yaml:"timezone" json:"timezone"`
	Dates      *Window  `yaml:"dates,omitempty" json:"dates,omitempty"`
	About      string   `yaml:"about,omitempty" json:"about,omitempty"`
	Highlights []string `yaml:"highlights,omitempty" json:"highlights,omitempty"`
	Venue      *Venue   `yaml:"venue,omitempty" json:"venue,omitempty"`
	Teams      []Team   `yaml:"teams" json:"teams"`
	Schedule   []Day    `yaml:"schedule" json:"schedule"`
	Tickets    []Ticket `yaml:"tickets" json:"tickets"`
}

// Window is the inclusive span of tournament days, YYYY-MM-DD.
type Window struct {
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
	Label string `yaml:"-" json:"label"`
}

type Venue struct {
	Name      string    `yaml:"name" json:"name"`
	Notes     string    `yaml:"notes,omitempty" json:"notes,omitempty"`
	Amenities []Amenity `yaml:"amenities,omitempty" json:"amenities,omitempty"`
}

// Amenity is one labelled info tile, e.g. Concessions.
type Amenity struct {
	Label  string `yaml:"label" json:"label"`
	Detail string `yaml:"detail" json:"detail"`
}

type Team struct {
	Name     string `yaml:"name" json:"name"`
	Division string `yaml:"division" json:"division"`
	Seed     int    `yaml:"seed" json:"seed"`
}

// Day is one tournament day. Date is YYYY-MM-DD.
type Day struct {
	Date  string `yaml:"date" json:"date"`
	Label string `yaml:"-" json:"label"`
	Games []Game `yaml:"games" json:"games"`
}

type Game struct {
	Time    string `yaml:"time" json:"time"`
	Matchup string `yaml:"matchup" json:"matchup"`
	Field   string `yaml:"field" json:"field"`
}

type Ticket struct {
	Name        string `yaml:"name" json:"name"`
	PriceCents  int    `yaml:"price_cents" json:"price_cents"`
	Description string `yaml:"description" json:"description"`
}

// Price formats the ticket price in dollars.
func (t Ticket) Price() string {
	if t.PriceCents%100 == 0 {
		return fmt.Sprintf("$%d", t.PriceCents/100)
	}
	return fmt.Sprintf("$%d.%02d", t.PriceCents/100, t.PriceCents%100)
}

// Default returns the content compiled into the binary.
func Default() (*Content, error) {
	return Parse(defaultContent)
}

// Load reads content from a YAML file. An empty path yields Default.
func Load(path string) (*Content, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates YAML content.
func Parse(data []byte) (*Content, error) {
	var c Content
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse content: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the content and fills in derived date labels.
func (c *Content) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidContent)
	}
	if c.Timezone != "" {
		if _, err := time.LoadLocation(c.Timezone); err != nil {
			return fmt.Errorf("%w: timezone %q: %v", ErrInvalidContent, c.Timezone, err)
		}
	}

	if c.Dates != nil {
		if err := c.Dates.validate(); err != nil {
			return err
		}
	}
	if c.Venue != nil {
		for _, a := range c.Venue.Amenities {
			if strings.TrimSpace(a.Label) == "" {
				return fmt.Errorf("%w: venue amenity without a label", ErrInvalidContent)
			}
		}
	}

	seeds := make(map[int]string, len(c.Teams))
	for _, team := range c.Teams {
		if strings.TrimSpace(team.Name) == "" {
			return fmt.Errorf("%w: team without a name", ErrInvalidContent)
		}
		if other, dup := seeds[team.Seed]; dup {
			return fmt.Errorf("%w: seed %d shared by %q and %q", ErrInvalidContent, team.Seed, other, team.Name)
		}
		seeds[team.Seed] = team.Name
	}

	for i := range c.Schedule {
		day, err := time.Parse(dateLayout, c.Schedule[i].Date)
		if err != nil {
			return fmt.Errorf("%w: schedule date %q", ErrInvalidContent, c.Schedule[i].Date)
		}
		c.Schedule[i].Label = day.Format("Mon, Jan 2")
	}

	for _, ticket := range c.Tickets {
		if ticket.PriceCents <= 0 {
			return fmt.Errorf("%w: ticket %q has no price", ErrInvalidContent, ticket.Name)
		}
	}
	return nil
}

func (w *Window) validate() error {
	start, err := time.Parse(dateLayout, w.Start)
	if err != nil {
		return fmt.Errorf("%w: start date %q", ErrInvalidContent, w.Start)
	}
	end, err := time.Parse(dateLayout, w.End)
	if err != nil {
		return fmt.Errorf("%w: end date %q", ErrInvalidContent, w.End)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: dates end %s before start %s", ErrInvalidContent, w.End, w.Start)
	}

	switch {
	case start.Equal(end):
		w.Label = start.Format("January 2, 2006")
	case start.Year() == end.Year() && start.Month() == end.Month():
		w.Label = fmt.Sprintf("%s %d-%d, %d", start.Month(), start.Day(), end.Day(), start.Year())
	case start.Year() == end.Year():
		w.Label = fmt.Sprintf("%s - %s", start.Format("January 2"), end.Format("January 2, 2006"))
	default:
		w.Label = fmt.Sprintf("%s - %s", start.Format("January 2, 2006"), end.Format("January 2, 2006"))
	}
	return nil
}

// TeamsInDivision returns the teams in division ordered as listed.
func (c *Content) TeamsInDivision(division string) []Team {
	var out []Team
	for _, team := range c.Teams {
		if strings.EqualFold(team.Division, division) {
			out = append(out, team)
		}
	}
	return out
}
