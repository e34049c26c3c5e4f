package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/golang/geo/s2"

	"sigmon/pkg/contracts/domain"
)

// Marker icons per mode.
const (
	IconRoute  = "road"
	IconStatic = "signal"
)

// ModeIcon returns the marker icon for m.
func ModeIcon(m domain.Mode) string {
	if m == domain.ModeStatic {
		return IconStatic
	}
	return IconRoute
}

// Legend is the static map legend: one entry per operator color and one per
// mode icon.
func Legend() []domain.LegendEntry {
	out := make([]domain.LegendEntry, 0, len(domain.Operators)+len(domain.Modes))
	for _, op := range domain.Operators {
		out = append(out, domain.LegendEntry{Label: string(op), Color: op.Color()})
	}
	for _, m := range domain.Modes {
		out = append(out, domain.LegendEntry{Label: string(m), Icon: ModeIcon(m)})
	}
	return out
}

// BuildMap places one marker per long row that has a usable coordinate,
// across every mode that produced rows. Markers are clustered per mode.
// Center and bounds cover all markers and are omitted when there are none.
func BuildMap(model *domain.RenderModel) domain.MapModel {
	out := domain.MapModel{
		Markers: []domain.MapMarker{},
		Legend:  Legend(),
	}
	if model == nil {
		return out
	}

	rect := s2.EmptyRect()
	for _, mr := range model.Modes {
		if mr.Status != domain.StatusOK {
			continue
		}
		for _, row := range mr.Rows {
			lat, okLat := row.Latitude.Float()
			lng, okLng := row.Longitude.Float()
			if !okLat || !okLng {
				continue
			}
			ll := s2.LatLngFromDegrees(lat, lng)
			if !ll.IsValid() {
				continue
			}
			rect = rect.AddPoint(ll)
			out.Markers = append(out.Markers, domain.MapMarker{
				Mode:      row.Mode,
				Operator:  row.Operator,
				Latitude:  lat,
				Longitude: lng,
				Icon:      ModeIcon(row.Mode),
				Color:     row.Operator.Color(),
				Cluster:   row.Mode.Slug(),
				Popup:     popup(row, model.Selection),
			})
		}
	}

	if !rect.IsEmpty() {
		c := rect.Center()
		out.Center = &domain.LatLng{Latitude: c.Lat.Degrees(), Longitude: c.Lng.Degrees()}
		lo, hi := rect.Lo(), rect.Hi()
		out.Bounds = []domain.LatLng{
			{Latitude: lo.Lat.Degrees(), Longitude: lo.Lng.Degrees()},
			{Latitude: hi.Lat.Degrees(), Longitude: hi.Lng.Degrees()},
		}
	}
	return out
}

func popup(row domain.LongRow, sel domain.Selection) string {
	lines := []string{
		fmt.Sprintf("<b>%s</b>", html.EscapeString(row.Location)),
	}
	add := func(label, value string) {
		if value == "" {
			return
		}
		lines = append(lines, fmt.Sprintf("%s: %s", label, html.EscapeString(value)))
	}
	add("Region", row.Region)
	add("Date", row.DateText)
	add("Mode", string(row.Mode))
	add("Parameter", row.Parameter)
	add("Operator", string(row.Operator))
	add("Value", row.Value.String())
	add("Coordinate", sel.PickCoordinate(row.Coordinate, row.CoordinateDMS))
	return strings.Join(lines, "<br>")
}
