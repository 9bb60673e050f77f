package gpx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	gpxgo "github.com/tkrajina/gpxgo/gpx"

	"github.com/nivharel/waymark/internal/core/domain"
	"github.com/nivharel/waymark/internal/pkg/metrics"
)

const providerName = "track_file"

// maxTrackBytes bounds how much of an uploaded or fetched file is read.
const maxTrackBytes = 16 << 20

// Importer parses GPX files into track point sequences.
type Importer struct {
	client *http.Client
}

// NewImporter creates an Importer. The HTTP client is only used for
// ImportURL.
func NewImporter(timeout time.Duration) *Importer {
	return &Importer{client: &http.Client{Timeout: timeout}}
}

// Import implements ports.TrackImporter. Points of all segments of the
// first track are flattened into one sequence; a file with zero tracks or
// zero points is rejected with a classified parse error.
func (i *Importer) Import(ctx context.Context, r io.Reader) (*domain.Track, error) {
	track, err := parse(r)
	if err != nil {
		return nil, err
	}
	metrics.TracksImported.WithLabelValues("upload").Inc()
	return track, nil
}

func parse(r io.Reader) (*domain.Track, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxTrackBytes))
	if err != nil {
		return nil, domain.NewRouteError(domain.FailureInvalidInput, providerName, err)
	}

	parsed, err := gpxgo.ParseBytes(data)
	if err != nil {
		return nil, domain.NewRouteError(domain.FailureInvalidInput, providerName, err)
	}
	if len(parsed.Tracks) == 0 {
		return nil, domain.NewRouteError(domain.FailureInvalidInput, providerName, domain.ErrEmptyTrack)
	}

	first := parsed.Tracks[0]
	track := &domain.Track{Name: first.Name}
	if track.Name == "" {
		track.Name = parsed.Name
	}

	for _, seg := range first.Segments {
		for _, p := range seg.Points {
			tp := domain.TrackPoint{
				Location: domain.GeoPoint{Lat: p.Latitude, Lon: p.Longitude},
			}
			// Missing elevation stays 0 so downstream reducers remain total.
			if p.Elevation.NotNull() {
				tp.ElevationM = p.Elevation.Value()
			}
			track.Points = append(track.Points, tp)
		}
	}

	if len(track.Points) == 0 {
		return nil, domain.NewRouteError(domain.FailureInvalidInput, providerName, domain.ErrEmptyTrack)
	}

	return track, nil
}

// ImportURL implements ports.TrackImporter for remote files.
func (i *Importer) ImportURL(ctx context.Context, url string) (*domain.Track, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.NewRouteError(domain.FailureTransport, providerName, err)
	}

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, domain.NewRouteError(domain.FailureTransport, providerName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.NewRouteError(domain.FailureTransport, providerName,
			fmt.Errorf("status %d", resp.StatusCode))
	}

	track, err := parse(resp.Body)
	if err != nil {
		return nil, err
	}
	metrics.TracksImported.WithLabelValues("url").Inc()
	return track, nil
}
