// Package timeline holds the value-semantic inputs to a render: clips,
// transitions, text overlays and export settings, including the
// optional-field defaults older payloads rely on.
package timeline

import "encoding/json"

// Clip is one entry on the timeline: a half-open window [InPoint, OutPoint)
// into Source, positioned at StartTime on Track.
type Clip struct {
	ID       int     `json:"id"`
	Source   string  `json:"source_path"`
	InPoint  float64 `json:"in_point"`
	OutPoint float64 `json:"out_point"`

	StartTime float64 `json:"start_time"`
	Track     int     `json:"track"`

	Volume          float64 `json:"volume"`
	IsMuted         bool    `json:"is_muted"`
	FadeInDuration  float64 `json:"fade_in_duration"`
	FadeOutDuration float64 `json:"fade_out_duration"`
}

// clipWire is the wire shape used only to detect absent optional fields so
// older payloads that omit track/audio params still get the documented
// defaults (track=0, volume=100, is_muted=false, fades=0).
type clipWire struct {
	ID       int     `json:"id"`
	Source   string  `json:"source_path"`
	InPoint  float64 `json:"in_point"`
	OutPoint float64 `json:"out_point"`

	StartTime float64 `json:"start_time"`
	Track     *int    `json:"track"`

	Volume          *float64 `json:"volume"`
	IsMuted         *bool    `json:"is_muted"`
	FadeInDuration  *float64 `json:"fade_in_duration"`
	FadeOutDuration *float64 `json:"fade_out_duration"`
}

// UnmarshalJSON applies the documented defaults for fields absent from
// older revisions of the clip payload.
func (c *Clip) UnmarshalJSON(data []byte) error {
	var w clipWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	c.ID = w.ID
	c.Source = w.Source
	c.InPoint = w.InPoint
	c.OutPoint = w.OutPoint
	c.StartTime = w.StartTime

	c.Track = 0
	if w.Track != nil {
		c.Track = *w.Track
	}
	c.Volume = 100
	if w.Volume != nil {
		c.Volume = *w.Volume
	}
	if w.IsMuted != nil {
		c.IsMuted = *w.IsMuted
	}
	if w.FadeInDuration != nil {
		c.FadeInDuration = *w.FadeInDuration
	}
	if w.FadeOutDuration != nil {
		c.FadeOutDuration = *w.FadeOutDuration
	}
	return nil
}

// Duration is the clip's source-time span.
func (c Clip) Duration() float64 {
	return c.OutPoint - c.InPoint
}

// TimelineEnd is the clip's end position on the timeline.
func (c Clip) TimelineEnd() float64 {
	return c.StartTime + c.Duration()
}

// NeedsAudioFilter reports whether the clip's audio params require a
// re-encode (rather than a codec-copy trim).
func (c Clip) NeedsAudioFilter() bool {
	return c.IsMuted || c.Volume != 100 || c.FadeInDuration > 0 || c.FadeOutDuration > 0
}

// TransitionKind names a crossfade/wipe variant. The UI-facing names are
// distinct from the transcoder's xfade names (see filtergraph.XfadeName).
type TransitionKind string

const (
	Fade         TransitionKind = "fade"
	Crossfade    TransitionKind = "crossfade"
	Dissolve     TransitionKind = "dissolve"
	FadeToBlack  TransitionKind = "fadeToBlack"
	WipeLeft     TransitionKind = "wipeLeft"
	WipeRight    TransitionKind = "wipeRight"
)

// Transition crossfades the tail of ClipIDBefore into the head of
// ClipIDAfter; the two clips must be adjacent on the same track once
// sorted by start time.
type Transition struct {
	ID            int            `json:"id"`
	ClipIDBefore  int            `json:"clip_id_before"`
	ClipIDAfter   int            `json:"clip_id_after"`
	Kind          TransitionKind `json:"kind"`
	Duration      float64        `json:"duration"`
}

// TextOverlay is a drawtext instruction active over [StartTime, StartTime+Duration).
type TextOverlay struct {
	ID        int     `json:"id"`
	Text      string  `json:"text"`
	StartTime float64 `json:"start_time"`
	Duration  float64 `json:"duration"`
	X         float64 `json:"x"` // percent of frame width, 0-100
	Y         float64 `json:"y"` // percent of frame height, 0-100
	FontSize  int     `json:"font_size"`
	FontFamily string `json:"font_family"`
	ColorHex  string  `json:"color_hex"` // "#RRGGBB"
	Animation string  `json:"animation,omitempty"`
}

// EndTime is the overlay's deactivation time.
func (t TextOverlay) EndTime() float64 {
	return t.StartTime + t.Duration
}

// Resolution is one of the fixed export frame sizes.
type Resolution struct {
	Name          string
	Width, Height int
}

var (
	ResolutionSource = Resolution{Name: "Source"}
	ResolutionHD720  = Resolution{Name: "HD720", Width: 1280, Height: 720}
	ResolutionHD1080 = Resolution{Name: "HD1080", Width: 1920, Height: 1080}
)

// ExportSettings configures the output of a render.
type ExportSettings struct {
	Resolution Resolution `json:"-"`
	OutputPath string     `json:"output_path"`
}

// exportWire lets ExportSettings round-trip Resolution as its name.
type exportWire struct {
	ResolutionName string `json:"resolution"`
	OutputPath     string `json:"output_path"`
}

func (e *ExportSettings) UnmarshalJSON(data []byte) error {
	var w exportWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	e.OutputPath = w.OutputPath
	switch w.ResolutionName {
	case "HD720":
		e.Resolution = ResolutionHD720
	case "HD1080":
		e.Resolution = ResolutionHD1080
	default:
		e.Resolution = ResolutionSource
	}
	return nil
}

func (e ExportSettings) MarshalJSON() ([]byte, error) {
	return json.Marshal(exportWire{ResolutionName: e.Resolution.Name, OutputPath: e.OutputPath})
}
