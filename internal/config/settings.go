package config

import (
	"strings"
	"time"

	"github.com/aidanlsb/ebbinghaus/internal/dates"
	"github.com/aidanlsb/ebbinghaus/internal/marker"
	"github.com/aidanlsb/ebbinghaus/internal/paths"
)

// Defaults for the automation settings.
const (
	DefaultOffsets        = "1,2,4,7,15,30,90,180"
	DefaultMarkerOffsets  = "@ebbinghaus-created"
	DefaultMarkerRange    = "@ebbinghaus-range"
	DefaultTemplatePages  = "Templates"
	DefaultPropertyKey    = "created"
	DefaultMaxRangeDays   = 400
	DefaultEditDebounceMs = 600
)

// Settings are the automation settings. They are read fresh for every pass
// and handed to the engine explicitly.
type Settings struct {
	// TemplatePages is a comma list of pages eligible for offsets updates.
	TemplatePages string `toml:"template_pages" yaml:"template_pages" json:"template_pages"`
	// CaseInsensitivePageMatch folds case when matching template page names.
	CaseInsensitivePageMatch bool `toml:"case_insensitive_page_match" yaml:"case_insensitive_page_match" json:"case_insensitive_page_match"`

	MarkerOffsets string `toml:"marker_offsets" yaml:"marker_offsets" json:"marker_offsets"`
	MarkerRange   string `toml:"marker_range" yaml:"marker_range" json:"marker_range"`

	// PropertyKey is only embedded in inserted query text.
	PropertyKey string `toml:"property_key" yaml:"property_key" json:"property_key"`

	OffsetDays   string `toml:"offset_days" yaml:"offset_days" json:"offset_days"`
	ExcludeToday bool   `toml:"exclude_today" yaml:"exclude_today" json:"exclude_today"`

	// RangeStart/RangeEnd are the fallback range for insertion and for groups
	// lacking a sentinel.
	RangeStart string `toml:"range_start" yaml:"range_start" json:"range_start"`
	RangeEnd   string `toml:"range_end" yaml:"range_end" json:"range_end"`

	AutoUpdateTemplates        bool `toml:"auto_update_templates" yaml:"auto_update_templates" json:"auto_update_templates"`
	UpdateWhenOpenTemplatePage bool `toml:"update_when_open_template_page" yaml:"update_when_open_template_page" json:"update_when_open_template_page"`
	AutoUpdateRangeOnOpenPage  bool `toml:"auto_update_range_on_open_page" yaml:"auto_update_range_on_open_page" json:"auto_update_range_on_open_page"`
	AutoUpdateRangeOnEdit      bool `toml:"auto_update_range_on_edit" yaml:"auto_update_range_on_edit" json:"auto_update_range_on_edit"`

	MaxRangeDays   int `toml:"max_range_days" yaml:"max_range_days" json:"max_range_days"`
	EditDebounceMs int `toml:"edit_debounce_ms" yaml:"edit_debounce_ms" json:"edit_debounce_ms"`

	// OffsetsTemplate/RangeTemplate optionally point at graph files replacing
	// the built-in query blocks; bare names resolve under TemplateDir.
	OffsetsTemplate string `toml:"offsets_template" yaml:"offsets_template" json:"offsets_template,omitempty"`
	RangeTemplate   string `toml:"range_template" yaml:"range_template" json:"range_template,omitempty"`
	TemplateDir     string `toml:"template_dir" yaml:"template_dir" json:"template_dir,omitempty"`
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		TemplatePages:              DefaultTemplatePages,
		CaseInsensitivePageMatch:   true,
		MarkerOffsets:              DefaultMarkerOffsets,
		MarkerRange:                DefaultMarkerRange,
		PropertyKey:                DefaultPropertyKey,
		OffsetDays:                 DefaultOffsets,
		ExcludeToday:               true,
		AutoUpdateTemplates:        true,
		UpdateWhenOpenTemplatePage: true,
		AutoUpdateRangeOnOpenPage:  true,
		AutoUpdateRangeOnEdit:      true,
		MaxRangeDays:               DefaultMaxRangeDays,
		EditDebounceMs:             DefaultEditDebounceMs,
	}
}

// TemplatePageList splits TemplatePages into normalized, non-empty names.
func (s Settings) TemplatePageList() []string {
	raw := s.TemplatePages
	if strings.TrimSpace(raw) == "" {
		raw = DefaultTemplatePages
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if name := paths.NormalizePageName(p); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// MatchTemplatePage reports whether page is one of the template pages.
func (s Settings) MatchTemplatePage(page string) bool {
	cur := paths.NormalizePageName(page)
	for _, p := range s.TemplatePageList() {
		if s.CaseInsensitivePageMatch && strings.EqualFold(p, cur) {
			return true
		}
		if p == cur {
			return true
		}
	}
	return false
}

// OffsetsMarker returns the offsets marker, defaulted when blank.
func (s Settings) OffsetsMarker() string {
	return orDefault(s.MarkerOffsets, DefaultMarkerOffsets)
}

// RangeMarker returns the range marker, defaulted when blank.
func (s Settings) RangeMarker() string {
	return orDefault(s.MarkerRange, DefaultMarkerRange)
}

// Property returns the property key, defaulted when blank.
func (s Settings) Property() string {
	return orDefault(s.PropertyKey, DefaultPropertyKey)
}

// Offsets parses OffsetDays.
func (s Settings) Offsets() []int {
	return dates.ParseOffsets(orDefault(s.OffsetDays, DefaultOffsets))
}

// DefaultRange returns the configured fallback range, or nil unless both
// tokens are valid dates.
func (s Settings) DefaultRange() *marker.Sentinel {
	start := strings.TrimSpace(s.RangeStart)
	end := strings.TrimSpace(s.RangeEnd)
	if !dates.IsValidToken(start) || !dates.IsValidToken(end) {
		return nil
	}
	return &marker.Sentinel{Start: start, End: end}
}

// MaxDays returns the range cap, defaulted when not positive.
func (s Settings) MaxDays() int {
	if s.MaxRangeDays <= 0 {
		return DefaultMaxRangeDays
	}
	return s.MaxRangeDays
}

// EditDebounce returns the quiet interval for edit-triggered passes.
func (s Settings) EditDebounce() time.Duration {
	if s.EditDebounceMs <= 0 {
		return DefaultEditDebounceMs * time.Millisecond
	}
	return time.Duration(s.EditDebounceMs) * time.Millisecond
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
