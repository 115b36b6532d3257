// internal/session/preferences.go
package session

import (
	"math"

	"voiceflow/internal/ai"
	"voiceflow/internal/providers"
)

// Preferences is the persisted subset of session state. A nil field was never
// set and resolves to its default; an explicit zero value is kept.
type Preferences struct {
	Script            *string
	Speed             *float64
	FontSize          *float64
	Opacity           *float64
	Mirror            *bool
	GuideLine         *bool
	AIEnabled         *bool
	ShowFollowUps     *bool
	Provider          *string
	Model             *string
	Mode              *string
	Style             *string
	MaxResponseLength *int
}

// Resolved is Preferences with every default applied and every range enforced
type Resolved struct {
	Script            string
	Speed             float64
	FontSize          float64
	Opacity           float64
	Mirror            bool
	GuideLine         bool
	AIEnabled         bool
	ShowFollowUps     bool
	Provider          providers.Type
	Model             string
	Mode              ai.Mode
	Style             ai.Style
	MaxResponseLength int
}

// Resolve fills defaults for v
func (p Preferences) Resolve(v Variant) Resolved {
	lo, hi := v.FontRange()
	r := Resolved{
		Script:            deref(p.Script, ""),
		Speed:             ClampSpeed(finite(p.Speed, DefaultSpeed)),
		FontSize:          clamp(finite(p.FontSize, v.DefaultFontSize()), lo, hi),
		Opacity:           clamp(finite(p.Opacity, DefaultOpacity), 0, 1),
		Mirror:            deref(p.Mirror, false),
		GuideLine:         deref(p.GuideLine, true),
		AIEnabled:         deref(p.AIEnabled, false),
		ShowFollowUps:     deref(p.ShowFollowUps, true),
		MaxResponseLength: clampInt(deref(p.MaxResponseLength, DefaultResponseLength), MinResponseLength, MaxResponseLength),
	}

	if p.Provider != nil {
		if t, err := providers.ParseType(*p.Provider); err == nil {
			r.Provider = t
		}
	}
	r.Model = deref(p.Model, "")
	if r.Provider != "" && !r.Provider.HasModel(r.Model) {
		r.Model = r.Provider.DefaultModel()
	}
	if p.Mode != nil {
		r.Mode, _ = ai.ParseMode(*p.Mode)
	}
	if p.Style != nil {
		r.Style, _ = ai.ParseStyle(*p.Style)
	}
	return r
}

// Merge returns p with every non-nil field of o laid over it
func (p Preferences) Merge(o Preferences) Preferences {
	if o.Script != nil {
		p.Script = o.Script
	}
	if o.Speed != nil {
		p.Speed = o.Speed
	}
	if o.FontSize != nil {
		p.FontSize = o.FontSize
	}
	if o.Opacity != nil {
		p.Opacity = o.Opacity
	}
	if o.Mirror != nil {
		p.Mirror = o.Mirror
	}
	if o.GuideLine != nil {
		p.GuideLine = o.GuideLine
	}
	if o.AIEnabled != nil {
		p.AIEnabled = o.AIEnabled
	}
	if o.ShowFollowUps != nil {
		p.ShowFollowUps = o.ShowFollowUps
	}
	if o.Provider != nil {
		p.Provider = o.Provider
	}
	if o.Model != nil {
		p.Model = o.Model
	}
	if o.Mode != nil {
		p.Mode = o.Mode
	}
	if o.Style != nil {
		p.Style = o.Style
	}
	if o.MaxResponseLength != nil {
		p.MaxResponseLength = o.MaxResponseLength
	}
	return p
}

func deref[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}

// finite is deref that also treats a stored NaN or infinity as unset
func finite(p *float64, def float64) float64 {
	if p == nil || math.IsNaN(*p) || math.IsInf(*p, 0) {
		return def
	}
	return *p
}

// Ptr returns a pointer to v, for building Preferences literals
func Ptr[T any](v T) *T {
	return &v
}
