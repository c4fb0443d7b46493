package animation

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// MaxNameLength bounds preset names.
const MaxNameLength = 100

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_\- ]+$`)

var (
	ErrEmptyName   = errors.New("name must not be empty")
	ErrNameTooLong = fmt.Errorf("name must be at most %d characters", MaxNameLength)
	ErrNameCharset = errors.New("name may only contain letters, digits, spaces, dashes and underscores")
)

// ValidateName reports whether name is usable as a preset key.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrEmptyName
	}
	if len(name) > MaxNameLength {
		return ErrNameTooLong
	}
	if !namePattern.MatchString(name) {
		return ErrNameCharset
	}
	return nil
}

// Validate checks a preset's shape and numeric ranges. A nil return means
// the preset is valid; a non-nil error carries the first rule that failed.
// Validate is pure: it never mutates p and never panics.
func Validate(p Preset) error {
	if p.Type == "" {
		return errors.New("missing type")
	}
	if p.Properties == nil {
		return errors.New("missing properties")
	}
	if math.IsNaN(p.Duration) || math.IsInf(p.Duration, 0) {
		return errors.New("duration must be a finite number")
	}
	if p.Duration <= 0 || p.Duration > MaxDuration {
		return fmt.Errorf("duration must be greater than 0 and at most %dms, got %v", MaxDuration, p.Duration)
	}
	if p.Easing == "" {
		return errors.New("missing easing")
	}

	switch p.Type {
	case TypeFade:
		r, ok := p.Properties[PropOpacity]
		if !ok {
			return errors.New("fade requires an opacity property")
		}
		if r.From < 0 || r.From > 1 || r.To < 0 || r.To > 1 {
			return fmt.Errorf("fade opacity must stay within [0,1], got from=%v to=%v", r.From, r.To)
		}
	case TypeSlide:
		_, hasX := p.Properties[PropX]
		_, hasY := p.Properties[PropY]
		if !hasX && !hasY {
			return errors.New("slide requires an x or y property")
		}
	case TypeScale:
		r, ok := p.Properties[PropScale]
		if !ok {
			return errors.New("scale requires a scale property")
		}
		if r.From <= 0 || r.To <= 0 {
			return fmt.Errorf("scale values must be positive, got from=%v to=%v", r.From, r.To)
		}
	case TypeRotate:
		// Rotation is unbounded; presets may rotate past 360 degrees.
		if _, ok := p.Properties[PropRotation]; !ok {
			return errors.New("rotate requires a rotation property")
		}
	default:
		return fmt.Errorf("unknown animation type %q", p.Type)
	}
	return nil
}
