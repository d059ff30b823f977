// Package schema holds the typing rules for dynamic features: which kind of
// value a feature type carries and what a record gets when the feature is
// first materialized on it.
package schema

import "olimpiad/pkg/constraints"

// PlaceholderImage is a 1x1 black PNG used as the default for image features.
const PlaceholderImage = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

// TextDefault is the default for text features.
const TextDefault = "none"

type Kind int

const (
	KindUnknown Kind = iota
	KindText
	KindImage
	KindNumber
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindNumber:
		return "number"
	default:
		return "unknown"
	}
}

// KindOf maps a feature type tag to its value kind. Tags are matched
// exactly; there is no coercion between kinds.
func KindOf(featureType string) Kind {
	switch featureType {
	case constraints.TypeText:
		return KindText
	case constraints.TypeImage, constraints.TypeImageAlias:
		return KindImage
	case constraints.TypeNumber:
		return KindNumber
	default:
		return KindUnknown
	}
}

// Value is a dynamic feature value tagged with its kind.
type Value interface {
	Kind() Kind
	// Raw returns the value as stored in a record's dynamic_features map.
	Raw() any
}

type Text string

func (Text) Kind() Kind { return KindText }
func (v Text) Raw() any { return string(v) }

// Image is a URL or data URL.
type Image string

func (Image) Kind() Kind { return KindImage }
func (v Image) Raw() any { return string(v) }

// Null marks a feature that is present on a record but has no value. Of is
// the kind the feature would carry, KindUnknown for unrecognized tags.
type Null struct {
	Of Kind
}

func (n Null) Kind() Kind { return n.Of }
func (Null) Raw() any { return nil }

// Default applies the default-value rule for a feature type. It is
// recomputed on every materialization rather than stored with the feature.
func Default(featureType string) Value {
	switch KindOf(featureType) {
	case KindText:
		return Text(TextDefault)
	case KindImage:
		return Image(PlaceholderImage)
	case KindNumber:
		return Null{Of: KindNumber}
	}
	return Null{}
}
