// Package util is a set of utility variables or methods shared by the booth packages
package util

import mapset "github.com/deckarep/golang-set/v2"

// Layout templates a composite can be rendered with.
const (
	TemplateStrip  = "strip"
	TemplateGrid   = "grid"
	TemplateSingle = "single"

	// TemplateRaw marks a single shot saved without a layout.
	TemplateRaw = "raw"
)

// Corners and center a logo can be anchored to.
const (
	PositionTopLeft     = "top-left"
	PositionTopRight    = "top-right"
	PositionBottomLeft  = "bottom-left"
	PositionBottomRight = "bottom-right"
	PositionCenter      = "center"
)

var SupportedExt = mapset.NewSet(
	".jpeg", ".jpg", ".JPEG", ".JPG",
	".png", ".PNG",
)

var Templates = mapset.NewSet(
	TemplateStrip, TemplateGrid, TemplateSingle,
)

var LogoPositions = mapset.NewSet(
	PositionTopLeft, PositionTopRight,
	PositionBottomLeft, PositionBottomRight,
	PositionCenter,
)
