package ebook

import (
	"regexp"
	"strings"
)

// AssetType identifies the kind of asset.
type AssetType string

const (
	// CoverImage is the singleton cover asset owned by the document.
	CoverImage AssetType = "coverImage"
	// BackgroundImage is a per-chapter background visual.
	BackgroundImage AssetType = "backgroundImage"
	// InteractiveElement is a per-chapter worksheet or tracker mockup.
	InteractiveElement AssetType = "interactiveElement"
	// Diagram is a per-chapter framework diagram.
	Diagram AssetType = "diagram"
	// ChartInfographic is a per-chapter chart or infographic.
	ChartInfographic AssetType = "chartInfographic"
	// MotivationalQuote is a per-chapter text-only quote.
	MotivationalQuote AssetType = "motivationalQuote"
)

var chapterAssetTypes = []AssetType{
	BackgroundImage,
	InteractiveElement,
	Diagram,
	ChartInfographic,
	MotivationalQuote,
}

// ChapterAssetTypes returns the five asset types every chapter owns, in display order.
func ChapterAssetTypes() []AssetType {
	out := make([]AssetType, len(chapterAssetTypes))
	copy(out, chapterAssetTypes)
	return out
}

// AllAssetTypes returns the cover type followed by the chapter types.
func AllAssetTypes() []AssetType {
	return append([]AssetType{CoverImage}, chapterAssetTypes...)
}

// ParseAssetType converts a string to an AssetType.
func ParseAssetType(s string) (AssetType, bool) {
	t := AssetType(s)
	return t, t.Valid()
}

// Valid reports whether t is one of the known asset types.
func (t AssetType) Valid() bool {
	if t == CoverImage {
		return true
	}
	for _, ct := range chapterAssetTypes {
		if t == ct {
			return true
		}
	}
	return false
}

// IsText reports whether the asset carries text only and never an image.
func (t AssetType) IsText() bool {
	return t == MotivationalQuote
}

var upperRun = regexp.MustCompile(`([A-Z])`)

// Label returns a human label, e.g. "Background Image".
func (t AssetType) Label() string {
	s := upperRun.ReplaceAllString(string(t), " $1")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// AssetStatus is the lifecycle state of an asset.
type AssetStatus string

const (
	StatusIdle         AssetStatus = "idle"
	StatusGenerating   AssetStatus = "generating"
	StatusGenerated    AssetStatus = "generated"
	StatusApproved     AssetStatus = "approved"
	StatusUserUploaded AssetStatus = "user-uploaded"
	StatusError        AssetStatus = "error"
)

// Accepted reports whether the status counts as terminal-accepted for phase gating.
func (s AssetStatus) Accepted() bool {
	return s == StatusApproved || s == StatusUserUploaded
}

// Asset is one generated or uploaded artifact.
//
// The AI slot holds the last generation output, the uploaded slot holds a
// manual override, and the final slot is authoritative once the asset is
// approved or uploaded.
type Asset struct {
	ID     string      `json:"id"`
	Type   AssetType   `json:"type"`
	Status AssetStatus `json:"status"`

	AIPrompt           string `json:"aiPrompt,omitempty"`
	AIGeneratedURL     string `json:"aiGeneratedUrl,omitempty"`
	AIGeneratedContent string `json:"aiGeneratedContent,omitempty"`

	UserUploadedFile    string `json:"userUploadedFile,omitempty"`
	UserUploadedURL     string `json:"userUploadedUrl,omitempty"`
	UserUploadedContent string `json:"userUploadedContent,omitempty"`

	FinalURL     string `json:"finalUrl,omitempty"`
	FinalContent string `json:"finalContent,omitempty"`

	Error string `json:"error,omitempty"`
}

// NewAsset returns an idle asset with every content slot empty.
func NewAsset(id string, t AssetType) Asset {
	return Asset{ID: id, Type: t, Status: StatusIdle}
}

