// Package ideas turns a niche and a brand description into validated
// short-video script ideas by way of an LLM provider.
package ideas

// Platform identifies a short-video destination.
type Platform string

// Supported platforms.
const (
	PlatformTikTok    Platform = "tiktok"
	PlatformInstagram Platform = "instagram"
	PlatformYouTube   Platform = "youtube"
	PlatformReels     Platform = "reels"
	PlatformShorts    Platform = "shorts"
)

// Request limits and defaults.
const (
	MinCount       = 1
	MaxCount       = 20
	DefaultCount   = 5
	MinNicheLength = 2
	MaxNicheLength = 200
)

// AllPlatforms lists every supported platform in display order.
var AllPlatforms = []Platform{
	PlatformTikTok,
	PlatformInstagram,
	PlatformYouTube,
	PlatformReels,
	PlatformShorts,
}

var platformNames = map[Platform]string{
	PlatformTikTok:    "TikTok",
	PlatformInstagram: "Instagram",
	PlatformYouTube:   "YouTube",
	PlatformReels:     "Instagram Reels",
	PlatformShorts:    "YouTube Shorts",
}

// DisplayName returns the human readable platform name used in prompts.
func (p Platform) DisplayName() string {
	if name, ok := platformNames[p]; ok {
		return name
	}
	return string(p)
}

// Valid reports whether p is a supported platform.
func (p Platform) Valid() bool {
	_, ok := platformNames[p]
	return ok
}

// DefaultPlatforms returns the platforms used when a request names none.
func DefaultPlatforms() []Platform {
	return []Platform{PlatformTikTok, PlatformReels}
}

// Branding describes the creator's brand. Every field is optional.
type Branding struct {
	Voice  string   `json:"voice,omitempty"`
	Values []string `json:"values,omitempty"`
	Colors []string `json:"colors,omitempty"`
}

// IsZero reports whether no branding detail was supplied.
func (b Branding) IsZero() bool {
	return b.Voice == "" && len(b.Values) == 0 && len(b.Colors) == 0
}

// GenerationRequest is the validated input to the pipeline.
type GenerationRequest struct {
	Niche     string     `json:"niche" validate:"required,min=2,max=200"`
	Branding  Branding   `json:"branding"`
	Platforms []Platform `json:"platforms" validate:"min=1,dive,oneof=tiktok instagram youtube reels shorts"`
	Count     int        `json:"count" validate:"min=1,max=20"`
}

// GenerationIdea is one short-video script idea.
type GenerationIdea struct {
	Title      string   `json:"title"`
	Hook       string   `json:"hook"`
	Outline    []string `json:"outline"`
	CTA        string   `json:"cta"`
	Platform   string   `json:"platform"`
	ViralScore float64  `json:"viralScore"`
	References []string `json:"references,omitempty"`
}

// GenerationResult is a successful pipeline output. Ideas is never empty.
type GenerationResult struct {
	Ideas []GenerationIdea `json:"ideas"`
}
