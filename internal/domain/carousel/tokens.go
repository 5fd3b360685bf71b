package carousel

import "strings"

// DefaultTokens are the hardcoded fallbacks every VisualSpecification is
// merged over.
func DefaultTokens() DesignTokens {
	return DesignTokens{
		Colors: ColorTokens{
			Primary:    "#1F3A5F",
			Secondary:  "#4D7EA8",
			Accent:     "#F2A541",
			Background: "#FFFFFF",
			Text:       "#1A1A1A",
		},
		Fonts: FontTokens{
			Heading: "Inter",
			Body:    "Inter",
		},
	}
}

// MergeTokens overlays each non-empty field of the layers, left to right,
// on top of base.
func MergeTokens(base DesignTokens, layers ...DesignTokens) DesignTokens {
	out := base
	for _, l := range layers {
		out.Colors.Primary = pick(l.Colors.Primary, out.Colors.Primary)
		out.Colors.Secondary = pick(l.Colors.Secondary, out.Colors.Secondary)
		out.Colors.Accent = pick(l.Colors.Accent, out.Colors.Accent)
		out.Colors.Background = pick(l.Colors.Background, out.Colors.Background)
		out.Colors.Text = pick(l.Colors.Text, out.Colors.Text)
		out.Fonts.Heading = pick(l.Fonts.Heading, out.Fonts.Heading)
		out.Fonts.Body = pick(l.Fonts.Body, out.Fonts.Body)
	}
	return out
}

// BrandTokens lifts a brand's visual identity into token form.
func BrandTokens(v VisualIdentity) DesignTokens {
	return DesignTokens{Colors: v.Colors, Fonts: v.Typography}
}

func pick(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// IsResolvedImage reports whether s already points at image data rather
// than being a generation prompt.
func IsResolvedImage(s string) bool {
	s = strings.TrimSpace(s)
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "data:") ||
		strings.HasPrefix(lower, "blob:")
}

// NeedsImageGeneration reports whether an element is an image whose content
// is still a prompt.
func (e Element) NeedsImageGeneration() bool {
	return e.Type == ElementImage && strings.TrimSpace(e.Content) != "" && !IsResolvedImage(e.Content)
}

// NeedsImageGeneration reports whether the background is an image whose
// source is still a prompt.
func (b Background) NeedsImageGeneration() bool {
	return b.Type == BackgroundImage && !IsResolvedImage(b.Image)
}
