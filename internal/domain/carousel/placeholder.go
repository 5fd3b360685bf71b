package carousel

import (
	"encoding/base64"
	"fmt"
)

const placeholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">` +
	`<rect width="100%%" height="100%%" fill="#E5E7EB"/>` +
	`<path d="M0 0L%d %dM%d 0L0 %d" stroke="#9CA3AF" stroke-width="4"/>` +
	`<text x="50%%" y="50%%" fill="#6B7280" font-family="sans-serif" font-size="32" text-anchor="middle" dominant-baseline="middle">Image</text>` +
	`</svg>`

// PlaceholderImage returns a self-contained SVG data URI marking a missing
// image. Non-positive sizes default to a square.
func PlaceholderImage(width, height int) string {
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = width
	}
	svg := fmt.Sprintf(placeholderSVG, width, height, width, height, width, height, width, height)
	return "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))
}
