package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dotcommander/carousel/internal/core"
)

// AnimationsPath is where the shared keyframes stylesheet lives in storage.
const AnimationsPath = "assets/carousel-animations.css"

const animationsCSS = `@keyframes carousel-rise{from{opacity:0;transform:translateY(24px)}to{opacity:1;transform:none}}
@keyframes carousel-fade{from{opacity:0}to{opacity:1}}
@keyframes carousel-pulse{0%,100%{transform:scale(1)}50%{transform:scale(1.04)}}
@media (prefers-reduced-motion:reduce){.slide *{animation:none!important}}
`

// AnimationsCSS returns the keyframes referenced by the layout styles.
func AnimationsCSS() string {
	return animationsCSS
}

// EnsureBaseStylesheet writes the animation stylesheet to store unless an
// identical copy is already there. It reports whether a write happened.
func EnsureBaseStylesheet(ctx context.Context, store core.Storage) (bool, error) {
	existing, err := store.Load(ctx, AnimationsPath)
	switch {
	case err == nil && bytes.Equal(existing, []byte(animationsCSS)):
		return false, nil
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return false, fmt.Errorf("reading %s: %w", AnimationsPath, err)
	}
	if err := store.Save(ctx, AnimationsPath, []byte(animationsCSS)); err != nil {
		return false, fmt.Errorf("writing %s: %w", AnimationsPath, err)
	}
	return true, nil
}
