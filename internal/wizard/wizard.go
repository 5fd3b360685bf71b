// Package wizard converts the state collected by the UI wizard plus a
// persisted brand profile into a PipelineInput. The pipeline never reads UI
// state directly.
package wizard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dotcommander/carousel/internal/core"
	domain "github.com/dotcommander/carousel/internal/domain/carousel"
)

// Submission is what the wizard posts when the user presses generate.
type Submission struct {
	AssetType      string   `json:"assetType" validate:"omitempty,oneof=carousel post story"`
	ProductContext string   `json:"productContext" validate:"required,max=2000"`
	CampaignGoal   string   `json:"campaignGoal" validate:"required,max=500"`
	ContentBrief   string   `json:"contentBrief" validate:"max=5000"`
	Language       string   `json:"language,omitempty" validate:"omitempty,bcp47_language_tag"`
	Uploads        []Upload `json:"uploads,omitempty" validate:"max=10,dive"`

	// Brand, when set, replaces the stored brand profile for this run.
	Brand *domain.BrandConfig `json:"brand,omitempty"`
}

// Upload is a reference image the user attached to the wizard.
type Upload struct {
	Name string `json:"name" validate:"max=200"`
	URL  string `json:"url" validate:"required,url|datauri"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "yaml"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	v.RegisterStructValidation(validateBrand, domain.BrandConfig{})
	return v
}

// validateBrand checks a brand profile. The domain type carries no
// validation tags, so the rules live here.
func validateBrand(sl validator.StructLevel) {
	b := sl.Current().Interface().(domain.BrandConfig)
	if strings.TrimSpace(b.Name) == "" {
		sl.ReportError(b.Name, "name", "Name", "required", "")
	}

	colors := []struct{ field, value string }{
		{"primary", b.Visual.Colors.Primary},
		{"secondary", b.Visual.Colors.Secondary},
		{"accent", b.Visual.Colors.Accent},
		{"background", b.Visual.Colors.Background},
		{"text", b.Visual.Colors.Text},
	}
	for _, c := range colors {
		if c.value == "" {
			continue
		}
		if err := sl.Validator().Var(c.value, "hexcolor"); err != nil {
			sl.ReportError(c.value, "visual.colors."+c.field, c.field, "hexcolor", "")
		}
	}

	if b.Visual.LogoURL != "" {
		if err := sl.Validator().Var(b.Visual.LogoURL, "url|datauri"); err != nil {
			sl.ReportError(b.Visual.LogoURL, "visual.logoUrl", "LogoURL", "url", "")
		}
	}
}

// Validate returns a core.ErrInvalidInput wrapping one line per failing
// field.
func (s Submission) Validate() error {
	if err := validate.Struct(s); err != nil {
		return invalid(err)
	}
	return nil
}

// ValidateBrand checks a brand profile on its own.
func ValidateBrand(b domain.BrandConfig) error {
	if err := validate.Struct(b); err != nil {
		return invalid(err)
	}
	return nil
}

func invalid(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", core.ErrInvalidInput, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%w: %s", core.ErrInvalidInput, strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s exceeds %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "hexcolor":
		return field + " must be a hex color"
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}

// DecodeSubmission reads a JSON submission.
func DecodeSubmission(r io.Reader) (Submission, error) {
	var s Submission
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return Submission{}, fmt.Errorf("%w: decoding submission: %v", core.ErrInvalidInput, err)
	}
	return s, nil
}

func LoadSubmission(path string) (Submission, error) {
	f, err := os.Open(path)
	if err != nil {
		return Submission{}, fmt.Errorf("opening submission: %w", err)
	}
	defer f.Close()
	return DecodeSubmission(f)
}

// LoadBrand reads a brand profile from YAML, or JSON when the file has a
// .json extension.
func LoadBrand(path string) (domain.BrandConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.BrandConfig{}, fmt.Errorf("reading brand profile: %w", err)
	}

	var b domain.BrandConfig
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &b)
	} else {
		err = yaml.Unmarshal(data, &b)
	}
	if err != nil {
		return domain.BrandConfig{}, fmt.Errorf("%w: parsing brand profile %s: %v", core.ErrInvalidInput, filepath.Base(path), err)
	}
	return b, nil
}

// ToPipelineInput validates the submission and the effective brand and
// builds the immutable run input.
func ToPipelineInput(s Submission, stored domain.BrandConfig) (domain.PipelineInput, error) {
	if err := s.Validate(); err != nil {
		return domain.PipelineInput{}, err
	}
	brand := stored
	if s.Brand != nil {
		brand = *s.Brand
	}
	brand = normalizeBrand(brand)
	if err := ValidateBrand(brand); err != nil {
		return domain.PipelineInput{}, err
	}

	asset := domain.AssetType(strings.ToLower(strings.TrimSpace(s.AssetType)))
	if asset == "" {
		asset = domain.AssetCarousel
	}

	in := domain.PipelineInput{
		AssetType:      asset,
		ProductContext: strings.TrimSpace(s.ProductContext),
		CampaignGoal:   strings.TrimSpace(s.CampaignGoal),
		ContentBrief:   strings.TrimSpace(s.ContentBrief),
		Language:       strings.TrimSpace(s.Language),
		Brand:          brand,
	}
	for _, u := range s.Uploads {
		in.ReferenceImages = append(in.ReferenceImages, strings.TrimSpace(u.URL))
	}
	return in, nil
}

func normalizeBrand(b domain.BrandConfig) domain.BrandConfig {
	b.Name = strings.TrimSpace(b.Name)
	b.Industry = strings.TrimSpace(b.Industry)
	b.Audience = strings.TrimSpace(b.Audience)
	b.Voice.Attributes = cleanList(b.Voice.Attributes)
	b.Voice.PhrasesToUse = cleanList(b.Voice.PhrasesToUse)
	b.Voice.PhrasesToAvoid = cleanList(b.Voice.PhrasesToAvoid)
	b.CopyExamples = cleanList(b.CopyExamples)
	b.Visual.LogoURL = strings.TrimSpace(b.Visual.LogoURL)
	b.Visual.Colors = domain.ColorTokens{
		Primary:    strings.TrimSpace(b.Visual.Colors.Primary),
		Secondary:  strings.TrimSpace(b.Visual.Colors.Secondary),
		Accent:     strings.TrimSpace(b.Visual.Colors.Accent),
		Background: strings.TrimSpace(b.Visual.Colors.Background),
		Text:       strings.TrimSpace(b.Visual.Colors.Text),
	}
	return b
}

// cleanList trims entries and drops blanks and case-insensitive duplicates.
func cleanList(in []string) []string {
	if len(in) == 0 {
		return in
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
