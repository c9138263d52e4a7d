package generation

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/phrazzld/montage-api/internal/domain"
)

// promptData represents the data passed to the prompt templates
type promptData struct {
	PhotoCount      int
	DurationSeconds int
}

var promptTemplates = map[domain.Style]*template.Template{
	domain.StyleTrendy: template.Must(template.New("trendy").Parse(
		"Create a {{.DurationSeconds}}-second trendy social media video from {{.PhotoCount}} event photos. " +
			"Use quick cuts, bold transitions and a modern, vibrant look. " +
			"Keep the camera moving with subtle zooms and keep the people in frame.")),
	domain.StyleElegant: template.Must(template.New("elegant").Parse(
		"Create a {{.DurationSeconds}}-second elegant, cinematic video from {{.PhotoCount}} event photos. " +
			"Use slow, graceful camera movement, soft lighting and smooth crossfades. " +
			"The mood is refined and timeless.")),
	domain.StyleEnergetic: template.Must(template.New("energetic").Parse(
		"Create a {{.DurationSeconds}}-second high-energy, energetic video from {{.PhotoCount}} event photos. " +
			"Use dynamic motion, fast pacing and punchy zooms that match an upbeat rhythm. " +
			"Capture the excitement of the crowd.")),
}

// BuildPrompt renders the fixed template for style.
func BuildPrompt(style domain.Style, durationSeconds, photoCount int) (string, error) {
	tmpl, ok := promptTemplates[style]
	if !ok {
		return "", fmt.Errorf("%w: no template for style %q", ErrInvalidPrompt, style)
	}
	if photoCount <= 0 {
		return "", fmt.Errorf("%w: photo count must be positive", ErrInvalidPrompt)
	}

	var b strings.Builder
	if err := tmpl.Execute(&b, promptData{PhotoCount: photoCount, DurationSeconds: durationSeconds}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}
	return b.String(), nil
}
