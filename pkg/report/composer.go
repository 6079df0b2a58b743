// Package report composes the fortune report from the overall verdict and the nine palace results.
package report

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"

	"github.com/menta2k/wuxing-analyzer/pkg/luoshu"
	"github.com/menta2k/wuxing-analyzer/pkg/types"
)

//go:embed data/report.tmpl
var defaultTemplate string

// Template fields supplied to every report
const (
	FieldWuxingName        = "wuxing_name"
	FieldWuxingScore       = "wuxing_score"
	FieldWuxingReason      = "wuxing_reason"
	FieldGridAnalysis      = "grid_analysis"
	FieldOverallSuggestion = "overall_suggestion"
	FieldFortuneTip        = "fortune_tip"
)

// Fixed report texts
const (
	AllHarmoniousSuggestion = "All nine palaces are in harmony, keep the current layout"
	conflictHeader          = "Key adjustments:"
	maxConflictTips         = 2

	FireFortuneTip     = "Fire governs propriety: a good time to socialize and widen your network"
	WaterFortuneTip    = "Water governs wisdom: favour study, planning and strategic decisions"
	ConflictFortuneTip = "Several palaces clash: consider wearing a five-element balancing accessory"
	StableFortuneTip   = "Overall fortune is stable: balance work and rest"
	conflictTipMin     = 3
)

// ErrGridCount is returned when a report is composed from anything other than nine palaces
var ErrGridCount = luoshu.ErrGridCount

var missingKeyRe = regexp.MustCompile(`map has no entry for key "([^"]+)"`)

// TemplateFieldError reports a template placeholder the composer does not supply
type TemplateFieldError struct {
	Field string
	Err   error
}

func (e *TemplateFieldError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("report template: unknown field %q: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("report template: %v", e.Err)
}

func (e *TemplateFieldError) Unwrap() error { return e.Err }

// Composer renders reports through a text template
type Composer struct {
	tmpl *template.Template
	now  func() time.Time
}

// NewComposer parses src and checks that it only references known fields.
// An empty src selects the embedded template.
func NewComposer(src string) (*Composer, error) {
	if src == "" {
		src = defaultTemplate
	}
	tmpl, err := template.New("report").Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, &TemplateFieldError{Err: err}
	}
	c := &Composer{tmpl: tmpl, now: time.Now}

	probe := make(map[string]any, 6)
	for _, f := range Fields() {
		probe[f] = ""
	}
	if _, err := c.render(probe); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadComposer reads a template file
func LoadComposer(path string) (*Composer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &types.ConfigLoadError{Source: path, Err: err}
	}
	return NewComposer(string(data))
}

// Fields lists the placeholders every template may use
func Fields() []string {
	return []string{
		FieldWuxingName,
		FieldWuxingScore,
		FieldWuxingReason,
		FieldGridAnalysis,
		FieldOverallSuggestion,
		FieldFortuneTip,
	}
}

// Compose builds the report for an overall verdict and the nine palaces in index order
func (c *Composer) Compose(wx types.WuxingResult, grids []types.GridResult) (*types.Report, error) {
	if len(grids) != luoshu.GridCells {
		return nil, fmt.Errorf("%w: got %d", ErrGridCount, len(grids))
	}

	r := &types.Report{
		ID:                uuid.NewString(),
		CreatedAt:         c.now(),
		Wuxing:            wx,
		Grids:             grids,
		GridAnalysis:      FormatGrids(grids),
		OverallSuggestion: OverallSuggestion(grids),
		FortuneTip:        FortuneTip(wx, grids),
	}

	text, err := c.render(map[string]any{
		FieldWuxingName:        wx.Name.String(),
		FieldWuxingScore:       fmt.Sprintf("%.0f", math.Min(wx.Score, 1)*100),
		FieldWuxingReason:      wx.Reason,
		FieldGridAnalysis:      r.GridAnalysis,
		FieldOverallSuggestion: r.OverallSuggestion,
		FieldFortuneTip:        r.FortuneTip,
	})
	if err != nil {
		return nil, err
	}
	r.Text = text
	return r, nil
}

func (c *Composer) render(fields map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, fields); err != nil {
		fe := &TemplateFieldError{Err: err}
		if m := missingKeyRe.FindStringSubmatch(err.Error()); m != nil {
			fe.Field = m[1]
		}
		return "", fe
	}
	return buf.String(), nil
}

// FormatGrids renders one block per palace
func FormatGrids(grids []types.GridResult) string {
	blocks := make([]string, 0, len(grids))
	for _, g := range grids {
		mark := "✗"
		if g.IsHarmony {
			mark = "✓"
		}
		blocks = append(blocks, fmt.Sprintf("%s %s(%s):\n- detected: %s -> needs %s %s\n- advice: %s\n",
			g.Symbol, g.BaguaName, g.Position, g.DetectedElement, g.ExpectedElement, mark, g.Suggestion))
	}
	return strings.Join(blocks, "\n")
}

// OverallSuggestion lists the first conflicting palaces in index order
func OverallSuggestion(grids []types.GridResult) string {
	var tips []string
	for _, g := range grids {
		if g.IsHarmony {
			continue
		}
		tips = append(tips, fmt.Sprintf("%s: %s", g.Position, firstClause(g.Suggestion)))
		if len(tips) == maxConflictTips {
			break
		}
	}
	if len(tips) == 0 {
		return AllHarmoniousSuggestion
	}
	return conflictHeader + "\n• " + strings.Join(tips, "\n• ")
}

// FortuneTip picks the fortune line for the overall element, falling back on the conflict count
func FortuneTip(wx types.WuxingResult, grids []types.GridResult) string {
	switch wx.Name {
	case types.Fire:
		return FireFortuneTip
	case types.Water:
		return WaterFortuneTip
	}

	conflicts := 0
	for _, g := range grids {
		if !g.IsHarmony {
			conflicts++
		}
	}
	if conflicts > conflictTipMin {
		return ConflictFortuneTip
	}
	return StableFortuneTip
}

func firstClause(s string) string {
	if i := strings.Index(s, ","); i >= 0 {
		return s[:i]
	}
	return s
}

// IsTemplateFieldError reports whether err came from an unresolved template field
func IsTemplateFieldError(err error) bool {
	var fe *TemplateFieldError
	return errors.As(err, &fe)
}
