package layout

import (
	"strings"
	"testing"

	"charm.land/lipgloss/v2"
	"github.com/stretchr/testify/assert"
)

func TestIsTooSmall(t *testing.T) {
	assert.False(t, IsTooSmall(MinWidth, MinHeight))
	assert.True(t, IsTooSmall(MinWidth-1, MinHeight))
	assert.True(t, IsTooSmall(MinWidth, MinHeight-1))
}

func TestRenderHeader(t *testing.T) {
	h := RenderHeader([]string{"Training Modules", "Firearms Examination"}, "12:34   251/300", 100)
	assert.Contains(t, h, brand)
	assert.Contains(t, h, "Training Modules")
	assert.Contains(t, h, "Firearms Examination")
	assert.Contains(t, h, "12:34   251/300")
}

func TestBreadcrumbSkipsEmptyTitles(t *testing.T) {
	b := Breadcrumb([]string{"", "History"})
	assert.NotContains(t, b, "›")
	assert.Contains(t, b, "History")
}

func TestRenderFrameFillsHeight(t *testing.T) {
	header := RenderHeader([]string{"History"}, "", 90)
	footer := RenderFooter([]KeyHint{{Key: "Esc", Description: "Back"}}, 90)
	frame := RenderFrame(header, "body", footer, 90, 30)

	assert.Equal(t, 30, lipgloss.Height(frame))
	assert.Contains(t, frame, "body")
	assert.Contains(t, frame, "Back")
	assert.Equal(t, 30-lipgloss.Height(header)-lipgloss.Height(footer), ContentHeight(header, footer, 30))
}

func TestColumns(t *testing.T) {
	out := Columns(80, 0.5, "checklist", "ledger")
	first := strings.Split(out, "\n")[0]
	assert.Equal(t, 80, lipgloss.Width(first))
	assert.Contains(t, first, "checklist")
	assert.Contains(t, first, "ledger")
}

func TestRenderMinSizeMessage(t *testing.T) {
	msg := RenderMinSizeMessage(60, 20)
	assert.Contains(t, msg, "Terminal too small.")
	assert.Contains(t, msg, "Current: 60 x 20")
}
