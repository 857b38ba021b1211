// Package settings provides the provider configuration view for the TUI.
package settings

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// ErrNoSettingsService indicates that no settings service was provided.
var ErrNoSettingsService = errors.New("settings service not available")

// Section tracks which settings section is active.
type Section int

const (
	SectionOverview Section = iota
	SectionEmbedding
	SectionLLM
	SectionRetrieval
)

// overviewItems is the number of editable rows on the overview.
const overviewItems = 3

// Retrieval default bounds and step sizes for the editor.
const (
	maxTopK       = 100
	thresholdStep = 0.05
)

const (
	keyUp    = "up"
	keyDown  = "down"
	keyEnter = "enter"
	keyTab   = "tab"
)

// View is the settings configuration view.
type View struct {
	styles          *styles.Styles
	settingsService driving.SettingsService

	settings *domain.AppSettings
	err      error
	notice   string

	section  Section
	selected int

	// draft holds retrieval defaults while they are being edited.
	draft domain.RetrievalSettings

	// keyFocused is true while typing an API key.
	keyFocused bool
	apiKey     textinput.Model

	width  int
	height int
	ready  bool
}

// NewView creates a new settings view.
func NewView(s *styles.Styles, settingsService driving.SettingsService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}

	apiKey := textinput.New()
	apiKey.Placeholder = "Enter API key"
	apiKey.EchoMode = textinput.EchoPassword
	apiKey.CharLimit = 256

	return &View{
		styles:          s,
		settingsService: settingsService,
		section:         SectionOverview,
		apiKey:          apiKey,
	}
}

// Init loads the current settings.
func (v *View) Init() tea.Cmd {
	return v.loadSettings()
}

func (v *View) loadSettings() tea.Cmd {
	svc := v.settingsService
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsLoaded{Err: ErrNoSettingsService}
		}
		settings, err := svc.Get()
		return messages.SettingsLoaded{Settings: settings, Err: err}
	}
}

// Update handles messages for the settings view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)

	case messages.SettingsLoaded:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.settings = msg.Settings
		v.err = nil

	case messages.SettingsSaved:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.err = nil
		v.notice = "Saved. Restart docrag to use the new provider."
		v.backToOverview()
		return v, v.loadSettings()

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	}
	return v, nil
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		if v.section == SectionOverview {
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		}
		v.backToOverview()
		return v, nil
	}

	switch v.section {
	case SectionOverview:
		return v.handleOverviewKeys(msg)
	case SectionEmbedding:
		return v.handleProviderKeys(msg, domain.AllEmbeddingProviders())
	case SectionLLM:
		return v.handleProviderKeys(msg, domain.AllLLMProviders())
	case SectionRetrieval:
		return v.handleRetrievalKeys(msg)
	}
	return v, nil
}

func (v *View) handleOverviewKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case keyUp, "k":
		v.selected = max(v.selected-1, 0)
	case keyDown, "j":
		v.selected = min(v.selected+1, overviewItems-1)
	case keyEnter:
		v.notice = ""
		switch v.selected {
		case 0:
			v.section = SectionEmbedding
			v.selected = v.providerIndex(domain.AllEmbeddingProviders(), v.currentEmbedding())
		case 1:
			v.section = SectionLLM
			v.selected = v.providerIndex(domain.AllLLMProviders(), v.currentLLM())
		default:
			if v.settings == nil {
				return v, nil
			}
			v.section = SectionRetrieval
			v.selected = 0
			v.draft = v.settings.Retrieval
		}
	}
	return v, nil
}

// handleRetrievalKeys edits the draft: row 0 is top_k, row 1 the threshold.
func (v *View) handleRetrievalKeys(msg tea.KeyMsg) (*View, tea.Cmd) {
	step := 0
	switch msg.String() {
	case keyUp, "k":
		v.selected = 0
	case keyDown, "j":
		v.selected = 1
	case "left", "h", "-":
		step = -1
	case "right", "l", "+", "=":
		step = 1
	case keyEnter:
		return v, v.saveRetrieval(v.draft)
	}

	if step == 0 {
		return v, nil
	}
	if v.selected == 0 {
		v.draft.TopK = min(max(v.draft.TopK+step, 1), maxTopK)
	} else {
		t := v.draft.Threshold + float64(step)*thresholdStep
		// round to the step so repeated presses do not drift
		t = math.Round(t/thresholdStep) * thresholdStep
		v.draft.Threshold = min(max(t, 0), 1)
	}
	return v, nil
}

func (v *View) saveRetrieval(r domain.RetrievalSettings) tea.Cmd {
	svc := v.settingsService
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsSaved{Err: ErrNoSettingsService}
		}
		return messages.SettingsSaved{Err: svc.SetRetrievalDefaults(r.TopK, r.Threshold)}
	}
}

func (v *View) handleProviderKeys(msg tea.KeyMsg, providers []domain.AIProvider) (*View, tea.Cmd) {
	provider := providers[v.selected]

	if v.keyFocused {
		switch msg.String() {
		case keyTab, "shift+tab":
			v.keyFocused = false
			v.apiKey.Blur()
			return v, nil
		case keyEnter:
			return v, v.save(provider, v.apiKey.Value())
		}
		var cmd tea.Cmd
		v.apiKey, cmd = v.apiKey.Update(msg)
		return v, cmd
	}

	switch msg.String() {
	case keyUp, "k":
		if v.selected > 0 {
			v.selected--
		}
	case keyDown, "j":
		if v.selected < len(providers)-1 {
			v.selected++
		}
	case keyTab, keyEnter:
		if provider.RequiresAPIKey() {
			v.keyFocused = true
			return v, v.apiKey.Focus()
		}
		if msg.String() == keyEnter {
			return v, v.save(provider, "")
		}
	}
	return v, nil
}

// save stores provider with its default model.
func (v *View) save(provider domain.AIProvider, apiKey string) tea.Cmd {
	svc := v.settingsService
	section := v.section
	return func() tea.Msg {
		if svc == nil {
			return messages.SettingsSaved{Err: ErrNoSettingsService}
		}
		if section == SectionEmbedding {
			model := domain.DefaultEmbeddingModels()[provider]
			return messages.SettingsSaved{Err: svc.SetEmbeddingProvider(provider, model, apiKey)}
		}
		model := domain.DefaultLLMModels()[provider]
		return messages.SettingsSaved{Err: svc.SetLLMProvider(provider, model, apiKey)}
	}
}

func (v *View) backToOverview() {
	v.section = SectionOverview
	v.selected = 0
	v.keyFocused = false
	v.apiKey.SetValue("")
	v.apiKey.Blur()
}

func (v *View) currentEmbedding() domain.AIProvider {
	if v.settings == nil {
		return ""
	}
	return v.settings.Embedding.Provider
}

func (v *View) currentLLM() domain.AIProvider {
	if v.settings == nil {
		return ""
	}
	return v.settings.LLM.Provider
}

func (v *View) providerIndex(providers []domain.AIProvider, current domain.AIProvider) int {
	for i, p := range providers {
		if p == current {
			return i
		}
	}
	return 0
}

// View renders the settings view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Settings"))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	}

	if v.settings == nil {
		b.WriteString(v.styles.Muted.Render("Loading settings..."))
		return b.String()
	}

	switch v.section {
	case SectionOverview:
		b.WriteString(v.renderOverview())
	case SectionEmbedding:
		b.WriteString(v.renderProviders("Select Embedding Provider",
			domain.AllEmbeddingProviders(), v.currentEmbedding(), domain.DefaultEmbeddingModels()))
	case SectionLLM:
		b.WriteString(v.renderProviders("Select LLM Provider",
			domain.AllLLMProviders(), v.currentLLM(), domain.DefaultLLMModels()))
	case SectionRetrieval:
		b.WriteString(v.renderRetrieval())
	}

	b.WriteString("\n")
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *View) renderOverview() string {
	var b strings.Builder
	st := v.settings

	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("Index:     %s", st.Corpus.IndexPath)))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render(fmt.Sprintf("Metadata:  %s", st.Corpus.MetadataPath)))
	b.WriteString("\n\n")

	items := []struct {
		label      string
		provider   domain.AIProvider
		model      string
		configured bool
	}{
		{"Embedding Provider", st.Embedding.Provider, st.Embedding.Model, st.Embedding.IsConfigured()},
		{"LLM Provider", st.LLM.Provider, st.LLM.Model, st.LLM.IsConfigured()},
	}

	for i, item := range items {
		indicator := "  "
		if i == v.selected {
			indicator = "> "
		}

		value := "Not Set"
		if item.provider != "" {
			value = fmt.Sprintf("%s (%s)", item.provider.Description(), item.model)
		}
		line := fmt.Sprintf("%s%s: %s", indicator, item.label, value)

		if i == v.selected {
			b.WriteString(v.styles.Selected.Render(line))
		} else {
			b.WriteString(v.styles.Normal.Render(line))
		}
		if item.configured {
			b.WriteString(" " + v.styles.Success.Render("[configured]"))
		} else {
			b.WriteString(" " + v.styles.Warning.Render("[incomplete]"))
		}
		b.WriteString("\n")
	}

	retrieval := fmt.Sprintf("Retrieval: top_k=%d threshold=%.2f", st.Retrieval.TopK, st.Retrieval.Threshold)
	if v.selected == len(items) {
		b.WriteString(v.styles.Selected.Render("> " + retrieval))
	} else {
		b.WriteString(v.styles.Normal.Render("  " + retrieval))
	}
	b.WriteString("\n\n")
	switch {
	case v.notice != "":
		b.WriteString(v.styles.Success.Render(v.notice))
	case v.settingsService != nil:
		if err := v.settingsService.Validate(); err != nil {
			b.WriteString(v.styles.Warning.Render(fmt.Sprintf("Warning: %s", err.Error())))
		} else {
			b.WriteString(v.styles.Success.Render("Configuration is valid"))
		}
	}
	b.WriteString("\n")

	return b.String()
}

func (v *View) renderProviders(
	title string,
	providers []domain.AIProvider,
	current domain.AIProvider,
	models map[domain.AIProvider]string,
) string {
	var b strings.Builder

	b.WriteString(v.styles.Subtitle.Render(title))
	b.WriteString("\n\n")

	for i, provider := range providers {
		selected := i == v.selected && !v.keyFocused
		indicator := "  "
		if selected {
			indicator = "> "
		}

		marker := ""
		if provider == current {
			marker = v.styles.Success.Render(" (current)")
		}

		line := fmt.Sprintf("%s%s", indicator, provider.Description())
		if selected {
			b.WriteString(v.styles.Selected.Render(line))
		} else {
			b.WriteString(v.styles.Normal.Render(line))
		}
		b.WriteString(marker)
		b.WriteString("\n")

		if model, ok := models[provider]; ok {
			b.WriteString(v.styles.Muted.Render(fmt.Sprintf("    Model: %s", model)))
			b.WriteString("\n")
		}
	}

	if providers[v.selected].RequiresAPIKey() {
		b.WriteString("\n")
		b.WriteString(v.styles.Normal.Render("API Key:"))
		b.WriteString("\n")
		b.WriteString(v.apiKey.View())
		b.WriteString("\n")
	}
	if providers[v.selected].RequiresEndpoint() {
		b.WriteString(v.styles.Muted.Render("Set the endpoint with: docrag settings llm"))
		b.WriteString("\n")
	}

	return b.String()
}

func (v *View) renderRetrieval() string {
	var b strings.Builder
	b.WriteString(v.styles.Subtitle.Render("Retrieval Defaults"))
	b.WriteString("\n\n")

	rows := []string{
		fmt.Sprintf("top_k:     %d", v.draft.TopK),
		fmt.Sprintf("threshold: %.2f", v.draft.Threshold),
	}
	for i, row := range rows {
		if i == v.selected {
			b.WriteString(v.styles.Selected.Render("> " + row))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + row))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (v *View) renderHelp() string {
	switch {
	case v.section == SectionRetrieval:
		return v.styles.Help.Render("[j/k] field  [h/l] adjust  [enter] save  [esc] back")
	case v.section == SectionOverview:
		return v.styles.Help.Render("[j/k] navigate  [enter] edit  [esc] back")
	case v.keyFocused:
		return v.styles.Help.Render("[tab] back to list  [enter] save  [esc] back")
	default:
		return v.styles.Help.Render("[j/k] navigate  [tab] API key  [enter] select  [esc] back")
	}
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Section returns the active section.
func (v *View) Section() Section {
	return v.section
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Reset resets the view to its initial state.
func (v *View) Reset() {
	v.backToOverview()
	v.err = nil
	v.notice = ""
}
