package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/a-h/policybrief/client"
	"github.com/a-h/policybrief/extract"
	"github.com/a-h/policybrief/models"
	"github.com/a-h/policybrief/render"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

type BriefCommand struct {
	File      string `arg:"" help:"The PDF file to brief." type:"existingfile"`
	ServerURL string `help:"The URL of the briefing server." env:"POLICYBRIEF_URL" default:"http://localhost:9020"`
	Format    string `help:"The output format." enum:"text,json,yaml" default:"text"`
	Width     int    `help:"The column to wrap text output at." default:"80"`
	PDF       string `help:"Also write the briefing to this PDF file." type:"path" default:""`
	NoSpinner bool   `help:"Don't show progress while waiting for the server."`
}

func (c BriefCommand) Run(ctx context.Context) (err error) {
	data, err := os.ReadFile(c.File)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	doc := models.UploadedDocument{
		Filename:  filepath.Base(c.File),
		MediaType: extract.MediaTypePDF,
		Data:      data,
	}

	bc := client.New(c.ServerURL)
	upload := func() (models.BriefingsPostResponse, error) {
		return bc.BriefingsPost(ctx, doc)
	}
	var resp models.BriefingsPostResponse
	if c.NoSpinner {
		resp, err = upload()
	} else {
		resp, err = runWithSpinner(doc.Filename, upload)
	}
	if err != nil {
		return fmt.Errorf("failed to brief %s: %w", c.File, err)
	}

	if err = writeBriefing(os.Stdout, c.Format, c.Width, resp); err != nil {
		return err
	}
	if c.PDF != "" {
		return writePDF(c.PDF, resp)
	}
	return nil
}

func writePDF(fileName string, resp models.BriefingsPostResponse) (err error) {
	f, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("failed to create PDF: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close PDF: %w", closeErr))
		}
	}()
	return render.PDF(f, resp.Filename, resp.Summary)
}

func writeBriefing(w io.Writer, format string, width int, resp models.BriefingsPostResponse) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		return enc.Close()
	}
	_, err := io.WriteString(w, render.Terminal(resp.Summary, width))
	return err
}

type briefingMsg struct {
	resp models.BriefingsPostResponse
	err  error
}

type spinnerModel struct {
	spinner  spinner.Model
	filename string
	upload   func() (models.BriefingsPostResponse, error)
	result   briefingMsg
	done     bool
}

func runWithSpinner(filename string, upload func() (models.BriefingsPostResponse, error)) (models.BriefingsPostResponse, error) {
	s := spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(render.Purple)),
	)
	p := tea.NewProgram(spinnerModel{
		spinner:  s,
		filename: filename,
		upload:   upload,
	}, tea.WithOutput(os.Stderr))
	m, err := p.Run()
	if err != nil {
		return models.BriefingsPostResponse{}, err
	}
	sm := m.(spinnerModel)
	if !sm.done {
		return models.BriefingsPostResponse{}, errors.New("cancelled")
	}
	return sm.result.resp, sm.result.err
}

func (m spinnerModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		func() tea.Msg {
			resp, err := m.upload()
			return briefingMsg{resp: resp, err: err}
		},
	)
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case briefingMsg:
		m.result = msg
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "ctrl+c":
			return m, tea.Quit
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s Briefing %s...\n", m.spinner.View(), m.filename)
}
