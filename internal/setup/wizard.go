// Package setup implements the interactive first-run configuration.
package setup

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"codearh/internal/agent"
	"codearh/internal/client"
	"codearh/internal/config"
	"codearh/internal/security"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
)

const welcomeMessage = `
%s╔═══════════════════════════════════════════════════════════════╗
║                    %sWelcome to codearh!%s                        ║
║   Generator, Tweaker and Debugger agents for your projects    ║
╚═══════════════════════════════════════════════════════════════╝%s
`

const menuMessage = `
%sConfigure a provider:%s

  %s[1]%s Gemini   • https://aistudio.google.com/apikey
  %s[2]%s Claude   • https://console.anthropic.com/settings/keys
  %s[3]%s Groq     • https://console.groq.com/keys
  %s[4]%s Ollama   • local models, no API key needed
  %s[5]%s Done

%sEnter your choice (1-5):%s `

type provider struct {
	id, label, envVar string
}

var providers = []provider{
	{"gemini", "Gemini", "GEMINI_API_KEY"},
	{"claude", "Claude", "ANTHROPIC_API_KEY"},
	{"groq", "Groq", "GROQ_API_KEY"},
}

// ModelLister lists the models installed on an Ollama server.
type ModelLister func(ctx context.Context, baseURL string) ([]string, error)

// Wizard walks the user through provider setup.
type Wizard struct {
	in   *bufio.Reader
	out  io.Writer
	list ModelLister
}

// New creates a Wizard reading answers from in.
func New(in io.Reader, out io.Writer) *Wizard {
	return &Wizard{in: bufio.NewReader(in), out: out, list: listOllamaModels}
}

// SetModelLister replaces the Ollama model lookup.
func (w *Wizard) SetModelLister(l ModelLister) { w.list = l }

func (w *Wizard) printf(format string, args ...any) {
	fmt.Fprintf(w.out, format, args...)
}

// readLine returns the trimmed next line. io.EOF is returned only when
// nothing was read.
func (w *Wizard) readLine() (string, error) {
	line, err := w.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// Run updates cfg from the answers and reports whether anything changed.
func (w *Wizard) Run(ctx context.Context, cfg *config.Config) (bool, error) {
	w.printf(welcomeMessage, colorCyan, colorBold, colorCyan, colorReset)

	changed := false
	for _, p := range providers {
		if key := cfg.API.KeyFor(p.id); key != "" {
			w.printf("%s✓ %s key configured: %s%s\n", colorGreen, p.label, security.MaskKey(key), colorReset)
		} else if os.Getenv(p.envVar) != "" {
			w.printf("%s✓ Found %s in environment%s\n", colorGreen, p.envVar, colorReset)
		}
	}

	for {
		w.printf(menuMessage, colorYellow, colorReset,
			colorGreen, colorReset, colorGreen, colorReset, colorGreen, colorReset,
			colorGreen, colorReset, colorGreen, colorReset, colorCyan, colorReset)

		choice, err := w.readLine()
		if errors.Is(err, io.EOF) {
			return changed, nil
		}
		if err != nil {
			return changed, fmt.Errorf("error reading input: %w", err)
		}

		switch choice {
		case "1", "2", "3":
			p := providers[choice[0]-'1']
			ok, err := w.setupKey(cfg, p)
			if err != nil {
				return changed, err
			}
			changed = changed || ok
		case "4":
			ok, err := w.setupOllama(ctx, cfg)
			if err != nil {
				return changed, err
			}
			changed = changed || ok
		case "5", "q", "":
			return changed, nil
		default:
			w.printf("\n%s⚠ Invalid choice. Please enter 1, 2, 3, 4, or 5.%s\n", colorRed, colorReset)
		}
	}
}

func (w *Wizard) setupKey(cfg *config.Config, p provider) (bool, error) {
	w.printf("\n%s─── %s API Key Setup ───%s\n", colorCyan, p.label, colorReset)
	w.printf("%sEnter API key:%s ", colorGreen, colorReset)

	key, err := w.readLine()
	if err != nil {
		return false, fmt.Errorf("failed to read input: %w", err)
	}
	if err := security.ValidateKeyFormat(key); err != nil {
		w.printf("\n%s⚠ %s%s\n", colorRed, err, colorReset)
		return false, nil
	}
	cfg.API.SetProviderKey(p.id, key)
	w.printf("\n%s✓ %s API key set: %s%s\n", colorGreen, p.label, security.MaskKey(key), colorReset)
	return true, nil
}

func (w *Wizard) setupOllama(ctx context.Context, cfg *config.Config) (bool, error) {
	w.printf("\n%s─── Ollama Setup ───%s\n", colorCyan, colorReset)
	w.printf("%sServer URL [%s]:%s ", colorGreen, cfg.API.OllamaBaseURL, colorReset)

	url, err := w.readLine()
	if err != nil {
		return false, fmt.Errorf("failed to read input: %w", err)
	}
	changed := false
	if url != "" && url != cfg.API.OllamaBaseURL {
		cfg.API.OllamaBaseURL = url
		changed = true
	}

	lctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := w.list(lctx, cfg.API.OllamaBaseURL)
	if err != nil {
		w.printf("\n%s⚠ Could not reach Ollama: %s%s\n", colorRed, err, colorReset)
		w.printf("  Make sure it is running: %sollama serve%s\n", colorBold, colorReset)
		return changed, nil
	}
	if len(models) == 0 {
		w.printf("\n%sNo models installed.%s Pull one with: %sollama pull llama3.2%s\n",
			colorYellow, colorReset, colorBold, colorReset)
		return changed, nil
	}

	w.printf("\n%sInstalled models:%s\n", colorYellow, colorReset)
	for i, m := range models {
		w.printf("  %s[%d]%s %s\n", colorGreen, i+1, colorReset, m)
	}
	w.printf("%sUse a model for every agent (number, blank to skip):%s ", colorGreen, colorReset)

	answer, err := w.readLine()
	if err != nil && !errors.Is(err, io.EOF) {
		return changed, fmt.Errorf("failed to read input: %w", err)
	}
	if answer == "" {
		return changed, nil
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(models) {
		w.printf("\n%s⚠ Invalid model number%s\n", colorRed, colorReset)
		return changed, nil
	}

	model := client.OllamaPrefix + models[n-1]
	if cfg.Agents.Overrides == nil {
		cfg.Agents.Overrides = make(map[string]config.AgentOverride)
	}
	for _, id := range []string{agent.Generator, agent.Tweaker, agent.Debugger} {
		o := cfg.Agents.Overrides[id]
		o.Model = model
		cfg.Agents.Overrides[id] = o
	}
	w.printf("\n%s✓ All agents will use %s%s\n", colorGreen, model, colorReset)
	return true, nil
}

func listOllamaModels(ctx context.Context, baseURL string) ([]string, error) {
	c, err := client.NewOllamaClient(client.OllamaConfig{BaseURL: baseURL, HTTPTimeout: 5 * time.Second})
	if err != nil {
		return nil, err
	}
	return c.ListModels(ctx)
}

// NextSteps returns the hint printed after a successful setup.
func NextSteps(configPath string) string {
	return fmt.Sprintf(`
%s─── Next Steps ───%s

  Config saved to %s

  1. Run %scodearh%s (or %scodearh --import .%s) in your project directory
  2. Describe what to build, change or fix
  3. Use %s/help%s to see available commands
`, colorCyan, colorReset, configPath, colorBold, colorReset, colorBold, colorReset, colorBold, colorReset)
}
