// Package main provides the entry point for the readaloud CLI application.
package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/text"
	"github.com/dgnsrekt/readaloud/ui"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	headless   bool
	mouse      bool
	width      uint

	rootCmd = &cobra.Command{
		Use:   "readaloud [FILE|URL|-]",
		Short: "Read HTML and Markdown documents aloud in the terminal",
		Long: paragraph(
			fmt.Sprintf("\nRead HTML and Markdown documents %s, resuming where you paused.", keyword("aloud")),
		),
		Example: paragraph("readaloud chapter.html\nreadaloud README.md --rate 1.3\ncat page.html | readaloud --headless"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// source provides a readable document.
type source struct {
	reader io.ReadCloser
	URL    string
}

// sourceFromArg parses an argument and creates a readable source for it.
func sourceFromArg(arg string) (*source, error) {
	// from stdin
	if arg == "-" {
		return &source{reader: os.Stdin}, nil
	}

	// HTTP(S) URLs:
	if u, err := url.ParseRequestURI(arg); err == nil && strings.Contains(arg, "://") {
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("%s is not a supported protocol", u.Scheme)
		}
		// consumer of the source is responsible for closing the ReadCloser.
		resp, err := http.Get(u.String()) //nolint: noctx,bodyclose
		if err != nil {
			return nil, fmt.Errorf("unable to get url: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("HTTP status %d", resp.StatusCode)
		}
		return &source{resp.Body, u.String()}, nil
	}

	r, err := os.Open(expandPath(arg))
	if err != nil {
		return nil, fmt.Errorf("unable to open file: %w", err)
	}
	u, err := filepath.Abs(arg)
	if err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("unable to get absolute path: %w", err)
	}
	return &source{r, u}, nil
}

// readDocument returns the document as HTML. Markdown sources, recognized
// by extension, are rendered first.
func readDocument(src *source) (string, error) {
	b, err := io.ReadAll(src.reader)
	if err != nil {
		return "", fmt.Errorf("unable to read from reader: %w", err)
	}
	if text.IsMarkdownFile(src.URL) {
		return text.MarkdownToHTML(b)
	}
	return string(b), nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

func validateOptions(cmd *cobra.Command) error {
	if cmd.Flags().Changed("config") {
		viper.SetConfigFile(expandPath(configFile))
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
	}
	if viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	mouse = viper.GetBool("mouse")
	width = viper.GetUint("width")

	// Headless is forced when there is no terminal to draw on.
	if !term.IsTerminal(int(os.Stdout.Fd())) && !cmd.Flags().Changed("headless") {
		log.Debug("stdout is not a terminal, running headless")
		headless = true
	}
	return nil
}

// loadConfig reads the tts section and applies command line overrides.
func loadConfig(cmd *cobra.Command) (tts.Config, error) {
	cfg, err := tts.LoadConfig(viper.GetViper())
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("engine") {
		cfg.Engine, _ = flags.GetString("engine")
	}
	if flags.Changed("device") {
		cfg.Device, _ = flags.GetString("device")
	}
	if flags.Changed("rate") {
		cfg.Rate, _ = flags.GetFloat64("rate")
	}
	if flags.Changed("pitch") {
		cfg.Pitch, _ = flags.GetFloat64("pitch")
	}
	if flags.Changed("voice") {
		cfg.Voice, _ = flags.GetString("voice")
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%w: %w", tts.ErrInvalidConfig, err)
	}
	return cfg, nil
}

func execute(cmd *cobra.Command, args []string) error {
	var src *source
	switch {
	case len(args) == 1:
		s, err := sourceFromArg(args[0])
		if err != nil {
			return err
		}
		src = s
	default:
		// if stdin is a pipe then use stdin for input. note that you can also
		// explicitly use a - to read from stdin.
		yes, err := stdinIsPipe()
		if err != nil {
			return err
		}
		if !yes {
			return errors.New("missing document: pass a file, a URL or - for stdin")
		}
		src = &source{reader: os.Stdin}
	}
	defer src.reader.Close() //nolint:errcheck

	html, err := readDocument(src)
	if err != nil {
		return err
	}
	if text.Normalize(html) == "" {
		return tts.ErrNoContent
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if headless {
		return runHeadless(cfg, html, os.Stderr)
	}
	return runTUI(cfg, src.URL, html)
}

func runTUI(cfg tts.Config, path string, html string) error {
	engine, closeEngine, err := buildEngine(cfg)
	if err != nil {
		return err
	}
	defer closeEngine()
	waitForVoices(engine, voiceWait)

	cc, err := cfg.ToControllerConfig()
	if err != nil {
		return err
	}

	bridge := ui.NewBridge()
	ctrl := tts.NewController(engine, cc, bridge.Observer())
	defer func() {
		ctrl.Destroy()
		ctrl.Wait()
	}()

	p := ui.NewProgram(ui.Config{
		Title:       filepath.Base(path),
		MaxWidth:    int(width), //nolint:gosec
		EnableMouse: mouse,
	}, ctrl, bridge, html)

	watchConfig(ctrl, cfg, func(msg string) { p.Send(ui.StatusMsg(msg)) })

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().Bool("debug", false, "write debug output to the log file")
	rootCmd.PersistentFlags().String("engine", "espeak", "speech engine (espeak or mock)")
	rootCmd.Flags().String("device", "auto", "device class: auto, mobile or desktop")
	rootCmd.Flags().Float64("rate", 1.0, "speech rate (0.1 to 10)")
	rootCmd.Flags().Float64("pitch", 1.0, "speech pitch (0 to 2)")
	rootCmd.Flags().String("voice", "", "voice name or locale, fuzzy matched")
	rootCmd.Flags().BoolVar(&headless, "headless", false, "play without the TUI, printing progress to stderr")
	rootCmd.Flags().UintVarP(&width, "width", "w", 0, "word-wrap at width (set to 0 to use the terminal width)")
	rootCmd.Flags().BoolVarP(&mouse, "mouse", "m", false, "enable mouse wheel")
	_ = rootCmd.Flags().MarkHidden("mouse")

	// Config bindings
	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("width", rootCmd.Flags().Lookup("width"))
	_ = viper.BindPFlag("mouse", rootCmd.Flags().Lookup("mouse"))

	viper.SetDefault("width", 0)
	tts.SetDefaults()

	rootCmd.AddCommand(configCmd, manCmd, voicesCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "readaloud")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "readaloud")}, dirs...)
	}

	if c := os.Getenv("READALOUD_CONFIG_HOME"); c != "" {
		dirs = append([]string{expandPath(c)}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("readaloud")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("readaloud")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "readaloud.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
