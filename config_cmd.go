package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const defaultConfig = `# word-wrap at width, 0 uses the terminal width
width: 0
# mouse wheel support (TUI only)
mouse: false
# write debug output to the log file
debug: false

# Playback configuration
tts:
  # speech engine: espeak or mock
  engine: "espeak"
  # device class: auto, mobile or desktop
  device: "auto"

  # speech settings (rate 0.1 to 10, pitch 0 to 2)
  rate: 1.0
  pitch: 1.0
  # voice name or locale, fuzzy matched (empty uses the preferred family)
  voice: ""
  voice_index: 0

  # preferred voice family
  locale_prefix: "en"
  locale_name: "English"

  # chunking and pacing
  max_chunk_mobile: 500
  max_chunk_desktop: 3000
  chunk_gap: "75ms"
  error_delay: "300ms"
  # kick long desktop utterances, 0 disables
  keep_alive: "14s"
  # screen wake lock on mobile: auto, termux, systemd, caffeinate or none
  wake_lock: "auto"

  # espeak-ng engine configuration
  espeak:
    binary: "espeak-ng"
    wpm: 175
    pitch: 50
    sample_rate: 22050
    timeout: "30s"

  # synthesized audio cache
  cache:
    enabled: true
    # dir: "~/.cache/readaloud/audio"
    memory_items: 32
    max_size_mb: 100

  # mock engine configuration (for demos and testing)
  mock:
    words_per_minute: 180
    start_delay: "0s"
    fail_on: ""
    native_pause: true
    # voices: ["Mock Voice:en-US"]
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the readaloud config file",
	Long:    paragraph(fmt.Sprintf("\n%s the readaloud config file. We’ll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.", keyword("Edit"))),
	Example: paragraph("readaloud config\nreadaloud config --config path/to/config.yml"),
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("readaloud", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the merged configuration",
	Long:  paragraph(fmt.Sprintf("\n%s the configuration readaloud runs with: defaults, the config file and bound flags.", keyword("Print"))),
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := yaml.Marshal(viper.AllSettings())
		if err != nil {
			return fmt.Errorf("failed to marshal config: %w", err)
		}
		if used := viper.ConfigFileUsed(); used != "" {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", used)
		}
		_, _ = cmd.OutOrStdout().Write(data)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}
	configFile = expandPath(configFile)

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
