package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/dgnsrekt/readaloud/tts"
	"github.com/dgnsrekt/readaloud/tts/voice"
)

var voicesCmd = &cobra.Command{
	Use:     "voices",
	Short:   "List the voices of the speech engine",
	Long:    paragraph(fmt.Sprintf("\nList the voices of the configured speech engine. Voices of the %s language are marked with a star and listed first.", keyword("preferred"))),
	Example: paragraph("readaloud voices\nreadaloud voices --engine mock"),
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		engine, closeEngine, err := buildEngine(cfg)
		if err != nil {
			return err
		}
		defer closeEngine()

		voices := waitForVoices(engine, voiceWait)
		if len(voices) == 0 {
			return tts.ErrNoVoices
		}
		printVoices(os.Stdout, voices, cfg.Family())
		return nil
	},
}

// printVoices writes the voices in the order playback cycles through them.
func printVoices(w io.Writer, voices []tts.Voice, family voice.Family) {
	ranked, matched := voice.Rank(voices, family)
	for i, v := range ranked {
		mark := " "
		if v.Preferred {
			mark = "*"
		}
		_, _ = fmt.Fprintf(w, "%s %3d  %-32s %s\n", mark, i, v.Name, v.Locale)
	}
	_, _ = fmt.Fprintf(w, "\n%s voices", humanize.Comma(int64(len(ranked))))
	if !matched {
		_, _ = fmt.Fprintf(w, ", none for %s", family.Name)
	}
	_, _ = fmt.Fprintln(w)
}
