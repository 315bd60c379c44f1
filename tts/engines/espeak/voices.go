package espeak

import (
	"bufio"
	"strings"

	"github.com/dgnsrekt/readaloud/tts"
)

// parseVoices reads the table printed by `espeak-ng --voices`:
//
//	Pty Language       Age/Gender VoiceName          File                 Other Languages
//	 5  en-us           --/M      English_(America)  gmw/en-US            (en 10)
func parseVoices(out string) []tts.Voice {
	var voices []tts.Voice
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || fields[0] == "Pty" {
			continue
		}
		locale := fields[1]
		if seen[locale] {
			continue
		}
		seen[locale] = true
		voices = append(voices, tts.Voice{
			Name:   strings.ReplaceAll(fields[3], "_", " "),
			Locale: locale,
		})
	}
	return voices
}
