// Package flavor renders flashpoint echoes and cataclysm phases as
// locale-matched prose. It is presentation only: nothing here feeds back
// into the engine, and an unknown locale falls back to en-US rather than
// erroring.
package flavor

import (
	"fmt"

	"golang.org/x/text/language"

	"github.com/louisbranch/emberfall/internal/narrative/cataclysm"
	"github.com/louisbranch/emberfall/internal/narrative/story"
)

// BaseLocale is the canonical source locale.
const BaseLocale = "en-US"

type lines struct {
	echoByBand map[story.SeverityBand]string
	phase      map[cataclysm.Phase]string
}

var catalogs = map[string]lines{
	"en-US": {
		echoByBand: map[story.SeverityBand]string{
			story.BandLow:      "Word of the %s dispute fades into tavern gossip.",
			story.BandMedium:   "The %s quarrel still sours trade on the roads.",
			story.BandHigh:     "Travellers speak carefully; the %s feud has drawn blood.",
			story.BandCritical: "Nobody names the %s openly anymore. The wound is too fresh.",
		},
		phase: map[cataclysm.Phase]string{
			cataclysm.PhaseDormant:      "The land is quiet.",
			cataclysm.PhaseWhispers:     "Strange rumours travel faster than caravans.",
			cataclysm.PhaseGripTightens: "Roads close one by one. Prices climb.",
			cataclysm.PhaseMapShrinks:   "Whole regions have gone dark on the map.",
			cataclysm.PhaseRuin:         "What remains huddles behind the last walls.",
		},
	},
	"pt-BR": {
		echoByBand: map[story.SeverityBand]string{
			story.BandLow:      "A disputa de %s já virou fofoca de taverna.",
			story.BandMedium:   "A rixa de %s ainda azeda o comércio nas estradas.",
			story.BandHigh:     "Viajantes medem as palavras; a rixa de %s já derramou sangue.",
			story.BandCritical: "Ninguém mais diz %s em voz alta. A ferida é recente demais.",
		},
		phase: map[cataclysm.Phase]string{
			cataclysm.PhaseDormant:      "A terra está quieta.",
			cataclysm.PhaseWhispers:     "Boatos estranhos viajam mais rápido que as caravanas.",
			cataclysm.PhaseGripTightens: "As estradas fecham uma a uma. Os preços sobem.",
			cataclysm.PhaseMapShrinks:   "Regiões inteiras sumiram do mapa.",
			cataclysm.PhaseRuin:         "O que resta se abriga atrás das últimas muralhas.",
		},
	},
}

// supported lists the catalog locales in matcher priority order. The base
// locale must come first; the matcher falls back to it.
var supported = []string{BaseLocale, "pt-BR"}

var matcher language.Matcher

func init() {
	tags := make([]language.Tag, 0, len(supported))
	for _, locale := range supported {
		if _, ok := catalogs[locale]; !ok {
			panic("flavor: no catalog for locale " + locale)
		}
		tags = append(tags, language.MustParse(locale))
	}
	matcher = language.NewMatcher(tags)
}

// resolve maps an arbitrary locale string onto a supported catalog.
func resolve(locale string) lines {
	tag, err := language.Parse(locale)
	if err != nil {
		return catalogs[BaseLocale]
	}
	_, index, _ := matcher.Match(tag)
	return catalogs[supported[index]]
}

// EchoLine renders one flashpoint echo for a locale.
func EchoLine(locale string, echo story.FlashpointEcho) string {
	return fmt.Sprintf(resolve(locale).echoByBand[echo.SeverityBand], echo.FactionID)
}

// PhaseLine renders the current cataclysm phase for a locale.
func PhaseLine(locale string, phase cataclysm.Phase) string {
	c := resolve(locale)
	if line, ok := c.phase[phase]; ok {
		return line
	}
	return catalogs[BaseLocale].phase[cataclysm.PhaseDormant]
}
