package compensation

import "strings"

// ConnectionClass is the supply connection of a consumer unit.
type ConnectionClass string

const (
	ClassSinglePhase ConnectionClass = "mono"
	ClassTwoPhase    ConnectionClass = "bi"
	ClassThreePhase  ConnectionClass = "tri"
)

var connectionAliases = map[string]ConnectionClass{
	"mono":        ClassSinglePhase,
	"monofasica":  ClassSinglePhase,
	"monofasico":  ClassSinglePhase,
	"singlephase": ClassSinglePhase,
	"bi":          ClassTwoPhase,
	"bifasica":    ClassTwoPhase,
	"bifasico":    ClassTwoPhase,
	"twophase":    ClassTwoPhase,
	"tri":         ClassThreePhase,
	"trifasica":   ClassThreePhase,
	"trifasico":   ClassThreePhase,
	"threephase":  ClassThreePhase,
}

var accentFolder = strings.NewReplacer(
	"á", "a", "à", "a", "â", "a", "ã", "a",
	"é", "e", "ê", "e",
	"í", "i",
	"ó", "o", "ô", "o", "õ", "o",
	"ú", "u",
	"ç", "c",
	" ", "", "-", "", "_", "",
)

// ParseConnectionClass maps wire values and their common aliases to a known class.
// The second return is false when the value is not recognized; the returned class
// then carries the trimmed raw value.
func ParseConnectionClass(raw string) (ConnectionClass, bool) {
	trimmed := strings.TrimSpace(raw)
	key := accentFolder.Replace(strings.ToLower(trimmed))
	if class, ok := connectionAliases[key]; ok {
		return class, true
	}
	return ConnectionClass(trimmed), false
}

// Label returns the display name of the class.
func (c ConnectionClass) Label() string {
	switch c {
	case ClassSinglePhase:
		return "Monofásica"
	case ClassTwoPhase:
		return "Bifásica"
	case ClassThreePhase:
		return "Trifásica"
	}
	if c == "" {
		return "Não informada"
	}
	return string(c)
}

// Known reports whether c is one of the three supply classes.
func (c ConnectionClass) Known() bool {
	switch c {
	case ClassSinglePhase, ClassTwoPhase, ClassThreePhase:
		return true
	}
	return false
}
