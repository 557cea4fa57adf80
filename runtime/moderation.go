package runtime

import (
	"embed"
	"fmt"
	"log/slog"
	"strings"

	"estate-chat/moderation"
)

//go:embed censored/*
var censoredFolder embed.FS

// LoadModerator loads the embedded censored word dictionaries and builds the
// Aho-Corasick automaton. Heavy I/O and automaton construction happen once,
// at startup.
func LoadModerator(log *slog.Logger, charReplacement rune) (moderation.Moderator, error) {
	loader := NewCensoredLoader(censoredFolder)
	data, err := loader.LoadAll("censored")
	if err != nil {
		return moderation.Moderator{}, err
	}

	log.Info(fmt.Sprintf("%d censored files loaded [%s]",
		len(data.Languages), strings.Join(data.Languages, ",")))
	log.Info(fmt.Sprintf("%d unique censored words loaded", len(data.Words)))

	return moderation.NewModerator(data.Words, charReplacement, log)
}
