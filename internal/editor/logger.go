package editor

import "github.com/rs/zerolog"

var editorLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	editorLogger = l
}
