package inline

import (
	"encoding/json"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/reelix-cli/reelix/chapter"
	"github.com/reelix-cli/reelix/mediaserver"
	"github.com/reelix-cli/reelix/track"
)

type Entry struct {
	Item     *mediaserver.Item `json:"item"`
	Chapters []chapter.Mark    `json:"chapters"`
	// Tracks and Stream are present when streams were requested.
	Tracks *track.Catalog           `json:"tracks,omitempty"`
	Stream *mediaserver.Descriptor `json:"stream,omitempty"`
}

type Output struct {
	Query  string   `json:"query,omitempty"`
	Result []*Entry `json:"result"`
}

func asJson(entries []*Entry, query string) ([]byte, error) {
	if entries == nil {
		entries = []*Entry{}
	}
	return json.Marshal(&Output{
		Query:  query,
		Result: entries,
	})
}

// Schema describes the JSON output.
func Schema() *jsonschema.Schema {
	reflector := new(jsonschema.Reflector)
	reflector.Anonymous = true
	reflector.Namer = func(t reflect.Type) string {
		name := t.Name()
		switch strings.ToLower(name) {
		case "item", "chapter", "entry", "output":
			return filepath.Base(t.PkgPath()) + "." + name
		}
		return name
	}
	return reflector.Reflect(&Output{})
}
