package webui

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/davecgh/go-spew/spew"

	"telemetrix.dev/internal/appconf"
	"telemetrix.dev/internal/spatial"
)

//go:embed debug_index.html
var templateFS embed.FS

var debugTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

type debugData struct {
	Title string
	Pre   string
}

// arenaSummary is dumped when no bucket is selected.
type arenaSummary struct {
	Capacity        int
	WindowLength    int
	OccupiedBuckets int
	QueueDepth      int
	QueueCapacity   int
	H3Resolution    int
}

var spewConfig = spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}

func writeDebugData(w http.ResponseWriter, title string, data any) {
	w.Header().Set("Content-Type", "text/html")
	err := debugTemplate.Execute(w, debugData{Title: title, Pre: spewConfig.Sdump(data)})
	if err != nil {
		slog.Error("failed to execute debug template", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// debugArenaHandler dumps one arena bucket, chosen by ?index= or ?cell=,
// or a summary of the whole arena. It is not served in production.
func (webUI *WebUI) debugArenaHandler(w http.ResponseWriter, r *http.Request) {
	if webUI.Config.Env == appconf.Production || webUI.Pipeline == nil {
		http.NotFound(w, r)
		return
	}
	p := webUI.Pipeline
	q := r.URL.Query()

	switch {
	case q.Get("index") != "":
		i, err := strconv.Atoi(q.Get("index"))
		if err != nil || i < 0 || i >= p.Arena.Capacity() {
			http.Error(w, "index must be between 0 and arena capacity - 1", http.StatusBadRequest)
			return
		}
		snap, ok := p.Arena.SnapshotIndex(i)
		if !ok {
			writeDebugData(w, "Arena bucket "+q.Get("index")+" (empty)", nil)
			return
		}
		writeDebugData(w, "Arena bucket "+q.Get("index")+" - cell "+spatial.CellString(snap.Key), snap)

	case q.Get("cell") != "":
		key, err := p.Resolver.KeyForCellString(q.Get("cell"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		snap, ok := p.Arena.Snapshot(key)
		if !ok {
			writeDebugData(w, "Cell "+q.Get("cell")+" (no samples)", nil)
			return
		}
		writeDebugData(w, "Cell "+q.Get("cell"), snap)

	default:
		writeDebugData(w, "Arena summary", arenaSummary{
			Capacity:        p.Arena.Capacity(),
			WindowLength:    p.Arena.WindowLength(),
			OccupiedBuckets: p.Arena.Occupied(),
			QueueDepth:      p.Queue.Len(),
			QueueCapacity:   p.Queue.Cap(),
			H3Resolution:    p.Resolver.Resolution(),
		})
	}
}
