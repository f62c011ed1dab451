package viewer

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/brensch/snekarcade/game"
)

func withCORS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}

// allowMethod applies CORS, answers preflight requests and rejects any method
// other than want. It reports whether the handler should continue.
func allowMethod(w http.ResponseWriter, r *http.Request, want string) bool {
	withCORS(w, r)
	if r.Method == http.MethodOptions {
		return false
	}
	if r.Method != want {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}

func parseIntQuery(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	if n < 0 {
		return def
	}
	return n
}

func zipPoints(xs, ys []int32) []game.Point {
	n := min(len(xs), len(ys))
	out := make([]game.Point, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, game.Point{X: xs[i], Y: ys[i]})
	}
	return out
}

// asInt32Slice converts an INTEGER[] value scanned by DuckDB, which arrives
// as []any holding int32 elements.
func asInt32Slice(v any) []int32 {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]int32, 0, len(list))
	for _, x := range list {
		n, _ := x.(int32)
		out = append(out, n)
	}
	return out
}
